package repository

import (
	"sort"
	"time"

	"github.com/wardbot/backend/internal/database"
	"github.com/wardbot/backend/internal/models"
)

type ActorRepository struct {
	db *database.DB
}

func NewActorRepository(db *database.DB) *ActorRepository {
	return &ActorRepository{db: db}
}

// Upsert creates or refreshes the actor seen on an inbound message and bumps
// the message counters.
func (r *ActorRepository) Upsert(id, displayName, phone string) *models.Actor {
	r.db.Lock()
	defer r.db.Unlock()

	now := time.Now()
	actor, ok := r.db.Doc.Actors[id]
	if !ok {
		actor = &models.Actor{
			ID:        id,
			CreatedAt: now,
		}
		r.db.Doc.Actors[id] = actor
	}
	actor.DisplayName = displayName
	actor.Phone = models.NormalizeNumber(phone)
	actor.LastSeenAt = now
	actor.MessageCount++
	r.db.Doc.Analytics.TotalMessagesProcessed++

	r.db.Save()
	return actor
}

func (r *ActorRepository) Get(id string) *models.Actor {
	r.db.Lock()
	defer r.db.Unlock()
	return r.db.Doc.Actors[id]
}

// All returns every known actor sorted by last-seen descending.
func (r *ActorRepository) All() []*models.Actor {
	r.db.Lock()
	defer r.db.Unlock()

	actors := make([]*models.Actor, 0, len(r.db.Doc.Actors))
	for _, a := range r.db.Doc.Actors {
		actors = append(actors, a)
	}
	sort.Slice(actors, func(i, j int) bool {
		return actors[i].LastSeenAt.After(actors[j].LastSeenAt)
	})
	return actors
}

func (r *ActorRepository) Count() int {
	r.db.Lock()
	defer r.db.Unlock()
	return len(r.db.Doc.Actors)
}

// SetBlocked flips the global block flag. Returns false for unknown actors.
func (r *ActorRepository) SetBlocked(id string, blocked bool) bool {
	r.db.Lock()
	defer r.db.Unlock()

	actor, ok := r.db.Doc.Actors[id]
	if !ok {
		return false
	}
	actor.Blocked = blocked
	r.db.Save()
	return true
}

func (r *ActorRepository) IsBlocked(id string) bool {
	r.db.Lock()
	defer r.db.Unlock()

	actor, ok := r.db.Doc.Actors[id]
	return ok && actor.Blocked
}
