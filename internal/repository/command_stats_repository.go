package repository

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/wardbot/backend/internal/database"
	"github.com/wardbot/backend/internal/models"
)

// CommandStatsRepository records one row per dispatched command for the
// admin dashboard.
type CommandStatsRepository struct {
	db *database.DB
}

func NewCommandStatsRepository(db *database.DB) *CommandStatsRepository {
	return &CommandStatsRepository{db: db}
}

func (r *CommandStatsRepository) Log(command, actorID, conversationID string) {
	r.db.Lock()
	defer r.db.Unlock()

	r.db.Doc.CommandStats = append(r.db.Doc.CommandStats, &models.CommandUsage{
		ID:             uuid.New(),
		Command:        command,
		ActorID:        actorID,
		ConversationID: conversationID,
		ExecutedAt:     time.Now(),
	})
	r.db.Save()
}

// CommandCount is an aggregated usage count for one command name.
type CommandCount struct {
	Command string `json:"command"`
	Count   int    `json:"count"`
}

// Summary returns per-command usage counts, most used first, capped at
// limit when limit > 0.
func (r *CommandStatsRepository) Summary(limit int) []CommandCount {
	r.db.Lock()
	defer r.db.Unlock()

	counts := map[string]int{}
	for _, u := range r.db.Doc.CommandStats {
		counts[u.Command]++
	}

	out := make([]CommandCount, 0, len(counts))
	for command, count := range counts {
		out = append(out, CommandCount{Command: command, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Command < out[j].Command
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Recent returns the latest usage rows, newest first.
func (r *CommandStatsRepository) Recent(limit int) []*models.CommandUsage {
	r.db.Lock()
	defer r.db.Unlock()

	if limit <= 0 {
		limit = 50
	}
	rows := make([]*models.CommandUsage, len(r.db.Doc.CommandStats))
	copy(rows, r.db.Doc.CommandStats)
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].ExecutedAt.After(rows[j].ExecutedAt)
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
