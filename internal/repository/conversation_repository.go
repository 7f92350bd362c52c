package repository

import (
	"sort"
	"time"

	"github.com/wardbot/backend/internal/database"
	"github.com/wardbot/backend/internal/models"
)

type ConversationRepository struct {
	db *database.DB
}

func NewConversationRepository(db *database.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Upsert creates the conversation on first reference; on later calls only
// name and description are refreshed, never the flags.
func (r *ConversationRepository) Upsert(id, name, description string) *models.Conversation {
	r.db.Lock()
	defer r.db.Unlock()

	conv, ok := r.db.Doc.Conversations[id]
	if !ok {
		conv = &models.Conversation{
			ID:             id,
			WelcomeEnabled: true,
			GoodbyeEnabled: true,
			CreatedAt:      time.Now(),
		}
		r.db.Doc.Conversations[id] = conv
	}
	if name != "" {
		conv.Name = name
	}
	if description != "" {
		conv.Description = description
	}
	r.db.Save()
	return conv
}

func (r *ConversationRepository) Get(id string) *models.Conversation {
	r.db.Lock()
	defer r.db.Unlock()
	return r.db.Doc.Conversations[id]
}

// All returns every known conversation sorted by creation time descending.
func (r *ConversationRepository) All() []*models.Conversation {
	r.db.Lock()
	defer r.db.Unlock()

	convs := make([]*models.Conversation, 0, len(r.db.Doc.Conversations))
	for _, c := range r.db.Doc.Conversations {
		convs = append(convs, c)
	}
	sort.Slice(convs, func(i, j int) bool {
		return convs[i].CreatedAt.After(convs[j].CreatedAt)
	})
	return convs
}

func (r *ConversationRepository) Count() int {
	r.db.Lock()
	defer r.db.Unlock()
	return len(r.db.Doc.Conversations)
}

// UpdateFlags replaces the conversation's feature flags. Returns false if
// the conversation is unknown.
func (r *ConversationRepository) UpdateFlags(id string, flags models.ConversationFlags) bool {
	r.db.Lock()
	defer r.db.Unlock()

	conv, ok := r.db.Doc.Conversations[id]
	if !ok {
		return false
	}
	conv.WelcomeEnabled = flags.WelcomeEnabled
	conv.GoodbyeEnabled = flags.GoodbyeEnabled
	conv.AntiLink = flags.AntiLink
	conv.AntiSpam = flags.AntiSpam
	conv.ProfanityFilter = flags.ProfanityFilter
	r.db.Save()
	return true
}

func (r *ConversationRepository) Messages(id string) *models.ConversationMessages {
	r.db.Lock()
	defer r.db.Unlock()

	if m, ok := r.db.Doc.ConversationSettings[id]; ok {
		return m
	}
	return &models.ConversationMessages{}
}

func (r *ConversationRepository) SetWelcomeMessage(id, message string) {
	r.db.Lock()
	defer r.db.Unlock()
	r.messages(id).WelcomeMessage = message
	r.db.Save()
}

func (r *ConversationRepository) SetGoodbyeMessage(id, message string) {
	r.db.Lock()
	defer r.db.Unlock()
	r.messages(id).GoodbyeMessage = message
	r.db.Save()
}

func (r *ConversationRepository) messages(id string) *models.ConversationMessages {
	m, ok := r.db.Doc.ConversationSettings[id]
	if !ok {
		m = &models.ConversationMessages{}
		r.db.Doc.ConversationSettings[id] = m
	}
	return m
}
