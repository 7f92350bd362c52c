package repository

import (
	"github.com/wardbot/backend/internal/database"
)

// SettingsRepository owns global feature flags, command toggles and the
// message-processing analytics counter.
type SettingsRepository struct {
	db *database.DB
}

func NewSettingsRepository(db *database.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) SetFeature(flag string, enabled bool) {
	r.db.Lock()
	defer r.db.Unlock()
	r.db.Doc.Settings.Features[flag] = enabled
	r.db.Save()
}

// Feature returns the stored flag, falling back to the given default when
// the flag was never set.
func (r *SettingsRepository) Feature(flag string, defaultValue bool) bool {
	r.db.Lock()
	defer r.db.Unlock()

	if v, ok := r.db.Doc.Settings.Features[flag]; ok {
		return v
	}
	return defaultValue
}

// Features merges stored flags over the given defaults.
func (r *SettingsRepository) Features(defaults map[string]bool) map[string]bool {
	r.db.Lock()
	defer r.db.Unlock()

	out := map[string]bool{}
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range r.db.Doc.Settings.Features {
		out[k] = v
	}
	return out
}

func (r *SettingsRepository) SetCommandEnabled(name string, enabled bool) {
	r.db.Lock()
	defer r.db.Unlock()
	r.db.Doc.Settings.CommandToggles[name] = enabled
	r.db.Save()
}

// CommandEnabled defaults to true for commands without an explicit toggle.
func (r *SettingsRepository) CommandEnabled(name string) bool {
	r.db.Lock()
	defer r.db.Unlock()

	if v, ok := r.db.Doc.Settings.CommandToggles[name]; ok {
		return v
	}
	return true
}

func (r *SettingsRepository) CommandToggles() map[string]bool {
	r.db.Lock()
	defer r.db.Unlock()

	out := map[string]bool{}
	for k, v := range r.db.Doc.Settings.CommandToggles {
		out[k] = v
	}
	return out
}

func (r *SettingsRepository) TotalMessagesProcessed() int64 {
	r.db.Lock()
	defer r.db.Unlock()
	return r.db.Doc.Analytics.TotalMessagesProcessed
}
