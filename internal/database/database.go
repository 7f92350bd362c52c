package database

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/wardbot/backend/internal/models"
)

// Document is the full persisted state. Every mutation is followed by a
// synchronous whole-file rewrite; there is no partial write path.
type Document struct {
	Actors               map[string]*models.Actor                `json:"actors"`
	Conversations        map[string]*models.Conversation         `json:"conversations"`
	ConversationSettings map[string]*models.ConversationMessages `json:"conversationSettings"`
	Warnings             []*models.Warning                       `json:"warnings"`
	Mutes                []*models.Mute                          `json:"mutes"`
	AuditLog             []*models.AuditEntry                    `json:"auditLog"`
	CommandStats         []*models.CommandUsage                  `json:"commandStats"`
	Settings             Settings                                `json:"settings"`
	Analytics            Analytics                               `json:"analytics"`
	Counters             Counters                                `json:"counters"`
}

type Settings struct {
	Features       map[string]bool `json:"features"`
	CommandToggles map[string]bool `json:"commandToggles"`
}

type Analytics struct {
	TotalMessagesProcessed int64 `json:"totalMessagesProcessed"`
}

type Counters struct {
	NextCase int `json:"nextCase"`
}

// NewDocument returns a document with every collection initialized.
func NewDocument() *Document {
	return &Document{
		Actors:               map[string]*models.Actor{},
		Conversations:        map[string]*models.Conversation{},
		ConversationSettings: map[string]*models.ConversationMessages{},
		Warnings:             []*models.Warning{},
		Mutes:                []*models.Mute{},
		AuditLog:             []*models.AuditEntry{},
		CommandStats:         []*models.CommandUsage{},
		Settings:             Settings{Features: map[string]bool{}, CommandToggles: map[string]bool{}},
		Counters:             Counters{NextCase: 1},
	}
}

// DB is the single-writer document store shared by all repositories.
// Repositories take the lock around each operation; DB methods other than
// Load assume the caller holds it.
type DB struct {
	path string
	mu   sync.Mutex
	Doc  *Document
}

// Open prepares a store backed by the given file path. No I/O happens
// until Load.
func Open(path string) *DB {
	return &DB{path: path, Doc: NewDocument()}
}

func (db *DB) Lock()   { db.mu.Lock() }
func (db *DB) Unlock() { db.mu.Unlock() }

// Load reads the backing file if present, fills missing collections with
// empty defaults, back-fills case ids on legacy records, then persists once.
func (db *DB) Load() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(db.path), 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	raw, err := os.ReadFile(db.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read database file: %w", err)
	}
	if len(raw) > 0 {
		doc := NewDocument()
		if err := json.Unmarshal(raw, doc); err != nil {
			return fmt.Errorf("failed to parse database file: %w", err)
		}
		db.Doc = doc
	}

	db.ensureDefaults()
	db.backfillCaseIDs()
	db.Save()
	return nil
}

// ensureDefaults guarantees all top-level collections exist after a load of
// an older or hand-edited document.
func (db *DB) ensureDefaults() {
	doc := db.Doc
	if doc.Actors == nil {
		doc.Actors = map[string]*models.Actor{}
	}
	if doc.Conversations == nil {
		doc.Conversations = map[string]*models.Conversation{}
	}
	if doc.ConversationSettings == nil {
		doc.ConversationSettings = map[string]*models.ConversationMessages{}
	}
	if doc.Warnings == nil {
		doc.Warnings = []*models.Warning{}
	}
	if doc.Mutes == nil {
		doc.Mutes = []*models.Mute{}
	}
	if doc.AuditLog == nil {
		doc.AuditLog = []*models.AuditEntry{}
	}
	if doc.CommandStats == nil {
		doc.CommandStats = []*models.CommandUsage{}
	}
	if doc.Settings.Features == nil {
		doc.Settings.Features = map[string]bool{}
	}
	if doc.Settings.CommandToggles == nil {
		doc.Settings.CommandToggles = map[string]bool{}
	}
	if doc.Counters.NextCase < 1 {
		doc.Counters.NextCase = 1
	}
}

// Save serializes the whole document and atomically replaces the backing
// file. A write failure is logged and swallowed: the in-memory state stays
// authoritative for the rest of the process lifetime.
func (db *DB) Save() {
	data, err := json.MarshalIndent(db.Doc, "", "  ")
	if err != nil {
		log.Printf("Failed to serialize database: %v", err)
		return
	}

	tmp := db.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		log.Printf("Failed to save database: %v", err)
		return
	}
	if err := os.Rename(tmp, db.path); err != nil {
		log.Printf("Failed to save database: %v", err)
	}
}

// NextCaseID returns the next case token and advances the counter. Case
// numbers are never reused or decremented.
func (db *DB) NextCaseID() string {
	id := FormatCaseID(db.Doc.Counters.NextCase)
	db.Doc.Counters.NextCase++
	return id
}
