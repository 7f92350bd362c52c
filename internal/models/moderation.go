package models

import (
	"time"

	"github.com/google/uuid"
)

// Moderation actions recorded in the audit log.
const (
	ActionWarn       = "warn"
	ActionMute       = "mute"
	ActionUnmute     = "unmute"
	ActionUnwarn     = "unwarn"
	ActionClearMutes = "clearMutes"
	ActionKick       = "kick"
	ActionBlock      = "block"
	ActionUnblock    = "unblock"
)

type MuteKind string

const (
	MuteManual MuteKind = "manual"
	MuteAuto   MuteKind = "auto"
)

// Warning is immutable once created except via deletion.
type Warning struct {
	ID             uuid.UUID `json:"id"`
	ActorID        string    `json:"actorId"`
	ConversationID string    `json:"conversationId"`
	Reason         string    `json:"reason"`
	IssuedBy       string    `json:"issuedBy"`
	CreatedAt      time.Time `json:"createdAt"`
	CaseID         string    `json:"caseId"`
}

// Mute is the mute slot for an (actor, conversation) pair. At most one
// active mute may exist per pair; re-muting updates the existing row.
type Mute struct {
	ID             uuid.UUID  `json:"id"`
	ActorID        string     `json:"actorId"`
	ConversationID string     `json:"conversationId"`
	Reason         string     `json:"reason"`
	IssuedBy       string     `json:"issuedBy"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	ExpiresAt      *time.Time `json:"expiresAt"` // nil = permanent
	Active         bool       `json:"active"`
	Kind           MuteKind   `json:"kind"`
	CaseID         string     `json:"caseId"`
	EndedAt        *time.Time `json:"endedAt,omitempty"`
	LiftedBy       string     `json:"liftedBy,omitempty"`
	LiftReason     string     `json:"liftReason,omitempty"`
	LastNotifiedAt *time.Time `json:"lastNotifiedAt,omitempty"`
}

// Expired reports whether the mute's expiry has passed at the given instant.
// Permanent mutes never expire.
func (m *Mute) Expired(now time.Time) bool {
	return m.ExpiresAt != nil && !now.Before(*m.ExpiresAt)
}

// Remaining returns the time left on the mute, or nil for a permanent mute.
func (m *Mute) Remaining(now time.Time) *time.Duration {
	if m.ExpiresAt == nil {
		return nil
	}
	d := m.ExpiresAt.Sub(now)
	if d < 0 {
		d = 0
	}
	return &d
}

// AuditEntry records one governance action. Append-only except when its
// referenced case is explicitly deleted.
type AuditEntry struct {
	ID        uuid.UUID      `json:"id"`
	Action    string         `json:"action"`
	Payload   map[string]any `json:"payload"`
	CaseID    string         `json:"caseId"`
	CreatedAt time.Time      `json:"createdAt"`
}

// CommandUsage is one usage-telemetry row recorded per dispatched command.
type CommandUsage struct {
	ID             uuid.UUID `json:"id"`
	Command        string    `json:"command"`
	ActorID        string    `json:"actorId"`
	ConversationID string    `json:"conversationId,omitempty"`
	ExecutedAt     time.Time `json:"executedAt"`
}

// WarningResult is returned by warning issuance: the created warning, the
// actor's new per-conversation total, and the auto-mute if escalation fired.
type WarningResult struct {
	Warning       *Warning `json:"warning"`
	TotalWarnings int      `json:"totalWarnings"`
	AutoMute      *Mute    `json:"autoMute,omitempty"`
	CaseID        string   `json:"caseId"`
}

// ClearResult summarizes a bulk clear. Cleared == 0 means nothing matched,
// which is informational, not an error.
type ClearResult struct {
	Cleared int      `json:"cleared"`
	CaseIDs []string `json:"caseIds"`
}

// CaseType identifies which record kind a case id resolves to.
type CaseType string

const (
	CaseWarning CaseType = "warning"
	CaseMute    CaseType = "mute"
	CaseLog     CaseType = "log"
)

// CaseRecord is the resolved view behind a case id: exactly one of Warning,
// Mute or Entry is set, according to Type.
type CaseRecord struct {
	Type    CaseType    `json:"type"`
	Warning *Warning    `json:"warning,omitempty"`
	Mute    *Mute       `json:"mute,omitempty"`
	Entry   *AuditEntry `json:"entry,omitempty"`
}

// ModerationSummary is the per-actor aggregate across all conversations.
type ModerationSummary struct {
	WarningCount int      `json:"warningCount"`
	TotalMutes   int      `json:"totalMutes"`
	ActiveMutes  []*Mute  `json:"activeMutes"`
	LastWarning  *Warning `json:"lastWarning,omitempty"`
	LastMute     *Mute    `json:"lastMute,omitempty"`
}

// ModerationDetail combines the summary with full warning/mute listings.
type ModerationDetail struct {
	Actor           *Actor                `json:"actor"`
	Summary         *ModerationSummary    `json:"summary"`
	Warnings        []*Warning            `json:"warnings"`
	GroupedWarnings map[string][]*Warning `json:"groupedWarnings"`
	Mutes           []*Mute               `json:"mutes"`
}

// OverviewRow is one actor's line in the global moderation overview.
type OverviewRow struct {
	Actor        *Actor   `json:"actor"`
	WarningCount int      `json:"warningCount"`
	TotalMutes   int      `json:"totalMutes"`
	ActiveMutes  []*Mute  `json:"activeMutes"`
	LastWarning  *Warning `json:"lastWarning,omitempty"`
	LastMute     *Mute    `json:"lastMute,omitempty"`
}

// Admin API request bodies.

type WarnRequest struct {
	ActorID        string `json:"actor_id" binding:"required"`
	ConversationID string `json:"conversation_id" binding:"required"`
	Reason         string `json:"reason"`
}

type MuteRequest struct {
	ActorID        string `json:"actor_id" binding:"required"`
	ConversationID string `json:"conversation_id" binding:"required"`
	DurationMin    *int   `json:"duration_minutes"` // nil = permanent
	Reason         string `json:"reason"`
}

type UnmuteRequest struct {
	ActorID        string `json:"actor_id" binding:"required"`
	ConversationID string `json:"conversation_id" binding:"required"`
	Reason         string `json:"reason"`
}

type ClearRequest struct {
	ActorID string `json:"actor_id" binding:"required"`
	// Scope is a conversation id, or "all" for every conversation.
	Scope string `json:"scope" binding:"required"`
	// Kind selects what to clear: "warnings" or "mutes".
	Kind string `json:"kind" binding:"required"`
}
