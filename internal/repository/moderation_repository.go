package repository

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/wardbot/backend/internal/database"
	"github.com/wardbot/backend/internal/models"
)

// SystemActor attributes actions taken by the engine itself, such as
// escalation mutes and filter warnings.
const SystemActor = "system"

// ModerationRepository is the warning/mute ledger and its audit trail.
// Expiry is lazy: any read of mute state first flips rows whose expiry has
// passed; there is no timer-driven transition.
type ModerationRepository struct {
	db               *database.DB
	threshold        int
	autoMuteDuration time.Duration
	notify           func(*models.AuditEntry)
}

func NewModerationRepository(db *database.DB, threshold int, autoMuteDuration time.Duration) *ModerationRepository {
	return &ModerationRepository{
		db:               db,
		threshold:        threshold,
		autoMuteDuration: autoMuteDuration,
	}
}

// SetNotifier registers a callback invoked once per appended audit entry,
// after the owning operation has persisted. It must not call back into the
// repository.
func (r *ModerationRepository) SetNotifier(fn func(*models.AuditEntry)) {
	r.notify = fn
}

// LogFilter narrows audit-log queries. Zero values match everything.
type LogFilter struct {
	ActorID        string
	ConversationID string
	Limit          int
}

// AddWarning appends a warning with a fresh case id plus a matching audit
// entry, then recomputes the actor's warning count within the conversation.
// Reaching the escalation threshold with no active mute auto-issues a mute
// attributed to the system actor.
func (r *ModerationRepository) AddWarning(actorID, conversationID, reason, issuedBy string) (res *models.WarningResult) {
	var pending []*models.AuditEntry
	defer func() { r.emit(pending) }()

	r.db.Lock()
	defer r.db.Unlock()

	now := time.Now()
	r.cleanupExpiredMutes(now)

	caseID := r.db.NextCaseID()
	warning := &models.Warning{
		ID:             uuid.New(),
		ActorID:        actorID,
		ConversationID: conversationID,
		Reason:         reason,
		IssuedBy:       issuedBy,
		CreatedAt:      now,
		CaseID:         caseID,
	}
	r.db.Doc.Warnings = append(r.db.Doc.Warnings, warning)

	pending = append(pending, r.addLogLocked(models.ActionWarn, map[string]any{
		"actorId":        actorID,
		"conversationId": conversationID,
		"reason":         reason,
		"issuedBy":       issuedBy,
	}, caseID, now))

	total := 0
	for _, w := range r.db.Doc.Warnings {
		if w.ActorID == actorID && w.ConversationID == conversationID {
			total++
		}
	}

	res = &models.WarningResult{
		Warning:       warning,
		TotalWarnings: total,
		CaseID:        caseID,
	}

	if total >= r.threshold && r.findActiveMute(actorID, conversationID) == nil {
		duration := r.autoMuteDuration
		autoReason := fmt.Sprintf("Auto-mute after %d warnings", total)
		mute, entry := r.addMuteLocked(actorID, conversationID, &duration, autoReason, SystemActor, models.MuteAuto, now)
		res.AutoMute = mute
		pending = append(pending, entry)
	}

	r.db.Save()
	return res
}

// AddMute upserts the active-mute slot for the (actor, conversation) pair:
// a second mute while one is active updates the existing row and keeps its
// case id. A nil duration produces a permanent mute.
func (r *ModerationRepository) AddMute(actorID, conversationID string, duration *time.Duration, reason, issuedBy string, kind models.MuteKind) (mute *models.Mute) {
	var pending []*models.AuditEntry
	defer func() { r.emit(pending) }()

	r.db.Lock()
	defer r.db.Unlock()

	now := time.Now()
	r.cleanupExpiredMutes(now)

	mute, entry := r.addMuteLocked(actorID, conversationID, duration, reason, issuedBy, kind, now)
	pending = append(pending, entry)
	r.db.Save()
	return mute
}

// RemoveMute lifts the active mute for the pair, or returns nil if none
// exists (a no-op, not an error).
func (r *ModerationRepository) RemoveMute(actorID, conversationID, liftedBy, reason string) (mute *models.Mute) {
	var pending []*models.AuditEntry
	defer func() { r.emit(pending) }()

	r.db.Lock()
	defer r.db.Unlock()

	now := time.Now()
	mutated := r.cleanupExpiredMutes(now)

	mute = r.findActiveMute(actorID, conversationID)
	if mute == nil {
		if mutated {
			r.db.Save()
		}
		return nil
	}

	mute.Active = false
	mute.EndedAt = &now
	mute.LiftedBy = liftedBy
	mute.LiftReason = reason

	pending = append(pending, r.addLogLocked(models.ActionUnmute, map[string]any{
		"actorId":        actorID,
		"conversationId": conversationID,
		"reason":         reason,
		"issuedBy":       liftedBy,
	}, mute.CaseID, now))

	r.db.Save()
	return mute
}

// ClearWarnings bulk-deletes the actor's warnings in one conversation, or in
// all of them when scope is "all", removing every audit entry that shares a
// deleted case id.
func (r *ModerationRepository) ClearWarnings(actorID, scope string) models.ClearResult {
	r.db.Lock()
	defer r.db.Unlock()

	removed := []string{}
	kept := make([]*models.Warning, 0, len(r.db.Doc.Warnings))
	for _, w := range r.db.Doc.Warnings {
		if w.ActorID == actorID && (scope == "all" || w.ConversationID == scope) {
			if w.CaseID != "" {
				removed = append(removed, w.CaseID)
			}
			continue
		}
		kept = append(kept, w)
	}

	cleared := len(r.db.Doc.Warnings) - len(kept)
	if cleared > 0 {
		r.db.Doc.Warnings = kept
		r.removeLogsForCaseIDs(removed)
		r.db.Save()
	}
	return models.ClearResult{Cleared: cleared, CaseIDs: removed}
}

// ClearMutes is the mute counterpart of ClearWarnings. It removes both
// active and historical rows in scope.
func (r *ModerationRepository) ClearMutes(actorID, scope string) models.ClearResult {
	r.db.Lock()
	defer r.db.Unlock()

	r.cleanupExpiredMutes(time.Now())

	removed := []string{}
	kept := make([]*models.Mute, 0, len(r.db.Doc.Mutes))
	for _, m := range r.db.Doc.Mutes {
		if m.ActorID == actorID && (scope == "all" || m.ConversationID == scope) {
			if m.CaseID != "" {
				removed = append(removed, m.CaseID)
			}
			continue
		}
		kept = append(kept, m)
	}

	cleared := len(r.db.Doc.Mutes) - len(kept)
	if cleared > 0 {
		r.db.Doc.Mutes = kept
		r.removeLogsForCaseIDs(removed)
		r.db.Save()
	}
	return models.ClearResult{Cleared: cleared, CaseIDs: removed}
}

// GetCase resolves a case id to the single record it labels, or nil.
func (r *ModerationRepository) GetCase(caseID string) *models.CaseRecord {
	r.db.Lock()
	defer r.db.Unlock()
	return r.findCase(database.NormalizeCaseID(caseID))
}

// DeleteCase removes the record behind a case id together with every audit
// entry referencing the same case id. Returns the deleted record, or nil
// for an unknown case id. This is the only way an audit entry is removed
// outside bulk clearing.
func (r *ModerationRepository) DeleteCase(caseID string) *models.CaseRecord {
	r.db.Lock()
	defer r.db.Unlock()

	target := database.NormalizeCaseID(caseID)
	rec := r.findCase(target)
	if rec == nil {
		return nil
	}

	switch rec.Type {
	case models.CaseWarning:
		kept := make([]*models.Warning, 0, len(r.db.Doc.Warnings))
		for _, w := range r.db.Doc.Warnings {
			if database.NormalizeCaseID(w.CaseID) != target {
				kept = append(kept, w)
			}
		}
		r.db.Doc.Warnings = kept
	case models.CaseMute:
		kept := make([]*models.Mute, 0, len(r.db.Doc.Mutes))
		for _, m := range r.db.Doc.Mutes {
			if database.NormalizeCaseID(m.CaseID) != target {
				kept = append(kept, m)
			}
		}
		r.db.Doc.Mutes = kept
	}
	r.removeLogsForCaseIDs([]string{target})

	r.db.Save()
	return rec
}

// ActiveMute returns the active mute for the pair after a lazy-expiry pass,
// or nil.
func (r *ModerationRepository) ActiveMute(actorID, conversationID string) *models.Mute {
	r.db.Lock()
	defer r.db.Unlock()

	if r.cleanupExpiredMutes(time.Now()) {
		r.db.Save()
	}
	return r.findActiveMute(actorID, conversationID)
}

// Warnings lists the actor's warnings in one conversation, newest first.
func (r *ModerationRepository) Warnings(actorID, conversationID string) []*models.Warning {
	r.db.Lock()
	defer r.db.Unlock()
	return r.warningsLocked(actorID, conversationID)
}

// WarningCount counts warnings for the actor; an empty conversation id
// counts across all conversations.
func (r *ModerationRepository) WarningCount(actorID, conversationID string) int {
	r.db.Lock()
	defer r.db.Unlock()

	count := 0
	for _, w := range r.db.Doc.Warnings {
		if w.ActorID == actorID && (conversationID == "" || w.ConversationID == conversationID) {
			count++
		}
	}
	return count
}

// Mutes lists every mute row for the actor, newest first.
func (r *ModerationRepository) Mutes(actorID string) []*models.Mute {
	r.db.Lock()
	defer r.db.Unlock()

	if r.cleanupExpiredMutes(time.Now()) {
		r.db.Save()
	}
	return r.mutesLocked(actorID)
}

// TouchMuteNotification stamps the last time the muted actor was notified,
// so enforcement replies can be throttled.
func (r *ModerationRepository) TouchMuteNotification(id uuid.UUID) {
	r.db.Lock()
	defer r.db.Unlock()

	for _, m := range r.db.Doc.Mutes {
		if m.ID == id {
			now := time.Now()
			m.LastNotifiedAt = &now
			r.db.Save()
			return
		}
	}
}

// AddLog appends a log-only audit entry. A caseId already present in the
// payload is reused; otherwise a fresh case id is issued.
func (r *ModerationRepository) AddLog(action string, payload map[string]any) (entry *models.AuditEntry) {
	defer func() { r.emit([]*models.AuditEntry{entry}) }()

	r.db.Lock()
	defer r.db.Unlock()

	caseID := ""
	if payload != nil {
		if v, ok := payload["caseId"].(string); ok {
			caseID = v
		}
	}
	entry = r.addLogLocked(action, payload, caseID, time.Now())
	r.db.Save()
	return entry
}

// Logs returns audit entries matching the filter, newest first. Limit
// defaults to 50.
func (r *ModerationRepository) Logs(filter LogFilter) []*models.AuditEntry {
	r.db.Lock()
	defer r.db.Unlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	matched := []*models.AuditEntry{}
	for _, e := range r.db.Doc.AuditLog {
		if filter.ActorID != "" && payloadString(e, "actorId") != filter.ActorID {
			continue
		}
		if filter.ConversationID != "" && payloadString(e, "conversationId") != filter.ConversationID {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

// Summary aggregates the actor's standing across all conversations.
func (r *ModerationRepository) Summary(actorID string) *models.ModerationSummary {
	r.db.Lock()
	defer r.db.Unlock()

	if r.cleanupExpiredMutes(time.Now()) {
		r.db.Save()
	}
	return r.summaryLocked(actorID)
}

// Detail returns the full per-actor moderation view, or nil for an unknown
// actor.
func (r *ModerationRepository) Detail(actorID string) *models.ModerationDetail {
	r.db.Lock()
	defer r.db.Unlock()

	actor, ok := r.db.Doc.Actors[actorID]
	if !ok {
		return nil
	}

	if r.cleanupExpiredMutes(time.Now()) {
		r.db.Save()
	}

	warnings := r.warningsLocked(actorID, "")
	grouped := map[string][]*models.Warning{}
	for _, w := range warnings {
		key := w.ConversationID
		if key == "" {
			key = "direct"
		}
		grouped[key] = append(grouped[key], w)
	}

	return &models.ModerationDetail{
		Actor:           actor,
		Summary:         r.summaryLocked(actorID),
		Warnings:        warnings,
		GroupedWarnings: grouped,
		Mutes:           r.mutesLocked(actorID),
	}
}

// Overview returns one row per known actor, sorted by total infractions
// descending.
func (r *ModerationRepository) Overview() []*models.OverviewRow {
	r.db.Lock()
	defer r.db.Unlock()

	if r.cleanupExpiredMutes(time.Now()) {
		r.db.Save()
	}

	rows := make([]*models.OverviewRow, 0, len(r.db.Doc.Actors))
	for _, actor := range r.db.Doc.Actors {
		s := r.summaryLocked(actor.ID)
		rows = append(rows, &models.OverviewRow{
			Actor:        actor,
			WarningCount: s.WarningCount,
			TotalMutes:   s.TotalMutes,
			ActiveMutes:  s.ActiveMutes,
			LastWarning:  s.LastWarning,
			LastMute:     s.LastMute,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].WarningCount+rows[i].TotalMutes > rows[j].WarningCount+rows[j].TotalMutes
	})
	return rows
}

// --- unlocked helpers; callers hold the store lock ---

func (r *ModerationRepository) addMuteLocked(actorID, conversationID string, duration *time.Duration, reason, issuedBy string, kind models.MuteKind, now time.Time) (*models.Mute, *models.AuditEntry) {
	var expiresAt *time.Time
	if duration != nil {
		t := now.Add(*duration)
		expiresAt = &t
	}

	mute := r.findActiveMute(actorID, conversationID)
	if mute != nil {
		mute.Reason = reason
		mute.IssuedBy = issuedBy
		mute.UpdatedAt = now
		mute.ExpiresAt = expiresAt
		mute.Kind = kind
	} else {
		mute = &models.Mute{
			ID:             uuid.New(),
			ActorID:        actorID,
			ConversationID: conversationID,
			Reason:         reason,
			IssuedBy:       issuedBy,
			CreatedAt:      now,
			UpdatedAt:      now,
			ExpiresAt:      expiresAt,
			Active:         true,
			Kind:           kind,
			CaseID:         r.db.NextCaseID(),
		}
		r.db.Doc.Mutes = append(r.db.Doc.Mutes, mute)
	}

	payload := map[string]any{
		"actorId":        actorID,
		"conversationId": conversationID,
		"reason":         reason,
		"issuedBy":       issuedBy,
		"kind":           string(kind),
	}
	if duration != nil {
		payload["durationMs"] = duration.Milliseconds()
	}
	entry := r.addLogLocked(models.ActionMute, payload, mute.CaseID, now)
	return mute, entry
}

func (r *ModerationRepository) addLogLocked(action string, payload map[string]any, caseID string, now time.Time) *models.AuditEntry {
	caseID = database.NormalizeCaseID(caseID)
	if caseID == "" {
		caseID = r.db.NextCaseID()
	}
	if payload == nil {
		payload = map[string]any{}
	}
	payload["caseId"] = caseID

	entry := &models.AuditEntry{
		ID:        uuid.New(),
		Action:    action,
		Payload:   payload,
		CaseID:    caseID,
		CreatedAt: now,
	}
	r.db.Doc.AuditLog = append(r.db.Doc.AuditLog, entry)
	return entry
}

// cleanupExpiredMutes flips expired active rows and reports whether any
// state changed. The caller decides when to persist.
func (r *ModerationRepository) cleanupExpiredMutes(now time.Time) bool {
	mutated := false
	for _, m := range r.db.Doc.Mutes {
		if m.Active && m.Expired(now) {
			m.Active = false
			ended := now
			m.EndedAt = &ended
			mutated = true
		}
	}
	return mutated
}

func (r *ModerationRepository) findActiveMute(actorID, conversationID string) *models.Mute {
	for _, m := range r.db.Doc.Mutes {
		if m.ActorID == actorID && m.ConversationID == conversationID && m.Active {
			return m
		}
	}
	return nil
}

func (r *ModerationRepository) findCase(target string) *models.CaseRecord {
	if target == "" {
		return nil
	}
	for _, w := range r.db.Doc.Warnings {
		if database.NormalizeCaseID(w.CaseID) == target {
			return &models.CaseRecord{Type: models.CaseWarning, Warning: w}
		}
	}
	for _, m := range r.db.Doc.Mutes {
		if database.NormalizeCaseID(m.CaseID) == target {
			return &models.CaseRecord{Type: models.CaseMute, Mute: m}
		}
	}
	for _, e := range r.db.Doc.AuditLog {
		if database.NormalizeCaseID(e.CaseID) == target {
			return &models.CaseRecord{Type: models.CaseLog, Entry: e}
		}
	}
	return nil
}

func (r *ModerationRepository) removeLogsForCaseIDs(caseIDs []string) int {
	if len(caseIDs) == 0 {
		return 0
	}
	targets := map[string]bool{}
	for _, id := range caseIDs {
		if n := database.NormalizeCaseID(id); n != "" {
			targets[n] = true
		}
	}
	if len(targets) == 0 {
		return 0
	}

	kept := make([]*models.AuditEntry, 0, len(r.db.Doc.AuditLog))
	for _, e := range r.db.Doc.AuditLog {
		if !targets[database.NormalizeCaseID(e.CaseID)] {
			kept = append(kept, e)
		}
	}
	removed := len(r.db.Doc.AuditLog) - len(kept)
	r.db.Doc.AuditLog = kept
	return removed
}

func (r *ModerationRepository) warningsLocked(actorID, conversationID string) []*models.Warning {
	out := []*models.Warning{}
	for _, w := range r.db.Doc.Warnings {
		if w.ActorID == actorID && (conversationID == "" || w.ConversationID == conversationID) {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *ModerationRepository) mutesLocked(actorID string) []*models.Mute {
	out := []*models.Mute{}
	for _, m := range r.db.Doc.Mutes {
		if m.ActorID == actorID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r *ModerationRepository) summaryLocked(actorID string) *models.ModerationSummary {
	warnings := r.warningsLocked(actorID, "")
	mutes := r.mutesLocked(actorID)

	active := []*models.Mute{}
	for _, m := range mutes {
		if m.Active {
			active = append(active, m)
		}
	}

	s := &models.ModerationSummary{
		WarningCount: len(warnings),
		TotalMutes:   len(mutes),
		ActiveMutes:  active,
	}
	if len(warnings) > 0 {
		s.LastWarning = warnings[0]
	}
	if len(mutes) > 0 {
		s.LastMute = mutes[0]
	}
	return s
}

func (r *ModerationRepository) emit(entries []*models.AuditEntry) {
	if r.notify == nil {
		return
	}
	for _, e := range entries {
		if e != nil {
			r.notify(e)
		}
	}
}

func payloadString(e *models.AuditEntry, key string) string {
	if e.Payload == nil {
		return ""
	}
	v, _ := e.Payload[key].(string)
	return v
}
