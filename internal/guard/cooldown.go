// Package guard provides in-memory rate limiting for command dispatch:
// per-(actor, command) cooldowns and a sliding-window spam check. Nothing
// here is persisted; restart clears all state.
package guard

import (
	"sync"
	"time"
)

const spamWindow = 60 * time.Second

// CooldownManager tracks cooldown expiries and recent message timestamps.
// Safe for concurrent use. Entries are evicted lazily on read.
type CooldownManager struct {
	mu              sync.Mutex
	defaultCooldown time.Duration
	cooldowns       map[string]time.Time
	messageTimes    map[string][]time.Time
	now             func() time.Time
}

func NewCooldownManager(defaultCooldown time.Duration) *CooldownManager {
	return &CooldownManager{
		defaultCooldown: defaultCooldown,
		cooldowns:       map[string]time.Time{},
		messageTimes:    map[string][]time.Time{},
		now:             time.Now,
	}
}

func cooldownKey(actorID, command string) string {
	return actorID + ":" + command
}

// IsOnCooldown reports whether the actor is still cooling down for the
// command. At the exact expiry instant the cooldown is over.
func (m *CooldownManager) IsOnCooldown(actorID, command string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := cooldownKey(actorID, command)
	expiry, ok := m.cooldowns[key]
	if !ok {
		return false
	}
	if !m.now().Before(expiry) {
		delete(m.cooldowns, key)
		return false
	}
	return true
}

// SetCooldown starts a cooldown for the (actor, command) pair. A
// non-positive duration falls back to the manager default.
func (m *CooldownManager) SetCooldown(actorID, command string, d time.Duration) {
	if d <= 0 {
		d = m.defaultCooldown
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cooldowns[cooldownKey(actorID, command)] = m.now().Add(d)
}

// RemainingTime returns the time left on a cooldown, or zero when none is
// active.
func (m *CooldownManager) RemainingTime(actorID, command string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := cooldownKey(actorID, command)
	expiry, ok := m.cooldowns[key]
	if !ok {
		return 0
	}
	remaining := expiry.Sub(m.now())
	if remaining <= 0 {
		delete(m.cooldowns, key)
		return 0
	}
	return remaining
}

// IsSpamming records the current message and reports whether the actor has
// now exceeded maxPerWindow messages inside the sliding window.
func (m *CooldownManager) IsSpamming(actorID string, maxPerWindow int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	cutoff := now.Add(-spamWindow)

	recent := m.messageTimes[actorID][:0]
	for _, t := range m.messageTimes[actorID] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	recent = append(recent, now)
	m.messageTimes[actorID] = recent

	return len(recent) > maxPerWindow
}

// ClearActorCooldowns drops every cooldown held by one actor. Spam history
// is kept.
func (m *CooldownManager) ClearActorCooldowns(actorID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := actorID + ":"
	for key := range m.cooldowns {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(m.cooldowns, key)
		}
	}
}

// Reset drops all cooldown and spam state.
func (m *CooldownManager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cooldowns = map[string]time.Time{}
	m.messageTimes = map[string][]time.Time{}
}
