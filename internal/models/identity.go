package models

import "strings"

// Identity carries the two equivalent representations under which a chat
// participant may be observed: the platform-serialized id and, when a
// contact lookup resolved one, the normalized phone number. The two event
// sources are not guaranteed to agree on which form they emit, so equality
// checks both.
type Identity struct {
	ID    string
	Phone string
}

// NewIdentity builds an identity from a raw event id and an optional
// contact-resolved phone number.
func NewIdentity(id, phone string) Identity {
	return Identity{ID: id, Phone: NormalizeNumber(phone)}
}

// Matches reports whether the given roster entry id refers to this identity,
// under either representation.
func (i Identity) Matches(rosterID string) bool {
	if rosterID == "" {
		return false
	}
	if rosterID == i.ID {
		return true
	}
	digits := NormalizeNumber(rosterID)
	if digits == "" {
		return false
	}
	if i.Phone != "" && digits == i.Phone {
		return true
	}
	own := NormalizeNumber(i.ID)
	return own != "" && digits == own
}

// Candidates returns the distinct comparable forms of this identity.
func (i Identity) Candidates() []string {
	seen := map[string]bool{}
	out := []string{}
	for _, c := range []string{i.ID, NormalizeNumber(i.ID), i.Phone} {
		if c != "" && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// NormalizeNumber reduces a phone number or serialized id to bare digits.
// Anything after an '@' (the platform suffix) is dropped first.
func NormalizeNumber(value string) string {
	if at := strings.IndexByte(value, '@'); at >= 0 {
		value = value[:at]
	}
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
