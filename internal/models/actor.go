package models

import "time"

// Actor is a chat participant. Actors are created or refreshed on every
// inbound message and are never deleted.
type Actor struct {
	ID           string    `json:"id"`
	DisplayName  string    `json:"displayName"`
	Phone        string    `json:"phone"`
	Blocked      bool      `json:"blocked"`
	MessageCount int64     `json:"messageCount"`
	LastSeenAt   time.Time `json:"lastSeenAt"`
	CreatedAt    time.Time `json:"createdAt"`
}
