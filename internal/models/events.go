package models

// WebSocket event types
const (
	EventModerationLog = "moderation.log"
)

// WSMessage is the envelope for events pushed to dashboard sessions.
type WSMessage struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}
