// Package platform abstracts the chat transport the engine runs against.
// The engine only needs to receive events, send replies, and inspect the
// participant roster of a group conversation.
package platform

import (
	"context"
	"log"
	"strings"
)

// Event is one inbound message as seen by the engine.
type Event struct {
	ConversationID string
	ActorID        string
	MessageID      string
	Text           string
	MentionedIDs   []string
	Quoted         *QuotedMessage
}

// QuotedMessage carries the author of a replied-to message, used for
// target resolution in moderation commands.
type QuotedMessage struct {
	ActorID string
	Text    string
}

// IsGroupID reports whether a conversation id addresses a group.
func IsGroupID(conversationID string) bool {
	return strings.HasSuffix(conversationID, "@g.us")
}

// IsGroup reports whether the event originated in a group conversation.
func (e *Event) IsGroup() bool {
	return IsGroupID(e.ConversationID)
}

// Participant is one member of a group roster.
type Participant struct {
	ID           string
	IsAdmin      bool
	IsSuperAdmin bool
}

// Contact is the transport's view of an actor.
type Contact struct {
	ID          string
	Phone       string
	DisplayName string
}

// Client is what the engine requires from a transport implementation.
type Client interface {
	// Reply sends text into the event's conversation.
	Reply(ctx context.Context, ev *Event, text string) error
	// Send sends text to an arbitrary conversation.
	Send(ctx context.Context, conversationID, text string) error
	// Roster returns the participants of a group conversation.
	Roster(ctx context.Context, conversationID string) ([]Participant, error)
	// ResolveContact resolves an actor id to contact details.
	ResolveContact(ctx context.Context, actorID string) (*Contact, error)
	// Delete removes a message from the conversation if the transport
	// allows it.
	Delete(ctx context.Context, ev *Event) error
}

// LogClient is a transport that only logs outbound traffic. It backs the
// server binary when no real transport is attached, so the engine and the
// admin API can run standalone.
type LogClient struct{}

func NewLogClient() *LogClient { return &LogClient{} }

func (c *LogClient) Reply(ctx context.Context, ev *Event, text string) error {
	log.Printf("[outbound] reply to %s: %s", ev.ConversationID, text)
	return nil
}

func (c *LogClient) Send(ctx context.Context, conversationID, text string) error {
	log.Printf("[outbound] send to %s: %s", conversationID, text)
	return nil
}

func (c *LogClient) Roster(ctx context.Context, conversationID string) ([]Participant, error) {
	return nil, nil
}

func (c *LogClient) ResolveContact(ctx context.Context, actorID string) (*Contact, error) {
	return &Contact{ID: actorID}, nil
}

func (c *LogClient) Delete(ctx context.Context, ev *Event) error {
	log.Printf("[outbound] delete message %s in %s", ev.MessageID, ev.ConversationID)
	return nil
}
