package models

import "time"

// Conversation is a group chat scope. Created lazily on first reference.
type Conversation struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	WelcomeEnabled  bool      `json:"welcomeEnabled"`
	GoodbyeEnabled  bool      `json:"goodbyeEnabled"`
	AntiLink        bool      `json:"antiLink"`
	AntiSpam        bool      `json:"antiSpam"`
	ProfanityFilter bool      `json:"profanityFilter"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ConversationFlags carries the toggleable feature flags of a conversation.
type ConversationFlags struct {
	WelcomeEnabled  bool `json:"welcomeEnabled"`
	GoodbyeEnabled  bool `json:"goodbyeEnabled"`
	AntiLink        bool `json:"antiLink"`
	AntiSpam        bool `json:"antiSpam"`
	ProfanityFilter bool `json:"profanityFilter"`
}

// ConversationMessages holds the configurable welcome/goodbye texts.
type ConversationMessages struct {
	WelcomeMessage string `json:"welcomeMessage,omitempty"`
	GoodbyeMessage string `json:"goodbyeMessage,omitempty"`
}
