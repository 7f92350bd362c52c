package events

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/wardbot/backend/internal/models"
)

// HandleJoin greets a new group member when the conversation has welcomes
// enabled.
func (h *MessageHandler) HandleJoin(ctx context.Context, conversationID, actorID string) {
	conv := h.conversations.Upsert(conversationID, "", "")
	if !conv.WelcomeEnabled {
		return
	}

	text := "Welcome to the group, %s!"
	if msgs := h.conversations.Messages(conversationID); msgs != nil && msgs.WelcomeMessage != "" {
		text = msgs.WelcomeMessage
	}
	h.send(ctx, conversationID, renderMemberText(text, actorID))
}

// HandleLeave says goodbye to a departing member when enabled.
func (h *MessageHandler) HandleLeave(ctx context.Context, conversationID, actorID string) {
	conv := h.conversations.Get(conversationID)
	if conv == nil || !conv.GoodbyeEnabled {
		return
	}

	text := "Goodbye, %s."
	if msgs := h.conversations.Messages(conversationID); msgs != nil && msgs.GoodbyeMessage != "" {
		text = msgs.GoodbyeMessage
	}
	h.send(ctx, conversationID, renderMemberText(text, actorID))
}

// renderMemberText substitutes the member handle into a template. Both the
// printf form and a {user} placeholder are accepted.
func renderMemberText(template, actorID string) string {
	handle := "@" + models.NormalizeNumber(actorID)
	if strings.Contains(template, "{user}") {
		return strings.ReplaceAll(template, "{user}", handle)
	}
	if strings.Contains(template, "%s") {
		return fmt.Sprintf(template, handle)
	}
	return template
}

func (h *MessageHandler) send(ctx context.Context, conversationID, text string) {
	if err := h.client.Send(ctx, conversationID, text); err != nil {
		log.Printf("Failed to send to %s: %v", conversationID, err)
	}
}
