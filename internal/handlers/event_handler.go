package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wardbot/backend/internal/events"
	"github.com/wardbot/backend/internal/platform"
)

// EventHandler ingests inbound chat events posted by a transport bridge and
// feeds them through the message pipeline.
type EventHandler struct {
	messages *events.MessageHandler
}

func NewEventHandler(messages *events.MessageHandler) *EventHandler {
	return &EventHandler{messages: messages}
}

type inboundMessage struct {
	ConversationID string   `json:"conversation_id" binding:"required"`
	ActorID        string   `json:"actor_id" binding:"required"`
	MessageID      string   `json:"message_id"`
	Text           string   `json:"text"`
	MentionedIDs   []string `json:"mentioned_ids"`
	QuotedActorID  string   `json:"quoted_actor_id"`
	QuotedText     string   `json:"quoted_text"`
}

// Message runs one inbound message through the pipeline
func (h *EventHandler) Message(c *gin.Context) {
	var req inboundMessage
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	ev := &platform.Event{
		ConversationID: req.ConversationID,
		ActorID:        req.ActorID,
		MessageID:      req.MessageID,
		Text:           req.Text,
		MentionedIDs:   req.MentionedIDs,
	}
	if req.QuotedActorID != "" {
		ev.Quoted = &platform.QuotedMessage{ActorID: req.QuotedActorID, Text: req.QuotedText}
	}

	h.messages.Handle(c.Request.Context(), ev)
	c.JSON(http.StatusAccepted, gin.H{"status": "processed"})
}

type membershipEvent struct {
	ConversationID string `json:"conversation_id" binding:"required"`
	ActorID        string `json:"actor_id" binding:"required"`
}

// Join handles a member joining a conversation
func (h *EventHandler) Join(c *gin.Context) {
	var req membershipEvent
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	h.messages.HandleJoin(c.Request.Context(), req.ConversationID, req.ActorID)
	c.JSON(http.StatusAccepted, gin.H{"status": "processed"})
}

// Leave handles a member leaving a conversation
func (h *EventHandler) Leave(c *gin.Context) {
	var req membershipEvent
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	h.messages.HandleLeave(c.Request.Context(), req.ConversationID, req.ActorID)
	c.JSON(http.StatusAccepted, gin.H{"status": "processed"})
}
