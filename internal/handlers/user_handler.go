package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wardbot/backend/internal/models"
	"github.com/wardbot/backend/internal/repository"
)

type UserHandler struct {
	actors     *repository.ActorRepository
	moderation *repository.ModerationRepository
}

func NewUserHandler(actors *repository.ActorRepository, moderation *repository.ModerationRepository) *UserHandler {
	return &UserHandler{actors: actors, moderation: moderation}
}

// List returns every known actor, most recently seen first
func (h *UserHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"actors": h.actors.All()})
}

// Get returns one actor
func (h *UserHandler) Get(c *gin.Context) {
	actor := h.actors.Get(c.Param("actorId"))
	if actor == nil {
		ErrorResponse(c, http.StatusNotFound, "Actor not found")
		return
	}
	c.JSON(http.StatusOK, actor)
}

// Block stops processing an actor's messages
func (h *UserHandler) Block(c *gin.Context) {
	h.setBlocked(c, true, models.ActionBlock)
}

// Unblock resumes processing an actor's messages
func (h *UserHandler) Unblock(c *gin.Context) {
	h.setBlocked(c, false, models.ActionUnblock)
}

func (h *UserHandler) setBlocked(c *gin.Context, blocked bool, action string) {
	actorID := c.Param("actorId")
	if !h.actors.SetBlocked(actorID, blocked) {
		ErrorResponse(c, http.StatusNotFound, "Actor not found")
		return
	}

	h.moderation.AddLog(action, map[string]any{
		"actorId":  actorID,
		"issuedBy": "dashboard",
	})
	c.JSON(http.StatusOK, h.actors.Get(actorID))
}
