package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wardbot/backend/config"
	"github.com/wardbot/backend/internal/models"
	"github.com/wardbot/backend/internal/repository"
)

type SettingsHandler struct {
	cfg           *config.Config
	settings      *repository.SettingsRepository
	conversations *repository.ConversationRepository
}

func NewSettingsHandler(cfg *config.Config, settings *repository.SettingsRepository, conversations *repository.ConversationRepository) *SettingsHandler {
	return &SettingsHandler{
		cfg:           cfg,
		settings:      settings,
		conversations: conversations,
	}
}

// Features returns the effective feature flags
func (h *SettingsHandler) Features(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"features": h.settings.Features(h.cfg.FeatureDefaults())})
}

type setFeatureRequest struct {
	Flag    string `json:"flag" binding:"required"`
	Enabled *bool  `json:"enabled" binding:"required"`
}

// SetFeature overrides one feature flag
func (h *SettingsHandler) SetFeature(c *gin.Context) {
	var req setFeatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	h.settings.SetFeature(req.Flag, *req.Enabled)
	c.JSON(http.StatusOK, gin.H{"features": h.settings.Features(h.cfg.FeatureDefaults())})
}

// CommandToggles returns the explicit per-command enable overrides
func (h *SettingsHandler) CommandToggles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"commands": h.settings.CommandToggles()})
}

type setCommandToggleRequest struct {
	Command string `json:"command" binding:"required"`
	Enabled *bool  `json:"enabled" binding:"required"`
}

// SetCommandToggle enables or disables one command
func (h *SettingsHandler) SetCommandToggle(c *gin.Context) {
	var req setCommandToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	h.settings.SetCommandEnabled(req.Command, *req.Enabled)
	c.JSON(http.StatusOK, gin.H{"commands": h.settings.CommandToggles()})
}

// Conversations lists every known conversation
func (h *SettingsHandler) Conversations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"conversations": h.conversations.All()})
}

// UpdateConversationFlags replaces a conversation's feature flags
func (h *SettingsHandler) UpdateConversationFlags(c *gin.Context) {
	var flags models.ConversationFlags
	if err := c.ShouldBindJSON(&flags); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if !h.conversations.UpdateFlags(c.Param("conversationId"), flags) {
		ErrorResponse(c, http.StatusNotFound, "Conversation not found")
		return
	}
	c.JSON(http.StatusOK, h.conversations.Get(c.Param("conversationId")))
}

type setMessageRequest struct {
	Message string `json:"message"`
}

// SetWelcomeMessage sets the welcome text for a conversation
func (h *SettingsHandler) SetWelcomeMessage(c *gin.Context) {
	var req setMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	h.conversations.SetWelcomeMessage(c.Param("conversationId"), req.Message)
	c.JSON(http.StatusOK, h.conversations.Messages(c.Param("conversationId")))
}

// SetGoodbyeMessage sets the goodbye text for a conversation
func (h *SettingsHandler) SetGoodbyeMessage(c *gin.Context) {
	var req setMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	h.conversations.SetGoodbyeMessage(c.Param("conversationId"), req.Message)
	c.JSON(http.StatusOK, h.conversations.Messages(c.Param("conversationId")))
}
