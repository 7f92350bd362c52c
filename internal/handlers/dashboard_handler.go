package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wardbot/backend/internal/repository"
)

type DashboardHandler struct {
	actors        *repository.ActorRepository
	conversations *repository.ConversationRepository
	settings      *repository.SettingsRepository
	stats         *repository.CommandStatsRepository
}

func NewDashboardHandler(actors *repository.ActorRepository, conversations *repository.ConversationRepository, settings *repository.SettingsRepository, stats *repository.CommandStatsRepository) *DashboardHandler {
	return &DashboardHandler{
		actors:        actors,
		conversations: conversations,
		settings:      settings,
		stats:         stats,
	}
}

// Stats returns the headline dashboard numbers
func (h *DashboardHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"actors":                 h.actors.Count(),
		"conversations":          h.conversations.Count(),
		"totalMessagesProcessed": h.settings.TotalMessagesProcessed(),
		"topCommands":            h.stats.Summary(10),
	})
}

// CommandStats returns per-command usage counts
func (h *DashboardHandler) CommandStats(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	c.JSON(http.StatusOK, gin.H{"commands": h.stats.Summary(limit)})
}

// RecentCommands returns the latest command invocations
func (h *DashboardHandler) RecentCommands(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	c.JSON(http.StatusOK, gin.H{"usage": h.stats.Recent(limit)})
}
