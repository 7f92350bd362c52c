package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wardbot/backend/internal/models"
	"github.com/wardbot/backend/internal/repository"
)

const (
	defaultLogLimit = 200
	maxLogLimit     = 1000
)

type ModerationHandler struct {
	moderation *repository.ModerationRepository
}

func NewModerationHandler(moderation *repository.ModerationRepository) *ModerationHandler {
	return &ModerationHandler{moderation: moderation}
}

// Overview lists every actor with their moderation standing
func (h *ModerationHandler) Overview(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"actors": h.moderation.Overview()})
}

// Detail returns the full moderation view for one actor
func (h *ModerationHandler) Detail(c *gin.Context) {
	detail := h.moderation.Detail(c.Param("actorId"))
	if detail == nil {
		ErrorResponse(c, http.StatusNotFound, "Actor not found")
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Logs returns filtered audit entries, newest first
func (h *ModerationHandler) Logs(c *gin.Context) {
	limit := defaultLogLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxLogLimit {
		limit = maxLogLimit
	}

	logs := h.moderation.Logs(repository.LogFilter{
		ActorID:        c.Query("actor_id"),
		ConversationID: c.Query("conversation_id"),
		Limit:          limit,
	})
	c.JSON(http.StatusOK, gin.H{"logs": logs, "count": len(logs)})
}

// Warn issues a warning on behalf of the dashboard
func (h *ModerationHandler) Warn(c *gin.Context) {
	var req models.WarnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = "No reason provided"
	}
	res := h.moderation.AddWarning(req.ActorID, req.ConversationID, reason, "dashboard")
	c.JSON(http.StatusCreated, res)
}

// Mute mutes an actor; a missing duration means permanent
func (h *ModerationHandler) Mute(c *gin.Context) {
	var req models.MuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var duration *time.Duration
	if req.DurationMin != nil {
		if *req.DurationMin < 0 {
			ErrorResponse(c, http.StatusBadRequest, "duration_minutes must not be negative")
			return
		}
		d := time.Duration(*req.DurationMin) * time.Minute
		duration = &d
	}

	reason := req.Reason
	if reason == "" {
		reason = "No reason provided"
	}
	mute := h.moderation.AddMute(req.ActorID, req.ConversationID, duration, reason, "dashboard", models.MuteManual)
	c.JSON(http.StatusCreated, mute)
}

// Unmute lifts an active mute
func (h *ModerationHandler) Unmute(c *gin.Context) {
	var req models.UnmuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	mute := h.moderation.RemoveMute(req.ActorID, req.ConversationID, "dashboard", req.Reason)
	if mute == nil {
		ErrorResponse(c, http.StatusNotFound, "No active mute for that actor")
		return
	}
	c.JSON(http.StatusOK, mute)
}

// Clear bulk-clears warnings or mutes for an actor
func (h *ModerationHandler) Clear(c *gin.Context) {
	var req models.ClearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var res models.ClearResult
	switch req.Kind {
	case "warnings":
		res = h.moderation.ClearWarnings(req.ActorID, req.Scope)
		if res.Cleared > 0 {
			h.moderation.AddLog(models.ActionUnwarn, map[string]any{
				"actorId":  req.ActorID,
				"scope":    req.Scope,
				"issuedBy": "dashboard",
				"cleared":  res.Cleared,
			})
		}
	case "mutes":
		res = h.moderation.ClearMutes(req.ActorID, req.Scope)
		if res.Cleared > 0 {
			h.moderation.AddLog(models.ActionClearMutes, map[string]any{
				"actorId":  req.ActorID,
				"scope":    req.Scope,
				"issuedBy": "dashboard",
				"cleared":  res.Cleared,
			})
		}
	default:
		ErrorResponse(c, http.StatusBadRequest, "kind must be \"warnings\" or \"mutes\"")
		return
	}

	c.JSON(http.StatusOK, res)
}

// GetCase resolves one case id
func (h *ModerationHandler) GetCase(c *gin.Context) {
	rec := h.moderation.GetCase(c.Param("caseId"))
	if rec == nil {
		ErrorResponse(c, http.StatusNotFound, "Case not found")
		return
	}
	c.JSON(http.StatusOK, rec)
}

// DeleteCase removes a case and its audit entries
func (h *ModerationHandler) DeleteCase(c *gin.Context) {
	rec := h.moderation.DeleteCase(c.Param("caseId"))
	if rec == nil {
		ErrorResponse(c, http.StatusNotFound, "Case not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": rec})
}
