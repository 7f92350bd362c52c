package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wardbot/backend/config"
	"github.com/wardbot/backend/internal/auth"
)

type AuthHandler struct {
	cfg        *config.Config
	jwtService *auth.JWTService
}

func NewAuthHandler(cfg *config.Config, jwtService *auth.JWTService) *AuthHandler {
	return &AuthHandler{
		cfg:        cfg,
		jwtService: jwtService,
	}
}

type loginRequest struct {
	Password string `json:"password" binding:"required"`
}

// Login checks the admin password and sets the session cookie
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if h.cfg.Admin.PasswordHash == "" {
		ErrorResponse(c, http.StatusInternalServerError, "Admin password is not configured")
		return
	}

	if err := auth.CheckPassword(h.cfg.Admin.PasswordHash, req.Password); err != nil {
		ErrorResponse(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.jwtService.GenerateToken()
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	secure := h.cfg.Server.Env == "production"
	c.SetCookie(h.cfg.Admin.CookieName, token, int(h.cfg.Admin.SessionExpiry.Seconds()), "/", "", secure, true)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Logout clears the session cookie
func (h *AuthHandler) Logout(c *gin.Context) {
	secure := h.cfg.Server.Env == "production"
	c.SetCookie(h.cfg.Admin.CookieName, "", -1, "/", "", secure, true)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Session reports whether the caller holds a valid session
func (h *AuthHandler) Session(c *gin.Context) {
	token, err := c.Cookie(h.cfg.Admin.CookieName)
	if err != nil || token == "" {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	if _, err := h.jwtService.ValidateToken(token); err != nil {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true})
}
