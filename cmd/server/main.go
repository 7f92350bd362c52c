package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/wardbot/backend/config"
	"github.com/wardbot/backend/internal/auth"
	"github.com/wardbot/backend/internal/cache"
	"github.com/wardbot/backend/internal/commands"
	"github.com/wardbot/backend/internal/database"
	"github.com/wardbot/backend/internal/dispatcher"
	"github.com/wardbot/backend/internal/events"
	"github.com/wardbot/backend/internal/guard"
	"github.com/wardbot/backend/internal/handlers"
	"github.com/wardbot/backend/internal/middleware"
	"github.com/wardbot/backend/internal/models"
	"github.com/wardbot/backend/internal/platform"
	"github.com/wardbot/backend/internal/repository"
	"github.com/wardbot/backend/internal/websocket"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Open the document store
	db := database.Open(cfg.Bot.DatabasePath)
	if err := db.Load(); err != nil {
		log.Fatalf("Failed to load database: %v", err)
	}

	// Connect to Redis
	redis, err := cache.NewRedisClient(cfg.GetRedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v", err)
		log.Println("Running without Redis - the audit feed stays in-process")
		redis = nil
	} else {
		defer redis.Close()
	}

	// Initialize services
	jwtService := auth.NewJWTService(cfg.Admin.JWTSecret, cfg.Admin.SessionExpiry)

	// Initialize repositories
	actorRepo := repository.NewActorRepository(db)
	convRepo := repository.NewConversationRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	modRepo := repository.NewModerationRepository(db, cfg.Moderation.WarnEscalationThreshold, cfg.Moderation.AutoMuteDuration)
	statsRepo := repository.NewCommandStatsRepository(db)

	// Audit feed hub
	hub := websocket.NewHub(redis)
	go hub.Run()

	if redis != nil {
		modRepo.SetNotifier(func(entry *models.AuditEntry) {
			if err := redis.PublishModerationLog(entry); err != nil {
				log.Printf("Failed to publish audit entry: %v", err)
			}
		})
	} else {
		modRepo.SetNotifier(hub.BroadcastAuditEntry)
	}

	// Engine wiring
	client := platform.NewLogClient()
	cooldowns := guard.NewCooldownManager(cfg.Moderation.DefaultCooldown)
	registry := dispatcher.NewRegistry()
	disp := dispatcher.New(cfg, client, registry, cooldowns, actorRepo, settingsRepo, statsRepo)

	deps := &commands.Deps{
		Cfg:        cfg,
		Client:     client,
		Actors:     actorRepo,
		Moderation: modRepo,
		Guard:      cooldowns,
		Registry:   registry,
	}
	for _, cmd := range commands.All(deps) {
		registry.Register(cmd)
	}

	msgHandler := events.NewMessageHandler(cfg, client, actorRepo, convRepo, settingsRepo, modRepo, cooldowns, disp)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg, jwtService)
	eventHandler := handlers.NewEventHandler(msgHandler)
	modHandler := handlers.NewModerationHandler(modRepo)
	dashHandler := handlers.NewDashboardHandler(actorRepo, convRepo, settingsRepo, statsRepo)
	settingsHandler := handlers.NewSettingsHandler(cfg, settingsRepo, convRepo)
	userHandler := handlers.NewUserHandler(actorRepo, modRepo)
	wsHandler := websocket.NewHandler(hub, jwtService, cfg.Admin.CookieName, cfg.CORS.AllowedOrigins)

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter(cfg.API.RateLimitPerSec)
	rateLimiter.Cleanup()

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Middleware
	router.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	router.Use(middleware.RateLimitMiddleware(rateLimiter))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Public routes
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/logout", authHandler.Logout)
		authRoutes.GET("/session", authHandler.Session)
	}

	// Audit feed
	router.GET("/ws", wsHandler.HandleWebSocket)

	// Protected routes
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(jwtService, cfg.Admin.CookieName))
	{
		// Dashboard
		api.GET("/stats", dashHandler.Stats)
		api.GET("/stats/commands", dashHandler.CommandStats)
		api.GET("/stats/commands/recent", dashHandler.RecentCommands)

		// Actors
		api.GET("/actors", userHandler.List)
		api.GET("/actors/:actorId", userHandler.Get)
		api.POST("/actors/:actorId/block", userHandler.Block)
		api.POST("/actors/:actorId/unblock", userHandler.Unblock)

		// Moderation
		api.GET("/moderation", modHandler.Overview)
		api.GET("/moderation/logs", modHandler.Logs)
		api.GET("/moderation/actors/:actorId", modHandler.Detail)
		api.POST("/moderation/warn", modHandler.Warn)
		api.POST("/moderation/mute", modHandler.Mute)
		api.POST("/moderation/unmute", modHandler.Unmute)
		api.POST("/moderation/clear", modHandler.Clear)
		api.GET("/moderation/cases/:caseId", modHandler.GetCase)
		api.DELETE("/moderation/cases/:caseId", modHandler.DeleteCase)

		// Settings
		api.GET("/settings/features", settingsHandler.Features)
		api.PUT("/settings/features", settingsHandler.SetFeature)
		api.GET("/settings/commands", settingsHandler.CommandToggles)
		api.PUT("/settings/commands", settingsHandler.SetCommandToggle)
		api.GET("/conversations", settingsHandler.Conversations)
		api.PUT("/conversations/:conversationId/flags", settingsHandler.UpdateConversationFlags)
		api.PUT("/conversations/:conversationId/welcome", settingsHandler.SetWelcomeMessage)
		api.PUT("/conversations/:conversationId/goodbye", settingsHandler.SetGoodbyeMessage)

		// Transport bridge ingest
		api.POST("/events/message", eventHandler.Message)
		api.POST("/events/join", eventHandler.Join)
		api.POST("/events/leave", eventHandler.Leave)
	}

	// Start server
	addr := ":" + cfg.Server.Port
	log.Printf("Starting %s server on %s (env: %s)", cfg.Bot.Name, addr, cfg.Server.Env)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
