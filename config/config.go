package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Bot        BotConfig
	Moderation ModerationConfig
	Features   FeaturesConfig
	Admin      AdminConfig
	Redis      RedisConfig
	API        APIConfig
	CORS       CORSConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type BotConfig struct {
	Name         string
	Prefix       string
	OwnerNumbers []string
	DatabasePath string
}

type ModerationConfig struct {
	// WarnEscalationThreshold is the warning count within one conversation
	// that triggers an automatic mute.
	WarnEscalationThreshold int
	AutoMuteDuration        time.Duration
	DefaultCooldown         time.Duration
	MaxMessagesPerMinute    int
	// MuteNotifyInterval throttles "you are muted" replies per active mute.
	MuteNotifyInterval time.Duration
}

type FeaturesConfig struct {
	AntiSpam        bool
	AntiLink        bool
	ProfanityFilter bool
}

type AdminConfig struct {
	PasswordHash  string
	JWTSecret     string
	CookieName    string
	SessionExpiry time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type APIConfig struct {
	RateLimitPerSec int
}

type CORSConfig struct {
	AllowedOrigins []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		redisDB = 0
	}

	owners := splitList(getEnv("OWNER_NUMBERS", ""))
	origins := strings.Split(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"), ",")

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "4000"),
			Env:  getEnv("ENV", "development"),
		},
		Bot: BotConfig{
			Name:         getEnv("BOT_NAME", "WardBot"),
			Prefix:       getEnv("COMMAND_PREFIX", "/"),
			OwnerNumbers: owners,
			DatabasePath: getEnv("DATABASE_PATH", "./data/wardbot.json"),
		},
		Moderation: ModerationConfig{
			WarnEscalationThreshold: getEnvInt("WARN_ESCALATION_THRESHOLD", 10),
			AutoMuteDuration:        time.Duration(getEnvInt("AUTO_MUTE_MINUTES", 30)) * time.Minute,
			DefaultCooldown:         time.Duration(getEnvInt("COMMAND_COOLDOWN_MS", 3000)) * time.Millisecond,
			MaxMessagesPerMinute:    getEnvInt("MAX_MESSAGES_PER_MINUTE", 10),
			MuteNotifyInterval:      time.Duration(getEnvInt("MUTE_NOTIFY_SECONDS", 60)) * time.Second,
		},
		Features: FeaturesConfig{
			AntiSpam:        getEnv("ENABLE_ANTI_SPAM", "false") == "true",
			AntiLink:        getEnv("ENABLE_ANTI_LINK", "false") == "true",
			ProfanityFilter: getEnv("ENABLE_PROFANITY_FILTER", "false") == "true",
		},
		Admin: AdminConfig{
			PasswordHash:  getEnv("ADMIN_PASSWORD_HASH", ""),
			JWTSecret:     getEnv("ADMIN_JWT_SECRET", "change-this-secret-key"),
			CookieName:    getEnv("ADMIN_COOKIE_NAME", "wardbot_admin"),
			SessionExpiry: time.Duration(getEnvInt("ADMIN_SESSION_SECONDS", 3600)) * time.Second,
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		API: APIConfig{
			RateLimitPerSec: getEnvInt("RATE_LIMIT_PER_SECOND", 10),
		},
		CORS: CORSConfig{
			AllowedOrigins: origins,
		},
	}

	// Validate required fields
	if cfg.Admin.JWTSecret == "change-this-secret-key" && cfg.Server.Env == "production" {
		return nil, fmt.Errorf("ADMIN_JWT_SECRET must be set in production")
	}
	if cfg.Moderation.WarnEscalationThreshold < 1 {
		return nil, fmt.Errorf("WARN_ESCALATION_THRESHOLD must be at least 1")
	}

	return cfg, nil
}

// FeatureDefaults returns the configured feature flags keyed the way they are
// persisted in the settings document.
func (c *Config) FeatureDefaults() map[string]bool {
	return map[string]bool{
		"antiSpam":        c.Features.AntiSpam,
		"antiLink":        c.Features.AntiLink,
		"profanityFilter": c.Features.ProfanityFilter,
	}
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	items := []string{}
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
