package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/wardbot/backend/internal/models"
)

// moderationChannel carries audit-log events between server instances.
const moderationChannel = "moderation:log"

type RedisClient struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisClient creates a new Redis client
func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{
		client: client,
		ctx:    ctx,
	}, nil
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// PublishModerationLog publishes an audit entry for the live dashboard feed
func (r *RedisClient) PublishModerationLog(entry *models.AuditEntry) error {
	data, err := json.Marshal(models.WSMessage{
		Event:   models.EventModerationLog,
		Payload: entry,
	})
	if err != nil {
		return err
	}

	return r.client.Publish(r.ctx, moderationChannel, data).Err()
}

// SubscribeToModerationLog subscribes to the audit-log channel
func (r *RedisClient) SubscribeToModerationLog() *redis.PubSub {
	return r.client.Subscribe(r.ctx, moderationChannel)
}

// GetClient returns the underlying Redis client
func (r *RedisClient) GetClient() *redis.Client {
	return r.client
}
