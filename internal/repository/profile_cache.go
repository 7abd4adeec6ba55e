package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"chatdesk-go/internal/model"

	"github.com/go-redis/redis/v8"
)

// ProfileCache 缓存 /identity 需要的用户公开信息。
type ProfileCache interface {
	// Get 未命中时返回 (nil, nil)。
	Get(ctx context.Context, userID string) (*model.UserProfile, error)
	Set(ctx context.Context, userID string, profile *model.UserProfile) error
	Delete(ctx context.Context, userID string) error
}

type redisProfileCache struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// NewProfileCache 创建一个新的 ProfileCache 实例。
func NewProfileCache(redisClient *redis.Client, ttl time.Duration) ProfileCache {
	return &redisProfileCache{redisClient: redisClient, ttl: ttl}
}

func profileKey(userID string) string {
	return fmt.Sprintf("user:profile:%s", userID)
}

func (c *redisProfileCache) Get(ctx context.Context, userID string) (*model.UserProfile, error) {
	data, err := c.redisClient.Get(ctx, profileKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached profile: %w", err)
	}
	var profile model.UserProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached profile: %w", err)
	}
	return &profile, nil
}

func (c *redisProfileCache) Set(ctx context.Context, userID string, profile *model.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := c.redisClient.Set(ctx, profileKey(userID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache profile: %w", err)
	}
	return nil
}

func (c *redisProfileCache) Delete(ctx context.Context, userID string) error {
	if err := c.redisClient.Del(ctx, profileKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to evict profile: %w", err)
	}
	return nil
}
