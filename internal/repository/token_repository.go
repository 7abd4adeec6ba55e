package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// TokenRepository 在 Redis 中保存登出黑名单和找回密码令牌。
type TokenRepository interface {
	// Revoke 把 token 加入黑名单，ttl 应为 token 的剩余有效期。
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
	SaveResetToken(ctx context.Context, resetToken, userID string, ttl time.Duration) error
	// ConsumeResetToken 取出并删除找回密码令牌，令牌不存在或已过期时返回空字符串。
	ConsumeResetToken(ctx context.Context, resetToken string) (string, error)
}

type redisTokenRepository struct {
	redisClient *redis.Client
}

// NewTokenRepository 创建一个新的 TokenRepository 实例。
func NewTokenRepository(redisClient *redis.Client) TokenRepository {
	return &redisTokenRepository{redisClient: redisClient}
}

func blacklistKey(token string) string {
	return "blacklist:" + token
}

func resetTokenKey(token string) string {
	return "password_reset:" + token
}

func (r *redisTokenRepository) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		// 已过期的 token 无需拉黑
		return nil
	}
	if err := r.redisClient.Set(ctx, blacklistKey(token), "true", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (r *redisTokenRepository) IsRevoked(ctx context.Context, token string) (bool, error) {
	n, err := r.redisClient.Exists(ctx, blacklistKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return n > 0, nil
}

func (r *redisTokenRepository) SaveResetToken(ctx context.Context, resetToken, userID string, ttl time.Duration) error {
	if err := r.redisClient.Set(ctx, resetTokenKey(resetToken), userID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save reset token: %w", err)
	}
	return nil
}

func (r *redisTokenRepository) ConsumeResetToken(ctx context.Context, resetToken string) (string, error) {
	userID, err := r.redisClient.GetDel(ctx, resetTokenKey(resetToken)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to consume reset token: %w", err)
	}
	return userID, nil
}
