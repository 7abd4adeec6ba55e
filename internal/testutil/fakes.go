package testutil

import (
	"context"
	"sync"
	"time"

	"chatdesk-go/internal/model"
)

// TokenStore 是 Redis 黑名单与找回密码令牌的内存实现。
type TokenStore struct {
	mu      sync.Mutex
	revoked map[string]time.Duration
	resets  map[string]string

	// Err 非空时所有操作都返回该错误。
	Err error
}

func NewTokenStore() *TokenStore {
	return &TokenStore{revoked: map[string]time.Duration{}, resets: map[string]string{}}
}

func (s *TokenStore) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if ttl > 0 {
		s.revoked[token] = ttl
	}
	return nil
}

func (s *TokenStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	_, ok := s.revoked[token]
	return ok, nil
}

// RevokedTTL 返回 token 被拉黑时的 ttl。
func (s *TokenStore) RevokedTTL(token string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ttl, ok := s.revoked[token]
	return ttl, ok
}

func (s *TokenStore) SaveResetToken(ctx context.Context, resetToken, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.resets[resetToken] = userID
	return nil
}

func (s *TokenStore) ConsumeResetToken(ctx context.Context, resetToken string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	userID := s.resets[resetToken]
	delete(s.resets, resetToken)
	return userID, nil
}

// ProfileStore 是用户资料缓存的内存实现。
type ProfileStore struct {
	mu       sync.Mutex
	profiles map[string]model.UserProfile
	Hits     int
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{profiles: map[string]model.UserProfile{}}
}

func (s *ProfileStore) Get(ctx context.Context, userID string) (*model.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	s.Hits++
	return &p, nil
}

func (s *ProfileStore) Set(ctx context.Context, userID string, profile *model.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[userID] = *profile
	return nil
}

func (s *ProfileStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, userID)
	return nil
}
