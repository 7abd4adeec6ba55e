package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"chatdesk-go/internal/apperr"
	"chatdesk-go/internal/model"
	"chatdesk-go/internal/repository"
	"chatdesk-go/pkg/hash"
	"chatdesk-go/pkg/log"
	"chatdesk-go/pkg/token"
)

const (
	minPasswordLength = 8
	resetTokenBytes   = 32
	resetTokenTTL     = 30 * time.Minute
)

// SignupInput 是注册表单。
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// SigninResult 包含登录用户及写入 cookie 的 token。
type SigninResult struct {
	User  *model.User
	Token string
	TTL   time.Duration
}

// UserService 接口定义了所有与用户相关的业务操作。
type UserService interface {
	Signup(ctx context.Context, in SignupInput) (*model.User, error)
	Signin(ctx context.Context, email, password string) (*SigninResult, error)
	Signout(ctx context.Context, tokenString string) error
	// ForgotPassword 为存在的邮箱生成找回密码令牌。邮箱不存在时同样返回 nil。
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, resetToken, password string) error
	// GetIdentityProfile 返回用户公开信息，用户已不存在时返回 nil。
	GetIdentityProfile(ctx context.Context, userID string) (*model.UserProfile, error)
	GetUser(ctx context.Context, userID string) (*model.User, error)
	SeedAdmin(ctx context.Context, name, email, password string) error
}

// userService 是 UserService 接口的实现。
type userService struct {
	userRepo     repository.UserRepository
	tokenRepo    repository.TokenRepository
	profileCache repository.ProfileCache
	jwtManager   *token.JWTManager
}

// NewUserService 创建一个新的 UserService 实例。
func NewUserService(userRepo repository.UserRepository, tokenRepo repository.TokenRepository, profileCache repository.ProfileCache, jwtManager *token.JWTManager) UserService {
	return &userService{
		userRepo:     userRepo,
		tokenRepo:    tokenRepo,
		profileCache: profileCache,
		jwtManager:   jwtManager,
	}
}

// Signup 处理用户注册。新用户的角色固定为 user。
func (s *userService) Signup(ctx context.Context, in SignupInput) (*model.User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := checkPasswordPolicy(in.Password); err != nil {
		return nil, err
	}

	hashedPassword, err := hash.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "hash password", err)
	}
	user := &model.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    email,
		Password: hashedPassword,
		Role:     model.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	log.Infof("[UserService] user registered: %s", user.ID)
	return user, nil
}

// Signin 校验邮箱和密码并签发 token。邮箱不存在与密码错误返回同一个错误。
func (s *userService) Signin(ctx context.Context, email, password string) (*SigninResult, error) {
	invalid := apperr.New(apperr.KindUnauthorized, "Invalid email or password")

	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, apperr.New(apperr.KindBadRequest, "Password is required")
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if !hash.CheckPasswordHash(password, user.Password) {
		return nil, invalid
	}

	ttl := s.jwtManager.AccessTokenTTL()
	tokenString, err := s.jwtManager.Issue(user.ID, ttl)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "issue token", err)
	}
	return &SigninResult{User: user, Token: tokenString, TTL: ttl}, nil
}

// Signout 把 token 加入黑名单直到其过期。无效或已过期的 token 无需处理。
func (s *userService) Signout(ctx context.Context, tokenString string) error {
	if tokenString == "" {
		return nil
	}
	claims, err := s.jwtManager.Verify(tokenString)
	if err != nil {
		return nil
	}
	if claims.ExpiresAt == nil {
		return nil
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		return nil
	}
	if err := s.tokenRepo.Revoke(ctx, tokenString, remaining); err != nil {
		return apperr.Wrap(apperr.KindPersistence, "revoke token", err)
	}
	if err := s.profileCache.Delete(ctx, claims.UserID); err != nil {
		log.Warnf("[UserService] failed to drop profile cache for %s: %v", claims.UserID, err)
	}
	return nil
}

func (s *userService) ForgotPassword(ctx context.Context, email string) (string, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return "", err
	}
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			log.Infof("[UserService] password reset requested for unknown email")
			return "", nil
		}
		return "", err
	}

	resetToken, err := token.GenerateRandomString(resetTokenBytes)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "generate reset token", err)
	}
	if err := s.tokenRepo.SaveResetToken(ctx, resetToken, user.ID, resetTokenTTL); err != nil {
		return "", apperr.Wrap(apperr.KindPersistence, "save reset token", err)
	}
	// 邮件发送不在本服务内，这里只记录签发
	log.Infow("password reset token issued", "userId", user.ID, "expiresIn", resetTokenTTL.String())
	return resetToken, nil
}

// ResetPassword 使用一次性令牌重设密码。
func (s *userService) ResetPassword(ctx context.Context, resetToken, password string) error {
	if resetToken == "" {
		return apperr.New(apperr.KindBadRequest, "Reset token is required")
	}
	if err := checkPasswordPolicy(password); err != nil {
		return err
	}

	userID, err := s.tokenRepo.ConsumeResetToken(ctx, resetToken)
	if err != nil {
		return apperr.Wrap(apperr.KindPersistence, "consume reset token", err)
	}
	if userID == "" {
		return apperr.New(apperr.KindBadRequest, "Invalid or expired reset token")
	}

	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "hash password", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.New(apperr.KindBadRequest, "Invalid or expired reset token")
		}
		return err
	}
	log.Infof("[UserService] password reset for user %s", userID)
	return nil
}

func (s *userService) GetIdentityProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	if userID == "" {
		return nil, nil
	}
	if cached, err := s.profileCache.Get(ctx, userID); err != nil {
		log.Warnf("[UserService] profile cache read failed for %s: %v", userID, err)
	} else if cached != nil {
		return cached, nil
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	profile := user.Profile()
	if err := s.profileCache.Set(ctx, userID, profile); err != nil {
		log.Warnf("[UserService] profile cache write failed for %s: %v", userID, err)
	}
	return profile, nil
}

func (s *userService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	return s.userRepo.FindByID(ctx, userID)
}

// SeedAdmin 在管理员邮箱尚未注册时创建管理员账号。email 为空时跳过。
func (s *userService) SeedAdmin(ctx context.Context, name, email, password string) error {
	if email == "" {
		return nil
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	if err := checkPasswordPolicy(password); err != nil {
		return apperr.Wrap(apperr.KindConfiguration, "admin password rejected", err)
	}

	hashedPassword, err := hash.HashPassword(password)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "hash password", err)
	}
	admin := &model.User{Name: name, Email: email, Password: hashedPassword, Role: model.RoleAdmin}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return err
	}
	log.Infof("[UserService] admin account %s created", admin.ID)
	return nil
}

// normalizeEmail 返回邮箱的规范形式。格式校验在请求绑定时完成。
func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", apperr.New(apperr.KindBadRequest, "Email is required")
	}
	return email, nil
}

// checkPasswordPolicy 校验所有写入密码的路径共用的规则：最短长度和 bcrypt 的字节上限。
func checkPasswordPolicy(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return apperr.New(apperr.KindBadRequest, "Password must be at least 8 characters")
	}
	if len(password) > hash.MaxPasswordBytes {
		return apperr.New(apperr.KindBadRequest, "Password must be at most 72 bytes")
	}
	return nil
}
