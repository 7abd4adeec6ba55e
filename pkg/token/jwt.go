// Package token 提供了用于签发和校验身份 JWT 的功能。
//
// 签名校验和过期检查是两个独立步骤：Verify 只负责签名与格式，
// 调用方再通过 Claims.Expired 判断是否过期，从而区分“伪造/损坏”和“已过期”。
package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed 表示 token 无法解析。
	ErrMalformed = errors.New("token is malformed")
	// ErrInvalidSignature 表示 token 被篡改、使用其他密钥签名或使用了非预期的算法。
	ErrInvalidSignature = errors.New("token signature is invalid")
	// ErrMissingSecret 表示未配置签名密钥。
	ErrMissingSecret = errors.New("jwt secret is not configured")
)

// JWTManager 负责管理 JWT 的签发和校验。
type JWTManager struct {
	secretKey      []byte        // 签名和校验使用的密钥，启动后只读
	accessTokenDur time.Duration // 登录时签发 token 的默认有效期
}

// Claims 是身份 token 中携带的声明。
// id 字段与前端 cookie 中的 payload 保持一致。
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// Expired 判断 token 在 now 时刻是否已经过期。没有 exp 的 token 视为过期。
func (c *Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return true
	}
	return c.ExpiresAt.Time.Before(now)
}

// NewJWTManager 创建一个新的 JWTManager 实例。
// secret 为空时返回 ErrMissingSecret，调用方应将其视为启动失败。
func NewJWTManager(secret string, accessTokenExpireHours int) (*JWTManager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if accessTokenExpireHours <= 0 {
		accessTokenExpireHours = 24
	}
	return &JWTManager{
		secretKey:      []byte(secret),
		accessTokenDur: time.Duration(accessTokenExpireHours) * time.Hour,
	}, nil
}

// AccessTokenTTL 返回登录 token 的有效期。
func (m *JWTManager) AccessTokenTTL() time.Duration {
	return m.accessTokenDur
}

// Issue 为 userID 签发一个有效期为 ttl 的 token。
func (m *JWTManager) Issue(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("token: empty user id")
	}
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Verify 校验 token 的格式和签名，返回其中的声明。
// 这里关闭了 exp/nbf 的校验，过期与否由调用方通过 Claims.Expired 判断。
func (m *JWTManager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secretKey, nil
	},
		jwt.WithoutClaimsValidation(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing id claim", ErrMalformed)
	}
	return claims, nil
}

// GenerateRandomString 生成长度为 2*length 的随机十六进制字符串。
func GenerateRandomString(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
