package token

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, secret string) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(secret, 1)
	require.NoError(t, err)
	return m
}

func TestNewJWTManagerRequiresSecret(t *testing.T) {
	m, err := NewJWTManager("", 1)
	assert.Nil(t, m)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	m := newManager(t, "test-secret")

	tok, err := m.Issue("u1", time.Hour)
	require.NoError(t, err)

	claims, err := m.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "u1", claims.Subject)
	assert.False(t, claims.Expired(time.Now()))
	assert.True(t, claims.Expired(time.Now().Add(2*time.Hour)))
}

func TestVerifyDoesNotRejectExpiredToken(t *testing.T) {
	m := newManager(t, "test-secret")

	tok, err := m.Issue("u1", -time.Minute)
	require.NoError(t, err)

	claims, err := m.Verify(tok)
	require.NoError(t, err, "expiry is checked by the caller, not by Verify")
	assert.Equal(t, "u1", claims.UserID)
	assert.True(t, claims.Expired(time.Now()))
}

func TestIssueRejectsEmptyUserID(t *testing.T) {
	m := newManager(t, "test-secret")
	_, err := m.Issue("", time.Hour)
	assert.Error(t, err)
}

func flipChar(c byte) byte {
	if c == 'a' {
		return 'b'
	}
	return 'a'
}

func TestVerifyTamperedSignature(t *testing.T) {
	m := newManager(t, "test-secret")
	tok, err := m.Issue("u1", time.Hour)
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	sig[0] = flipChar(sig[0])
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	claims, err := m.Verify(tampered)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyTamperedPayloadNeverYieldsClaims(t *testing.T) {
	m := newManager(t, "test-secret")
	tok, err := m.Issue("u1", time.Hour)
	require.NoError(t, err)

	for i := 0; i < len(tok); i++ {
		if tok[i] == '.' {
			continue
		}
		b := []byte(tok)
		b[i] = flipChar(b[i])
		if string(b) == tok {
			continue
		}
		claims, err := m.Verify(string(b))
		if err == nil {
			// base64url 尾部填充位的变化可能解码成相同字节，此时 token 语义不变
			require.Equal(t, "u1", claims.UserID, "byte %d", i)
			continue
		}
		assert.True(t, errors.Is(err, ErrInvalidSignature) || errors.Is(err, ErrMalformed), "byte %d: %v", i, err)
	}
}

func TestVerifyWrongKey(t *testing.T) {
	issuer := newManager(t, "key-a")
	verifier := newManager(t, "key-b")

	tok, err := issuer.Issue("u1", time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyUnexpectedAlgorithm(t *testing.T) {
	m := newManager(t, "test-secret")
	claims := Claims{
		UserID: "u1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = m.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestVerifyMalformed(t *testing.T) {
	m := newManager(t, "test-secret")
	for _, in := range []string{"", "not-a-jwt", "a.b", "a.b.c.d"} {
		_, err := m.Verify(in)
		assert.ErrorIs(t, err, ErrMalformed, "input %q", in)
	}
}

func TestVerifyMissingUserID(t *testing.T) {
	m := newManager(t, "test-secret")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = m.Verify(tok)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestGenerateRandomString(t *testing.T) {
	a, err := GenerateRandomString(16)
	require.NoError(t, err)
	b, err := GenerateRandomString(16)
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
