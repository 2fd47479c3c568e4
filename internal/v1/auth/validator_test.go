package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidToken(t *testing.T, secret string, userID, email string, exp time.Time) string {
	t.Helper()
	claims := CustomClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidateToken_Valid(t *testing.T) {
	v, err := NewValidator("correct-horse-battery-staple-secret")
	require.NoError(t, err)

	tok := newValidToken(t, "correct-horse-battery-staple-secret", "user-1", "a@example.com", time.Now().Add(time.Hour))
	principal, err := v.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", principal.UserID)
	assert.Equal(t, "a@example.com", principal.Email)
}

func TestValidateToken_Missing(t *testing.T) {
	v, err := NewValidator("secret")
	require.NoError(t, err)

	_, err = v.ValidateToken("")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	v, err := NewValidator("correct-secret")
	require.NoError(t, err)

	tok := newValidToken(t, "wrong-secret", "user-1", "a@example.com", time.Now().Add(time.Hour))
	_, err = v.ValidateToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Expired(t *testing.T) {
	v, err := NewValidator("correct-secret")
	require.NoError(t, err)

	tok := newValidToken(t, "correct-secret", "user-1", "a@example.com", time.Now().Add(-time.Hour))
	_, err = v.ValidateToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// TestValidateToken_AlgorithmConfusion ensures a token asserting "none" as
// its algorithm is rejected rather than accepted as unsigned.
func TestValidateToken_AlgorithmConfusion(t *testing.T) {
	v, err := NewValidator("correct-secret")
	require.NoError(t, err)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "attacker",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = v.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGetAllowedOriginsFromEnv(t *testing.T) {
	env := map[string]string{"ORIGINS": "http://a.test,http://b.test"}
	lookup := func(k string) string { return env[k] }

	origins := GetAllowedOriginsFromEnv("ORIGINS", []string{"http://default"}, lookup)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, origins)

	origins = GetAllowedOriginsFromEnv("MISSING", []string{"http://default"}, lookup)
	assert.Equal(t, []string{"http://default"}, origins)
}
