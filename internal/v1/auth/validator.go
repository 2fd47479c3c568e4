// Package auth implements session authentication for the channel handshake.
//
// The core never mints or stores credentials; it only verifies an opaque
// bearer-style token against a shared secret and extracts the authenticated
// principal (userId, email). Token issuance, password hashing and account
// storage are external collaborators (spec §1).
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims represents the claims this core expects in a session token.
// Subject (userId) is required for a session to be considered
// authenticated; Email and Name are optional and Email is passed through
// to the Principal as given.
type CustomClaims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// ErrMissingToken is returned when the handshake presents no token at all.
var ErrMissingToken = errors.New("AUTH_MISSING")

// ErrInvalidToken is returned when the token is malformed, expired, or
// fails signature verification.
var ErrInvalidToken = errors.New("AUTH_INVALID")

// Principal is the authenticated identity attached to a Session after a
// successful handshake (spec §3 Session).
type Principal struct {
	UserID string
	Email  string
}

// Validator verifies HS256 tokens against a single shared secret. Unlike
// the JWKS-backed validators used for asymmetric, multi-issuer setups, a
// single shared secret is all a bearer-style internal session token needs.
type Validator struct {
	secret []byte
}

// NewValidator builds a Validator from the shared secret configured via
// JWT_SECRET (spec §6 Configuration).
func NewValidator(secret string) (*Validator, error) {
	if len(strings.TrimSpace(secret)) == 0 {
		return nil, errors.New("auth: secret must not be empty")
	}
	return &Validator{secret: []byte(secret)}, nil
}

// ValidateToken parses and verifies a session token, returning the
// authenticated principal or ErrMissingToken / ErrInvalidToken.
func (v *Validator) ValidateToken(tokenString string) (*Principal, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrMissingToken
	}

	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &Principal{UserID: claims.Subject, Email: claims.Email}, nil
}

// GetAllowedOriginsFromEnv returns the configured set of allowed WebSocket
// handshake origins, falling back to defaultEnvs when unset.
func GetAllowedOriginsFromEnv(envVarName string, defaultEnvs []string, lookup func(string) string) []string {
	originsStr := lookup(envVarName)
	if originsStr == "" {
		return defaultEnvs
	}
	return strings.Split(originsStr, ",")
}
