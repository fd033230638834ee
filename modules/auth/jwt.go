package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when the token is malformed or its
	// signature does not verify.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
)

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	SecretKey string
	TokenTTL  time.Duration
	Issuer    string
}

// DefaultJWTConfig returns the default JWT configuration. The secret key is
// intentionally empty: it must come from the environment.
func DefaultJWTConfig() JWTConfig {
	return JWTConfig{
		TokenTTL: 30 * time.Minute,
		Issuer:   "chat-relay",
	}
}

// TokenClaims represents the claims embedded in issued tokens.
type TokenClaims struct {
	jwt.RegisteredClaims
}

// JWTManager issues and validates signed bearer tokens.
type JWTManager struct {
	config JWTConfig
}

// NewJWTManager creates a new JWTManager with the given configuration.
func NewJWTManager(config JWTConfig) *JWTManager {
	return &JWTManager{
		config: config,
	}
}

// IssueToken produces a signed token for the subject, expiring after ttl.
// A non-positive ttl falls back to the configured default.
func (m *JWTManager) IssueToken(subject string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = m.config.TokenTTL
	}

	now := time.Now()
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.SecretKey))
}

// ValidateToken verifies the token's signature and expiry and returns its
// claims. It never panics; every failure mode maps to ErrInvalidToken or
// ErrExpiredToken.
func (m *JWTManager) ValidateToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(m.config.SecretKey), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// TokenTTL returns the configured token lifetime in seconds.
func (m *JWTManager) TokenTTL() int64 {
	return int64(m.config.TokenTTL.Seconds())
}
