// Package auth issues and checks the device tokens that guard the API when
// an auth secret is configured.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer is the iss claim of every device token.
const Issuer = "startpage"

// ErrNoSecret is returned when a token service is built without a secret.
var ErrNoSecret = errors.New("auth secret is empty")

// Claims holds the JWT payload for device tokens.
type Claims struct {
	jwt.RegisteredClaims
	Device string `json:"dev"`
}

// TokenService signs and validates HS256 device tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService. A zero ttl issues tokens that do
// not expire.
func NewTokenService(secret []byte, ttl time.Duration) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, ErrNoSecret
	}
	return &TokenService{secret: secret, ttl: ttl, now: time.Now}, nil
}

// IssueDeviceToken generates a signed token for the named device. An empty
// name becomes "device".
func (s *TokenService) IssueDeviceToken(device string) (string, error) {
	device = strings.TrimSpace(device)
	if device == "" {
		device = "device"
	}
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			Subject:  device,
			IssuedAt: jwt.NewNumericDate(now),
			Issuer:   Issuer,
		},
		Device: device,
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign device token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a device token, returning the claims.
func (s *TokenService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}
