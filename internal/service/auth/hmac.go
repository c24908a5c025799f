package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/phrazzld/tasktalk-api/internal/config"
	"github.com/phrazzld/tasktalk-api/internal/platform/logger"
)

const (
	minSecretLength = 32
	defaultLeeway   = 2 * time.Minute
	issuer          = "tasktalk-api"
)

// hmacTokenService signs HS256 tokens whose subject is the decimal principal id.
type hmacTokenService struct {
	signingKey []byte
	lifetime   time.Duration
	leeway     time.Duration
	timeFunc   func() time.Time
}

var _ TokenService = (*hmacTokenService)(nil)

// Option configures the token service.
type Option func(*hmacTokenService)

// WithTimeFunc injects the clock used for issuing and validating.
func WithTimeFunc(fn func() time.Time) Option {
	return func(s *hmacTokenService) { s.timeFunc = fn }
}

// WithLeeway sets the allowed clock skew.
func WithLeeway(d time.Duration) Option {
	return func(s *hmacTokenService) { s.leeway = d }
}

// NewTokenService creates an HMAC-SHA256 TokenService from cfg.
func NewTokenService(cfg config.AuthConfig, opts ...Option) (TokenService, error) {
	if len(cfg.JWTSecret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d characters", minSecretLength)
	}
	lifetime := cfg.TokenLifetime()
	if lifetime <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive")
	}
	s := &hmacTokenService{
		signingKey: []byte(cfg.JWTSecret),
		lifetime:   lifetime,
		leeway:     defaultLeeway,
		timeFunc:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IssueToken creates a signed access token.
func (s *hmacTokenService) IssueToken(ctx context.Context, principalID int64) (string, error) {
	if principalID <= 0 {
		return "", fmt.Errorf("principal id must be positive, got %d", principalID)
	}
	now := s.timeFunc()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   strconv.FormatInt(principalID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
		ID:        uuid.NewString(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		logger.FromContext(ctx).Error("failed to sign access token",
			"error", err,
			"principal_id", principalID)
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies an access token.
func (s *hmacTokenService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	log := logger.FromContext(ctx)
	now := s.timeFunc()

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return s.signingKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(issuer),
		jwt.WithLeeway(s.leeway),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			log.Debug("token validation failed: expired", "error", err)
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			log.Debug("token validation failed: not yet valid", "error", err)
			return nil, ErrTokenNotYetValid
		default:
			log.Debug("token validation failed", "error", err, "error_type", fmt.Sprintf("%T", err))
			return nil, ErrInvalidToken
		}
	}

	rc, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	principalID, err := strconv.ParseInt(rc.Subject, 10, 64)
	if err != nil || principalID <= 0 {
		log.Debug("token validation failed: bad subject", "subject", rc.Subject)
		return nil, ErrInvalidToken
	}

	claims := &Claims{
		PrincipalID: principalID,
		Subject:     rc.Subject,
		ID:          rc.ID,
	}
	if rc.IssuedAt != nil {
		claims.IssuedAt = rc.IssuedAt.Time
	}
	if rc.ExpiresAt != nil {
		claims.ExpiresAt = rc.ExpiresAt.Time
	}
	return claims, nil
}
