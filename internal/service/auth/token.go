package auth

import (
	"context"
	"time"
)

// TokenService issues and validates access tokens for integer principals.
type TokenService interface {
	// IssueToken creates a signed access token for principalID.
	IssueToken(ctx context.Context, principalID int64) (string, error)

	// ValidateToken verifies tokenString and returns its claims.
	// Fails with ErrInvalidToken, ErrExpiredToken or ErrTokenNotYetValid.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims are the validated contents of an access token.
type Claims struct {
	PrincipalID int64     `json:"principal_id"`
	Subject     string    `json:"sub"`
	IssuedAt    time.Time `json:"iat"`
	ExpiresAt   time.Time `json:"exp"`
	ID          string    `json:"jti"`
}
