package mocks

import (
	"context"
	"strconv"

	"github.com/phrazzld/tasktalk-api/internal/service/auth"
)

// MockTokenService implements auth.TokenService for testing.
// Without function fields it accepts tokens of the form "user-<id>".
type MockTokenService struct {
	// IssueTokenFn allows test cases to mock the IssueToken behavior
	IssueTokenFn func(ctx context.Context, principalID int64) (string, error)

	// ValidateTokenFn allows test cases to mock the ValidateToken behavior
	ValidateTokenFn func(ctx context.Context, token string) (*auth.Claims, error)
}

// IssueToken implements auth.TokenService.
func (m *MockTokenService) IssueToken(ctx context.Context, principalID int64) (string, error) {
	if m.IssueTokenFn != nil {
		return m.IssueTokenFn(ctx, principalID)
	}
	return "user-" + strconv.FormatInt(principalID, 10), nil
}

// ValidateToken implements auth.TokenService.
func (m *MockTokenService) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, token)
	}
	const prefix = "user-"
	if len(token) <= len(prefix) || token[:len(prefix)] != prefix {
		return nil, auth.ErrInvalidToken
	}
	id, err := strconv.ParseInt(token[len(prefix):], 10, 64)
	if err != nil || id <= 0 {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{PrincipalID: id, Subject: token[len(prefix):]}, nil
}
