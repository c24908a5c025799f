package auth

import (
	"context"
	"fmt"
	"strings"
)

const bearerPrefix = "Bearer "

// ParseBearer extracts the token from an Authorization header value.
// An empty header is ErrMissingToken; anything other than "Bearer <token>"
// is ErrMalformedCredential. The scheme is matched case-insensitively.
func ParseBearer(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingToken
	}
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return "", ErrMalformedCredential
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", ErrMalformedCredential
	}
	return token, nil
}

// Authenticate resolves a principal from an Authorization header value.
func Authenticate(ctx context.Context, svc TokenService, header string) (int64, error) {
	token, err := ParseBearer(header)
	if err != nil {
		return 0, err
	}
	claims, err := svc.ValidateToken(ctx, token)
	if err != nil {
		return 0, err
	}
	return claims.PrincipalID, nil
}

// AuthorizeOwner authenticates header and requires the principal to be
// ownerID.
func AuthorizeOwner(ctx context.Context, svc TokenService, header string, ownerID int64) error {
	principal, err := Authenticate(ctx, svc, header)
	if err != nil {
		return err
	}
	if principal != ownerID {
		return fmt.Errorf("%w: principal %d addressed owner %d", ErrForbidden, principal, ownerID)
	}
	return nil
}
