package middleware

import (
	"net/http"

	"github.com/phrazzld/tasktalk-api/internal/api/shared"
	"github.com/phrazzld/tasktalk-api/internal/service/auth"
)

// AuthMiddleware guards routes that need any valid credential but no
// particular owner.
type AuthMiddleware struct {
	tokens auth.TokenService
}

// NewAuthMiddleware creates an AuthMiddleware.
func NewAuthMiddleware(tokens auth.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate rejects requests without a valid bearer credential and stores
// the principal in the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := auth.Authenticate(r.Context(), m.tokens, r.Header.Get("Authorization"))
		if err != nil {
			shared.RespondWithError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.WithPrincipalID(r.Context(), principal)))
	})
}
