package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-otp-auth/internal/application/token"
)

type contextKey string

const ClaimsKey contextKey = "claims"

// TokenVerifier checks a signed token of the expected type and returns its
// claims, or nil if the token is unusable for any reason.
type TokenVerifier interface {
	VerifyToken(tokenStr, expectedType string) *token.Claims
}

// Auth returns middleware that validates the Bearer access token and injects
// its claims into the request context.
func Auth(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			claims := verifier.VerifyToken(tokenStr, token.TypeAccess)
			if claims == nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext extracts access-token claims from the request context.
func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	c, ok := ctx.Value(ClaimsKey).(*token.Claims)
	return c, ok
}
