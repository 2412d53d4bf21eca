package auth

import (
	"context"
	"net/http"

	"github.com/pingmatch/ping/internal/db"
	"github.com/pingmatch/ping/internal/httperr"
)

type ctxKey struct{}

// WithPrincipal returns a context carrying the authenticated principal.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// PrincipalFrom extracts the principal placed by Middleware.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(*Principal)
	return p, ok
}

// Middleware verifies the session cookie once and injects a typed
// principal, replacing per-handler cookie re-parsing.
func Middleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				httperr.Write(w, httperr.ErrUnauthorized)
				return
			}
			principal, err := ParseToken(secret, cookie.Value)
			if err != nil {
				httperr.Write(w, httperr.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireRole gates a route on the principal's role. Runs after Middleware.
func RequireRole(role db.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok {
				httperr.Write(w, httperr.ErrUnauthorized)
				return
			}
			if p.Role != role {
				httperr.Write(w, httperr.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
