package owner

import (
	"context"
	"net/http"

	errwrap "github.com/folio/folio/internal/errors"
)

type contextKey struct{}

// RequireOwner rejects requests without a valid session with 401
// UNAUTHORIZED and marks the context of the rest as owner requests.
func (s *Sessions) RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.Authenticated(r) {
			errwrap.RespondWithError(w, r, errwrap.NewUnauthorizedError("Owner authentication required."))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithOwner(r.Context())))
	})
}

// Identify marks the context of requests that carry a valid session without
// rejecting anonymous ones. Public endpoints use it to widen their results.
func (s *Sessions) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Authenticated(r) {
			r = r.WithContext(WithOwner(r.Context()))
		}
		next.ServeHTTP(w, r)
	})
}

// WithOwner marks ctx as belonging to an authenticated owner request.
func WithOwner(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, true)
}

// IsOwner reports whether ctx was marked by RequireOwner or Identify.
func IsOwner(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	owner, _ := ctx.Value(contextKey{}).(bool)
	return owner
}
