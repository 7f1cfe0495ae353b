package policy

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/diewo77/quincaillerie/auth"
	"github.com/diewo77/quincaillerie/gate"
	"github.com/diewo77/quincaillerie/httpx"
	"gorm.io/gorm"
)

type ctxKey string

const subjectCtxKey = ctxKey("subject")

// AuthGate holds the configured Gate with caching.
// Use this as a central authorization point in your application.
type AuthGate struct {
	Gate          *gate.Gate[uint]
	CacheResolver *gate.CachedResolver[uint]
}

// NewAuthGate creates a fully configured authorization gate.
// - db: GORM database connection for user lookups
// - cacheTTL: how long to cache resolved subjects (e.g., 5*time.Minute)
func NewAuthGate(db *gorm.DB, cacheTTL time.Duration) *AuthGate {
	return NewAuthGateWithResolver(NewDBSubjectResolver(db), cacheTTL)
}

// NewAuthGateWithResolver builds a gate over any subject resolver.
func NewAuthGateWithResolver(resolver gate.SubjectResolver[uint], cacheTTL time.Duration) *AuthGate {
	cachedResolver := gate.NewCachedResolver[uint](resolver, cacheTTL)
	return &AuthGate{
		Gate:          gate.New[uint](cachedResolver, Permissions()),
		CacheResolver: cachedResolver,
	}
}

// Authorize checks the request's user against the permission table.
func (ag *AuthGate) Authorize(ctx context.Context, action gate.Action, resourceType string) (*gate.Subject, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return nil, gate.ErrUnauthenticated
	}
	return ag.Gate.Authorize(ctx, userID, action, resourceType)
}

// Can is a convenience method that returns bool instead of error.
func (ag *AuthGate) Can(ctx context.Context, action gate.Action, resourceType string) bool {
	_, err := ag.Authorize(ctx, action, resourceType)
	return err == nil
}

// InvalidateUser clears the cache for a specific user.
// Call this when a user's role or active flag is changed.
func (ag *AuthGate) InvalidateUser(userID uint) {
	ag.CacheResolver.Invalidate(userID)
}

// RequirePermission returns middleware that checks the permission table.
// Unknown or inactive users get 401, users whose role is not listed get 403
// and a failing subject lookup gets 500.
// On success the resolved subject is stored in the request context.
func (ag *AuthGate) RequirePermission(resourceType string, action gate.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, err := ag.Authorize(r.Context(), action, resourceType)
			switch {
			case errors.Is(err, gate.ErrForbidden):
				httpx.JSONError(w, http.StatusForbidden, gate.ErrForbidden.Error(), nil)
				return
			case errors.Is(err, gate.ErrUnauthenticated):
				httpx.JSONError(w, http.StatusUnauthorized, gate.ErrUnauthenticated.Error(), nil)
				return
			case err != nil:
				log.Printf("[policy] authorize %s:%s: %v", resourceType, action, err)
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), subject)))
		})
	}
}

// WithSubject stores the authorized subject in context.
func WithSubject(ctx context.Context, s *gate.Subject) context.Context {
	return context.WithValue(ctx, subjectCtxKey, s)
}

// SubjectFromContext returns the subject stored by RequirePermission.
func SubjectFromContext(ctx context.Context) (*gate.Subject, bool) {
	s, ok := ctx.Value(subjectCtxKey).(*gate.Subject)
	return s, ok && s != nil
}
