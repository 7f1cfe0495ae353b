package gate

import (
	"context"
	"sync"
	"time"
)

// CachedResolver keeps resolved subjects for a fixed TTL in front of a slower
// resolver. Only known users are kept; a miss always goes to the inner
// resolver so a freshly created account is visible on its first request.
// Callers receive copies, so a subject handed out cannot alter the cache.
type CachedResolver[U comparable] struct {
	inner SubjectResolver[U]
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	entries map[U]cachedSubject
}

type cachedSubject struct {
	subject Subject
	expires time.Time
}

// NewCachedResolver wraps inner with a TTL cache.
func NewCachedResolver[U comparable](inner SubjectResolver[U], ttl time.Duration) *CachedResolver[U] {
	return &CachedResolver[U]{
		inner:   inner,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[U]cachedSubject),
	}
}

// WithClock replaces the time source used for expiry.
func (r *CachedResolver[U]) WithClock(now func() time.Time) *CachedResolver[U] {
	r.now = now
	return r
}

func (r *CachedResolver[U]) Resolve(ctx context.Context, user U) (*Subject, error) {
	if s, ok := r.lookup(user); ok {
		return s, nil
	}
	subject, err := r.inner.Resolve(ctx, user)
	if err != nil || subject == nil {
		return subject, err
	}
	r.mu.Lock()
	r.entries[user] = cachedSubject{subject: *subject, expires: r.now().Add(r.ttl)}
	r.mu.Unlock()
	s := *subject
	return &s, nil
}

func (r *CachedResolver[U]) lookup(user U) (*Subject, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[user]
	if !ok {
		return nil, false
	}
	if !r.now().Before(e.expires) {
		delete(r.entries, user)
		return nil, false
	}
	s := e.subject
	return &s, true
}

// Invalidate drops one user, typically after their role or active flag changed.
func (r *CachedResolver[U]) Invalidate(user U) {
	r.mu.Lock()
	delete(r.entries, user)
	r.mu.Unlock()
}
