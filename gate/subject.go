package gate

import "context"

// Subject is the resolved identity of a caller.
type Subject struct {
	UserID uint
	Role   Role
	Active bool
}

// SubjectResolver resolves a user to its subject.
// U is the user type (e.g., uint for a user id).
// A nil subject with a nil error means the user is unknown.
type SubjectResolver[U any] interface {
	Resolve(ctx context.Context, user U) (*Subject, error)
}

// ResolverFunc adapts a plain function to SubjectResolver.
type ResolverFunc[U any] func(ctx context.Context, user U) (*Subject, error)

// Resolve calls f(ctx, user).
func (f ResolverFunc[U]) Resolve(ctx context.Context, user U) (*Subject, error) {
	return f(ctx, user)
}

// StaticResolver is a simple in-memory resolver for testing.
type StaticResolver[U comparable] struct {
	subjects map[U]*Subject
}

// NewStaticResolver creates an empty in-memory resolver.
func NewStaticResolver[U comparable]() *StaticResolver[U] {
	return &StaticResolver[U]{subjects: make(map[U]*Subject)}
}

// Set assigns a subject to a user.
func (r *StaticResolver[U]) Set(user U, s *Subject) {
	r.subjects[user] = s
}

// Resolve returns the subject for the given user.
func (r *StaticResolver[U]) Resolve(_ context.Context, user U) (*Subject, error) {
	return r.subjects[user], nil
}
