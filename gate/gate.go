// Package gate provides role-based authorization checked against an explicit
// permission table. The Gate resolves the caller to a Subject (user id, role,
// active flag) and looks up "resource:action" in the table. This package has
// no dependencies on domain models.
//
// The package uses generics to allow any user/subject key:
//   - Gate[uint] for user id based auth
//   - Gate[string] for external identities
package gate

import (
	"context"
	"fmt"
)

// Gate is the central authorization checkpoint.
type Gate[U comparable] struct {
	resolver SubjectResolver[U]
	table    Table
}

// New creates a Gate over the given resolver and permission table.
func New[U comparable](resolver SubjectResolver[U], table Table) *Gate[U] {
	return &Gate[U]{resolver: resolver, table: table}
}

// Authorize checks that user may perform action on resourceType and returns
// the resolved subject.
// Returns ErrUnauthenticated for a zero-value, unknown or inactive user and
// ErrForbidden when the user's role is not listed for the permission.
// Resolver failures are returned wrapped so callers can tell an outage from
// a rejected caller.
func (g *Gate[U]) Authorize(ctx context.Context, user U, action Action, resourceType string) (*Subject, error) {
	var zero U
	if user == zero {
		return nil, ErrUnauthenticated
	}
	subject, err := g.resolver.Resolve(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("gate: resolve subject: %w", err)
	}
	if subject == nil || !subject.Active {
		return nil, ErrUnauthenticated
	}
	if !g.table.Allows(subject.Role, NewPermission(resourceType, action)) {
		return subject, ErrForbidden
	}
	return subject, nil
}

// Can is a convenience wrapper returning bool instead of error.
func (g *Gate[U]) Can(ctx context.Context, user U, action Action, resourceType string) bool {
	_, err := g.Authorize(ctx, user, action, resourceType)
	return err == nil
}
