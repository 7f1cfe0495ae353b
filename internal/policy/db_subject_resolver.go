package policy

import (
	"context"
	"errors"

	"github.com/diewo77/quincaillerie/gate"
	"github.com/diewo77/quincaillerie/internal/models"
	"gorm.io/gorm"
)

// DBSubjectResolver fetches the caller's role and active flag from the users table.
// It implements gate.SubjectResolver for uint user IDs.
type DBSubjectResolver struct {
	DB *gorm.DB
}

// NewDBSubjectResolver creates a new database-backed subject resolver.
func NewDBSubjectResolver(db *gorm.DB) *DBSubjectResolver {
	return &DBSubjectResolver{DB: db}
}

// Resolve returns nil for an unknown user.
func (r *DBSubjectResolver) Resolve(ctx context.Context, userID uint) (*gate.Subject, error) {
	var user models.User
	err := r.DB.WithContext(ctx).Select("id", "role", "active").First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user.Subject(), nil
}
