package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/diewo77/quincaillerie/internal/models"
	"gorm.io/gorm"
)

// maxNumberAttempts bounds retries when a generated number collides.
const maxNumberAttempts = 3

// Numbering hands out sequential human-readable numbers such as CMD-000042.
// Next must run inside the caller's transaction: the counter row stays locked
// until commit, which serialises concurrent callers on the same sequence.
type Numbering struct{}

// Next increments the named counter and returns the formatted number.
func (Numbering) Next(ctx context.Context, tx *gorm.DB, sequence, prefix string) (string, error) {
	res := tx.WithContext(ctx).Model(&models.Sequence{}).
		Where("name = ?", sequence).
		Update("value", gorm.Expr("value + 1"))
	if res.Error != nil {
		return "", fmt.Errorf("advance sequence %s: %w", sequence, res.Error)
	}
	if res.RowsAffected == 0 {
		// first use; a concurrent creator surfaces as a duplicate key and is retried by the caller
		if err := tx.WithContext(ctx).Create(&models.Sequence{Name: sequence, Value: 1}).Error; err != nil {
			return "", fmt.Errorf("create sequence %s: %w", sequence, err)
		}
	}
	var seq models.Sequence
	if err := tx.WithContext(ctx).Where("name = ?", sequence).First(&seq).Error; err != nil {
		return "", fmt.Errorf("read sequence %s: %w", sequence, err)
	}
	return FormatNumber(prefix, seq.Value), nil
}

// FormatNumber renders PREFIX-NNNNNN.
func FormatNumber(prefix string, n int64) string {
	return fmt.Sprintf("%s-%06d", prefix, n)
}

// withNumberRetry runs fn up to maxNumberAttempts times while it fails with a
// duplicate key, then reports ErrConflict. Other errors are returned as-is.
func withNumberRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		err = fn()
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
	}
	return fmt.Errorf("%w: could not allocate a unique number: %v", ErrConflict, err)
}
