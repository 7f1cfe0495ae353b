package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// moneyScale matches the numeric(14,2) money columns.
const moneyScale = 2

// Page is limit/offset pagination.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) apply(q *gorm.DB) *gorm.DB {
	if p.Limit > 0 {
		q = q.Limit(p.Limit)
	}
	if p.Offset > 0 {
		q = q.Offset(p.Offset)
	}
	return q
}

// lookupErr maps a missing row to ErrNotFound.
func lookupErr(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %d", ErrNotFound, what, id)
	}
	return err
}

// refErr maps a missing referenced row to ErrInvalidReference.
func refErr(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %d does not exist", ErrInvalidReference, what, id)
	}
	return err
}

// writeErr maps unique violations to ErrConflict.
func writeErr(err error, what string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s already exists", ErrConflict, what)
	}
	return err
}

func likePattern(s string) string {
	s = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(strings.ToLower(strings.TrimSpace(s)))
	return "%" + s + "%"
}
