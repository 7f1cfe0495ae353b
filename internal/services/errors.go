package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/diewo77/quincaillerie/validation"
)

// Failure kinds returned by the services. Callers match them with errors.Is.
var (
	ErrInvalidInput     = errors.New("invalid_input")
	ErrInvalidReference = errors.New("invalid_reference")
	ErrNotFound         = errors.New("not_found")
	ErrInvalidState     = errors.New("invalid_state")
	ErrConflict         = errors.New("conflict")
)

// ValidationError carries per-field violations and matches ErrInvalidInput.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Violations))
	for f, code := range e.Violations {
		fields = append(fields, f+"="+code)
	}
	sort.Strings(fields)
	return fmt.Sprintf("%s: %s", ErrInvalidInput, strings.Join(fields, ", "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// invalid returns nil when v is empty, a *ValidationError otherwise.
func invalid(v validation.Violations) error {
	if v.Empty() {
		return nil
	}
	return &ValidationError{Violations: v}
}

// ViolationsOf extracts field violations from err, if any.
func ViolationsOf(err error) validation.Violations {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Violations
	}
	return nil
}
