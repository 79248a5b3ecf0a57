package review

import (
	"errors"
	"fmt"

	"github.com/example/studytrack/pkg/models"
)

// Sentinel errors for the review engine.
// Use errors.Is to check: errors.Is(err, review.ErrValidation)
var (
	ErrValidation = errors.New("review: validation failed")
	ErrNotFound   = errors.New("review: not found")
	ErrStore      = errors.New("review: store failure")
)

// ValidationError reports a malformed input. It is returned before the store
// is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("review: invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NotFoundError reports an unknown item id.
type NotFoundError struct {
	ItemID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("review: item %s not found", e.ItemID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func (e *NotFoundError) Unwrap() error { return models.ErrItemNotFound }

// StoreError wraps a persistence failure. The operation had no effect and may
// be retried by the caller.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("review: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Is(target error) bool { return target == ErrStore }

func (e *StoreError) Unwrap() error { return e.Err }

// Retryable reports whether retrying the call may succeed.
func (e *StoreError) Retryable() bool { return true }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// storeErr classifies an error returned by the Store.
func storeErr(op, itemID string, err error) error {
	if errors.Is(err, models.ErrItemNotFound) {
		return &NotFoundError{ItemID: itemID}
	}
	return &StoreError{Op: op, Err: err}
}
