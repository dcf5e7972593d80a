package models

import (
	"errors"
	"fmt"
)

// Error kinds. Callers match them with errors.Is.
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrSourceUnavailable  = errors.New("source unavailable")
	ErrNotFound           = errors.New("not found")
)

// DomainError carries the failing operation alongside its kind.
type DomainError struct {
	Kind error
	Op   string
	Msg  string
}

func (e *DomainError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Msg)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Msg)
}

// Unwrap returns the error kind.
func (e *DomainError) Unwrap() error {
	return e.Kind
}

// InvalidArgument builds an InvalidArgument error for op.
func InvalidArgument(op, format string, a ...interface{}) error {
	return &DomainError{Kind: ErrInvalidArgument, Op: op, Msg: fmt.Sprintf(format, a...)}
}

// PreconditionFailed builds a PreconditionFailed error for op.
func PreconditionFailed(op, format string, a ...interface{}) error {
	return &DomainError{Kind: ErrPreconditionFailed, Op: op, Msg: fmt.Sprintf(format, a...)}
}

// SourceUnavailable wraps a collaborator failure so errors.Is matches
// both ErrSourceUnavailable and the underlying cause.
func SourceUnavailable(op string, cause error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrSourceUnavailable, cause)
}

// NotFound builds an ErrNotFound error for op.
func NotFound(op, format string, a ...interface{}) error {
	return &DomainError{Kind: ErrNotFound, Op: op, Msg: fmt.Sprintf(format, a...)}
}
