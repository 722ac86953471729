package ordering

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Typed errors below unwrap to one of these so callers can
// branch with errors.Is.
var (
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("not found")
	ErrTransient      = errors.New("store unavailable")
	ErrConflict       = errors.New("version conflict")
	ErrPartialWrite   = errors.New("write partially applied")
	ErrPartialCascade = errors.New("cascade delete incomplete")
)

// ValidationError is returned before any write when caller input is malformed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Invalid builds a ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError names the row a write expected to find.
type NotFoundError struct {
	Kind Kind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotFound builds a NotFoundError.
func NotFound(kind Kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// StoreError wraps a failure reported by the underlying store or network.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error { return []error{ErrTransient, e.Err} }

// Transient wraps err as a recoverable store failure. Errors that already
// carry a sentinel from this package are returned unchanged.
func Transient(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrValidation, ErrNotFound, ErrTransient, ErrConflict} {
		if errors.Is(err, known) {
			return err
		}
	}
	return &StoreError{Op: op, Err: err}
}

// ConflictError is returned when a versioned write observed a stale row.
type ConflictError struct {
	Kind     Kind
	ID       string
	Expected int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %s changed since version %d", e.Kind, e.ID, e.Expected)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// PartialWriteError reports a multi-row position rewrite that stopped midway.
// Applied lists the ids whose positions were written before the failure; they
// are not rolled back.
type PartialWriteError struct {
	Applied []string
	Failed  string
	Err     error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("position write stopped at %s after %d rows (%s): %v",
		e.Failed, len(e.Applied), strings.Join(e.Applied, ","), e.Err)
}

func (e *PartialWriteError) Unwrap() []error { return []error{ErrPartialWrite, e.Err} }

// CascadeError reports that member rows were removed but the container row
// was not. Re-running the cascade delete for the same id completes it.
type CascadeError struct {
	ContainerID    string
	MembersDeleted int64
	Err            error
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("deleted %d members of %s but not the container: %v",
		e.MembersDeleted, e.ContainerID, e.Err)
}

func (e *CascadeError) Unwrap() []error { return []error{ErrPartialCascade, e.Err} }
