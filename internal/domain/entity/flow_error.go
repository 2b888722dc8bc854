package entity

import "fmt"

// FlowErrorKind classifies why a consultation flow operation failed.
type FlowErrorKind string

const (
	KindPreconditionFailed   FlowErrorKind = "precondition_failed"
	KindValidationRequired   FlowErrorKind = "validation_required"
	KindMissingRequiredField FlowErrorKind = "missing_required_field"
	KindConflict             FlowErrorKind = "conflict"
	KindNotFound             FlowErrorKind = "not_found"
	KindPersistence          FlowErrorKind = "persistence_error"
)

// FlowError is the typed failure returned by every consultation flow
// operation. Reason is safe to show to the user.
type FlowError struct {
	Kind   FlowErrorKind
	Reason string
	Err    error
}

func (e *FlowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

// Is matches any FlowError of the same kind, so callers can write
// errors.Is(err, entity.ErrPreconditionFailed).
func (e *FlowError) Is(target error) bool {
	t, ok := target.(*FlowError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Kind sentinels for errors.Is.
var (
	ErrPreconditionFailed   = &FlowError{Kind: KindPreconditionFailed, Reason: "precondition failed"}
	ErrValidationRequired   = &FlowError{Kind: KindValidationRequired, Reason: "validation required"}
	ErrMissingRequiredField = &FlowError{Kind: KindMissingRequiredField, Reason: "missing required field"}
	ErrConflict             = &FlowError{Kind: KindConflict, Reason: "appointment was modified concurrently"}
	ErrNotFound             = &FlowError{Kind: KindNotFound, Reason: "not found"}
	ErrPersistence          = &FlowError{Kind: KindPersistence, Reason: "storage unavailable"}
)

func PreconditionFailed(reason string) *FlowError {
	return &FlowError{Kind: KindPreconditionFailed, Reason: reason}
}

func ValidationRequired(reason string) *FlowError {
	return &FlowError{Kind: KindValidationRequired, Reason: reason}
}

func MissingRequiredField(reason string) *FlowError {
	return &FlowError{Kind: KindMissingRequiredField, Reason: reason}
}

func Conflict(reason string) *FlowError {
	return &FlowError{Kind: KindConflict, Reason: reason}
}

func NotFound(reason string) *FlowError {
	return &FlowError{Kind: KindNotFound, Reason: reason}
}

func PersistenceFailure(err error) *FlowError {
	return &FlowError{Kind: KindPersistence, Reason: "storage unavailable, please retry", Err: err}
}
