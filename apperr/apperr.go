package apperr

import "fmt"

// ValidationError covers missing/invalid fields and business-rule
// violations (insufficient stock, over-removal, invalid enum values).
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError signals that a referenced entity does not exist.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string { return e.Entity + " not found" }

// PermissionError signals a role or print-limit violation.
type PermissionError struct {
	Msg string
}

func (e *PermissionError) Error() string { return e.Msg }

// DependencyError reports an unreachable or failing external collaborator,
// typically a printer. It is contained by the print engine and logged, never
// surfaced as a mutation failure.
type DependencyError struct {
	Target string
	Err    error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("dependency %s failed: %v", e.Target, e.Err)
}

func (e *DependencyError) Unwrap() error { return e.Err }

// ComputationError flags a derived value that can never be wrong with valid
// inputs (NaN or non-positive total). It aborts the mutation defensively.
type ComputationError struct {
	Msg string
}

func (e *ComputationError) Error() string { return e.Msg }

func Validation(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func NotFound(entity string) error {
	return &NotFoundError{Entity: entity}
}

func Permission(format string, args ...interface{}) error {
	return &PermissionError{Msg: fmt.Sprintf(format, args...)}
}

func Dependency(target string, err error) error {
	return &DependencyError{Target: target, Err: err}
}

func Computation(format string, args ...interface{}) error {
	return &ComputationError{Msg: fmt.Sprintf(format, args...)}
}
