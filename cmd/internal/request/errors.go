package request

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel error kinds (stable for errors.Is and for mapping to API status codes).
var (
	ErrValidation = errors.New("validation_failed")
	ErrAuthToken  = errors.New("invalid_link")
	ErrNotFound   = errors.New("not_found")
	ErrDependency = errors.New("dependency_failed")

	// ErrConflict is returned by conditional writes when the stored status is not the expected one.
	ErrConflict = errors.New("conflict")

	ErrInvalidInput = errors.New("invalid input")
)

// OpError is a typed operation error with a stable Op + Kind contract for callers/tests.
// Msg is safe to show to end users; Err is the underlying cause and is only logged.
type OpError struct {
	Op   string
	Kind error
	Msg  string
	Err  error
}

func (e OpError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ValidationError lists the intake fields that failed validation.
type ValidationError struct {
	Fields []string
}

func (e ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	return fmt.Sprintf("%v: %s", ErrValidation, strings.Join(e.Fields, ", "))
}

func (e ValidationError) Unwrap() error { return ErrValidation }

// PublicMessage returns the user-facing text carried by err, or fallback.
func PublicMessage(err error, fallback string) string {
	var ve ValidationError
	if errors.As(err, &ve) {
		if len(ve.Fields) == 0 {
			return "invalid request"
		}
		return "missing or invalid fields: " + strings.Join(ve.Fields, ", ")
	}
	var oe OpError
	if errors.As(err, &oe) && oe.Msg != "" {
		return oe.Msg
	}
	return fallback
}

func dependencyError(op, msg string, err error) error {
	return OpError{Op: op, Kind: ErrDependency, Msg: msg, Err: err}
}
