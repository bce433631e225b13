package care

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoPatientSelected = errors.New("no patient selected")
	ErrMissingField      = errors.New("missing required field")
	ErrInvalidPatientID  = errors.New("invalid patient id")
	ErrInvalidCondition  = errors.New("invalid condition")
	ErrInvalidTab        = errors.New("invalid tab")

	// ErrSubmitPending rejects a submit while the same form is in flight.
	ErrSubmitPending  = errors.New("submit already in progress")
	ErrNotNurse       = errors.New("dashboard requires the nurse role")
	ErrLoggedIn       = errors.New("session is already logged in")
	ErrNotRegistering = errors.New("registration form is not open")
)

// ValidationError is raised before any mutation is attempted.
type ValidationError struct {
	Form   Form
	Err    error
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %v: %s", e.Form, e.Err, strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("%s: %v", e.Form, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// MutationError wraps a failed store call made by a form.
type MutationError struct {
	Form Form
	Err  error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Form, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }
