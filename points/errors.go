/*
errors.go - Centralized error types for the points engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers (CLI, tests) match with errors.Is/errors.As.

ERROR CATEGORIES:
  1. Validation errors - Bad input, rejected before any mutation
  2. Lookup errors - Referenced employee/event does not exist
  3. Store errors - Persistence failures, distinct from validation

USAGE:
  if errors.Is(err, points.ErrDuplicateEmployee) {
      // ID already taken; existing record untouched
  }

SEE ALSO:
  - ledger.go: Raises the validation and lookup errors
  - undo.go: Raises ErrEmptyHistory
*/
package points

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDate is returned when a date string does not parse under any
	// accepted format. The operation performs no mutation.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidMagnitude is returned when an interactive point value is
	// outside the policy's allowed set. The operation performs no mutation.
	ErrInvalidMagnitude = errors.New("invalid point magnitude")

	// ErrMissingReason is returned when an infraction is entered without a
	// reason. Every interactive entry requires one.
	ErrMissingReason = errors.New("reason required")

	// ErrUnknownEmployee is returned when a referenced employee ID does not
	// exist.
	ErrUnknownEmployee = errors.New("unknown employee")

	// ErrDuplicateEmployee is returned when creating an employee with an ID
	// already in use. The existing record is left unmodified.
	ErrDuplicateEmployee = errors.New("duplicate employee id")

	// ErrInvalidEmployeeID is returned when an employee ID is not a positive
	// integer.
	ErrInvalidEmployeeID = errors.New("employee id must be positive")

	// ErrMissingName is returned when an employee is created without both
	// name fields.
	ErrMissingName = errors.New("last and first name required")

	// ErrEventNotFound is returned when a referenced event ID does not exist
	// for deletion or undo.
	ErrEventNotFound = errors.New("point event not found")

	// ErrEmptyHistory is returned when undo is requested with nothing to
	// undo. A no-op, not a crash.
	ErrEmptyHistory = errors.New("nothing to undo")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidDateError reports the input that failed to parse.
type InvalidDateError struct {
	Input string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date %q: want MM-DD-YYYY or YYYY-MM-DD", e.Input)
}

func (e *InvalidDateError) Unwrap() error {
	return ErrInvalidDate
}

// InvalidMagnitudeError reports the rejected value and the allowed set.
type InvalidMagnitudeError struct {
	Value   Points
	Allowed []Points
}

func (e *InvalidMagnitudeError) Error() string {
	return fmt.Sprintf("invalid point magnitude %s: allowed values are %s",
		e.Value, formatPointsList(e.Allowed))
}

func (e *InvalidMagnitudeError) Unwrap() error {
	return ErrInvalidMagnitude
}

// UnknownEmployeeError reports the missing identifier.
type UnknownEmployeeError struct {
	ID EmployeeID
}

func (e *UnknownEmployeeError) Error() string {
	return fmt.Sprintf("unknown employee #%d", e.ID)
}

func (e *UnknownEmployeeError) Unwrap() error {
	return ErrUnknownEmployee
}

// DuplicateEmployeeError reports the taken identifier and who holds it.
type DuplicateEmployeeError struct {
	ID        EmployeeID
	LastName  string
	FirstName string
}

func (e *DuplicateEmployeeError) Error() string {
	return fmt.Sprintf("employee #%d already exists as %s, %s", e.ID, e.LastName, e.FirstName)
}

func (e *DuplicateEmployeeError) Unwrap() error {
	return ErrDuplicateEmployee
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true if the error is due to invalid caller input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidMagnitude) ||
		errors.Is(err, ErrMissingReason) ||
		errors.Is(err, ErrInvalidEmployeeID) ||
		errors.Is(err, ErrMissingName) ||
		errors.Is(err, ErrDuplicateEmployee)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUnknownEmployee) ||
		errors.Is(err, ErrEventNotFound)
}
