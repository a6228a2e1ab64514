/*
directory.go - Employee directory operations

PURPOSE:
  Creating, renaming, deactivating, and deleting employee records, plus
  the reason catalog offered for point entry. The directory validates
  identity rules (caller-assigned positive ID, uniqueness, required
  names); the cached aggregate fields start empty and are owned by the
  ledger from then on.

LIFECYCLE RULES:
  - IDs are caller-supplied, positive, and unique. Never auto-generated.
  - A new record starts with total 0, no anchor, no due dates, active.
    An optional starting perfect-attendance date may be supplied for
    employees hired with a clean slate already in progress.
  - Deletion is hard: the record and every associated point event go in
    one transaction. Not reversible, not undoable.

SEE ALSO:
  - ledger.go: Owns the aggregate fields after creation
  - types.go: Employee record shape
*/
package points

import (
	"context"
	"strings"
)

// Default reasons offered for interactive point entry, ahead of any
// reasons already present in the history.
var defaultReasons = []string{
	"Tardy/Early Leave",
	"Absence",
	"No Call/No Show",
}

// =============================================================================
// DIRECTORY
// =============================================================================

type Directory struct {
	Store Store
}

func NewDirectory(store Store) *Directory {
	return &Directory{Store: store}
}

// Create inserts a new employee record. The ID must be positive and
// unused; both name fields are required. startingPerfect may carry an
// optional first perfect-attendance milestone, or the zero date.
func (d *Directory) Create(ctx context.Context, id EmployeeID, lastName, firstName string, startingPerfect PointDate) error {
	if id <= 0 {
		return ErrInvalidEmployeeID
	}
	lastName = strings.TrimSpace(lastName)
	firstName = strings.TrimSpace(firstName)
	if lastName == "" || firstName == "" {
		return ErrMissingName
	}
	return d.Store.CreateEmployee(ctx, Employee{
		ID:         id,
		LastName:   lastName,
		FirstName:  firstName,
		Active:     true,
		Total:      ZeroPoints(),
		PerfectDue: startingPerfect,
	})
}

// Get returns one record.
func (d *Directory) Get(ctx context.Context, id EmployeeID) (*Employee, error) {
	return d.Store.GetEmployee(ctx, id)
}

// List returns employees ordered by last name then first name,
// case-insensitively. activeOnly filters to active records (the
// dashboard view); the full directory passes false.
func (d *Directory) List(ctx context.Context, activeOnly bool) ([]Employee, error) {
	return d.Store.ListEmployees(ctx, activeOnly)
}

// Rename changes both name fields.
func (d *Directory) Rename(ctx context.Context, id EmployeeID, lastName, firstName string) error {
	lastName = strings.TrimSpace(lastName)
	firstName = strings.TrimSpace(firstName)
	if lastName == "" || firstName == "" {
		return ErrMissingName
	}
	return d.Store.UpdateEmployeeName(ctx, id, lastName, firstName)
}

// SetActive flips the active flag. Inactive employees stay in the
// directory and keep their history; they drop off the dashboard.
func (d *Directory) SetActive(ctx context.Context, id EmployeeID, active bool) error {
	return d.Store.SetEmployeeActive(ctx, id, active)
}

// SetWarningDate records when a warning was issued. HR sets this by
// hand; it is never derived.
func (d *Directory) SetWarningDate(ctx context.Context, id EmployeeID, date PointDate) error {
	return d.Store.SetWarningDate(ctx, id, date)
}

// ClearWarningDate removes the warning date.
func (d *Directory) ClearWarningDate(ctx context.Context, id EmployeeID) error {
	return d.Store.SetWarningDate(ctx, id, PointDate{})
}

// Delete removes the employee and all associated events in one
// transaction. Hard delete; the caller confirms first.
func (d *Directory) Delete(ctx context.Context, id EmployeeID) error {
	if _, err := d.Store.GetEmployee(ctx, id); err != nil {
		return err
	}
	return d.Store.DeleteEmployee(ctx, id)
}

// ReasonOptions returns the reasons offered for point entry: the
// defaults first, then the distinct non-empty reasons already present
// in the history, deduplicated case-insensitively.
func (d *Directory) ReasonOptions(ctx context.Context) ([]string, error) {
	history, err := d.Store.DistinctReasons(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var ordered []string
	for _, r := range defaultReasons {
		k := strings.TrimSpace(r)
		if k != "" && !seen[strings.ToLower(k)] {
			ordered = append(ordered, k)
			seen[strings.ToLower(k)] = true
		}
	}
	for _, r := range history {
		k := strings.TrimSpace(r)
		if k != "" && !seen[strings.ToLower(k)] {
			ordered = append(ordered, k)
			seen[strings.ToLower(k)] = true
		}
	}
	return ordered, nil
}
