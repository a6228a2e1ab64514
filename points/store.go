/*
store.go - Persistence interface for employees, events, and run records

PURPOSE:
  Defines the interface between the engine and the database. Different
  implementations can use SQLite or in-memory storage.

KEY CONTRACTS:
  - Events are inserted or deleted, never updated. Corrections happen via
    deletion plus recompute, or compensating entries.
  - EventsByEmployee orders by (point date ASC, id ASC) so "most recent"
    stays well-defined when dates tie.
  - SaveAggregate is the only write path for the cached aggregate; callers
    compute it (ledger recompute or engine catch-up), the store never does.
  - WithTx gives all-or-nothing semantics for multi-step mutations:
    insert event + recompute aggregate commit together or not at all.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - points/store/memory.go: In-memory for tests

EXAMPLE:
  err := st.WithTx(ctx, func(tx points.Store) error {
      if _, err := tx.InsertEvent(ctx, ev); err != nil {
          return err
      }
      return recompute(ctx, tx, ev.EmployeeID)
  })

SEE ALSO:
  - ledger.go: Higher-level mutations using Store
  - engine.go: Batch catch-up using Store
*/
package points

import (
	"context"
	"time"
)

// =============================================================================
// STORE - Persistence interface
// =============================================================================

type Store interface {
	// CreateEmployee inserts a new directory record. Returns a
	// DuplicateEmployeeError if the ID is taken.
	CreateEmployee(ctx context.Context, emp Employee) error

	// GetEmployee returns one record, or an UnknownEmployeeError.
	GetEmployee(ctx context.Context, id EmployeeID) (*Employee, error)

	// ListEmployees returns records ordered by last name then first name,
	// case-insensitively. activeOnly filters to Active records.
	ListEmployees(ctx context.Context, activeOnly bool) ([]Employee, error)

	// UpdateEmployeeName changes the two name fields.
	UpdateEmployeeName(ctx context.Context, id EmployeeID, lastName, firstName string) error

	// SetEmployeeActive flips the active flag.
	SetEmployeeActive(ctx context.Context, id EmployeeID, active bool) error

	// SetWarningDate records (or clears, with the zero date) the manually
	// issued warning date.
	SetWarningDate(ctx context.Context, id EmployeeID, date PointDate) error

	// SaveAggregate persists the cached aggregate fields. The caller has
	// already computed them; this is a plain write.
	SaveAggregate(ctx context.Context, id EmployeeID, agg Aggregate) error

	// DeleteEmployee removes the record and every associated event. Hard
	// delete, one transaction.
	DeleteEmployee(ctx context.Context, id EmployeeID) error

	// InsertEvent appends one immutable event and returns its assigned ID.
	InsertEvent(ctx context.Context, ev PointEvent) (EventID, error)

	// GetEvent returns one event, or ErrEventNotFound.
	GetEvent(ctx context.Context, id EventID) (*PointEvent, error)

	// DeleteEvent removes one event, or returns ErrEventNotFound.
	DeleteEvent(ctx context.Context, id EventID) error

	// EventsByEmployee returns an employee's events ordered by
	// (point date ASC, id ASC).
	EventsByEmployee(ctx context.Context, id EmployeeID) ([]PointEvent, error)

	// AllEvents returns every event ordered by (employee, point date, id),
	// the order the history report renders.
	AllEvents(ctx context.Context) ([]PointEvent, error)

	// DistinctReasons returns the distinct non-empty reasons present in the
	// history, ordered case-insensitively.
	DistinctReasons(ctx context.Context) ([]string, error)

	// SaveRolloffRun upserts a run record.
	SaveRolloffRun(ctx context.Context, run RolloffRunRecord) error

	// CompletedRunExistsForDay reports whether a completed roll-off run was
	// already recorded for the given day.
	CompletedRunExistsForDay(ctx context.Context, day PointDate) (bool, error)

	// ListRolloffRuns returns the most recent run records, newest first.
	ListRolloffRuns(ctx context.Context, limit int) ([]RolloffRunRecord, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// =============================================================================
// AGGREGATE - Cached view written by recompute and catch-up
// =============================================================================

// Aggregate is the cached per-employee view. Zero dates mean "none".
type Aggregate struct {
	Total          Points
	LastInfraction PointDate
	RolloffDue     PointDate
	PerfectDue     PointDate
}

// =============================================================================
// ROLL-OFF RUN RECORD - Audit trail of engine runs
// =============================================================================

type RolloffRunRecord struct {
	ID                string
	RunDate           PointDate
	Status            string // running, completed, failed
	EmployeesAffected int
	PointsRemoved     Points
	Error             string
	StartedAt         *time.Time
	CompletedAt       *time.Time
}

const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)
