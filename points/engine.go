/*
engine.go - Automatic point expiration (roll-off) engine

PURPOSE:
  Batch-advances every employee whose roll-off due date has elapsed:
  deducts points in fixed decrements, walks the due date forward past
  today (possibly several steps at once), and writes an aggregated
  audit event per affected employee. Runs on demand or from the
  scheduler.

CATCH-UP ALGORITHM (per employee, one transaction):
  1. Derive the perfect-attendance milestone from the anchor:
     firstOfNextMonth(anchor + 3 months); no anchor means the skip rule
     never triggers.
  2. While the due date has not passed today:
       - with points remaining, deduct one decrement (floored at zero)
         and count the removal
       - advance the due date one step (StepNextDue applies the
         perfect-month skip exactly once on the way through)
     The due date advances even at zero balance - nobody stays
     perpetually overdue.
  3. Any removal persists the new total and due date and appends ONE
     negative ledger event dated today carrying the whole deduction,
     flagged AUTO. A due date that only advanced persists silently.

IDEMPOTENCE:
  Every processed employee leaves with a due date strictly after the
  run date, so a second run the same day finds no candidates and
  removes nothing.

AUDIT:
  One row per affected employee (id, name, run date, points removed,
  resulting total) plus a persisted run record (uuid, status, counts)
  for the run history view.

SEE ALSO:
  - policy.go: StepNextDue and the due-date derivations
  - scheduler.go: Periodic invocation with a per-day guard
  - reports.go: Read-only report rows over the same aggregates
*/
package points

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLL-OFF ENGINE
// =============================================================================

type RolloffEngine struct {
	Store  Store
	Policy Policy
}

func NewRolloffEngine(store Store, policy Policy) *RolloffEngine {
	return &RolloffEngine{Store: store, Policy: policy}
}

// AuditRow is one affected employee's line in the run export: who, when,
// how much came off, and where the total landed.
type AuditRow struct {
	EmployeeID EmployeeID
	LastName   string
	FirstName  string
	RunDate    PointDate
	Removed    Points // total deducted this run, as a positive quantity
	NewTotal   Points
}

// RolloffRun is the outcome of one engine run.
type RolloffRun struct {
	ID                string
	AsOf              PointDate
	EmployeesAffected int
	PointsRemoved     Points
	Audit             []AuditRow
}

// Reason and note carried by the aggregated audit event.
const (
	rolloffReason = "Auto Rolloff Adjustment"
	rolloffNote   = "Automatic 2-Month Point Expiration (perfect-month skip)"
)

// Run processes every employee whose roll-off due date is on or before
// asOf. Each employee's deduction, due-date advance, and audit event
// commit atomically; a failure on one employee aborts and marks the run
// failed so it can be re-run safely.
func (e *RolloffEngine) Run(ctx context.Context, asOf PointDate) (*RolloffRun, error) {
	run := &RolloffRun{
		ID:   uuid.NewString(),
		AsOf: asOf,
	}
	run.PointsRemoved = ZeroPoints()

	started := time.Now().UTC()
	record := RolloffRunRecord{
		ID:        run.ID,
		RunDate:   asOf,
		Status:    RunStatusRunning,
		StartedAt: &started,
	}
	if err := e.Store.SaveRolloffRun(ctx, record); err != nil {
		return nil, fmt.Errorf("save run record: %w", err)
	}

	employees, err := e.Store.ListEmployees(ctx, false)
	if err != nil {
		return nil, e.failRun(ctx, record, run, err)
	}

	for _, emp := range employees {
		if emp.RolloffDue.IsZero() || emp.RolloffDue.After(asOf) {
			continue
		}
		row, err := e.processEmployee(ctx, emp.ID, asOf)
		if err != nil {
			return nil, e.failRun(ctx, record, run, fmt.Errorf("employee #%d: %w", emp.ID, err))
		}
		if row != nil {
			run.Audit = append(run.Audit, *row)
			run.EmployeesAffected++
			run.PointsRemoved = run.PointsRemoved.Add(row.Removed)
		}
	}

	completed := time.Now().UTC()
	record.Status = RunStatusCompleted
	record.EmployeesAffected = run.EmployeesAffected
	record.PointsRemoved = run.PointsRemoved
	record.CompletedAt = &completed
	if err := e.Store.SaveRolloffRun(ctx, record); err != nil {
		return nil, fmt.Errorf("complete run record: %w", err)
	}

	log.Printf("[Rolloff] Run %s as of %s: %d employee(s) affected, %s point(s) removed",
		run.ID, asOf, run.EmployeesAffected, run.PointsRemoved)
	return run, nil
}

func (e *RolloffEngine) failRun(ctx context.Context, record RolloffRunRecord, run *RolloffRun, cause error) error {
	record.Status = RunStatusFailed
	record.Error = cause.Error()
	record.EmployeesAffected = run.EmployeesAffected
	record.PointsRemoved = run.PointsRemoved
	if err := e.Store.SaveRolloffRun(ctx, record); err != nil {
		log.Printf("[Rolloff] Could not mark run %s failed: %v", record.ID, err)
	}
	return cause
}

// processEmployee applies the catch-up loop to one employee inside one
// transaction. Returns an audit row when points came off, nil when only
// the due date moved (or nothing changed).
func (e *RolloffEngine) processEmployee(ctx context.Context, id EmployeeID, asOf PointDate) (*AuditRow, error) {
	var row *AuditRow
	err := e.Store.WithTx(ctx, func(tx Store) error {
		emp, err := tx.GetEmployee(ctx, id)
		if err != nil {
			return err
		}
		if emp.RolloffDue.IsZero() || emp.RolloffDue.After(asOf) {
			return nil
		}

		// The milestone the skip rule keys off. No anchor leaves it zero,
		// which StepNextDue treats as "never".
		var perfectAnchor PointDate
		if !emp.LastInfraction.IsZero() {
			perfectAnchor = emp.LastInfraction.AddMonths(3).FirstOfNextMonth()
		}

		total := emp.Total
		due := emp.RolloffDue
		removed := ZeroPoints()
		steps := 0

		if total.IsPositive() {
			for due.BeforeOrEqual(asOf) && total.IsPositive() {
				total = total.Sub(e.Policy.RolloffDecrement)
				if total.IsNegative() {
					total = ZeroPoints()
				}
				removed = removed.Add(e.Policy.RolloffDecrement)
				steps++
				due = StepNextDue(due, perfectAnchor)
			}
		}
		for due.BeforeOrEqual(asOf) {
			due = StepNextDue(due, perfectAnchor)
		}

		if steps > 0 {
			agg := Aggregate{
				Total:          total,
				LastInfraction: emp.LastInfraction,
				RolloffDue:     due,
				PerfectDue:     emp.PerfectDue,
			}
			if err := tx.SaveAggregate(ctx, id, agg); err != nil {
				return err
			}
			// One aggregated negative audit event for the whole run. Written
			// directly: the floored total above is authoritative here, so the
			// ledger's wholesale recompute must not run on this path.
			_, err := tx.InsertEvent(ctx, PointEvent{
				EmployeeID: id,
				Date:       asOf,
				Magnitude:  removed.Neg(),
				Reason:     rolloffReason,
				Note:       rolloffNote,
				FlagCode:   FlagAuto,
			})
			if err != nil {
				return err
			}
			row = &AuditRow{
				EmployeeID: id,
				LastName:   emp.LastName,
				FirstName:  emp.FirstName,
				RunDate:    asOf,
				Removed:    removed,
				NewTotal:   total,
			}
			return nil
		}

		if !due.Equal(emp.RolloffDue) {
			agg := Aggregate{
				Total:          emp.Total,
				LastInfraction: emp.LastInfraction,
				RolloffDue:     due,
				PerfectDue:     emp.PerfectDue,
			}
			return tx.SaveAggregate(ctx, id, agg)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// =============================================================================
// PERFECT ATTENDANCE PROCESSING
// =============================================================================

// PerfectRow is one employee on the perfect-attendance report: the
// milestone being recognized now and the next one scheduled.
type PerfectRow struct {
	EmployeeID EmployeeID
	LastName   string
	FirstName  string
	CurrentDue PointDate
	NextDue    PointDate
	Total      Points
}

// ProcessPerfectAttendance lists every employee whose perfect-attendance
// date is on or before asOf and advances each to the next milestone
// (three months out, snapped to the first of the following month). With
// dryRun the rows are returned and nothing persists.
func (e *RolloffEngine) ProcessPerfectAttendance(ctx context.Context, asOf PointDate, dryRun bool) ([]PerfectRow, error) {
	employees, err := e.Store.ListEmployees(ctx, false)
	if err != nil {
		return nil, err
	}

	var rows []PerfectRow
	for _, emp := range employees {
		if emp.PerfectDue.IsZero() || emp.PerfectDue.After(asOf) {
			continue
		}
		rows = append(rows, PerfectRow{
			EmployeeID: emp.ID,
			LastName:   emp.LastName,
			FirstName:  emp.FirstName,
			CurrentDue: emp.PerfectDue,
			NextDue:    NextPerfectDue(emp.PerfectDue),
			Total:      emp.Total,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].LastName != rows[j].LastName {
			return rows[i].LastName < rows[j].LastName
		}
		return rows[i].FirstName < rows[j].FirstName
	})

	if dryRun || len(rows) == 0 {
		return rows, nil
	}

	err = e.Store.WithTx(ctx, func(tx Store) error {
		for _, r := range rows {
			emp, err := tx.GetEmployee(ctx, r.EmployeeID)
			if err != nil {
				return err
			}
			agg := Aggregate{
				Total:          emp.Total,
				LastInfraction: emp.LastInfraction,
				RolloffDue:     emp.RolloffDue,
				PerfectDue:     r.NextDue,
			}
			if err := tx.SaveAggregate(ctx, r.EmployeeID, agg); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}
