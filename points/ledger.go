/*
ledger.go - Point event ledger and aggregate recomputation

PURPOSE:
  The ledger is the source of truth for every point an employee carries.
  Infractions and adjustments are recorded as immutable events; the cached
  per-employee aggregate (total, anchor, due dates) is a materialized view
  recomputed wholesale from the events on every mutation.

CRITICAL INVARIANTS:
  1. IMMUTABLE EVENTS: insert and delete only, no in-place edits
  2. VALIDATE FIRST: a bad date or magnitude aborts before anything
     persists - no partial state
  3. RECOMPUTE, NEVER PATCH: after any mutation the aggregate is rebuilt
     from the full remaining event set; incremental patching drifts
  4. ANCHOR IS POSITIVE-ONLY: roll-off and adjustment events never move
     the last-infraction anchor

WHY RECOMPUTE WHOLESALE?
  Earlier versions of this system patched the aggregate incrementally on
  each mutation and the recompute paths disagreed with each other. Deleting
  a mid-history event, undoing an add, and importing rows all converge on
  one code path here.

EXAMPLE FLOW:
  1. Infraction 1.0 on 01-05-2025: total 1.0, anchor 2025-01-05,
     roll-off due 2025-04-01, perfect due 2025-05-01
  2. Infraction 0.5 on 01-20-2025: total 1.5, anchor 2025-01-20
  3. Delete the 0.5 event: total 1.0, anchor back to 2025-01-05

SEE ALSO:
  - store.go: Persistence interface with WithTx
  - engine.go: Batch roll-off (writes events through its own path)
  - undo.go: Bounded reversal of adds
*/
package points

import (
	"context"
	"strings"
)

// =============================================================================
// LEDGER
// =============================================================================

type Ledger struct {
	Store  Store
	Policy Policy
}

func NewLedger(store Store, policy Policy) *Ledger {
	return &Ledger{Store: store, Policy: policy}
}

// AddInfraction records an interactive point entry. The date arrives in the
// display format (MM-DD-YYYY, or ISO as the tolerated secondary form); the
// magnitude must be one of the policy's allowed values; a reason is
// required. The event insert and the aggregate recompute commit in one
// transaction.
func (l *Ledger) AddInfraction(ctx context.Context, id EmployeeID, dateInput string, magnitude Points, reason, note, flag string) (EventID, error) {
	date, err := ParseInput(dateInput)
	if err != nil {
		return 0, err
	}
	if !l.Policy.MagnitudeAllowed(magnitude) {
		return 0, &InvalidMagnitudeError{Value: magnitude, Allowed: l.Policy.AllowedMagnitudes}
	}
	if strings.TrimSpace(reason) == "" {
		return 0, ErrMissingReason
	}
	return l.append(ctx, PointEvent{
		EmployeeID: id,
		Date:       date,
		Magnitude:  magnitude,
		Reason:     strings.TrimSpace(reason),
		Note:       note,
		FlagCode:   flag,
	})
}

// AddAdjustment records a system or administrative entry. The magnitude is
// unrestricted in sign but the entry must carry a flag code identifying
// what produced it.
func (l *Ledger) AddAdjustment(ctx context.Context, id EmployeeID, date PointDate, delta Points, reason, note, flag string) (EventID, error) {
	if strings.TrimSpace(flag) == "" {
		flag = FlagManual
	}
	return l.append(ctx, PointEvent{
		EmployeeID: id,
		Date:       date,
		Magnitude:  delta,
		Reason:     reason,
		Note:       note,
		FlagCode:   flag,
	})
}

func (l *Ledger) append(ctx context.Context, ev PointEvent) (EventID, error) {
	if _, err := l.Store.GetEmployee(ctx, ev.EmployeeID); err != nil {
		return 0, err
	}
	var eventID EventID
	err := l.Store.WithTx(ctx, func(tx Store) error {
		id, err := tx.InsertEvent(ctx, ev)
		if err != nil {
			return err
		}
		eventID = id
		return recompute(ctx, tx, ev.EmployeeID)
	})
	if err != nil {
		return 0, err
	}
	return eventID, nil
}

// DeleteEvent removes one event and recomputes the owning employee's
// aggregate. The deleted event is never assumed to be the most recent.
func (l *Ledger) DeleteEvent(ctx context.Context, id EventID) error {
	ev, err := l.Store.GetEvent(ctx, id)
	if err != nil {
		return err
	}
	return l.Store.WithTx(ctx, func(tx Store) error {
		if err := tx.DeleteEvent(ctx, id); err != nil {
			return err
		}
		return recompute(ctx, tx, ev.EmployeeID)
	})
}

// RecomputeAggregate rebuilds one employee's cached aggregate from the
// event history. Idempotent; safe to call any number of times, including
// at startup when the cache is in doubt.
func (l *Ledger) RecomputeAggregate(ctx context.Context, id EmployeeID) error {
	if _, err := l.Store.GetEmployee(ctx, id); err != nil {
		return err
	}
	return l.Store.WithTx(ctx, func(tx Store) error {
		return recompute(ctx, tx, id)
	})
}

// recompute runs inside the caller's transaction. Total is the sum of all
// magnitudes; the anchor is the max date among positive events only; due
// dates derive from the anchor, or clear with it.
func recompute(ctx context.Context, st Store, id EmployeeID) error {
	events, err := st.EventsByEmployee(ctx, id)
	if err != nil {
		return err
	}

	var agg Aggregate
	agg.Total = ZeroPoints()
	for _, ev := range events {
		agg.Total = agg.Total.Add(ev.Magnitude)
		if ev.Magnitude.IsPositive() && ev.Date.After(agg.LastInfraction) {
			agg.LastInfraction = ev.Date
		}
	}
	if !agg.LastInfraction.IsZero() {
		agg.RolloffDue, agg.PerfectDue = CalcRolloffAndPerfect(agg.LastInfraction)
	}
	return st.SaveAggregate(ctx, id, agg)
}

// Events returns one employee's history ordered by (date, insertion).
func (l *Ledger) Events(ctx context.Context, id EmployeeID) ([]PointEvent, error) {
	if _, err := l.Store.GetEmployee(ctx, id); err != nil {
		return nil, err
	}
	return l.Store.EventsByEmployee(ctx, id)
}
