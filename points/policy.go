/*
policy.go - Attendance point policy rules

PURPOSE:
  Defines the ruleset governing point decay and risk classification:
  which magnitudes HR may enter, how fast points roll off, where the
  status thresholds sit, and the due-date derivations every component
  shares.

KEY CONCEPTS:
  - Policy: The complete configured ruleset (magnitudes, decrement, bands)
  - CalcRolloffAndPerfect: Anchor date -> the two policy due dates
  - StepNextDue: One catch-up step for an elapsed roll-off due date,
    including the perfect-month skip
  - StatusBand: One threshold of the risk ladder

DUE-DATE RULES:
  Infractions decay two full months after the most recent infraction, but
  the decay is only recognized on the first of the month after that window
  closes. Perfect attendance is recognized one month later (a three-month
  clean window) under the same first-of-month snap.

      anchor 2025-01-15  ->  rolloff due 2025-04-01, perfect due 2025-05-01

PERFECT-MONTH SKIP:
  When the engine catches up a long-overdue employee, the first roll-off
  step that has not yet passed the perfect-attendance milestone re-anchors
  to that milestone instead of stepping from the stale due date. A clean
  three-month window is never double-penalized.

SEE ALSO:
  - engine.go: Consumes StepNextDue during catch-up
  - config.go: Loads Policy values from the TOML file
*/
package points

// =============================================================================
// POLICY - Configured ruleset
// =============================================================================

// Policy carries the configured knobs of the points system. Build one from
// config.Policy() or use DefaultPolicy for the stock ruleset.
type Policy struct {
	// AllowedMagnitudes is the enumerated set accepted for interactive
	// infraction entry. System adjustments are not restricted.
	AllowedMagnitudes []Points

	// RolloffDecrement is deducted per elapsed roll-off step (floored at
	// zero).
	RolloffDecrement Points

	// Bands is the risk ladder, ordered by ascending threshold. A total at
	// or above a band's threshold belongs to that band (boundary values take
	// the higher severity).
	Bands []StatusBand

	// UndoDepth bounds the undo log.
	UndoDepth int
}

// StatusBand is one rung of the risk ladder.
type StatusBand struct {
	Threshold Points
	Status    Status
}

// DefaultPolicy returns the stock ruleset: magnitudes 0.5/1.0/1.5,
// decrement 1.0, bands 4.0 Warning / 5.0 Critical / 7.0 Termination Risk,
// undo depth 20.
func DefaultPolicy() Policy {
	return Policy{
		AllowedMagnitudes: []Points{NewPoints(0.5), NewPoints(1), NewPoints(1.5)},
		RolloffDecrement:  NewPoints(1),
		Bands: []StatusBand{
			{Threshold: NewPoints(4), Status: StatusWarning},
			{Threshold: NewPoints(5), Status: StatusCritical},
			{Threshold: NewPoints(7), Status: StatusTermination},
		},
		UndoDepth: 20,
	}
}

// MagnitudeAllowed reports whether a value is in the interactive set.
func (p Policy) MagnitudeAllowed(v Points) bool {
	for _, m := range p.AllowedMagnitudes {
		if m.Equal(v) {
			return true
		}
	}
	return false
}

// StatusFor classifies a running total against the bands, highest severity
// first. Totals below every threshold are Safe.
func (p Policy) StatusFor(total Points) Status {
	for i := len(p.Bands) - 1; i >= 0; i-- {
		if total.GreaterThan(p.Bands[i].Threshold) || total.Equal(p.Bands[i].Threshold) {
			return p.Bands[i].Status
		}
	}
	return StatusSafe
}

// =============================================================================
// DUE-DATE DERIVATIONS
// =============================================================================

// CalcRolloffAndPerfect derives both policy dates from the anchor (the most
// recent infraction date):
//
//	rolloffDue = firstOfNextMonth(anchor + 2 months)
//	perfectDue = firstOfNextMonth(anchor + 3 months)
func CalcRolloffAndPerfect(anchor PointDate) (rolloffDue, perfectDue PointDate) {
	return anchor.AddMonths(2).FirstOfNextMonth(), anchor.AddMonths(3).FirstOfNextMonth()
}

// StepNextDue advances an elapsed due date one step. If the due date has
// not yet passed the perfect-attendance milestone, it jumps to two months
// past the milestone (then first-of-next-month), treating the milestone as
// a fresh anchor; otherwise it advances two months from the current due
// date under the same snap.
func StepNextDue(currentDue, perfectAnchor PointDate) PointDate {
	if !perfectAnchor.IsZero() && currentDue.Before(perfectAnchor) {
		return perfectAnchor.AddMonths(2).FirstOfNextMonth()
	}
	return currentDue.AddMonths(2).FirstOfNextMonth()
}

// NextPerfectDue advances a reached perfect-attendance milestone to the
// next one: three months out, snapped to the first of the following month.
func NextPerfectDue(currentDue PointDate) PointDate {
	return currentDue.AddMonths(3).FirstOfNextMonth()
}
