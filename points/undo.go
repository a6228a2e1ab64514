/*
undo.go - Bounded undo log for point entry

PURPOSE:
  A fixed-capacity, last-in-first-out log of reversible add-point
  operations. Undoing an entry deletes the referenced event through the
  Ledger and lets the wholesale recompute restore the aggregate - the
  log never writes aggregate fields back itself, so it cannot drift.

DESIGN:
  - Pure data structure: no storage handle, no UI coupling. The caller
    owns when to push and when to undo.
  - Bounded: when capacity is exceeded the oldest entry is silently
    dropped and becomes permanently non-undoable. A deliberate
    bounded-memory tradeoff, not an error.
  - Only add-point operations are recorded. Deletions and batch
    adjustments are not reversible here.

SEE ALSO:
  - ledger.go: DeleteEvent + recompute does the actual reversal
*/
package points

import "context"

// =============================================================================
// UNDO ENTRY
// =============================================================================

// UndoEntry is a snapshot sufficient to reverse one add: the inserted
// event's ID (for deletion) and the prior aggregate values (kept for
// verification and display, never written back).
type UndoEntry struct {
	EventID     EventID
	EmployeeID  EmployeeID
	Magnitude   Points
	PriorTotal  Points
	PriorAnchor PointDate
}

// =============================================================================
// UNDO LOG
// =============================================================================

// UndoLog is a bounded LIFO of reversible adds.
type UndoLog struct {
	capacity int
	entries  []UndoEntry
}

// NewUndoLog returns a log holding at most capacity entries. A capacity
// below 1 falls back to the stock depth of 20.
func NewUndoLog(capacity int) *UndoLog {
	if capacity < 1 {
		capacity = 20
	}
	return &UndoLog{capacity: capacity}
}

// Push records one successful add. If the log is full the oldest entry
// is dropped.
func (u *UndoLog) Push(e UndoEntry) {
	if len(u.entries) == u.capacity {
		u.entries = u.entries[1:]
	}
	u.entries = append(u.entries, e)
}

// Pop removes and returns the most recent entry, or ErrEmptyHistory.
func (u *UndoLog) Pop() (UndoEntry, error) {
	if len(u.entries) == 0 {
		return UndoEntry{}, ErrEmptyHistory
	}
	e := u.entries[len(u.entries)-1]
	u.entries = u.entries[:len(u.entries)-1]
	return e, nil
}

// Len reports how many entries can still be undone.
func (u *UndoLog) Len() int { return len(u.entries) }

// CanUndo reports whether an undo is available.
func (u *UndoLog) CanUndo() bool { return len(u.entries) > 0 }

// Clear drops every entry.
func (u *UndoLog) Clear() { u.entries = nil }

// Undo pops the most recent entry and deletes its event through the
// ledger. The ledger's recompute restores the aggregate; nothing is
// patched by hand. Returns the reversed entry.
func (u *UndoLog) Undo(ctx context.Context, ledger *Ledger) (UndoEntry, error) {
	e, err := u.Pop()
	if err != nil {
		return UndoEntry{}, err
	}
	if err := ledger.DeleteEvent(ctx, e.EventID); err != nil {
		return UndoEntry{}, err
	}
	return e, nil
}
