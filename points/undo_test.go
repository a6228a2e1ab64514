package points_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/points-engine/points"
)

// =============================================================================
// LOG MECHANICS
// =============================================================================

func TestUndoLog_PopIsLIFO(t *testing.T) {
	log := points.NewUndoLog(5)
	log.Push(points.UndoEntry{EventID: 1})
	log.Push(points.UndoEntry{EventID: 2})
	log.Push(points.UndoEntry{EventID: 3})

	for _, want := range []points.EventID{3, 2, 1} {
		e, err := log.Pop()
		require.NoError(t, err)
		assert.Equal(t, want, e.EventID)
	}

	_, err := log.Pop()
	assert.ErrorIs(t, err, points.ErrEmptyHistory)
}

func TestUndoLog_CapacityDropsOldest(t *testing.T) {
	// GIVEN: A log bounded at 2 entries
	// WHEN: Pushing a third
	// THEN: The oldest silently drops; only the newest two can be undone

	log := points.NewUndoLog(2)
	log.Push(points.UndoEntry{EventID: 1})
	log.Push(points.UndoEntry{EventID: 2})
	log.Push(points.UndoEntry{EventID: 3})

	assert.Equal(t, 2, log.Len())

	e, err := log.Pop()
	require.NoError(t, err)
	assert.Equal(t, points.EventID(3), e.EventID)

	e, err = log.Pop()
	require.NoError(t, err)
	assert.Equal(t, points.EventID(2), e.EventID)

	_, err = log.Pop()
	assert.ErrorIs(t, err, points.ErrEmptyHistory, "entry 1 was dropped when the log filled")
}

func TestUndoLog_CanUndoAndClear(t *testing.T) {
	log := points.NewUndoLog(5)
	assert.False(t, log.CanUndo())

	log.Push(points.UndoEntry{EventID: 1})
	assert.True(t, log.CanUndo())

	log.Clear()
	assert.False(t, log.CanUndo())
	assert.Zero(t, log.Len())
}

func TestNewUndoLog_BadCapacityFallsBackToDefault(t *testing.T) {
	log := points.NewUndoLog(0)
	for i := 1; i <= 25; i++ {
		log.Push(points.UndoEntry{EventID: points.EventID(i)})
	}
	assert.Equal(t, 20, log.Len())
}

// =============================================================================
// UNDO THROUGH THE LEDGER
// =============================================================================

func TestUndoLog_Undo_RemovesEventAndRestoresAggregate(t *testing.T) {
	// GIVEN: Two adds, with the second pushed onto the undo log
	// WHEN: Undoing
	// THEN: The second event is gone and the aggregate matches the
	//       first add alone

	ledger, st := newTestLedger(t)
	ctx := context.Background()
	seedEmployee(t, st, 100, "Doe", "Jane")
	log := points.NewUndoLog(points.DefaultPolicy().UndoDepth)

	_, err := ledger.AddInfraction(ctx, 100, "01-05-2025", points.NewPoints(1), "Absence", "", "")
	require.NoError(t, err)
	second, err := ledger.AddInfraction(ctx, 100, "02-10-2025", points.NewPoints(1.5), "No Call/No Show", "", "")
	require.NoError(t, err)
	log.Push(points.UndoEntry{EventID: second, EmployeeID: 100, Magnitude: points.NewPoints(1.5)})

	entry, err := log.Undo(ctx, ledger)
	require.NoError(t, err)
	assert.Equal(t, second, entry.EventID)

	_, err = st.GetEvent(ctx, second)
	assert.ErrorIs(t, err, points.ErrEventNotFound)

	emp := getEmployee(t, st, 100)
	assert.Equal(t, "1.0", emp.Total.Display())
	assert.True(t, emp.LastInfraction.Equal(date(2025, time.January, 5)))
	assert.True(t, emp.RolloffDue.Equal(date(2025, time.April, 1)))
	assert.True(t, emp.PerfectDue.Equal(date(2025, time.May, 1)))
}

func TestUndoLog_Undo_EmptyLog(t *testing.T) {
	ledger, _ := newTestLedger(t)
	log := points.NewUndoLog(5)

	_, err := log.Undo(context.Background(), ledger)
	assert.ErrorIs(t, err, points.ErrEmptyHistory)
}

func TestUndoLog_Undo_EventAlreadyDeleted(t *testing.T) {
	// GIVEN: A pushed add whose event was deleted through the ledger
	//        directly
	// WHEN: Undoing
	// THEN: The undo reports the missing event instead of guessing at
	//       some other entry

	ledger, st := newTestLedger(t)
	ctx := context.Background()
	seedEmployee(t, st, 100, "Doe", "Jane")
	log := points.NewUndoLog(5)

	id, err := ledger.AddInfraction(ctx, 100, "01-05-2025", points.NewPoints(1), "Absence", "", "")
	require.NoError(t, err)
	log.Push(points.UndoEntry{EventID: id, EmployeeID: 100})

	require.NoError(t, ledger.DeleteEvent(ctx, id))

	_, err = log.Undo(ctx, ledger)
	assert.ErrorIs(t, err, points.ErrEventNotFound)
}
