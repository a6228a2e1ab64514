package points_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/points-engine/points"
	"github.com/warp/points-engine/points/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLedger(t *testing.T) (*points.Ledger, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	return points.NewLedger(st, points.DefaultPolicy()), st
}

func seedEmployee(t *testing.T, st points.Store, id points.EmployeeID, last, first string) {
	t.Helper()
	dir := points.NewDirectory(st)
	require.NoError(t, dir.Create(context.Background(), id, last, first, points.PointDate{}))
}

func getEmployee(t *testing.T, st points.Store, id points.EmployeeID) *points.Employee {
	t.Helper()
	emp, err := st.GetEmployee(context.Background(), id)
	require.NoError(t, err)
	return emp
}

// =============================================================================
// ADD INFRACTION
// =============================================================================

func TestLedger_AddInfraction_SetsTotalAndDueDates(t *testing.T) {
	// GIVEN: Jane Doe (#100) with a clean record
	// WHEN: Recording a 1.0 point on 01-05-2025
	// THEN: Total is 1.0, the anchor is Jan 5, roll-off lands Apr 1 and
	//       perfect attendance May 1

	ledger, st := newTestLedger(t)
	ctx := context.Background()
	seedEmployee(t, st, 100, "Doe", "Jane")

	entryID, err := ledger.AddInfraction(ctx, 100, "01-05-2025", points.NewPoints(1), "Absence", "", "")
	require.NoError(t, err)
	assert.NotZero(t, entryID)

	emp := getEmployee(t, st, 100)
	assert.Equal(t, "1.0", emp.Total.Display())
	assert.True(t, emp.LastInfraction.Equal(date(2025, time.January, 5)), "anchor %s", emp.LastInfraction)
	assert.True(t, emp.RolloffDue.Equal(date(2025, time.April, 1)), "rolloff %s", emp.RolloffDue)
	assert.True(t, emp.PerfectDue.Equal(date(2025, time.May, 1)), "perfect %s", emp.PerfectDue)
}

func TestLedger_AddInfraction_LaterEventMovesAnchor(t *testing.T) {
	ledger, st := newTestLedger(t)
	ctx := context.Background()
	seedEmployee(t, st, 100, "Doe", "Jane")

	_, err := ledger.AddInfraction(ctx, 100, "01-05-2025", points.NewPoints(1), "Absence", "", "")
	require.NoError(t, err)
	_, err = ledger.AddInfraction(ctx, 100, "02-10-2025", points.NewPoints(0.5), "Tardy/Early Leave", "", "")
	require.NoError(t, err)

	emp := getEmployee(t, st, 100)
	assert.Equal(t, "1.5", emp.Total.Display())
	assert.True(t, emp.LastInfraction.Equal(date(2025, time.February, 10)))
	assert.True(t, emp.RolloffDue.Equal(date(2025, time.May, 1)), "rolloff %s", emp.RolloffDue)
	assert.True(t, emp.PerfectDue.Equal(date(2025, time.June, 1)), "perfect %s", emp.PerfectDue)
}

func TestLedger_AddInfraction_BackfillDoesNotMoveAnchor(t *testing.T) {
	// GIVEN: An infraction on Mar 10 already recorded
	// WHEN: Backfilling an older infraction dated Jan 5
	// THEN: The total grows but the anchor and due dates stay on Mar 10

	ledger, st := newTestLedger(t)
	ctx := context.Background()
	seedEmployee(t, st, 100, "Doe", "Jane")

	_, err := ledger.AddInfraction(ctx, 100, "03-10-2025", points.NewPoints(1), "Absence", "", "")
	require.NoError(t, err)
	_, err = ledger.AddInfraction(ctx, 100, "01-05-2025", points.NewPoints(0.5), "Tardy/Early Leave", "", "")
	require.NoError(t, err)

	emp := getEmployee(t, st, 100)
	assert.Equal(t, "1.5", emp.Total.Display())
	assert.True(t, emp.LastInfraction.Equal(date(2025, time.March, 10)))
	assert.True(t, emp.RolloffDue.Equal(date(2025, time.June, 1)), "rolloff %s", emp.RolloffDue)
}

func TestLedger_AddInfraction_UnknownEmployee(t *testing.T) {
	ledger, _ := newTestLedger(t)

	_, err := ledger.AddInfraction(context.Background(), 999, "01-05-2025", points.NewPoints(1), "Absence", "", "")

	assert.ErrorIs(t, err, points.ErrUnknownEmployee)
	var unknownErr *points.UnknownEmployeeError
	assert.ErrorAs(t, err, &unknownErr)
	assert.Equal(t, points.EmployeeID(999), unknownErr.ID)
}

func TestLedger_AddInfraction_RejectsBadMagnitude(t *testing.T) {
	// Interactive entry only accepts the policy's enumerated values.

	ledger, st := newTestLedger(t)
	ctx := context.Background()
	seedEmployee(t, st, 100, "Doe", "Jane")

	_, err := ledger.AddInfraction(ctx, 100, "01-05-2025", points.NewPoints(2), "Absence", "", "")

	assert.ErrorIs(t, err, points.ErrInvalidMagnitude)
	var magErr *points.InvalidMagnitudeError
	assert.ErrorAs(t, err, &magErr)

	events, err := ledger.Events(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, events, "a rejected entry must not persist anything")
}

func TestLedger_AddInfraction_RejectsMissingReason(t *testing.T) {
	ledger, st := newTestLedger(t)
	ctx := context.Background()
	seedEmployee(t, st, 100, "Doe", "Jane")

	for _, reason := range []string{"", "   "} {
		_, err := ledger.AddInfraction(ctx, 100, "01-05-2025", points.NewPoints(1), reason, "", "")
		assert.ErrorIs(t, err, points.ErrMissingReason, "reason %q", reason)
	}
}

func TestLedger_AddInfraction_RejectsBadDate(t *testing.T) {
	ledger, st := newTestLedger(t)
	ctx := context.Background()
	seedEmployee(t, st, 100, "Doe", "Jane")

	for _, input := range []string{"garbage", "02-30-2025", ""} {
		_, err := ledger.AddInfraction(ctx, 100, input, points.NewPoints(1), "Absence", "", "")
		assert.ErrorIs(t, err, points.ErrInvalidDate, "input %q", input)
	}

	emp := getEmployee(t, st, 100)
	assert.True(t, emp.Total.IsZero(), "nothing should have been recorded")
}

// =============================================================================
// DELETE EVENT
// =============================================================================

func TestLedger_DeleteEvent_RecomputesFromRemaining(t *testing.T) {
	// GIVEN: A 1.0 on Jan 5 and a 0.5 on Jan 20
	// WHEN: Deleting the Jan 20 entry
	// THEN: The aggregate returns to the Jan 5 state: total 1.0,
	//       roll-off Apr 1, perfect May 1

	ledger, st := newTestLedger(t)
	ctx := context.Background()
	seedEmployee(t, st, 100, "Doe", "Jane")

	_, err := ledger.AddInfraction(ctx, 100, "01-05-2025", points.NewPoints(1), "Absence", "", "")
	require.NoError(t, err)
	second, err := ledger.AddInfraction(ctx, 100, "01-20-2025", points.NewPoints(0.5), "Tardy/Early Leave", "", "")
	require.NoError(t, err)

	require.NoError(t, ledger.DeleteEvent(ctx, second))

	emp := getEmployee(t, st, 100)
	assert.Equal(t, "1.0", emp.Total.Display())
	assert.True(t, emp.LastInfraction.Equal(date(2025, time.January, 5)))
	assert.True(t, emp.RolloffDue.Equal(date(2025, time.April, 1)))
	assert.True(t, emp.PerfectDue.Equal(date(2025, time.May, 1)))
}

func TestLedger_DeleteEvent_LastEventClearsAggregate(t *testing.T) {
	ledger, st := newTestLedger(t)
	ctx := context.Background()
	seedEmployee(t, st, 100, "Doe", "Jane")

	only, err := ledger.AddInfraction(ctx, 100, "01-05-2025", points.NewPoints(1), "Absence", "", "")
	require.NoError(t, err)
	require.NoError(t, ledger.DeleteEvent(ctx, only))

	emp := getEmployee(t, st, 100)
	assert.True(t, emp.Total.IsZero())
	assert.True(t, emp.LastInfraction.IsZero(), "anchor should clear with the history")
	assert.True(t, emp.RolloffDue.IsZero())
	assert.True(t, emp.PerfectDue.IsZero())
}

func TestLedger_DeleteEvent_MidHistory(t *testing.T) {
	// Deleting is never "pop the latest": removing a middle event leaves
	// the later anchor in place.

	ledger, st := newTestLedger(t)
	ctx := context.Background()
	seedEmployee(t, st, 100, "Doe", "Jane")

	_, err := ledger.AddInfraction(ctx, 100, "01-05-2025", points.NewPoints(1), "Absence", "", "")
	require.NoError(t, err)
	middle, err := ledger.AddInfraction(ctx, 100, "02-10-2025", points.NewPoints(1), "Absence", "", "")
	require.NoError(t, err)
	_, err = ledger.AddInfraction(ctx, 100, "03-15-2025", points.NewPoints(0.5), "Tardy/Early Leave", "", "")
	require.NoError(t, err)

	require.NoError(t, ledger.DeleteEvent(ctx, middle))

	emp := getEmployee(t, st, 100)
	assert.Equal(t, "1.5", emp.Total.Display())
	assert.True(t, emp.LastInfraction.Equal(date(2025, time.March, 15)))
}

func TestLedger_DeleteEvent_NotFound(t *testing.T) {
	ledger, _ := newTestLedger(t)

	err := ledger.DeleteEvent(context.Background(), 12345)
	assert.ErrorIs(t, err, points.ErrEventNotFound)
}

// =============================================================================
// ADJUSTMENTS AND THE POSITIVE-ONLY ANCHOR
// =============================================================================

func TestLedger_AddAdjustment_NegativeDoesNotMoveAnchor(t *testing.T) {
	// GIVEN: An infraction on Jan 5
	// WHEN: A negative adjustment lands later, on Feb 1
	// THEN: The total drops but the anchor and due dates stay derived
	//       from Jan 5 - deductions are not infractions

	ledger, st := newTestLedger(t)
	ctx := context.Background()
	seedEmployee(t, st, 100, "Doe", "Jane")

	_, err := ledger.AddInfraction(ctx, 100, "01-05-2025", points.NewPoints(1), "Absence", "", "")
	require.NoError(t, err)
	_, err = ledger.AddAdjustment(ctx, 100, date(2025, time.February, 1), points.NewPoints(0.5).Neg(),
		"Correction", "", "")
	require.NoError(t, err)

	emp := getEmployee(t, st, 100)
	assert.Equal(t, "0.5", emp.Total.Display())
	assert.True(t, emp.LastInfraction.Equal(date(2025, time.January, 5)))
	assert.True(t, emp.RolloffDue.Equal(date(2025, time.April, 1)))
	assert.True(t, emp.PerfectDue.Equal(date(2025, time.May, 1)))
}

func TestLedger_AddAdjustment_DefaultsToManualFlag(t *testing.T) {
	ledger, st := newTestLedger(t)
	ctx := context.Background()
	seedEmployee(t, st, 100, "Doe", "Jane")

	id, err := ledger.AddAdjustment(ctx, 100, date(2025, time.February, 1), points.NewPoints(0.5),
		"Manual correction", "", "")
	require.NoError(t, err)

	ev, err := st.GetEvent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, points.FlagManual, ev.FlagCode)
}

func TestLedger_RecomputeAggregate_RepairsDrift(t *testing.T) {
	// GIVEN: A cached aggregate that disagrees with the event history
	// WHEN: Recomputing
	// THEN: The cache converges back onto the events

	ledger, st := newTestLedger(t)
	ctx := context.Background()
	seedEmployee(t, st, 100, "Doe", "Jane")

	_, err := ledger.AddInfraction(ctx, 100, "01-05-2025", points.NewPoints(1), "Absence", "", "")
	require.NoError(t, err)

	// Corrupt the cache behind the ledger's back.
	require.NoError(t, st.SaveAggregate(ctx, 100, points.Aggregate{
		Total:          points.NewPoints(9),
		LastInfraction: date(2030, time.January, 1),
	}))

	require.NoError(t, ledger.RecomputeAggregate(ctx, 100))

	emp := getEmployee(t, st, 100)
	assert.Equal(t, "1.0", emp.Total.Display())
	assert.True(t, emp.LastInfraction.Equal(date(2025, time.January, 5)))
	assert.True(t, emp.RolloffDue.Equal(date(2025, time.April, 1)))

	// Recomputing again is a fixed point.
	require.NoError(t, ledger.RecomputeAggregate(ctx, 100))
	again := getEmployee(t, st, 100)
	assert.Equal(t, emp, again)
}

// =============================================================================
// EVENT ORDERING
// =============================================================================

func TestLedger_Events_OrderedByDateThenEntry(t *testing.T) {
	ledger, st := newTestLedger(t)
	ctx := context.Background()
	seedEmployee(t, st, 100, "Doe", "Jane")

	// Inserted out of date order, with two entries sharing a date.
	_, err := ledger.AddInfraction(ctx, 100, "02-10-2025", points.NewPoints(1), "Absence", "", "")
	require.NoError(t, err)
	firstOfPair, err := ledger.AddInfraction(ctx, 100, "01-05-2025", points.NewPoints(0.5), "Tardy/Early Leave", "", "")
	require.NoError(t, err)
	secondOfPair, err := ledger.AddInfraction(ctx, 100, "01-05-2025", points.NewPoints(0.5), "Tardy/Early Leave", "", "")
	require.NoError(t, err)

	events, err := ledger.Events(ctx, 100)
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.True(t, events[0].Date.Equal(date(2025, time.January, 5)))
	assert.Equal(t, firstOfPair, events[0].ID, "same-date events keep insertion order")
	assert.Equal(t, secondOfPair, events[1].ID)
	assert.True(t, events[2].Date.Equal(date(2025, time.February, 10)))
}
