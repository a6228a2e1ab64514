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

func newTestEngine(t *testing.T) (*points.RolloffEngine, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	return points.NewRolloffEngine(st, points.DefaultPolicy()), st
}

// addPoint seeds one infraction through the real ledger path so the
// aggregate (anchor, due dates) is derived, not hand-written.
func addPoint(t *testing.T, st points.Store, id points.EmployeeID, dateInput string, value float64) {
	t.Helper()
	ledger := points.NewLedger(st, points.DefaultPolicy())
	_, err := ledger.AddInfraction(context.Background(), id, dateInput, points.NewPoints(value), "Absence", "", "")
	require.NoError(t, err)
}

// =============================================================================
// ROLL-OFF RUNS
// =============================================================================

func TestRolloffEngine_Run_NothingDue(t *testing.T) {
	// GIVEN: One employee whose roll-off date is still in the future
	// WHEN: Running as of today
	// THEN: Nobody is affected, and the run is still recorded as completed

	engine, st := newTestEngine(t)
	ctx := context.Background()
	seedEmployee(t, st, 100, "Doe", "Jane")
	addPoint(t, st, 100, "01-15-2025", 1.0) // due 04-01-2025

	asOf := date(2025, time.February, 1)
	run, err := engine.Run(ctx, asOf)
	require.NoError(t, err)

	assert.Zero(t, run.EmployeesAffected)
	assert.True(t, run.PointsRemoved.IsZero())
	assert.Empty(t, run.Audit)

	done, err := st.CompletedRunExistsForDay(ctx, asOf)
	require.NoError(t, err)
	assert.True(t, done, "an empty run still counts as the day's run")
}

func TestRolloffEngine_Run_SingleStepWithPerfectSkip(t *testing.T) {
	// GIVEN: Total 3.0, anchored Jan 15, so roll-off is due Apr 1 and the
	//        perfect milestone sits at May 1
	// WHEN: Running on Apr 1
	// THEN: One decrement comes off and the due date skips past the
	//       milestone to Aug 1; the deduction lands as one AUTO event

	engine, st := newTestEngine(t)
	ctx := context.Background()
	seedEmployee(t, st, 100, "Doe", "Jane")
	addPoint(t, st, 100, "01-10-2025", 1.5)
	addPoint(t, st, 100, "01-15-2025", 1.5)

	asOf := date(2025, time.April, 1)
	run, err := engine.Run(ctx, asOf)
	require.NoError(t, err)

	require.Equal(t, 1, run.EmployeesAffected)
	assert.Equal(t, "1.0", run.PointsRemoved.Display())
	require.Len(t, run.Audit, 1)
	assert.Equal(t, "1.0", run.Audit[0].Removed.Display())
	assert.Equal(t, "2.0", run.Audit[0].NewTotal.Display())

	emp := getEmployee(t, st, 100)
	assert.Equal(t, "2.0", emp.Total.Display())
	assert.True(t, emp.RolloffDue.Equal(date(2025, time.August, 1)), "due %s", emp.RolloffDue)
	assert.True(t, emp.LastInfraction.Equal(date(2025, time.January, 15)), "anchor never moves on deduction")
	assert.True(t, emp.PerfectDue.Equal(date(2025, time.May, 1)), "perfect date untouched by roll-off")

	events, err := st.EventsByEmployee(ctx, 100)
	require.NoError(t, err)
	require.Len(t, events, 3)
	deduction := events[2]
	assert.Equal(t, "-1.0", deduction.Magnitude.Display())
	assert.Equal(t, "Auto Rolloff Adjustment", deduction.Reason)
	assert.Equal(t, points.FlagAuto, deduction.FlagCode)
	assert.True(t, deduction.Date.Equal(asOf))
}

func TestRolloffEngine_Run_CatchUpAggregatesIntoOneEvent(t *testing.T) {
	// GIVEN: The same Jan 15 anchor, but the engine has not run for months
	// WHEN: Running on Sep 1
	// THEN: Two elapsed steps come off together (Apr 1 -> Aug 1 -> Nov 1)
	//       as a single aggregated -2.0 event

	engine, st := newTestEngine(t)
	ctx := context.Background()
	seedEmployee(t, st, 100, "Doe", "Jane")
	addPoint(t, st, 100, "01-10-2025", 1.5)
	addPoint(t, st, 100, "01-15-2025", 1.5)

	run, err := engine.Run(ctx, date(2025, time.September, 1))
	require.NoError(t, err)

	require.Equal(t, 1, run.EmployeesAffected)
	assert.Equal(t, "2.0", run.PointsRemoved.Display())

	emp := getEmployee(t, st, 100)
	assert.Equal(t, "1.0", emp.Total.Display())
	assert.True(t, emp.RolloffDue.Equal(date(2025, time.November, 1)), "due %s", emp.RolloffDue)

	events, err := st.EventsByEmployee(ctx, 100)
	require.NoError(t, err)
	require.Len(t, events, 3, "catch-up writes one aggregated event, not one per step")
	assert.Equal(t, "-2.0", events[2].Magnitude.Display())
}

func TestRolloffEngine_Run_FloorsAtZero(t *testing.T) {
	// GIVEN: Total 0.5 with the decrement at 1.0
	// WHEN: The roll-off lands
	// THEN: The total floors at zero; the audit still counts the whole
	//       decrement, matching the aggregated event

	engine, st := newTestEngine(t)
	ctx := context.Background()
	seedEmployee(t, st, 100, "Doe", "Jane")
	addPoint(t, st, 100, "01-15-2025", 0.5)

	run, err := engine.Run(ctx, date(2025, time.April, 1))
	require.NoError(t, err)

	require.Equal(t, 1, run.EmployeesAffected)
	assert.Equal(t, "1.0", run.PointsRemoved.Display())

	emp := getEmployee(t, st, 100)
	assert.True(t, emp.Total.IsZero(), "total floors at zero, never negative")

	events, err := st.EventsByEmployee(ctx, 100)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "-1.0", events[1].Magnitude.Display())
}

func TestRolloffEngine_Run_ZeroBalanceStillAdvancesDueDate(t *testing.T) {
	// GIVEN: A zero balance with an elapsed due date (all points already
	//        expired, the date left behind by an import)
	// WHEN: Running
	// THEN: No audit row and no event, but the due date moves past the
	//       run day so the employee is not perpetually overdue

	engine, st := newTestEngine(t)
	ctx := context.Background()
	seedEmployee(t, st, 100, "Doe", "Jane")
	require.NoError(t, st.SaveAggregate(ctx, 100, points.Aggregate{
		Total:      points.ZeroPoints(),
		RolloffDue: date(2025, time.April, 1),
	}))

	asOf := date(2025, time.April, 15)
	run, err := engine.Run(ctx, asOf)
	require.NoError(t, err)

	assert.Zero(t, run.EmployeesAffected)

	emp := getEmployee(t, st, 100)
	assert.True(t, emp.RolloffDue.After(asOf), "due %s must pass the run day", emp.RolloffDue)

	events, err := st.EventsByEmployee(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, events, "a due-only advance writes no history")
}

func TestRolloffEngine_Run_SecondRunSameDayIsNoOp(t *testing.T) {
	// Idempotence: the first run pushes every due date past the run day.

	engine, st := newTestEngine(t)
	ctx := context.Background()
	seedEmployee(t, st, 100, "Doe", "Jane")
	addPoint(t, st, 100, "01-15-2025", 1.5)

	asOf := date(2025, time.April, 1)
	first, err := engine.Run(ctx, asOf)
	require.NoError(t, err)
	require.Equal(t, 1, first.EmployeesAffected)

	second, err := engine.Run(ctx, asOf)
	require.NoError(t, err)
	assert.Zero(t, second.EmployeesAffected, "everything already rolled off today")
	assert.True(t, second.PointsRemoved.IsZero())
}

func TestRolloffEngine_Run_InactiveEmployeesStillRollOff(t *testing.T) {
	// Deactivation hides an employee from the dashboard; their points
	// still age out on schedule.

	engine, st := newTestEngine(t)
	ctx := context.Background()
	seedEmployee(t, st, 100, "Doe", "Jane")
	addPoint(t, st, 100, "01-15-2025", 1.0)
	require.NoError(t, st.SetEmployeeActive(ctx, 100, false))

	run, err := engine.Run(ctx, date(2025, time.April, 1))
	require.NoError(t, err)

	assert.Equal(t, 1, run.EmployeesAffected)
	emp := getEmployee(t, st, 100)
	assert.True(t, emp.Total.IsZero())
}

func TestRolloffEngine_Run_RecordsRunHistory(t *testing.T) {
	engine, st := newTestEngine(t)
	ctx := context.Background()
	seedEmployee(t, st, 100, "Doe", "Jane")
	addPoint(t, st, 100, "01-15-2025", 1.0)

	run, err := engine.Run(ctx, date(2025, time.April, 1))
	require.NoError(t, err)

	records, err := st.ListRolloffRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, run.ID, records[0].ID)
	assert.Equal(t, points.RunStatusCompleted, records[0].Status)
	assert.Equal(t, 1, records[0].EmployeesAffected)
	assert.Equal(t, "1.0", records[0].PointsRemoved.Display())
	assert.NotNil(t, records[0].StartedAt)
	assert.NotNil(t, records[0].CompletedAt)
}

// =============================================================================
// PERFECT ATTENDANCE PROCESSING
// =============================================================================

func TestProcessPerfectAttendance_AdvancesDueDates(t *testing.T) {
	// GIVEN: Two employees with milestones due, one with a future milestone
	// WHEN: Processing as of May 1
	// THEN: The due pair is returned ordered by name and advanced to the
	//       next milestone; the future one is untouched

	engine, st := newTestEngine(t)
	ctx := context.Background()
	dir := points.NewDirectory(st)
	require.NoError(t, dir.Create(ctx, 100, "Walker", "Sam", date(2025, time.May, 1)))
	require.NoError(t, dir.Create(ctx, 200, "Adams", "Ray", date(2025, time.April, 1)))
	require.NoError(t, dir.Create(ctx, 300, "Chen", "Lin", date(2025, time.December, 1)))

	rows, err := engine.ProcessPerfectAttendance(ctx, date(2025, time.May, 1), false)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "Adams", rows[0].LastName)
	assert.Equal(t, "Walker", rows[1].LastName)
	assert.True(t, rows[0].NextDue.Equal(date(2025, time.August, 1)), "next %s", rows[0].NextDue)
	assert.True(t, rows[1].NextDue.Equal(date(2025, time.September, 1)), "next %s", rows[1].NextDue)

	adams := getEmployee(t, st, 200)
	assert.True(t, adams.PerfectDue.Equal(date(2025, time.August, 1)))
	chen := getEmployee(t, st, 300)
	assert.True(t, chen.PerfectDue.Equal(date(2025, time.December, 1)), "future milestone untouched")
}

func TestProcessPerfectAttendance_DryRunPersistsNothing(t *testing.T) {
	engine, st := newTestEngine(t)
	ctx := context.Background()
	dir := points.NewDirectory(st)
	require.NoError(t, dir.Create(ctx, 100, "Doe", "Jane", date(2025, time.April, 1)))

	rows, err := engine.ProcessPerfectAttendance(ctx, date(2025, time.May, 1), true)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].NextDue.Equal(date(2025, time.August, 1)), "preview still shows the next milestone")

	emp := getEmployee(t, st, 100)
	assert.True(t, emp.PerfectDue.Equal(date(2025, time.April, 1)), "dry run leaves the date alone")
}

func TestProcessPerfectAttendance_NothingDue(t *testing.T) {
	engine, st := newTestEngine(t)
	ctx := context.Background()
	dir := points.NewDirectory(st)
	require.NoError(t, dir.Create(ctx, 100, "Doe", "Jane", date(2025, time.December, 1)))

	rows, err := engine.ProcessPerfectAttendance(ctx, date(2025, time.May, 1), false)
	require.NoError(t, err)
	assert.Empty(t, rows)

	emp := getEmployee(t, st, 100)
	assert.True(t, emp.PerfectDue.Equal(date(2025, time.December, 1)))
}
