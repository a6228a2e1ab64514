package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/points-engine/points"
	"github.com/warp/points-engine/points/store"
)

var _ points.Store = (*store.Memory)(nil)

func employee(id points.EmployeeID, last, first string) points.Employee {
	return points.Employee{
		ID:        id,
		LastName:  last,
		FirstName: first,
		Total:     points.ZeroPoints(),
		Active:    true,
	}
}

// =============================================================================
// TRANSACTIONS - snapshot and restore
// =============================================================================

func TestMemory_WithTxRollsBackEverything(t *testing.T) {
	// GIVEN: A transaction that creates, mutates, and inserts
	// WHEN: The callback fails at the end
	// THEN: The store is byte-for-byte back where it started,
	//       including the event ID counter

	m := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, m.CreateEmployee(ctx, employee(100, "Doe", "Jane")))
	boom := errors.New("boom")

	err := m.WithTx(ctx, func(tx points.Store) error {
		if err := tx.CreateEmployee(ctx, employee(200, "Smith", "Alex")); err != nil {
			return err
		}
		if err := tx.SetEmployeeActive(ctx, 100, false); err != nil {
			return err
		}
		if _, err := tx.InsertEvent(ctx, points.PointEvent{
			EmployeeID: 100,
			Date:       points.NewPointDate(2025, time.January, 15),
			Magnitude:  points.NewPoints(1.0),
			Reason:     "Absence",
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = m.GetEmployee(ctx, 200)
	assert.ErrorIs(t, err, points.ErrUnknownEmployee)
	emp, err := m.GetEmployee(ctx, 100)
	require.NoError(t, err)
	assert.True(t, emp.Active)
	events, err := m.EventsByEmployee(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, events)

	// The rolled-back insert must not burn an event ID.
	id, err := m.InsertEvent(ctx, points.PointEvent{
		EmployeeID: 100,
		Date:       points.NewPointDate(2025, time.January, 15),
		Magnitude:  points.NewPoints(1.0),
		Reason:     "Absence",
	})
	require.NoError(t, err)
	assert.Equal(t, points.EventID(1), id)
}

func TestMemory_WithTxCommitsOnSuccess(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	err := m.WithTx(ctx, func(tx points.Store) error {
		return tx.CreateEmployee(ctx, employee(100, "Doe", "Jane"))
	})
	require.NoError(t, err)

	_, err = m.GetEmployee(ctx, 100)
	assert.NoError(t, err)
}

func TestMemory_NestedWithTxJoins(t *testing.T) {
	// An inner WithTx joins the outer one: the outer failure still
	// unwinds the inner write.

	m := store.NewMemory()
	ctx := context.Background()
	boom := errors.New("boom")

	err := m.WithTx(ctx, func(tx points.Store) error {
		if err := tx.WithTx(ctx, func(inner points.Store) error {
			return inner.CreateEmployee(ctx, employee(100, "Doe", "Jane"))
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = m.GetEmployee(ctx, 100)
	assert.ErrorIs(t, err, points.ErrUnknownEmployee)
}

// =============================================================================
// ROLL-OFF RUN LISTING
// =============================================================================

func TestMemory_ListRolloffRunsNewestFirst(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	base := time.Date(2025, time.April, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		startedAt := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, m.SaveRolloffRun(ctx, points.RolloffRunRecord{
			ID:        id,
			RunDate:   points.NewPointDate(2025, time.April, 1),
			Status:    points.RunStatusCompleted,
			StartedAt: &startedAt,
		}))
	}

	runs, err := m.ListRolloffRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-c", runs[0].ID)
	assert.Equal(t, "run-b", runs[1].ID)

	runs, err = m.ListRolloffRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}
