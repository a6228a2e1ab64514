// Package store provides an in-memory Store implementation for tests
// and ephemeral runs.
package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/warp/points-engine/points"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	employees   map[points.EmployeeID]points.Employee
	events      map[points.EventID]points.PointEvent
	nextEventID points.EventID
	runs        map[string]points.RolloffRunRecord
}

func NewMemory() *Memory {
	return &Memory{
		employees:   make(map[points.EmployeeID]points.Employee),
		events:      make(map[points.EventID]points.PointEvent),
		nextEventID: 1,
		runs:        make(map[string]points.RolloffRunRecord),
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (m *Memory) CreateEmployee(_ context.Context, emp points.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createEmployeeLocked(emp)
}

func (m *Memory) createEmployeeLocked(emp points.Employee) error {
	if existing, ok := m.employees[emp.ID]; ok {
		return &points.DuplicateEmployeeError{
			ID: emp.ID, LastName: existing.LastName, FirstName: existing.FirstName,
		}
	}
	m.employees[emp.ID] = emp
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, id points.EmployeeID) (*points.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getEmployeeLocked(id)
}

func (m *Memory) getEmployeeLocked(id points.EmployeeID) (*points.Employee, error) {
	emp, ok := m.employees[id]
	if !ok {
		return nil, &points.UnknownEmployeeError{ID: id}
	}
	cp := emp
	return &cp, nil
}

func (m *Memory) ListEmployees(_ context.Context, activeOnly bool) ([]points.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listEmployeesLocked(activeOnly)
}

func (m *Memory) listEmployeesLocked(activeOnly bool) ([]points.Employee, error) {
	var out []points.Employee
	for _, emp := range m.employees {
		if activeOnly && !emp.Active {
			continue
		}
		out = append(out, emp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		li, lj := strings.ToLower(out[i].LastName), strings.ToLower(out[j].LastName)
		if li != lj {
			return li < lj
		}
		fi, fj := strings.ToLower(out[i].FirstName), strings.ToLower(out[j].FirstName)
		if fi != fj {
			return fi < fj
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Memory) UpdateEmployeeName(_ context.Context, id points.EmployeeID, lastName, firstName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateEmployeeNameLocked(id, lastName, firstName)
}

func (m *Memory) updateEmployeeNameLocked(id points.EmployeeID, lastName, firstName string) error {
	emp, ok := m.employees[id]
	if !ok {
		return &points.UnknownEmployeeError{ID: id}
	}
	emp.LastName = lastName
	emp.FirstName = firstName
	m.employees[id] = emp
	return nil
}

func (m *Memory) SetEmployeeActive(_ context.Context, id points.EmployeeID, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setEmployeeActiveLocked(id, active)
}

func (m *Memory) setEmployeeActiveLocked(id points.EmployeeID, active bool) error {
	emp, ok := m.employees[id]
	if !ok {
		return &points.UnknownEmployeeError{ID: id}
	}
	emp.Active = active
	m.employees[id] = emp
	return nil
}

func (m *Memory) SetWarningDate(_ context.Context, id points.EmployeeID, date points.PointDate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setWarningDateLocked(id, date)
}

func (m *Memory) setWarningDateLocked(id points.EmployeeID, date points.PointDate) error {
	emp, ok := m.employees[id]
	if !ok {
		return &points.UnknownEmployeeError{ID: id}
	}
	emp.WarningIssued = date
	m.employees[id] = emp
	return nil
}

func (m *Memory) SaveAggregate(_ context.Context, id points.EmployeeID, agg points.Aggregate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveAggregateLocked(id, agg)
}

func (m *Memory) saveAggregateLocked(id points.EmployeeID, agg points.Aggregate) error {
	emp, ok := m.employees[id]
	if !ok {
		return &points.UnknownEmployeeError{ID: id}
	}
	emp.Total = agg.Total
	emp.LastInfraction = agg.LastInfraction
	emp.RolloffDue = agg.RolloffDue
	emp.PerfectDue = agg.PerfectDue
	m.employees[id] = emp
	return nil
}

func (m *Memory) DeleteEmployee(_ context.Context, id points.EmployeeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteEmployeeLocked(id)
}

func (m *Memory) deleteEmployeeLocked(id points.EmployeeID) error {
	if _, ok := m.employees[id]; !ok {
		return &points.UnknownEmployeeError{ID: id}
	}
	delete(m.employees, id)
	for evID, ev := range m.events {
		if ev.EmployeeID == id {
			delete(m.events, evID)
		}
	}
	return nil
}

// =============================================================================
// EVENTS
// =============================================================================

func (m *Memory) InsertEvent(_ context.Context, ev points.PointEvent) (points.EventID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertEventLocked(ev)
}

func (m *Memory) insertEventLocked(ev points.PointEvent) (points.EventID, error) {
	if _, ok := m.employees[ev.EmployeeID]; !ok {
		return 0, &points.UnknownEmployeeError{ID: ev.EmployeeID}
	}
	ev.ID = m.nextEventID
	m.nextEventID++
	m.events[ev.ID] = ev
	return ev.ID, nil
}

func (m *Memory) GetEvent(_ context.Context, id points.EventID) (*points.PointEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getEventLocked(id)
}

func (m *Memory) getEventLocked(id points.EventID) (*points.PointEvent, error) {
	ev, ok := m.events[id]
	if !ok {
		return nil, fmt.Errorf("point event #%d: %w", id, points.ErrEventNotFound)
	}
	cp := ev
	return &cp, nil
}

func (m *Memory) DeleteEvent(_ context.Context, id points.EventID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteEventLocked(id)
}

func (m *Memory) deleteEventLocked(id points.EventID) error {
	if _, ok := m.events[id]; !ok {
		return fmt.Errorf("point event #%d: %w", id, points.ErrEventNotFound)
	}
	delete(m.events, id)
	return nil
}

func (m *Memory) EventsByEmployee(_ context.Context, id points.EmployeeID) ([]points.PointEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.eventsByEmployeeLocked(id)
}

func (m *Memory) eventsByEmployeeLocked(id points.EmployeeID) ([]points.PointEvent, error) {
	var out []points.PointEvent
	for _, ev := range m.events {
		if ev.EmployeeID == id {
			out = append(out, ev)
		}
	}
	sortEvents(out)
	return out, nil
}

func (m *Memory) AllEvents(_ context.Context) ([]points.PointEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.allEventsLocked()
}

func (m *Memory) allEventsLocked() ([]points.PointEvent, error) {
	out := make([]points.PointEvent, 0, len(m.events))
	for _, ev := range m.events {
		out = append(out, ev)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].EmployeeID != out[j].EmployeeID {
			return out[i].EmployeeID < out[j].EmployeeID
		}
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// sortEvents orders by (point date ASC, id ASC), keeping "most recent"
// well-defined when dates tie.
func sortEvents(events []points.PointEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		return events[i].ID < events[j].ID
	})
}

func (m *Memory) DistinctReasons(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.distinctReasonsLocked()
}

func (m *Memory) distinctReasonsLocked() ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, ev := range m.events {
		r := strings.TrimSpace(ev.Reason)
		if r == "" || seen[ev.Reason] {
			continue
		}
		seen[ev.Reason] = true
		out = append(out, ev.Reason)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out, nil
}

// =============================================================================
// ROLL-OFF RUNS
// =============================================================================

func (m *Memory) SaveRolloffRun(_ context.Context, run points.RolloffRunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveRolloffRunLocked(run)
}

func (m *Memory) saveRolloffRunLocked(run points.RolloffRunRecord) error {
	m.runs[run.ID] = run
	return nil
}

func (m *Memory) CompletedRunExistsForDay(_ context.Context, day points.PointDate) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.completedRunExistsForDayLocked(day)
}

func (m *Memory) completedRunExistsForDayLocked(day points.PointDate) (bool, error) {
	for _, run := range m.runs {
		if run.Status == points.RunStatusCompleted && run.RunDate.Equal(day) {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) ListRolloffRuns(_ context.Context, limit int) ([]points.RolloffRunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listRolloffRunsLocked(limit)
}

func (m *Memory) listRolloffRunsLocked(limit int) ([]points.RolloffRunRecord, error) {
	out := make([]points.RolloffRunRecord, 0, len(m.runs))
	for _, run := range m.runs {
		out = append(out, run)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return started(out[i]).After(started(out[j]))
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func started(run points.RolloffRunRecord) time.Time {
	if run.StartedAt != nil {
		return *run.StartedAt
	}
	return time.Time{}
}

// =============================================================================
// TRANSACTIONS - snapshot and restore
// =============================================================================

// WithTx executes fn against a view of the store. On error the snapshot
// taken at entry is restored, so multi-step mutations are all-or-nothing
// just like the SQLite store.
func (m *Memory) WithTx(_ context.Context, fn func(points.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	view := &txMemoryView{parent: m}
	if err := fn(view); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memorySnapshot struct {
	employees   map[points.EmployeeID]points.Employee
	events      map[points.EventID]points.PointEvent
	nextEventID points.EventID
	runs        map[string]points.RolloffRunRecord
}

func (m *Memory) snapshot() memorySnapshot {
	employees := make(map[points.EmployeeID]points.Employee, len(m.employees))
	for k, v := range m.employees {
		employees[k] = v
	}
	events := make(map[points.EventID]points.PointEvent, len(m.events))
	for k, v := range m.events {
		events[k] = v
	}
	runs := make(map[string]points.RolloffRunRecord, len(m.runs))
	for k, v := range m.runs {
		runs[k] = v
	}
	return memorySnapshot{
		employees:   employees,
		events:      events,
		nextEventID: m.nextEventID,
		runs:        runs,
	}
}

func (m *Memory) restore(s memorySnapshot) {
	m.employees = s.employees
	m.events = s.events
	m.nextEventID = s.nextEventID
	m.runs = s.runs
}

// txMemoryView runs against the parent while the parent's lock is held.
type txMemoryView struct {
	parent *Memory
}

func (tv *txMemoryView) CreateEmployee(_ context.Context, emp points.Employee) error {
	return tv.parent.createEmployeeLocked(emp)
}

func (tv *txMemoryView) GetEmployee(_ context.Context, id points.EmployeeID) (*points.Employee, error) {
	return tv.parent.getEmployeeLocked(id)
}

func (tv *txMemoryView) ListEmployees(_ context.Context, activeOnly bool) ([]points.Employee, error) {
	return tv.parent.listEmployeesLocked(activeOnly)
}

func (tv *txMemoryView) UpdateEmployeeName(_ context.Context, id points.EmployeeID, lastName, firstName string) error {
	return tv.parent.updateEmployeeNameLocked(id, lastName, firstName)
}

func (tv *txMemoryView) SetEmployeeActive(_ context.Context, id points.EmployeeID, active bool) error {
	return tv.parent.setEmployeeActiveLocked(id, active)
}

func (tv *txMemoryView) SetWarningDate(_ context.Context, id points.EmployeeID, date points.PointDate) error {
	return tv.parent.setWarningDateLocked(id, date)
}

func (tv *txMemoryView) SaveAggregate(_ context.Context, id points.EmployeeID, agg points.Aggregate) error {
	return tv.parent.saveAggregateLocked(id, agg)
}

func (tv *txMemoryView) DeleteEmployee(_ context.Context, id points.EmployeeID) error {
	return tv.parent.deleteEmployeeLocked(id)
}

func (tv *txMemoryView) InsertEvent(_ context.Context, ev points.PointEvent) (points.EventID, error) {
	return tv.parent.insertEventLocked(ev)
}

func (tv *txMemoryView) GetEvent(_ context.Context, id points.EventID) (*points.PointEvent, error) {
	return tv.parent.getEventLocked(id)
}

func (tv *txMemoryView) DeleteEvent(_ context.Context, id points.EventID) error {
	return tv.parent.deleteEventLocked(id)
}

func (tv *txMemoryView) EventsByEmployee(_ context.Context, id points.EmployeeID) ([]points.PointEvent, error) {
	return tv.parent.eventsByEmployeeLocked(id)
}

func (tv *txMemoryView) AllEvents(_ context.Context) ([]points.PointEvent, error) {
	return tv.parent.allEventsLocked()
}

func (tv *txMemoryView) DistinctReasons(_ context.Context) ([]string, error) {
	return tv.parent.distinctReasonsLocked()
}

func (tv *txMemoryView) SaveRolloffRun(_ context.Context, run points.RolloffRunRecord) error {
	return tv.parent.saveRolloffRunLocked(run)
}

func (tv *txMemoryView) CompletedRunExistsForDay(_ context.Context, day points.PointDate) (bool, error) {
	return tv.parent.completedRunExistsForDayLocked(day)
}

func (tv *txMemoryView) ListRolloffRuns(_ context.Context, limit int) ([]points.RolloffRunRecord, error) {
	return tv.parent.listRolloffRunsLocked(limit)
}

// WithTx on a view stays in the enclosing transaction.
func (tv *txMemoryView) WithTx(_ context.Context, fn func(points.Store) error) error {
	return fn(tv)
}
