/*
reports.go - Report row builders

PURPOSE:
  Assembles the rows behind every export and dashboard view: upcoming
  roll-offs, upcoming perfect-attendance dates, the full point history
  with per-employee running totals, and the risk dashboard. Rows only -
  file formatting belongs to the caller.

SEE ALSO:
  - engine.go: The roll-off run's own audit rows
  - policy.go: Status classification used by the dashboard
*/
package points

import (
	"context"
	"sort"
	"strings"
)

// =============================================================================
// REPORTER
// =============================================================================

type Reporter struct {
	Store  Store
	Policy Policy
}

func NewReporter(store Store, policy Policy) *Reporter {
	return &Reporter{Store: store, Policy: policy}
}

// UpcomingRow is one employee with a future due date.
type UpcomingRow struct {
	EmployeeID EmployeeID
	LastName   string
	FirstName  string
	Due        PointDate
	Total      Points
}

// HistoryRow is one ledger event joined with the employee's name and the
// running total after that event.
type HistoryRow struct {
	EventID      EventID
	EmployeeID   EmployeeID
	LastName     string
	FirstName    string
	Date         PointDate
	Magnitude    Points
	Reason       string
	Note         string
	FlagCode     string
	RunningTotal Points
}

// DashboardRow is one employee's standing on the risk board.
type DashboardRow struct {
	EmployeeID     EmployeeID
	LastName       string
	FirstName      string
	Total          Points
	Status         Status
	LastInfraction PointDate
	RolloffDue     PointDate
	PerfectDue     PointDate
	WarningIssued  PointDate
}

// UpcomingRolloffs returns employees whose roll-off date is on or after
// asOf, ordered by due date then name.
func (r *Reporter) UpcomingRolloffs(ctx context.Context, asOf PointDate) ([]UpcomingRow, error) {
	return r.upcoming(ctx, asOf, func(e Employee) PointDate { return e.RolloffDue })
}

// UpcomingPerfect returns employees whose perfect-attendance date is on
// or after asOf, same shape and order.
func (r *Reporter) UpcomingPerfect(ctx context.Context, asOf PointDate) ([]UpcomingRow, error) {
	return r.upcoming(ctx, asOf, func(e Employee) PointDate { return e.PerfectDue })
}

func (r *Reporter) upcoming(ctx context.Context, asOf PointDate, due func(Employee) PointDate) ([]UpcomingRow, error) {
	employees, err := r.Store.ListEmployees(ctx, false)
	if err != nil {
		return nil, err
	}
	var rows []UpcomingRow
	for _, emp := range employees {
		d := due(emp)
		if d.IsZero() || d.Before(asOf) {
			continue
		}
		rows = append(rows, UpcomingRow{
			EmployeeID: emp.ID,
			LastName:   emp.LastName,
			FirstName:  emp.FirstName,
			Due:        d,
			Total:      emp.Total,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Due.Equal(rows[j].Due) {
			return rows[i].Due.Before(rows[j].Due)
		}
		if rows[i].LastName != rows[j].LastName {
			return rows[i].LastName < rows[j].LastName
		}
		return rows[i].FirstName < rows[j].FirstName
	})
	return rows, nil
}

// PointHistory returns every event ordered by (employee, date, entry),
// each row carrying the employee's cumulative total up to and including
// that event.
func (r *Reporter) PointHistory(ctx context.Context) ([]HistoryRow, error) {
	events, err := r.Store.AllEvents(ctx)
	if err != nil {
		return nil, err
	}
	employees, err := r.Store.ListEmployees(ctx, false)
	if err != nil {
		return nil, err
	}
	names := make(map[EmployeeID]Employee, len(employees))
	for _, emp := range employees {
		names[emp.ID] = emp
	}

	running := make(map[EmployeeID]Points)
	rows := make([]HistoryRow, 0, len(events))
	for _, ev := range events {
		sum, ok := running[ev.EmployeeID]
		if !ok {
			sum = ZeroPoints()
		}
		sum = sum.Add(ev.Magnitude)
		running[ev.EmployeeID] = sum

		emp := names[ev.EmployeeID]
		rows = append(rows, HistoryRow{
			EventID:      ev.ID,
			EmployeeID:   ev.EmployeeID,
			LastName:     emp.LastName,
			FirstName:    emp.FirstName,
			Date:         ev.Date,
			Magnitude:    ev.Magnitude,
			Reason:       ev.Reason,
			Note:         ev.Note,
			FlagCode:     ev.FlagCode,
			RunningTotal: sum,
		})
	}
	return rows, nil
}

// Dashboard returns the risk board: active employees with their totals
// classified against the policy bands, ordered by name.
func (r *Reporter) Dashboard(ctx context.Context) ([]DashboardRow, error) {
	employees, err := r.Store.ListEmployees(ctx, true)
	if err != nil {
		return nil, err
	}
	rows := make([]DashboardRow, 0, len(employees))
	for _, emp := range employees {
		rows = append(rows, DashboardRow{
			EmployeeID:     emp.ID,
			LastName:       emp.LastName,
			FirstName:      emp.FirstName,
			Total:          emp.Total,
			Status:         r.Policy.StatusFor(emp.Total),
			LastInfraction: emp.LastInfraction,
			RolloffDue:     emp.RolloffDue,
			PerfectDue:     emp.PerfectDue,
			WarningIssued:  emp.WarningIssued,
		})
	}
	return rows, nil
}

// EmployeeHistory returns one employee's events newest first, the order
// the point-management view lists them.
func (r *Reporter) EmployeeHistory(ctx context.Context, id EmployeeID) ([]PointEvent, error) {
	events, err := r.Store.EventsByEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	// Stored order is (date ASC, id ASC); the view wants the reverse.
	out := make([]PointEvent, len(events))
	for i, ev := range events {
		out[len(events)-1-i] = ev
	}
	return out, nil
}

// SearchEmployees filters the directory by a case-insensitive substring
// of the ID, last name, or first name.
func (r *Reporter) SearchEmployees(ctx context.Context, query string) ([]Employee, error) {
	employees, err := r.Store.ListEmployees(ctx, false)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return employees, nil
	}
	var out []Employee
	for _, emp := range employees {
		if strings.Contains(strings.ToLower(emp.LastName), q) ||
			strings.Contains(strings.ToLower(emp.FirstName), q) ||
			strings.Contains(emp.ID.String(), q) {
			out = append(out, emp)
		}
	}
	return out, nil
}
