/*
roster.go - Bulk roster import and export

PURPOSE:
  Loads an employee roster from externally prepared rows (one per
  employee: id, names, total, anchor and due dates) and exports the
  directory in the same shape. Each row is validated independently;
  invalid rows are skipped and counted rather than failing the batch.
  The whole import commits in one transaction.

ROW RULES:
  - employee id: required, positive integer
  - last/first name: required
  - point total: optional decimal, defaults to 0
  - dates: optional, display or ISO form; an unparseable date skips
    the row rather than guessing
  - an existing id is overwritten only when the caller asks for it,
    otherwise skipped

File parsing and formatting stay with the caller; this package sees
rows, not CSV.
*/
package points

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// ROSTER ROWS
// =============================================================================

// RosterRow is one employee line as it crosses the import/export
// boundary, all fields still text.
type RosterRow struct {
	EmployeeID string
	LastName   string
	FirstName  string
	Total      string
	LastPoint  string
	Rolloff    string
	Perfect    string
}

// RosterColumns is the column order rows travel in.
var RosterColumns = []string{
	"employee_id", "last_name", "first_name", "point_total",
	"last_point_date", "rolloff_date", "perfect_attendance_date",
}

// ImportResult counts what happened to each row.
type ImportResult struct {
	Added       int
	Overwritten int
	Skipped     int
	Errors      []string // one line per skipped row, for the caller to show
}

// =============================================================================
// IMPORT
// =============================================================================

// ImportRoster validates and applies rows. overwrite controls whether an
// existing employee ID is replaced (names and aggregate fields) or the
// row is skipped. Everything applied commits in one transaction; skipped
// rows never abort the batch.
func ImportRoster(ctx context.Context, st Store, rows []RosterRow, overwrite bool) (ImportResult, error) {
	var res ImportResult

	type parsedRow struct {
		emp    Employee
		exists bool
	}
	var apply []parsedRow

	for i, row := range rows {
		emp, err := parseRosterRow(row)
		if err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		existing, err := st.GetEmployee(ctx, emp.ID)
		if err != nil && !IsNotFound(err) {
			return res, err
		}
		if existing != nil {
			if !overwrite {
				res.Skipped++
				res.Errors = append(res.Errors, fmt.Sprintf("row %d: employee #%d already exists", i+1, emp.ID))
				continue
			}
			emp.Active = existing.Active
			emp.WarningIssued = existing.WarningIssued
			apply = append(apply, parsedRow{emp: emp, exists: true})
			continue
		}
		apply = append(apply, parsedRow{emp: emp})
	}

	if len(apply) == 0 {
		return res, nil
	}

	err := st.WithTx(ctx, func(tx Store) error {
		for _, p := range apply {
			if p.exists {
				if err := tx.UpdateEmployeeName(ctx, p.emp.ID, p.emp.LastName, p.emp.FirstName); err != nil {
					return err
				}
				agg := Aggregate{
					Total:          p.emp.Total,
					LastInfraction: p.emp.LastInfraction,
					RolloffDue:     p.emp.RolloffDue,
					PerfectDue:     p.emp.PerfectDue,
				}
				if err := tx.SaveAggregate(ctx, p.emp.ID, agg); err != nil {
					return err
				}
				continue
			}
			if err := tx.CreateEmployee(ctx, p.emp); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	for _, p := range apply {
		if p.exists {
			res.Overwritten++
		} else {
			res.Added++
		}
	}
	return res, nil
}

func parseRosterRow(row RosterRow) (Employee, error) {
	idRaw := strings.TrimSpace(row.EmployeeID)
	id, err := strconv.ParseInt(idRaw, 10, 64)
	if err != nil || id <= 0 {
		return Employee{}, fmt.Errorf("bad employee id %q", idRaw)
	}

	last := strings.TrimSpace(row.LastName)
	first := strings.TrimSpace(row.FirstName)
	if last == "" || first == "" {
		return Employee{}, fmt.Errorf("missing name for employee #%d", id)
	}

	total := ZeroPoints()
	if t := strings.TrimSpace(row.Total); t != "" {
		total, err = ParsePoints(t)
		if err != nil {
			return Employee{}, fmt.Errorf("bad point total %q", t)
		}
	}

	lastPoint, err := optionalDate(row.LastPoint)
	if err != nil {
		return Employee{}, fmt.Errorf("bad last point date %q", row.LastPoint)
	}
	rolloff, err := optionalDate(row.Rolloff)
	if err != nil {
		return Employee{}, fmt.Errorf("bad rolloff date %q", row.Rolloff)
	}
	perfect, err := optionalDate(row.Perfect)
	if err != nil {
		return Employee{}, fmt.Errorf("bad perfect attendance date %q", row.Perfect)
	}

	return Employee{
		ID:             EmployeeID(id),
		LastName:       last,
		FirstName:      first,
		Active:         true,
		Total:          total,
		LastInfraction: lastPoint,
		RolloffDue:     rolloff,
		PerfectDue:     perfect,
	}, nil
}

func optionalDate(s string) (PointDate, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return PointDate{}, nil
	}
	return ParseInput(s)
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportRoster renders the full directory in import column order, dates
// in the display form.
func ExportRoster(ctx context.Context, st Store) ([]RosterRow, error) {
	employees, err := st.ListEmployees(ctx, false)
	if err != nil {
		return nil, err
	}
	rows := make([]RosterRow, 0, len(employees))
	for _, emp := range employees {
		rows = append(rows, RosterRow{
			EmployeeID: emp.ID.String(),
			LastName:   emp.LastName,
			FirstName:  emp.FirstName,
			Total:      emp.Total.Display(),
			LastPoint:  emp.LastInfraction.Display(),
			Rolloff:    emp.RolloffDue.Display(),
			Perfect:    emp.PerfectDue.Display(),
		})
	}
	return rows, nil
}
