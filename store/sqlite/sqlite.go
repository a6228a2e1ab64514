/*
Package sqlite provides the SQLite-backed implementation of points.Store.

PURPOSE:
  Persists the employee directory, the append-only point event history,
  and roll-off run records in a single SQLite file. This is the
  production backend; points/store provides the in-memory twin for tests.

KEY TABLES:
  employees:      Directory record plus the cached aggregate columns
                  (point_total, last_point_date, rolloff_date,
                  perfect_attendance). The aggregate is written only
                  through SaveAggregate - callers compute it.
  points_history: Append-only event ledger. Rows are inserted or
                  deleted, never updated.
  rolloff_runs:   One record per roll-off engine run, used by the
                  scheduler's once-per-day guard.

DATA ENCODING:
  Dates are stored as ISO YYYY-MM-DD text (NULL when absent) and point
  quantities as decimal text, so values survive round-trips without
  float drift and the file stays inspectable with the sqlite3 shell.

APPEND-ONLY ENFORCEMENT:
  No UPDATE statements touch points_history. Corrections happen by
  deleting an event and recomputing, or by inserting a compensating
  negative entry.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. Helpers take a dbtx (either the
  *sql.DB or an open *sql.Tx) so transactional code reuses them without
  re-acquiring the lock WithTx already holds.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) and foreign keys on;
  ON DELETE CASCADE keeps history consistent with hard employee deletes.

USAGE:
  store, err := sqlite.New("./attendance_MASTER.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  ledger := points.NewLedger(store, points.DefaultPolicy())

MIGRATION:
  Schema is auto-migrated on New(). Databases created before the active
  flag existed get the is_active column added in place.

SEE ALSO:
  - points/store.go: Interface definition and contracts
  - points/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/points-engine/points"
)

// Store implements points.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Employee directory plus cached aggregate columns
	CREATE TABLE IF NOT EXISTS employees (
		employee_id INTEGER PRIMARY KEY,
		last_name TEXT NOT NULL,
		first_name TEXT NOT NULL,
		point_total TEXT NOT NULL DEFAULT '0',
		last_point_date TEXT,
		rolloff_date TEXT,
		perfect_attendance TEXT,
		point_warning_date TEXT,
		is_active INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_employees_name
		ON employees(last_name, first_name);

	-- Point events (append-only ledger)
	CREATE TABLE IF NOT EXISTS points_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		employee_id INTEGER NOT NULL,
		point_date TEXT NOT NULL,
		points TEXT NOT NULL,
		reason TEXT NOT NULL,
		note TEXT,
		flag_code TEXT,
		FOREIGN KEY (employee_id) REFERENCES employees(employee_id) ON DELETE CASCADE
	);

	-- Per-employee history reads (hot path: aggregate recompute)
	CREATE INDEX IF NOT EXISTS idx_history_employee_date
		ON points_history(employee_id, point_date);
	CREATE INDEX IF NOT EXISTS idx_history_date
		ON points_history(point_date);

	-- Roll-off engine runs
	CREATE TABLE IF NOT EXISTS rolloff_runs (
		id TEXT PRIMARY KEY,
		run_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'running',
		employees_affected INTEGER NOT NULL DEFAULT 0,
		points_removed TEXT NOT NULL DEFAULT '0',
		error TEXT,
		started_at TEXT,
		completed_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_rolloff_runs_date
		ON rolloff_runs(run_date);
	CREATE INDEX IF NOT EXISTS idx_rolloff_runs_status
		ON rolloff_runs(status);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return s.ensureActiveColumn()
}

// ensureActiveColumn adds is_active to databases created before the
// directory supported deactivation.
func (s *Store) ensureActiveColumn() error {
	rows, err := s.db.Query("PRAGMA table_info(employees)")
	if err != nil {
		return err
	}
	defer rows.Close()

	found := false
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			dflt       sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &primaryKey); err != nil {
			return err
		}
		if name == "is_active" {
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if found {
		return nil
	}

	_, err = s.db.Exec("ALTER TABLE employees ADD COLUMN is_active INTEGER NOT NULL DEFAULT 1")
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx, so every query helper
// works inside and outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// EMPLOYEES
// =============================================================================

const employeeColumns = `employee_id, last_name, first_name, point_total,
	last_point_date, rolloff_date, perfect_attendance, point_warning_date, is_active`

func (s *Store) CreateEmployee(ctx context.Context, emp points.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createEmployee(ctx, s.db, emp)
}

func (s *Store) createEmployee(ctx context.Context, q dbtx, emp points.Employee) error {
	var lastName, firstName string
	err := q.QueryRowContext(ctx,
		"SELECT last_name, first_name FROM employees WHERE employee_id = ?",
		int64(emp.ID),
	).Scan(&lastName, &firstName)
	if err == nil {
		return &points.DuplicateEmployeeError{ID: emp.ID, LastName: lastName, FirstName: firstName}
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("failed to check employee: %w", err)
	}

	query := `
		INSERT INTO employees
		(employee_id, last_name, first_name, point_total, last_point_date,
		 rolloff_date, perfect_attendance, point_warning_date, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = q.ExecContext(ctx, query,
		int64(emp.ID),
		emp.LastName,
		emp.FirstName,
		emp.Total.String(),
		dateArg(emp.LastInfraction),
		dateArg(emp.RolloffDue),
		dateArg(emp.PerfectDue),
		dateArg(emp.WarningIssued),
		emp.Active,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return &points.DuplicateEmployeeError{ID: emp.ID}
		}
		return fmt.Errorf("failed to insert employee: %w", err)
	}
	return nil
}

func (s *Store) GetEmployee(ctx context.Context, id points.EmployeeID) (*points.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getEmployee(ctx, s.db, id)
}

func (s *Store) getEmployee(ctx context.Context, q dbtx, id points.EmployeeID) (*points.Employee, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE employee_id = ?",
		int64(id),
	)

	emp, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, &points.UnknownEmployeeError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}
	return emp, nil
}

func (s *Store) ListEmployees(ctx context.Context, activeOnly bool) ([]points.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listEmployees(ctx, s.db, activeOnly)
}

func (s *Store) listEmployees(ctx context.Context, q dbtx, activeOnly bool) ([]points.Employee, error) {
	query := "SELECT " + employeeColumns + " FROM employees"
	if activeOnly {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY last_name COLLATE NOCASE, first_name COLLATE NOCASE, employee_id"

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []points.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *emp)
	}
	return employees, rows.Err()
}

func (s *Store) UpdateEmployeeName(ctx context.Context, id points.EmployeeID, lastName, firstName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateEmployeeName(ctx, s.db, id, lastName, firstName)
}

func (s *Store) updateEmployeeName(ctx context.Context, q dbtx, id points.EmployeeID, lastName, firstName string) error {
	res, err := q.ExecContext(ctx,
		"UPDATE employees SET last_name = ?, first_name = ? WHERE employee_id = ?",
		lastName, firstName, int64(id),
	)
	if err != nil {
		return fmt.Errorf("failed to update employee name: %w", err)
	}
	return employeeUpdated(res, id)
}

func (s *Store) SetEmployeeActive(ctx context.Context, id points.EmployeeID, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setEmployeeActive(ctx, s.db, id, active)
}

func (s *Store) setEmployeeActive(ctx context.Context, q dbtx, id points.EmployeeID, active bool) error {
	res, err := q.ExecContext(ctx,
		"UPDATE employees SET is_active = ? WHERE employee_id = ?",
		active, int64(id),
	)
	if err != nil {
		return fmt.Errorf("failed to update active flag: %w", err)
	}
	return employeeUpdated(res, id)
}

func (s *Store) SetWarningDate(ctx context.Context, id points.EmployeeID, date points.PointDate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setWarningDate(ctx, s.db, id, date)
}

func (s *Store) setWarningDate(ctx context.Context, q dbtx, id points.EmployeeID, date points.PointDate) error {
	res, err := q.ExecContext(ctx,
		"UPDATE employees SET point_warning_date = ? WHERE employee_id = ?",
		dateArg(date), int64(id),
	)
	if err != nil {
		return fmt.Errorf("failed to update warning date: %w", err)
	}
	return employeeUpdated(res, id)
}

func (s *Store) SaveAggregate(ctx context.Context, id points.EmployeeID, agg points.Aggregate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveAggregate(ctx, s.db, id, agg)
}

func (s *Store) saveAggregate(ctx context.Context, q dbtx, id points.EmployeeID, agg points.Aggregate) error {
	query := `
		UPDATE employees
		SET point_total = ?, last_point_date = ?, rolloff_date = ?, perfect_attendance = ?
		WHERE employee_id = ?
	`

	res, err := q.ExecContext(ctx, query,
		agg.Total.String(),
		dateArg(agg.LastInfraction),
		dateArg(agg.RolloffDue),
		dateArg(agg.PerfectDue),
		int64(id),
	)
	if err != nil {
		return fmt.Errorf("failed to save aggregate: %w", err)
	}
	return employeeUpdated(res, id)
}

// DeleteEmployee hard-deletes the record; ON DELETE CASCADE removes the
// employee's history rows in the same statement.
func (s *Store) DeleteEmployee(ctx context.Context, id points.EmployeeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteEmployee(ctx, s.db, id)
}

func (s *Store) deleteEmployee(ctx context.Context, q dbtx, id points.EmployeeID) error {
	res, err := q.ExecContext(ctx, "DELETE FROM employees WHERE employee_id = ?", int64(id))
	if err != nil {
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	return employeeUpdated(res, id)
}

func employeeUpdated(res sql.Result, id points.EmployeeID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &points.UnknownEmployeeError{ID: id}
	}
	return nil
}

func scanEmployee(row interface{ Scan(dest ...any) error }) (*points.Employee, error) {
	var (
		emp       points.Employee
		total     string
		lastPoint sql.NullString
		rolloff   sql.NullString
		perfect   sql.NullString
		warning   sql.NullString
	)

	err := row.Scan(
		&emp.ID, &emp.LastName, &emp.FirstName, &total,
		&lastPoint, &rolloff, &perfect, &warning, &emp.Active,
	)
	if err != nil {
		return nil, err
	}

	emp.Total = points.Points{Value: points.MustParseDecimal(total)}
	emp.LastInfraction = scanDate(lastPoint)
	emp.RolloffDue = scanDate(rolloff)
	emp.PerfectDue = scanDate(perfect)
	emp.WarningIssued = scanDate(warning)
	return &emp, nil
}

// =============================================================================
// POINT EVENTS
// =============================================================================

const eventColumns = "id, employee_id, point_date, points, reason, note, flag_code"

func (s *Store) InsertEvent(ctx context.Context, ev points.PointEvent) (points.EventID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertEvent(ctx, s.db, ev)
}

func (s *Store) insertEvent(ctx context.Context, q dbtx, ev points.PointEvent) (points.EventID, error) {
	query := `
		INSERT INTO points_history (employee_id, point_date, points, reason, note, flag_code)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	res, err := q.ExecContext(ctx, query,
		int64(ev.EmployeeID),
		ev.Date.String(),
		ev.Magnitude.String(),
		ev.Reason,
		nullString(ev.Note),
		nullString(ev.FlagCode),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return 0, &points.UnknownEmployeeError{ID: ev.EmployeeID}
		}
		return 0, fmt.Errorf("failed to insert point event: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read event id: %w", err)
	}
	return points.EventID(id), nil
}

func (s *Store) GetEvent(ctx context.Context, id points.EventID) (*points.PointEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getEvent(ctx, s.db, id)
}

func (s *Store) getEvent(ctx context.Context, q dbtx, id points.EventID) (*points.PointEvent, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM points_history WHERE id = ?",
		int64(id),
	)

	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("point event #%d: %w", id, points.ErrEventNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load point event: %w", err)
	}
	return ev, nil
}

func (s *Store) DeleteEvent(ctx context.Context, id points.EventID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteEvent(ctx, s.db, id)
}

func (s *Store) deleteEvent(ctx context.Context, q dbtx, id points.EventID) error {
	res, err := q.ExecContext(ctx, "DELETE FROM points_history WHERE id = ?", int64(id))
	if err != nil {
		return fmt.Errorf("failed to delete point event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("point event #%d: %w", id, points.ErrEventNotFound)
	}
	return nil
}

func (s *Store) EventsByEmployee(ctx context.Context, id points.EmployeeID) ([]points.PointEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.eventsByEmployee(ctx, s.db, id)
}

func (s *Store) eventsByEmployee(ctx context.Context, q dbtx, id points.EmployeeID) ([]points.PointEvent, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM points_history
		WHERE employee_id = ?
		ORDER BY point_date ASC, id ASC
	`

	return queryEvents(ctx, q, query, int64(id))
}

func (s *Store) AllEvents(ctx context.Context) ([]points.PointEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allEvents(ctx, s.db)
}

func (s *Store) allEvents(ctx context.Context, q dbtx) ([]points.PointEvent, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM points_history
		ORDER BY employee_id ASC, point_date ASC, id ASC
	`

	return queryEvents(ctx, q, query)
}

func queryEvents(ctx context.Context, q dbtx, query string, args ...any) ([]points.PointEvent, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query point events: %w", err)
	}
	defer rows.Close()

	var events []points.PointEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

func scanEvent(row interface{ Scan(dest ...any) error }) (*points.PointEvent, error) {
	var (
		ev      points.PointEvent
		dateStr string
		magStr  string
		note    sql.NullString
		flag    sql.NullString
	)

	err := row.Scan(&ev.ID, &ev.EmployeeID, &dateStr, &magStr, &ev.Reason, &note, &flag)
	if err != nil {
		return nil, err
	}

	ev.Date, _ = points.ParseISO(dateStr)
	ev.Magnitude = points.Points{Value: points.MustParseDecimal(magStr)}
	ev.Note = note.String
	ev.FlagCode = flag.String
	return &ev, nil
}

func (s *Store) DistinctReasons(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.distinctReasons(ctx, s.db)
}

func (s *Store) distinctReasons(ctx context.Context, q dbtx) ([]string, error) {
	query := `
		SELECT DISTINCT reason
		FROM points_history
		WHERE TRIM(reason) <> ''
		ORDER BY reason COLLATE NOCASE
	`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query reasons: %w", err)
	}
	defer rows.Close()

	var reasons []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&r); err != nil {
			return nil, err
		}
		reasons = append(reasons, r)
	}
	return reasons, rows.Err()
}

// =============================================================================
// ROLL-OFF RUNS
// =============================================================================

const runColumns = "id, run_date, status, employees_affected, points_removed, error, started_at, completed_at"

func (s *Store) SaveRolloffRun(ctx context.Context, run points.RolloffRunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveRolloffRun(ctx, s.db, run)
}

func (s *Store) saveRolloffRun(ctx context.Context, q dbtx, run points.RolloffRunRecord) error {
	query := `
		INSERT INTO rolloff_runs
		(id, run_date, status, employees_affected, points_removed, error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			employees_affected = excluded.employees_affected,
			points_removed = excluded.points_removed,
			error = excluded.error,
			completed_at = excluded.completed_at
	`

	_, err := q.ExecContext(ctx, query,
		run.ID,
		run.RunDate.String(),
		run.Status,
		run.EmployeesAffected,
		run.PointsRemoved.String(),
		nullString(run.Error),
		timeArg(run.StartedAt),
		timeArg(run.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save rolloff run: %w", err)
	}
	return nil
}

func (s *Store) CompletedRunExistsForDay(ctx context.Context, day points.PointDate) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completedRunExistsForDay(ctx, s.db, day)
}

func (s *Store) completedRunExistsForDay(ctx context.Context, q dbtx, day points.PointDate) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM rolloff_runs WHERE run_date = ? AND status = ?",
		day.String(), points.RunStatusCompleted,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check rolloff runs: %w", err)
	}
	return count > 0, nil
}

func (s *Store) ListRolloffRuns(ctx context.Context, limit int) ([]points.RolloffRunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listRolloffRuns(ctx, s.db, limit)
}

func (s *Store) listRolloffRuns(ctx context.Context, q dbtx, limit int) ([]points.RolloffRunRecord, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unlimited
	}

	query := `
		SELECT ` + runColumns + `
		FROM rolloff_runs
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := q.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query rolloff runs: %w", err)
	}
	defer rows.Close()

	var runs []points.RolloffRunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

func scanRun(row interface{ Scan(dest ...any) error }) (*points.RolloffRunRecord, error) {
	var (
		run         points.RolloffRunRecord
		runDate     string
		removed     string
		errMsg      sql.NullString
		startedAt   sql.NullString
		completedAt sql.NullString
	)

	err := row.Scan(
		&run.ID, &runDate, &run.Status, &run.EmployeesAffected,
		&removed, &errMsg, &startedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	run.RunDate, _ = points.ParseISO(runDate)
	run.PointsRemoved = points.Points{Value: points.MustParseDecimal(removed)}
	run.Error = errMsg.String
	if startedAt.Valid {
		t, _ := time.Parse(time.RFC3339, startedAt.String)
		run.StartedAt = &t
	}
	if completedAt.Valid {
		t, _ := time.Parse(time.RFC3339, completedAt.String)
		run.CompletedAt = &t
	}
	return &run, nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(points.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	txStore := &txStore{tx: sqlTx, parent: s}
	if err := fn(txStore); err != nil {
		return err
	}

	return sqlTx.Commit()
}

// txStore runs every operation against the open *sql.Tx. The parent's
// lock is already held by WithTx, so helpers are called directly.
type txStore struct {
	tx     *sql.Tx
	parent *Store
}

func (ts *txStore) CreateEmployee(ctx context.Context, emp points.Employee) error {
	return ts.parent.createEmployee(ctx, ts.tx, emp)
}

func (ts *txStore) GetEmployee(ctx context.Context, id points.EmployeeID) (*points.Employee, error) {
	return ts.parent.getEmployee(ctx, ts.tx, id)
}

func (ts *txStore) ListEmployees(ctx context.Context, activeOnly bool) ([]points.Employee, error) {
	return ts.parent.listEmployees(ctx, ts.tx, activeOnly)
}

func (ts *txStore) UpdateEmployeeName(ctx context.Context, id points.EmployeeID, lastName, firstName string) error {
	return ts.parent.updateEmployeeName(ctx, ts.tx, id, lastName, firstName)
}

func (ts *txStore) SetEmployeeActive(ctx context.Context, id points.EmployeeID, active bool) error {
	return ts.parent.setEmployeeActive(ctx, ts.tx, id, active)
}

func (ts *txStore) SetWarningDate(ctx context.Context, id points.EmployeeID, date points.PointDate) error {
	return ts.parent.setWarningDate(ctx, ts.tx, id, date)
}

func (ts *txStore) SaveAggregate(ctx context.Context, id points.EmployeeID, agg points.Aggregate) error {
	return ts.parent.saveAggregate(ctx, ts.tx, id, agg)
}

func (ts *txStore) DeleteEmployee(ctx context.Context, id points.EmployeeID) error {
	return ts.parent.deleteEmployee(ctx, ts.tx, id)
}

func (ts *txStore) InsertEvent(ctx context.Context, ev points.PointEvent) (points.EventID, error) {
	return ts.parent.insertEvent(ctx, ts.tx, ev)
}

func (ts *txStore) GetEvent(ctx context.Context, id points.EventID) (*points.PointEvent, error) {
	return ts.parent.getEvent(ctx, ts.tx, id)
}

func (ts *txStore) DeleteEvent(ctx context.Context, id points.EventID) error {
	return ts.parent.deleteEvent(ctx, ts.tx, id)
}

func (ts *txStore) EventsByEmployee(ctx context.Context, id points.EmployeeID) ([]points.PointEvent, error) {
	return ts.parent.eventsByEmployee(ctx, ts.tx, id)
}

func (ts *txStore) AllEvents(ctx context.Context) ([]points.PointEvent, error) {
	return ts.parent.allEvents(ctx, ts.tx)
}

func (ts *txStore) DistinctReasons(ctx context.Context) ([]string, error) {
	return ts.parent.distinctReasons(ctx, ts.tx)
}

func (ts *txStore) SaveRolloffRun(ctx context.Context, run points.RolloffRunRecord) error {
	return ts.parent.saveRolloffRun(ctx, ts.tx, run)
}

func (ts *txStore) CompletedRunExistsForDay(ctx context.Context, day points.PointDate) (bool, error) {
	return ts.parent.completedRunExistsForDay(ctx, ts.tx, day)
}

func (ts *txStore) ListRolloffRuns(ctx context.Context, limit int) ([]points.RolloffRunRecord, error) {
	return ts.parent.listRolloffRuns(ctx, ts.tx, limit)
}

// WithTx on a txStore joins the enclosing transaction.
func (ts *txStore) WithTx(_ context.Context, fn func(points.Store) error) error {
	return fn(ts)
}

// =============================================================================
// BACKUP
// =============================================================================

// Backup writes a consistent copy of the database to destPath using
// VACUUM INTO. The destination file must not already exist.
func (s *Store) Backup(ctx context.Context, destPath string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("failed to back up database: %w", err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func dateArg(d points.PointDate) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

func scanDate(v sql.NullString) points.PointDate {
	if !v.Valid || v.String == "" {
		return points.PointDate{}
	}
	d, _ := points.ParseISO(v.String)
	return d
}

func timeArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
