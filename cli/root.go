/*
Package cli wires the attendance points engine to a cobra command tree.

PURPOSE:
  One-shot commands for HR workflows: maintain the employee directory,
  record and correct infractions, run the roll-off engine, export the
  HRIS-aligned CSV reports, and watch mode for the scheduler. An
  interactive session command keeps an in-memory undo log across entries.

COMMAND GROUPS:
  employee   add / list / show / rename / activate / deactivate /
             warn / delete / search
  point      add / adjust / list / delete / reasons
  session    interactive entry loop with undo
  rolloff    run / runs
  report     rolloffs / perfect / history / dashboard
  perfect    process
  roster     import / export
  backup     consistent copy of the database
  watch      run the roll-off scheduler until interrupted

CONVENTIONS:
  - Dates cross this boundary as MM-DD-YYYY (MM/DD/YYYY and ISO
    YYYY-MM-DD also accepted); storage stays ISO.
  - CSV exports land in --out (default ".") as <prefix>_YYYYMMDD.csv,
    dated by the as-of day.
  - Exit code 1 on any error; validation problems name the bad input.

SEE ALSO:
  - points/: the engine this package drives
  - cmd/attendance/main.go: the entry point calling Execute
*/
package cli

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/warp/points-engine/points"
	"github.com/warp/points-engine/store/sqlite"
)

var (
	configPath string
	dbOverride string
)

var rootCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Attendance points tracker",
	Long: `Track attendance infraction points with calendar-month roll-off.

Employees accrue 0.5, 1.0, or 1.5 points per infraction. Points expire on
a two-month cadence (with a perfect-month skip), and running totals map to
Safe / Warning / Critical / Termination Risk bands. State lives in a local
SQLite file; reports export as HRIS-ready CSV.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to TOML config file")
	rootCmd.PersistentFlags().StringVar(&dbOverride, "db", "", "Database path (overrides config)")
}

// =============================================================================
// SHARED PLUMBING
// =============================================================================

// open loads configuration and opens the SQLite store. Callers own Close.
func open() (points.Config, *sqlite.Store, error) {
	cfg, err := points.LoadConfig(configPath)
	if err != nil {
		return points.Config{}, nil, err
	}
	if dbOverride != "" {
		cfg.Storage.Path = dbOverride
	}

	st, err := sqlite.New(cfg.Storage.Path)
	if err != nil {
		return points.Config{}, nil, err
	}
	return cfg, st, nil
}

// parseEmployeeID parses a positive integer employee ID argument.
func parseEmployeeID(arg string) (points.EmployeeID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("employee id %q: %w", arg, points.ErrInvalidEmployeeID)
	}
	return points.EmployeeID(n), nil
}

// parseEventID parses a point entry ID argument.
func parseEventID(arg string) (points.EventID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("point entry id %q: %w", arg, points.ErrEventNotFound)
	}
	return points.EventID(n), nil
}

// parseAsOf parses an --as-of flag value, defaulting to today.
func parseAsOf(value string) (points.PointDate, error) {
	if strings.TrimSpace(value) == "" {
		return points.Today(), nil
	}
	return points.ParseInput(value)
}

// reportPath builds <dir>/<prefix>_YYYYMMDD.csv dated by asOf.
func reportPath(dir, prefix string, asOf points.PointDate) string {
	name := fmt.Sprintf("%s_%s.csv", prefix, asOf.Time.Format("20060102"))
	return filepath.Join(dir, name)
}

// writeCSV writes one header row plus data rows to path.
func writeCSV(path string, header []string, rows [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// orDash renders empty display strings as "-" for terminal tables.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
