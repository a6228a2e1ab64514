package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warp/points-engine/points"
)

// =============================================================================
// REPORT COMMAND GROUP
// =============================================================================

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export HRIS-ready CSV reports and the risk dashboard",
}

var reportRolloffsCmd = &cobra.Command{
	Use:   "rolloffs",
	Short: "Export employees with upcoming roll-off dates",
	Args:  cobra.NoArgs,
	RunE:  runReportRolloffs,
}

var reportPerfectCmd = &cobra.Command{
	Use:   "perfect",
	Short: "Export employees with upcoming perfect-attendance dates",
	Args:  cobra.NoArgs,
	RunE:  runReportPerfect,
}

var reportHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Export the full point history with running totals",
	Args:  cobra.NoArgs,
	RunE:  runReportHistory,
}

var reportDashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show active employees by risk band",
	Args:  cobra.NoArgs,
	RunE:  runReportDashboard,
}

var (
	reportAsOf   string
	reportOut    string
	reportStatus string
)

func init() {
	reportCmd.PersistentFlags().StringVar(&reportAsOf, "as-of", "", "Treat this date as today (default today)")
	reportCmd.PersistentFlags().StringVar(&reportOut, "out", ".", "Directory for CSV exports")
	reportDashboardCmd.Flags().StringVar(&reportStatus, "status", "", "Filter to one band: Safe, Warning, Critical, or Termination Risk")

	reportCmd.AddCommand(reportRolloffsCmd, reportPerfectCmd, reportHistoryCmd, reportDashboardCmd)
	rootCmd.AddCommand(reportCmd)
}

// Upcoming-date exports use the HRIS column order: Note and Reason stay
// empty and sit before the total.
func upcomingHeader(dateColumn string) []string {
	return []string{
		"Employee ID", "Last Name", "First Name", dateColumn,
		"Note", "Reason", "Point Total",
	}
}

var historyHeader = []string{
	"Entry ID", "Employee ID", "Last Name", "First Name", "Point Date",
	"Point", "Reason", "Note", "Flag Code", "Point Total",
}

// =============================================================================
// RUNNERS
// =============================================================================

func runReportRolloffs(cmd *cobra.Command, args []string) error {
	return runUpcomingExport(cmd, "rolloff_report", "Rolloff Date",
		func(r *points.Reporter, asOf points.PointDate) ([]points.UpcomingRow, error) {
			return r.UpcomingRolloffs(cmd.Context(), asOf)
		})
}

func runReportPerfect(cmd *cobra.Command, args []string) error {
	return runUpcomingExport(cmd, "perfect_attendance_report", "Perfect Attendance Date",
		func(r *points.Reporter, asOf points.PointDate) ([]points.UpcomingRow, error) {
			return r.UpcomingPerfect(cmd.Context(), asOf)
		})
}

func runUpcomingExport(cmd *cobra.Command, prefix, dateColumn string,
	fetch func(*points.Reporter, points.PointDate) ([]points.UpcomingRow, error)) error {

	asOf, err := parseAsOf(reportAsOf)
	if err != nil {
		return err
	}

	cfg, st, err := open()
	if err != nil {
		return err
	}
	defer st.Close()

	reporter := points.NewReporter(st, cfg.BuildPolicy())
	upcoming, err := fetch(reporter, asOf)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(upcoming))
	for _, u := range upcoming {
		rows = append(rows, []string{
			u.EmployeeID.String(), u.LastName, u.FirstName,
			u.Due.Display(), "", "", u.Total.Display(),
		})
	}
	path := reportPath(reportOut, prefix, asOf)
	if err := writeCSV(path, upcomingHeader(dateColumn), rows); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Exported %d employee(s). Saved as %s\n", len(rows), path)
	return nil
}

func runReportHistory(cmd *cobra.Command, args []string) error {
	asOf, err := parseAsOf(reportAsOf)
	if err != nil {
		return err
	}

	cfg, st, err := open()
	if err != nil {
		return err
	}
	defer st.Close()

	reporter := points.NewReporter(st, cfg.BuildPolicy())
	history, err := reporter.PointHistory(cmd.Context())
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(history))
	for _, h := range history {
		rows = append(rows, []string{
			h.EventID.String(), h.EmployeeID.String(), h.LastName, h.FirstName,
			h.Date.Display(), h.Magnitude.Display(), h.Reason, h.Note,
			h.FlagCode, h.RunningTotal.Display(),
		})
	}
	path := reportPath(reportOut, "point_history_report", asOf)
	if err := writeCSV(path, historyHeader, rows); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Exported %d point entries. Saved as %s\n", len(rows), path)
	return nil
}

func runReportDashboard(cmd *cobra.Command, args []string) error {
	var filter points.Status
	if reportStatus != "" {
		s, err := parseStatus(reportStatus)
		if err != nil {
			return err
		}
		filter = s
	}

	cfg, st, err := open()
	if err != nil {
		return err
	}
	defer st.Close()

	reporter := points.NewReporter(st, cfg.BuildPolicy())
	board, err := reporter.Dashboard(cmd.Context())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTOTAL\tSTATUS\tLAST POINT\tROLLOFF\tPERFECT\tWARNING")
	shown := 0
	for _, row := range board {
		if filter != "" && row.Status != filter {
			continue
		}
		fmt.Fprintf(w, "%s\t%s, %s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.EmployeeID, row.LastName, row.FirstName, row.Total.Display(), row.Status,
			orDash(row.LastInfraction.Display()), orDash(row.RolloffDue.Display()),
			orDash(row.PerfectDue.Display()), orDash(row.WarningIssued.Display()))
		shown++
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if shown == 0 {
		fmt.Fprintln(os.Stdout, "No active employees to show.")
	}
	return nil
}

// parseStatus resolves a --status flag value case-insensitively.
func parseStatus(value string) (points.Status, error) {
	for _, s := range []points.Status{
		points.StatusSafe, points.StatusWarning, points.StatusCritical, points.StatusTermination,
	} {
		if strings.EqualFold(value, string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown status %q (expected Safe, Warning, Critical, or Termination Risk)", value)
}
