package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/warp/points-engine/points"
)

// =============================================================================
// PERFECT ATTENDANCE COMMAND GROUP
// =============================================================================

var perfectCmd = &cobra.Command{
	Use:   "perfect",
	Short: "Process perfect-attendance milestones",
}

var perfectProcessCmd = &cobra.Command{
	Use:   "process",
	Short: "Export due perfect-attendance dates and schedule the next ones",
	Long: `Export every employee whose perfect-attendance date is on or before the
as-of day, then advance each date to the next milestone (three months out,
snapped to the first of the following month). Use --dry-run to preview who
would be recognized without writing anything.`,
	Args: cobra.NoArgs,
	RunE: runPerfectProcess,
}

var (
	perfectAsOf   string
	perfectOut    string
	perfectDryRun bool
)

func init() {
	perfectProcessCmd.Flags().StringVar(&perfectAsOf, "as-of", "", "Treat this date as today (default today)")
	perfectProcessCmd.Flags().StringVar(&perfectOut, "out", ".", "Directory for the report CSV")
	perfectProcessCmd.Flags().BoolVar(&perfectDryRun, "dry-run", false, "Preview without advancing dates or writing a file")

	perfectCmd.AddCommand(perfectProcessCmd)
	rootCmd.AddCommand(perfectCmd)
}

var perfectProcessHeader = []string{
	"Employee ID", "Last Name", "First Name",
	"Perfect Attendance Date", "Next Perfect Attendance Date", "Point Total",
}

func runPerfectProcess(cmd *cobra.Command, args []string) error {
	asOf, err := parseAsOf(perfectAsOf)
	if err != nil {
		return err
	}

	cfg, st, err := open()
	if err != nil {
		return err
	}
	defer st.Close()

	engine := points.NewRolloffEngine(st, cfg.BuildPolicy())
	rows, err := engine.ProcessPerfectAttendance(cmd.Context(), asOf, perfectDryRun)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintf(os.Stdout, "No perfect-attendance dates due as of %s.\n", asOf.Display())
		return nil
	}
	if perfectDryRun {
		fmt.Fprintf(os.Stdout, "As of %s, %d employee(s) would be on the Perfect Attendance report. No changes were written.\n",
			asOf.Display(), len(rows))
		return nil
	}

	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.EmployeeID.String(), r.LastName, r.FirstName,
			r.CurrentDue.Display(), r.NextDue.Display(), r.Total.Display(),
		})
	}
	path := reportPath(perfectOut, "perfect_attendance_report", asOf)
	if err := writeCSV(path, perfectProcessHeader, records); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Exported %d employee(s). Advanced %d perfect-attendance date(s).\n", len(rows), len(rows))
	fmt.Fprintf(os.Stdout, "Saved as %s\n", path)
	return nil
}
