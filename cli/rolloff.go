package cli

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/points-engine/points"
)

// =============================================================================
// ROLLOFF COMMAND GROUP
// =============================================================================

var rolloffCmd = &cobra.Command{
	Use:   "rolloff",
	Short: "Run and inspect the point roll-off engine",
}

var rolloffRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Expire points for everyone whose roll-off date has passed",
	Long: `Apply roll-offs to every employee whose roll-off date is on or before
the as-of day. Each elapsed period removes one decrement (0.5 by default),
catching up across multiple periods in one pass, and the deduction lands in
the point history as a single AUTO-flagged entry. When anyone is affected
an audit CSV is written.

Running twice on the same day is harmless: the first run pushes every due
date past the as-of day, so the second finds nothing to do.`,
	Args: cobra.NoArgs,
	RunE: runRolloffRun,
}

var rolloffRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent roll-off run records",
	Args:  cobra.NoArgs,
	RunE:  runRolloffRuns,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the roll-off scheduler until interrupted",
	Long: `Keep the roll-off scheduler running in the foreground. It checks on the
configured interval (rolloff.check_interval) and applies roll-offs at most
once per calendar day; the first check happens immediately on start.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

var (
	rolloffRunAsOf  string
	rolloffRunOut   string
	rolloffRunLimit int
)

func init() {
	rolloffRunCmd.Flags().StringVar(&rolloffRunAsOf, "as-of", "", "Treat this date as today (default today)")
	rolloffRunCmd.Flags().StringVar(&rolloffRunOut, "out", ".", "Directory for the audit CSV")
	rolloffRunsCmd.Flags().IntVar(&rolloffRunLimit, "limit", 20, "How many runs to show")

	rolloffCmd.AddCommand(rolloffRunCmd, rolloffRunsCmd)
	rootCmd.AddCommand(rolloffCmd)
	rootCmd.AddCommand(watchCmd)
}

// Audit CSV columns, matching the point-history layout HR files alongside
// manual entries.
var autoRolloffHeader = []string{
	"Employee ID", "Last Name", "First Name", "Rolloff Date",
	"Point", "Reason", "Note", "Point Total",
}

// =============================================================================
// RUNNERS
// =============================================================================

func runRolloffRun(cmd *cobra.Command, args []string) error {
	asOf, err := parseAsOf(rolloffRunAsOf)
	if err != nil {
		return err
	}

	cfg, st, err := open()
	if err != nil {
		return err
	}
	defer st.Close()

	engine := points.NewRolloffEngine(st, cfg.BuildPolicy())
	run, err := engine.Run(cmd.Context(), asOf)
	if err != nil {
		return err
	}
	if run.EmployeesAffected == 0 {
		fmt.Fprintln(os.Stdout, "No employees have points ready to roll off.")
		return nil
	}

	rows := make([][]string, 0, len(run.Audit))
	for _, a := range run.Audit {
		rows = append(rows, []string{
			a.EmployeeID.String(), a.LastName, a.FirstName, a.RunDate.Display(),
			"-" + a.Removed.Display(), "2 Month Roll Off", "", a.NewTotal.Display(),
		})
	}
	path := reportPath(rolloffRunOut, "auto_rolloff_report", asOf)
	if err := writeCSV(path, autoRolloffHeader, rows); err != nil {
		return fmt.Errorf("failed to write audit report: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Applied rolloffs to %d employee(s) (removed %s point(s) total).\n",
		run.EmployeesAffected, run.PointsRemoved.Display())
	fmt.Fprintf(os.Stdout, "Audit saved as %s\n", path)
	return nil
}

func runRolloffRuns(cmd *cobra.Command, args []string) error {
	_, st, err := open()
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRolloffRuns(cmd.Context(), rolloffRunLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stdout, "No roll-off runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tDATE\tSTATUS\tAFFECTED\tREMOVED\tSTARTED\tERROR")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			r.ID, r.RunDate.Display(), r.Status, r.EmployeesAffected,
			r.PointsRemoved.Display(), formatRunTime(r.StartedAt), r.Error)
	}
	return w.Flush()
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, st, err := open()
	if err != nil {
		return err
	}
	defer st.Close()

	engine := points.NewRolloffEngine(st, cfg.BuildPolicy())
	scheduler := points.NewRolloffScheduler(st, engine)
	scheduler.CheckInterval = cfg.CheckInterval()

	scheduler.Start()
	log.Printf("Roll-off scheduler running, checking every %s. Press Ctrl+C to stop.", scheduler.CheckInterval)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Stopping scheduler...")
	scheduler.Stop()
	log.Println("Scheduler stopped")
	return nil
}

func formatRunTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
