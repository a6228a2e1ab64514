package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warp/points-engine/points"
)

// =============================================================================
// POINT COMMAND GROUP
// =============================================================================

var pointCmd = &cobra.Command{
	Use:   "point",
	Short: "Record and correct infraction points",
}

var pointAddCmd = &cobra.Command{
	Use:   "add ID",
	Short: "Record an infraction point",
	Long: `Record an infraction point against an employee.

The point value must be one of the configured magnitudes (0.5, 1.0, or 1.5
by default) and a reason is required. Recording a point recomputes the
employee's total, roll-off date, and perfect-attendance date.`,
	Args: cobra.ExactArgs(1),
	RunE: runPointAdd,
}

var pointAdjustCmd = &cobra.Command{
	Use:   "adjust ID",
	Short: "Record an administrative point adjustment",
	Long: `Record an administrative adjustment against an employee.

Unlike "point add", the value is not restricted to the infraction
magnitudes and may be negative (write it as --points=-0.5). Adjustments
are flagged ADJ unless --flag overrides it, and negative entries never
move the roll-off anchor.`,
	Args: cobra.ExactArgs(1),
	RunE: runPointAdjust,
}

var pointListCmd = &cobra.Command{
	Use:   "list ID",
	Short: "List an employee's point entries oldest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runPointList,
}

var pointDeleteCmd = &cobra.Command{
	Use:   "delete ENTRY_ID",
	Short: "Delete a point entry and recompute the employee",
	Args:  cobra.ExactArgs(1),
	RunE:  runPointDelete,
}

var pointReasonsCmd = &cobra.Command{
	Use:   "reasons",
	Short: "List reasons already used, for consistent data entry",
	Args:  cobra.NoArgs,
	RunE:  runPointReasons,
}

var (
	pointAddDate   string
	pointAddValue  string
	pointAddReason string
	pointAddNote   string
	pointAddFlag   string

	pointAdjustDate   string
	pointAdjustValue  string
	pointAdjustReason string
	pointAdjustNote   string
	pointAdjustFlag   string
)

func init() {
	pointAddCmd.Flags().StringVar(&pointAddDate, "date", "", "Infraction date, MM-DD-YYYY (default today)")
	pointAddCmd.Flags().StringVar(&pointAddValue, "points", "1.0", "Point value: 0.5, 1.0, or 1.5")
	pointAddCmd.Flags().StringVar(&pointAddReason, "reason", "", "Reason for the point (required)")
	pointAddCmd.Flags().StringVar(&pointAddNote, "note", "", "Free-form note")
	pointAddCmd.Flags().StringVar(&pointAddFlag, "flag", "", "Flag code, e.g. FMLA or NCNS")

	pointAdjustCmd.Flags().StringVar(&pointAdjustDate, "date", "", "Adjustment date, MM-DD-YYYY (default today)")
	pointAdjustCmd.Flags().StringVar(&pointAdjustValue, "points", "", "Adjustment value, may be negative (required)")
	pointAdjustCmd.Flags().StringVar(&pointAdjustReason, "reason", "", "Reason for the adjustment (required)")
	pointAdjustCmd.Flags().StringVar(&pointAdjustNote, "note", "", "Free-form note")
	pointAdjustCmd.Flags().StringVar(&pointAdjustFlag, "flag", "", "Flag code (default ADJ)")

	pointCmd.AddCommand(pointAddCmd, pointAdjustCmd, pointListCmd, pointDeleteCmd, pointReasonsCmd)
	rootCmd.AddCommand(pointCmd)
}

// =============================================================================
// RUNNERS
// =============================================================================

func runPointAdd(cmd *cobra.Command, args []string) error {
	id, err := parseEmployeeID(args[0])
	if err != nil {
		return err
	}
	magnitude, err := points.ParsePoints(pointAddValue)
	if err != nil {
		return err
	}
	date := pointAddDate
	if date == "" {
		date = points.Today().Display()
	}

	cfg, st, err := open()
	if err != nil {
		return err
	}
	defer st.Close()

	ledger := points.NewLedger(st, cfg.BuildPolicy())
	entryID, err := ledger.AddInfraction(cmd.Context(), id, date, magnitude, pointAddReason, pointAddNote, pointAddFlag)
	if err != nil {
		return err
	}

	dir := points.NewDirectory(st)
	emp, err := dir.Get(cmd.Context(), id)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Recorded %s point for %s (#%s) as entry #%s.\n",
		magnitude.Display(), emp.DisplayName(), emp.ID, entryID)
	fmt.Fprintf(os.Stdout, "New total %s; rolls off %s; perfect attendance due %s.\n",
		emp.Total.Display(), orDash(emp.RolloffDue.Display()), orDash(emp.PerfectDue.Display()))
	return nil
}

func runPointAdjust(cmd *cobra.Command, args []string) error {
	id, err := parseEmployeeID(args[0])
	if err != nil {
		return err
	}
	if pointAdjustValue == "" {
		return fmt.Errorf("--points is required (write negative values as --points=-0.5)")
	}
	delta, err := points.ParsePoints(pointAdjustValue)
	if err != nil {
		return err
	}
	if delta.IsZero() {
		return fmt.Errorf("--points must be non-zero")
	}
	if pointAdjustReason == "" {
		return points.ErrMissingReason
	}
	date, err := parseAsOf(pointAdjustDate)
	if err != nil {
		return err
	}

	cfg, st, err := open()
	if err != nil {
		return err
	}
	defer st.Close()

	ledger := points.NewLedger(st, cfg.BuildPolicy())
	entryID, err := ledger.AddAdjustment(cmd.Context(), id, date, delta, pointAdjustReason, pointAdjustNote, pointAdjustFlag)
	if err != nil {
		return err
	}

	dir := points.NewDirectory(st)
	emp, err := dir.Get(cmd.Context(), id)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Recorded %s adjustment for %s (#%s) as entry #%s. New total %s.\n",
		delta.Display(), emp.DisplayName(), emp.ID, entryID, emp.Total.Display())
	return nil
}

func runPointList(cmd *cobra.Command, args []string) error {
	id, err := parseEmployeeID(args[0])
	if err != nil {
		return err
	}

	cfg, st, err := open()
	if err != nil {
		return err
	}
	defer st.Close()

	ledger := points.NewLedger(st, cfg.BuildPolicy())
	events, err := ledger.Events(cmd.Context(), id)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintf(os.Stdout, "No point entries for employee #%s.\n", id)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ENTRY\tDATE\tPOINTS\tREASON\tNOTE\tFLAG")
	for _, ev := range events {
		fmt.Fprintf(w, "#%s\t%s\t%s\t%s\t%s\t%s\n",
			ev.ID, ev.Date.Display(), ev.Magnitude.Display(), ev.Reason, ev.Note, ev.FlagCode)
	}
	return w.Flush()
}

func runPointDelete(cmd *cobra.Command, args []string) error {
	entryID, err := parseEventID(args[0])
	if err != nil {
		return err
	}

	cfg, st, err := open()
	if err != nil {
		return err
	}
	defer st.Close()

	ledger := points.NewLedger(st, cfg.BuildPolicy())
	ev, err := st.GetEvent(cmd.Context(), entryID)
	if err != nil {
		return err
	}
	if err := ledger.DeleteEvent(cmd.Context(), entryID); err != nil {
		return err
	}

	dir := points.NewDirectory(st)
	emp, err := dir.Get(cmd.Context(), ev.EmployeeID)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Deleted entry #%s (%s point on %s) for %s (#%s). New total %s.\n",
		entryID, ev.Magnitude.Display(), ev.Date.Display(), emp.DisplayName(), emp.ID, emp.Total.Display())
	return nil
}

func runPointReasons(cmd *cobra.Command, args []string) error {
	_, st, err := open()
	if err != nil {
		return err
	}
	defer st.Close()

	dir := points.NewDirectory(st)
	reasons, err := dir.ReasonOptions(cmd.Context())
	if err != nil {
		return err
	}
	if len(reasons) == 0 {
		fmt.Fprintln(os.Stdout, "No reasons recorded yet.")
		return nil
	}
	for _, r := range reasons {
		fmt.Fprintln(os.Stdout, r)
	}
	return nil
}
