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
// EMPLOYEE COMMAND GROUP
// =============================================================================

var employeeCmd = &cobra.Command{
	Use:   "employee",
	Short: "Manage the employee directory",
}

var employeeAddCmd = &cobra.Command{
	Use:   "add ID LAST FIRST",
	Short: "Add an employee",
	Args:  cobra.ExactArgs(3),
	RunE:  runEmployeeAdd,
}

var employeeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List employees sorted by name",
	Args:  cobra.NoArgs,
	RunE:  runEmployeeList,
}

var employeeShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show one employee with point history",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmployeeShow,
}

var employeeRenameCmd = &cobra.Command{
	Use:   "rename ID LAST FIRST",
	Short: "Correct an employee's name",
	Args:  cobra.ExactArgs(3),
	RunE:  runEmployeeRename,
}

var employeeActivateCmd = &cobra.Command{
	Use:   "activate ID",
	Short: "Mark an employee active",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmployeeActivate,
}

var employeeDeactivateCmd = &cobra.Command{
	Use:   "deactivate ID",
	Short: "Mark an employee inactive, keeping their history",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmployeeDeactivate,
}

var employeeWarnCmd = &cobra.Command{
	Use:   "warn ID",
	Short: "Record or clear a point-warning date",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmployeeWarn,
}

var employeeDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Permanently delete an employee and their history",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmployeeDelete,
}

var employeeSearchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Search employees by ID or name fragment",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runEmployeeSearch,
}

var (
	employeeAddPerfect     string
	employeeWarnDate       string
	employeeWarnClear      bool
	employeeDeleteYes      bool
	employeeListActiveOnly bool
)

func init() {
	employeeAddCmd.Flags().StringVar(&employeeAddPerfect, "perfect", "", "Optional starting perfect-attendance date")
	employeeListCmd.Flags().BoolVar(&employeeListActiveOnly, "active-only", false, "Hide inactive employees")
	employeeWarnCmd.Flags().StringVar(&employeeWarnDate, "date", "", "Warning date (default today)")
	employeeWarnCmd.Flags().BoolVar(&employeeWarnClear, "clear", false, "Clear the warning date instead of setting it")
	employeeDeleteCmd.Flags().BoolVar(&employeeDeleteYes, "yes", false, "Confirm permanent deletion")

	employeeCmd.AddCommand(
		employeeAddCmd,
		employeeListCmd,
		employeeShowCmd,
		employeeRenameCmd,
		employeeActivateCmd,
		employeeDeactivateCmd,
		employeeWarnCmd,
		employeeDeleteCmd,
		employeeSearchCmd,
	)
	rootCmd.AddCommand(employeeCmd)
}

// =============================================================================
// RUNNERS
// =============================================================================

func runEmployeeAdd(cmd *cobra.Command, args []string) error {
	id, err := parseEmployeeID(args[0])
	if err != nil {
		return err
	}

	var perfect points.PointDate
	if employeeAddPerfect != "" {
		if perfect, err = points.ParseInput(employeeAddPerfect); err != nil {
			return err
		}
	}

	_, st, err := open()
	if err != nil {
		return err
	}
	defer st.Close()

	dir := points.NewDirectory(st)
	if err := dir.Create(cmd.Context(), id, args[1], args[2], perfect); err != nil {
		return err
	}

	emp, err := dir.Get(cmd.Context(), id)
	if err != nil {
		return err
	}
	if emp.PerfectDue.IsZero() {
		fmt.Fprintf(os.Stdout, "Added %s (#%s).\n", emp.DisplayName(), emp.ID)
	} else {
		fmt.Fprintf(os.Stdout, "Added %s (#%s). Perfect attendance due %s.\n",
			emp.DisplayName(), emp.ID, emp.PerfectDue.Display())
	}
	return nil
}

func runEmployeeList(cmd *cobra.Command, args []string) error {
	_, st, err := open()
	if err != nil {
		return err
	}
	defer st.Close()

	dir := points.NewDirectory(st)
	emps, err := dir.List(cmd.Context(), employeeListActiveOnly)
	if err != nil {
		return err
	}
	if len(emps) == 0 {
		fmt.Fprintln(os.Stdout, "No employees on file.")
		return nil
	}

	printEmployeeTable(emps)
	return nil
}

func runEmployeeShow(cmd *cobra.Command, args []string) error {
	id, err := parseEmployeeID(args[0])
	if err != nil {
		return err
	}

	cfg, st, err := open()
	if err != nil {
		return err
	}
	defer st.Close()

	dir := points.NewDirectory(st)
	emp, err := dir.Get(cmd.Context(), id)
	if err != nil {
		return err
	}

	policy := cfg.BuildPolicy()
	state := "active"
	if !emp.Active {
		state = "inactive"
	}
	fmt.Fprintf(os.Stdout, "Employee #%s: %s (%s)\n", emp.ID, emp.DisplayName(), state)
	fmt.Fprintf(os.Stdout, "  Point total:     %s (%s)\n", emp.Total.Display(), policy.StatusFor(emp.Total))
	fmt.Fprintf(os.Stdout, "  Last point:      %s\n", orDash(emp.LastInfraction.Display()))
	fmt.Fprintf(os.Stdout, "  Rolloff due:     %s\n", orDash(emp.RolloffDue.Display()))
	fmt.Fprintf(os.Stdout, "  Perfect due:     %s\n", orDash(emp.PerfectDue.Display()))
	fmt.Fprintf(os.Stdout, "  Warning issued:  %s\n", orDash(emp.WarningIssued.Display()))

	reporter := points.NewReporter(st, policy)
	events, err := reporter.EmployeeHistory(cmd.Context(), id)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(os.Stdout, "No point history.")
		return nil
	}

	fmt.Fprintln(os.Stdout, "History (newest first):")
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  ENTRY\tDATE\tPOINTS\tREASON\tNOTE\tFLAG")
	for _, ev := range events {
		fmt.Fprintf(w, "  #%s\t%s\t%s\t%s\t%s\t%s\n",
			ev.ID, ev.Date.Display(), ev.Magnitude.Display(), ev.Reason, ev.Note, ev.FlagCode)
	}
	return w.Flush()
}

func runEmployeeRename(cmd *cobra.Command, args []string) error {
	id, err := parseEmployeeID(args[0])
	if err != nil {
		return err
	}

	_, st, err := open()
	if err != nil {
		return err
	}
	defer st.Close()

	dir := points.NewDirectory(st)
	if err := dir.Rename(cmd.Context(), id, args[1], args[2]); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Renamed employee #%s to %s, %s.\n", id, args[1], args[2])
	return nil
}

func runEmployeeActivate(cmd *cobra.Command, args []string) error {
	return setEmployeeActive(cmd, args[0], true)
}

func runEmployeeDeactivate(cmd *cobra.Command, args []string) error {
	return setEmployeeActive(cmd, args[0], false)
}

func setEmployeeActive(cmd *cobra.Command, arg string, active bool) error {
	id, err := parseEmployeeID(arg)
	if err != nil {
		return err
	}

	_, st, err := open()
	if err != nil {
		return err
	}
	defer st.Close()

	dir := points.NewDirectory(st)
	if err := dir.SetActive(cmd.Context(), id, active); err != nil {
		return err
	}
	state := "active"
	if !active {
		state = "inactive"
	}
	fmt.Fprintf(os.Stdout, "Employee #%s is now %s.\n", id, state)
	return nil
}

func runEmployeeWarn(cmd *cobra.Command, args []string) error {
	id, err := parseEmployeeID(args[0])
	if err != nil {
		return err
	}

	_, st, err := open()
	if err != nil {
		return err
	}
	defer st.Close()

	dir := points.NewDirectory(st)
	if employeeWarnClear {
		if err := dir.ClearWarningDate(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Cleared warning date for employee #%s.\n", id)
		return nil
	}

	date, err := parseAsOf(employeeWarnDate)
	if err != nil {
		return err
	}
	if err := dir.SetWarningDate(cmd.Context(), id, date); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Recorded warning for employee #%s on %s.\n", id, date.Display())
	return nil
}

func runEmployeeDelete(cmd *cobra.Command, args []string) error {
	id, err := parseEmployeeID(args[0])
	if err != nil {
		return err
	}
	if !employeeDeleteYes {
		return fmt.Errorf("deleting employee #%s removes their point history permanently; re-run with --yes", id)
	}

	_, st, err := open()
	if err != nil {
		return err
	}
	defer st.Close()

	dir := points.NewDirectory(st)
	if err := dir.Delete(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Deleted employee #%s and their point history.\n", id)
	return nil
}

func runEmployeeSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	cfg, st, err := open()
	if err != nil {
		return err
	}
	defer st.Close()

	reporter := points.NewReporter(st, cfg.BuildPolicy())
	emps, err := reporter.SearchEmployees(cmd.Context(), query)
	if err != nil {
		return err
	}
	if len(emps) == 0 {
		fmt.Fprintf(os.Stdout, "No employees match %q.\n", query)
		return nil
	}

	printEmployeeTable(emps)
	return nil
}

// printEmployeeTable renders a directory listing to stdout.
func printEmployeeTable(emps []points.Employee) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTOTAL\tLAST POINT\tROLLOFF\tPERFECT\tWARNING\tACTIVE")
	for _, e := range emps {
		active := "yes"
		if !e.Active {
			active = "no"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.DisplayName(), e.Total.Display(),
			orDash(e.LastInfraction.Display()), orDash(e.RolloffDue.Display()),
			orDash(e.PerfectDue.Display()), orDash(e.WarningIssued.Display()), active)
	}
	w.Flush()
}
