package cli

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/warp/points-engine/points"
)

// =============================================================================
// ROSTER COMMAND GROUP
// =============================================================================

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Bulk import and export the employee roster as CSV",
}

var rosterImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import employees from a roster CSV",
	Long: `Import employees from a CSV with an employee_id / last_name / first_name /
point_total / last_point_date / rolloff_date / perfect_attendance_date
header (extra columns are ignored, order does not matter). Invalid rows are
skipped and reported; duplicate IDs are skipped unless --overwrite replaces
their names and point standing. Overwriting never touches the active flag
or a recorded warning date.`,
	Args: cobra.ExactArgs(1),
	RunE: runRosterImport,
}

var rosterExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export every employee to a roster CSV",
	Args:  cobra.NoArgs,
	RunE:  runRosterExport,
}

var (
	rosterOverwrite bool
	rosterOut       string
)

func init() {
	rosterImportCmd.Flags().BoolVar(&rosterOverwrite, "overwrite", false, "Replace employees whose IDs already exist")
	rosterExportCmd.Flags().StringVar(&rosterOut, "out", ".", "Directory for the roster CSV")

	rosterCmd.AddCommand(rosterImportCmd, rosterExportCmd)
	rootCmd.AddCommand(rosterCmd)
}

// =============================================================================
// RUNNERS
// =============================================================================

func runRosterImport(cmd *cobra.Command, args []string) error {
	rows, err := readRosterCSV(args[0])
	if err != nil {
		return err
	}

	_, st, err := open()
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := points.ImportRoster(cmd.Context(), st, rows, rosterOverwrite)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Added: %d\nOverwritten: %d\nSkipped: %d\n",
		res.Added, res.Overwritten, res.Skipped)
	for _, line := range res.Errors {
		fmt.Fprintln(os.Stdout, "  "+line)
	}
	return nil
}

func runRosterExport(cmd *cobra.Command, args []string) error {
	_, st, err := open()
	if err != nil {
		return err
	}
	defer st.Close()

	rows, err := points.ExportRoster(cmd.Context(), st)
	if err != nil {
		return err
	}

	records := make([][]string, 0, len(rows))
	for _, r := range rows {
		records = append(records, []string{
			r.EmployeeID, r.LastName, r.FirstName, r.Total,
			r.LastPoint, r.Rolloff, r.Perfect,
		})
	}
	path := reportPath(rosterOut, "employee_roster", points.Today())
	if err := writeCSV(path, points.RosterColumns, records); err != nil {
		return fmt.Errorf("failed to write roster: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Exported %d employee(s). Saved as %s\n", len(rows), path)
	return nil
}

// =============================================================================
// CSV PARSING
// =============================================================================

// readRosterCSV maps a header-keyed CSV to roster rows. Column order is
// free; a UTF-8 BOM on the first header cell is tolerated.
func readRosterCSV(path string) ([]points.RosterRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // rows may omit trailing columns

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("roster file %s is empty", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read roster header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		if i == 0 {
			col = strings.TrimPrefix(col, "\uFEFF")
		}
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}
	if _, ok := index["employee_id"]; !ok {
		return nil, fmt.Errorf("roster file %s has no employee_id column", path)
	}

	cell := func(record []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []points.RosterRow
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read roster row: %w", err)
		}
		rows = append(rows, points.RosterRow{
			EmployeeID: cell(record, "employee_id"),
			LastName:   cell(record, "last_name"),
			FirstName:  cell(record, "first_name"),
			Total:      cell(record, "point_total"),
			LastPoint:  cell(record, "last_point_date"),
			Rolloff:    cell(record, "rolloff_date"),
			Perfect:    cell(record, "perfect_attendance_date"),
		})
	}
	return rows, nil
}
