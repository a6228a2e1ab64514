package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/warp/points-engine/points"
)

// =============================================================================
// SESSION COMMAND - Interactive entry loop with undo
// =============================================================================

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Interactive point-entry session with undo",
	Long: `Start an interactive session for bulk point entry.

The session keeps an in-memory undo log (bounded by policy.undo_depth) so
mistyped entries can be reversed immediately. The log holds only points
added in this session; it empties when the session ends.

Commands:
  add ID DATE POINTS REASON...   record a point
  undo                           reverse the most recent add
  show ID                        print one employee's standing
  reasons                        list reasons already on file
  help                           show this command list
  quit                           end the session`,
	Args: cobra.NoArgs,
	RunE: runSession,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg, st, err := open()
	if err != nil {
		return err
	}
	defer st.Close()

	policy := cfg.BuildPolicy()
	sess := &session{
		ledger:  points.NewLedger(st, policy),
		dir:     points.NewDirectory(st),
		policy:  policy,
		undoLog: points.NewUndoLog(policy.UndoDepth),
	}

	fmt.Fprintln(os.Stdout, `Attendance points session. Type "help" for commands, "quit" to exit.`)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stdout, "points> ")
		if !scanner.Scan() {
			fmt.Fprintln(os.Stdout)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		switch strings.ToLower(fields[0]) {
		case "quit", "exit":
			return nil
		case "help":
			sess.help()
		case "add":
			sess.report(sess.add(cmd.Context(), fields[1:]))
		case "undo":
			sess.report(sess.undo(cmd.Context()))
		case "show":
			sess.report(sess.show(cmd.Context(), fields[1:]))
		case "reasons":
			sess.report(sess.reasons(cmd.Context()))
		default:
			fmt.Fprintf(os.Stdout, "Unknown command %q. Type \"help\" for commands.\n", fields[0])
		}
	}
}

// =============================================================================
// SESSION STATE
// =============================================================================

type session struct {
	ledger  *points.Ledger
	dir     *points.Directory
	policy  points.Policy
	undoLog *points.UndoLog
}

// report prints command failures without ending the session.
func (s *session) report(err error) {
	if err != nil {
		fmt.Fprintln(os.Stdout, "Error:", err)
	}
}

func (s *session) help() {
	fmt.Fprintln(os.Stdout, `Commands:
  add ID DATE POINTS REASON...   record a point (dates MM-DD-YYYY)
  undo                           reverse the most recent add
  show ID                        print one employee's standing
  reasons                        list reasons already on file
  quit                           end the session`)
}

func (s *session) add(ctx context.Context, args []string) error {
	if len(args) < 4 {
		return fmt.Errorf("usage: add ID DATE POINTS REASON...")
	}
	id, err := parseEmployeeID(args[0])
	if err != nil {
		return err
	}
	magnitude, err := points.ParsePoints(args[2])
	if err != nil {
		return err
	}
	reason := strings.Join(args[3:], " ")

	// Capture the pre-add standing for the undo log before mutating.
	before, err := s.dir.Get(ctx, id)
	if err != nil {
		return err
	}
	entryID, err := s.ledger.AddInfraction(ctx, id, args[1], magnitude, reason, "", "")
	if err != nil {
		return err
	}
	s.undoLog.Push(points.UndoEntry{
		EventID:     entryID,
		EmployeeID:  id,
		Magnitude:   magnitude,
		PriorTotal:  before.Total,
		PriorAnchor: before.LastInfraction,
	})

	after, err := s.dir.Get(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%s (#%s): total %s, rolls off %s.\n",
		after.DisplayName(), after.ID, after.Total.Display(), orDash(after.RolloffDue.Display()))
	return nil
}

func (s *session) undo(ctx context.Context) error {
	entry, err := s.undoLog.Undo(ctx, s.ledger)
	if errors.Is(err, points.ErrEmptyHistory) {
		fmt.Fprintln(os.Stdout, "Nothing to undo.")
		return nil
	}
	if err != nil {
		return err
	}

	emp, err := s.dir.Get(ctx, entry.EmployeeID)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Removed %s point (entry #%s) for %s (#%s); total back to %s.\n",
		entry.Magnitude.Display(), entry.EventID, emp.DisplayName(), emp.ID, emp.Total.Display())
	return nil
}

func (s *session) show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: show ID")
	}
	id, err := parseEmployeeID(args[0])
	if err != nil {
		return err
	}
	emp, err := s.dir.Get(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%s (#%s): total %s (%s), last point %s, rolls off %s, perfect due %s.\n",
		emp.DisplayName(), emp.ID, emp.Total.Display(), s.policy.StatusFor(emp.Total),
		orDash(emp.LastInfraction.Display()), orDash(emp.RolloffDue.Display()),
		orDash(emp.PerfectDue.Display()))
	return nil
}

func (s *session) reasons(ctx context.Context) error {
	reasons, err := s.dir.ReasonOptions(ctx)
	if err != nil {
		return err
	}
	if len(reasons) == 0 {
		fmt.Fprintln(os.Stdout, "No reasons recorded yet.")
		return nil
	}
	fmt.Fprintln(os.Stdout, strings.Join(reasons, ", "))
	return nil
}
