package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

// =============================================================================
// BACKUP COMMAND
// =============================================================================

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Write a consistent copy of the database",
	Long: `Write a consistent snapshot of the database to a timestamped file in the
target directory. The snapshot is taken with VACUUM INTO, so it is safe
while other commands are reading.`,
	Args: cobra.NoArgs,
	RunE: runBackup,
}

var backupDir string

func init() {
	backupCmd.Flags().StringVar(&backupDir, "dir", ".", "Directory for the backup file")
	rootCmd.AddCommand(backupCmd)
}

func runBackup(cmd *cobra.Command, args []string) error {
	_, st, err := open()
	if err != nil {
		return err
	}
	defer st.Close()

	stamp := time.Now().Format("20060102_150405")
	dest := filepath.Join(backupDir, fmt.Sprintf("attendance_backup_%s.db", stamp))
	if err := st.Backup(cmd.Context(), dest); err != nil {
		return fmt.Errorf("failed to back up database: %w", err)
	}
	fmt.Fprintf(os.Stdout, "Backup saved as %s\n", dest)
	return nil
}
