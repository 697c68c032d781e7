package cli

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/haytac/chat-tokenizer/internal/database"
)

// NewDbCmd creates the 'db' command for database operations.
func NewDbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Back up, restore and inspect the emote database (SQLite)",
	}
	cmd.AddCommand(newDbBackupCmd())
	cmd.AddCommand(newDbRestoreCmd())
	cmd.AddCommand(newDbStatsCmd())
	return cmd
}

func newDbStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show emote counts per scope and the number of catalog sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			emotes := database.NewEmoteStore(db)
			scopes, err := emotes.ListScopes(cmd.Context())
			if err != nil {
				return err
			}
			sources, err := database.NewSourceStore(db).ListSources(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SCOPE\tEMOTES")
			total := 0
			for _, scope := range scopes {
				rows, err := emotes.ListByScope(cmd.Context(), scope)
				if err != nil {
					return err
				}
				total += len(rows)
				fmt.Fprintf(w, "%s\t%d\n", database.ScopeLabel(scope), len(rows))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d emotes in %d scopes, %d catalog sources\n", total, len(scopes), len(sources))
			return nil
		},
	}
}

func newDbBackupCmd() *cobra.Command {
	var outputPath string
	backupCmd := &cobra.Command{
		Use:   "backup",
		Short: "Backup the SQLite database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if AppCfg == nil {
				return fmt.Errorf("configuration not loaded for db backup")
			}
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if outputPath == "" {
				dbDir := filepath.Dir(AppCfg.DatabasePath)
				dbName := strings.TrimSuffix(filepath.Base(AppCfg.DatabasePath), filepath.Ext(AppCfg.DatabasePath))
				timestamp := time.Now().Format("20060102-150405")
				outputPath = filepath.Join(dbDir, fmt.Sprintf("%s-%s.bak.db", dbName, timestamp))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Writing snapshot of %s to %s\n", db.Path(), outputPath)
			if err := db.Backup(cmd.Context(), outputPath); err != nil {
				return fmt.Errorf("database backup failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database backup successful.")
			return nil
		},
	}
	backupCmd.Flags().StringVarP(&outputPath, "output", "o", "", "backup file path (default: <db_dir>/<db_name>-<timestamp>.bak.db)")
	return backupCmd
}

func newDbRestoreCmd() *cobra.Command {
	var yes bool
	restoreCmd := &cobra.Command{
		Use:   "restore <backup_file_path>",
		Short: "Restore the SQLite database from a backup file (WARNING: Overwrites current DB)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputPath := args[0]
			if AppCfg == nil {
				return fmt.Errorf("configuration not loaded for db restore")
			}

			if !yes {
				fmt.Fprintf(cmd.OutOrStdout(), "WARNING: This will overwrite the current database at '%s' with the backup from '%s'.\n", AppCfg.DatabasePath, inputPath)
				fmt.Fprint(cmd.OutOrStdout(), "Are you sure you want to continue? (yes/no): ")
				confirm, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if strings.TrimSpace(confirm) != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "Restore cancelled.")
					return nil
				}
			}

			db, err := database.Connect(AppCfg.DatabasePath, "")
			if err != nil {
				return fmt.Errorf("failed to open current database: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Restoring database...")
			if err := db.Restore(inputPath); err != nil {
				return fmt.Errorf("database restore failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Database restore successful. Please restart the application if it is running.")
			return nil
		},
	}
	restoreCmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return restoreCmd
}
