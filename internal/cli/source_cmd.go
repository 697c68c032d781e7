package cli

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/haytac/chat-tokenizer/internal/app"
	"github.com/haytac/chat-tokenizer/internal/catalog"
	"github.com/haytac/chat-tokenizer/internal/database"
	"github.com/haytac/chat-tokenizer/internal/emote"
	"github.com/haytac/chat-tokenizer/internal/proxy"
)

// NewSourceCmd creates the 'source' command and its subcommands.
func NewSourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "source",
		Short:   "Manage remote emote catalog sources",
		Aliases: []string{"sources"},
	}
	cmd.AddCommand(newSourceAddCmd())
	cmd.AddCommand(newSourceListCmd())
	cmd.AddCommand(newSourceToggleCmd("enable", true))
	cmd.AddCommand(newSourceToggleCmd("disable", false))
	cmd.AddCommand(newSourceRemoveCmd())
	cmd.AddCommand(newSourceRefreshCmd())
	return cmd
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid source ID %q: %w", arg, err)
	}
	return id, nil
}

func newSourceAddCmd() *cobra.Command {
	var (
		channel     string
		provider    string
		freqSeconds int
		enabled     bool
	)
	addCmd := &cobra.Command{
		Use:   "add <name> <url>",
		Short: "Add a catalog source refreshed by the serve command",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if !cmd.Flags().Changed("freq") {
				freqSeconds = AppCfg.DefaultRefreshSeconds
			}
			src := &database.CatalogSource{
				Name:             args[0],
				URL:              args[1],
				Scope:            scopeFor(channel),
				Provider:         provider,
				FrequencySeconds: freqSeconds,
				IsEnabled:        enabled,
			}
			id, err := database.NewSourceStore(db).CreateSource(cmd.Context(), src)
			if err != nil {
				return fmt.Errorf("failed to add source: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Source '%s' added successfully with ID: %d\n", src.Name, id)
			return nil
		},
	}
	addCmd.Flags().StringVarP(&channel, "channel", "c", "", "channel ID the catalog belongs to (default: global scope)")
	addCmd.Flags().StringVar(&provider, "provider", "", "provider label attached to the catalog's emotes")
	addCmd.Flags().IntVarP(&freqSeconds, "freq", "f", 600, "refresh frequency in seconds (default: default_refresh_seconds)")
	addCmd.Flags().BoolVar(&enabled, "enabled", true, "enable the source immediately")
	return addCmd
}

func newSourceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			sources, err := database.NewSourceStore(db).ListSources(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list sources: %w", err)
			}
			if len(sources) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No catalog sources configured.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSCOPE\tFREQ\tENABLED\tLAST FETCHED\tURL")
			for _, s := range sources {
				last := "never"
				if s.LastFetchedAt != nil {
					last = s.LastFetchedAt.Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%ds\t%t\t%s\t%s\n", s.ID, s.Name, s.ScopeLabel(), s.FrequencySeconds, s.IsEnabled, last, s.URL)
			}
			return w.Flush()
		},
	}
}

func newSourceToggleCmd(use string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: fmt.Sprintf("%s a catalog source", map[bool]string{true: "Enable", false: "Disable"}[enabled]),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.NewSourceStore(db).SetSourceEnabled(cmd.Context(), id, enabled); err != nil {
				return fmt.Errorf("failed to %s source: %w", use, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Source %d %sd\n", id, use)
			return nil
		},
	}
}

func newSourceRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a catalog source; its emotes are kept as manual emotes",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			err = database.NewSourceStore(db).DeleteSource(cmd.Context(), id)
			if errors.Is(err, database.ErrNotFound) {
				return fmt.Errorf("source %d not found", id)
			}
			if err != nil {
				return fmt.Errorf("failed to remove source: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Source %d removed\n", id)
			return nil
		},
	}
}

func newSourceRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <id>",
		Short: "Fetch a catalog source once and store its emotes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			sources := database.NewSourceStore(db)
			src, err := sources.GetSourceByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			if src == nil {
				return fmt.Errorf("source %d not found", id)
			}

			fetcher := catalog.NewHTTPFetcher(proxy.NewHTTPClientFactory(), AppCfg.Catalog.UserAgent)
			worker := app.NewCatalogWorker(sources, database.NewEmoteStore(db), emote.NewStore(0), fetcher, AppCfg)
			status := worker.RefreshContext(cmd.Context(), src)
			fmt.Fprintf(cmd.OutOrStdout(), "Source %d refresh: %s\n", id, status)
			if status != "success" && status != "not_modified" && status != "dry_run" {
				return fmt.Errorf("refresh of source %d failed: %s", id, status)
			}
			return nil
		},
	}
}
