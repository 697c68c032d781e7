package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/haytac/chat-tokenizer/internal/config"
	"github.com/haytac/chat-tokenizer/internal/database"
	"github.com/haytac/chat-tokenizer/internal/logging"
)

var (
	cfgFile string
	dryRun  bool
	AppCfg  *config.AppConfig // populated in PersistentPreRunE
)

// RootCmd is the chat-tokenizer command tree.
var RootCmd = NewRootCmd()

// NewRootCmd builds the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "chat-tokenizer",
		Short: "Tokenize live chat messages into emote, mention and link annotations.",
		Long: `chat-tokenizer splits chat messages from Twitch, Kick and YouTube into ranged
emote, mention, link and void tokens using global and per-channel emote catalogs.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loadedCfg, err := config.LoadConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("error loading config: %w", err)
			}
			AppCfg = loadedCfg

			logging.Setup(AppCfg.Log)
			AppCfg.DryRun = dryRun
			if dryRun {
				log.Info().Msg("Dry run enabled: catalog refreshes will not write to the database")
			}

			if AppCfg.DatabasePath == "" {
				return fmt.Errorf("database_path is not configured")
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml, $HOME/.chat-tokenizer/config.yaml)")
	root.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "fetch catalogs without persisting or installing them")

	root.AddCommand(NewServeCmd())
	root.AddCommand(NewTokenizeCmd())
	root.AddCommand(NewEmoteCmd())
	root.AddCommand(NewSourceCmd())
	root.AddCommand(NewProxyCmd())
	root.AddCommand(NewDbCmd())
	return root
}

// Execute runs the root command.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openDB() (*database.DB, error) {
	if AppCfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	db, err := database.Connect(AppCfg.DatabasePath, AppCfg.MigrationsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// scopeFor maps the --channel flag onto a storage scope.
func scopeFor(channel string) string {
	if channel == "" {
		return database.GlobalScope
	}
	return channel
}
