package cli

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/haytac/chat-tokenizer/internal/app"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"run"},
		Short:   "Start the tokenizer API and the catalog refresh scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			if AppCfg == nil {
				return fmt.Errorf("critical: AppCfg not loaded")
			}
			if listen != "" {
				AppCfg.ListenAddr = listen
			}

			application, err := app.NewApplication(AppCfg)
			if err != nil {
				log.Error().Err(err).Msg("Failed to initialize application")
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return application.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "API listen address (overrides listen_addr)")
	return cmd
}
