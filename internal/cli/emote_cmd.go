package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/haytac/chat-tokenizer/internal/database"
	"github.com/haytac/chat-tokenizer/internal/emote"
)

// NewEmoteCmd creates the 'emote' command and its subcommands.
func NewEmoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "emote",
		Short:   "Manage manually defined emotes",
		Aliases: []string{"emotes"},
	}
	cmd.AddCommand(newEmoteAddCmd())
	cmd.AddCommand(newEmoteListCmd())
	cmd.AddCommand(newEmoteRemoveCmd())
	return cmd
}

func newEmoteAddCmd() *cobra.Command {
	var (
		channel     string
		provider    string
		zeroWidth   bool
		cheerAmount int
		cheerColor  string
	)
	addCmd := &cobra.Command{
		Use:   "add <name> <id>",
		Short: "Add or replace an emote in the global scope or a channel scope",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			d := &emote.Descriptor{Name: args[0], ID: args[1], Provider: provider}
			if zeroWidth {
				d.Flags |= emote.FlagZeroWidth
			}
			if cmd.Flags().Changed("cheer-amount") {
				d.Cheer = &emote.Cheer{Amount: cheerAmount, Color: cheerColor}
			}

			scope := scopeFor(channel)
			id, err := database.NewEmoteStore(db).UpsertEmote(cmd.Context(), database.EmoteFromDescriptor(scope, d, nil))
			if err != nil {
				return fmt.Errorf("failed to add emote: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Emote '%s' saved in scope %s with ID: %d\n", d.Name, database.ScopeLabel(scope), id)
			return nil
		},
	}
	addCmd.Flags().StringVarP(&channel, "channel", "c", "", "channel ID (default: global scope)")
	addCmd.Flags().StringVar(&provider, "provider", "", "emote provider label")
	addCmd.Flags().BoolVar(&zeroWidth, "zero-width", false, "overlay the emote on the preceding emote")
	addCmd.Flags().IntVar(&cheerAmount, "cheer-amount", 0, "mark the emote as a cheer of this amount")
	addCmd.Flags().StringVar(&cheerColor, "cheer-color", "", "cheer tier color")
	return addCmd
}

func newEmoteListCmd() *cobra.Command {
	var channel string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the emotes of a scope",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			scope := scopeFor(channel)
			emotes, err := database.NewEmoteStore(db).ListByScope(cmd.Context(), scope)
			if err != nil {
				return fmt.Errorf("failed to list emotes: %w", err)
			}
			if len(emotes) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No emotes in scope %s.\n", database.ScopeLabel(scope))
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tID\tFLAGS\tPROVIDER\tSOURCE")
			for _, e := range emotes {
				source := "manual"
				if e.SourceID != nil {
					source = fmt.Sprintf("#%d", *e.SourceID)
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", e.Name, e.EmoteID, e.Flags, e.Provider, source)
			}
			return w.Flush()
		},
	}
	listCmd.Flags().StringVarP(&channel, "channel", "c", "", "channel ID (default: global scope)")
	return listCmd
}

func newEmoteRemoveCmd() *cobra.Command {
	var channel string
	removeCmd := &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Remove an emote from a scope",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			scope := scopeFor(channel)
			err = database.NewEmoteStore(db).DeleteEmote(cmd.Context(), scope, args[0])
			if errors.Is(err, database.ErrNotFound) {
				return fmt.Errorf("emote '%s' not found in scope %s", args[0], database.ScopeLabel(scope))
			}
			if err != nil {
				return fmt.Errorf("failed to remove emote: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Emote '%s' removed from scope %s\n", args[0], database.ScopeLabel(scope))
			return nil
		},
	}
	removeCmd.Flags().StringVarP(&channel, "channel", "c", "", "channel ID (default: global scope)")
	return removeCmd
}
