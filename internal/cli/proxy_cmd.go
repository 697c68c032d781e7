package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haytac/chat-tokenizer/internal/config"
	"github.com/haytac/chat-tokenizer/internal/proxy"
)

// NewProxyCmd creates the 'proxy' command.
func NewProxyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Inspect the outbound proxy used for catalog fetches",
	}
	cmd.AddCommand(newProxyCheckCmd())
	return cmd
}

func newProxyCheckCmd() *cobra.Command {
	var proxyType, address, username, password string
	checkCmd := &cobra.Command{
		Use:   "check [target_url]",
		Short: "Check that a URL is reachable through the configured proxy",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if AppCfg == nil {
				return fmt.Errorf("configuration not loaded for proxy check")
			}
			p := AppCfg.Catalog.Proxy
			if cmd.Flags().Changed("address") {
				p = config.ProxyConfig{Type: proxyType, Address: address, Username: username, Password: password}
			}

			targetURL := proxy.DefaultCheckURL
			if len(args) > 0 {
				targetURL = args[0]
			}

			label := "direct connection"
			if p.Enabled() {
				label = fmt.Sprintf("%s proxy %s", p.Type, p.Address)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Checking %s against %s...\n", label, targetURL)

			checker := proxy.NewChecker(proxy.NewHTTPClientFactory(), AppCfg.Catalog.UserAgent)
			if err := checker.Check(cmd.Context(), &p, targetURL); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Check failed: %v\n", err)
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Check successful.")
			return nil
		},
	}
	checkCmd.Flags().StringVar(&proxyType, "type", "http", "proxy type (http, https, socks5)")
	checkCmd.Flags().StringVar(&address, "address", "", "proxy host:port (overrides catalog.proxy)")
	checkCmd.Flags().StringVar(&username, "username", "", "proxy username")
	checkCmd.Flags().StringVar(&password, "password", "", "proxy password")
	return checkCmd
}
