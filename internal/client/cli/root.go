// Package cli implements the organlink-cli commands.
package cli

import (
	"bufio"
	"time"

	"github.com/dmitrijs2005/organlink/internal/client/client"
	"github.com/dmitrijs2005/organlink/internal/client/config"
	"github.com/spf13/cobra"
)

type options struct {
	configFile string
	serverURL  string
	timeout    time.Duration
}

// app is built by the root command before any subcommand runs.
type app struct {
	client *client.HTTPClient
	reader *bufio.Reader
}

// NewRootCmd creates the organlink-cli command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	a := &app{}

	cmd := &cobra.Command{
		Use:           "organlink-cli",
		Short:         "OrganLink identity client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("server") {
				cfg.ServerURL = opts.serverURL
			}
			if cmd.Flags().Changed("timeout") {
				cfg.RequestTimeout = opts.timeout
			}

			a.client = client.NewHTTPClient(cfg.ServerURL, cfg.RequestTimeout)
			a.reader = bufio.NewReader(cmd.InOrStdin())
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file path")
	cmd.PersistentFlags().StringVarP(&opts.serverURL, "server", "a", "", "server base URL")
	cmd.PersistentFlags().DurationVarP(&opts.timeout, "timeout", "t", 0, "request timeout")

	cmd.AddCommand(newRegisterCmd(a))
	cmd.AddCommand(newLoginCmd(a))
	cmd.AddCommand(newMeCmd(a))
	cmd.AddCommand(newActivityCmd(a))
	cmd.AddCommand(newLogoutCmd(a))

	return cmd
}
