package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arabah/arabah/buildinfo"
	"github.com/arabah/arabah/config"
	"github.com/arabah/arabah/server"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "arabah %s\n", buildinfo.Get())
			return nil
		},
	}
}

func validateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.LoadConfig(c.configPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration validation successful: %s\n", c.configPath)
			return nil
		},
	}
}

func serveCmd(c *cli) *cobra.Command {
	var listen, refresh string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the status server",
		Long: `Run the status server. List operations are refreshed on the configured
schedules; --refresh replaces them, e.g. "home,categories:*/15 * * * *;notifications:@hourly".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []server.Option
			if listen != "" {
				opts = append(opts, server.WithListenAddr(listen))
			}
			if refresh != "" {
				opts = append(opts, server.WithRefresh(refresh))
			}
			opts = append(opts, server.WithAppOptions(c.appOpts...))

			srv, err := server.New(c.configPath, opts...)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}
			return srv.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address, overrides the config")
	cmd.Flags().StringVar(&refresh, "refresh", "", "refresh schedules, overrides the config")
	return cmd
}
