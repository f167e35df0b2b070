// Package commands implements the arabah command line.
//
// Every operation command runs one request through its orchestrator, retrying failed
// attempts up to --retries times, and prints the result as JSON. The serve command runs
// the status server.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/arabah/arabah/app"
	"github.com/arabah/arabah/config"
	"github.com/arabah/arabah/metrics"
	"github.com/arabah/arabah/operations"
	"github.com/arabah/arabah/request"
)

type cli struct {
	configPath string
	retries    int
	retryDelay time.Duration
	appOpts    []app.Option
}

// NewRootCommand builds the arabah command tree. opts are passed to app.New for every
// operation command.
func NewRootCommand(opts ...app.Option) *cobra.Command {
	c := &cli{appOpts: opts}

	root := &cobra.Command{
		Use:           "arabah",
		Short:         "Arabah shopping client and status server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "/etc/arabah/config.yaml", "path to config file")
	root.PersistentFlags().IntVar(&c.retries, "retries", 0, "retry a failed request up to this many times")
	root.PersistentFlags().DurationVar(&c.retryDelay, "retry-delay", time.Second, "wait between retries")

	root.AddCommand(
		versionCmd(),
		validateCmd(c),
		serveCmd(c),
	)
	root.AddCommand(authCmds(c)...)
	root.AddCommand(catalogCmds(c)...)
	root.AddCommand(accountCmds(c)...)
	return root
}

// withApp wires the runtime for one command and pushes its metrics when it is done.
func (c *cli) withApp(fn func(cmd *cobra.Command, args []string, a *app.App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig(c.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		opts := slices.Clone(c.appOpts)
		// stdout carries the result
		if cfg.Logging.Output == "stdout" {
			opts = append([]app.Option{app.WithLogWriter(cmd.ErrOrStderr())}, opts...)
		}

		var registry *metrics.PushRegistry
		if cfg.Monitoring.VictoriaMetricsURL != "" {
			hostname, err := os.Hostname()
			if err != nil {
				return fmt.Errorf("failed to get hostname: %w", err)
			}
			registry = metrics.NewPushRegistry(metrics.PushConfig{
				URL:      cfg.Monitoring.VictoriaMetricsURL,
				Prefix:   cfg.Monitoring.MetricsPrefix,
				Job:      cfg.Monitoring.JobName,
				Instance: hostname,
				Timeout:  cfg.API.Timeout,
			})
			recorder, err := metrics.NewRequestMetrics(registry)
			if err != nil {
				return fmt.Errorf("failed to create metrics: %w", err)
			}
			opts = append(opts, app.WithRecorder(recorder))
		}

		a, err := app.New(cfg, opts...)
		if err != nil {
			return err
		}
		defer a.Close()

		runErr := fn(cmd, args, a)

		if registry != nil {
			if err := registry.Push(context.WithoutCancel(cmd.Context())); err != nil {
				a.Logger.Warn("failed to push metrics", "error", err)
			}
		}
		return runErr
	}
}

// execute starts o with params and retries while the attempt fails, up to c.retries
// times. A successful payload is printed to out.
func execute[P, T any](ctx context.Context, c *cli, out io.Writer, o *request.Orchestrator[P, T], params P) error {
	st, err := o.Start(ctx, params)
	for retries := c.retries; err == nil && st.Kind() == request.Failure && retries > 0; retries-- {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelay):
		}
		st, err = o.Retry(ctx)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", o.Name(), err)
	}

	if payload, ok := st.Payload(); ok {
		return printJSON(out, payload)
	}
	if st.Err() == nil {
		return fmt.Errorf("%s: ended in state %s", o.Name(), st.Kind())
	}
	return fmt.Errorf("%s: %w", o.Name(), st.Err())
}

// runner is a request bound to its input.
type runner func(ctx context.Context, c *cli, out io.Writer) error

func bind[P, T any](o *request.Orchestrator[P, T], params P) runner {
	return func(ctx context.Context, c *cli, out io.Writer) error {
		return execute(ctx, c, out, o, params)
	}
}

// noParamsCmd builds a command for an operation without input.
func noParamsCmd(c *cli, use, short string, pick func(*operations.Set) runner) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(cmd *cobra.Command, _ []string, a *app.App) error {
			return pick(a.Ops)(cmd.Context(), c, cmd.OutOrStdout())
		}),
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
