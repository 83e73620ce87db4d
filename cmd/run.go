package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pipectl/internal/config"
	"pipectl/internal/connector"
	"pipectl/internal/docker"
	"pipectl/internal/orchestrator"
	"pipectl/internal/reporting"
	"pipectl/pkg/logging"
)

func newRunCmd() *cobra.Command {
	var (
		configPath  string
		timeout     time.Duration
		concurrency int
		dryRun      bool
		logLevel    string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Bring up the stack and register connectors",
		Long: `Loads the stack configuration, starts every service as a container in
dependency order, waits for each health check, and registers the
configured CDC connectors against Kafka Connect. With --dry-run the
start plan is printed instead and nothing is executed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Init(logging.ParseLevel(logLevel), os.Stderr)

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("concurrency") {
				cfg.Defaults.Concurrency = concurrency
			}
			if cmd.Flags().Changed("timeout") {
				for i := range cfg.Services {
					cfg.Services[i].StartupTimeout = config.Duration{Duration: timeout}
				}
			}

			if dryRun {
				return printPlan(cmd, cfg)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			o := orchestrator.New(cfg, docker.NewManager(), connector.NewRegistrar())
			report, runErr := o.Run(ctx)

			// Show partial outcomes even on a cancelled run.
			if len(report.Services) > 0 || len(report.Connectors) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), reporting.Render(report))
			}
			if runErr != nil {
				return runErr
			}
			if report.HasFailures() {
				return &exitCodeError{code: report.ExitCode(), err: fmt.Errorf("run completed with failures")}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the stack configuration file (required)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Override the startup timeout for every service")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Maximum number of services starting at the same time")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the start plan without starting anything")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

// printPlan writes the dependency-level start plan and the connectors
// that would be registered.
func printPlan(cmd *cobra.Command, cfg config.Config) error {
	levels, err := orchestrator.Plan(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Start plan:")
	for i, level := range levels {
		fmt.Fprintf(out, "  %d.", i+1)
		for _, name := range level {
			fmt.Fprintf(out, " %s", name)
		}
		fmt.Fprintln(out)
	}
	if len(cfg.Connectors) > 0 {
		fmt.Fprintln(out, "Connectors:")
		for _, cc := range cfg.Connectors {
			fmt.Fprintf(out, "  %s -> %s\n", cc.Name, cc.Endpoint)
		}
	}
	return nil
}
