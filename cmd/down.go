package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pipectl/internal/config"
	"pipectl/internal/docker"
	"pipectl/internal/orchestrator"
	"pipectl/pkg/logging"
)

func newDownCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Stop and remove the stack's containers",
		Long: `Stops and removes the containers of every service in the configuration,
dependents before their dependencies. Services that are not running
are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Init(logging.ParseLevel(logLevel), os.Stderr)

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			levels, err := orchestrator.Plan(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			manager := docker.NewManager()
			var failed int
			// Reverse start order: later levels depend on earlier ones.
			for i := len(levels) - 1; i >= 0; i-- {
				for _, name := range levels[i] {
					if err := manager.StopService(ctx, name); err != nil {
						logging.Error("Down", err, "failed to stop %s", name)
						failed++
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "stopped %s\n", name)
				}
			}
			if failed > 0 {
				return &exitCodeError{code: 1, err: fmt.Errorf("failed to stop %d service(s)", failed)}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the stack configuration file (required)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
