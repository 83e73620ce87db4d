package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"pipectl/internal/config"
	"pipectl/internal/orchestrator"
)

func newValidateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a stack configuration without starting anything",
		Long: `Parses and validates the configuration file, including the service
dependency graph, and reports the first problem found. Nothing is
started.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			// A well-formed file can still describe a cyclic graph.
			if _, err := orchestrator.Plan(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d services, %d connectors, configuration OK\n",
				configPath, len(cfg.Services), len(cfg.Connectors))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the stack configuration file (required)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
