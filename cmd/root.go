package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// exitCodeError carries a process exit code through cobra's error path.
// A run that completed but recorded failures exits 1; fatal errors
// (bad configuration, dependency cycles, cancellation) exit 2.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit code %d", e.code)
}

func (e *exitCodeError) Unwrap() error {
	return e.err
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pipectl",
	Short: "Bring up a CDC pipeline stack in dependency order",
	Long: `pipectl starts the services of a change-data-capture pipeline
(databases, brokers, Kafka Connect, and their companions) as local
containers, waits for each to become healthy before starting its
dependents, and registers the configured CDC connectors once the
stack is up.`,
	// SilenceUsage is set to true to prevent printing usage message on errors
	// handled by us (e.g. invalid arguments, failed bring-ups)
	SilenceUsage: true,
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute runs the root command and maps errors to process exit codes:
// 0 for a clean run, 1 when the run completed with failures, 2 for
// fatal errors.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "pipectl version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err == nil {
		return
	}
	var exitErr *exitCodeError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.code)
	}
	// Cobra prints the error, we just exit non-zero
	os.Exit(2)
}

func init() {
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newDownCmd())
	rootCmd.AddCommand(newVersionCmd())
}
