// Package cli implements the aiworkflow command-line entrypoint:
// run/resume a workflow synchronously, serve the webhook receiver, or
// run the scheduler — the CLI is itself one of the three ways a
// workflow run can be triggered, alongside the scheduler and webhook
// receiver. Grounded on AbdelazizMoustafa10m-Raven/internal/cli's root
// command shape (persistent flags, one subcommand per file, and an
// Execute() entry point).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagConfigPath string
	flagLogJSON    bool
)

var rootCmd = &cobra.Command{
	Use:   "aiworkflow",
	Short: "Run and manage declarative AI agent workflows",
	Long: `aiworkflow executes declarative multi-step workflows against pluggable
AI agent backends and tools, with durable checkpointing, retries, and a
circuit breaker around repeated failures.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "aiworkflow.toml", "Path to the engine config file")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false, "Emit structured execution logs as JSON instead of text")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newResumeCmd())
	rootCmd.AddCommand(newServeWebhookCmd())
	rootCmd.AddCommand(newScheduleCmd())
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
