package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marktoflow/workflow-engine/internal/config"
	"github.com/marktoflow/workflow-engine/internal/workflowdef"
)

type runFlags struct {
	Agent  string
	Inputs []string
}

func newRunCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run <workflow-file>",
		Short: "Execute a workflow definition from a fresh start",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflowFile(cmd.Context(), args[0], flags.Agent, flags.Inputs, "")
		},
	}

	cmd.Flags().StringVar(&flags.Agent, "agent", "", "Agent name to use, overriding config.engine.agent_primary")
	cmd.Flags().StringArrayVar(&flags.Inputs, "input", nil, "Workflow input in key=value form, may be repeated")
	return cmd
}

func newResumeCmd() *cobra.Command {
	var flags runFlags
	var runID string

	cmd := &cobra.Command{
		Use:   "resume <workflow-file>",
		Short: "Resume an interrupted run from its last checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if runID == "" {
				return fmt.Errorf("resume requires --run-id")
			}
			return runWorkflowFile(cmd.Context(), args[0], flags.Agent, flags.Inputs, runID)
		},
	}

	cmd.Flags().StringVar(&flags.Agent, "agent", "", "Agent name to use, overriding config.engine.agent_primary")
	cmd.Flags().StringArrayVar(&flags.Inputs, "input", nil, "Workflow input in key=value form, may be repeated")
	cmd.Flags().StringVar(&runID, "run-id", "", "Run id to resume")
	return cmd
}

func runWorkflowFile(ctx context.Context, path, agent string, rawInputs []string, resumeFrom string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read workflow file: %w", err)
	}
	wf, err := workflowdef.ParseFile(data)
	if err != nil {
		return fmt.Errorf("parse workflow: %w", err)
	}

	inputs, err := parseInputPairs(rawInputs)
	if err != nil {
		return err
	}

	cfg, err := loadConfigOrDefault()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	eng, _, err := buildEngine(cfg)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	if resumeFrom != "" {
		// A freshly built Engine starts uncancelled, but clear it
		// explicitly anyway: resuming is meant to work even after a
		// prior Cancel() on this same Engine, and this is the one
		// call site that exercises that contract.
		eng.Resume()
	}

	result, err := eng.Execute(ctx, wf, inputs, agent, resumeFrom)
	if err != nil {
		return fmt.Errorf("execute workflow: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	if result.Error != "" {
		return fmt.Errorf("workflow %s finished with status %s: %s", wf.ID, result.Status, result.Error)
	}
	return nil
}

func loadConfigOrDefault() (*config.Config, error) {
	if _, err := os.Stat(flagConfigPath); err != nil {
		return config.Default(), nil
	}
	return config.LoadFromFile(flagConfigPath)
}

// parseInputPairs converts "key=value" flag occurrences into an input
// map. Every value is kept as a string, and the template resolver does
// not convert it: a step input that is a whole placeholder for one of
// these values receives the string.
func parseInputPairs(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	inputs := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --input %q, expected key=value", pair)
		}
		inputs[key] = value
	}
	return inputs, nil
}
