package cli

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/marktoflow/workflow-engine/internal/engine"
	"github.com/marktoflow/workflow-engine/internal/webhook"
	"github.com/marktoflow/workflow-engine/internal/workflowdef"
)

func newServeWebhookCmd() *cobra.Command {
	var addr, dir string

	cmd := &cobra.Command{
		Use:   "serve-webhook",
		Short: "Serve the HTTP webhook receiver over a directory of workflow definitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			workflows, err := loadWorkflowDir(dir)
			if err != nil {
				return fmt.Errorf("load workflows: %w", err)
			}

			cfg, err := loadConfigOrDefault()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			eng, registry, err := buildEngine(cfg)
			if err != nil {
				return fmt.Errorf("build engine: %w", err)
			}

			recv := webhook.New(eng, func(name string) (*engine.Workflow, bool) {
				wf, ok := workflows[name]
				return wf, ok
			})

			mux := http.NewServeMux()
			mux.Handle("/", recv)
			if registry != nil {
				mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
				fmt.Fprintf(os.Stderr, "aiworkflow: Prometheus metrics exposed on %s/metrics\n", addr)
			}

			fmt.Fprintf(os.Stderr, "aiworkflow: serving %d workflow(s) on %s\n", len(workflows), addr)
			return http.ListenAndServe(addr, mux)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Address to listen on")
	cmd.Flags().StringVar(&dir, "workflows-dir", "workflows", "Directory of .yaml/.yml workflow definitions")
	return cmd
}

// loadWorkflowDir parses every .yaml/.yml file in dir into an
// engine.Workflow, keyed by its declared ID.
func loadWorkflowDir(dir string) (map[string]*engine.Workflow, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	workflows := make(map[string]*engine.Workflow)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		wf, err := workflowdef.ParseFile(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", entry.Name(), err)
		}
		workflows[wf.ID] = wf
	}
	return workflows, nil
}
