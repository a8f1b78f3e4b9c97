package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/marktoflow/workflow-engine/internal/scheduler"
	"github.com/marktoflow/workflow-engine/internal/workflowdef"
)

// jobsDocument is the YAML shape of a --jobs file: a list of scheduled
// workflow triggers, each naming the workflow definition file it
// fires, its cron expression, and a fixed input map.
type jobsDocument struct {
	Jobs []jobDoc `yaml:"jobs"`
}

type jobDoc struct {
	ID       string         `yaml:"id"`
	Workflow string         `yaml:"workflow"`
	Schedule string         `yaml:"schedule"`
	Agent    string         `yaml:"agent"`
	Inputs   map[string]any `yaml:"inputs"`
}

func newScheduleCmd() *cobra.Command {
	var jobsPath string
	var maxConcurrent int64

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the cron-style scheduler until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := loadJobs(jobsPath)
			if err != nil {
				return fmt.Errorf("load jobs: %w", err)
			}

			cfg, err := loadConfigOrDefault()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			eng, _, err := buildEngine(cfg)
			if err != nil {
				return fmt.Errorf("build engine: %w", err)
			}

			sched := scheduler.New(eng, jobs, scheduler.WithMaxConcurrent(maxConcurrent))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(os.Stderr, "aiworkflow: scheduler running %d job(s)\n", len(jobs))
			if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&jobsPath, "jobs", "jobs.yaml", "Path to the scheduler jobs YAML file")
	cmd.Flags().Int64Var(&maxConcurrent, "max-concurrent", 4, "Maximum number of concurrently executing scheduled runs")
	return cmd
}

func loadJobs(path string) ([]scheduler.Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc jobsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse jobs file: %w", err)
	}

	jobs := make([]scheduler.Job, 0, len(doc.Jobs))
	for _, jd := range doc.Jobs {
		wfData, err := os.ReadFile(jd.Workflow)
		if err != nil {
			return nil, fmt.Errorf("job %s: read workflow %s: %w", jd.ID, jd.Workflow, err)
		}
		wf, err := workflowdef.ParseFile(wfData)
		if err != nil {
			return nil, fmt.Errorf("job %s: parse workflow %s: %w", jd.ID, jd.Workflow, err)
		}

		spec, err := scheduler.ParseCronSpec(jd.Schedule)
		if err != nil {
			return nil, fmt.Errorf("job %s: %w", jd.ID, err)
		}

		jobs = append(jobs, scheduler.Job{
			ID:       jd.ID,
			Workflow: wf,
			Inputs:   jd.Inputs,
			Agent:    jd.Agent,
			Spec:     spec,
		})
	}
	return jobs, nil
}
