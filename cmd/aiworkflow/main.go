// Command aiworkflow runs, resumes, schedules, and serves webhook
// triggers for declarative AI agent workflows.
package main

import (
	"os"

	"github.com/marktoflow/workflow-engine/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
