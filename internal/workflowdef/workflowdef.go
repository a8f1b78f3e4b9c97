// Package workflowdef is the engine's external workflow parser: it
// turns a YAML workflow document into the validated engine.Workflow
// shape the engine consumes. Grounded on kadirpekel-hector/pkg/config.Loader's
// own load pipeline (parse bytes -> raw map -> mapstructure decode ->
// defaults -> validate), narrowed from hector's generic config
// document to this engine's Workflow/Step shape.
package workflowdef

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/marktoflow/workflow-engine/internal/engine"
)

// Document is the raw YAML shape a workflow file decodes into, before
// it is compiled into an engine.Workflow. Field names follow the
// engine's own data-model vocabulary rather than Go's own naming so
// workflow authors see the engine's terms directly in their YAML.
type Document struct {
	ID             string                 `yaml:"id" mapstructure:"id"`
	Name           string                 `yaml:"name" mapstructure:"name"`
	Steps          []StepDoc              `yaml:"steps" mapstructure:"steps"`
	InputParams    []InputParamDoc        `yaml:"input_params" mapstructure:"input_params"`
	RequiredTools  []string               `yaml:"required_tools" mapstructure:"required_tools"`
	ErrorHandling  string                 `yaml:"error_handling" mapstructure:"error_handling"`
	CompatibleWith []string               `yaml:"compatible_agents" mapstructure:"compatible_agents"`
	Extra          map[string]interface{} `yaml:",inline" mapstructure:"-"`
}

// StepDoc is one step entry in a workflow document.
type StepDoc struct {
	ID             string                 `yaml:"id" mapstructure:"id"`
	Name           string                 `yaml:"name" mapstructure:"name"`
	Action         string                 `yaml:"action" mapstructure:"action"`
	Inputs         map[string]interface{} `yaml:"inputs" mapstructure:"inputs"`
	OutputVariable string                 `yaml:"output_variable" mapstructure:"output_variable"`
	Conditions     []string               `yaml:"conditions" mapstructure:"conditions"`
	MaxRetries     int                    `yaml:"max_retries" mapstructure:"max_retries"`
	AgentHints     map[string]interface{} `yaml:"agent_hints" mapstructure:"agent_hints"`
}

// InputParamDoc declares one of a workflow's accepted inputs.
type InputParamDoc struct {
	Name     string      `yaml:"name" mapstructure:"name"`
	Required bool        `yaml:"required" mapstructure:"required"`
	Default  interface{} `yaml:"default" mapstructure:"default"`
}

// Parse decodes raw YAML bytes into a Document: YAML -> a generic map
// (so mapstructure can normalize the loosely-typed sections the way
// hector's loader normalizes its own config map) -> the typed
// Document.
func Parse(data []byte) (*Document, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("workflowdef: parse yaml: %w", err)
	}

	var doc Document
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &doc,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, fmt.Errorf("workflowdef: build decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("workflowdef: decode document: %w", err)
	}
	return &doc, nil
}

// Build compiles a parsed Document into the engine.Workflow shape,
// validating the document's own well-formedness (distinct from the
// engine's pre-run validation, which checks the compiled Workflow
// against a live tool registry and agent).
func Build(doc *Document) (*engine.Workflow, error) {
	if doc.ID == "" {
		return nil, fmt.Errorf("workflowdef: workflow id is required")
	}
	// Empty workflows are valid (B1): zero steps, immediate completion.
	steps := make([]engine.Step, len(doc.Steps))
	for i, sd := range doc.Steps {
		if sd.Action == "" {
			return nil, fmt.Errorf("workflowdef: step %d (%s): action is required", i, sd.ID)
		}
		steps[i] = engine.Step{
			ID:             sd.ID,
			Name:           sd.Name,
			Action:         sd.Action,
			Inputs:         sd.Inputs,
			OutputVariable: sd.OutputVariable,
			Conditions:     sd.Conditions,
			ErrorHandling:  engine.StepErrorHandling{MaxRetries: sd.MaxRetries},
			AgentHints:     sd.AgentHints,
		}
	}

	params := make([]engine.InputParam, len(doc.InputParams))
	for i, p := range doc.InputParams {
		params[i] = engine.InputParam{Name: p.Name, Required: p.Required, Default: p.Default}
	}

	handling, err := parseErrorHandling(doc.ErrorHandling)
	if err != nil {
		return nil, err
	}

	return &engine.Workflow{
		ID:            doc.ID,
		Name:          doc.Name,
		Steps:         steps,
		InputParams:   params,
		RequiredTools: doc.RequiredTools,
		ErrorHandling: handling,
		Compatible:    compatibilityPredicate(doc.CompatibleWith),
	}, nil
}

// ParseFile is the convenience entry point: parse and compile the
// contents of a workflow YAML file in one call. The caller reads the file.
func ParseFile(data []byte) (*engine.Workflow, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Build(doc)
}

func parseErrorHandling(s string) (engine.ErrorHandling, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "continue":
		return engine.ErrorHandlingContinue, nil
	case "stop":
		return engine.ErrorHandlingStop, nil
	case "rollback":
		return engine.ErrorHandlingRollback, nil
	default:
		return "", fmt.Errorf("workflowdef: unknown error_handling %q", s)
	}
}

// compatibilityPredicate builds an engine.CompatibilityFunc from a
// document's declared compatible_agents list. An empty list yields a nil
// predicate, which engine.Workflow treats as compatible with every agent.
func compatibilityPredicate(allowed []string) engine.CompatibilityFunc {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	return func(agentName string) bool {
		_, ok := set[agentName]
		return ok
	}
}
