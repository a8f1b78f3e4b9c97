// Package tool provides the engine's built-in ToolRegistry and a small
// set of Tool implementations, adapted from the graph/tool package.
// graph/tool's Tool interface is Name()/Call(ctx, input); this engine's
// is Execute(ctx, operation, inputs) so that a single registered tool
// can expose several named operations (the "<tool>.<operation>" action
// grammar). Built-ins here therefore reshape, rather than reuse
// verbatim, graph/tool's HTTPTool and MockTool bodies.
package tool

import (
	"sync"

	"github.com/marktoflow/workflow-engine/internal/engine"
)

// Registry is a simple in-memory engine.ToolRegistry. All registered
// tools are currently agent-agnostic: agentName is accepted (per the
// interface) but does not narrow lookup, mirroring graph/tool's own
// registry, which has no concept of per-agent tool scoping either.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]engine.Tool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]engine.Tool)}
}

// NewDefaultRegistry returns a Registry pre-populated with the engine's
// built-in tools: "tool" (echo, upper, lower, concat) and "http" (get, post).
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("tool", &BuiltinTool{})
	r.Register("http", NewHTTPTool())
	return r
}

// Register adds or replaces a tool under name.
func (r *Registry) Register(name string, t engine.Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[name] = t
}

// Unregister removes a tool, if present.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// HasTool implements engine.ToolRegistry.
func (r *Registry) HasTool(name, agentName string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// GetTool implements engine.ToolRegistry.
func (r *Registry) GetTool(name, agentName string) (engine.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}
