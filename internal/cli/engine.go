package cli

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/marktoflow/workflow-engine/internal/agent/anthropic"
	"github.com/marktoflow/workflow-engine/internal/agent/google"
	"github.com/marktoflow/workflow-engine/internal/agent/openai"
	"github.com/marktoflow/workflow-engine/internal/config"
	"github.com/marktoflow/workflow-engine/internal/engine"
	"github.com/marktoflow/workflow-engine/internal/engine/emit"
	"github.com/marktoflow/workflow-engine/internal/engine/store"
	"github.com/marktoflow/workflow-engine/internal/tool"
)

// buildStore opens the Store backend named by cfg.Store.Backend.
func buildStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case "", "memory":
		return store.NewMemStore(), nil
	case "file":
		if cfg.Store.Path == "" {
			return nil, &engine.EngineError{Code: "missing_store_path", Message: fmt.Sprintf("store backend %q requires a path", cfg.Store.Backend)}
		}
		return store.NewFileStore(cfg.Store.Path)
	case "sqlite":
		if cfg.Store.Path == "" {
			return nil, &engine.EngineError{Code: "missing_store_path", Message: fmt.Sprintf("store backend %q requires a path", cfg.Store.Backend)}
		}
		return store.NewSQLiteStore(cfg.Store.Path)
	case "mysql":
		if cfg.Store.DSN == "" {
			return nil, &engine.EngineError{Code: "missing_store_dsn", Message: fmt.Sprintf("store backend %q requires a dsn", cfg.Store.Backend)}
		}
		return store.NewMySQLStore(cfg.Store.DSN)
	default:
		return nil, &engine.EngineError{Code: "unknown_store_backend", Message: fmt.Sprintf("unknown store backend: %s", cfg.Store.Backend)}
	}
}

// buildAgents constructs one AgentAdapter per entry in cfg.Agents,
// reading each provider's API key from the environment variable named
// by APIKeyEnv.
func buildAgents(cfg *config.Config) (map[string]engine.AgentAdapter, error) {
	agents := make(map[string]engine.AgentAdapter, len(cfg.Agents))
	for name, ac := range cfg.Agents {
		apiKey := os.Getenv(ac.APIKeyEnv)
		switch ac.Provider {
		case "anthropic":
			agents[name] = anthropic.New(apiKey, ac.Model)
		case "openai":
			agents[name] = openai.New(apiKey, ac.Model)
		case "google":
			agents[name] = google.New(apiKey, ac.Model)
		default:
			return nil, &engine.EngineError{Code: "unknown_agent_provider", Message: fmt.Sprintf("agent %q: unknown provider %q", name, ac.Provider)}
		}
	}
	return agents, nil
}

// buildEngine wires a config.Config into a ready-to-run engine.Engine:
// store backend, every configured agent adapter, the built-in tool
// registry, retry policy, and circuit breaker all derived from cfg.
// When cfg.Observability.MetricsEnabled, it also returns the
// Prometheus registry those metrics were registered against, so a
// caller (e.g. serve-webhook) can expose it over /metrics; the
// registry is nil when metrics are disabled.
func buildEngine(cfg *config.Config) (*engine.Engine, *prometheus.Registry, error) {
	st, err := buildStore(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("build store: %w", err)
	}

	agents, err := buildAgents(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("build agents: %w", err)
	}

	var logEmitter emit.Emitter = emit.NewLogEmitter(os.Stderr, flagLogJSON)
	if cfg.Observability.TracingEnabled {
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
		if err != nil {
			return nil, nil, fmt.Errorf("build trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
		logEmitter = emit.NewOtelEmitter(tp.Tracer("aiworkflow"), logEmitter)
	}

	opts := []engine.Option{
		engine.WithToolRegistry(tool.NewDefaultRegistry()),
		engine.WithConfig(&engine.Config{AgentPrimary: cfg.Engine.AgentPrimary, Extra: cfg.Extra}),
		engine.WithRetryPolicy(engine.RetryPolicy{
			MaxRetries:      cfg.Engine.RetryMaxAttempts,
			BaseDelay:       cfg.Engine.RetryBaseDelay(),
			MaxDelay:        cfg.Engine.RetryMaxDelay(),
			ExponentialBase: cfg.Engine.RetryExponentialBase,
			Jitter:          cfg.Engine.RetryJitter,
		}),
		engine.WithCircuitBreaker(engine.NewCircuitBreaker(
			cfg.Engine.BreakerFailureThreshold,
			cfg.Engine.BreakerRecoveryTimeout(),
			cfg.Engine.BreakerHalfOpenMaxCalls,
		)),
	}
	for name, adapter := range agents {
		opts = append(opts, engine.WithAgentAdapter(name, adapter))
	}

	var registry *prometheus.Registry
	if cfg.Observability.MetricsEnabled {
		registry = prometheus.NewRegistry()
		opts = append(opts, engine.WithMetrics(engine.NewMetrics(registry)))
	}

	return engine.New(st, logEmitter, opts...), registry, nil
}
