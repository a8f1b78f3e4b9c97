package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/marktoflow/workflow-engine/internal/engine"
)

// LoadFromFile parses the TOML file at path and returns the decoded
// Config, following AbdelazizMoustafa10m-Raven/internal/config.LoadFromFile's
// signature (config plus toml.MetaData, so callers can inspect
// Undecoded() keys if they want to warn on typos — this module folds
// them into Extra instead).
func LoadFromFile(path string) (*Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}

	cfg.Extra = make(map[string]any)
	for _, key := range meta.Undecoded() {
		cfg.Extra[key.String()] = nil
	}

	applyEnvOverrides(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides lets deployment environment variables win over the
// file, matching nevindra-oasis/internal/config's override-after-decode
// layering: env is for operational overrides (which agent is primary,
// which store backend) that shouldn't require editing the checked-in
// TOML file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AIWORKFLOW_AGENT_PRIMARY"); v != "" {
		cfg.Engine.AgentPrimary = v
	}
	if v := os.Getenv("AIWORKFLOW_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("AIWORKFLOW_STORE_DSN"); v != "" {
		cfg.Store.DSN = v
	}
	if v := os.Getenv("AIWORKFLOW_RETRY_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.RetryMaxAttempts = n
		}
	}
}

// Validate checks the decoded Config for internally inconsistent
// values before the engine is built from it.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Engine.AgentPrimary == "" {
		errs = append(errs, "engine.agent_primary is required")
	}
	switch cfg.Store.Backend {
	case "", "memory", "file", "sqlite":
		// file and sqlite validate their own Path lazily on open.
	case "mysql":
		if cfg.Store.DSN == "" {
			errs = append(errs, "store.dsn is required when store.backend = \"mysql\"")
		}
	default:
		errs = append(errs, fmt.Sprintf("store.backend %q is not one of memory|file|sqlite|mysql", cfg.Store.Backend))
	}
	for name, agent := range cfg.Agents {
		switch agent.Provider {
		case "anthropic", "openai", "google":
		default:
			errs = append(errs, fmt.Sprintf("agents.%s: provider %q is not one of anthropic|openai|google", name, agent.Provider))
		}
	}

	if len(errs) > 0 {
		msg := errs[0]
		for _, e := range errs[1:] {
			msg += "; " + e
		}
		return &engine.EngineError{Code: "invalid_config", Message: msg}
	}
	return nil
}

// Default returns a Config with the engine's documented defaults for
// retry and circuit-breaker behavior, and an in-memory store, suitable
// for tests and a zero-config CLI invocation.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			AgentPrimary:            "default",
			RetryMaxAttempts:        3,
			RetryBaseDelayMS:        1000,
			RetryMaxDelayMS:         30000,
			RetryExponentialBase:    2.0,
			RetryJitter:             0.0,
			BreakerFailureThreshold: 5,
			BreakerRecoveryTimeoutS: 30,
			BreakerHalfOpenMaxCalls: 3,
		},
		Store: StoreConfig{Backend: "memory"},
		Extra: map[string]any{},
	}
}
