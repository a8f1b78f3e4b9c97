// Package config loads the engine's own tunables from a TOML document,
// following the config-load pattern used across the example pack: a
// typed struct decoded directly from TOML, environment overrides
// applied after decode, validated before use. Grounded on
// AbdelazizMoustafa10m-Raven/internal/config (Config struct shape,
// LoadFromFile signature) and nevindra-oasis/internal/config (env
// override layering).
package config

import "time"

const (
	defaultBaseDelay       = time.Second
	defaultMaxDelay        = 30 * time.Second
	defaultRecoveryTimeout = 30 * time.Second
)

// Config is the top-level record mapping to aiworkflow.toml. It
// replaces the source engine's heterogeneous "config: mapping of
// string to any" with explicit fields for the engine's two known keys
// (AgentPrimary, and the store/breaker/retry tunables this module
// defines); anything a deployment wants to carry beyond that goes in
// Extra, which the engine stores but never inspects.
type Config struct {
	Engine        EngineConfig           `toml:"engine"`
	Store         StoreConfig            `toml:"store"`
	Agents        map[string]AgentConfig `toml:"agents"`
	Observability ObservabilityConfig    `toml:"observability"`
	Extra         map[string]any         `toml:"-"`
}

// EngineConfig maps to the [engine] section: the default agent plus
// the engine-level retry and circuit breaker tunables.
type EngineConfig struct {
	AgentPrimary         string  `toml:"agent_primary"`
	RetryMaxAttempts     int     `toml:"retry_max_attempts"`
	RetryBaseDelayMS     int     `toml:"retry_base_delay_ms"`
	RetryMaxDelayMS      int     `toml:"retry_max_delay_ms"`
	RetryExponentialBase float64 `toml:"retry_exponential_base"`
	RetryJitter          float64 `toml:"retry_jitter"`

	BreakerFailureThreshold int `toml:"breaker_failure_threshold"`
	BreakerRecoveryTimeoutS int `toml:"breaker_recovery_timeout_seconds"`
	BreakerHalfOpenMaxCalls int `toml:"breaker_half_open_max_calls"`
}

// StoreConfig maps to the [store] section: which backend to open and
// where.
type StoreConfig struct {
	Backend string `toml:"backend"` // "memory", "file", "sqlite", "mysql"
	Path    string `toml:"path"`    // file dir or sqlite file path
	DSN     string `toml:"dsn"`     // mysql DSN
}

// AgentConfig maps to an [agents.<name>] section: provider selection
// and credentials lookup for one of the three built-in agent adapters.
type AgentConfig struct {
	Provider  string `toml:"provider"` // "anthropic", "openai", "google"
	Model     string `toml:"model"`
	APIKeyEnv string `toml:"api_key_env"`
}

// ObservabilityConfig maps to the [observability] section: whether to
// collect Prometheus metrics and emit OpenTelemetry spans for each run.
// Both default to off so a zero-config invocation stays dependency-free
// at runtime.
type ObservabilityConfig struct {
	MetricsEnabled bool `toml:"metrics_enabled"`
	TracingEnabled bool `toml:"tracing_enabled"`
}

// RetryBaseDelay returns EngineConfig.RetryBaseDelayMS as a
// time.Duration, applying the documented default when unset.
func (c EngineConfig) RetryBaseDelay() time.Duration {
	if c.RetryBaseDelayMS <= 0 {
		return defaultBaseDelay
	}
	return time.Duration(c.RetryBaseDelayMS) * time.Millisecond
}

// RetryMaxDelay returns EngineConfig.RetryMaxDelayMS as a
// time.Duration, applying the documented default when unset.
func (c EngineConfig) RetryMaxDelay() time.Duration {
	if c.RetryMaxDelayMS <= 0 {
		return defaultMaxDelay
	}
	return time.Duration(c.RetryMaxDelayMS) * time.Millisecond
}

// BreakerRecoveryTimeout returns BreakerRecoveryTimeoutS as a
// time.Duration, applying the documented default when unset.
func (c EngineConfig) BreakerRecoveryTimeout() time.Duration {
	if c.BreakerRecoveryTimeoutS <= 0 {
		return defaultRecoveryTimeout
	}
	return time.Duration(c.BreakerRecoveryTimeoutS) * time.Second
}
