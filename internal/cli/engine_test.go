package cli

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/marktoflow/workflow-engine/internal/config"
)

func TestBuildEngine_MetricsDisabledByDefault(t *testing.T) {
	cfg := config.Default()

	eng, registry, err := buildEngine(cfg)
	require.NoError(t, err)
	require.NotNil(t, eng)
	require.Nil(t, registry)
}

func TestBuildEngine_MetricsEnabledRegistersCollectors(t *testing.T) {
	cfg := config.Default()
	cfg.Observability.MetricsEnabled = true

	eng, registry, err := buildEngine(cfg)
	require.NoError(t, err)
	require.NotNil(t, eng)
	require.NotNil(t, registry)

	count, err := testutil.GatherAndCount(registry)
	require.NoError(t, err)
	require.Positive(t, count)
}

func TestBuildEngine_TracingEnabledWrapsEmitter(t *testing.T) {
	cfg := config.Default()
	cfg.Observability.TracingEnabled = true

	eng, _, err := buildEngine(cfg)
	require.NoError(t, err)
	require.NotNil(t, eng)
}

func TestBuildStore_UnknownBackendReturnsEngineError(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = "nope"

	_, err := buildStore(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown store backend")
}

func TestBuildAgents_UnknownProviderReturnsEngineError(t *testing.T) {
	cfg := config.Default()
	cfg.Agents = map[string]config.AgentConfig{
		"bad": {Provider: "not-a-provider"},
	}

	_, err := buildAgents(cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown provider")
}
