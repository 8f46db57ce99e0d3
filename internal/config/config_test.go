package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianfin/tradegate/internal/screening"
)

const minimalYAML = `
sanctions:
  path: /data/sanctions.csv
scoring:
  model_path: /data/model.json
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 16, cfg.Store.MaxOpenConns)
	assert.Equal(t, "/data/sanctions.csv", cfg.Sanctions.Path)
	assert.Equal(t, "/data/model.json", cfg.Scoring.ModelPath)

	assert.Equal(t, screening.DefaultFuzzyThreshold, cfg.Screening.FuzzyThreshold)
	assert.Equal(t, screening.AlgorithmTokenSortRatio, cfg.Screening.Algorithm)
	assert.Equal(t, 0.95, cfg.Screening.BlockScore)
	assert.Equal(t, 2, cfg.Screening.NetworkHops)
	assert.True(t, cfg.Screening.CheckNetwork)

	assert.Equal(t, 90, cfg.Scoring.LookbackDays)
	assert.Equal(t, 500*time.Millisecond, cfg.Scoring.EntityBudget)
	assert.Equal(t, 10, cfg.Batch.Workers)

	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
log:
  level: debug
server:
  addr: ":9090"
store:
  driver: postgres
  dsn: "host=db user=tradegate dbname=graph"
sanctions:
  path: /data/sanctions.csv
screening:
  fuzzy_threshold: 90
  algorithm: partial_ratio
scoring:
  model_path: /data/model.json
  lookback_days: 30
  entity_budget: 250ms
batch:
  workers: 32
cache:
  enabled: true
  addr: redis:6379
`))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 90.0, cfg.Screening.FuzzyThreshold)
	assert.Equal(t, screening.AlgorithmPartialRatio, cfg.Screening.Algorithm)
	assert.Equal(t, 30, cfg.Scoring.LookbackDays)
	assert.Equal(t, 250*time.Millisecond, cfg.Scoring.EntityBudget)
	assert.Equal(t, 32, cfg.Batch.Workers)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "redis:6379", cfg.Cache.Addr)
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("TRADEGATE_LOG_LEVEL", "warn")

	cfg, err := Load(writeConfig(t, minimalYAML))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadMissingRequiredFields(t *testing.T) {
	_, err := Load(writeConfig(t, "log:\n  level: info\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validate config")
}

func TestLoadInvalidLogLevel(t *testing.T) {
	_, err := Load(writeConfig(t, minimalYAML+"log:\n  level: verbose\n"))
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
