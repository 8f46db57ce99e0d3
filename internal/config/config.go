// Package config loads service configuration from YAML and the
// environment. Values are handed to components through their
// constructors; nothing here is a process-wide singleton.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/meridianfin/tradegate/internal/batch"
	"github.com/meridianfin/tradegate/internal/cache"
	"github.com/meridianfin/tradegate/internal/engine"
	"github.com/meridianfin/tradegate/internal/graph"
	"github.com/meridianfin/tradegate/internal/screening"
)

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
}

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Addr         string   `mapstructure:"addr"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// SanctionsConfig locates the reference feed.
type SanctionsConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// ScoringConfig locates the model artifact and tunes the pipeline.
type ScoringConfig struct {
	ModelPath string `mapstructure:"model_path" validate:"required"`

	engine.Config `mapstructure:",squash"`
}

// CacheConfig enables the optional caller-side screening cache.
type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`

	cache.Config `mapstructure:",squash"`
}

// Config is the full service configuration.
type Config struct {
	Log       LogConfig        `mapstructure:"log"`
	Server    ServerConfig     `mapstructure:"server"`
	Store     graph.Config     `mapstructure:"store"`
	Sanctions SanctionsConfig  `mapstructure:"sanctions"`
	Screening screening.Config `mapstructure:"screening"`
	Scoring   ScoringConfig    `mapstructure:"scoring"`
	Batch     batch.Config     `mapstructure:"batch"`
	Cache     CacheConfig      `mapstructure:"cache"`
}

// Load reads the config file at path (optional when env vars carry
// everything), layers TRADEGATE_* environment variables on top, applies
// defaults and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TRADEGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("server.addr", ":8080")

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "tradegate.db")
	v.SetDefault("store.max_open_conns", 16)

	v.SetDefault("screening.fuzzy_threshold", screening.DefaultFuzzyThreshold)
	v.SetDefault("screening.algorithm", string(screening.AlgorithmTokenSortRatio))
	v.SetDefault("screening.block_score", 0.95)
	v.SetDefault("screening.network_hops", 2)
	v.SetDefault("screening.check_network", true)

	v.SetDefault("scoring.lookback_days", 90)
	v.SetDefault("scoring.entity_budget", "500ms")

	v.SetDefault("batch.workers", batch.DefaultWorkers)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.ttl", "24h")
}
