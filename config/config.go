package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/poiesic/wikipath/ai"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. WIKIPATH_SEARCH_BUDGET.
const EnvPrefix = "WIKIPATH"

// Config holds all process-level configuration.
type Config struct {
	// DB is the badger directory holding ingested pages and stored embeddings.
	DB string `mapstructure:"db"`

	// Snapshot is an optional read-only SQLite link snapshot. When set it is
	// the primary link source.
	Snapshot string `mapstructure:"snapshot"`

	Log            LogConfig            `mapstructure:"log"`
	Remote         RemoteConfig         `mapstructure:"remote"`
	Embedding      EmbeddingConfig      `mapstructure:"embedding"`
	Search         SearchConfig         `mapstructure:"search"`
	Server         ServerConfig         `mapstructure:"server"`
	Metrics        MetricsConfig        `mapstructure:"metrics"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// RemoteConfig configures the MediaWiki API fallback.
type RemoteConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Endpoint  string        `mapstructure:"endpoint"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// EmbeddingConfig configures the OpenAI-compatible embedding service.
type EmbeddingConfig struct {
	Host         string            `mapstructure:"host"`
	Token        string            `mapstructure:"token"`
	DefaultModel string            `mapstructure:"default_model"`
	Models       map[string]string `mapstructure:"models"` // variant name to model identifier
}

// SearchConfig holds path search tuning.
type SearchConfig struct {
	Budget             time.Duration `mapstructure:"budget"`
	SuccessorCacheSize int           `mapstructure:"successor_cache_size"`
	PoolSize           int           `mapstructure:"pool_size"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	Mode string `mapstructure:"mode"` // gin mode: debug, release, test
}

// MetricsConfig toggles the Prometheus recorder.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// CircuitBreakerConfig holds configuration for the remote API breaker
type CircuitBreakerConfig struct {
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	ReadyToTripRatio float64       `mapstructure:"ready_to_trip_ratio"`
}

// Load reads configuration from defaults, the optional YAML file at path and
// WIKIPATH_ environment variables, in increasing order of precedence.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	defaults := ai.DefaultConfig()

	v.SetDefault("db", "./wikipath_db")
	v.SetDefault("snapshot", "")

	v.SetDefault("log.level", "info")

	v.SetDefault("remote.enabled", false)
	v.SetDefault("remote.endpoint", "https://en.wikipedia.org/w/api.php")
	v.SetDefault("remote.user_agent", "wikipath/1.0 (https://github.com/poiesic/wikipath)")
	v.SetDefault("remote.timeout", 10*time.Second)

	v.SetDefault("embedding.host", defaults.EmbeddingHost)
	v.SetDefault("embedding.token", defaults.EmbeddingToken)
	v.SetDefault("embedding.default_model", string(defaults.DefaultVariant))
	for variant, model := range defaults.Models {
		v.SetDefault("embedding.models."+string(variant), model)
	}

	v.SetDefault("search.budget", 60*time.Second)
	v.SetDefault("search.successor_cache_size", 10000)
	v.SetDefault("search.pool_size", 64)

	v.SetDefault("server.addr", ":3000")
	v.SetDefault("server.mode", "release")

	v.SetDefault("metrics.enabled", true)

	v.SetDefault("circuit_breaker.max_requests", 1)
	v.SetDefault("circuit_breaker.interval", time.Minute)
	v.SetDefault("circuit_breaker.timeout", 30*time.Second)
	v.SetDefault("circuit_breaker.ready_to_trip_ratio", 0.5)
}

// Validate checks the configuration for values the rest of the program cannot use.
func (c *Config) Validate() error {
	var errs []error
	if c.DB == "" && c.Snapshot == "" && !c.Remote.Enabled {
		errs = append(errs, errors.New("config: one of db, snapshot or remote.enabled is required"))
	}
	if c.Search.Budget <= 0 {
		errs = append(errs, fmt.Errorf("config: search.budget must be positive, got %s", c.Search.Budget))
	}
	if c.Search.SuccessorCacheSize <= 0 {
		errs = append(errs, fmt.Errorf("config: search.successor_cache_size must be positive, got %d", c.Search.SuccessorCacheSize))
	}
	if c.Remote.Enabled && c.Remote.Endpoint == "" {
		errs = append(errs, errors.New("config: remote.endpoint is required when remote.enabled is set"))
	}
	if c.CircuitBreaker.ReadyToTripRatio <= 0 || c.CircuitBreaker.ReadyToTripRatio > 1 {
		errs = append(errs, fmt.Errorf("config: circuit_breaker.ready_to_trip_ratio must be in (0, 1], got %g", c.CircuitBreaker.ReadyToTripRatio))
	}
	if _, err := c.AIConfig(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// AIConfig converts the embedding section to an ai.Config.
func (c *Config) AIConfig() (*ai.Config, error) {
	opts := []ai.ConfigOption{
		ai.WithEmbeddingHost(c.Embedding.Host),
		ai.WithEmbeddingToken(c.Embedding.Token),
	}
	for name, model := range c.Embedding.Models {
		variant, err := ai.ParseModelVariant(name)
		if err != nil {
			return nil, fmt.Errorf("config: embedding.models: %w", err)
		}
		opts = append(opts, ai.WithModel(variant, model))
	}
	if c.Embedding.DefaultModel != "" {
		variant, err := ai.ParseModelVariant(c.Embedding.DefaultModel)
		if err != nil {
			return nil, fmt.Errorf("config: embedding.default_model: %w", err)
		}
		opts = append(opts, ai.WithDefaultVariant(variant))
	}

	cfg := ai.NewConfig(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
