// Package config loads the enrichit configuration file.
//
// The file is YAML. Any ${VAR} or ${VAR:-default} reference is replaced with
// the environment variable's value before parsing, so secrets such as API
// keys can stay out of the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/poiesic/enrichit/ai"
	"github.com/poiesic/enrichit/reindex"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the enrichit configuration.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	AI       AIConfig       `yaml:"ai"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Reindex  ReindexConfig  `yaml:"reindex"`
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// StorageConfig holds database settings.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// AIConfig holds provider settings. Host sets both hosts unless the
// specific one is given.
type AIConfig struct {
	Host              string   `yaml:"host"`
	GeneratorHost     string   `yaml:"generator_host"`
	EmbeddingHost     string   `yaml:"embedding_host"`
	GeneratorModel    string   `yaml:"generator_model"`
	EmbeddingModel    string   `yaml:"embedding_model"`
	APIKey            string   `yaml:"api_key"`
	Temperature       *float64 `yaml:"temperature"`
	CallTimeoutSec    int      `yaml:"call_timeout_sec"`
	MaxRetries        *int     `yaml:"max_retries"`
	RequestsPerSecond float64  `yaml:"requests_per_second"`
	BreakerFailures   uint32   `yaml:"breaker_failures"`
	BreakerTimeoutSec int      `yaml:"breaker_timeout_sec"`
}

// PipelineConfig holds orchestrator settings.
type PipelineConfig struct {
	PoolSize int `yaml:"pool_size"` // 0 = pipeline default
}

// ReindexConfig holds settings for the reindex command.
type ReindexConfig struct {
	BatchSize     int `yaml:"batch_size"`
	Concurrency   int `yaml:"concurrency"`
	MaxRetries    int `yaml:"max_retries"`
	RetryDelaySec int `yaml:"retry_delay_sec"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns a configuration with every default applied.
func Default() Config {
	var cfg Config
	cfg.ApplyDefaults()
	return cfg
}

// Load reads configuration from a YAML file. An empty path yields Default().
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse expands environment references in data and decodes it.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Storage.Path == "" {
		c.Storage.Path = "enrichit-data"
	}
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	// A full pipeline run is several model calls; leave room for it.
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 300
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	d := reindex.DefaultConfig()
	if c.Reindex.BatchSize <= 0 {
		c.Reindex.BatchSize = d.BatchSize
	}
	if c.Reindex.Concurrency <= 0 {
		c.Reindex.Concurrency = d.Concurrency
	}
	if c.Reindex.MaxRetries <= 0 {
		c.Reindex.MaxRetries = d.MaxRetries
	}
	if c.Reindex.RetryDelaySec <= 0 {
		c.Reindex.RetryDelaySec = int(d.RetryDelay / time.Second)
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("%w: http.port must be between 1 and 65535, got %d", ErrInvalidConfig, c.HTTP.Port)
	}
	if c.Pipeline.PoolSize < 0 {
		return fmt.Errorf("%w: pipeline.pool_size cannot be negative, got %d", ErrInvalidConfig, c.Pipeline.PoolSize)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: logging.level must be debug, info, warn or error, got %q", ErrInvalidConfig, c.Logging.Level)
	}
	if err := c.AIConfig().Validate(); err != nil {
		return fmt.Errorf("%w: ai: %w", ErrInvalidConfig, err)
	}
	return nil
}

// AIConfig converts the ai section into an ai.Config. Unset fields keep
// the values of ai.DefaultConfig.
func (c *Config) AIConfig() *ai.Config {
	a := c.AI
	var opts []ai.ConfigOption
	if a.Host != "" {
		opts = append(opts, ai.WithHost(a.Host))
	}
	if a.GeneratorHost != "" {
		opts = append(opts, ai.WithGeneratorHost(a.GeneratorHost))
	}
	if a.EmbeddingHost != "" {
		opts = append(opts, ai.WithEmbeddingHost(a.EmbeddingHost))
	}
	if a.GeneratorModel != "" {
		opts = append(opts, ai.WithGeneratorModel(a.GeneratorModel))
	}
	if a.EmbeddingModel != "" {
		opts = append(opts, ai.WithEmbeddingModel(a.EmbeddingModel))
	}
	if a.APIKey != "" {
		opts = append(opts, ai.WithAPIKey(a.APIKey))
	}
	if a.Temperature != nil {
		opts = append(opts, ai.WithTemperature(*a.Temperature))
	}
	if a.CallTimeoutSec > 0 {
		opts = append(opts, ai.WithCallTimeout(time.Duration(a.CallTimeoutSec)*time.Second))
	}
	if a.MaxRetries != nil {
		opts = append(opts, ai.WithMaxRetries(*a.MaxRetries))
	}
	if a.RequestsPerSecond != 0 {
		opts = append(opts, ai.WithRequestsPerSecond(a.RequestsPerSecond))
	}
	if a.BreakerFailures > 0 || a.BreakerTimeoutSec > 0 {
		d := ai.DefaultConfig()
		failures, timeout := d.BreakerFailures, d.BreakerTimeout
		if a.BreakerFailures > 0 {
			failures = a.BreakerFailures
		}
		if a.BreakerTimeoutSec > 0 {
			timeout = time.Duration(a.BreakerTimeoutSec) * time.Second
		}
		opts = append(opts, ai.WithBreaker(failures, timeout))
	}
	return ai.NewConfig(opts...)
}

// ReindexConfig converts the reindex section into a reindex.Config.
func (c *Config) ReindexConfig() *reindex.Config {
	cfg := reindex.DefaultConfig()
	cfg.BatchSize = c.Reindex.BatchSize
	cfg.Concurrency = c.Reindex.Concurrency
	cfg.MaxRetries = c.Reindex.MaxRetries
	cfg.RetryDelay = time.Duration(c.Reindex.RetryDelaySec) * time.Second
	return cfg
}

// Timeouts returns the HTTP read, write and shutdown timeouts.
func (h HTTPConfig) Timeouts() (read, write, shutdown time.Duration) {
	return time.Duration(h.ReadTimeoutSec) * time.Second,
		time.Duration(h.WriteTimeoutSec) * time.Second,
		time.Duration(h.ShutdownSec) * time.Second
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
