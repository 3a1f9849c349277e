package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
storage:
  path: ${ENRICHIT_TEST_DATA:-/var/lib/enrichit}
ai:
  host: http://llm.internal:8000
  embedding_host: ${ENRICHIT_TEST_EMBED_HOST}
  generator_model: qwen2.5:7b
  api_key: ${ENRICHIT_TEST_KEY}
  temperature: 0
  max_retries: 0
  requests_per_second: 2.5
  breaker_failures: 3
pipeline:
  pool_size: 16
reindex:
  batch_size: 50
http:
  port: 9090
logging:
  level: debug
`

func TestParse(t *testing.T) {
	t.Setenv("ENRICHIT_TEST_KEY", "sk-test")
	t.Setenv("ENRICHIT_TEST_EMBED_HOST", "http://embed.internal:9000/v1")

	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/enrichit", cfg.Storage.Path, "default used when variable is unset")
	assert.Equal(t, 16, cfg.Pipeline.PoolSize)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)

	a := cfg.AIConfig()
	assert.Equal(t, "http://llm.internal:8000", a.GeneratorHost)
	assert.Equal(t, "http://embed.internal:9000/v1", a.EmbeddingHost)
	assert.Equal(t, "qwen2.5:7b", a.GeneratorModel)
	assert.Equal(t, "text-embedding-3-large", a.EmbeddingModel, "unset fields keep defaults")
	assert.Equal(t, "sk-test", a.APIKey)
	assert.Zero(t, a.Temperature)
	assert.Zero(t, a.MaxRetries)
	assert.Equal(t, 2.5, a.RequestsPerSecond)
	assert.EqualValues(t, 3, a.BreakerFailures)
	assert.Equal(t, 30*time.Second, a.BreakerTimeout)
	assert.Equal(t, 60*time.Second, a.CallTimeout)

	r := cfg.ReindexConfig()
	assert.Equal(t, 50, r.BatchSize)
	assert.Equal(t, 4, r.Concurrency)
	assert.Equal(t, time.Second, r.RetryDelay)
}

func TestParse_EnvOverridesDefault(t *testing.T) {
	t.Setenv("ENRICHIT_TEST_DATA", "/tmp/override")

	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override", cfg.Storage.Path)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "port out of range", yaml: "http:\n  port: 70000\n"},
		{name: "unknown log level", yaml: "logging:\n  level: loud\n"},
		{name: "negative pool size", yaml: "pipeline:\n  pool_size: -1\n"},
		{name: "temperature out of range", yaml: "ai:\n  temperature: 5\n"},
		{name: "too many retries", yaml: "ai:\n  max_retries: 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	_, err := Parse([]byte("http: [not, a, map]"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enrichit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  path: ./data\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "./data", cfg.Storage.Path)
	assert.Equal(t, 8080, cfg.HTTP.Port)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, "enrichit-data", cfg.Storage.Path)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 100, cfg.Reindex.BatchSize)
	assert.Equal(t, 3, cfg.Reindex.MaxRetries)

	read, write, shutdown := cfg.HTTP.Timeouts()
	assert.Equal(t, 10*time.Second, read)
	assert.Equal(t, 300*time.Second, write)
	assert.Equal(t, 10*time.Second, shutdown)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("ENRICHIT_TEST_SET", "value")

	tests := []struct {
		in   string
		want string
	}{
		{in: "${ENRICHIT_TEST_SET}", want: "value"},
		{in: "${ENRICHIT_TEST_SET:-fallback}", want: "value"},
		{in: "${ENRICHIT_TEST_UNSET:-fallback}", want: "fallback"},
		{in: "${ENRICHIT_TEST_UNSET}", want: ""},
		{in: "plain $HOME text", want: "plain $HOME text"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, string(expandEnvVars([]byte(tt.in))))
		})
	}
}
