package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "http://localhost:11434/v1", cfg.GeneratorHost)
	assert.Equal(t, "text-embedding-3-large", cfg.EmbeddingModel)
	assert.Equal(t, 3072, cfg.EmbeddingDimensions)
	assert.Equal(t, 60*time.Second, cfg.CallTimeout)
	assert.Equal(t, 1, cfg.MaxRetries)
	assert.NoError(t, cfg.Validate())
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.GeneratorHost)
	})

	t.Run("with separate hosts", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080/v1"),
			WithGeneratorHost("http://generate:9090/v1"),
		)

		assert.Equal(t, "http://embed:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://generate:9090/v1", cfg.GeneratorHost)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingModel("custom-embed"),
			WithGeneratorModel("custom-generate"),
			WithAPIKey("sk-test"),
			WithEmbeddingDimensions(1024),
			WithTemperature(0.7),
			WithCallTimeout(5*time.Second),
			WithMaxRetries(0),
			WithRequestsPerSecond(2.5),
			WithBreaker(3, time.Minute),
		)

		assert.Equal(t, "custom-embed", cfg.EmbeddingModel)
		assert.Equal(t, "custom-generate", cfg.GeneratorModel)
		assert.Equal(t, "sk-test", cfg.APIKey)
		assert.Equal(t, 1024, cfg.EmbeddingDimensions)
		assert.Equal(t, 0.7, cfg.Temperature)
		assert.Equal(t, 5*time.Second, cfg.CallTimeout)
		assert.Equal(t, 0, cfg.MaxRetries)
		assert.Equal(t, 2.5, cfg.RequestsPerSecond)
		assert.Equal(t, uint32(3), cfg.BreakerFailures)
		assert.Equal(t, time.Minute, cfg.BreakerTimeout)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		expected string
	}{
		{name: "already has /v1", host: "http://localhost:11434/v1", expected: "http://localhost:11434/v1"},
		{name: "missing /v1", host: "http://localhost:11434", expected: "http://localhost:11434/v1"},
		{name: "has trailing slash", host: "http://localhost:11434/", expected: "http://localhost:11434/v1"},
		{name: "empty host", host: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{EmbeddingHost: tt.host, GeneratorHost: tt.host}

			cfg.Normalize()

			assert.Equal(t, tt.expected, cfg.EmbeddingHost)
			assert.Equal(t, tt.expected, cfg.GeneratorHost)
			assert.Equal(t, "none", cfg.APIKey)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{name: "missing embedding host", mutate: func(c *Config) { c.EmbeddingHost = "" }, wantMsg: "EmbeddingHost"},
		{name: "missing generator host", mutate: func(c *Config) { c.GeneratorHost = "" }, wantMsg: "GeneratorHost"},
		{name: "missing embedding model", mutate: func(c *Config) { c.EmbeddingModel = "" }, wantMsg: "EmbeddingModel"},
		{name: "missing generator model", mutate: func(c *Config) { c.GeneratorModel = "" }, wantMsg: "GeneratorModel"},
		{name: "zero dimensions", mutate: func(c *Config) { c.EmbeddingDimensions = 0 }, wantMsg: "EmbeddingDimensions"},
		{name: "temperature out of range", mutate: func(c *Config) { c.Temperature = 3 }, wantMsg: "Temperature"},
		{name: "zero timeout", mutate: func(c *Config) { c.CallTimeout = 0 }, wantMsg: "CallTimeout"},
		{name: "too many retries", mutate: func(c *Config) { c.MaxRetries = 2 }, wantMsg: "MaxRetries"},
		{name: "negative rate", mutate: func(c *Config) { c.RequestsPerSecond = -1 }, wantMsg: "RequestsPerSecond"},
		{name: "zero breaker failures", mutate: func(c *Config) { c.BreakerFailures = 0 }, wantMsg: "BreakerFailures"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}

	t.Run("valid config is normalized", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.EmbeddingHost = "http://localhost:11434"

		assert.NoError(t, cfg.Validate())
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	})
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
		{name: "marked transient", err: fmt.Errorf("%w: %w", ErrProvider, ErrTransient), want: true},
		{name: "network timeout", err: fmt.Errorf("dial: %w", timeoutErr{}), want: true},
		{name: "canceled", err: context.Canceled, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
