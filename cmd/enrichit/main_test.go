package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/enrichit"
	"github.com/poiesic/enrichit/ai/mock"
	"github.com/poiesic/enrichit/config"
	"github.com/poiesic/enrichit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const article = `# Building Concurrent Services in Go

Go was designed to make networked services easier to write. Goroutines are
cheap enough to start one per request, and channels let them coordinate.`

// useMockProvider points the CLI at a file-backed database whose AI
// provider is the deterministic mock.
func useMockProvider(t *testing.T) {
	t.Helper()
	orig := openDatabase
	openDatabase = func(cfg config.Config) (*enrichit.Database, error) {
		return enrichit.NewDatabase(cfg.Storage.Path, enrichit.WithProvider(mock.NewMockProvider()))
	}
	t.Cleanup(func() { openDatabase = orig })
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	app.Reader = strings.NewReader(stdin)
	err := app.Run(append([]string{"enrichit"}, args...))
	return out.String(), err
}

func TestLogLevel(t *testing.T) {
	_, err := run(t, "", "--log-level", "loud", "estimate", "--documents", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")

	_, err = run(t, "", "--log-level", "DEBUG", "estimate", "--documents", "1")
	assert.NoError(t, err)
}

func TestEstimateCommand(t *testing.T) {
	out, err := run(t, "", "estimate", "--documents", "3")
	require.NoError(t, err)

	var est core.CostEstimate
	require.NoError(t, json.Unmarshal([]byte(out), &est))
	assert.Equal(t, 3, est.Documents)
	assert.InDelta(t, 3*core.PerDocumentCost(), est.Total, 1e-9)

	_, err = run(t, "", "estimate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "documents")

	_, err = run(t, "", "estimate", "--documents", "-2")
	assert.ErrorIs(t, err, core.ErrInvalidDocumentCount)
}

func TestProcessAndSearch(t *testing.T) {
	useMockProvider(t)
	dbPath := filepath.Join(t.TempDir(), "db")

	input := filepath.Join(t.TempDir(), "article.md")
	require.NoError(t, os.WriteFile(input, []byte(article), 0o644))

	out, err := run(t, "", "--db", dbPath, "process", input)
	require.NoError(t, err)

	var record core.ContentRecord
	require.NoError(t, json.Unmarshal([]byte(out), &record))
	assert.NotZero(t, record.Id)
	assert.Equal(t, core.RecordStatusApproved, record.Status)

	out, err = run(t, "", "--db", dbPath, "search", "--threshold", "0.99", article)
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 hits")
	assert.Contains(t, out, fmt.Sprintf("(%d)", record.Id))
	assert.Contains(t, out, "Building Concurrent Services in Go")

	_, err = run(t, article, "--db", dbPath, "process", "-")
	require.Error(t, err, "the same text cannot be stored twice")

	out, err = run(t, "", "--db", dbPath, "reindex", "--retry-delay", "1ms")
	require.NoError(t, err)
	assert.Empty(t, out, "progress goes to stderr")
}

func TestProcessCommand_Stdin(t *testing.T) {
	useMockProvider(t)
	dbPath := filepath.Join(t.TempDir(), "db")

	out, err := run(t, article, "--db", dbPath, "process")
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "approved"`)

	_, err = run(t, "short", "--db", dbPath, "process")
	assert.ErrorIs(t, err, core.ErrEmptyInput)
}

func TestSearchCommand_RequiresQuery(t *testing.T) {
	useMockProvider(t)
	_, err := run(t, "", "--db", filepath.Join(t.TempDir(), "db"), "search")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query is required")
}

func TestReindexCommand_Validation(t *testing.T) {
	useMockProvider(t)
	_, err := run(t, "", "--db", filepath.Join(t.TempDir(), "db"), "reindex", "--batch-size", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch-size")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "enrichit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  path: "+filepath.Join(dir, "from-config")+"\nlogging:\n  level: warn\n"), 0o644))

	var seen config.Config
	orig := openDatabase
	openDatabase = func(cfg config.Config) (*enrichit.Database, error) {
		seen = cfg
		return enrichit.NewMemoryDatabase(enrichit.WithProvider(mock.NewMockProvider()))
	}
	t.Cleanup(func() { openDatabase = orig })

	_, err := run(t, "", "--config", path, "search", "anything")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "from-config"), seen.Storage.Path)
	assert.Equal(t, "warn", seen.Logging.Level)

	_, err = run(t, "", "--config", path, "--db", "/override", "search", "anything")
	require.NoError(t, err)
	assert.Equal(t, "/override", seen.Storage.Path)

	_, err = run(t, "", "--config", filepath.Join(dir, "missing.yaml"), "estimate", "-n", "1")
	assert.Error(t, err)
}

func TestCommandsRegistered(t *testing.T) {
	app := newApp()
	var names []string
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	assert.ElementsMatch(t, []string{"process", "reprocess", "search", "estimate", "reindex", "serve"}, names)

	var _ cli.ActionFunc = serveCommand
}
