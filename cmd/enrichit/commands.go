package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/poiesic/enrichit"
	"github.com/poiesic/enrichit/config"
	"github.com/poiesic/enrichit/core"
	"github.com/poiesic/enrichit/metrics"
	"github.com/poiesic/enrichit/pipeline"
	"github.com/poiesic/enrichit/search"
	"github.com/poiesic/enrichit/server"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

// openDatabase opens the database described by cfg. Tests replace it.
var openDatabase = func(cfg config.Config) (*enrichit.Database, error) {
	opts := []enrichit.DatabaseOption{enrichit.WithAIConfig(cfg.AIConfig())}
	if cfg.Pipeline.PoolSize > 0 {
		opts = append(opts, enrichit.WithPipelineOptions(pipeline.WithPoolSize(cfg.Pipeline.PoolSize)))
	}
	return enrichit.NewDatabase(cfg.Storage.Path, opts...)
}

// setup loads the configuration, applies flag overrides and installs the logger.
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if db := c.String("db"); db != "" {
		cfg.Storage.Path = db
	}
	if level := c.String("log-level"); level != "" {
		cfg.Logging.Level = strings.ToLower(level)
	}

	if err := setupLogger(c.App.ErrWriter, cfg.Logging.Level); err != nil {
		return err
	}

	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func setupLogger(w io.Writer, levelStr string) error {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	if w == nil {
		w = os.Stderr
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	})))
	return nil
}

func configFrom(c *cli.Context) config.Config {
	if cfg, ok := c.App.Metadata[configKey].(config.Config); ok {
		return cfg
	}
	return config.Default()
}

func withDatabase(c *cli.Context, fn func(db *enrichit.Database) error) error {
	db, err := openDatabase(configFrom(c))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	return fn(db)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func processCommand(c *cli.Context) error {
	text, err := readInput(c)
	if err != nil {
		return err
	}

	return withDatabase(c, func(db *enrichit.Database) error {
		record, err := db.CreateRecord(c.Context, text)
		if err != nil {
			return fmt.Errorf("processing failed: %w", err)
		}
		return printJSON(c.App.Writer, record)
	})
}

func readInput(c *cli.Context) (string, error) {
	path := c.Args().First()
	var r io.Reader = os.Stdin
	if c.App.Reader != nil {
		r = c.App.Reader
	}
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return "", fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}

func reprocessCommand(c *cli.Context) error {
	id, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil {
		return fmt.Errorf("record id is required: %w", err)
	}

	return withDatabase(c, func(db *enrichit.Database) error {
		record, err := db.Reprocess(c.Context, core.ID(id))
		if err != nil {
			return fmt.Errorf("reprocessing failed: %w", err)
		}
		return printJSON(c.App.Writer, record)
	})
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return errors.New("a search query is required")
	}

	return withDatabase(c, func(db *enrichit.Database) error {
		results, err := db.SearchText(c.Context, query,
			search.WithThreshold(c.Float64("threshold")),
			search.WithCount(c.Int("count")),
		)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		fmt.Fprintf(c.App.Writer, "Found %d hits\n", len(results))
		for i, hit := range results {
			marker := ""
			if hit.Verbatim {
				marker = " *"
			}
			fmt.Fprintf(c.App.Writer, "%d: %s (%d)[%0.3f]%s\n", i, hit.Record.Title(), hit.Record.Id, hit.Score, marker)
		}
		return nil
	})
}

func estimateCommand(c *cli.Context) error {
	est, err := core.EstimateCost(c.Int("documents"))
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, est)
}

func reindexCommand(c *cli.Context) error {
	cfg := configFrom(c)
	rc := cfg.ReindexConfig()
	if c.IsSet("batch-size") {
		rc.BatchSize = c.Int("batch-size")
	}
	if c.IsSet("concurrency") {
		rc.Concurrency = c.Int("concurrency")
	}
	if c.IsSet("max-retries") {
		rc.MaxRetries = c.Int("max-retries")
	}
	if c.IsSet("retry-delay") {
		rc.RetryDelay = c.Duration("retry-delay")
	}
	rc.ReportInterval = c.Int("report-interval")
	rc.Resume = c.Bool("resume")

	if rc.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if rc.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if rc.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	return withDatabase(c, func(db *enrichit.Database) error {
		fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cfg.Storage.Path)
		fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n\n", cfg.AIConfig().EmbeddingModel)

		if _, err := db.Reindex(c.Context, rc, c.App.ErrWriter); err != nil {
			return fmt.Errorf("reindex failed: %w", err)
		}
		return nil
	})
}

func serveCommand(c *cli.Context) error {
	cfg := configFrom(c)
	if c.IsSet("port") {
		cfg.HTTP.Port = c.Int("port")
	}
	read, write, shutdown := cfg.HTTP.Timeouts()
	if c.IsSet("shutdown-timeout") {
		shutdown = c.Duration("shutdown-timeout")
	}

	metrics.RegisterCapabilityMetrics()
	metrics.RegisterPipelineMetrics()
	metrics.RegisterHTTPMetrics()

	return withDatabase(c, func(db *enrichit.Database) error {
		srv, err := server.New(db)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
		if err := srv.ListenAndServe(ctx, addr, read, write, shutdown); err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		slog.Info("server stopped gracefully")
		return nil
	})
}
