// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reindex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/poiesic/enrichit/core"
	"github.com/poiesic/enrichit/storage"
)

// CheckpointName is the checkpoint key used by reindex runs.
const CheckpointName = "reindex"

// Config holds configuration for the reindex operation.
type Config struct {
	// BatchSize is the number of records to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of records)
	ReportInterval int

	// Concurrency is the number of records embedded at once
	Concurrency int

	// MaxRetries is the maximum number of attempts per record
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// Resume continues from the last saved checkpoint instead of starting over
	Resume bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		Concurrency:    4,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Report summarises a finished run.
type Report struct {
	Total     int
	Reindexed int
	Failed    int
	Resumed   bool
	Elapsed   time.Duration
}

// Reindexer orchestrates re-embedding every stored record.
type Reindexer struct {
	records     storage.RecordRepository
	checkpoints storage.CheckpointRepository
	config      *Config
	progress    io.Writer
	processor   *BatchProcessor
	iterator    *RecordIterator
	logger      *slog.Logger
}

// NewReindexer creates a new reindexer.
// checkpoints may be nil, in which case runs cannot be resumed.
// progress: where to write progress output (typically os.Stderr)
func NewReindexer(
	records storage.RecordRepository,
	checkpoints storage.CheckpointRepository,
	embedder Embedder,
	index Indexer,
	config *Config,
	progress io.Writer,
) (*Reindexer, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	processor, err := NewBatchProcessor(embedder, index, config.Concurrency, config.MaxRetries, config.RetryDelay)
	if err != nil {
		return nil, err
	}

	return &Reindexer{
		records:     records,
		checkpoints: checkpoints,
		config:      config,
		progress:    progress,
		processor:   processor,
		iterator:    NewRecordIterator(records, config.BatchSize),
		logger:      slog.Default().With("component", "reindex"),
	}, nil
}

// Close releases the worker pool.
func (r *Reindexer) Close() {
	r.processor.Release()
}

// Run re-embeds every record. Records that fail are counted and the run
// continues; the returned error then wraps ErrIncomplete and every failure.
// Failed IDs are kept in the checkpoint and retried first by a resumed run.
// The checkpoint is cleared only when all records succeeded.
func (r *Reindexer) Run(ctx context.Context) (*Report, error) {
	total, err := r.records.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}

	report := &Report{Total: total}
	if total == 0 {
		fmt.Fprintf(r.progress, "No records found in database (0 records)\n")
		return report, nil
	}

	checkpoint := &core.Checkpoint{Name: CheckpointName}
	if r.config.Resume && r.checkpoints != nil {
		saved, err := r.checkpoints.LoadCheckpoint(ctx, CheckpointName)
		if err != nil {
			return nil, fmt.Errorf("failed to load checkpoint: %w", err)
		}
		if saved != nil {
			checkpoint = saved
			report.Resumed = true
			fmt.Fprintf(r.progress, "Resuming after record %d (%d already done, %d to retry)\n",
				saved.LastID, saved.Processed, len(saved.Failed))
		}
	}

	fmt.Fprintf(r.progress, "Starting reindex of %d records (batch size: %d)\n", total, r.config.BatchSize)

	// pending holds earlier failures not yet retried; newly failed IDs
	// collect in failedIDs. Both are saved so an interrupted run loses
	// neither.
	pending := slices.Clone(checkpoint.Failed)
	var failedIDs []core.ID

	tracker := NewProgressTracker(r.progress, total, r.config.ReportInterval)
	tracker.Start(max(0, checkpoint.Processed-len(pending)))

	var failures []error
	handle := func(records []*core.ContentRecord, walked bool) error {
		res := r.processor.Process(ctx, records)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if res.Err != nil {
			failures = append(failures, res.Err)
		}
		report.Reindexed += res.Succeeded
		report.Failed += res.Failed
		tracker.Update(len(records), res.Failed)
		failedIDs = append(failedIDs, res.FailedIDs...)

		if walked {
			checkpoint.LastID = records[len(records)-1].Id
			checkpoint.Processed += len(records)
		}
		checkpoint.Failed = append(slices.Clone(pending), failedIDs...)
		if r.checkpoints != nil {
			if err := r.checkpoints.SaveCheckpoint(ctx, checkpoint); err != nil {
				return fmt.Errorf("failed to save checkpoint: %w", err)
			}
		}
		return nil
	}

	for len(pending) > 0 {
		n := min(len(pending), r.config.BatchSize)
		if n <= 0 {
			n = len(pending)
		}
		ids := pending[:n]
		records, err := r.records.GetRecords(ctx, ids...)
		if err != nil {
			return report, fmt.Errorf("failed to load records to retry: %w", err)
		}
		pending = pending[n:]
		if len(records) < len(ids) {
			r.logger.Info("skipping deleted records", "count", len(ids)-len(records))
		}
		if len(records) == 0 {
			continue
		}
		if err := handle(records, false); err != nil {
			return report, err
		}
	}

	err = r.iterator.ForEach(ctx, checkpoint.LastID, func(records []*core.ContentRecord) error {
		return handle(records, true)
	})
	if err != nil {
		return report, err
	}

	tracker.Finish()
	report.Elapsed = tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reindex complete. Reindexed %d records in %v (%d failed)\n",
		report.Reindexed, report.Elapsed.Round(time.Second), report.Failed)

	if report.Failed > 0 {
		r.logger.Warn("reindex finished with failures", "failed", report.Failed)
		return report, fmt.Errorf("%w: %d of %d records failed: %w", ErrIncomplete, report.Failed, total, errors.Join(failures...))
	}

	if r.checkpoints != nil {
		if err := r.checkpoints.DeleteCheckpoint(ctx, CheckpointName); err != nil {
			return report, fmt.Errorf("failed to clear checkpoint: %w", err)
		}
	}
	return report, nil
}
