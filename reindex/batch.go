package reindex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/enrichit/core"
)

// Embedder embeds a document body. *capability.Invoker satisfies it.
type Embedder interface {
	EmbedDocument(ctx context.Context, text string) (core.Embedding, error)
}

// Indexer stores a record's embedding. *search.Index satisfies it.
type Indexer interface {
	Index(ctx context.Context, id core.ID, vector core.Embedding) error
}

// BatchResult summarises one processed batch.
type BatchResult struct {
	Succeeded int
	Failed    int
	// FailedIDs lists the failed records in batch order.
	FailedIDs []core.ID
	// Err joins the error of every failed record.
	Err error
}

// BatchProcessor re-embeds batches of records on a worker pool.
type BatchProcessor struct {
	embedder       Embedder
	index          Indexer
	pool           *ants.Pool
	maxRetries     int
	retryBaseDelay time.Duration
	logger         *slog.Logger
}

// NewBatchProcessor creates a new batch processor.
// concurrency: number of records embedded at once
// maxRetries: maximum number of attempts per record
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(embedder Embedder, index Indexer, concurrency, maxRetries int, retryBaseDelay time.Duration) (*BatchProcessor, error) {
	pool, err := ants.NewPool(max(1, concurrency))
	if err != nil {
		return nil, err
	}
	return &BatchProcessor{
		embedder:       embedder,
		index:          index,
		pool:           pool,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
		logger:         slog.Default().With("component", "reindex"),
	}, nil
}

// Release releases the worker pool.
func (bp *BatchProcessor) Release() {
	bp.pool.Release()
}

// Process embeds every record in the batch and stores the new vectors.
// A failing record does not stop the others.
func (bp *BatchProcessor) Process(ctx context.Context, records []*core.ContentRecord) BatchResult {
	if len(records) == 0 {
		return BatchResult{}
	}

	errs := make([]error, len(records))
	var wg sync.WaitGroup
	for i, record := range records {
		wg.Add(1)
		err := bp.pool.Submit(func() {
			defer wg.Done()
			errs[i] = bp.processRecord(ctx, record)
		})
		if err != nil {
			wg.Done()
			errs[i] = fmt.Errorf("record %d: submit: %w", record.Id, err)
		}
	}
	wg.Wait()

	var res BatchResult
	for i, err := range errs {
		if err != nil {
			res.Failed++
			res.FailedIDs = append(res.FailedIDs, records[i].Id)
			continue
		}
		res.Succeeded++
	}
	res.Err = errors.Join(errs...)
	return res
}

func (bp *BatchProcessor) processRecord(ctx context.Context, record *core.ContentRecord) error {
	var vector core.Embedding
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vector, err = bp.embedder.EmbedDocument(ctx, record.Body)
		return err
	}, bp.maxRetries, bp.retryBaseDelay)
	if err != nil {
		bp.logger.Warn("failed to embed record", "id", record.Id, "err", err)
		return fmt.Errorf("record %d: %w", record.Id, err)
	}

	if err := bp.index.Index(ctx, record.Id, vector); err != nil {
		return fmt.Errorf("record %d: store embedding: %w", record.Id, err)
	}
	return nil
}
