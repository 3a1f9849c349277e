package search

import (
	"context"
	"errors"
	"log/slog"

	"github.com/poiesic/enrichit/core"
	"github.com/poiesic/enrichit/storage"
)

// QueryEmbedder turns query text into a vector. *capability.Invoker satisfies it.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, query string) (core.Embedding, error)
}

// Index stores document embeddings and answers similarity queries over them.
type Index struct {
	embeddings storage.EmbeddingRepository
	records    storage.RecordRepository
	embedder   QueryEmbedder
	logger     *slog.Logger
}

// Option configures an Index.
type Option func(*Index) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Index) error {
		if logger == nil {
			logger = slog.Default()
		}
		ix.logger = logger
		return nil
	}
}

// NewIndex creates a new search index.
func NewIndex(
	embeddings storage.EmbeddingRepository,
	records storage.RecordRepository,
	embedder QueryEmbedder,
	opts ...Option,
) (*Index, error) {
	if embeddings == nil {
		return nil, ErrEmbeddingRepositoryRequired
	}
	if records == nil {
		return nil, ErrRecordRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	ix := &Index{
		embeddings: embeddings,
		records:    records,
		embedder:   embedder,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(ix); err != nil {
			return nil, err
		}
	}
	ix.logger = ix.logger.With("component", "search")

	return ix, nil
}

// Index stores the embedding for a record, replacing any previous one.
func (ix *Index) Index(ctx context.Context, id core.ID, vector core.Embedding) error {
	if err := core.ValidateEmbedding(vector); err != nil {
		return err
	}
	return ix.embeddings.PutEmbedding(ctx, id, vector)
}

// Remove drops the embedding for a record. Removing an absent embedding is not an error.
func (ix *Index) Remove(ctx context.Context, id core.ID) error {
	err := ix.embeddings.DeleteEmbedding(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

// Size returns the number of indexed embeddings.
func (ix *Index) Size(ctx context.Context) (int, error) {
	return ix.embeddings.Count(ctx)
}

// Search returns the matches for vector whose similarity strictly exceeds the
// threshold, ordered by descending similarity.
func (ix *Index) Search(ctx context.Context, vector []float32, opts ...QueryOption) ([]core.SimilarityMatch, error) {
	q, err := newQuery(opts)
	if err != nil {
		return nil, err
	}
	return ix.search(ctx, vector, q)
}

func (ix *Index) search(ctx context.Context, vector []float32, q *query) ([]core.SimilarityMatch, error) {
	if err := core.ValidateEmbedding(vector); err != nil {
		return nil, err
	}
	matches, err := ix.embeddings.FindSimilar(ctx, vector, q.threshold, q.count)
	if err != nil {
		ix.logger.Error("error querying for similar embeddings", "err", err)
		return nil, err
	}
	q.monitor.AfterSimilaritySearch(matches)
	return matches, nil
}

// SearchRecords runs Search and loads the matching records.
func (ix *Index) SearchRecords(ctx context.Context, vector []float32, opts ...QueryOption) ([]*core.SearchResult, error) {
	q, err := newQuery(opts)
	if err != nil {
		return nil, err
	}
	q.monitor.Start("")

	matches, err := ix.search(ctx, vector, q)
	if err != nil {
		return nil, err
	}
	results, err := ix.hydrate(ctx, "", matches, q)
	if err != nil {
		return nil, err
	}
	q.monitor.Finish(results)
	return results, nil
}

// SearchText embeds text with the document embedding model and searches with the result.
func (ix *Index) SearchText(ctx context.Context, text string, opts ...QueryOption) ([]*core.SearchResult, error) {
	q, err := newQuery(opts)
	if err != nil {
		return nil, err
	}
	q.monitor.Start(text)

	vector, err := ix.embedder.EmbedQuery(ctx, text)
	if err != nil {
		ix.logger.Error("error generating embedding for query", "query", text, "err", err)
		return nil, err
	}
	q.monitor.AfterEmbedding(vector)

	matches, err := ix.search(ctx, vector, q)
	if err != nil {
		return nil, err
	}
	results, err := ix.hydrate(ctx, text, matches, q)
	if err != nil {
		return nil, err
	}
	q.monitor.Finish(results)
	return results, nil
}

// hydrate loads records for matches, preserving match order.
// Matches whose record is gone are dropped.
func (ix *Index) hydrate(ctx context.Context, text string, matches []core.SimilarityMatch, q *query) ([]*core.SearchResult, error) {
	if len(matches) == 0 {
		return []*core.SearchResult{}, nil
	}

	ids := make([]core.ID, len(matches))
	for i, m := range matches {
		ids[i] = m.RecordId
	}
	records, err := ix.records.GetRecords(ctx, ids...)
	if err != nil {
		ix.logger.Error("error retrieving records", "recordCount", len(ids), "err", err)
		return nil, err
	}
	q.monitor.AfterRecordRetrieval(records)

	byID := make(map[core.ID]*core.ContentRecord, len(records))
	for _, r := range records {
		byID[r.Id] = r
	}

	results := make([]*core.SearchResult, 0, len(matches))
	for _, m := range matches {
		record, ok := byID[m.RecordId]
		if !ok {
			ix.logger.Warn("embedding without record", "id", m.RecordId)
			continue
		}
		result := &core.SearchResult{Record: record, Score: m.Score}
		if text != "" && coversQuery(record, text) {
			result.Verbatim = true
			q.monitor.VerbatimHit(record)
		}
		results = append(results, result)
	}
	return results, nil
}
