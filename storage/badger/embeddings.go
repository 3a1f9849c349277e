package badger

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/enrichit/core"
	"github.com/poiesic/enrichit/storage"
)

// EmbeddingRepository implements storage.EmbeddingRepository for BadgerDB.
type EmbeddingRepository struct {
	backend *Backend
}

var _ storage.EmbeddingRepository = (*EmbeddingRepository)(nil)

// NewEmbeddingRepository creates a new EmbeddingRepository.
func NewEmbeddingRepository(backend *Backend) *EmbeddingRepository {
	return &EmbeddingRepository{backend: backend}
}

// Close is a no-op; the backend owns the database handle.
func (r *EmbeddingRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *EmbeddingRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutEmbedding stores or replaces the embedding for id.
func (r *EmbeddingRepository) PutEmbedding(ctx context.Context, id core.ID, vector core.Embedding) error {
	if len(vector) == 0 {
		return fmt.Errorf("%w: embedding for %d is empty", storage.ErrInvalidQuery, id)
	}
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeEmbeddingKey(id), storage.MarshalVector(vector)); err != nil {
			return err
		}
		return commit(tx)
	}, true)
}

// GetEmbedding retrieves the embedding for id.
func (r *EmbeddingRepository) GetEmbedding(ctx context.Context, id core.ID) (core.Embedding, error) {
	var vector core.Embedding
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEmbeddingKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			vector, err = storage.UnmarshalVector(val)
			return err
		})
	}, false)
	return vector, err
}

// DeleteEmbedding removes the embedding for id.
func (r *EmbeddingRepository) DeleteEmbedding(ctx context.Context, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeEmbeddingKey(id)
		if _, err := tx.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return commit(tx)
	}, true)
}

// Count returns the number of stored embeddings.
func (r *EmbeddingRepository) Count(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(embeddingPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// FindSimilar scans every stored embedding and recomputes its cosine
// similarity to vector. Embeddings whose length differs from the query are skipped.
func (r *EmbeddingRepository) FindSimilar(ctx context.Context, vector []float32, threshold float64, limit int) ([]core.SimilarityMatch, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: query vector is empty", storage.ErrInvalidQuery)
	}
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", storage.ErrInvalidQuery, limit)
	}

	var results []core.SimilarityMatch
	skipped := 0

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(embeddingPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := iter.Item()
			id := idFromKey(embeddingPrefix, item.Key())

			var stored []float32
			if err := item.Value(func(val []byte) error {
				var err error
				stored, err = storage.UnmarshalVector(val)
				return err
			}); err != nil {
				return err
			}
			if len(stored) != len(vector) {
				skipped++
				continue
			}

			similarity, err := core.CosineSimilarity(vector, stored)
			if err != nil {
				return err
			}

			// Strictly above the threshold
			if similarity > threshold {
				results = append(results, core.SimilarityMatch{RecordId: id, Score: similarity})
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	if skipped > 0 {
		r.backend.logger.Warn("skipped embeddings with mismatched dimensions", "count", skipped, "want", len(vector))
	}

	// Sort by similarity descending, ties by ID for a stable order
	slices.SortFunc(results, func(a, b core.SimilarityMatch) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.RecordId, b.RecordId)
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}
