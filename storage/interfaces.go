package storage

import (
	"context"

	"github.com/poiesic/enrichit/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close releases resources held by the repository.
	Close() error
}

// RecordRepository provides operations for managing enriched content records.
// Records are stored without their embedding; see EmbeddingRepository.
type RecordRepository interface {
	Repository

	// AddRecord stores a new record.
	// Generates the ID from a sequence and sets InsertedAt/UpdatedAt.
	// Returns ErrDuplicateKey if a record with the same ContentHash exists.
	AddRecord(ctx context.Context, record *core.ContentRecord) (*core.ContentRecord, error)

	// UpdateRecord replaces an existing record.
	// Updates the UpdatedAt timestamp automatically.
	// Returns ErrNotFound if the record doesn't exist.
	UpdateRecord(ctx context.Context, record *core.ContentRecord) (*core.ContentRecord, error)

	// DeleteRecord removes a record and its content hash index entry.
	// Returns ErrNotFound if the record doesn't exist.
	DeleteRecord(ctx context.Context, id core.ID) error

	// GetRecord retrieves a single record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetRecord(ctx context.Context, id core.ID) (*core.ContentRecord, error)

	// GetRecords retrieves multiple records by their IDs.
	// Returns only the records that exist (no error for missing records).
	GetRecords(ctx context.Context, ids ...core.ID) ([]*core.ContentRecord, error)

	// FindByContentHash finds the record whose body hashes to hash.
	// Returns ErrNotFound if no record matches.
	FindByContentHash(ctx context.Context, hash core.ID) (*core.ContentRecord, error)

	// ListRecords returns up to limit records with ID greater than afterID,
	// in ascending ID order. Pass 0 to start from the beginning.
	ListRecords(ctx context.Context, afterID core.ID, limit int) ([]*core.ContentRecord, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}

// EmbeddingRepository stores document embeddings keyed by record ID and
// answers nearest-neighbour queries over them.
type EmbeddingRepository interface {
	Repository

	// PutEmbedding stores or replaces the embedding for id.
	PutEmbedding(ctx context.Context, id core.ID, vector core.Embedding) error

	// GetEmbedding retrieves the embedding for id.
	// Returns ErrNotFound if none is stored.
	GetEmbedding(ctx context.Context, id core.ID) (core.Embedding, error)

	// DeleteEmbedding removes the embedding for id.
	// Returns ErrNotFound if none is stored.
	DeleteEmbedding(ctx context.Context, id core.ID) error

	// FindSimilar returns up to limit matches whose cosine similarity to vector
	// is strictly greater than threshold, ordered by similarity descending.
	// Similarity is recomputed exactly for every stored embedding.
	FindSimilar(ctx context.Context, vector []float32, threshold float64, limit int) ([]core.SimilarityMatch, error)

	// Count returns the number of stored embeddings.
	Count(ctx context.Context) (int, error)
}

// CheckpointRepository persists progress markers for resumable batch jobs.
type CheckpointRepository interface {
	// SaveCheckpoint stores checkpoint under its Name, setting UpdatedAt.
	SaveCheckpoint(ctx context.Context, checkpoint *core.Checkpoint) error

	// LoadCheckpoint retrieves the checkpoint stored under name.
	// Returns nil, nil if no checkpoint exists.
	LoadCheckpoint(ctx context.Context, name string) (*core.Checkpoint, error)

	// DeleteCheckpoint removes the checkpoint stored under name. Missing checkpoints are ignored.
	DeleteCheckpoint(ctx context.Context, name string) error
}
