package badger

import "errors"

// Store opens one Backend and the three repositories that share it.
type Store struct {
	Backend     *Backend
	Records     *RecordRepository
	Embeddings  *EmbeddingRepository
	Checkpoints *CheckpointRepository
}

// OpenStore opens the database at filePath, or an in-memory one when
// inMemory is set, and builds its repositories.
func OpenStore(filePath string, inMemory bool) (*Store, error) {
	backend, err := OpenBackend(filePath, inMemory)
	if err != nil {
		return nil, err
	}

	records, err := NewRecordRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Store{
		Backend:     backend,
		Records:     records,
		Embeddings:  NewEmbeddingRepository(backend),
		Checkpoints: NewCheckpointRepository(backend),
	}, nil
}

// NewMemoryStore is OpenStore for an in-memory database.
func NewMemoryStore() (*Store, error) {
	return OpenStore("", true)
}

// Close releases the record ID sequence and then the backend.
func (s *Store) Close() error {
	return errors.Join(s.Records.Close(), s.Backend.Close())
}
