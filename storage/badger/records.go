package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/enrichit/core"
	"github.com/poiesic/enrichit/storage"
)

// RecordRepository implements storage.RecordRepository for BadgerDB.
type RecordRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.RecordRepository = (*RecordRepository)(nil)

// NewRecordRepository creates a new RecordRepository.
func NewRecordRepository(backend *Backend) (*RecordRepository, error) {
	idSeq, err := backend.GetSequence(recordIDSeq)
	if err != nil {
		return nil, err
	}

	return &RecordRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *RecordRepository) Close() error {
	return r.idSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *RecordRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

func (r *RecordRepository) nextID() (core.ID, error) {
	nextID, err := r.idSeq.Next()
	if err != nil {
		return 0, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if nextID == 0 {
		nextID, err = r.idSeq.Next()
		if err != nil {
			return 0, err
		}
	}
	return core.ID(nextID), nil
}

// AddRecord adds a record to storage.
func (r *RecordRepository) AddRecord(ctx context.Context, record *core.ContentRecord) (*core.ContentRecord, error) {
	if err := core.ValidateRecord(record); err != nil {
		return nil, err
	}
	if record.ContentHash == 0 {
		record.ContentHash = core.IDFromContent(record.Body)
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		hashKey := makeRecordHashKey(record.ContentHash)
		if _, err := tx.Get(hashKey); err == nil {
			return storage.ErrDuplicateKey
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		id, err := r.nextID()
		if err != nil {
			return err
		}
		record.Id = id
		record.InsertedAt = time.Now().UTC()
		record.UpdatedAt = record.InsertedAt

		value, err := storage.MarshalRecord(record)
		if err != nil {
			return err
		}
		if err := tx.Set(makeRecordKey(record.Id), value); err != nil {
			return err
		}
		if err := tx.Set(hashKey, storage.MarshalID(record.Id)); err != nil {
			return err
		}

		// A concurrent insert of the same body conflicts on the hash key.
		if err := tx.Commit(); err != nil {
			if errors.Is(err, badger.ErrConflict) {
				return storage.ErrDuplicateKey
			}
			return err
		}
		return nil
	}, true)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// UpdateRecord replaces an existing record, keeping its InsertedAt.
func (r *RecordRepository) UpdateRecord(ctx context.Context, record *core.ContentRecord) (*core.ContentRecord, error) {
	if err := core.ValidateRecord(record); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeRecordKey(record.Id)

		old, err := readRecord(tx, key)
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}

		if record.ContentHash == 0 {
			record.ContentHash = core.IDFromContent(record.Body)
		}
		if record.ContentHash != old.ContentHash {
			newHashKey := makeRecordHashKey(record.ContentHash)
			if _, err := tx.Get(newHashKey); err == nil {
				return storage.ErrDuplicateKey
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			if err := tx.Delete(makeRecordHashKey(old.ContentHash)); err != nil {
				return err
			}
			if err := tx.Set(newHashKey, storage.MarshalID(record.Id)); err != nil {
				return err
			}
		}

		record.InsertedAt = old.InsertedAt
		record.UpdatedAt = time.Now().UTC()

		value, err := storage.MarshalRecord(record)
		if err != nil {
			return err
		}
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return commit(tx)
	}, true)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// DeleteRecord removes a record and its hash index entry.
func (r *RecordRepository) DeleteRecord(ctx context.Context, id core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeRecordKey(id)

		record, err := readRecord(tx, key)
		if err != nil {
			return err
		}
		if record == nil {
			return storage.ErrNotFound
		}

		if err := tx.Delete(makeRecordHashKey(record.ContentHash)); err != nil {
			return err
		}
		if err := tx.Delete(key); err != nil {
			return err
		}
		return commit(tx)
	}, true)
}

// GetRecord retrieves a single record by ID.
func (r *RecordRepository) GetRecord(ctx context.Context, id core.ID) (*core.ContentRecord, error) {
	var result *core.ContentRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readRecord(tx, makeRecordKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetRecords retrieves multiple records by their IDs.
func (r *RecordRepository) GetRecords(ctx context.Context, ids ...core.ID) ([]*core.ContentRecord, error) {
	var result []*core.ContentRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			record, err := readRecord(tx, makeRecordKey(id))
			if err != nil {
				return err
			}
			if record != nil {
				result = append(result, record)
			}
		}
		return nil
	}, false)
	return result, err
}

// FindByContentHash looks a record up through the hash index.
func (r *RecordRepository) FindByContentHash(ctx context.Context, hash core.ID) (*core.ContentRecord, error) {
	var result *core.ContentRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeRecordHashKey(hash))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}

		var id core.ID
		if err := item.Value(func(val []byte) error {
			var err error
			id, err = storage.UnmarshalID(val)
			return err
		}); err != nil {
			return err
		}

		result, err = readRecord(tx, makeRecordKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("%w: hash index points at missing record %d", storage.ErrNotFound, id)
		}
		return nil
	}, false)
	return result, err
}

// ListRecords pages through records in ID order.
func (r *RecordRepository) ListRecords(ctx context.Context, afterID core.ID, limit int) ([]*core.ContentRecord, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", storage.ErrInvalidQuery, limit)
	}

	var results []*core.ContentRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(recordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(makeRecordKey(afterID)); iter.Valid() && len(results) < limit; iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := iter.Item()
			if idFromKey(recordPrefix, item.Key()) == afterID {
				continue
			}

			var record *core.ContentRecord
			if err := item.Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalRecord(val)
				return err
			}); err != nil {
				return err
			}
			results = append(results, record)
		}
		return nil
	}, false)
	return results, err
}

// Count returns the number of stored records.
func (r *RecordRepository) Count(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(recordPrefix)
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

// readRecord reads a record from the transaction.
// Returns nil, nil if the record doesn't exist.
func readRecord(tx *badger.Txn, key []byte) (*core.ContentRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var record *core.ContentRecord
	err = item.Value(func(val []byte) error {
		var err error
		record, err = storage.UnmarshalRecord(val)
		return err
	})
	return record, err
}
