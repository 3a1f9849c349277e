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


package enrichit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/poiesic/enrichit/ai"
	"github.com/poiesic/enrichit/ai/openai"
	"github.com/poiesic/enrichit/capability"
	"github.com/poiesic/enrichit/core"
	"github.com/poiesic/enrichit/pipeline"
	"github.com/poiesic/enrichit/reindex"
	"github.com/poiesic/enrichit/search"
	"github.com/poiesic/enrichit/storage"
	"github.com/poiesic/enrichit/storage/badger"
)

// Database ties the enrichment pipeline to persistent storage. It turns raw
// text into stored content records and answers similarity queries over them.
type Database struct {
	store       *badger.Store
	records     storage.RecordRepository
	embeddings  storage.EmbeddingRepository
	checkpoints storage.CheckpointRepository
	provider    ai.AIProvider
	invoker     *capability.Invoker
	pipeline    *pipeline.Pipeline
	index       *search.Index
	logger      *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig        *ai.Config
	provider        ai.AIProvider
	pipelineOptions []pipeline.Option
	invokerOptions  []capability.Option
	logger          *slog.Logger
}

// WithAIConfig sets the provider configuration. Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithProvider injects an AI provider instead of building the OpenAI-compatible one.
// The database takes ownership and closes it.
func WithProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithPipelineOptions passes options through to pipeline.NewPipeline.
func WithPipelineOptions(opts ...pipeline.Option) DatabaseOption {
	return func(o *databaseOptions) {
		o.pipelineOptions = append(o.pipelineOptions, opts...)
	}
}

// WithInvokerOptions passes options through to capability.NewInvoker.
func WithInvokerOptions(opts ...capability.Option) DatabaseOption {
	return func(o *databaseOptions) {
		o.invokerOptions = append(o.invokerOptions, opts...)
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

// NewDatabase opens (or creates) a database stored under filePath.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	return open(filePath, false, opts)
}

// NewMemoryDatabase creates a database that lives only in memory.
func NewMemoryDatabase(opts ...DatabaseOption) (*Database, error) {
	return open("", true, opts)
}

func open(filePath string, inMemory bool, opts []DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	store, err := badger.OpenStore(filePath, inMemory)
	if err != nil {
		return nil, err
	}

	db := &Database{
		store:       store,
		records:     store.Records,
		embeddings:  store.Embeddings,
		checkpoints: store.Checkpoints,
		provider:    options.provider,
		logger:      options.logger.With("component", "database"),
	}

	if db.provider == nil {
		db.provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			db.closeStorage()
			return nil, err
		}
	}

	if err := db.wire(options); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (db *Database) wire(options *databaseOptions) error {
	var err error
	invokerOpts := append([]capability.Option{capability.WithLogger(options.logger)}, options.invokerOptions...)
	db.invoker, err = capability.NewInvoker(db.provider, options.aiConfig, invokerOpts...)
	if err != nil {
		return err
	}

	pipelineOpts := append([]pipeline.Option{pipeline.WithLogger(options.logger)}, options.pipelineOptions...)
	db.pipeline, err = pipeline.NewPipeline(db.invoker, pipelineOpts...)
	if err != nil {
		return err
	}

	db.index, err = search.NewIndex(db.embeddings, db.records, db.invoker, search.WithLogger(options.logger))
	return err
}

// Close releases the pipeline, the AI provider and the storage backend.
func (db *Database) Close() error {
	if db.pipeline != nil {
		db.pipeline.Release()
	}

	// Close AI provider first
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	return db.closeStorage()
}

func (db *Database) closeStorage() error {
	if err := db.store.Close(); err != nil {
		db.logger.Error("error closing storage", "err", err)
		return err
	}
	return nil
}

// CreateRecord enriches text and stores the outcome. The record is approved
// when the quality gate passed it and needs_review otherwise. Nothing is
// stored when the pipeline fails. Submitting text that is already stored
// returns storage.ErrDuplicateKey without calling the AI provider.
func (db *Database) CreateRecord(ctx context.Context, text string) (*core.ContentRecord, error) {
	hash := core.IDFromContent(text)
	existing, err := db.records.FindByContentHash(ctx, hash)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: text already stored as record %d", storage.ErrDuplicateKey, existing.Id)
	case !errors.Is(err, storage.ErrNotFound):
		return nil, err
	}

	result, err := db.pipeline.Process(ctx, text)
	if err != nil {
		return nil, err
	}

	record, err := db.records.AddRecord(ctx, &core.ContentRecord{
		ContentHash: hash,
		Body:        text,
		Status:      statusOf(result),
		Result:      result.WithoutEmbedding(),
	})
	if err != nil {
		return nil, err
	}

	if err := db.index.Index(ctx, record.Id, result.Embedding); err != nil {
		if derr := db.records.DeleteRecord(ctx, record.Id); derr != nil {
			db.logger.Error("failed to roll back record", "id", record.Id, "err", derr)
		}
		return nil, fmt.Errorf("failed to index record: %w", err)
	}

	db.logger.Info("record created", "id", record.Id, "status", record.Status, "score", result.QualityScore)
	return record, nil
}

// Reprocess runs a fresh pipeline over a stored record's text and replaces
// its result and embedding. On failure the stored record is left unchanged.
func (db *Database) Reprocess(ctx context.Context, id core.ID) (*core.ContentRecord, error) {
	current, err := db.records.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	result, err := db.pipeline.Process(ctx, current.Body)
	if err != nil {
		return nil, err
	}

	updated := *current
	updated.Status = statusOf(result)
	updated.Result = result.WithoutEmbedding()
	record, err := db.records.UpdateRecord(ctx, &updated)
	if err != nil {
		return nil, err
	}

	if err := db.index.Index(ctx, id, result.Embedding); err != nil {
		if _, rerr := db.records.UpdateRecord(ctx, current); rerr != nil {
			db.logger.Error("failed to restore record", "id", id, "err", rerr)
		}
		return nil, fmt.Errorf("failed to index record: %w", err)
	}

	db.logger.Info("record reprocessed", "id", id, "status", record.Status, "score", result.QualityScore)
	return record, nil
}

func statusOf(result *core.PipelineResult) core.RecordStatus {
	if result.Passed {
		return core.RecordStatusApproved
	}
	return core.RecordStatusNeedsReview
}

// GetRecord returns a stored record.
func (db *Database) GetRecord(ctx context.Context, id core.ID) (*core.ContentRecord, error) {
	return db.records.GetRecord(ctx, id)
}

// GetEmbedding returns a stored record's embedding.
func (db *Database) GetEmbedding(ctx context.Context, id core.ID) (core.Embedding, error) {
	return db.embeddings.GetEmbedding(ctx, id)
}

// DeleteRecord removes a record and its embedding.
func (db *Database) DeleteRecord(ctx context.Context, id core.ID) error {
	if err := db.records.DeleteRecord(ctx, id); err != nil {
		return err
	}
	return db.index.Remove(ctx, id)
}

// Search finds stored records similar to vector.
func (db *Database) Search(ctx context.Context, vector []float32, opts ...search.QueryOption) ([]*core.SearchResult, error) {
	return db.index.SearchRecords(ctx, vector, opts...)
}

// SearchText embeds text and finds stored records similar to it.
func (db *Database) SearchText(ctx context.Context, text string, opts ...search.QueryOption) ([]*core.SearchResult, error) {
	return db.index.SearchText(ctx, text, opts...)
}

// EstimateCost projects the AI spend for processing documentCount documents.
func (db *Database) EstimateCost(documentCount int) (core.CostEstimate, error) {
	return db.pipeline.EstimateCost(documentCount)
}

// Reindex recomputes the embedding of every stored record.
// Progress lines are written to progress; pass nil to discard them.
func (db *Database) Reindex(ctx context.Context, config *reindex.Config, progress io.Writer) (*reindex.Report, error) {
	r, err := reindex.NewReindexer(db.records, db.checkpoints, db.invoker, db.index, config, progress)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.Run(ctx)
}

// Count returns the number of stored records.
func (db *Database) Count(ctx context.Context) (int, error) {
	return db.records.Count(ctx)
}
