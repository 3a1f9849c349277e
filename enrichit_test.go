package enrichit

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/enrichit/ai"
	"github.com/poiesic/enrichit/ai/mock"
	"github.com/poiesic/enrichit/capability"
	"github.com/poiesic/enrichit/core"
	"github.com/poiesic/enrichit/reindex"
	"github.com/poiesic/enrichit/search"
	"github.com/poiesic/enrichit/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleGo = `# Building Concurrent Services in Go

Go was designed to make networked services easier to write. Goroutines are
cheap enough to start one per request, and channels let them coordinate.`

const articleRust = `# Ownership in Rust

Rust tracks who owns every value at compile time. The borrow checker rejects
programs that could race or use memory after it is freed.`

var qualityTask = core.KindQualityAssessment.String()

func lowScore() string {
	return strings.Replace(mock.DefaultResponses[qualityTask], `"score": 85`, `"score": 55`, 1)
}

type fixture struct {
	db  *Database
	gen *mock.MockGenerator
	emb *mock.MockEmbedder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gen := mock.NewMockGenerator()
	emb := mock.NewMockEmbedder()
	db, err := NewMemoryDatabase(
		WithProvider(mock.NewMockProviderWithServices(gen, emb)),
		WithInvokerOptions(capability.WithRetryBackoff(0)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &fixture{db: db, gen: gen, emb: emb}
}

func TestNewDatabase(t *testing.T) {
	t.Run("create new database", func(t *testing.T) {
		tmpDir := filepath.Join(t.TempDir(), "test_db")
		db, err := NewDatabase(tmpDir)
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		assert.NotNil(t, db.store)
		assert.NotNil(t, db.pipeline)
		assert.NotNil(t, db.index)
		assert.NotNil(t, db.logger)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		err := os.WriteFile(tmpFile, []byte("test"), 0644)
		require.NoError(t, err)

		db, err := NewDatabase(tmpFile)
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("error with invalid ai config", func(t *testing.T) {
		db, err := NewDatabase(t.TempDir(), WithAIConfig(ai.NewConfig(ai.WithGeneratorModel(""))))
		assert.ErrorIs(t, err, ai.ErrInvalidConfig)
		assert.Nil(t, db)
	})
}

func TestDatabase_Close(t *testing.T) {
	db, err := NewDatabase(t.TempDir())
	require.NoError(t, err)
	assert.NoError(t, db.Close())

	provider := mock.NewMockProvider().(*mock.MockProvider)
	db, err = NewMemoryDatabase(WithProvider(provider))
	require.NoError(t, err)
	assert.False(t, provider.Closed())
	assert.NoError(t, db.Close())
	assert.True(t, provider.Closed())
}

func TestCreateRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	record, err := f.db.CreateRecord(ctx, articleGo)
	require.NoError(t, err)
	assert.NotZero(t, record.Id)
	assert.Equal(t, core.RecordStatusApproved, record.Status)
	assert.Equal(t, core.IDFromContent(articleGo), record.ContentHash)
	assert.Equal(t, 85, record.Result.QualityScore)
	assert.True(t, record.Result.Passed)
	assert.Empty(t, record.Result.Embedding)

	stored, err := f.db.GetRecord(ctx, record.Id)
	require.NoError(t, err)
	assert.Equal(t, "Building Concurrent Services in Go", stored.Title())
	assert.Equal(t, core.Tags{"go", "concurrency", "backend", "goroutines"}, stored.Result.Tags)

	vector, err := f.db.GetEmbedding(ctx, record.Id)
	require.NoError(t, err)
	assert.Equal(t, core.Embedding(mock.Vector(articleGo, core.EmbeddingDimensions)), vector)

	n, err := f.db.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCreateRecord_NeedsReview(t *testing.T) {
	f := newFixture(t)
	f.gen.WithResponse(qualityTask, lowScore())

	record, err := f.db.CreateRecord(context.Background(), articleGo)
	require.NoError(t, err)
	assert.Equal(t, core.RecordStatusNeedsReview, record.Status)
	assert.Equal(t, 55, record.Result.QualityScore)
	assert.False(t, record.Result.Passed)
	assert.Equal(t, "Solid metadata set.", record.Result.ValidationReport.OverallFeedback)
	assert.NotEmpty(t, record.Result.ValidationReport.Recommendations)
}

func TestCreateRecord_Duplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.db.CreateRecord(ctx, articleGo)
	require.NoError(t, err)
	calls := f.gen.CallCount()

	_, err = f.db.CreateRecord(ctx, articleGo)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	assert.Equal(t, calls, f.gen.CallCount(), "duplicates are rejected before enrichment")
}

func TestCreateRecord_FailuresStoreNothing(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		setup   func(f *fixture)
		wantErr error
	}{
		{
			name:    "empty input",
			text:    "   ",
			wantErr: core.ErrEmptyInput,
		},
		{
			name: "capability failure",
			text: articleGo,
			setup: func(f *fixture) {
				f.gen.WithGenerateFunc(func(ctx context.Context, req ai.GenerateRequest) (string, error) {
					if req.Task == core.KindVisualPrompt.String() {
						return "", fmt.Errorf("%w: boom", ai.ErrProvider)
					}
					return mock.DefaultResponses[req.Task], nil
				})
			},
			wantErr: ai.ErrProvider,
		},
		{
			name: "embedding failure",
			text: articleGo,
			setup: func(f *fixture) {
				f.emb.WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
					return []float32{1, 2, 3}, nil
				})
			},
			wantErr: core.ErrDimensionMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.setup != nil {
				tt.setup(f)
			}

			record, err := f.db.CreateRecord(context.Background(), tt.text)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, record)

			n, err := f.db.Count(context.Background())
			require.NoError(t, err)
			assert.Zero(t, n)
		})
	}
}

func TestReprocess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	original, err := f.db.CreateRecord(ctx, articleGo)
	require.NoError(t, err)
	insertedAt := original.InsertedAt
	originalResult := original.Result

	f.gen.WithResponse(qualityTask, lowScore())
	updated, err := f.db.Reprocess(ctx, original.Id)
	require.NoError(t, err)
	assert.Equal(t, original.Id, updated.Id)
	assert.Equal(t, core.RecordStatusNeedsReview, updated.Status)
	assert.Equal(t, 55, updated.Result.QualityScore)
	assert.True(t, insertedAt.Equal(updated.InsertedAt))
	assert.NotSame(t, originalResult, updated.Result)
	assert.Equal(t, 85, originalResult.QualityScore, "previous result is not mutated")

	stored, err := f.db.GetRecord(ctx, original.Id)
	require.NoError(t, err)
	assert.Equal(t, core.RecordStatusNeedsReview, stored.Status)
}

func TestReprocess_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.db.Reprocess(ctx, 999)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	record, err := f.db.CreateRecord(ctx, articleGo)
	require.NoError(t, err)

	f.gen.WithGenerateFunc(func(ctx context.Context, req ai.GenerateRequest) (string, error) {
		return "not json", nil
	})
	_, err = f.db.Reprocess(ctx, record.Id)
	assert.ErrorIs(t, err, core.ErrMalformedOutput)

	stored, err := f.db.GetRecord(ctx, record.Id)
	require.NoError(t, err)
	assert.Equal(t, core.RecordStatusApproved, stored.Status, "failed reprocess keeps the stored record")
}

func TestDeleteRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	record, err := f.db.CreateRecord(ctx, articleGo)
	require.NoError(t, err)

	require.NoError(t, f.db.DeleteRecord(ctx, record.Id))

	_, err = f.db.GetRecord(ctx, record.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = f.db.GetEmbedding(ctx, record.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, f.db.DeleteRecord(ctx, record.Id), storage.ErrNotFound)

	// The same text can be stored again once deleted.
	_, err = f.db.CreateRecord(ctx, articleGo)
	assert.NoError(t, err)
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	goRecord, err := f.db.CreateRecord(ctx, articleGo)
	require.NoError(t, err)
	_, err = f.db.CreateRecord(ctx, articleRust)
	require.NoError(t, err)

	results, err := f.db.Search(ctx, mock.Vector(articleGo, core.EmbeddingDimensions), search.WithThreshold(0.99))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, goRecord.Id, results[0].Record.Id)
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)

	results, err = f.db.SearchText(ctx, articleGo, search.WithThreshold(0.99))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, goRecord.Id, results[0].Record.Id)

	_, err = f.db.Search(ctx, []float32{1, 0}, search.WithThreshold(0.5))
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}

func TestEstimateCost(t *testing.T) {
	f := newFixture(t)

	est, err := f.db.EstimateCost(10)
	require.NoError(t, err)
	assert.Equal(t, 10, est.Documents)
	assert.InDelta(t, 10*core.PerDocumentCost(), est.Total, 1e-9)

	_, err = f.db.EstimateCost(-1)
	assert.ErrorIs(t, err, core.ErrInvalidDocumentCount)
}

func TestReindex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.db.CreateRecord(ctx, articleGo)
	require.NoError(t, err)
	_, err = f.db.CreateRecord(ctx, articleRust)
	require.NoError(t, err)
	before := f.emb.CallCount()

	var out bytes.Buffer
	cfg := reindex.DefaultConfig()
	cfg.RetryDelay = 0
	report, err := f.db.Reindex(ctx, cfg, &out)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 2, report.Reindexed)
	assert.Equal(t, before+2, f.emb.CallCount())
	assert.Contains(t, out.String(), "Reindex complete")
}
