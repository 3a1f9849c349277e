package reindex

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/poiesic/enrichit/ai/mock"
	"github.com/poiesic/enrichit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// indexRecorder is an Indexer that writes straight to the embedding repository.
type indexRecorder struct {
	e *env
}

func (ix indexRecorder) Index(ctx context.Context, id core.ID, vector core.Embedding) error {
	if err := core.ValidateEmbedding(vector); err != nil {
		return err
	}
	return ix.e.embeddings.PutEmbedding(ctx, id, vector)
}

func TestBatchProcessor_Process(t *testing.T) {
	e := newEnv(t)
	records := e.seed(t, 5)
	emb := newFakeEmbedder()

	bp, err := NewBatchProcessor(emb, indexRecorder{e}, 2, 3, time.Millisecond)
	require.NoError(t, err)
	defer bp.Release()

	res := bp.Process(context.Background(), records)
	require.NoError(t, res.Err)
	assert.Equal(t, 5, res.Succeeded)
	assert.Zero(t, res.Failed)

	for _, r := range records {
		v, err := e.embeddings.GetEmbedding(context.Background(), r.Id)
		require.NoError(t, err)
		assert.Equal(t, core.Embedding(mock.Vector(r.Body, core.EmbeddingDimensions)), v)
	}
}

func TestBatchProcessor_PartialFailure(t *testing.T) {
	e := newEnv(t)
	records := e.seed(t, 4)
	emb := newFakeEmbedder("number 2.")

	bp, err := NewBatchProcessor(emb, indexRecorder{e}, 4, 2, time.Millisecond)
	require.NoError(t, err)
	defer bp.Release()

	res := bp.Process(context.Background(), records)
	assert.Equal(t, 3, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, []core.ID{records[1].Id}, res.FailedIDs)
	assert.ErrorIs(t, res.Err, errEmbed)
	assert.Contains(t, res.Err.Error(), fmt.Sprintf("record %d", records[1].Id))
	assert.Equal(t, 2, emb.count(records[1].Body), "transient errors are retried")

	n, err := e.embeddings.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestBatchProcessor_Empty(t *testing.T) {
	e := newEnv(t)
	bp, err := NewBatchProcessor(newFakeEmbedder(), indexRecorder{e}, 0, 1, time.Millisecond)
	require.NoError(t, err)
	defer bp.Release()

	res := bp.Process(context.Background(), nil)
	assert.Equal(t, BatchResult{}, res)
}
