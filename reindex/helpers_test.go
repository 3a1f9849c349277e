package reindex

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/enrichit/ai/mock"
	"github.com/poiesic/enrichit/core"
	"github.com/poiesic/enrichit/storage"
	"github.com/poiesic/enrichit/storage/badger"
	"github.com/stretchr/testify/require"
)

var errEmbed = errors.New("embedding service unavailable")

// fakeEmbedder returns a deterministic vector per body and fails for any
// body containing one of the configured markers.
type fakeEmbedder struct {
	mu    sync.Mutex
	calls map[string]int
	fail  []string
}

func newFakeEmbedder(fail ...string) *fakeEmbedder {
	return &fakeEmbedder{calls: make(map[string]int), fail: fail}
}

func (f *fakeEmbedder) EmbedDocument(_ context.Context, text string) (core.Embedding, error) {
	f.mu.Lock()
	f.calls[text]++
	f.mu.Unlock()

	for _, marker := range f.fail {
		if strings.Contains(text, marker) {
			return nil, errEmbed
		}
	}
	return mock.Vector(text, core.EmbeddingDimensions), nil
}

func (f *fakeEmbedder) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeEmbedder) count(text string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[text]
}

type env struct {
	records     storage.RecordRepository
	embeddings  storage.EmbeddingRepository
	checkpoints storage.CheckpointRepository
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return &env{
		records:     store.Records,
		embeddings:  store.Embeddings,
		checkpoints: store.Checkpoints,
	}
}

func docBody(n int) string {
	return fmt.Sprintf("Stored article number %d. %s", n, strings.Repeat("It carries enough text to be valid. ", 2))
}

func (e *env) seed(t *testing.T, n int) []*core.ContentRecord {
	t.Helper()
	out := make([]*core.ContentRecord, 0, n)
	for i := 1; i <= n; i++ {
		record, err := e.records.AddRecord(context.Background(), &core.ContentRecord{
			Body:   docBody(i),
			Status: core.RecordStatusApproved,
			Result: &core.PipelineResult{QualityScore: 80, Passed: true},
		})
		require.NoError(t, err)
		out = append(out, record)
	}
	return out
}
