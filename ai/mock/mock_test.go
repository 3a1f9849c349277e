package mock

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/poiesic/enrichit/ai"
	"github.com/poiesic/enrichit/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultResponses_AreValidJSON(t *testing.T) {
	for _, kind := range core.AllKinds {
		if kind == core.KindEmbeddingVector {
			continue
		}
		resp, ok := DefaultResponses[kind.String()]
		require.True(t, ok, "missing response for %s", kind)
		assert.True(t, json.Valid([]byte(resp)), "invalid JSON for %s", kind)
	}
}

func TestMockGenerator(t *testing.T) {
	ctx := context.Background()
	gen := NewMockGenerator()

	out, err := gen.Generate(ctx, ai.GenerateRequest{Task: "tagging"})
	require.NoError(t, err)
	assert.Contains(t, out, "concurrency")

	_, err = gen.Generate(ctx, ai.GenerateRequest{Task: "unknown"})
	assert.ErrorIs(t, err, ai.ErrProvider)

	gen.WithResponse("tagging", "custom")
	out, err = gen.Generate(ctx, ai.GenerateRequest{Task: "tagging"})
	require.NoError(t, err)
	assert.Equal(t, "custom", out)
	assert.NotContains(t, DefaultResponses["tagging"], "custom")

	boom := errors.New("boom")
	gen.WithGenerateFunc(func(ctx context.Context, req ai.GenerateRequest) (string, error) {
		return "", boom
	})
	_, err = gen.Generate(ctx, ai.GenerateRequest{Task: "tagging"})
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, 4, gen.CallCount())
	assert.Equal(t, 3, gen.TaskCount("tagging"))
	assert.Len(t, gen.Requests(), 4)

	gen.Reset()
	assert.Zero(t, gen.CallCount())
	assert.Nil(t, gen.GenerateFunc)
}

func TestMockGenerator_Concurrent(t *testing.T) {
	gen := NewMockGenerator()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = gen.Generate(context.Background(), ai.GenerateRequest{Task: "classification"})
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, gen.CallCount())
}

func TestMockEmbedder(t *testing.T) {
	ctx := context.Background()
	emb := NewMockEmbedder()

	v1, err := emb.EmbedText(ctx, "hello")
	require.NoError(t, err)
	v2, err := emb.EmbedText(ctx, "hello")
	require.NoError(t, err)
	v3, err := emb.EmbedText(ctx, "goodbye")
	require.NoError(t, err)

	assert.Len(t, v1, core.EmbeddingDimensions)
	assert.Equal(t, v1, v2)
	assert.NotEqual(t, v1, v3)
	assert.NoError(t, core.ValidateEmbedding(v1))

	var sum float64
	for _, x := range v1 {
		sum += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sum), 1e-4)

	batch, err := emb.EmbedTexts(ctx, []string{"hello", "goodbye"})
	require.NoError(t, err)
	assert.Equal(t, v1, batch[0])
	assert.Equal(t, v3, batch[1])
	assert.Equal(t, 4, emb.CallCount())
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider().(*MockProvider)
	assert.Same(t, p.GetMockGenerator(), p.Generator())
	assert.Same(t, p.GetMockEmbedder(), p.Embedder())
	assert.False(t, p.Closed())
	assert.NoError(t, p.Close())
	assert.True(t, p.Closed())
}
