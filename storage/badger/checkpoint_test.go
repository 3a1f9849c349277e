package badger

import (
	"context"
	"testing"

	"github.com/poiesic/enrichit/core"
	"github.com/poiesic/enrichit/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointRepository(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	repo := NewCheckpointRepository(backend)
	ctx := context.Background()

	cp, err := repo.LoadCheckpoint(ctx, "reindex")
	require.NoError(t, err)
	assert.Nil(t, cp)

	require.NoError(t, repo.SaveCheckpoint(ctx, &core.Checkpoint{Name: "reindex", LastID: 42, Processed: 10, Failed: []core.ID{5, 9}}))

	cp, err = repo.LoadCheckpoint(ctx, "reindex")
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Equal(t, core.ID(42), cp.LastID)
	assert.Equal(t, 10, cp.Processed)
	assert.Equal(t, []core.ID{5, 9}, cp.Failed)
	assert.False(t, cp.UpdatedAt.IsZero())

	require.NoError(t, repo.DeleteCheckpoint(ctx, "reindex"))
	cp, err = repo.LoadCheckpoint(ctx, "reindex")
	require.NoError(t, err)
	assert.Nil(t, cp)

	assert.ErrorIs(t, repo.SaveCheckpoint(ctx, &core.Checkpoint{}), storage.ErrInvalidQuery)
}
