package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/bnema/lumiere-ledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositorySaveIsolatesCallerState(t *testing.T) {
	t.Parallel()

	repo := NewRepository()
	state := domain.NewState()
	state.Tokens["finance"] = domain.Token{ResourceKey: "finance", Owner: "alice"}

	require.NoError(t, repo.Save(context.Background(), state))
	state.Tokens["finance"] = domain.Token{ResourceKey: "finance", Owner: "mallory"}

	loaded, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", loaded.Tokens["finance"].Owner)
	assert.Equal(t, 1, repo.Saves())
}

func TestRepositoryFailSaves(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	repo := NewRepository()
	repo.FailSaves(boom)

	err := repo.Save(context.Background(), domain.NewState())
	require.ErrorIs(t, err, boom)
	assert.Zero(t, repo.Saves())

	repo.FailSaves(nil)
	require.NoError(t, repo.Save(context.Background(), domain.NewState()))
	assert.Equal(t, 1, repo.Saves())
}
