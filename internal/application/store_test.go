package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bnema/lumiere-ledger/internal/domain"
	"github.com/bnema/lumiere-ledger/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStoreSaveFailureLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	boom := errors.New("disk full")
	repo := mocks.NewMockStateRepository(t)
	clock := mocks.NewMockClock(t)
	repo.EXPECT().Load(mock.Anything).Return(domain.NewState(), nil).Once()
	repo.EXPECT().Save(mock.Anything, mock.Anything).Return(boom).Once()
	clock.EXPECT().Now().Return(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	store, err := NewStore(context.Background(), repo, clock, nil)
	require.NoError(t, err)

	err = store.Update(context.Background(), func(tx *Tx) error {
		tx.State.Tokens["finance"] = domain.Token{ResourceKey: "finance", Owner: "alice"}
		return tx.Record(domain.EventMint, "finance", map[string]any{"owner": "alice"})
	})
	require.ErrorIs(t, err, boom)

	snapshot := store.Snapshot()
	assert.Empty(t, snapshot.Tokens)
	assert.Empty(t, snapshot.Ledger)
}

func TestStoreFailedOperationAppendsNothing(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.mint(t, "finance", "alice", "t1")
	h.repo.FailSaves(errors.New("disk full"))

	_, err := h.market.List(context.Background(), ListCommand{Specialty: "finance", Seller: "alice", Price: 2.5})
	require.Error(t, err)

	state := h.store.Snapshot()
	assert.False(t, state.Tokens["finance"].Listed)
	assert.Equal(t, []domain.EventType{domain.EventMint}, h.events())
	assert.Len(t, h.repo.Stored().Ledger, 1)
}

func TestStoreUpdateWithoutChangesSkipsSave(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	err := h.store.Update(context.Background(), func(tx *Tx) error { return nil })
	require.NoError(t, err)
	assert.Zero(t, h.repo.Saves())
}

func TestStoreCallbackErrorDiscardsChanges(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	err := h.store.Update(context.Background(), func(tx *Tx) error {
		tx.State.Tokens["finance"] = domain.Token{ResourceKey: "finance"}
		if err := tx.Record(domain.EventMint, "finance", nil); err != nil {
			return err
		}
		return domain.Conflictf("nope")
	})
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Empty(t, h.store.Snapshot().Tokens)
	assert.Empty(t, h.store.Snapshot().Ledger)
	assert.Zero(t, h.repo.Saves())
}

func TestStoreLoadAppliesDefaults(t *testing.T) {
	t.Parallel()

	repo := mocks.NewMockStateRepository(t)
	repo.EXPECT().Load(mock.Anything).Return(domain.State{
		Tokens: map[string]domain.Token{"finance": {Owner: "alice"}},
	}, nil).Once()

	store, err := NewStore(context.Background(), repo, nil, nil)
	require.NoError(t, err)

	token := store.Snapshot().Tokens["finance"]
	assert.Equal(t, "finance", token.ResourceKey)
	assert.Equal(t, domain.DefaultRentPricePerHour, token.RentPricePerHour)
	assert.NotNil(t, store.Snapshot().Rentals)
}

func TestLedgerRetentionDropsOldestEntries(t *testing.T) {
	t.Parallel()

	h := newHarness(t, withRetention(3))
	for _, specialty := range []string{"math", "finance", "cooking", "health", "travel"} {
		h.mint(t, specialty, "alice", "t1")
		h.clock.Advance(time.Second)
	}

	state := h.store.Snapshot()
	require.Len(t, state.Ledger, 3)
	assert.Equal(t, 2, state.LedgerDropped)
	assert.NotEqual(t, domain.GenesisHash, state.Ledger[0].PrevHash)

	report, err := h.market.VerifyChain(context.Background())
	require.NoError(t, err)
	assert.True(t, report.OK)
	assert.True(t, report.Truncated)
	assert.Equal(t, 3, report.Entries)
}

func TestNewLedgerLogFallsBackToDefault(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultLedgerRetention, NewLedgerLog(0).Retention())
	assert.Equal(t, 7, NewLedgerLog(7).Retention())
}
