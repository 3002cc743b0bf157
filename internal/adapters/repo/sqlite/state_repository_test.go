package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bnema/lumiere-ledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState(t *testing.T) domain.State {
	t.Helper()

	now := time.Date(2026, 3, 1, 9, 0, 0, 987654321, time.UTC)
	price := 1.2346

	state := domain.NewState()
	state.Tokens["finance"] = domain.Token{
		ResourceKey: "finance",
		Specialty:   "finance",
		DisplayName: "Finance Guide",
		MintAddress: "9xQe",
		MetadataURI: "mock://lumiere/finance",
		Owner:       "bob",
		OwnershipHistory: []domain.OwnershipRecord{
			{Owner: "alice", At: now, Reason: domain.OwnershipReasonMint},
			{Owner: "bob", At: now.Add(time.Minute), Reason: domain.OwnershipReasonBuy},
		},
		Listed:           true,
		ListPrice:        &price,
		RentPricePerHour: 0.05,
		TrainScore:       1,
		UsageCount:       2,
		ValueScore:       1.62,
		TenantID:         "t1",
		CreatedAt:        now,
	}
	state.Tokens["personal::zoe"] = domain.Token{
		ResourceKey:      "personal::zoe",
		Specialty:        "personal",
		MintAddress:      "3kPa",
		Owner:            "zoe",
		OwnershipHistory: []domain.OwnershipRecord{{Owner: "zoe", At: now, Reason: domain.OwnershipReasonMint}},
		RentPricePerHour: 0.05,
		ValueScore:       1.5,
		CreatedAt:        now,
	}
	state.Rentals["finance"] = domain.Rental{
		ResourceKey:       "finance",
		Specialty:         "finance",
		OwnerAtRentalTime: "bob",
		Renter:            "carol",
		Hours:             1,
		PricePerHour:      0.05,
		StartedAt:         now,
		ExpiresAt:         now.Add(time.Hour),
	}
	state.PendingReviews["m1"] = domain.PendingTrainingReview{
		MessageID: "m1",
		Specialty: "finance",
		Requester: "carol",
		Question:  "q",
		Answer:    "a",
		CreatedAt: now,
	}

	prev := domain.GenesisHash
	for i, event := range []domain.EventType{domain.EventMint, domain.EventList, domain.EventTransfer, domain.EventRent} {
		entry, err := domain.NewLedgerEntry(prev, now.Add(time.Duration(i)*time.Second), event, "finance", map[string]any{"i": i})
		require.NoError(t, err)
		state.Ledger = append(state.Ledger, entry)
		prev = entry.Hash
	}
	state.LedgerDropped = 2
	state.UpdatedAt = now

	return state
}

func TestOpenMemorySchemaVersion(t *testing.T) {
	t.Parallel()

	db, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	v, err := db.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, len(migrations), v)
}

func TestStateRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	db, err := Open(filepath.Join(t.TempDir(), "nested", "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewStateRepository(db)
	state := sampleState(t)
	require.NoError(t, repo.Save(context.Background(), state))

	loaded, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, state, loaded)
	require.NoError(t, domain.VerifyChain(loaded.Ledger, true))
}

func TestStateRepositorySaveReplacesPreviousState(t *testing.T) {
	t.Parallel()

	db, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewStateRepository(db)
	require.NoError(t, repo.Save(context.Background(), sampleState(t)))

	next := sampleState(t)
	delete(next.Rentals, "finance")
	delete(next.PendingReviews, "m1")
	delete(next.Tokens, "personal::zoe")
	next.Ledger = next.Ledger[:1]
	require.NoError(t, repo.Save(context.Background(), next))

	loaded, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, loaded.Tokens, 1)
	assert.Empty(t, loaded.Rentals)
	assert.Empty(t, loaded.PendingReviews)
	assert.Len(t, loaded.Ledger, 1)
	assert.Len(t, loaded.Tokens["finance"].OwnershipHistory, 2)
}

func TestStateRepositoryMalformedTimestampFailsLoad(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		stmt    string
		wantErr string
	}{
		{
			name:    "rental expiry",
			stmt:    "UPDATE rentals SET expires_at = 'next tuesday' WHERE resource_key = 'finance'",
			wantErr: `decode rental "finance" expires_at`,
		},
		{
			name:    "token created at",
			stmt:    "UPDATE tokens SET created_at = 'yesterday' WHERE resource_key = 'finance'",
			wantErr: `decode token "finance" created_at`,
		},
		{
			name:    "review created at",
			stmt:    "UPDATE pending_reviews SET created_at = 'now-ish' WHERE message_id = 'm1'",
			wantErr: `decode review "m1" created_at`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, err := OpenMemory()
			require.NoError(t, err)
			t.Cleanup(func() { _ = db.Close() })

			repo := NewStateRepository(db)
			require.NoError(t, repo.Save(context.Background(), sampleState(t)))

			_, err = db.ExecContext(context.Background(), tt.stmt)
			require.NoError(t, err)

			_, err = repo.Load(context.Background())
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestStateRepositoryEmptyDatabase(t *testing.T) {
	t.Parallel()

	db, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	state, err := NewStateRepository(db).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, state.Tokens)
	assert.Zero(t, state.LedgerDropped)
	assert.True(t, state.UpdatedAt.IsZero())
}

func TestStateRepositorySaveCanceledContext(t *testing.T) {
	t.Parallel()

	db, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, NewStateRepository(db).Save(ctx, sampleState(t)), context.Canceled)
}
