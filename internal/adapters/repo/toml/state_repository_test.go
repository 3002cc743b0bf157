package toml

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bnema/lumiere-ledger/internal/domain"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T, path string) *StateRepository {
	t.Helper()

	config := viper.New()
	config.Set(StatePathKey, path)

	repo, err := NewStateRepository(config)
	require.NoError(t, err)
	return repo
}

func sampleState(t *testing.T) domain.State {
	t.Helper()

	now := time.Date(2026, 3, 1, 9, 0, 0, 123456789, time.UTC)
	price := 2.5

	state := domain.NewState()
	state.Tokens["finance"] = domain.Token{
		ResourceKey: "finance",
		Specialty:   "finance",
		DisplayName: "Finance Guide",
		MintAddress: "7Hq3",
		MetadataURI: "mock://lumiere/finance",
		Owner:       "alice",
		OwnershipHistory: []domain.OwnershipRecord{
			{Owner: "alice", At: now, Reason: domain.OwnershipReasonMint},
		},
		Listed:           true,
		ListPrice:        &price,
		RentPricePerHour: 0.05,
		TrainScore:       3,
		UsageCount:       4,
		ValueScore:       1.55,
		TenantID:         "t1",
		CreatedAt:        now,
		LastTrainedAt:    now.Add(time.Minute),
	}
	state.Rentals["finance"] = domain.Rental{
		ResourceKey:       "finance",
		Specialty:         "finance",
		OwnerAtRentalTime: "alice",
		Renter:            "carol",
		Hours:             2,
		PricePerHour:      0.05,
		StartedAt:         now,
		ExpiresAt:         now.Add(2 * time.Hour),
	}
	state.PendingReviews["m1"] = domain.PendingTrainingReview{
		MessageID: "m1",
		Specialty: "finance",
		Requester: "carol",
		Question:  "multi\nline \"question\"",
		Answer:    "answer",
		CreatedAt: now,
	}

	prev := domain.GenesisHash
	for i, event := range []domain.EventType{domain.EventMint, domain.EventList, domain.EventRent} {
		entry, err := domain.NewLedgerEntry(prev, now.Add(time.Duration(i)*time.Millisecond), event, "finance", map[string]any{"n": i, "owner": "alice"})
		require.NoError(t, err)
		state.Ledger = append(state.Ledger, entry)
		prev = entry.Hash
	}
	state.LedgerDropped = 4
	state.UpdatedAt = now

	return state
}

func TestStateRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "state.toml"))
	state := sampleState(t)

	require.NoError(t, repo.Save(context.Background(), state))

	loaded, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, state, loaded)
	require.NoError(t, domain.VerifyChain(loaded.Ledger, loaded.LedgerDropped > 0))
}

func TestStateRepositoryMissingFileLoadsEmptyState(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "missing", "state.toml"))

	state, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, state.Tokens)
	assert.Empty(t, state.Ledger)
	assert.NotNil(t, state.PendingReviews)
}

func TestStateRepositoryDefaultPathAndPermissions(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	repo, err := NewStateRepository(viper.New())
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), domain.NewState()))

	path := filepath.Join(homeDir, ".lumiere", "state.toml")
	assert.Equal(t, path, repo.Path())
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version = 1")
	assert.Contains(t, string(data), "solana-devnet-mock")
}

func TestStateRepositoryErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "malformed", content: "tokens = [", wantErr: "decode state file"},
		{name: "future version", content: "version = 999\n", wantErr: "unsupported state schema version"},
		{
			name: "bad ledger timestamp",
			content: strings.Join([]string{
				"version = 1",
				"",
				"[[ledger]]",
				"ts = \"yesterday\"",
				"event = \"mint\"",
				"specialty = \"finance\"",
				"payload = \"{}\"",
				"prev_hash = \"genesis\"",
				"hash = \"x\"",
				"",
			}, "\n"),
			wantErr: "decode ledger entry 0 timestamp",
		},
		{
			name: "bad rental expiry",
			content: strings.Join([]string{
				"version = 1",
				"",
				"[[rentals]]",
				"resource_key = \"finance\"",
				"specialty = \"finance\"",
				"renter = \"carol\"",
				"hours = 1",
				"started_at = \"2026-03-01T09:00:00Z\"",
				"expires_at = \"next tuesday\"",
				"",
			}, "\n"),
			wantErr: `decode rental "finance" expires_at`,
		},
		{
			name:    "bad updated at",
			content: "version = 1\nupdated_at = \"soon\"\n",
			wantErr: "decode updated_at",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "state.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			_, err := newTestRepository(t, path).Load(context.Background())
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestStateRepositorySaveCanceledContextReturnsContextError(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "state.toml"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.Save(ctx, domain.NewState())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestStateRepositoryTamperedFileFailsVerification(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.toml")
	repo := newTestRepository(t, path)
	require.NoError(t, repo.Save(context.Background(), sampleState(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	tampered := strings.Replace(string(data), `"n":1,`, `"n":9,`, 1)
	tampered = strings.Replace(tampered, `\"n\":1,`, `\"n\":9,`, 1)
	require.NotEqual(t, string(data), tampered)
	require.NoError(t, os.WriteFile(path, []byte(tampered), 0o600))

	loaded, err := repo.Load(context.Background())
	require.NoError(t, err)

	var chainErr *domain.ChainError
	require.ErrorAs(t, domain.VerifyChain(loaded.Ledger, true), &chainErr)
	assert.Equal(t, 1, chainErr.Index)
}
