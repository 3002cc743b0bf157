package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bnema/lumiere-ledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRejectsInvalidKeys(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	testCases := []struct {
		name    string
		key     string
		wantErr string
	}{
		{name: "empty", key: "", wantErr: "resource key is empty"},
		{name: "whitespace", key: "   ", wantErr: "resource key is empty"},
		{name: "absolute", key: "/absolute/path", wantErr: "invalid resource key"},
		{name: "traversal", key: "../escape", wantErr: "invalid resource key"},
		{name: "personal traversal", key: "personal::../../x", wantErr: "invalid resource key"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := store.Commit(context.Background(), domain.MemoryRecord{ResourceKey: tc.key, MessageID: "m1"})
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestStoreCommitListRoundTrip(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewStore(root)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	first := domain.MemoryRecord{
		ResourceKey: "personal::alice",
		Specialty:   "personal",
		Actor:       "alice",
		MessageID:   "m1",
		Question:    "What's my plan?",
		Answer:      "Rest.",
		CommittedAt: now,
	}
	second := first
	second.MessageID = "m2"
	second.Answer = "Walk."

	require.NoError(t, store.Commit(context.Background(), first))
	require.NoError(t, store.Commit(context.Background(), second))

	records, err := store.List(context.Background(), "personal::alice")
	require.NoError(t, err)
	assert.Equal(t, []domain.MemoryRecord{first, second}, records)

	info, err := os.Stat(filepath.Join(root, "personal", "alice.toml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestStoreCommitIsIdempotentPerMessage(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	record := domain.MemoryRecord{ResourceKey: "finance", MessageID: "m1", Answer: "v1"}
	require.NoError(t, store.Commit(context.Background(), record))

	record.Answer = "v2"
	require.NoError(t, store.Commit(context.Background(), record))

	records, err := store.List(context.Background(), "finance")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "v2", records[0].Answer)
}

func TestStoreListMissingResource(t *testing.T) {
	t.Parallel()

	records, err := NewStore(t.TempDir()).List(context.Background(), "math")
	require.NoError(t, err)
	assert.Empty(t, records)
}
