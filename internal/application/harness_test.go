package application

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bnema/lumiere-ledger/internal/adapters/profile/static"
	"github.com/bnema/lumiere-ledger/internal/adapters/repo/memory"
	"github.com/bnema/lumiere-ledger/internal/domain"
	"github.com/bnema/lumiere-ledger/internal/ports/mocks"
	"github.com/stretchr/testify/require"
)

type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time {
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type harness struct {
	repo     *memory.Repository
	clock    *manualClock
	memory   *mocks.MockMemoryStore
	store    *Store
	access   *AccessController
	market   *MarketplaceService
	feedback *TrainingFeedbackAggregator
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	strict    bool
	retention int
}

func withStrict(strict bool) harnessOption {
	return func(c *harnessConfig) { c.strict = strict }
}

func withRetention(n int) harnessOption {
	return func(c *harnessConfig) { c.retention = n }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	cfg := harnessConfig{strict: true, retention: DefaultLedgerRetention}
	for _, opt := range opts {
		opt(&cfg)
	}

	repo := memory.NewRepository()
	clock := &manualClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	store, err := NewStore(context.Background(), repo, clock, NewLedgerLog(cfg.retention))
	require.NoError(t, err)

	seq := 0
	minter := NewMinter(static.NewCatalog(nil), func() (string, error) {
		seq++
		return fmt.Sprintf("mint-%d", seq), nil
	})
	access := NewAccessController(store, minter, cfg.strict)
	market := NewMarketplaceService(store, access, minter)
	mem := mocks.NewMockMemoryStore(t)

	return &harness{
		repo:     repo,
		clock:    clock,
		memory:   mem,
		store:    store,
		access:   access,
		market:   market,
		feedback: NewTrainingFeedbackAggregator(store, access, market, mem),
	}
}

func (h *harness) mint(t *testing.T, specialty, owner string, tenant domain.TenantID) domain.Token {
	t.Helper()

	token, err := h.market.Mint(context.Background(), MintCommand{Specialty: specialty, Owner: owner, Tenant: tenant})
	require.NoError(t, err)
	return token
}

func (h *harness) events() []domain.EventType {
	state := h.store.Snapshot()
	out := make([]domain.EventType, 0, len(state.Ledger))
	for _, entry := range state.Ledger {
		out = append(out, entry.EventType)
	}
	return out
}

func (h *harness) lastEntry(t *testing.T) domain.LedgerEntry {
	t.Helper()

	state := h.store.Snapshot()
	require.NotEmpty(t, state.Ledger)
	return state.Ledger[len(state.Ledger)-1]
}
