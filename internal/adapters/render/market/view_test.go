package market

import (
	"testing"
	"time"

	"github.com/bnema/lumiere-ledger/internal/application"
	"github.com/bnema/lumiere-ledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func price(v float64) *float64 {
	return &v
}

func TestRenderMarketplaceListsTokensAndEvents(t *testing.T) {
	now := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)

	output, err := RenderMarketplace(application.MarketplaceView{
		Network: domain.Network,
		Tenant:  "t1",
		Listed: []application.ListedToken{
			{ResourceKey: "finance", DisplayName: "Finance Guide", Owner: "alice", Price: price(2.5), ValueScore: 1.55},
			{ResourceKey: "math", DisplayName: "Math Tutor", Owner: "bob", ValueScore: 5.5},
		},
		RecentEvents: []domain.LedgerEntry{
			{Timestamp: now.Add(-time.Hour), EventType: domain.EventMint, Specialty: "finance"},
			{Timestamp: now.Add(-48 * time.Hour), EventType: domain.EventList, Specialty: "math"},
		},
	}, RenderOptions{Now: now})

	require.NoError(t, err)
	assert.Contains(t, output, "Lumiere Marketplace")
	assert.Contains(t, output, "tenant: t1  listed: 2")
	assert.Contains(t, output, "Finance Guide (finance)")
	assert.Contains(t, output, "owner: alice  price: 2.5000")
	assert.Contains(t, output, "price: n/a")
	assert.Contains(t, output, "1.550")
	assert.Contains(t, output, "[====================]")
	assert.Contains(t, output, "recent events: 2")
	assert.Contains(t, output, "10:00")
	assert.Contains(t, output, "27 Feb 11:00")
}

func TestRenderMarketplaceEmpty(t *testing.T) {
	output, err := RenderMarketplace(application.MarketplaceView{Network: domain.Network, Tenant: "t1"}, RenderOptions{})

	require.NoError(t, err)
	assert.Contains(t, output, "listed: 0")
	assert.Contains(t, output, "No resources listed for sale.")
	assert.Contains(t, output, "No ledger activity yet.")
}

func TestRenderStateShowsRentalsAndTruncation(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	output, err := RenderState(application.StateView{
		Network: domain.Network,
		Tokens: map[string]domain.Token{
			"finance":       {ResourceKey: "finance", DisplayName: "Finance Guide", Owner: "alice", TenantID: "t1", ValueScore: 1.5, Listed: true, ListPrice: price(3)},
			"personal::zoe": {ResourceKey: "personal::zoe", DisplayName: "Personal Companion", Owner: "local_user", ValueScore: 1.5},
			"math":          {ResourceKey: "math", DisplayName: "Math Tutor", Owner: "bob", TenantID: "t1", ValueScore: 1.5},
		},
		Rentals: map[string]domain.Rental{
			"finance": {ResourceKey: "finance", Renter: "carol", ExpiresAt: now.Add(2 * time.Hour)},
			"math":    {ResourceKey: "math", Renter: "dave", ExpiresAt: now.Add(-time.Minute)},
		},
		LedgerDropped: 4,
	}, RenderOptions{Now: now})

	require.NoError(t, err)
	assert.Contains(t, output, "tokens: 3  rentals: 2")
	assert.Contains(t, output, "ledger truncated: 4 entries dropped")
	assert.Contains(t, output, "listed at 3.0000")
	assert.Contains(t, output, "rented by carol (expires in 2 hours (11:00))")
	assert.Contains(t, output, "rental by dave lapsed")
	assert.Contains(t, output, "owner: unclaimed  tenant: unset")
}

func TestRenderChain(t *testing.T) {
	tests := []struct {
		name     string
		report   application.ChainReport
		contains []string
	}{
		{
			name:     "intact",
			report:   application.ChainReport{OK: true, Entries: 7},
			contains: []string{"chain intact", "entries: 7"},
		},
		{
			name:     "truncated",
			report:   application.ChainReport{OK: true, Entries: 3, Truncated: true},
			contains: []string{"chain intact", "older entries were dropped"},
		},
		{
			name:     "corrupted",
			report:   application.ChainReport{OK: false, Entries: 2, Error: "ledger entry 1: hash mismatch"},
			contains: []string{"chain corrupted", "ledger entry 1: hash mismatch"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := RenderChain(tt.report)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, output, want)
			}
		})
	}
}
