package static

import (
	"context"
	"testing"

	"github.com/bnema/lumiere-ledger/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogCoreProfiles(t *testing.T) {
	t.Parallel()

	catalog := NewCatalog(nil)

	profile, err := catalog.Profile(context.Background(), "Finance")
	require.NoError(t, err)
	assert.Equal(t, "Finance Guide", profile.DisplayName)
	assert.Equal(t, 1, profile.Level)
	assert.InDelta(t, 1.5, profile.SeedValueScore(), 1e-9)

	general, err := catalog.Profile(context.Background(), "general")
	require.NoError(t, err)
	assert.Equal(t, "Personal Companion", general.DisplayName)

	_, err = catalog.Profile(context.Background(), "astrology")
	require.ErrorIs(t, err, domain.ErrUnknownProfile)
}

func TestCatalogOverrides(t *testing.T) {
	t.Parallel()

	catalog := NewCatalog([]domain.ResourceProfile{
		{Specialty: "finance", Level: 3, Accuracy: 80},
		{Specialty: "Astrology", DisplayName: "Star Reader"},
	})

	finance, err := catalog.Profile(context.Background(), "finance")
	require.NoError(t, err)
	assert.Equal(t, "Finance Guide", finance.DisplayName)
	assert.Equal(t, 3, finance.Level)
	assert.InDelta(t, 3.8, finance.SeedValueScore(), 1e-9)

	astrology, err := catalog.Profile(context.Background(), "astrology")
	require.NoError(t, err)
	assert.Equal(t, "Star Reader", astrology.DisplayName)
	assert.Equal(t, 1, astrology.Level)

	all, err := catalog.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 15)
	assert.Equal(t, "astrology", all[0].Specialty)
}
