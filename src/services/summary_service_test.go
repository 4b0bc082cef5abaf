package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/portfoliodesk/backend/src/models"
)

func TestGetSummary_ReadsStoreAndCaches(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	s.createPosition(t, "1 HK Equity", "Alpha", models.DirectionLong, 1_000_000)
	s.createPosition(t, "2 HK Equity", "Beta", models.DirectionShort, 500_000)
	s.createPosition(t, "3 HK Equity", "Gamma", models.DirectionWatchlist, 0)

	summary, err := s.summary.GetSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultAUM, summary.Aum)
	assert.InDelta(t, 0.1, summary.TotalLong, 1e-12)
	assert.InDelta(t, -0.05, summary.TotalShort, 1e-12)
	assert.InDelta(t, 0.15, summary.Gmv, 1e-12)
	assert.Equal(t, 1, summary.LongCount)
	assert.Equal(t, 1, summary.ShortCount)
	assert.Equal(t, 1, summary.WatchlistCount)

	again, err := s.summary.GetSummary(ctx)
	require.NoError(t, err)
	assert.Same(t, summary, again, "second call is served from the cache")
}

func TestGetSummary_InvalidatedByMutations(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	s.createPosition(t, "1 HK Equity", "Alpha", models.DirectionLong, 1_000_000)
	first, err := s.summary.GetSummary(ctx)
	require.NoError(t, err)
	_, cached := s.cache.Get(ckPortfolioSummary)
	require.True(t, cached)

	_, err = s.settings.UpdateSettings(ctx, models.AppSettings{Aum: 20_000_000})
	require.NoError(t, err)
	_, cached = s.cache.Get(ckPortfolioSummary)
	assert.False(t, cached, "changing AUM drops the cached summary")

	second, err := s.summary.GetSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20_000_000.0, second.Aum)
	assert.InDelta(t, first.TotalLong/2, second.TotalLong, 1e-12)

	s.createPosition(t, "2 HK Equity", "Beta", models.DirectionLong, 1_000_000)
	third, err := s.summary.GetSummary(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, third.TotalLong, 1e-12)
}

func TestSettings(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	settings, err := s.settings.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultAUM, settings.Aum)

	_, err = s.settings.UpdateSettings(ctx, models.AppSettings{Aum: 0})
	assert.Error(t, err)
	_, err = s.settings.UpdateSettings(ctx, models.AppSettings{Aum: -5})
	assert.Error(t, err)

	settings, err = s.settings.UpdateSettings(ctx, models.AppSettings{Aum: 12_500_000})
	require.NoError(t, err)
	assert.Equal(t, 12_500_000.0, settings.Aum)
}

func TestGetSummary_StaleRecomputeIsNotCached(t *testing.T) {
	s := setupServices(t)
	impl := s.summary.(*summaryServiceImpl)

	gen := impl.currentGeneration()
	stale := &models.PortfolioSummary{Aum: 1}
	s.summary.Invalidate()

	assert.False(t, impl.storeIfCurrent(gen, stale), "a write committed during the read wins")
	_, cached := s.cache.Get(ckPortfolioSummary)
	assert.False(t, cached)

	fresh := &models.PortfolioSummary{Aum: 2}
	assert.True(t, impl.storeIfCurrent(impl.currentGeneration(), fresh))
	got, err := s.summary.GetSummary(context.Background())
	require.NoError(t, err)
	assert.Same(t, fresh, got)
}
