package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/patrickmn/go-cache"
	"github.com/username/portfoliodesk/backend/src/logger"
	"github.com/username/portfoliodesk/backend/src/metrics"
	"github.com/username/portfoliodesk/backend/src/model"
	"github.com/username/portfoliodesk/backend/src/models"
	"github.com/username/portfoliodesk/backend/src/processors"
)

const (
	ckPortfolioSummary     = "agg_portfolio_summary"
	DefaultCacheExpiration = 5 * time.Minute
	CacheCleanupInterval   = 10 * time.Minute
)

type summaryServiceImpl struct {
	db          *sqlx.DB
	aggregator  processors.PortfolioAggregator
	reportCache *cache.Cache
	defaultAUM  float64

	// generation counts invalidations. A recompute only caches its result when no
	// invalidation happened since its read started.
	mu         sync.Mutex
	generation uint64
}

func NewSummaryService(db *sqlx.DB, aggregator processors.PortfolioAggregator, reportCache *cache.Cache, defaultAUM float64) SummaryService {
	return &summaryServiceImpl{
		db:          db,
		aggregator:  aggregator,
		reportCache: reportCache,
		defaultAUM:  defaultAUM,
	}
}

// GetSummary returns the cached summary or recomputes it from one consistent read of the store.
func (s *summaryServiceImpl) GetSummary(ctx context.Context) (*models.PortfolioSummary, error) {
	if cached, found := s.reportCache.Get(ckPortfolioSummary); found {
		metrics.SummaryCacheRequests.WithLabelValues("hit").Inc()
		return cached.(*models.PortfolioSummary), nil
	}
	metrics.SummaryCacheRequests.WithLabelValues("miss").Inc()

	start := time.Now()
	gen := s.currentGeneration()
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error beginning summary read: %w", err)
	}
	defer tx.Rollback()

	aum, err := currentAUM(tx, s.defaultAUM)
	if err != nil {
		return nil, err
	}
	positions, err := model.GetPositions(tx, models.PositionFilter{ActiveOnly: true})
	if err != nil {
		return nil, err
	}
	watchlistCount, err := model.CountPositionsByDirection(tx, models.DirectionWatchlist)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error finishing summary read: %w", err)
	}

	summary := s.aggregator.Aggregate(positions, aum, watchlistCount)
	metrics.SummaryComputeDuration.Observe(time.Since(start).Seconds())
	logger.FromContext(ctx).Debug("Portfolio summary computed",
		"positions", len(positions), "aum", aum, "gmv", summary.Gmv, "duration", time.Since(start))

	s.storeIfCurrent(gen, &summary)
	return &summary, nil
}

func (s *summaryServiceImpl) Invalidate() {
	s.mu.Lock()
	s.generation++
	s.reportCache.Delete(ckPortfolioSummary)
	s.mu.Unlock()
	logger.L.Debug("Portfolio summary cache invalidated")
}

func (s *summaryServiceImpl) currentGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// storeIfCurrent caches summary unless the store changed after generation gen was read.
func (s *summaryServiceImpl) storeIfCurrent(gen uint64, summary *models.PortfolioSummary) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		logger.L.Debug("Discarding stale portfolio summary", "generation", gen, "current", s.generation)
		return false
	}
	s.reportCache.Set(ckPortfolioSummary, summary, cache.DefaultExpiration)
	return true
}
