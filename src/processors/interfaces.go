package processors

import "github.com/username/portfoliodesk/backend/src/models"

// PositionNormalizer turns raw broker export rows into canonical positions.
// A normalizer remembers the tickers it has emitted, so use one per import batch
// or call Reset between batches.
type PositionNormalizer interface {
	Normalize(row models.ImportRow) (models.NormalizedPosition, bool)
	Reset()
}

// PortfolioAggregator computes the exposure summary of a set of stored positions.
type PortfolioAggregator interface {
	Aggregate(positions []models.Position, aum float64, watchlistCount int) models.PortfolioSummary
}
