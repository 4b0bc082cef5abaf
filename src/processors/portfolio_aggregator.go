package processors

import (
	"math"
	"sort"

	"github.com/username/portfoliodesk/backend/src/models"
)

type portfolioAggregatorImpl struct {
	labels models.FallbackLabels
}

// NewPortfolioAggregator creates an aggregator that files companies with no value on an axis
// under the matching fallback label.
func NewPortfolioAggregator(labels models.FallbackLabels) PortfolioAggregator {
	return &portfolioAggregatorImpl{labels: labels}
}

// summaryAxis describes one breakdown of the summary: how a company is keyed on it and
// what bucket takes companies without a key.
type summaryAxis struct {
	key      func(c models.CompanyExposure) string
	fallback string
	out      *[]models.DimensionSummary
}

// Aggregate nets positions per company and folds the result into totals and the six
// breakdowns. Only long and short rows contribute. A non-positive or NaN aum falls back to
// models.DefaultAUM. The result depends on nothing but the arguments.
func (a *portfolioAggregatorImpl) Aggregate(positions []models.Position, aum float64, watchlistCount int) models.PortfolioSummary {
	if math.IsNaN(aum) || math.IsInf(aum, 0) || aum <= 0 {
		aum = models.DefaultAUM
	}

	summary := models.PortfolioSummary{
		Aum:            aum,
		WatchlistCount: watchlistCount,
	}

	companies := MergeByCompany(positions)
	for _, c := range companies {
		weight := math.Abs(c.SignedNmv) / aum
		if c.SignedNmv >= 0 {
			summary.TotalLong += weight
			summary.LongCount++
		} else {
			summary.TotalShort -= weight
			summary.ShortCount++
		}
		summary.TotalPnl += c.Pnl
	}
	summary.Nmv = summary.TotalLong + summary.TotalShort
	summary.Gmv = summary.TotalLong + math.Abs(summary.TotalShort)

	axes := []summaryAxis{
		{key: func(c models.CompanyExposure) string { return c.Market }, fallback: a.labels.Sector, out: &summary.BySector},
		{key: func(c models.CompanyExposure) string { return c.SectorName }, fallback: a.labels.Industry, out: &summary.ByIndustry},
		{key: func(c models.CompanyExposure) string { return c.TopdownName }, fallback: a.labels.Theme, out: &summary.ByTheme},
		{key: func(c models.CompanyExposure) string { return c.Market }, fallback: a.labels.RiskCountry, out: &summary.ByRiskCountry},
		{key: func(c models.CompanyExposure) string { return c.GicIndustry }, fallback: a.labels.GicIndustry, out: &summary.ByGicIndustry},
		{key: func(c models.CompanyExposure) string { return c.ExchangeCountry }, fallback: a.labels.ExchangeCountry, out: &summary.ByExchangeCountry},
	}
	for _, axis := range axes {
		*axis.out = rollUp(companies, aum, axis)
	}
	return summary
}

// rollUp groups companies into the axis buckets. nmv and gmv are derived after every
// company has been folded in, so they always equal long+short and long+|short|.
func rollUp(companies []models.CompanyExposure, aum float64, axis summaryAxis) []models.DimensionSummary {
	buckets := make(map[string]*models.DimensionSummary)
	order := make([]string, 0)

	for _, c := range companies {
		name := axis.key(c)
		if name == "" {
			name = axis.fallback
		}
		b, ok := buckets[name]
		if !ok {
			b = &models.DimensionSummary{Name: name}
			buckets[name] = b
			order = append(order, name)
		}
		weight := math.Abs(c.SignedNmv) / aum
		if c.SignedNmv >= 0 {
			b.Long += weight
		} else {
			b.Short -= weight
		}
		b.Pnl += c.Pnl
	}

	out := make([]models.DimensionSummary, 0, len(order))
	for _, name := range order {
		b := buckets[name]
		b.Nmv = b.Long + b.Short
		b.Gmv = b.Long + math.Abs(b.Short)
		out = append(out, *b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Gmv != out[j].Gmv {
			return out[i].Gmv > out[j].Gmv
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// MergeByCompany nets long and short rows of the same company, keyed by English name and
// falling back to the ticker. Descriptive fields take the first non-empty value seen.
// Watchlist rows are ignored. Output keeps the order in which companies first appear.
func MergeByCompany(positions []models.Position) []models.CompanyExposure {
	index := make(map[string]int)
	companies := make([]models.CompanyExposure, 0, len(positions))

	for _, p := range positions {
		if !p.IsActive() {
			continue
		}
		key := p.NameEn
		if key == "" {
			key = p.TickerBbg
		}

		i, ok := index[key]
		if !ok {
			index[key] = len(companies)
			companies = append(companies, models.CompanyExposure{Key: key})
			i = len(companies) - 1
		}
		c := &companies[i]
		c.SignedNmv += p.SignedNmv()
		c.Pnl += p.Pnl
		firstNonEmpty(&c.Market, p.Market)
		firstNonEmpty(&c.SectorName, p.SectorName)
		firstNonEmpty(&c.ThemeName, p.ThemeName)
		firstNonEmpty(&c.TopdownName, p.TopdownName)
		firstNonEmpty(&c.GicIndustry, p.GicIndustry)
		firstNonEmpty(&c.ExchangeCountry, p.ExchangeCountry)
	}
	return companies
}

func firstNonEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
