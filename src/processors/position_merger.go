package processors

import (
	"math"

	"github.com/username/portfoliodesk/backend/src/models"
)

// MergePositionsForListing collapses rows of the same company into one display row.
// Tickers are joined with " / ", amount and direction come from the net signed exposure,
// and the weight is recomputed against aum. Unlike MergeByCompany, watchlist rows are kept.
func MergePositionsForListing(positions []models.Position, aum float64) []models.Position {
	if math.IsNaN(aum) || aum <= 0 {
		aum = models.DefaultAUM
	}

	index := make(map[string]int)
	merged := make([]models.Position, 0, len(positions))
	signed := make([]float64, 0, len(positions))
	members := make([]int, 0, len(positions))

	for _, p := range positions {
		key := p.NameEn
		if key == "" {
			key = p.TickerBbg
		}
		i, ok := index[key]
		if !ok {
			index[key] = len(merged)
			merged = append(merged, p)
			signed = append(signed, p.SignedNmv())
			members = append(members, 1)
			continue
		}

		m := &merged[i]
		signed[i] += p.SignedNmv()
		members[i]++
		m.TickerBbg += " / " + p.TickerBbg
		m.Pnl += p.Pnl
		if m.SectorID == nil && p.SectorID != nil {
			m.SectorID, m.SectorName = p.SectorID, p.SectorName
		}
		if m.ThemeID == nil && p.ThemeID != nil {
			m.ThemeID, m.ThemeName = p.ThemeID, p.ThemeName
		}
		if m.TopdownID == nil && p.TopdownID != nil {
			m.TopdownID, m.TopdownName = p.TopdownID, p.TopdownName
		}
		firstNonEmpty(&m.GicIndustry, p.GicIndustry)
		firstNonEmpty(&m.ExchangeCountry, p.ExchangeCountry)
		firstNonEmpty(&m.NameCn, p.NameCn)
		firstNonEmpty(&m.Market, p.Market)
	}

	for i := range merged {
		// A lone row keeps its stored direction, which may be a closed position's last side.
		if members[i] == 1 {
			merged[i].PositionWeight = merged[i].PositionAmount / aum
			continue
		}
		net := signed[i]
		merged[i].PositionAmount = math.Abs(net)
		merged[i].PositionWeight = merged[i].PositionAmount / aum
		switch {
		case net > 0:
			merged[i].LongShort = models.DirectionLong
		case net < 0:
			merged[i].LongShort = models.DirectionShort
		default:
			merged[i].LongShort = models.DirectionWatchlist
		}
	}
	return merged
}
