package models

// DefaultAUM is used whenever the configured AUM is missing or not positive.
const DefaultAUM = 10_000_000.0

// FallbackLabels names the bucket used on each summary axis for companies with no value on it.
type FallbackLabels struct {
	Sector          string
	Industry        string
	Theme           string
	RiskCountry     string
	GicIndustry     string
	ExchangeCountry string
}

// DefaultFallbackLabels are the placeholders the dashboard has always shown.
var DefaultFallbackLabels = FallbackLabels{
	Sector:          "其他",
	Industry:        "其他",
	Theme:           "Others",
	RiskCountry:     "其他",
	GicIndustry:     "其他",
	ExchangeCountry: "其他",
}

// DimensionSummary is one bucket of a summary axis. Long is >= 0 and Short is <= 0,
// both as fractions of AUM.
type DimensionSummary struct {
	Name  string  `json:"name"`
	Long  float64 `json:"long"`
	Short float64 `json:"short"`
	Nmv   float64 `json:"nmv"`
	Gmv   float64 `json:"gmv"`
	Pnl   float64 `json:"pnl"`
}

// PortfolioSummary is recomputed on demand from the stored positions and never persisted.
type PortfolioSummary struct {
	Aum            float64 `json:"aum"`
	TotalLong      float64 `json:"totalLong"`
	TotalShort     float64 `json:"totalShort"`
	TotalPnl       float64 `json:"totalPnl"`
	Nmv            float64 `json:"nmv"`
	Gmv            float64 `json:"gmv"`
	LongCount      int     `json:"longCount"`
	ShortCount     int     `json:"shortCount"`
	WatchlistCount int     `json:"watchlistCount"`

	BySector          []DimensionSummary `json:"bySector"`
	ByIndustry        []DimensionSummary `json:"byIndustry"`
	ByTheme           []DimensionSummary `json:"byTheme"`
	ByRiskCountry     []DimensionSummary `json:"byRiskCountry"`
	ByGicIndustry     []DimensionSummary `json:"byGicIndustry"`
	ByExchangeCountry []DimensionSummary `json:"byExchangeCountry"`
}
