package models

// Direction values stored in positions.long_short.
const (
	DirectionLong      = "long"
	DirectionShort     = "short"
	DirectionWatchlist = "/" // watchlist or closed, zero exposure
)

// IsValidDirection reports whether s is one of the three stored direction values.
func IsValidDirection(s string) bool {
	return s == DirectionLong || s == DirectionShort || s == DirectionWatchlist
}

// Position is a single broker-reported holding as stored in the positions table.
// PositionAmount is always non-negative; the sign of the exposure lives in LongShort.
type Position struct {
	ID              int64   `db:"id" json:"id"`
	TickerBbg       string  `db:"ticker_bbg" json:"tickerBbg"`
	NameEn          string  `db:"name_en" json:"nameEn"`
	NameCn          string  `db:"name_cn" json:"nameCn"`
	Market          string  `db:"market" json:"market"`
	SectorID        *int64  `db:"sector_id" json:"sectorId"`
	ThemeID         *int64  `db:"theme_id" json:"themeId"`
	TopdownID       *int64  `db:"topdown_id" json:"topdownId"`
	Priority        string  `db:"priority" json:"priority"`
	LongShort       string  `db:"long_short" json:"longShort"`
	MarketCapLocal  float64 `db:"market_cap_local" json:"marketCapLocal"`
	MarketCapRmb    float64 `db:"market_cap_rmb" json:"marketCapRmb"`
	Profit2025      float64 `db:"profit_2025" json:"profit2025"`
	Pe2026          float64 `db:"pe_2026" json:"pe2026"`
	Pe2027          float64 `db:"pe_2027" json:"pe2027"`
	PriceTag        string  `db:"price_tag" json:"priceTag"`
	PositionAmount  float64 `db:"position_amount" json:"positionAmount"`
	PositionWeight  float64 `db:"position_weight" json:"positionWeight"`
	MarketCapDate   *string `db:"market_cap_date" json:"marketCapDate"`
	GicIndustry     string  `db:"gic_industry" json:"gicIndustry"`
	ExchangeCountry string  `db:"exchange_country" json:"exchangeCountry"`
	Pnl             float64 `db:"pnl" json:"pnl"`
	CreatedAt       string  `db:"created_at" json:"createdAt"`
	UpdatedAt       string  `db:"updated_at" json:"updatedAt"`

	// Joined taxonomy names, empty when the link is unset.
	SectorName  string `db:"sector_name" json:"sectorName"`
	ThemeName   string `db:"theme_name" json:"themeName"`
	TopdownName string `db:"topdown_name" json:"topdownName"`
}

// SignedNmv returns the position's exposure with the direction applied.
// Watchlist rows contribute nothing.
func (p Position) SignedNmv() float64 {
	switch p.LongShort {
	case DirectionLong:
		return p.PositionAmount
	case DirectionShort:
		return -p.PositionAmount
	default:
		return 0
	}
}

// IsActive reports whether the position currently carries long or short exposure.
func (p Position) IsActive() bool {
	return p.LongShort == DirectionLong || p.LongShort == DirectionShort
}

// PositionFilter narrows GetPositions. Empty fields do not filter.
type PositionFilter struct {
	LongShort  string
	Search     string
	ActiveOnly bool
}

// PositionWithRelations is the API shape of a position, with taxonomy links expanded.
type PositionWithRelations struct {
	Position
	Sector  *Taxonomy `json:"sector"`
	Theme   *Taxonomy `json:"theme"`
	Topdown *Taxonomy `json:"topdown"`
}

// PositionDetail is a single position together with the name mappings pointing at it.
type PositionDetail struct {
	PositionWithRelations
	NameMappings []NameMapping `json:"nameMappings"`
}

// CompanyExposure is the net exposure of all line items sharing one company key.
// It only exists for the duration of one aggregation call.
type CompanyExposure struct {
	Key             string
	SignedNmv       float64
	Pnl             float64
	Market          string
	SectorName      string
	ThemeName       string
	TopdownName     string
	GicIndustry     string
	ExchangeCountry string
}
