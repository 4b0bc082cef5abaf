package processors

import (
	"math"
	"strconv"
	"strings"

	"github.com/username/portfoliodesk/backend/src/models"
)

// columnRule matches a header when it contains every keyword and none of the excluded words.
// Headers are compared lower-cased and trimmed.
type columnRule struct {
	field    string
	keywords []string
	exclude  []string
}

func (r columnRule) matches(header string) bool {
	h := strings.ToLower(strings.TrimSpace(header))
	for _, kw := range r.keywords {
		if !strings.Contains(h, kw) {
			return false
		}
	}
	for _, ex := range r.exclude {
		if strings.Contains(h, ex) {
			return false
		}
	}
	return true
}

const (
	fieldTicker          = "ticker"
	fieldCompany         = "company"
	fieldRiskCountry     = "riskCountry"
	fieldGicIndustry     = "gicIndustry"
	fieldExchangeCountry = "exchangeCountry"
	fieldPnl             = "pnl"
	fieldNmv             = "nmv"
)

// Rules are tried top to bottom; the first rule yielding a non-blank value wins its field.
var descriptiveColumnRules = []columnRule{
	{field: fieldTicker, keywords: []string{"yellow key"}},
	{field: fieldTicker, keywords: []string{"bb yellow"}},
	{field: fieldCompany, keywords: []string{"underlying"}},
	{field: fieldRiskCountry, keywords: []string{"risk country"}},
	{field: fieldGicIndustry, keywords: []string{"gic", "industry"}},
	{field: fieldExchangeCountry, keywords: []string{"exchange", "country"}},
	{field: fieldPnl, keywords: []string{"pnl"}},
	{field: fieldPnl, keywords: []string{"p&l"}},
	{field: fieldPnl, keywords: []string{"unrealized"}},
}

// Averaged NMV columns are never a sizing source, whatever else the header says.
var nmvColumnRules = []columnRule{
	{field: fieldNmv, keywords: []string{"latest nmv"}, exclude: []string{"avg"}},
	{field: fieldNmv, keywords: []string{"nmv excl cash"}, exclude: []string{"avg"}},
	{field: fieldNmv, keywords: []string{"nmv"}, exclude: []string{"avg"}},
}

var avgNmvColumnRule = columnRule{keywords: []string{"avg nmv"}}

const (
	nmvColumnNotFound = "(not found)"
	totalRowMarker    = "Total"
	filterRowPrefix   = "Applied filters"
)

type positionNormalizerImpl struct {
	importedWithNmv map[string]bool
}

// NewPositionNormalizer creates a normalizer for one import batch.
func NewPositionNormalizer() PositionNormalizer {
	return &positionNormalizerImpl{importedWithNmv: make(map[string]bool)}
}

func (n *positionNormalizerImpl) Reset() {
	n.importedWithNmv = make(map[string]bool)
}

// Normalize resolves one row. ok is false when the row must not be applied; Skip on the
// returned value then says why. Rows dropped as duplicates still carry their resolved fields.
func (n *positionNormalizerImpl) Normalize(row models.ImportRow) (models.NormalizedPosition, bool) {
	fields := resolveFields(row, descriptiveColumnRules)
	np := models.NormalizedPosition{
		TickerBbg:       fields[fieldTicker],
		BbgName:         fields[fieldCompany],
		Market:          fields[fieldRiskCountry],
		GicIndustry:     fields[fieldGicIndustry],
		ExchangeCountry: fields[fieldExchangeCountry],
		LongShort:       models.DirectionWatchlist,
	}

	if np.TickerBbg == "" {
		np.Skip = models.SkipNoTicker
		return np, false
	}
	if np.TickerBbg == totalRowMarker || np.BbgName == totalRowMarker || strings.HasPrefix(np.BbgName, filterRowPrefix) {
		np.Skip = models.SkipTotalRow
		return np, false
	}

	np.Pnl, _ = parseNumber(fields[fieldPnl])

	np.NmvColumn, np.NmvRaw = nmvCell(row)
	nmv, valid := parseNumber(np.NmvRaw)
	np.NmvValid = valid

	if nmv == 0 && n.importedWithNmv[np.TickerBbg] {
		np.Skip = models.SkipDuplicate
		return np, false
	}

	switch {
	case nmv > 0:
		np.LongShort = models.DirectionLong
	case nmv < 0:
		np.LongShort = models.DirectionShort
	default:
		if avg := avgNmv(row); avg > 0 {
			np.LongShort = models.DirectionLong
		} else if avg < 0 {
			np.LongShort = models.DirectionShort
		}
	}
	np.PositionAmount = math.Abs(nmv)

	if nmv != 0 {
		n.importedWithNmv[np.TickerBbg] = true
	}
	return np, true
}

// resolveFields applies rules in order and keeps the first non-blank value per field.
func resolveFields(row models.ImportRow, rules []columnRule) map[string]string {
	resolved := make(map[string]string, len(rules))
	for _, rule := range rules {
		if resolved[rule.field] != "" {
			continue
		}
		for _, cell := range row {
			if rule.matches(cell.Header) {
				resolved[rule.field] = strings.TrimSpace(cell.Value)
				break
			}
		}
	}
	return resolved
}

// nmvCell returns the header and raw value of the NMV source column, or "0" when none exists.
func nmvCell(row models.ImportRow) (string, string) {
	for _, rule := range nmvColumnRules {
		for _, cell := range row {
			if rule.matches(cell.Header) && strings.TrimSpace(cell.Value) != "" {
				return cell.Header, strings.TrimSpace(cell.Value)
			}
		}
	}
	return nmvColumnNotFound, "0"
}

func avgNmv(row models.ImportRow) float64 {
	for _, cell := range row {
		if avgNmvColumnRule.matches(cell.Header) {
			v, _ := parseNumber(cell.Value)
			return v
		}
	}
	return 0
}

// parseNumber strips thousands separators and parses a float.
// Anything unparseable, infinite or NaN yields 0 and ok=false.
func parseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
