package models

// ImportCell is one non-blank cell of an imported sheet row.
type ImportCell struct {
	Header string
	Value  string
}

// ImportRow is a sheet row as an ordered list of header/value cells.
// Order follows the sheet's columns, so "the first matching column" is well defined.
// Blank cells are omitted, the same way a sheet-to-records export drops them.
type ImportRow []ImportCell

// Headers returns the row's header names in column order.
func (r ImportRow) Headers() []string {
	headers := make([]string, len(r))
	for i, c := range r {
		headers[i] = c.Header
	}
	return headers
}

// SkipReason says why a row produced no position. Empty means the row was kept.
type SkipReason string

const (
	SkipNone      SkipReason = ""
	SkipNoTicker  SkipReason = "no_ticker"
	SkipTotalRow  SkipReason = "total_row"
	SkipDuplicate SkipReason = "duplicate"
)

// NormalizedPosition is the canonical form of one broker export row.
type NormalizedPosition struct {
	TickerBbg       string
	BbgName         string
	Market          string
	GicIndustry     string
	ExchangeCountry string
	Pnl             float64
	PositionAmount  float64
	LongShort       string

	// Diagnostics carried to the import report.
	NmvColumn string
	NmvRaw    string
	NmvValid  bool
	Skip      SkipReason
}

// DebugSample echoes how the first rows of an import were matched to columns.
type DebugSample struct {
	Ticker   string `json:"ticker"`
	Gic      string `json:"gic"`
	Exchange string `json:"exchange"`
	Risk     string `json:"risk"`
}

// ZeroNmvTicker reports a row whose resolved NMV was zero or unparseable.
type ZeroNmvTicker struct {
	Ticker    string  `json:"ticker"`
	NmvColumn string  `json:"nmvColumn"`
	NmvRaw    string  `json:"nmvRaw"`
	NmvParsed float64 `json:"nmvParsed"`
}

// UnmatchedName is a company name with no localized name mapping.
type UnmatchedName struct {
	BbgName string `json:"bbgName"`
}

// ImportResult is returned to the uploader after a batch has been applied.
type ImportResult struct {
	Total          int             `json:"total"`
	Matched        int             `json:"matched"`
	Unmatched      []UnmatchedName `json:"unmatched"`
	Created        int             `json:"created"`
	Updated        int             `json:"updated"`
	Skipped        int             `json:"skipped"`
	Duplicates     int             `json:"duplicates"`
	ExcelColumns   []string        `json:"excelColumns"`
	DebugSamples   []DebugSample   `json:"debugSamples"`
	ZeroNmvTickers []ZeroNmvTicker `json:"zeroNmvTickers"`
}

// ImportHistory is one row of the import_history table.
type ImportHistory struct {
	ID           int64  `db:"id" json:"id"`
	ImportType   string `db:"import_type" json:"importType"`
	FileName     string `db:"file_name" json:"fileName"`
	RecordCount  int    `db:"record_count" json:"recordCount"`
	NewCount     int    `db:"new_count" json:"newCount"`
	UpdatedCount int    `db:"updated_count" json:"updatedCount"`
	CreatedAt    string `db:"created_at" json:"createdAt"`
}
