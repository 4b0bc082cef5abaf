package services

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/portfoliodesk/backend/src/model"
	"github.com/username/portfoliodesk/backend/src/models"
)

const brokerExport = `BB Yellow Key,Underlying,Risk Country,GIC Industry,Exchange Country,Latest NMV ,Avg NMV,PnL
AAPL US Equity,Apple Inc,US,Technology Hardware,United States,"1,000,000",900000,5000
TSLA US Equity,Tesla Inc,US,Automobiles,United States,-500000,-400000,-200
AAPL US Equity,Apple Inc,US,Technology Hardware,United States,0,0,0
700 HK Equity,Tencent,CN,Media,Hong Kong,0,-10000,0
Total,,,,,1500000,,4800
`

func TestProcessImport_EndToEnd(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	s.createPosition(t, "OLD HK Equity", "Old Holding", models.DirectionLong, 300000)
	_, err := s.mappings.CreateNameMapping(ctx, models.NameMappingInput{BbgName: "APPLE INC", ChineseName: "苹果"})
	require.NoError(t, err)

	result, err := s.imports.ProcessImport(ctx, strings.NewReader(brokerExport), "positions.csv", int64(len(brokerExport)))
	require.NoError(t, err)

	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 3, result.Created)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 2, result.Skipped, "the duplicate and the total row")
	assert.Equal(t, 1, result.Duplicates)
	assert.Equal(t, 1, result.Matched)
	assert.ElementsMatch(t, []models.UnmatchedName{{BbgName: "Tesla Inc"}, {BbgName: "Tencent"}}, result.Unmatched)
	assert.Len(t, result.DebugSamples, 3)
	assert.Equal(t, "AAPL US Equity", result.DebugSamples[0].Ticker)
	assert.Equal(t, "US", result.DebugSamples[0].Risk)
	assert.Contains(t, result.ExcelColumns, "Latest NMV ")
	require.Len(t, result.ZeroNmvTickers, 1)
	assert.Equal(t, "700 HK Equity", result.ZeroNmvTickers[0].Ticker)
	assert.Equal(t, "Latest NMV ", result.ZeroNmvTickers[0].NmvColumn)

	apple, err := model.GetPositionByTicker(s.db, "AAPL US Equity")
	require.NoError(t, err)
	assert.Equal(t, models.DirectionLong, apple.LongShort)
	assert.Equal(t, 1_000_000.0, apple.PositionAmount, "the later zero row must not overwrite the first")
	assert.InDelta(t, 0.1, apple.PositionWeight, 1e-12)
	assert.Equal(t, "苹果", apple.NameCn)
	assert.Equal(t, 5000.0, apple.Pnl)

	tesla, err := model.GetPositionByTicker(s.db, "TSLA US Equity")
	require.NoError(t, err)
	assert.Equal(t, models.DirectionShort, tesla.LongShort)
	assert.Equal(t, 500000.0, tesla.PositionAmount)

	tencent, err := model.GetPositionByTicker(s.db, "700 HK Equity")
	require.NoError(t, err)
	assert.Equal(t, models.DirectionShort, tencent.LongShort, "direction taken from the averaged column")
	assert.Equal(t, 0.0, tencent.PositionAmount)

	old, err := model.GetPositionByTicker(s.db, "OLD HK Equity")
	require.NoError(t, err)
	assert.Equal(t, models.DirectionWatchlist, old.LongShort, "holdings missing from the file are reset")
	assert.Equal(t, 0.0, old.PositionAmount)

	history, err := s.imports.GetImportHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "positions.csv", history[0].FileName)
	assert.Equal(t, 4, history[0].RecordCount)
	assert.Equal(t, 3, history[0].NewCount)
}

func TestProcessImport_ReimportUpdatesAndKeepsLocalizedName(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	_, err := s.imports.ProcessImport(ctx, strings.NewReader(brokerExport), "first.csv", 0)
	require.NoError(t, err)
	_, err = s.positions.UpdatePosition(ctx, mustTickerID(t, s, "TSLA US Equity"),
		map[string]json.RawMessage{"nameCn": json.RawMessage(`"特斯拉"`)})
	require.NoError(t, err)

	second := "BB Yellow Key,Underlying,Latest NMV\nTSLA US Equity,Tesla Inc,250000\n"
	result, err := s.imports.ProcessImport(ctx, strings.NewReader(second), "second.csv", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Updated)

	tesla, err := model.GetPositionByTicker(s.db, "TSLA US Equity")
	require.NoError(t, err)
	assert.Equal(t, models.DirectionLong, tesla.LongShort)
	assert.Equal(t, 250000.0, tesla.PositionAmount)
	assert.Equal(t, "特斯拉", tesla.NameCn)

	apple, err := model.GetPositionByTicker(s.db, "AAPL US Equity")
	require.NoError(t, err)
	assert.Equal(t, models.DirectionWatchlist, apple.LongShort)
}

func TestProcessImport_UnsupportedFileIsParsingError(t *testing.T) {
	s := setupServices(t)

	_, err := s.imports.ProcessImport(context.Background(), strings.NewReader("x"), "positions.pdf", 1)
	assert.ErrorIs(t, err, ErrParsingFailed)
}

func mustTickerID(t *testing.T, s *testServices, ticker string) int64 {
	t.Helper()
	p, err := model.GetPositionByTicker(s.db, ticker)
	require.NoError(t, err)
	return p.ID
}
