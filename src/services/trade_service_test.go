package services

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/portfoliodesk/backend/src/model"
	"github.com/username/portfoliodesk/backend/src/models"
	"github.com/username/portfoliodesk/backend/src/security/validation"
	"github.com/xuri/excelize/v2"
)

func executed() *string {
	status := models.TradeStatusExecuted
	return &status
}

func TestApplyTradeItem(t *testing.T) {
	long := models.Position{LongShort: models.DirectionLong, PositionAmount: 1_000_000}
	short := models.Position{LongShort: models.DirectionShort, PositionAmount: 200_000}
	watch := models.Position{LongShort: models.DirectionWatchlist}

	tests := []struct {
		name      string
		position  models.Position
		item      models.TradeItem
		amount    float64
		direction string
	}{
		{"buy adds to long", long, models.TradeItem{TransactionType: models.TransactionBuy, GmvUsdK: 500}, 1_500_000, models.DirectionLong},
		{"sell reduces long", long, models.TradeItem{TransactionType: models.TransactionSell, GmvUsdK: 400}, 600_000, models.DirectionLong},
		{"sell through zero flips to short", long, models.TradeItem{TransactionType: models.TransactionSell, GmvUsdK: 1_250}, 250_000, models.DirectionShort},
		{"buy reduces short", short, models.TradeItem{TransactionType: models.TransactionBuy, GmvUsdK: 50}, 150_000, models.DirectionShort},
		{"sell adds to short", short, models.TradeItem{TransactionType: models.TransactionSell, GmvUsdK: 50}, 250_000, models.DirectionShort},
		{"buy covers short and goes long", short, models.TradeItem{TransactionType: models.TransactionBuy, GmvUsdK: 500}, 300_000, models.DirectionLong},
		{"exact cover closes", short, models.TradeItem{TransactionType: models.TransactionBuy, GmvUsdK: 200}, 0, models.DirectionWatchlist},
		{"unwind ignores size", long, models.TradeItem{TransactionType: models.TransactionBuy, GmvUsdK: 999, Unwind: true}, 0, models.DirectionWatchlist},
		{"sell from watchlist opens short", watch, models.TradeItem{TransactionType: models.TransactionSell, GmvUsdK: 0.1}, 100, models.DirectionShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, direction := applyTradeItem(tt.position, tt.item)
			assert.Equal(t, tt.amount, amount)
			assert.Equal(t, tt.direction, direction)
			assert.GreaterOrEqual(t, amount, 0.0)
		})
	}
}

func TestTradeExecution(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	short := s.createPosition(t, "2 HK Equity", "Beta", models.DirectionShort, 200_000)
	s.createPosition(t, "1 HK Equity", "Alpha", models.DirectionLong, 1_000_000)

	trade, err := s.trades.CreateTrade(ctx, models.TradeInput{
		Note: "rebalance",
		Items: []models.TradeItemInput{
			{TickerBbg: "2 HK Equity", TransactionType: models.TransactionBuy, GmvUsdK: 500, PositionID: &short.ID},
			{TickerBbg: "1 HK Equity", TransactionType: models.TransactionSell, GmvUsdK: 0, Unwind: true},
			{TickerBbg: "MISSING Equity", TransactionType: models.TransactionBuy, GmvUsdK: 10},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.TradeStatusPending, trade.Status)
	require.Len(t, trade.Items, 3)
	assert.Nil(t, trade.ExecutedAt)

	// Prime the cache so execution has something to invalidate.
	_, err = s.summary.GetSummary(ctx)
	require.NoError(t, err)

	done, err := s.trades.UpdateTrade(ctx, trade.ID, models.TradeUpdate{Status: executed()})
	require.NoError(t, err)
	assert.Equal(t, models.TradeStatusExecuted, done.Status)
	assert.NotNil(t, done.ExecutedAt)
	require.NotNil(t, done.Snapshot)
	assert.Equal(t, "Snapshot after executing trade #"+strconv.FormatInt(trade.ID, 10), done.Snapshot.Note)

	var snapshot []models.Position
	require.NoError(t, json.Unmarshal(done.Snapshot.Positions, &snapshot))
	assert.Len(t, snapshot, 2)

	beta, err := model.GetPositionByTicker(s.db, "2 HK Equity")
	require.NoError(t, err)
	assert.Equal(t, models.DirectionLong, beta.LongShort)
	assert.Equal(t, 300_000.0, beta.PositionAmount)
	assert.InDelta(t, 0.03, beta.PositionWeight, 1e-12)

	alpha, err := model.GetPositionByTicker(s.db, "1 HK Equity")
	require.NoError(t, err)
	assert.Equal(t, models.DirectionWatchlist, alpha.LongShort)
	assert.Equal(t, 0.0, alpha.PositionAmount)

	_, cached := s.cache.Get(ckPortfolioSummary)
	assert.False(t, cached)

	_, err = s.trades.UpdateTrade(ctx, trade.ID, models.TradeUpdate{Status: executed()})
	assert.ErrorIs(t, err, ErrTradeAlreadyExecuted)

	pending := models.TradeStatusPending
	_, err = s.trades.UpdateTrade(ctx, trade.ID, models.TradeUpdate{Status: &pending})
	assert.ErrorIs(t, err, ErrTradeAlreadyExecuted)

	note := "done"
	updated, err := s.trades.UpdateTrade(ctx, trade.ID, models.TradeUpdate{Note: &note})
	require.NoError(t, err)
	assert.Equal(t, "done", updated.Note)
}

func TestCreateTrade_Validation(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	_, err := s.trades.CreateTrade(ctx, models.TradeInput{Status: models.TradeStatusExecuted})
	assert.ErrorIs(t, err, validation.ErrValidationFailed)

	_, err = s.trades.CreateTrade(ctx, models.TradeInput{Items: []models.TradeItemInput{
		{TickerBbg: "1 HK Equity", TransactionType: "hold", GmvUsdK: 1},
	}})
	assert.ErrorIs(t, err, validation.ErrValidationFailed)

	_, err = s.trades.CreateTrade(ctx, models.TradeInput{Items: []models.TradeItemInput{
		{TickerBbg: "1 HK Equity", TransactionType: models.TransactionBuy, GmvUsdK: -1},
	}})
	assert.ErrorIs(t, err, validation.ErrValidationFailed)

	_, err = s.trades.GetTrade(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.trades.DeleteTrade(ctx, 42), ErrNotFound)
}

func TestExportTrade(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	trade, err := s.trades.CreateTrade(ctx, models.TradeInput{Items: []models.TradeItemInput{
		{TickerBbg: "1 HK Equity", Name: "Alpha", TransactionType: models.TransactionBuy, GmvUsdK: 250, Reason: "=HYPERLINK(\"x\")"},
		{TickerBbg: "2 HK Equity", Name: "Beta", TransactionType: models.TransactionSell, GmvUsdK: 100, Unwind: true},
	}})
	require.NoError(t, err)

	data, filename, err := s.trades.ExportTrade(ctx, trade.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filename, "trade-"+strconv.FormatInt(trade.ID, 10)+"-"))
	assert.True(t, strings.HasSuffix(filename, ".xlsx"))

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(tradeExportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"BBG Ticker", "Name", "Transaction Type", "GMV (USD k)", "Unwind", "Reason"}, rows[0])
	assert.Equal(t, "1 HK Equity", rows[1][0])
	assert.Equal(t, "250", rows[1][3])
	assert.Equal(t, "No", rows[1][4])
	assert.Equal(t, "'=HYPERLINK(\"x\")", rows[1][5])
	assert.Equal(t, "Yes", rows[2][4])
}
