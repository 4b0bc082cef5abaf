package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/username/portfoliodesk/backend/src/logger"
	"github.com/username/portfoliodesk/backend/src/metrics"
	"github.com/username/portfoliodesk/backend/src/model"
	"github.com/username/portfoliodesk/backend/src/models"
	"github.com/username/portfoliodesk/backend/src/security/validation"
	"github.com/xuri/excelize/v2"
)

const tradeExportSheet = "Trade"

var (
	tradeExportHeaders = []interface{}{"BBG Ticker", "Name", "Transaction Type", "GMV (USD k)", "Unwind", "Reason"}
	tradeExportWidths  = []float64{20, 25, 18, 15, 10, 40}
	thousand           = decimal.NewFromInt(1000)
)

type tradeServiceImpl struct {
	db         *sqlx.DB
	summary    SummaryInvalidator
	defaultAUM float64
}

func NewTradeService(db *sqlx.DB, summary SummaryInvalidator, defaultAUM float64) TradeService {
	return &tradeServiceImpl{db: db, summary: summary, defaultAUM: defaultAUM}
}

func (s *tradeServiceImpl) ListTrades(ctx context.Context) ([]models.Trade, error) {
	return model.GetTrades(s.db)
}

func (s *tradeServiceImpl) GetTrade(ctx context.Context, id int64) (*models.Trade, error) {
	t, err := model.GetTradeByID(s.db, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: trade %d", ErrNotFound, id)
	}
	return t, err
}

// CreateTrade stores a draft. Trades are executed through UpdateTrade only.
func (s *tradeServiceImpl) CreateTrade(ctx context.Context, input models.TradeInput) (*models.Trade, error) {
	t := models.Trade{
		Status: input.Status,
		Note:   validation.CleanText(input.Note),
		Items:  make([]models.TradeItem, 0, len(input.Items)),
	}
	if t.Status == "" {
		t.Status = models.TradeStatusPending
	}
	if t.Status != models.TradeStatusPending && t.Status != models.TradeStatusCancelled {
		return nil, fmt.Errorf("%w: a trade can only be created as 'pending' or 'cancelled'", validation.ErrValidationFailed)
	}
	if err := validation.ValidateStringMaxLength(t.Note, validation.MaxNoteLength, "note"); err != nil {
		return nil, err
	}

	for i, in := range input.Items {
		item := models.TradeItem{
			TickerBbg:       validation.CleanText(in.TickerBbg),
			Name:            validation.CleanText(in.Name),
			TransactionType: in.TransactionType,
			GmvUsdK:         in.GmvUsdK,
			Unwind:          in.Unwind,
			Reason:          validation.CleanText(in.Reason),
			PositionID:      in.PositionID,
		}
		field := fmt.Sprintf("items[%d]", i)
		if err := validation.ValidateIdentifier(item.TickerBbg, field+".tickerBbg", validation.MaxTickerLength); err != nil {
			return nil, err
		}
		if err := validation.ValidateTransactionType(item.TransactionType); err != nil {
			return nil, err
		}
		if err := validation.ValidateNonNegative(item.GmvUsdK, field+".gmvUsdK"); err != nil {
			return nil, err
		}
		if err := validation.ValidateStringMaxLength(item.Reason, validation.MaxNoteLength, field+".reason"); err != nil {
			return nil, err
		}
		t.Items = append(t.Items, item)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error beginning trade insert: %w", err)
	}
	defer tx.Rollback()
	if err := model.CreateTrade(tx, &t); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing trade: %w", err)
	}

	logger.FromContext(ctx).Info("Trade created", "id", t.ID, "status", t.Status, "items", len(t.Items))
	return model.GetTradeByID(s.db, t.ID)
}

func (s *tradeServiceImpl) UpdateTrade(ctx context.Context, id int64, update models.TradeUpdate) (*models.Trade, error) {
	current, err := s.GetTrade(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Note != nil {
		note := validation.CleanText(*update.Note)
		if err := validation.ValidateStringMaxLength(note, validation.MaxNoteLength, "note"); err != nil {
			return nil, err
		}
		if err := model.UpdateTradeNote(s.db, id, note); err != nil {
			return nil, err
		}
	}

	if update.Status != nil && *update.Status != current.Status {
		if err := validation.ValidateTradeStatus(*update.Status); err != nil {
			return nil, err
		}
		if current.Status == models.TradeStatusExecuted {
			return nil, fmt.Errorf("%w: trade %d", ErrTradeAlreadyExecuted, id)
		}
		if *update.Status == models.TradeStatusExecuted {
			if err := s.execute(ctx, current); err != nil {
				return nil, err
			}
		} else if err := model.UpdateTradeStatus(s.db, id, *update.Status); err != nil {
			return nil, err
		}
	} else if update.Status != nil && *update.Status == models.TradeStatusExecuted {
		return nil, fmt.Errorf("%w: trade %d", ErrTradeAlreadyExecuted, id)
	}

	return model.GetTradeByID(s.db, id)
}

// execute applies every item to its position, snapshots the book and marks the trade executed,
// all in one transaction.
func (s *tradeServiceImpl) execute(ctx context.Context, t *models.Trade) error {
	log := logger.FromContext(ctx).With("tradeID", t.ID)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning trade execution: %w", err)
	}
	defer tx.Rollback()

	aum, err := currentAUM(tx, s.defaultAUM)
	if err != nil {
		return err
	}

	applied := 0
	for _, item := range t.Items {
		p, err := findTradePosition(tx, item)
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("No position matches trade item, skipping", "ticker", item.TickerBbg, "positionID", item.PositionID)
			continue
		}
		if err != nil {
			return err
		}

		amount, direction := applyTradeItem(*p, item)
		if err := model.SetPositionExposure(tx, p.ID, amount, direction, amount/aum); err != nil {
			return err
		}
		applied++
		log.Debug("Trade item applied", "ticker", p.TickerBbg, "type", item.TransactionType,
			"unwind", item.Unwind, "amount", amount, "longShort", direction)
	}

	positions, err := model.GetPositions(tx, models.PositionFilter{})
	if err != nil {
		return err
	}
	payload, err := json.Marshal(positions)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot of trade %d: %w", t.ID, err)
	}
	snapshot := models.Snapshot{
		TradeID:       t.ID,
		PositionsJSON: string(payload),
		Note:          fmt.Sprintf("Snapshot after executing trade #%d", t.ID),
	}
	if err := model.CreateSnapshot(tx, &snapshot); err != nil {
		return err
	}
	if err := model.UpdateTradeStatus(tx, t.ID, models.TradeStatusExecuted); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing trade execution: %w", err)
	}

	metrics.TradesExecutedTotal.Inc()
	log.Info("Trade executed", "items", len(t.Items), "applied", applied, "snapshotID", snapshot.ID)
	s.summary.Invalidate()
	return nil
}

// findTradePosition prefers the explicit position link and falls back to the ticker.
func findTradePosition(db model.DBTX, item models.TradeItem) (*models.Position, error) {
	if item.PositionID != nil {
		p, err := model.GetPositionByID(db, *item.PositionID)
		if err == nil || !errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
	}
	return model.GetPositionByTicker(db, item.TickerBbg)
}

// applyTradeItem returns the position's new amount and direction after the item.
// It works on the signed exposure so the amount can never go negative.
func applyTradeItem(p models.Position, item models.TradeItem) (float64, string) {
	signed := decimal.NewFromFloat(p.SignedNmv())
	gmv := decimal.NewFromFloat(item.GmvUsdK).Mul(thousand)

	switch {
	case item.Unwind:
		signed = decimal.Zero
	case item.TransactionType == models.TransactionBuy:
		signed = signed.Add(gmv)
	case item.TransactionType == models.TransactionSell:
		signed = signed.Sub(gmv)
	}

	switch signed.Sign() {
	case 1:
		return signed.InexactFloat64(), models.DirectionLong
	case -1:
		return signed.Abs().InexactFloat64(), models.DirectionShort
	default:
		return 0, models.DirectionWatchlist
	}
}

func (s *tradeServiceImpl) DeleteTrade(ctx context.Context, id int64) error {
	deleted, err := model.DeleteTrade(s.db, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: trade %d", ErrNotFound, id)
	}
	logger.FromContext(ctx).Info("Trade deleted", "id", id)
	return nil
}

// ExportTrade renders the trade's items as a one-sheet workbook and returns it with its file name.
func (s *tradeServiceImpl) ExportTrade(ctx context.Context, id int64) ([]byte, string, error) {
	t, err := s.GetTrade(ctx, id)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", tradeExportSheet); err != nil {
		return nil, "", fmt.Errorf("failed to name export sheet: %w", err)
	}

	if err := f.SetSheetRow(tradeExportSheet, "A1", &tradeExportHeaders); err != nil {
		return nil, "", err
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(tradeExportSheet, 1, 1, style)
	}

	for i, item := range t.Items {
		unwind := "No"
		if item.Unwind {
			unwind = "Yes"
		}
		row := []interface{}{
			validation.SanitizeForFormulaInjection(item.TickerBbg),
			validation.SanitizeForFormulaInjection(item.Name),
			item.TransactionType,
			item.GmvUsdK,
			unwind,
			validation.SanitizeForFormulaInjection(item.Reason),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(tradeExportSheet, cell, &row); err != nil {
			return nil, "", fmt.Errorf("failed to write export row %d: %w", i+2, err)
		}
	}

	for i, width := range tradeExportWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(tradeExportSheet, col, col, width); err != nil {
			return nil, "", err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to render trade export: %w", err)
	}
	filename := fmt.Sprintf("trade-%d-%s.xlsx", t.ID, time.Now().Format("2006-01-02"))
	logger.FromContext(ctx).Info("Trade exported", "id", id, "items", len(t.Items), "bytes", buf.Len())
	return buf.Bytes(), filename, nil
}
