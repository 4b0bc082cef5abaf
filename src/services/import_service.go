package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/username/portfoliodesk/backend/src/logger"
	"github.com/username/portfoliodesk/backend/src/metrics"
	"github.com/username/portfoliodesk/backend/src/model"
	"github.com/username/portfoliodesk/backend/src/models"
	"github.com/username/portfoliodesk/backend/src/parsers"
	"github.com/username/portfoliodesk/backend/src/processors"
)

const (
	importTypePositions = "positions"
	maxDebugSamples     = 3
)

type importServiceImpl struct {
	db         *sqlx.DB
	summary    SummaryInvalidator
	defaultAUM float64
}

func NewImportService(db *sqlx.DB, summary SummaryInvalidator, defaultAUM float64) ImportService {
	return &importServiceImpl{db: db, summary: summary, defaultAUM: defaultAUM}
}

// ProcessImport replaces the active book with the content of one broker export.
// Every active position is first moved to the watchlist, then each row is upserted by ticker,
// all inside a single transaction: either the whole file lands or nothing changes.
func (s *importServiceImpl) ProcessImport(ctx context.Context, fileReader io.Reader, filename string, filesize int64) (*models.ImportResult, error) {
	log := logger.FromContext(ctx)
	startTime := time.Now()
	log.Info("ProcessImport START", "filename", filename, "size", filesize)

	parser, err := parsers.GetParser(filename)
	if err != nil {
		metrics.ImportsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	rows, err := parser.Parse(fileReader)
	if err != nil {
		metrics.ImportsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	result, err := s.applyRows(ctx, rows, filename)
	if err != nil {
		metrics.ImportsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	s.summary.Invalidate()
	metrics.ImportsTotal.WithLabelValues("success").Inc()
	log.Info("ProcessImport END", "filename", filename, "total", result.Total, "created", result.Created,
		"updated", result.Updated, "skipped", result.Skipped, "duration", time.Since(startTime))
	return result, nil
}

func (s *importServiceImpl) applyRows(ctx context.Context, rows []models.ImportRow, filename string) (*models.ImportResult, error) {
	log := logger.FromContext(ctx)

	result := &models.ImportResult{
		Unmatched:      []models.UnmatchedName{},
		ExcelColumns:   []string{},
		DebugSamples:   []models.DebugSample{},
		ZeroNmvTickers: []models.ZeroNmvTicker{},
	}
	if len(rows) > 0 {
		result.ExcelColumns = rows[0].Headers()
	}

	dbTx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	aum, err := currentAUM(dbTx, s.defaultAUM)
	if err != nil {
		return nil, err
	}
	nameMap, err := model.LoadNameMap(dbTx)
	if err != nil {
		return nil, err
	}

	reset, err := model.ResetActivePositions(dbTx)
	if err != nil {
		return nil, err
	}
	log.Debug("Active positions reset before import", "count", reset)

	normalizer := processors.NewPositionNormalizer()
	seenUnmatched := make(map[string]bool)

	for _, row := range rows {
		np, ok := normalizer.Normalize(row)
		if np.Skip == models.SkipNoTicker || np.Skip == models.SkipTotalRow {
			result.Skipped++
			metrics.ImportRowsTotal.WithLabelValues(string(np.Skip)).Inc()
			continue
		}

		result.Total++
		if len(result.DebugSamples) < maxDebugSamples {
			result.DebugSamples = append(result.DebugSamples, models.DebugSample{
				Ticker:   np.TickerBbg,
				Gic:      np.GicIndustry,
				Exchange: np.ExchangeCountry,
				Risk:     np.Market,
			})
		}

		if !ok {
			result.Skipped++
			result.Duplicates++
			metrics.ImportRowsTotal.WithLabelValues(string(np.Skip)).Inc()
			log.Debug("Skipping incomplete duplicate row", "ticker", np.TickerBbg, "nmvColumn", np.NmvColumn)
			continue
		}

		chineseName := ""
		if mapping, found := nameMap[strings.ToLower(np.BbgName)]; found {
			chineseName = mapping.ChineseName
			result.Matched++
		} else if !seenUnmatched[np.BbgName] {
			seenUnmatched[np.BbgName] = true
			result.Unmatched = append(result.Unmatched, models.UnmatchedName{BbgName: np.BbgName})
		}

		if !np.NmvValid || np.PositionAmount == 0 {
			result.ZeroNmvTickers = append(result.ZeroNmvTickers, models.ZeroNmvTicker{
				Ticker:    np.TickerBbg,
				NmvColumn: np.NmvColumn,
				NmvRaw:    np.NmvRaw,
				NmvParsed: np.PositionAmount,
			})
		}

		created, err := model.UpsertImportedPosition(dbTx, np, chineseName, np.PositionAmount/aum)
		if err != nil {
			return nil, err
		}
		if created {
			result.Created++
			metrics.ImportRowsTotal.WithLabelValues("created").Inc()
		} else {
			result.Updated++
			metrics.ImportRowsTotal.WithLabelValues("updated").Inc()
		}
	}

	if len(result.DebugSamples) > 0 {
		log.Debug("Import column matching samples", "columns", result.ExcelColumns, "samples", result.DebugSamples)
	}
	if len(result.ZeroNmvTickers) > 0 {
		log.Debug("Import rows with zero NMV", "count", len(result.ZeroNmvTickers), "tickers", result.ZeroNmvTickers)
	}

	err = model.CreateImportHistory(dbTx, &models.ImportHistory{
		ImportType:   importTypePositions,
		FileName:     filename,
		RecordCount:  result.Total,
		NewCount:     result.Created,
		UpdatedCount: result.Updated,
	})
	if err != nil {
		return nil, err
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing import: %w", err)
	}
	return result, nil
}

func (s *importServiceImpl) GetImportHistory(ctx context.Context, limit int) ([]models.ImportHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	return model.GetImportHistory(s.db, limit)
}
