package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/username/portfoliodesk/backend/src/models"
)

// Define common service errors
var (
	ErrParsingFailed        = errors.New("file parsing failed")
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("conflict")
	ErrTradeAlreadyExecuted = errors.New("trade already executed")
)

// ReferencedError refuses a taxonomy delete while positions still point at the node.
type ReferencedError struct {
	References models.TaxonomyReferences
}

func (e *ReferencedError) Error() string {
	return fmt.Sprintf("taxonomy is referenced by %d position link(s)", e.References.Total())
}

func (e *ReferencedError) Unwrap() error { return ErrConflict }

// SummaryInvalidator is told whenever stored positions, taxonomies or settings change.
type SummaryInvalidator interface {
	Invalidate()
}

// SummaryService serves the portfolio exposure summary.
type SummaryService interface {
	SummaryInvalidator
	GetSummary(ctx context.Context) (*models.PortfolioSummary, error)
}

// ImportService applies broker position exports to the position store.
type ImportService interface {
	ProcessImport(ctx context.Context, fileReader io.Reader, filename string, filesize int64) (*models.ImportResult, error)
	GetImportHistory(ctx context.Context, limit int) ([]models.ImportHistory, error)
}

type PositionService interface {
	ListPositions(ctx context.Context, filter models.PositionFilter, merged bool) ([]models.PositionWithRelations, error)
	GetPosition(ctx context.Context, id int64) (*models.PositionDetail, error)
	CreatePosition(ctx context.Context, p models.Position) (*models.PositionWithRelations, error)
	// UpdatePosition applies a partial update; keys are JSON field names.
	UpdatePosition(ctx context.Context, id int64, fields map[string]json.RawMessage) (*models.PositionWithRelations, error)
	DeletePosition(ctx context.Context, id int64) error
}

type TaxonomyService interface {
	ListTaxonomies(ctx context.Context, taxonomyType string) ([]models.TaxonomyNode, error)
	CreateTaxonomy(ctx context.Context, input models.TaxonomyInput) (*models.Taxonomy, error)
	UpdateTaxonomy(ctx context.Context, id int64, input models.TaxonomyUpdate) (*models.Taxonomy, error)
	DeleteTaxonomy(ctx context.Context, id int64) error
}

type SettingsService interface {
	GetSettings(ctx context.Context) (models.AppSettings, error)
	UpdateSettings(ctx context.Context, settings models.AppSettings) (models.AppSettings, error)
}

type TradeService interface {
	ListTrades(ctx context.Context) ([]models.Trade, error)
	GetTrade(ctx context.Context, id int64) (*models.Trade, error)
	CreateTrade(ctx context.Context, input models.TradeInput) (*models.Trade, error)
	// UpdateTrade changes note or status. Moving to executed applies the trade to positions.
	UpdateTrade(ctx context.Context, id int64, update models.TradeUpdate) (*models.Trade, error)
	DeleteTrade(ctx context.Context, id int64) error
	// ExportTrade renders the trade's items as an xlsx workbook.
	ExportTrade(ctx context.Context, id int64) ([]byte, string, error)
}

type NameMappingService interface {
	ListNameMappings(ctx context.Context) ([]models.NameMapping, error)
	CreateNameMapping(ctx context.Context, input models.NameMappingInput) (*models.NameMapping, error)
	UpdateNameMapping(ctx context.Context, id int64, input models.NameMappingUpdate) (*models.NameMapping, error)
	DeleteNameMapping(ctx context.Context, id int64) error
}
