package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/username/portfoliodesk/backend/src/logger"
	"github.com/username/portfoliodesk/backend/src/model"
	"github.com/username/portfoliodesk/backend/src/models"
	"github.com/username/portfoliodesk/backend/src/processors"
	"github.com/username/portfoliodesk/backend/src/security/validation"
)

type fieldKind int

const (
	kindText fieldKind = iota
	kindNumber
	kindTaxonomyRef
	kindOptionalText
)

type editableField struct {
	column string
	kind   fieldKind
}

// editablePositionFields is the allow-list of JSON fields a position update may change.
var editablePositionFields = map[string]editableField{
	"tickerBbg":       {"ticker_bbg", kindText},
	"nameEn":          {"name_en", kindText},
	"nameCn":          {"name_cn", kindText},
	"market":          {"market", kindText},
	"sectorId":        {"sector_id", kindTaxonomyRef},
	"themeId":         {"theme_id", kindTaxonomyRef},
	"topdownId":       {"topdown_id", kindTaxonomyRef},
	"priority":        {"priority", kindText},
	"longShort":       {"long_short", kindText},
	"marketCapLocal":  {"market_cap_local", kindNumber},
	"marketCapRmb":    {"market_cap_rmb", kindNumber},
	"profit2025":      {"profit_2025", kindNumber},
	"pe2026":          {"pe_2026", kindNumber},
	"pe2027":          {"pe_2027", kindNumber},
	"priceTag":        {"price_tag", kindText},
	"positionAmount":  {"position_amount", kindNumber},
	"positionWeight":  {"position_weight", kindNumber},
	"marketCapDate":   {"market_cap_date", kindOptionalText},
	"gicIndustry":     {"gic_industry", kindText},
	"exchangeCountry": {"exchange_country", kindText},
	"pnl":             {"pnl", kindNumber},
}

type positionServiceImpl struct {
	db         *sqlx.DB
	summary    SummaryInvalidator
	defaultAUM float64
}

func NewPositionService(db *sqlx.DB, summary SummaryInvalidator, defaultAUM float64) PositionService {
	return &positionServiceImpl{db: db, summary: summary, defaultAUM: defaultAUM}
}

// ListPositions returns positions with taxonomy links expanded. When merged is set, rows of the
// same company are collapsed into one display row.
func (s *positionServiceImpl) ListPositions(ctx context.Context, filter models.PositionFilter, merged bool) ([]models.PositionWithRelations, error) {
	positions, err := model.GetPositions(s.db, filter)
	if err != nil {
		return nil, err
	}
	if merged {
		aum, err := currentAUM(s.db, s.defaultAUM)
		if err != nil {
			return nil, err
		}
		positions = processors.MergePositionsForListing(positions, aum)
	}

	taxonomies, err := s.taxonomyIndex()
	if err != nil {
		return nil, err
	}
	out := make([]models.PositionWithRelations, 0, len(positions))
	for _, p := range positions {
		out = append(out, withRelations(p, taxonomies))
	}
	return out, nil
}

func (s *positionServiceImpl) GetPosition(ctx context.Context, id int64) (*models.PositionDetail, error) {
	p, err := model.GetPositionByID(s.db, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: position %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	taxonomies, err := s.taxonomyIndex()
	if err != nil {
		return nil, err
	}
	mappings, err := model.GetNameMappingsForPosition(s.db, p.ID, p.NameEn)
	if err != nil {
		return nil, err
	}
	return &models.PositionDetail{
		PositionWithRelations: withRelations(*p, taxonomies),
		NameMappings:          mappings,
	}, nil
}

func (s *positionServiceImpl) CreatePosition(ctx context.Context, p models.Position) (*models.PositionWithRelations, error) {
	p.TickerBbg = validation.CleanText(p.TickerBbg)
	if err := validation.ValidateIdentifier(p.TickerBbg, "tickerBbg", validation.MaxTickerLength); err != nil {
		return nil, err
	}
	if p.LongShort == "" {
		p.LongShort = models.DirectionWatchlist
	}
	if err := validation.ValidateDirection(p.LongShort); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative(p.PositionAmount, "positionAmount"); err != nil {
		return nil, err
	}
	for _, ref := range []*int64{p.SectorID, p.ThemeID, p.TopdownID} {
		if err := s.checkTaxonomyRef(ref); err != nil {
			return nil, err
		}
	}
	for _, text := range []*string{&p.NameEn, &p.NameCn, &p.Market, &p.Priority, &p.PriceTag, &p.GicIndustry, &p.ExchangeCountry} {
		*text = validation.CleanText(*text)
	}

	if _, err := model.GetPositionByTicker(s.db, p.TickerBbg); err == nil {
		return nil, fmt.Errorf("%w: ticker %q already exists", ErrConflict, p.TickerBbg)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if err := model.CreatePosition(s.db, &p); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Position created", "id", p.ID, "ticker", p.TickerBbg)
	s.summary.Invalidate()
	return s.reload(p.ID)
}

func (s *positionServiceImpl) UpdatePosition(ctx context.Context, id int64, fields map[string]json.RawMessage) (*models.PositionWithRelations, error) {
	updates := make(map[string]interface{}, len(fields))
	for name, raw := range fields {
		field, ok := editablePositionFields[name]
		if !ok {
			// Read-only and unknown keys (id, timestamps, joined names) are ignored.
			continue
		}
		value, err := s.decodeField(name, field.kind, raw)
		if err != nil {
			return nil, err
		}
		updates[field.column] = value
	}

	if ticker, ok := updates["ticker_bbg"].(string); ok {
		existing, err := model.GetPositionByTicker(s.db, ticker)
		if err == nil && existing.ID != id {
			return nil, fmt.Errorf("%w: ticker %q already exists", ErrConflict, ticker)
		}
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}

	found, err := model.UpdatePositionFields(s.db, id, updates)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: position %d", ErrNotFound, id)
	}
	logger.FromContext(ctx).Info("Position updated", "id", id, "fields", len(updates))
	s.summary.Invalidate()
	return s.reload(id)
}

func (s *positionServiceImpl) DeletePosition(ctx context.Context, id int64) error {
	deleted, err := model.DeletePosition(s.db, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: position %d", ErrNotFound, id)
	}
	logger.FromContext(ctx).Info("Position deleted", "id", id)
	s.summary.Invalidate()
	return nil
}

// decodeField parses and validates one JSON value of a partial update.
func (s *positionServiceImpl) decodeField(name string, kind fieldKind, raw json.RawMessage) (interface{}, error) {
	invalid := func(err error) error {
		return fmt.Errorf("%w: %s has the wrong type: %v", validation.ErrValidationFailed, name, err)
	}

	switch kind {
	case kindNumber:
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, invalid(err)
		}
		if name == "positionAmount" {
			if err := validation.ValidateNonNegative(v, name); err != nil {
				return nil, err
			}
		}
		return v, nil
	case kindTaxonomyRef:
		var v *int64
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, invalid(err)
		}
		if err := s.checkTaxonomyRef(v); err != nil {
			return nil, err
		}
		return v, nil
	case kindOptionalText:
		var v *string
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, invalid(err)
		}
		if v != nil {
			cleaned := validation.CleanText(*v)
			v = &cleaned
		}
		return v, nil
	default:
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, invalid(err)
		}
		v = validation.CleanText(v)
		switch name {
		case "longShort":
			if err := validation.ValidateDirection(v); err != nil {
				return nil, err
			}
		case "tickerBbg":
			if err := validation.ValidateIdentifier(v, name, validation.MaxTickerLength); err != nil {
				return nil, err
			}
		}
		return v, nil
	}
}

func (s *positionServiceImpl) checkTaxonomyRef(id *int64) error {
	if id == nil {
		return nil
	}
	_, err := model.GetTaxonomyByID(s.db, *id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: taxonomy %d does not exist", validation.ErrValidationFailed, *id)
	}
	return err
}

func (s *positionServiceImpl) reload(id int64) (*models.PositionWithRelations, error) {
	p, err := model.GetPositionByID(s.db, id)
	if err != nil {
		return nil, err
	}
	taxonomies, err := s.taxonomyIndex()
	if err != nil {
		return nil, err
	}
	out := withRelations(*p, taxonomies)
	return &out, nil
}

func (s *positionServiceImpl) taxonomyIndex() (map[int64]models.Taxonomy, error) {
	all, err := model.GetTaxonomies(s.db, "")
	if err != nil {
		return nil, err
	}
	index := make(map[int64]models.Taxonomy, len(all))
	for _, t := range all {
		index[t.ID] = t
	}
	return index, nil
}

func withRelations(p models.Position, taxonomies map[int64]models.Taxonomy) models.PositionWithRelations {
	lookup := func(id *int64) *models.Taxonomy {
		if id == nil {
			return nil
		}
		if t, ok := taxonomies[*id]; ok {
			return &t
		}
		return nil
	}
	return models.PositionWithRelations{
		Position: p,
		Sector:   lookup(p.SectorID),
		Theme:    lookup(p.ThemeID),
		Topdown:  lookup(p.TopdownID),
	}
}
