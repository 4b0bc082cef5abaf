package model

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/username/portfoliodesk/backend/src/models"
)

const positionSelect = `
	SELECT p.id, p.ticker_bbg, p.name_en, p.name_cn, p.market,
	       p.sector_id, p.theme_id, p.topdown_id, p.priority, p.long_short,
	       p.market_cap_local, p.market_cap_rmb, p.profit_2025, p.pe_2026, p.pe_2027,
	       p.price_tag, p.position_amount, p.position_weight, p.market_cap_date,
	       p.gic_industry, p.exchange_country, p.pnl, p.created_at, p.updated_at,
	       COALESCE(s.name, '') AS sector_name,
	       COALESCE(th.name, '') AS theme_name,
	       COALESCE(td.name, '') AS topdown_name
	FROM positions p
	LEFT JOIN taxonomies s ON s.id = p.sector_id
	LEFT JOIN taxonomies th ON th.id = p.theme_id
	LEFT JOIN taxonomies td ON td.id = p.topdown_id`

// editablePositionColumns are the columns UpdatePositionFields may touch.
var editablePositionColumns = map[string]bool{
	"ticker_bbg":       true,
	"name_en":          true,
	"name_cn":          true,
	"market":           true,
	"sector_id":        true,
	"theme_id":         true,
	"topdown_id":       true,
	"priority":         true,
	"long_short":       true,
	"market_cap_local": true,
	"market_cap_rmb":   true,
	"profit_2025":      true,
	"pe_2026":          true,
	"pe_2027":          true,
	"price_tag":        true,
	"position_amount":  true,
	"position_weight":  true,
	"market_cap_date":  true,
	"gic_industry":     true,
	"exchange_country": true,
	"pnl":              true,
}

// GetPositions returns the positions matching filter with their taxonomy names joined,
// largest exposure first.
func GetPositions(db DBTX, filter models.PositionFilter) ([]models.Position, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.LongShort != "" {
		conditions = append(conditions, "p.long_short = ?")
		args = append(args, filter.LongShort)
	}
	if filter.ActiveOnly {
		conditions = append(conditions, "p.long_short IN ('long', 'short')")
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + search + "%"
		conditions = append(conditions, "(p.ticker_bbg LIKE ? OR p.name_en LIKE ? OR p.name_cn LIKE ?)")
		args = append(args, like, like, like)
	}

	query := positionSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY p.position_amount DESC, p.ticker_bbg ASC"

	positions := []models.Position{}
	if err := sqlx.Select(db, &positions, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	return positions, nil
}

// GetPositionByID returns sql.ErrNoRows (wrapped) when the id does not exist.
func GetPositionByID(db DBTX, id int64) (*models.Position, error) {
	var p models.Position
	if err := sqlx.Get(db, &p, positionSelect+" WHERE p.id = ?", id); err != nil {
		return nil, fmt.Errorf("failed to get position %d: %w", id, err)
	}
	return &p, nil
}

func GetPositionByTicker(db DBTX, ticker string) (*models.Position, error) {
	var p models.Position
	if err := sqlx.Get(db, &p, positionSelect+" WHERE p.ticker_bbg = ?", ticker); err != nil {
		return nil, fmt.Errorf("failed to get position %q: %w", ticker, err)
	}
	return &p, nil
}

// CountPositionsByDirection counts rows with the given long_short value.
func CountPositionsByDirection(db DBTX, direction string) (int, error) {
	var n int
	if err := sqlx.Get(db, &n, "SELECT COUNT(*) FROM positions WHERE long_short = ?", direction); err != nil {
		return 0, fmt.Errorf("failed to count %q positions: %w", direction, err)
	}
	return n, nil
}

// ResetActivePositions moves every long or short row to the watchlist with zero exposure.
// An import runs this first so holdings missing from the new file do not linger.
func ResetActivePositions(db DBTX) (int64, error) {
	res, err := db.Exec(`UPDATE positions
		SET long_short = '/', position_amount = 0, position_weight = 0,
		    updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE long_short IN ('long', 'short')`)
	if err != nil {
		return 0, fmt.Errorf("failed to reset active positions: %w", err)
	}
	return res.RowsAffected()
}

// UpsertImportedPosition writes one normalized import row keyed by ticker and reports
// whether a new row was created. nameCn only overwrites the stored name when non-empty.
func UpsertImportedPosition(db DBTX, p models.NormalizedPosition, nameCn string, weight float64) (bool, error) {
	var id int64
	err := sqlx.Get(db, &id, "SELECT id FROM positions WHERE ticker_bbg = ?", p.TickerBbg)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = db.Exec(`INSERT INTO positions (
				ticker_bbg, name_en, name_cn, market, long_short, position_amount, position_weight,
				gic_industry, exchange_country, pnl
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.TickerBbg, p.BbgName, nameCn, p.Market, p.LongShort, p.PositionAmount, weight,
			p.GicIndustry, p.ExchangeCountry, p.Pnl)
		if err != nil {
			return false, fmt.Errorf("failed to insert position %q: %w", p.TickerBbg, err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("failed to look up position %q: %w", p.TickerBbg, err)
	}

	_, err = db.Exec(`UPDATE positions SET
			name_en = ?, name_cn = COALESCE(NULLIF(?, ''), name_cn), market = ?, long_short = ?,
			position_amount = ?, position_weight = ?, gic_industry = ?, exchange_country = ?, pnl = ?,
			updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = ?`,
		p.BbgName, nameCn, p.Market, p.LongShort,
		p.PositionAmount, weight, p.GicIndustry, p.ExchangeCountry, p.Pnl, id)
	if err != nil {
		return false, fmt.Errorf("failed to update position %q: %w", p.TickerBbg, err)
	}
	return false, nil
}

// CreatePosition inserts p and sets its ID.
func CreatePosition(db DBTX, p *models.Position) error {
	res, err := db.Exec(`INSERT INTO positions (
			ticker_bbg, name_en, name_cn, market, sector_id, theme_id, topdown_id, priority, long_short,
			market_cap_local, market_cap_rmb, profit_2025, pe_2026, pe_2027, price_tag,
			position_amount, position_weight, market_cap_date, gic_industry, exchange_country, pnl
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.TickerBbg, p.NameEn, p.NameCn, p.Market, p.SectorID, p.ThemeID, p.TopdownID, p.Priority, p.LongShort,
		p.MarketCapLocal, p.MarketCapRmb, p.Profit2025, p.Pe2026, p.Pe2027, p.PriceTag,
		p.PositionAmount, p.PositionWeight, p.MarketCapDate, p.GicIndustry, p.ExchangeCountry, p.Pnl)
	if err != nil {
		return fmt.Errorf("failed to insert position %q: %w", p.TickerBbg, err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

// UpdatePositionFields sets the given columns on one position. Unknown columns are rejected.
// It reports whether the row existed.
func UpdatePositionFields(db DBTX, id int64, fields map[string]interface{}) (bool, error) {
	if len(fields) == 0 {
		var exists int
		err := sqlx.Get(db, &exists, "SELECT 1 FROM positions WHERE id = ?", id)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return err == nil, err
	}

	columns := make([]string, 0, len(fields))
	for col := range fields {
		if !editablePositionColumns[col] {
			return false, fmt.Errorf("column %q is not editable", col)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	sets := make([]string, 0, len(columns)+1)
	args := make([]interface{}, 0, len(columns)+1)
	for _, col := range columns {
		sets = append(sets, col+" = ?")
		args = append(args, fields[col])
	}
	sets = append(sets, "updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')")
	args = append(args, id)

	res, err := db.Exec("UPDATE positions SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return false, fmt.Errorf("failed to update position %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SetPositionExposure overwrites the exposure columns of one position.
func SetPositionExposure(db DBTX, id int64, amount float64, longShort string, weight float64) error {
	_, err := db.Exec(`UPDATE positions
		SET position_amount = ?, long_short = ?, position_weight = ?,
		    updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = ?`, amount, longShort, weight, id)
	if err != nil {
		return fmt.Errorf("failed to set exposure of position %d: %w", id, err)
	}
	return nil
}

// DeletePosition reports whether a row was removed.
func DeletePosition(db DBTX, id int64) (bool, error) {
	res, err := db.Exec("DELETE FROM positions WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete position %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
