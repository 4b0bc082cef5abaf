package model

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/username/portfoliodesk/backend/src/models"
)

const (
	tradeSelect     = `SELECT id, status, note, created_at, executed_at FROM trades`
	tradeItemSelect = `SELECT id, trade_id, ticker_bbg, name, transaction_type, gmv_usd_k, unwind, reason, position_id, created_at FROM trade_items`
)

// GetTrades returns every trade, newest first, with its items loaded.
func GetTrades(db DBTX) ([]models.Trade, error) {
	trades := []models.Trade{}
	if err := sqlx.Select(db, &trades, tradeSelect+" ORDER BY id DESC"); err != nil {
		return nil, fmt.Errorf("failed to query trades: %w", err)
	}

	items := []models.TradeItem{}
	if err := sqlx.Select(db, &items, tradeItemSelect+" ORDER BY trade_id, id"); err != nil {
		return nil, fmt.Errorf("failed to query trade items: %w", err)
	}
	byTrade := make(map[int64][]models.TradeItem)
	for _, item := range items {
		byTrade[item.TradeID] = append(byTrade[item.TradeID], item)
	}
	for i := range trades {
		trades[i].Items = byTrade[trades[i].ID]
		if trades[i].Items == nil {
			trades[i].Items = []models.TradeItem{}
		}
	}
	return trades, nil
}

// GetTradeByID loads one trade with its items and, once executed, its snapshot.
func GetTradeByID(db DBTX, id int64) (*models.Trade, error) {
	var t models.Trade
	if err := sqlx.Get(db, &t, tradeSelect+" WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("failed to get trade %d: %w", id, err)
	}
	t.Items = []models.TradeItem{}
	if err := sqlx.Select(db, &t.Items, tradeItemSelect+" WHERE trade_id = ? ORDER BY id", id); err != nil {
		return nil, fmt.Errorf("failed to query items of trade %d: %w", id, err)
	}

	snapshots := []models.Snapshot{}
	err := sqlx.Select(db, &snapshots, `SELECT id, trade_id, positions_json, note, created_at
		FROM snapshots WHERE trade_id = ? ORDER BY id DESC LIMIT 1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot of trade %d: %w", id, err)
	}
	if len(snapshots) > 0 {
		s := snapshots[0]
		s.Positions = []byte(s.PositionsJSON)
		t.Snapshot = &s
	}
	return &t, nil
}

// CreateTrade inserts t and its items and sets their IDs.
func CreateTrade(db DBTX, t *models.Trade) error {
	res, err := db.Exec("INSERT INTO trades (status, note) VALUES (?, ?)", t.Status, t.Note)
	if err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}
	if t.ID, err = res.LastInsertId(); err != nil {
		return err
	}
	for i := range t.Items {
		item := &t.Items[i]
		item.TradeID = t.ID
		res, err := db.Exec(`INSERT INTO trade_items
				(trade_id, ticker_bbg, name, transaction_type, gmv_usd_k, unwind, reason, position_id)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			item.TradeID, item.TickerBbg, item.Name, item.TransactionType, item.GmvUsdK, item.Unwind, item.Reason, item.PositionID)
		if err != nil {
			return fmt.Errorf("failed to insert item %q of trade %d: %w", item.TickerBbg, t.ID, err)
		}
		if item.ID, err = res.LastInsertId(); err != nil {
			return err
		}
	}
	return nil
}

func UpdateTradeNote(db DBTX, id int64, note string) error {
	if _, err := db.Exec("UPDATE trades SET note = ? WHERE id = ?", note, id); err != nil {
		return fmt.Errorf("failed to update note of trade %d: %w", id, err)
	}
	return nil
}

// UpdateTradeStatus stamps executed_at when the new status is executed.
func UpdateTradeStatus(db DBTX, id int64, status string) error {
	query := "UPDATE trades SET status = ? WHERE id = ?"
	if status == models.TradeStatusExecuted {
		query = "UPDATE trades SET status = ?, executed_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now') WHERE id = ?"
	}
	if _, err := db.Exec(query, status, id); err != nil {
		return fmt.Errorf("failed to update status of trade %d: %w", id, err)
	}
	return nil
}

// DeleteTrade removes a trade together with its items and snapshots.
func DeleteTrade(db DBTX, id int64) (bool, error) {
	res, err := db.Exec("DELETE FROM trades WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete trade %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// CreateSnapshot stores the JSON-encoded state of all positions after a trade.
func CreateSnapshot(db DBTX, s *models.Snapshot) error {
	res, err := db.Exec("INSERT INTO snapshots (trade_id, positions_json, note) VALUES (?, ?, ?)",
		s.TradeID, s.PositionsJSON, s.Note)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot of trade %d: %w", s.TradeID, err)
	}
	s.ID, err = res.LastInsertId()
	return err
}
