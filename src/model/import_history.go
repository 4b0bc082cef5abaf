package model

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/username/portfoliodesk/backend/src/models"
)

// CreateImportHistory records one applied import batch.
func CreateImportHistory(db DBTX, h *models.ImportHistory) error {
	res, err := db.Exec(`INSERT INTO import_history (import_type, file_name, record_count, new_count, updated_count)
		VALUES (?, ?, ?, ?, ?)`, h.ImportType, h.FileName, h.RecordCount, h.NewCount, h.UpdatedCount)
	if err != nil {
		return fmt.Errorf("failed to record import history: %w", err)
	}
	h.ID, err = res.LastInsertId()
	return err
}

// GetImportHistory returns the most recent imports first.
func GetImportHistory(db DBTX, limit int) ([]models.ImportHistory, error) {
	history := []models.ImportHistory{}
	err := sqlx.Select(db, &history, `SELECT id, import_type, file_name, record_count, new_count, updated_count, created_at
		FROM import_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query import history: %w", err)
	}
	return history, nil
}
