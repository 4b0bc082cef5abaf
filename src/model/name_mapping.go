package model

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/username/portfoliodesk/backend/src/models"
)

const nameMappingSelect = `SELECT id, bbg_name, chinese_name, position_id, created_at, updated_at FROM name_mappings`

func GetNameMappings(db DBTX) ([]models.NameMapping, error) {
	mappings := []models.NameMapping{}
	if err := sqlx.Select(db, &mappings, nameMappingSelect+" ORDER BY bbg_name"); err != nil {
		return nil, fmt.Errorf("failed to query name mappings: %w", err)
	}
	return mappings, nil
}

// GetNameMappingsForPosition returns the mappings linked to positionID or matching its company name.
func GetNameMappingsForPosition(db DBTX, positionID int64, nameEn string) ([]models.NameMapping, error) {
	mappings := []models.NameMapping{}
	err := sqlx.Select(db, &mappings, nameMappingSelect+" WHERE position_id = ? OR lower(bbg_name) = lower(?) ORDER BY bbg_name",
		positionID, nameEn)
	if err != nil {
		return nil, fmt.Errorf("failed to query name mappings of position %d: %w", positionID, err)
	}
	return mappings, nil
}

func GetNameMappingByID(db DBTX, id int64) (*models.NameMapping, error) {
	var m models.NameMapping
	if err := sqlx.Get(db, &m, nameMappingSelect+" WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("failed to get name mapping %d: %w", id, err)
	}
	return &m, nil
}

// LoadNameMap indexes all mappings by lower-cased broker name.
func LoadNameMap(db DBTX) (map[string]models.NameMapping, error) {
	mappings, err := GetNameMappings(db)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]models.NameMapping, len(mappings))
	for _, m := range mappings {
		byName[strings.ToLower(m.BbgName)] = m
	}
	return byName, nil
}

func NameMappingExists(db DBTX, bbgName string, excludeID int64) (bool, error) {
	var n int
	if err := sqlx.Get(db, &n, "SELECT COUNT(*) FROM name_mappings WHERE bbg_name = ? AND id != ?", bbgName, excludeID); err != nil {
		return false, fmt.Errorf("failed to check name mapping: %w", err)
	}
	return n > 0, nil
}

// CreateNameMapping inserts m and sets its ID.
func CreateNameMapping(db DBTX, m *models.NameMapping) error {
	res, err := db.Exec("INSERT INTO name_mappings (bbg_name, chinese_name, position_id) VALUES (?, ?, ?)",
		m.BbgName, m.ChineseName, m.PositionID)
	if err != nil {
		return fmt.Errorf("failed to insert name mapping %q: %w", m.BbgName, err)
	}
	m.ID, err = res.LastInsertId()
	return err
}

func UpdateNameMapping(db DBTX, m *models.NameMapping) (bool, error) {
	res, err := db.Exec(`UPDATE name_mappings
		SET bbg_name = ?, chinese_name = ?, position_id = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = ?`, m.BbgName, m.ChineseName, m.PositionID, m.ID)
	if err != nil {
		return false, fmt.Errorf("failed to update name mapping %d: %w", m.ID, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func DeleteNameMapping(db DBTX, id int64) (bool, error) {
	res, err := db.Exec("DELETE FROM name_mappings WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete name mapping %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
