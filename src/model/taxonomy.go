package model

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/username/portfoliodesk/backend/src/models"
)

const taxonomySelect = `SELECT id, type, name, parent_id, sort_order, created_at, updated_at FROM taxonomies`

// GetTaxonomies returns every taxonomy of the given type, or all of them when taxonomyType is empty.
func GetTaxonomies(db DBTX, taxonomyType string) ([]models.Taxonomy, error) {
	taxonomies := []models.Taxonomy{}
	var err error
	if taxonomyType == "" {
		err = sqlx.Select(db, &taxonomies, taxonomySelect+" ORDER BY type, sort_order, name")
	} else {
		err = sqlx.Select(db, &taxonomies, taxonomySelect+" WHERE type = ? ORDER BY sort_order, name", taxonomyType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query taxonomies: %w", err)
	}
	return taxonomies, nil
}

func GetTaxonomyByID(db DBTX, id int64) (*models.Taxonomy, error) {
	var t models.Taxonomy
	if err := sqlx.Get(db, &t, taxonomySelect+" WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("failed to get taxonomy %d: %w", id, err)
	}
	return &t, nil
}

// TaxonomyNameExists reports whether another node of the same type already uses name.
func TaxonomyNameExists(db DBTX, taxonomyType, name string, excludeID int64) (bool, error) {
	var n int
	err := sqlx.Get(db, &n, "SELECT COUNT(*) FROM taxonomies WHERE type = ? AND name = ? AND id != ?",
		taxonomyType, name, excludeID)
	if err != nil {
		return false, fmt.Errorf("failed to check taxonomy name: %w", err)
	}
	return n > 0, nil
}

// CreateTaxonomy inserts t and sets its ID.
func CreateTaxonomy(db DBTX, t *models.Taxonomy) error {
	res, err := db.Exec("INSERT INTO taxonomies (type, name, parent_id, sort_order) VALUES (?, ?, ?, ?)",
		t.Type, t.Name, t.ParentID, t.SortOrder)
	if err != nil {
		return fmt.Errorf("failed to insert taxonomy %q: %w", t.Name, err)
	}
	t.ID, err = res.LastInsertId()
	return err
}

// UpdateTaxonomy reports whether the row existed.
func UpdateTaxonomy(db DBTX, t *models.Taxonomy) (bool, error) {
	res, err := db.Exec(`UPDATE taxonomies
		SET name = ?, parent_id = ?, sort_order = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')
		WHERE id = ?`, t.Name, t.ParentID, t.SortOrder, t.ID)
	if err != nil {
		return false, fmt.Errorf("failed to update taxonomy %d: %w", t.ID, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// CountTaxonomyReferences counts the positions pointing at id on each axis.
func CountTaxonomyReferences(db DBTX, id int64) (models.TaxonomyReferences, error) {
	var refs models.TaxonomyReferences
	err := sqlx.Get(db, &refs, `SELECT
			COALESCE(SUM(CASE WHEN sector_id = ? THEN 1 ELSE 0 END), 0) AS sector,
			COALESCE(SUM(CASE WHEN theme_id = ? THEN 1 ELSE 0 END), 0) AS theme,
			COALESCE(SUM(CASE WHEN topdown_id = ? THEN 1 ELSE 0 END), 0) AS topdown
		FROM positions`, id, id, id)
	if err != nil {
		return refs, fmt.Errorf("failed to count references of taxonomy %d: %w", id, err)
	}
	return refs, nil
}

// DeleteTaxonomy reports whether a row was removed. Children keep existing with their parent cleared.
func DeleteTaxonomy(db DBTX, id int64) (bool, error) {
	res, err := db.Exec("DELETE FROM taxonomies WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete taxonomy %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
