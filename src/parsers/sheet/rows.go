// Package sheet reads tabular broker exports where the first row holds the column headers.
package sheet

import (
	"strings"

	"github.com/username/portfoliodesk/backend/src/models"
)

const utf8BOM = "\ufeff"

// buildRows pairs every data record with the header row. Blank cells and columns
// without a header are left out, and records with nothing left are dropped.
func buildRows(header []string, records [][]string) []models.ImportRow {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	rows := make([]models.ImportRow, 0, len(records))
	for _, record := range records {
		var row models.ImportRow
		for i, value := range record {
			if i >= len(header) || strings.TrimSpace(header[i]) == "" {
				continue
			}
			if strings.TrimSpace(value) == "" {
				continue
			}
			row = append(row, models.ImportCell{Header: header[i], Value: value})
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows
}
