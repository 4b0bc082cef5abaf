package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/username/portfoliodesk/backend/src/models"
)

type CSVParser struct{}

func NewCSVParser() *CSVParser {
	return &CSVParser{}
}

// Parse reads a comma separated export. Ragged rows are accepted.
func (p *CSVParser) Parse(r io.Reader) ([]models.ImportRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []models.ImportRow{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv parser: failed to read header: %w", err)
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv parser: failed to read records: %w", err)
	}
	return buildRows(header, records), nil
}
