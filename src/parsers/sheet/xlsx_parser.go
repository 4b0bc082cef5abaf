package sheet

import (
	"fmt"
	"io"

	"github.com/username/portfoliodesk/backend/src/models"
	"github.com/xuri/excelize/v2"
)

type XLSXParser struct{}

func NewXLSXParser() *XLSXParser {
	return &XLSXParser{}
}

// Parse reads the first worksheet. Cell values are taken raw, so number formats such as
// accounting brackets or thousands separators do not leak into the text.
func (p *XLSXParser) Parse(r io.Reader) ([]models.ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("xlsx parser: failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return []models.ImportRow{}, nil
	}

	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("xlsx parser: failed to read sheet %q: %w", sheets[0], err)
	}
	if len(records) == 0 {
		return []models.ImportRow{}, nil
	}
	return buildRows(records[0], records[1:]), nil
}
