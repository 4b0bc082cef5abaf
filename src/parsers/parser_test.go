package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/portfoliodesk/backend/src/parsers/sheet"
)

func TestGetParser(t *testing.T) {
	p, err := GetParser("positions_2025-06-30.XLSX")
	require.NoError(t, err)
	assert.IsType(t, &sheet.XLSXParser{}, p)

	p, err = GetParser("export.csv")
	require.NoError(t, err)
	assert.IsType(t, &sheet.CSVParser{}, p)

	_, err = GetParser("export.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
