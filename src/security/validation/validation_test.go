package validation

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	assert.Equal(t, "AT&T Inc", CleanText("  <b>AT&T</b> Inc "))
	assert.Equal(t, "腾讯控股", CleanText("腾讯控股"))
}

func TestSanitizeForFormulaInjection(t *testing.T) {
	assert.Equal(t, "'=SUM(A1:A2)", SanitizeForFormulaInjection("=SUM(A1:A2)"))
	assert.Equal(t, "'@cmd", SanitizeForFormulaInjection("@cmd"))
	assert.Equal(t, "700 HK Equity", SanitizeForFormulaInjection("700 HK Equity"))
	assert.Equal(t, "", SanitizeForFormulaInjection(""))
}

func TestFieldValidators(t *testing.T) {
	assert.NoError(t, ValidateDirection("/"))
	assert.ErrorIs(t, ValidateDirection("flat"), ErrValidationFailed)

	assert.NoError(t, ValidateTaxonomyType("topdown"))
	assert.ErrorIs(t, ValidateTaxonomyType("industry"), ErrValidationFailed)

	assert.NoError(t, ValidateNonNegative(0, "positionAmount"))
	assert.ErrorIs(t, ValidateNonNegative(-1, "positionAmount"), ErrValidationFailed)

	assert.NoError(t, ValidatePositive(1, "aum"))
	assert.ErrorIs(t, ValidatePositive(0, "aum"), ErrValidationFailed)

	assert.ErrorIs(t, ValidateIdentifier(" ", "tickerBbg", MaxTickerLength), ErrValidationFailed)
	assert.ErrorIs(t, ValidateIdentifier("<script>alert(1)</script>", "tickerBbg", MaxTickerLength), ErrValidationFailed)
	assert.ErrorIs(t, ValidateIdentifier(strings.Repeat("x", MaxTickerLength+1), "tickerBbg", MaxTickerLength), ErrValidationFailed)
	assert.NoError(t, ValidateIdentifier("700 HK Equity", "tickerBbg", MaxTickerLength))
}

func TestValidateClientContentType(t *testing.T) {
	assert.NoError(t, ValidateClientContentType("text/csv; charset=utf-8"))
	assert.NoError(t, ValidateClientContentType(xlsxContentType))
	assert.Error(t, ValidateClientContentType("image/png"))
}

func TestValidateFileContentByMagicBytes(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		wantErr  bool
	}{
		{"csv text", "positions.csv", []byte("BB Yellow Key,Latest NMV\n700 HK Equity,100\n"), false},
		{"csv with nulls", "positions.csv", []byte("a,b\x00c"), true},
		{"xlsx signature", "positions.xlsx", append([]byte("PK\x03\x04"), bytes.Repeat([]byte{0x14}, 20)...), false},
		{"xlsx without signature", "positions.xlsx", []byte("BB Yellow Key,Latest NMV"), true},
		{"empty", "positions.csv", []byte{}, true},
		{"other extension", "positions.pdf", []byte("%PDF-1.7"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := bytes.NewReader(tt.content)
			_, err := ValidateFileContentByMagicBytes(r, tt.filename)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidationFailed)
				return
			}
			require.NoError(t, err)

			rest, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, tt.content, rest, "reader must be rewound")
		})
	}
}
