package parsers

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/username/portfoliodesk/backend/src/models"
	"github.com/username/portfoliodesk/backend/src/parsers/sheet"
)

// ErrUnsupportedFormat is returned by GetParser for file types no parser handles.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Parser reads a broker export into header/value rows.
type Parser interface {
	Parse(r io.Reader) ([]models.ImportRow, error)
}

// GetParser picks a parser by file extension.
func GetParser(filename string) (Parser, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return sheet.NewXLSXParser(), nil
	case ".csv":
		return sheet.NewCSVParser(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}
