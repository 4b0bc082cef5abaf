package validation

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/username/portfoliodesk/backend/src/logger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// zipMagic starts every OOXML workbook.
var zipMagic = []byte("PK\x03\x04")

// AllowedClientContentTypes is a map for quick lookup of allowed client-declared MIME types.
var AllowedClientContentTypes = map[string]bool{
	"text/csv":                 true,
	"application/csv":          true,
	"application/vnd.ms-excel": true, // Often used for CSV by older Excel
	"text/plain":               true,
	xlsxContentType:            true,
	"application/zip":          true,
	"application/octet-stream": true, // browsers fall back to this for unknown extensions
}

// ValidateClientContentType checks the Content-Type header provided by the client.
func ValidateClientContentType(contentType string) error {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if !AllowedClientContentTypes[mediaType] {
		logger.L.Warn("Disallowed client-declared Content-Type", "contentType", contentType)
		return fmt.Errorf("%w: client-declared file type '%s' is not allowed", ErrValidationFailed, contentType)
	}
	return nil
}

// isBinaryContent reports null bytes or invalid UTF-8, neither of which a CSV export contains.
func isBinaryContent(buf []byte) bool {
	if bytes.IndexByte(buf, 0) != -1 {
		return true
	}
	// A multi-byte character may be cut at the end of the sniff buffer.
	for i := 0; i < utf8.UTFMax && len(buf) > 0; i++ {
		if utf8.Valid(buf) {
			return false
		}
		buf = buf[:len(buf)-1]
	}
	return !utf8.Valid(buf)
}

// ValidateFileContentByMagicBytes checks that the content matches what the file name claims:
// a zip container for workbooks, plain text for CSV. The reader is rewound afterwards.
func ValidateFileContentByMagicBytes(file io.ReadSeeker, filename string) (string, error) {
	if file == nil {
		return "", fmt.Errorf("%w: file is nil", ErrValidationFailed)
	}

	buffer := make([]byte, 1024)
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("failed to read file for content type checking: %w", err)
	}

	// Reset the read pointer so the parser can read the full file.
	if _, seekErr := file.Seek(0, io.SeekStart); seekErr != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", seekErr)
	}

	if n == 0 {
		return "", fmt.Errorf("%w: file is empty", ErrValidationFailed)
	}
	head := buffer[:n]

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		if !bytes.HasPrefix(head, zipMagic) {
			logger.L.Warn("File rejected: workbook without zip signature", "filename", filename)
			return "", fmt.Errorf("%w: file is not a valid xlsx workbook", ErrValidationFailed)
		}
		return xlsxContentType, nil
	case ".csv":
		if isBinaryContent(head) {
			logger.L.Warn("File rejected: binary content detected in text upload", "filename", filename)
			return "application/octet-stream", fmt.Errorf("%w: file appears to be binary, not CSV", ErrValidationFailed)
		}
		detected := strings.ToLower(strings.Split(http.DetectContentType(head), ";")[0])
		if detected != "text/plain" && detected != "text/csv" {
			logger.L.Warn("Disallowed detected file content type", "detectedContentType", detected)
			return detected, fmt.Errorf("%w: detected file content type '%s' is not allowed", ErrValidationFailed, detected)
		}
		logger.L.Debug("File content type validated", "detectedContentType", detected)
		return detected, nil
	default:
		return "", fmt.Errorf("%w: unsupported file extension %q", ErrValidationFailed, filepath.Ext(filename))
	}
}
