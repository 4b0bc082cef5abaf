package validation

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// Definition of strict sanitization policy
	strictHTMLPolicy *bluemonday.Policy
)

func init() {
	strictHTMLPolicy = bluemonday.StrictPolicy() // Removes all HTML tags
}

// SanitizeText removes all HTML tags and attributes from an input string before it is stored.
// Entities escaped by the policy are decoded again so names like "AT&T" survive intact.
func SanitizeText(s string) string {
	return html.UnescapeString(strictHTMLPolicy.Sanitize(s))
}

// CleanText is SanitizeText plus unprintable-character stripping and trimming,
// applied to every free-text field that comes in through the API.
func CleanText(s string) string {
	return strings.TrimSpace(StripUnprintable(SanitizeText(s)))
}

// SanitizeForFormulaInjection prepends a single quote if the string starts with a formula character.
// Only apply it to text cells; numeric cells are written as numbers.
func SanitizeForFormulaInjection(s string) string {
	trimmed := strings.TrimSpace(s)

	if len(trimmed) == 0 {
		return s
	}

	firstChar := rune(trimmed[0])

	// Characters that trigger formula execution in Excel/LibreOffice/Sheets
	if firstChar == '=' || firstChar == '+' || firstChar == '-' || firstChar == '@' || firstChar == '\t' || firstChar == '\r' {
		return "'" + s
	}

	return s
}

// StripUnprintable removes non-printable characters, allowing common whitespace
// like space, tab, newline, and carriage return.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
}
