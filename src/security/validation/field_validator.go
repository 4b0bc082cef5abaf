package validation

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/username/portfoliodesk/backend/src/models"
)

var ErrValidationFailed = errors.New("validation failed")

const (
	DefaultMaxStringLength = 255
	MaxTickerLength        = 64
	MaxNoteLength          = 4096
)

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidateIdentifier is for short required keys: tickers, broker names, taxonomy names.
func ValidateIdentifier(s, fieldName string, maxLength int) error {
	if err := ValidateStringNotEmpty(s, fieldName); err != nil {
		return err
	}
	if err := ValidateStringMaxLength(s, maxLength, fieldName); err != nil {
		return err
	}
	return CheckXSSPatterns(s, fieldName)
}

func ValidateDirection(s string) error {
	if !models.IsValidDirection(s) {
		return fmt.Errorf("%w: longShort must be one of 'long', 'short' or '/', got %q", ErrValidationFailed, s)
	}
	return nil
}

func ValidateTaxonomyType(s string) error {
	if !models.IsValidTaxonomyType(s) {
		return fmt.Errorf("%w: type must be one of 'sector', 'theme' or 'topdown', got %q", ErrValidationFailed, s)
	}
	return nil
}

func ValidateTransactionType(s string) error {
	if s != models.TransactionBuy && s != models.TransactionSell {
		return fmt.Errorf("%w: transactionType must be 'buy' or 'sell', got %q", ErrValidationFailed, s)
	}
	return nil
}

func ValidateTradeStatus(s string) error {
	switch s {
	case models.TradeStatusPending, models.TradeStatusExecuted, models.TradeStatusCancelled:
		return nil
	}
	return fmt.Errorf("%w: status must be 'pending', 'executed' or 'cancelled', got %q", ErrValidationFailed, s)
}

// ValidateNonNegative rejects negative, NaN and infinite values.
func ValidateNonNegative(v float64, fieldName string) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%w: %s must be a non-negative number", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidatePositive rejects zero, negative, NaN and infinite values.
func ValidatePositive(v float64, fieldName string) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fmt.Errorf("%w: %s must be a positive number", ErrValidationFailed, fieldName)
	}
	return nil
}
