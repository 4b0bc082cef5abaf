package model

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
)

const settingAUM = "aum"

// GetSetting returns ok=false when key has never been stored.
func GetSetting(db DBTX, key string) (string, bool, error) {
	var value string
	err := sqlx.Get(db, &value, "SELECT value FROM app_settings WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read setting %q: %w", key, err)
	}
	return value, true, nil
}

func SetSetting(db DBTX, key, value string) error {
	_, err := db.Exec(`INSERT INTO app_settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = strftime('%Y-%m-%dT%H:%M:%SZ', 'now')`,
		key, value)
	if err != nil {
		return fmt.Errorf("failed to store setting %q: %w", key, err)
	}
	return nil
}

// GetAUM returns the stored AUM, or ok=false when it is missing, unparseable or not positive.
func GetAUM(db DBTX) (float64, bool, error) {
	raw, found, err := GetSetting(db, settingAUM)
	if err != nil || !found {
		return 0, false, err
	}
	aum, err := strconv.ParseFloat(raw, 64)
	if err != nil || aum <= 0 {
		return 0, false, nil
	}
	return aum, true, nil
}

func SetAUM(db DBTX, aum float64) error {
	return SetSetting(db, settingAUM, strconv.FormatFloat(aum, 'f', -1, 64))
}
