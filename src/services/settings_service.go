package services

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/username/portfoliodesk/backend/src/logger"
	"github.com/username/portfoliodesk/backend/src/model"
	"github.com/username/portfoliodesk/backend/src/models"
	"github.com/username/portfoliodesk/backend/src/security/validation"
)

type settingsServiceImpl struct {
	db         *sqlx.DB
	defaultAUM float64
	summary    SummaryInvalidator
}

func NewSettingsService(db *sqlx.DB, defaultAUM float64, summary SummaryInvalidator) SettingsService {
	return &settingsServiceImpl{db: db, defaultAUM: defaultAUM, summary: summary}
}

// currentAUM reads the stored AUM once, falling back to the configured default and then
// to models.DefaultAUM when neither is usable.
func currentAUM(db model.DBTX, defaultAUM float64) (float64, error) {
	aum, ok, err := model.GetAUM(db)
	if err != nil {
		return 0, err
	}
	if ok {
		return aum, nil
	}
	if defaultAUM > 0 {
		return defaultAUM, nil
	}
	return models.DefaultAUM, nil
}

func (s *settingsServiceImpl) GetSettings(ctx context.Context) (models.AppSettings, error) {
	aum, err := currentAUM(s.db, s.defaultAUM)
	if err != nil {
		return models.AppSettings{}, fmt.Errorf("failed to read settings: %w", err)
	}
	return models.AppSettings{Aum: aum}, nil
}

func (s *settingsServiceImpl) UpdateSettings(ctx context.Context, settings models.AppSettings) (models.AppSettings, error) {
	if err := validation.ValidatePositive(settings.Aum, "aum"); err != nil {
		return models.AppSettings{}, err
	}
	if err := model.SetAUM(s.db, settings.Aum); err != nil {
		return models.AppSettings{}, err
	}
	logger.FromContext(ctx).Info("AUM updated", "aum", settings.Aum)
	s.summary.Invalidate()
	return s.GetSettings(ctx)
}
