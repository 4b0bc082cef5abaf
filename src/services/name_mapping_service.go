package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/username/portfoliodesk/backend/src/logger"
	"github.com/username/portfoliodesk/backend/src/model"
	"github.com/username/portfoliodesk/backend/src/models"
	"github.com/username/portfoliodesk/backend/src/security/validation"
)

type nameMappingServiceImpl struct {
	db *sqlx.DB
}

func NewNameMappingService(db *sqlx.DB) NameMappingService {
	return &nameMappingServiceImpl{db: db}
}

func (s *nameMappingServiceImpl) ListNameMappings(ctx context.Context) ([]models.NameMapping, error) {
	return model.GetNameMappings(s.db)
}

func (s *nameMappingServiceImpl) CreateNameMapping(ctx context.Context, input models.NameMappingInput) (*models.NameMapping, error) {
	m := models.NameMapping{
		BbgName:     validation.CleanText(input.BbgName),
		ChineseName: validation.CleanText(input.ChineseName),
		PositionID:  input.PositionID,
	}
	if err := s.validate(&m); err != nil {
		return nil, err
	}
	if err := model.CreateNameMapping(s.db, &m); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Name mapping created", "id", m.ID, "bbgName", m.BbgName)
	return model.GetNameMappingByID(s.db, m.ID)
}

func (s *nameMappingServiceImpl) UpdateNameMapping(ctx context.Context, id int64, input models.NameMappingUpdate) (*models.NameMapping, error) {
	existing, err := model.GetNameMappingByID(s.db, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: name mapping %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	m := *existing
	if input.BbgName != nil {
		m.BbgName = validation.CleanText(*input.BbgName)
	}
	if input.ChineseName != nil {
		m.ChineseName = validation.CleanText(*input.ChineseName)
	}
	if input.PositionID.Set {
		m.PositionID = input.PositionID.Value
	}
	if err := s.validate(&m); err != nil {
		return nil, err
	}
	if _, err := model.UpdateNameMapping(s.db, &m); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Name mapping updated", "id", id, "bbgName", m.BbgName)
	return model.GetNameMappingByID(s.db, id)
}

func (s *nameMappingServiceImpl) DeleteNameMapping(ctx context.Context, id int64) error {
	deleted, err := model.DeleteNameMapping(s.db, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("%w: name mapping %d", ErrNotFound, id)
	}
	logger.FromContext(ctx).Info("Name mapping deleted", "id", id)
	return nil
}

func (s *nameMappingServiceImpl) validate(m *models.NameMapping) error {
	if err := validation.ValidateIdentifier(m.BbgName, "bbgName", validation.DefaultMaxStringLength); err != nil {
		return err
	}
	if err := validation.ValidateIdentifier(m.ChineseName, "chineseName", validation.DefaultMaxStringLength); err != nil {
		return err
	}
	if m.PositionID != nil {
		if _, err := model.GetPositionByID(s.db, *m.PositionID); errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: position %d does not exist", validation.ErrValidationFailed, *m.PositionID)
		} else if err != nil {
			return err
		}
	}

	exists, err := model.NameMappingExists(s.db, m.BbgName, m.ID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: mapping for %q already exists", ErrConflict, m.BbgName)
	}
	return nil
}
