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

type taxonomyServiceImpl struct {
	db      *sqlx.DB
	summary SummaryInvalidator
}

func NewTaxonomyService(db *sqlx.DB, summary SummaryInvalidator) TaxonomyService {
	return &taxonomyServiceImpl{db: db, summary: summary}
}

// ListTaxonomies returns the nodes of one type (or all types) with parent and direct children attached.
func (s *taxonomyServiceImpl) ListTaxonomies(ctx context.Context, taxonomyType string) ([]models.TaxonomyNode, error) {
	if taxonomyType != "" {
		if err := validation.ValidateTaxonomyType(taxonomyType); err != nil {
			return nil, err
		}
	}
	// Parents and children may be of any type, so index everything.
	all, err := model.GetTaxonomies(s.db, "")
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]models.Taxonomy, len(all))
	children := make(map[int64][]models.Taxonomy)
	for _, t := range all {
		byID[t.ID] = t
		if t.ParentID != nil {
			children[*t.ParentID] = append(children[*t.ParentID], t)
		}
	}

	nodes := make([]models.TaxonomyNode, 0, len(all))
	for _, t := range all {
		if taxonomyType != "" && t.Type != taxonomyType {
			continue
		}
		node := models.TaxonomyNode{Taxonomy: t, Children: children[t.ID]}
		if node.Children == nil {
			node.Children = []models.Taxonomy{}
		}
		if t.ParentID != nil {
			if parent, ok := byID[*t.ParentID]; ok {
				node.Parent = &parent
			}
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func (s *taxonomyServiceImpl) CreateTaxonomy(ctx context.Context, input models.TaxonomyInput) (*models.Taxonomy, error) {
	t := models.Taxonomy{
		Type:      input.Type,
		Name:      validation.CleanText(input.Name),
		ParentID:  input.ParentID,
		SortOrder: input.SortOrder,
	}
	if err := validation.ValidateTaxonomyType(t.Type); err != nil {
		return nil, err
	}
	if err := s.validate(&t); err != nil {
		return nil, err
	}
	if err := model.CreateTaxonomy(s.db, &t); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Taxonomy created", "id", t.ID, "type", t.Type, "name", t.Name)
	return model.GetTaxonomyByID(s.db, t.ID)
}

// UpdateTaxonomy applies the keys present in input. The type of a node never changes.
func (s *taxonomyServiceImpl) UpdateTaxonomy(ctx context.Context, id int64, input models.TaxonomyUpdate) (*models.Taxonomy, error) {
	existing, err := model.GetTaxonomyByID(s.db, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: taxonomy %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	t := *existing
	if input.Name != nil {
		t.Name = validation.CleanText(*input.Name)
	}
	if input.ParentID.Set {
		t.ParentID = input.ParentID.Value
	}
	if input.SortOrder != nil {
		t.SortOrder = *input.SortOrder
	}
	if err := s.validate(&t); err != nil {
		return nil, err
	}
	if _, err := model.UpdateTaxonomy(s.db, &t); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("Taxonomy updated", "id", id, "name", t.Name)
	// Renames show up in summary bucket names.
	s.summary.Invalidate()
	return model.GetTaxonomyByID(s.db, id)
}

// DeleteTaxonomy refuses with a ReferencedError while any position still links to the node.
func (s *taxonomyServiceImpl) DeleteTaxonomy(ctx context.Context, id int64) error {
	if _, err := model.GetTaxonomyByID(s.db, id); errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: taxonomy %d", ErrNotFound, id)
	} else if err != nil {
		return err
	}

	refs, err := model.CountTaxonomyReferences(s.db, id)
	if err != nil {
		return err
	}
	if refs.Total() > 0 {
		return &ReferencedError{References: refs}
	}
	if _, err := model.DeleteTaxonomy(s.db, id); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("Taxonomy deleted", "id", id)
	return nil
}

// validate checks the name and parent of t. t.ID is zero for a new node.
func (s *taxonomyServiceImpl) validate(t *models.Taxonomy) error {
	if err := validation.ValidateStringNotEmpty(t.Name, "name"); err != nil {
		return err
	}
	if err := validation.ValidateStringMaxLength(t.Name, validation.DefaultMaxStringLength, "name"); err != nil {
		return err
	}
	if t.ParentID != nil {
		if *t.ParentID == t.ID {
			return fmt.Errorf("%w: a taxonomy cannot be its own parent", validation.ErrValidationFailed)
		}
		if _, err := model.GetTaxonomyByID(s.db, *t.ParentID); errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: parent taxonomy %d does not exist", validation.ErrValidationFailed, *t.ParentID)
		} else if err != nil {
			return err
		}
	}

	exists, err := model.TaxonomyNameExists(s.db, t.Type, t.Name, t.ID)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s %q already exists", ErrConflict, t.Type, t.Name)
	}
	return nil
}
