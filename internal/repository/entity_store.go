package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/estate-crm-api/internal/models"
)

var (
	// ErrEntityNotFound indicates no live entity matched the lookup.
	ErrEntityNotFound = errors.New("entity not found")
	// ErrUnsupportedKind indicates an entity or sequence kind the store does not handle.
	ErrUnsupportedKind = errors.New("unsupported kind")
)

// EntityStore is the persistence contract the audit core consumes. Entities
// cross this boundary as detached models; callers never hold a live handle.
type EntityStore interface {
	FindMaxID(ctx context.Context, kind models.SequenceKind) (int64, bool, error)
	FindByID(ctx context.Context, kind models.EntityKind, id int64) (models.Entity, error)
	FindByField(ctx context.Context, kind models.EntityKind, field string, value any) (models.Entity, error)
	Save(ctx context.Context, entity models.Entity) (models.Entity, error)
	Delete(ctx context.Context, entity models.Entity, hard bool) error
}

type entityStore struct {
	db *gorm.DB
}

// NewEntityStore constructs the gorm backed entity store.
func NewEntityStore(db *gorm.DB) EntityStore {
	return &entityStore{db: db}
}

func (s *entityStore) FindMaxID(ctx context.Context, kind models.SequenceKind) (int64, bool, error) {
	return maxID(s.db.WithContext(ctx), kind)
}

func (s *entityStore) FindByID(ctx context.Context, kind models.EntityKind, id int64) (models.Entity, error) {
	entity, ok := models.NewEntity(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}

	if err := s.db.WithContext(ctx).Where("id = ?", id).First(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntityNotFound
		}
		return nil, err
	}

	return entity, nil
}

func (s *entityStore) FindByField(ctx context.Context, kind models.EntityKind, field string, value any) (models.Entity, error) {
	entity, ok := models.NewEntity(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}

	schema, _ := models.SchemaFor(kind)
	if spec, ok := schema.Field(field); !ok || spec.Type == models.ValueObject || spec.Type == models.ValueStringList {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownField, field)
	}

	query := s.db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: field}, Value: value}).
		Order("id ASC")
	if err := query.First(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEntityNotFound
		}
		return nil, err
	}

	return entity, nil
}

func (s *entityStore) Save(ctx context.Context, entity models.Entity) (models.Entity, error) {
	if entity == nil || !entity.Kind().Valid() {
		return nil, ErrUnsupportedKind
	}

	if err := s.db.WithContext(ctx).Save(entity).Error; err != nil {
		return nil, err
	}

	return entity, nil
}

func (s *entityStore) Delete(ctx context.Context, entity models.Entity, hard bool) error {
	query := s.db.WithContext(ctx)
	if hard {
		query = query.Unscoped()
	}

	result := query.Delete(entity)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrEntityNotFound
	}

	return nil
}

// maxID reads the largest identifier ever issued for a kind, including
// soft-deleted rows.
func maxID(db *gorm.DB, kind models.SequenceKind) (int64, bool, error) {
	var (
		model  interface{}
		column string
	)

	switch kind {
	case models.SequenceUsers:
		model, column = &models.User{}, "id"
	case models.SequenceCompanies:
		model, column = &models.Company{}, "id"
	case models.SequenceLeads:
		model, column = &models.Lead{}, "id"
	case models.SequenceProperties:
		model, column = &models.Property{}, "id"
	case models.SequenceRecords:
		model, column = &models.ChangeRecord{}, "sequence_id"
	default:
		return 0, false, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}

	var max sql.NullInt64
	if err := db.Unscoped().Model(model).Select("MAX(" + column + ")").Scan(&max).Error; err != nil {
		return 0, false, err
	}

	return max.Int64, max.Valid, nil
}
