package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/estate-crm-api/internal/models"
)

// ErrDuplicateSequence indicates an append collided with an existing sequence ID.
var ErrDuplicateSequence = errors.New("duplicate sequence id")

// ChangeRecordFilter narrows audit log queries.
type ChangeRecordFilter struct {
	Page       int
	PageSize   int
	TenantID   *int64
	EntityKind models.EntityKind
	EntityID   *int64
	ActorID    *int64
	Action     models.ActionKind
}

// ChangeRecordRepository persists the append-only audit log. There is no
// update or delete operation.
type ChangeRecordRepository interface {
	Append(ctx context.Context, record *models.ChangeRecord) error
	List(ctx context.Context, filter ChangeRecordFilter) ([]models.ChangeRecord, int64, error)
	GetBySequenceID(ctx context.Context, sequenceID int64) (models.ChangeRecord, error)
}

type changeRecordRepository struct {
	db *gorm.DB
}

// NewChangeRecordRepository constructs the audit log repository.
func NewChangeRecordRepository(db *gorm.DB) ChangeRecordRepository {
	return &changeRecordRepository{db: db}
}

func (r *changeRecordRepository) Append(ctx context.Context, record *models.ChangeRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: %d", ErrDuplicateSequence, record.SequenceID)
		}
		return err
	}
	return nil
}

func (r *changeRecordRepository) List(ctx context.Context, filter ChangeRecordFilter) ([]models.ChangeRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ChangeRecord{})

	if filter.TenantID != nil {
		query = query.Where("tenant_id = ?", *filter.TenantID)
	}

	if filter.EntityKind != "" {
		query = query.Where("entity_kind = ?", filter.EntityKind)
	}

	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}

	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}

	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		offset := (page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var records []models.ChangeRecord
	if err := query.Order("sequence_id DESC").Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *changeRecordRepository) GetBySequenceID(ctx context.Context, sequenceID int64) (models.ChangeRecord, error) {
	var record models.ChangeRecord
	if err := r.db.WithContext(ctx).Where("sequence_id = ?", sequenceID).First(&record).Error; err != nil {
		return models.ChangeRecord{}, err
	}
	return record, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint") || strings.Contains(message, "duplicate key")
}
