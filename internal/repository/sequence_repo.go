package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/estate-crm-api/internal/models"
)

// SequenceRepository hands out identifiers from per-kind counters stored in
// the database.
type SequenceRepository interface {
	Next(ctx context.Context, kind models.SequenceKind) (int64, error)
}

type sequenceRepository struct {
	db *gorm.DB
}

// NewSequenceRepository constructs the counter backed sequence repository.
func NewSequenceRepository(db *gorm.DB) SequenceRepository {
	return &sequenceRepository{db: db}
}

// Next increments the counter row in place, so concurrent callers are
// serialized by the row lock instead of racing on a read of the current
// maximum. A missing counter is seeded from the highest existing ID, or from
// the kind's base when the table is empty.
func (r *sequenceRepository) Next(ctx context.Context, kind models.SequenceKind) (int64, error) {
	base, ok := kind.Base()
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}

	var counter models.SequenceCounter
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bumped, err := incrementCounter(tx, kind)
		if err != nil {
			return err
		}

		if !bumped {
			current, found, err := maxID(tx, kind)
			if err != nil {
				return err
			}

			floor := base - 1
			if found && current > floor {
				floor = current
			}

			seed := models.SequenceCounter{Kind: kind, Value: floor}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
				return err
			}

			if bumped, err = incrementCounter(tx, kind); err != nil {
				return err
			}
			if !bumped {
				return fmt.Errorf("sequence counter %s missing after seeding", kind)
			}
		}

		return tx.Where("kind = ?", kind).First(&counter).Error
	})
	if err != nil {
		return 0, err
	}

	return counter.Value, nil
}

func incrementCounter(tx *gorm.DB, kind models.SequenceKind) (bool, error) {
	result := tx.Model(&models.SequenceCounter{}).
		Where("kind = ?", kind).
		Update("value", gorm.Expr("value + ?", 1))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
