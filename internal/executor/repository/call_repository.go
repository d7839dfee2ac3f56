package repository

import (
	"context"
	"time"

	"github.com/squammynoodles/influenza/internal/entity"

	"gorm.io/gorm"
)

// CallRepository defines the interface for call data operations.
type CallRepository interface {
	SaveWithContentStatus(ctx context.Context, contentID uint, calls []entity.Call, status string) error
	FindByContentID(ctx context.Context, contentID uint) ([]entity.Call, error)
}

// NewCallRepository creates a new GORM-based call repository.
func NewCallRepository(db *gorm.DB) CallRepository {
	return &callRepository{db: db}
}

type callRepository struct {
	db *gorm.DB
}

// SaveWithContentStatus persists the calls and the content's new extraction
// status in one transaction. Either both land or neither does; a vanished
// content row rolls the calls back.
func (r *callRepository) SaveWithContentStatus(ctx context.Context, contentID uint, calls []entity.Call, status string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(calls) > 0 {
			if err := tx.Create(&calls).Error; err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		result := tx.Model(&entity.Content{}).
			Where("id = ?", contentID).
			Updates(map[string]interface{}{
				"extraction_status":  status,
				"calls_extracted_at": now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// FindByContentID retrieves all calls extracted from one content row.
func (r *callRepository) FindByContentID(ctx context.Context, contentID uint) ([]entity.Call, error) {
	var calls []entity.Call
	if err := r.db.WithContext(ctx).Where("content_id = ?", contentID).Find(&calls).Error; err != nil {
		return nil, err
	}
	return calls, nil
}
