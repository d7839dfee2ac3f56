package repository

import (
	"context"
	"time"

	"github.com/squammynoodles/influenza/internal/entity"

	"gorm.io/gorm"
)

// TwitterAccountRepository defines the interface for account data operations.
type TwitterAccountRepository interface {
	FindByID(ctx context.Context, id uint) (*entity.TwitterAccount, error)
	FindAll(ctx context.Context) ([]entity.TwitterAccount, error)
	UpdateLastSyncedAt(ctx context.Context, id uint, syncedAt time.Time) error
}

// NewTwitterAccountRepository creates a new GORM-based account repository.
func NewTwitterAccountRepository(db *gorm.DB) TwitterAccountRepository {
	return &twitterAccountRepository{db: db}
}

type twitterAccountRepository struct {
	db *gorm.DB
}

// FindByID retrieves an account by its ID.
func (r *twitterAccountRepository) FindByID(ctx context.Context, id uint) (*entity.TwitterAccount, error) {
	var account entity.TwitterAccount
	if err := r.db.WithContext(ctx).First(&account, id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// FindAll retrieves all tracked accounts.
func (r *twitterAccountRepository) FindAll(ctx context.Context) ([]entity.TwitterAccount, error) {
	var accounts []entity.TwitterAccount
	if err := r.db.WithContext(ctx).Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// UpdateLastSyncedAt advances the account's sync watermark. Called only after
// a successful batch.
func (r *twitterAccountRepository) UpdateLastSyncedAt(ctx context.Context, id uint, syncedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.TwitterAccount{}).
		Where("id = ?", id).
		Update("last_synced_at", syncedAt).Error
}
