package repository

import (
	"context"
	"time"

	"github.com/squammynoodles/influenza/internal/entity"

	"gorm.io/gorm"
)

// YoutubeChannelRepository defines the interface for channel data operations.
type YoutubeChannelRepository interface {
	FindByID(ctx context.Context, id uint) (*entity.YoutubeChannel, error)
	FindAll(ctx context.Context) ([]entity.YoutubeChannel, error)
	UpdateLastSyncedAt(ctx context.Context, id uint, syncedAt time.Time) error
}

// NewYoutubeChannelRepository creates a new GORM-based channel repository.
func NewYoutubeChannelRepository(db *gorm.DB) YoutubeChannelRepository {
	return &youtubeChannelRepository{db: db}
}

type youtubeChannelRepository struct {
	db *gorm.DB
}

// FindByID retrieves a channel by its ID.
func (r *youtubeChannelRepository) FindByID(ctx context.Context, id uint) (*entity.YoutubeChannel, error) {
	var channel entity.YoutubeChannel
	if err := r.db.WithContext(ctx).First(&channel, id).Error; err != nil {
		return nil, err
	}
	return &channel, nil
}

// FindAll retrieves all tracked channels.
func (r *youtubeChannelRepository) FindAll(ctx context.Context) ([]entity.YoutubeChannel, error) {
	var channels []entity.YoutubeChannel
	if err := r.db.WithContext(ctx).Find(&channels).Error; err != nil {
		return nil, err
	}
	return channels, nil
}

// UpdateLastSyncedAt advances the channel's sync watermark. Called only after
// a successful batch.
func (r *youtubeChannelRepository) UpdateLastSyncedAt(ctx context.Context, id uint, syncedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&entity.YoutubeChannel{}).
		Where("id = ?", id).
		Update("last_synced_at", syncedAt).Error
}
