package repository

import (
	"context"

	"github.com/squammynoodles/influenza/internal/entity"

	"gorm.io/gorm"
)

// InfluencerRepository defines the interface for influencer data operations.
type InfluencerRepository interface {
	FindByID(ctx context.Context, id uint) (*entity.Influencer, error)
}

// NewInfluencerRepository creates a new GORM-based influencer repository.
func NewInfluencerRepository(db *gorm.DB) InfluencerRepository {
	return &influencerRepository{db: db}
}

type influencerRepository struct {
	db *gorm.DB
}

// FindByID retrieves an influencer by its ID.
func (r *influencerRepository) FindByID(ctx context.Context, id uint) (*entity.Influencer, error) {
	var influencer entity.Influencer
	if err := r.db.WithContext(ctx).First(&influencer, id).Error; err != nil {
		return nil, err
	}
	return &influencer, nil
}
