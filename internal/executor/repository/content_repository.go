package repository

import (
	"context"

	"github.com/squammynoodles/influenza/internal/entity"

	"gorm.io/gorm"
)

// ContentRepository defines the interface for content data operations.
type ContentRepository interface {
	FindByID(ctx context.Context, id uint) (*entity.Content, error)
	FindByExternalID(ctx context.Context, contentType entity.ContentType, externalID string) (*entity.Content, error)
	Create(ctx context.Context, content *entity.Content) error
	Update(ctx context.Context, content *entity.Content) error
	UpdateExtractionStatus(ctx context.Context, id uint, status string) error
	FindPending(ctx context.Context) ([]entity.Content, error)
}

// NewContentRepository creates a new GORM-based content repository.
func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db}
}

type contentRepository struct {
	db *gorm.DB
}

// FindByID retrieves a content row by its ID.
func (r *contentRepository) FindByID(ctx context.Context, id uint) (*entity.Content, error) {
	var content entity.Content
	if err := r.db.WithContext(ctx).First(&content, id).Error; err != nil {
		return nil, err
	}
	return &content, nil
}

// FindByExternalID retrieves a content row by its platform identity. Returns
// (nil, nil) when no row exists so callers can implement find-or-create.
func (r *contentRepository) FindByExternalID(ctx context.Context, contentType entity.ContentType, externalID string) (*entity.Content, error) {
	var content entity.Content
	err := r.db.WithContext(ctx).
		Where("content_type = ? AND external_id = ?", contentType, externalID).
		First(&content).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &content, nil
}

// Create inserts a new content row.
func (r *contentRepository) Create(ctx context.Context, content *entity.Content) error {
	return r.db.WithContext(ctx).Create(content).Error
}

// Update saves all fields of an existing content row.
func (r *contentRepository) Update(ctx context.Context, content *entity.Content) error {
	return r.db.WithContext(ctx).Save(content).Error
}

// UpdateExtractionStatus sets only the extraction status.
func (r *contentRepository) UpdateExtractionStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).
		Model(&entity.Content{}).
		Where("id = ?", id).
		Update("extraction_status", status).Error
}

// FindPending retrieves content awaiting extraction.
func (r *contentRepository) FindPending(ctx context.Context) ([]entity.Content, error) {
	var contents []entity.Content
	err := r.db.WithContext(ctx).
		Where("extraction_status = ?", entity.ExtractionStatusPending).
		Find(&contents).Error
	if err != nil {
		return nil, err
	}
	return contents, nil
}
