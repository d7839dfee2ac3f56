package repository

import (
	"context"
	"time"

	"github.com/squammynoodles/influenza/internal/entity"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

const assetCacheKey = "assets.all"

// AssetRepository defines the interface for asset reference data. Assets are
// static, so GetAll is served from an in-memory cache.
type AssetRepository interface {
	GetAll(ctx context.Context) ([]entity.Asset, error)
	FindByID(ctx context.Context, id uint) (*entity.Asset, error)
	FindWithCalls(ctx context.Context) ([]entity.Asset, error)
}

// NewAssetRepository creates a new GORM-based asset repository.
func NewAssetRepository(db *gorm.DB) AssetRepository {
	return &assetRepository{
		db:    db,
		cache: cache.New(5*time.Minute, 10*time.Minute),
	}
}

type assetRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

// GetAll retrieves the supported asset universe.
func (r *assetRepository) GetAll(ctx context.Context) ([]entity.Asset, error) {
	if cached, found := r.cache.Get(assetCacheKey); found {
		return cached.([]entity.Asset), nil
	}

	var assets []entity.Asset
	if err := r.db.WithContext(ctx).Find(&assets).Error; err != nil {
		return nil, err
	}

	r.cache.Set(assetCacheKey, assets, cache.DefaultExpiration)
	return assets, nil
}

// FindByID retrieves an asset by its ID.
func (r *assetRepository) FindByID(ctx context.Context, id uint) (*entity.Asset, error) {
	var asset entity.Asset
	if err := r.db.WithContext(ctx).First(&asset, id).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

// FindWithCalls retrieves assets referenced by at least one call. These are
// the only assets worth fetching price history for.
func (r *assetRepository) FindWithCalls(ctx context.Context) ([]entity.Asset, error) {
	var assets []entity.Asset
	err := r.db.WithContext(ctx).
		Joins("JOIN calls ON calls.asset_id = assets.id").
		Distinct("assets.*").
		Find(&assets).Error
	if err != nil {
		return nil, err
	}
	return assets, nil
}
