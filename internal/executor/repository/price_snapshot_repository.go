package repository

import (
	"context"

	"github.com/squammynoodles/influenza/internal/entity"
	"github.com/squammynoodles/influenza/internal/executor/dto"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PriceSnapshotRepository defines the interface for price snapshot storage.
type PriceSnapshotRepository interface {
	BulkUpsert(ctx context.Context, assetID uint, points []dto.PricePoint) (int, error)
	ExistsForAsset(ctx context.Context, assetID uint) (bool, error)
	FindByAsset(ctx context.Context, assetID uint) ([]entity.PriceSnapshot, error)
}

// NewPriceSnapshotRepository creates a new GORM-based price snapshot
// repository.
func NewPriceSnapshotRepository(db *gorm.DB) PriceSnapshotRepository {
	return &priceSnapshotRepository{db: db}
}

type priceSnapshotRepository struct {
	db *gorm.DB
}

// BulkUpsert writes the points keyed by (asset_id, timestamp): existing rows
// are overwritten in place, new rows inserted, nothing deleted. Points
// without a close are dropped. Returns the number of rows written.
func (r *priceSnapshotRepository) BulkUpsert(ctx context.Context, assetID uint, points []dto.PricePoint) (int, error) {
	snapshots := make([]entity.PriceSnapshot, 0, len(points))
	for _, p := range points {
		if p.Close == nil {
			continue
		}
		snapshots = append(snapshots, entity.PriceSnapshot{
			AssetID:   assetID,
			Timestamp: p.Timestamp.UTC(),
			Open:      p.Open,
			High:      p.High,
			Low:       p.Low,
			Close:     *p.Close,
			Volume:    p.Volume,
		})
	}

	if len(snapshots) == 0 {
		return 0, nil
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "asset_id"}, {Name: "timestamp"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume", "updated_at"}),
	}).Create(&snapshots).Error
	if err != nil {
		return 0, err
	}

	return len(snapshots), nil
}

// ExistsForAsset reports whether any snapshot exists for the asset.
func (r *priceSnapshotRepository) ExistsForAsset(ctx context.Context, assetID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entity.PriceSnapshot{}).
		Where("asset_id = ?", assetID).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByAsset retrieves all snapshots for an asset in chronological order.
func (r *priceSnapshotRepository) FindByAsset(ctx context.Context, assetID uint) ([]entity.PriceSnapshot, error) {
	var snapshots []entity.PriceSnapshot
	err := r.db.WithContext(ctx).
		Where("asset_id = ?", assetID).
		Order("timestamp ASC").
		Find(&snapshots).Error
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}
