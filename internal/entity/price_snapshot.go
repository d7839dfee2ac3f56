package entity

import (
	"time"
)

// PriceSnapshot is one OHLC point for an asset, unique per
// (asset_id, timestamp). Rows are upserted by the price sync tasks and never
// deleted.
type PriceSnapshot struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AssetID   uint      `gorm:"not null;uniqueIndex:idx_price_snapshots_asset_id_timestamp" json:"asset_id"`
	Timestamp time.Time `gorm:"not null;uniqueIndex:idx_price_snapshots_asset_id_timestamp" json:"timestamp"`
	Open      *float64  `json:"open,omitempty"`
	High      *float64  `json:"high,omitempty"`
	Low       *float64  `json:"low,omitempty"`
	Close     float64   `gorm:"not null" json:"close"`
	Volume    *int64    `json:"volume,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the PriceSnapshot model.
func (PriceSnapshot) TableName() string {
	return "price_snapshots"
}
