package entity

import (
	"time"
)

// Call directions.
const (
	DirectionBullish = "bullish"
	DirectionBearish = "bearish"
)

// Call is a persisted directional trading statement extracted from content.
// Rows are immutable once created; only candidates at or above the save
// threshold ever reach storage.
type Call struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ContentID    uint      `gorm:"not null" json:"content_id"`
	InfluencerID uint      `gorm:"not null" json:"influencer_id"`
	AssetID      uint      `gorm:"not null" json:"asset_id"`
	Direction    string    `gorm:"not null" json:"direction"`
	Confidence   float64   `gorm:"not null" json:"confidence"`
	Quote        string    `json:"quote"`
	Reasoning    string    `json:"reasoning"`
	CalledAt     time.Time `gorm:"not null" json:"called_at"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the Call model.
func (Call) TableName() string {
	return "calls"
}
