package entity

import (
	"time"

	"github.com/lib/pq"
)

// Asset classes. The class selects the price provider.
const (
	AssetClassCrypto = "crypto"
	AssetClassMacro  = "macro"
)

// Asset is a tradable symbol calls can reference. Static reference data.
type Asset struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Symbol      string         `gorm:"unique;not null" json:"symbol"`
	Name        string         `gorm:"not null" json:"name"`
	AssetClass  string         `gorm:"not null" json:"asset_class"`
	CoingeckoID string         `json:"coingecko_id"`
	YahooTicker string         `json:"yahoo_ticker"`
	Aliases     pq.StringArray `gorm:"type:text[]" json:"aliases"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the Asset model.
func (Asset) TableName() string {
	return "assets"
}
