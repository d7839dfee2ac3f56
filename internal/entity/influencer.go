package entity

import (
	"time"
)

// Influencer is the identity content and calls are attributed to.
type Influencer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Bio       string    `json:"bio"`
	AvatarURL string    `json:"avatar_url"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	YoutubeChannels []YoutubeChannel `gorm:"foreignKey:InfluencerID" json:"youtube_channels,omitempty"`
	TwitterAccounts []TwitterAccount `gorm:"foreignKey:InfluencerID" json:"twitter_accounts,omitempty"`
}

// TableName specifies the table name for the Influencer model.
func (Influencer) TableName() string {
	return "influencers"
}
