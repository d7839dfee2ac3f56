package entity

import (
	"time"
)

// Account types carried in account-sync task payloads.
const (
	AccountTypeYoutubeChannel = "youtube_channel"
	AccountTypeTwitterAccount = "twitter_account"
)

// YoutubeChannel links an influencer to a YouTube channel. LastSyncedAt is the
// sync watermark and is only advanced by the sync task after a successful
// batch.
type YoutubeChannel struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	InfluencerID      uint       `gorm:"not null" json:"influencer_id"`
	ChannelID         string     `gorm:"unique;not null" json:"channel_id"`
	UploadsPlaylistID string     `json:"uploads_playlist_id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	ThumbnailURL      string     `json:"thumbnail_url"`
	LastSyncedAt      *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the YoutubeChannel model.
func (YoutubeChannel) TableName() string {
	return "youtube_channels"
}

// TwitterAccount links an influencer to a Twitter account.
type TwitterAccount struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	InfluencerID    uint       `gorm:"not null" json:"influencer_id"`
	Username        string     `gorm:"unique;not null" json:"username"`
	DisplayName     string     `json:"display_name"`
	Bio             string     `json:"bio"`
	ProfileImageURL string     `json:"profile_image_url"`
	LastSyncedAt    *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt       time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the TwitterAccount model.
func (TwitterAccount) TableName() string {
	return "twitter_accounts"
}
