package entity

import (
	"time"

	"gorm.io/datatypes"
)

// ContentType discriminates the platform variant of a content row.
type ContentType string

const (
	ContentTypeYoutubeVideo ContentType = "youtube_video"
	ContentTypeTweet        ContentType = "tweet"
)

// Extraction status values. Completed, no_transcript, no_content, no_calls and
// low_confidence are terminal; failed is retryable.
const (
	ExtractionStatusPending       = "pending"
	ExtractionStatusNoTranscript  = "no_transcript"
	ExtractionStatusNoContent     = "no_content"
	ExtractionStatusLowConfidence = "low_confidence"
	ExtractionStatusNoCalls       = "no_calls"
	ExtractionStatusCompleted     = "completed"
	ExtractionStatusFailed        = "failed"
)

// Content is a normalized unit of influencer output, unique per
// (external_id, content_type).
type Content struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	InfluencerID     uint           `gorm:"not null" json:"influencer_id"`
	ContentType      ContentType    `gorm:"not null;uniqueIndex:idx_contents_external_id_content_type" json:"content_type"`
	ExternalID       string         `gorm:"not null;uniqueIndex:idx_contents_external_id_content_type" json:"external_id"`
	Title            string         `json:"title"`
	Body             string         `json:"body"`
	Transcript       string         `json:"transcript"`
	PublishedAt      *time.Time     `json:"published_at,omitempty"`
	Metadata         datatypes.JSON `gorm:"type:jsonb" json:"metadata"`
	ExtractionStatus string         `gorm:"not null;default:pending" json:"extraction_status"`
	CallsExtractedAt *time.Time     `json:"calls_extracted_at,omitempty"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for the Content model.
func (Content) TableName() string {
	return "contents"
}

// IsVideo reports whether the content is a YouTube video.
func (c *Content) IsVideo() bool {
	return c.ContentType == ContentTypeYoutubeVideo
}

// CalledAt returns the timestamp calls extracted from this content should
// carry: the publish time when known, the ingest time otherwise.
func (c *Content) CalledAt() time.Time {
	if c.PublishedAt != nil {
		return *c.PublishedAt
	}
	return c.CreatedAt
}
