package repository

import (
	"context"
	"errors"
	"time"

	"github.com/squammynoodles/influenza/internal/entity"
	"github.com/squammynoodles/influenza/internal/executor/dto"
)

// Sentinel errors for provider failures. Rate-limit and authentication are
// kept distinguishable because they get different treatment: rate limits are
// retried by the stream retry layer with its own backoff, auth failures are
// operator problems and retrying them is pointless.
var (
	ErrRateLimited           = errors.New("provider rate limit exceeded")
	ErrAuthentication        = errors.New("provider authentication failed")
	ErrTranscriptUnavailable = errors.New("transcript unavailable")
)

// CallExtractionRepository runs the completion model over a piece of content.
type CallExtractionRepository interface {
	ExtractCalls(ctx context.Context, content *entity.Content, assets []entity.Asset) (*dto.ExtractionResult, error)
}

// VideoRepository enumerates a channel's recent uploads, newest first.
type VideoRepository interface {
	RecentVideos(ctx context.Context, channel *entity.YoutubeChannel, publishedAfter time.Time) ([]dto.VideoItem, error)
}

// TranscriptRepository fetches a plain-text transcript for a video. Absence
// and transient fetch failure are both reported as ErrTranscriptUnavailable.
type TranscriptRepository interface {
	Fetch(ctx context.Context, videoID string) (string, error)
}

// TweetRepository enumerates an account's recent tweets, newest first.
type TweetRepository interface {
	RecentTweets(ctx context.Context, username string, since time.Time) ([]dto.TweetItem, error)
}

// PriceRepository fetches historical OHLC points for an asset. Provider-level
// refusals (rate limits, bad status) are soft failures: logged, empty result,
// nil error. Only transport errors propagate.
type PriceRepository interface {
	Historical(ctx context.Context, asset *entity.Asset, days int) ([]dto.PricePoint, error)
}
