package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/squammynoodles/influenza/internal/entity"
	"github.com/squammynoodles/influenza/internal/executor/config"
	"github.com/squammynoodles/influenza/internal/executor/dto"
	"github.com/squammynoodles/influenza/pkg/logger"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"
)

const youtubePageSize = 50

// youtubeRepository lists a channel's recent uploads via the Data API, or the
// channel's uploads RSS feed when no API key is configured.
type youtubeRepository struct {
	cfg            *config.Config
	logger         *logger.Logger
	client         *http.Client
	feedParser     *gofeed.Parser
	requestLimiter *rate.Limiter
}

// NewYoutubeRepository creates a new YouTube video repository.
func NewYoutubeRepository(cfg *config.Config, log *logger.Logger) VideoRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.YouTube.MaxRequestPerMinute)
	return &youtubeRepository{
		cfg:    cfg,
		logger: log,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		feedParser:     gofeed.NewParser(),
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
	}
}

// RecentVideos enumerates uploads newer than publishedAfter, newest first.
// Enumeration of a page stops at the first item older than the cutoff since
// the playlist is ordered by publish time descending.
func (r *youtubeRepository) RecentVideos(ctx context.Context, channel *entity.YoutubeChannel, publishedAfter time.Time) ([]dto.VideoItem, error) {
	if r.cfg.YouTube.APIKey == "" {
		return r.recentVideosFromFeed(ctx, channel, publishedAfter)
	}
	return r.recentVideosFromAPI(ctx, channel, publishedAfter)
}

func (r *youtubeRepository) recentVideosFromAPI(ctx context.Context, channel *entity.YoutubeChannel, publishedAfter time.Time) ([]dto.VideoItem, error) {
	if channel.UploadsPlaylistID == "" {
		r.logger.Warn("Channel has no uploads playlist, skipping",
			logger.StringField("channel_id", channel.ChannelID))
		return nil, nil
	}

	var items []dto.VideoItem
	pageToken := ""

	for {
		if err := r.requestLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		query := url.Values{}
		query.Set("part", "snippet,contentDetails")
		query.Set("playlistId", channel.UploadsPlaylistID)
		query.Set("maxResults", fmt.Sprintf("%d", youtubePageSize))
		query.Set("key", r.cfg.YouTube.APIKey)
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}

		apiURL := fmt.Sprintf("%s/playlistItems?%s", r.cfg.YouTube.BaseURL, query.Encode())
		req, err := http.NewRequestWithContext(ctx, "GET", apiURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create playlist items request: %w", err)
		}

		resp, err := r.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to list playlist items: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			return nil, fmt.Errorf("youtube: %w", ErrRateLimited)
		}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			resp.Body.Close()
			return nil, fmt.Errorf("youtube: %w", ErrAuthentication)
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("youtube API error %d: %s", resp.StatusCode, string(body))
		}

		var page dto.PlaylistItemsResponse
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode playlist items response: %w", err)
		}

		reachedCutoff := false
		for _, item := range page.Items {
			publishedAt, err := time.Parse(time.RFC3339, item.ContentDetails.VideoPublishedAt)
			if err != nil {
				continue
			}
			if publishedAt.Before(publishedAfter) {
				reachedCutoff = true
				break
			}
			items = append(items, dto.VideoItem{
				VideoID:      item.ContentDetails.VideoID,
				Title:        item.Snippet.Title,
				Description:  item.Snippet.Description,
				PublishedAt:  publishedAt,
				ThumbnailURL: item.Snippet.Thumbnails.Medium.URL,
			})
		}

		if reachedCutoff || page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	return items, nil
}

// recentVideosFromFeed uses the public uploads feed. The feed only carries
// the latest ~15 uploads, which is enough for frequent sync intervals.
func (r *youtubeRepository) recentVideosFromFeed(ctx context.Context, channel *entity.YoutubeChannel, publishedAfter time.Time) ([]dto.VideoItem, error) {
	feedURL := fmt.Sprintf("%s?channel_id=%s", r.cfg.YouTube.FeedBaseURL, url.QueryEscape(channel.ChannelID))

	feed, err := r.feedParser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse uploads feed: %w", err)
	}

	var items []dto.VideoItem
	for _, item := range feed.Items {
		if item.PublishedParsed == nil || item.PublishedParsed.Before(publishedAfter) {
			continue
		}
		// Feed entry GUIDs look like "yt:video:VIDEOID".
		videoID := strings.TrimPrefix(item.GUID, "yt:video:")
		if videoID == "" {
			continue
		}
		items = append(items, dto.VideoItem{
			VideoID:     videoID,
			Title:       item.Title,
			Description: item.Description,
			PublishedAt: item.PublishedParsed.UTC(),
		})
	}

	return items, nil
}
