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

	"github.com/squammynoodles/influenza/internal/executor/config"
	"github.com/squammynoodles/influenza/internal/executor/dto"
	"github.com/squammynoodles/influenza/pkg/logger"

	"golang.org/x/time/rate"
)

// twitterTimeLayout is the ruby-style timestamp twitterapi.io emits.
const twitterTimeLayout = "Mon Jan 02 15:04:05 -0700 2006"

type twitterRepository struct {
	cfg            *config.Config
	logger         *logger.Logger
	client         *http.Client
	requestLimiter *rate.Limiter
}

// NewTwitterRepository creates a new tweet repository backed by twitterapi.io.
func NewTwitterRepository(cfg *config.Config, log *logger.Logger) TweetRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.Twitter.MaxRequestPerMinute)
	return &twitterRepository{
		cfg:    cfg,
		logger: log,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
	}
}

// RecentTweets enumerates original tweets newer than since, newest first.
// Retweets are dropped. Pagination stops at the first tweet older than the
// cutoff since pages are ordered by creation time descending.
func (r *twitterRepository) RecentTweets(ctx context.Context, username string, since time.Time) ([]dto.TweetItem, error) {
	var items []dto.TweetItem
	cursor := ""

	for {
		if err := r.requestLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		page, err := r.fetchPage(ctx, username, cursor)
		if err != nil {
			return nil, err
		}
		if page == nil {
			// Unknown account, nothing to sync.
			return nil, nil
		}

		reachedCutoff := false
		for i := range page.Tweets {
			item := normalizeTweet(&page.Tweets[i])
			if item.PublishedAt != nil && !item.PublishedAt.After(since) {
				reachedCutoff = true
				break
			}
			if isRetweet(&page.Tweets[i]) {
				continue
			}
			items = append(items, item)
		}

		if reachedCutoff || !page.HasNextPage || page.NextCursor == "" {
			return items, nil
		}
		cursor = page.NextCursor
	}
}

func (r *twitterRepository) fetchPage(ctx context.Context, username, cursor string) (*dto.TweetsResponse, error) {
	params := url.Values{}
	params.Set("userName", username)
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	reqURL := fmt.Sprintf("%s/twitter/user/last_tweets?%s", r.cfg.Twitter.BaseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create tweets request: %w", err)
	}
	req.Header.Set("X-API-Key", r.cfg.Twitter.APIKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tweets for %s: %w", username, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: twitter api returned 429 for %s", ErrRateLimited, username)
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("%w: twitter api returned %d", ErrAuthentication, resp.StatusCode)
	case http.StatusNotFound:
		r.logger.Warn("Twitter account not found",
			logger.StringField("username", username))
		return nil, nil
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("twitter api returned status %d: %s", resp.StatusCode, string(body))
	}

	var page dto.TweetsResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode tweets response: %w", err)
	}
	return &page, nil
}

func normalizeTweet(t *dto.TweetData) dto.TweetItem {
	return dto.TweetItem{
		TweetID:      t.ID,
		Text:         t.Text,
		PublishedAt:  parseTweetTime(t.CreatedAt),
		RetweetCount: t.RetweetCount,
		LikeCount:    t.LikeCount,
		ReplyCount:   t.ReplyCount,
		IsRetweet:    isRetweet(t),
		IsReply:      t.InReplyToID != "",
	}
}

// isRetweet catches both the provider flag and the legacy "RT @" text prefix,
// which the flag misses on older tweets.
func isRetweet(t *dto.TweetData) bool {
	return t.IsRetweet || strings.HasPrefix(t.Text, "RT @")
}

func parseTweetTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range []string{twitterTimeLayout, time.RFC3339} {
		if ts, err := time.Parse(layout, raw); err == nil {
			utc := ts.UTC()
			return &utc
		}
	}
	return nil
}
