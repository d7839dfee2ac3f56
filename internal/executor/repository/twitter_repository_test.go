package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/squammynoodles/influenza/internal/executor/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twitterTestConfig(baseURL string) *config.Config {
	cfg := &config.Config{}
	cfg.Twitter.BaseURL = baseURL
	cfg.Twitter.APIKey = "test-key"
	cfg.Twitter.MaxRequestPerMinute = 600
	return cfg
}

func TestRecentTweets_FiltersRetweets(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))
		assert.Equal(t, "someuser", r.URL.Query().Get("userName"))
		fmt.Fprint(w, `{"tweets":[
			{"id":"3","text":"BTC to 100k","createdAt":"Mon Jan 05 10:00:00 +0000 2026"},
			{"id":"2","text":"RT @other: something","createdAt":"Mon Jan 05 09:00:00 +0000 2026"},
			{"id":"1","text":"flagged retweet","createdAt":"Mon Jan 05 08:00:00 +0000 2026","isRetweet":true}
		],"has_next_page":false}`)
	}))
	defer server.Close()

	repo := NewTwitterRepository(twitterTestConfig(server.URL), testLogger(t))

	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	items, err := repo.RecentTweets(context.Background(), "someuser", since)

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "3", items[0].TweetID)
	assert.Equal(t, "BTC to 100k", items[0].Text)
	require.NotNil(t, items[0].PublishedAt)
	assert.Equal(t, time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC), *items[0].PublishedAt)
}

func TestRecentTweets_StopsAtCutoff(t *testing.T) {
	var secondPageRequested bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cursor") != "" {
			secondPageRequested = true
		}
		fmt.Fprint(w, `{"tweets":[
			{"id":"2","text":"fresh","createdAt":"Mon Jan 05 10:00:00 +0000 2026"},
			{"id":"1","text":"stale","createdAt":"Mon Jan 01 10:00:00 +0000 2026"}
		],"has_next_page":true,"next_cursor":"page2"}`)
	}))
	defer server.Close()

	repo := NewTwitterRepository(twitterTestConfig(server.URL), testLogger(t))

	since := time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)
	items, err := repo.RecentTweets(context.Background(), "someuser", since)

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "2", items[0].TweetID)
	assert.False(t, secondPageRequested, "pagination should stop once the cutoff is reached")
}

func TestRecentTweets_FollowsCursor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cursor") == "page2" {
			fmt.Fprint(w, `{"tweets":[{"id":"1","text":"older","createdAt":"Mon Jan 04 10:00:00 +0000 2026"}],"has_next_page":false}`)
			return
		}
		fmt.Fprint(w, `{"tweets":[{"id":"2","text":"newer","createdAt":"Mon Jan 05 10:00:00 +0000 2026"}],"has_next_page":true,"next_cursor":"page2"}`)
	}))
	defer server.Close()

	repo := NewTwitterRepository(twitterTestConfig(server.URL), testLogger(t))

	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	items, err := repo.RecentTweets(context.Background(), "someuser", since)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "2", items[0].TweetID)
	assert.Equal(t, "1", items[1].TweetID)
}

func TestRecentTweets_UnknownAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	repo := NewTwitterRepository(twitterTestConfig(server.URL), testLogger(t))

	items, err := repo.RecentTweets(context.Background(), "ghost", time.Now().Add(-time.Hour))

	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestRecentTweets_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	repo := NewTwitterRepository(twitterTestConfig(server.URL), testLogger(t))

	_, err := repo.RecentTweets(context.Background(), "someuser", time.Now().Add(-time.Hour))

	assert.True(t, errors.Is(err, ErrRateLimited))
}

func TestParseTweetTime_RFC3339Fallback(t *testing.T) {
	ts := parseTweetTime("2026-01-05T10:00:00Z")

	require.NotNil(t, ts)
	assert.Equal(t, time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC), *ts)

	assert.Nil(t, parseTweetTime("not a timestamp"))
	assert.Nil(t, parseTweetTime(""))
}
