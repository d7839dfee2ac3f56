package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/squammynoodles/influenza/internal/entity"
	"github.com/squammynoodles/influenza/internal/executor/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func coingeckoTestConfig(baseURL string) *config.Config {
	cfg := &config.Config{}
	cfg.CoinGecko.BaseURL = baseURL
	cfg.CoinGecko.MaxRequestPerMinute = 600
	return cfg
}

func TestCoingeckoHistorical_DecodesCandles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/bitcoin/ohlc", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		assert.Equal(t, "7", r.URL.Query().Get("days"))
		fmt.Fprint(w, `[[1767225600000,100.0,110.0,95.0,105.0],[1767312000000,105.0,120.0,104.0,118.0]]`)
	}))
	defer server.Close()

	repo := NewCoingeckoRepository(coingeckoTestConfig(server.URL), testLogger(t))
	asset := &entity.Asset{Symbol: "BTC", AssetClass: entity.AssetClassCrypto, CoingeckoID: "bitcoin"}

	points, err := repo.Historical(context.Background(), asset, 7)

	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, time.UnixMilli(1767225600000).UTC(), points[0].Timestamp)
	require.NotNil(t, points[0].Close)
	assert.Equal(t, 105.0, *points[0].Close)
	require.NotNil(t, points[1].Open)
	assert.Equal(t, 105.0, *points[1].Open)
}

func TestCoingeckoHistorical_RateLimitIsSoft(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	repo := NewCoingeckoRepository(coingeckoTestConfig(server.URL), testLogger(t))
	asset := &entity.Asset{Symbol: "BTC", CoingeckoID: "bitcoin"}

	points, err := repo.Historical(context.Background(), asset, 7)

	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestCoingeckoHistorical_ServerErrorIsSoft(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	repo := NewCoingeckoRepository(coingeckoTestConfig(server.URL), testLogger(t))
	asset := &entity.Asset{Symbol: "BTC", CoingeckoID: "bitcoin"}

	points, err := repo.Historical(context.Background(), asset, 7)

	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestCoingeckoHistorical_MissingIDSkips(t *testing.T) {
	repo := NewCoingeckoRepository(coingeckoTestConfig("http://unused"), testLogger(t))
	asset := &entity.Asset{Symbol: "NEW"}

	points, err := repo.Historical(context.Background(), asset, 7)

	require.NoError(t, err)
	assert.Empty(t, points)
}
