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

func yahooTestConfig(baseURL string) *config.Config {
	cfg := &config.Config{}
	cfg.YahooFinance.BaseURL = baseURL
	cfg.YahooFinance.MaxRequestPerMinute = 600
	return cfg
}

func TestYahooHistorical_DecodesChart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/SPY", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		fmt.Fprint(w, `{"chart":{"result":[{
			"timestamp":[1767225600,1767312000,1767398400],
			"indicators":{"quote":[{
				"open":[500.0,505.0,null],
				"high":[510.0,512.0,null],
				"low":[495.0,501.0,null],
				"close":[505.0,510.0,null],
				"volume":[1000,2000,null]
			}]}
		}]}}`)
	}))
	defer server.Close()

	repo := NewYahooFinanceRepository(yahooTestConfig(server.URL), testLogger(t))
	asset := &entity.Asset{Symbol: "SPY", AssetClass: entity.AssetClassMacro, YahooTicker: "SPY"}

	points, err := repo.Historical(context.Background(), asset, 7)

	require.NoError(t, err)
	require.Len(t, points, 2, "rows with a null close are dropped")
	assert.Equal(t, time.Unix(1767225600, 0).UTC(), points[0].Timestamp)
	assert.Equal(t, 505.0, *points[0].Close)
	assert.Equal(t, int64(2000), *points[1].Volume)
}

func TestYahooHistorical_AuthChallengeIsSoft(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		repo := NewYahooFinanceRepository(yahooTestConfig(server.URL), testLogger(t))
		asset := &entity.Asset{Symbol: "SPY", YahooTicker: "SPY"}

		points, err := repo.Historical(context.Background(), asset, 7)

		require.NoError(t, err, "status %d", status)
		assert.Empty(t, points)
		server.Close()
	}
}

func TestYahooHistorical_EmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[]}}`)
	}))
	defer server.Close()

	repo := NewYahooFinanceRepository(yahooTestConfig(server.URL), testLogger(t))
	asset := &entity.Asset{Symbol: "SPY", YahooTicker: "SPY"}

	points, err := repo.Historical(context.Background(), asset, 7)

	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestYahooHistorical_MissingTickerSkips(t *testing.T) {
	repo := NewYahooFinanceRepository(yahooTestConfig("http://unused"), testLogger(t))
	asset := &entity.Asset{Symbol: "NEW"}

	points, err := repo.Historical(context.Background(), asset, 7)

	require.NoError(t, err)
	assert.Empty(t, points)
}
