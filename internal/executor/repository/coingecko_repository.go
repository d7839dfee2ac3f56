package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/squammynoodles/influenza/internal/entity"
	"github.com/squammynoodles/influenza/internal/executor/config"
	"github.com/squammynoodles/influenza/internal/executor/dto"
	"github.com/squammynoodles/influenza/pkg/logger"

	"golang.org/x/time/rate"
)

type coingeckoRepository struct {
	cfg            *config.Config
	logger         *logger.Logger
	client         *http.Client
	requestLimiter *rate.Limiter
}

// NewCoingeckoRepository creates a price repository for crypto assets backed
// by the CoinGecko OHLC endpoint.
func NewCoingeckoRepository(cfg *config.Config, log *logger.Logger) PriceRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.CoinGecko.MaxRequestPerMinute)
	return &coingeckoRepository{
		cfg:    cfg,
		logger: log,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
	}
}

// Historical fetches OHLC candles for the asset. CoinGecko refusals are soft
// failures: the scheduled sweep picks the asset up again on its next run, so
// a rate limit or a bad payload costs one cycle of freshness, not a retry
// storm. Transport errors propagate so the stream retry layer can requeue.
func (r *coingeckoRepository) Historical(ctx context.Context, asset *entity.Asset, days int) ([]dto.PricePoint, error) {
	if asset.CoingeckoID == "" {
		r.logger.Warn("Asset has no coingecko id, skipping",
			logger.StringField("symbol", asset.Symbol))
		return nil, nil
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("vs_currency", "usd")
	params.Set("days", fmt.Sprintf("%d", days))

	reqURL := fmt.Sprintf("%s/coins/%s/ohlc?%s", r.cfg.CoinGecko.BaseURL, url.PathEscape(asset.CoingeckoID), params.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create coingecko request: %w", err)
	}
	if r.cfg.CoinGecko.APIKey != "" {
		req.Header.Set("x-cg-demo-api-key", r.cfg.CoinGecko.APIKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch coingecko prices for %s: %w", asset.Symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		r.logger.Warn("CoinGecko rate limit hit, skipping asset",
			logger.StringField("symbol", asset.Symbol))
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		r.logger.Error("CoinGecko returned unexpected status, skipping asset",
			logger.StringField("symbol", asset.Symbol),
			logger.IntField("status", resp.StatusCode),
			logger.StringField("body", string(body)))
		return nil, nil
	}

	// Candles arrive as [timestamp_ms, open, high, low, close] rows.
	var rows [][]float64
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		r.logger.Error("Failed to decode CoinGecko response, skipping asset",
			logger.StringField("symbol", asset.Symbol),
			logger.ErrorField(err))
		return nil, nil
	}

	points := make([]dto.PricePoint, 0, len(rows))
	for _, row := range rows {
		if len(row) < 5 {
			continue
		}
		open, high, low, closePrice := row[1], row[2], row[3], row[4]
		points = append(points, dto.PricePoint{
			Timestamp: time.UnixMilli(int64(row[0])).UTC(),
			Open:      &open,
			High:      &high,
			Low:       &low,
			Close:     &closePrice,
		})
	}
	return points, nil
}
