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

type yahooFinanceRepository struct {
	cfg            *config.Config
	logger         *logger.Logger
	client         *http.Client
	requestLimiter *rate.Limiter
}

// NewYahooFinanceRepository creates a price repository for macro assets
// (indices, commodities, currency baskets) backed by the Yahoo Finance chart
// API.
func NewYahooFinanceRepository(cfg *config.Config, log *logger.Logger) PriceRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.YahooFinance.MaxRequestPerMinute)
	return &yahooFinanceRepository{
		cfg:    cfg,
		logger: log,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
	}
}

// Historical fetches daily candles for the asset's ticker. Yahoo refusals
// (auth challenges and rate limits included) are soft failures handled the
// same way as the crypto provider: log, return empty, let the next sweep
// catch up. Transport errors propagate.
func (r *yahooFinanceRepository) Historical(ctx context.Context, asset *entity.Asset, days int) ([]dto.PricePoint, error) {
	if asset.YahooTicker == "" {
		r.logger.Warn("Asset has no yahoo ticker, skipping",
			logger.StringField("symbol", asset.Symbol))
		return nil, nil
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	params := url.Values{}
	params.Set("period1", fmt.Sprintf("%d", now.AddDate(0, 0, -days).Unix()))
	params.Set("period2", fmt.Sprintf("%d", now.Unix()))
	params.Set("interval", "1d")

	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", r.cfg.YahooFinance.BaseURL, url.PathEscape(asset.YahooTicker), params.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create yahoo chart request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch yahoo prices for %s: %w", asset.Symbol, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
		r.logger.Warn("Yahoo Finance refused request, skipping asset",
			logger.StringField("symbol", asset.Symbol),
			logger.IntField("status", resp.StatusCode))
		return nil, nil
	default:
		body, _ := io.ReadAll(resp.Body)
		r.logger.Error("Yahoo Finance returned unexpected status, skipping asset",
			logger.StringField("symbol", asset.Symbol),
			logger.IntField("status", resp.StatusCode),
			logger.StringField("body", string(body)))
		return nil, nil
	}

	var chart dto.YahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		r.logger.Error("Failed to decode Yahoo Finance response, skipping asset",
			logger.StringField("symbol", asset.Symbol),
			logger.ErrorField(err))
		return nil, nil
	}

	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}
	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	points := make([]dto.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		// Null closes show up for half-formed trading days; drop those rows.
		if i >= len(quote.Close) || quote.Close[i] == nil {
			continue
		}
		point := dto.PricePoint{
			Timestamp: time.Unix(ts, 0).UTC(),
			Close:     quote.Close[i],
		}
		if i < len(quote.Open) {
			point.Open = quote.Open[i]
		}
		if i < len(quote.High) {
			point.High = quote.High[i]
		}
		if i < len(quote.Low) {
			point.Low = quote.Low[i]
		}
		if i < len(quote.Volume) {
			point.Volume = quote.Volume[i]
		}
		points = append(points, point)
	}
	return points, nil
}
