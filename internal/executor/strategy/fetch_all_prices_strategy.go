package strategy

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/squammynoodles/influenza/internal/entity"
	"github.com/squammynoodles/influenza/internal/executor/dto"
	"github.com/squammynoodles/influenza/internal/executor/repository"
	"github.com/squammynoodles/influenza/pkg/common"
	"github.com/squammynoodles/influenza/pkg/logger"
	"github.com/squammynoodles/influenza/pkg/redis"

	goRedis "github.com/redis/go-redis/v9"
)

// Price fetch windows. An asset's first fetch backfills a year of history so
// older calls can be scored; subsequent fetches only top up the last week.
const (
	priceTopUpDays    = 7
	priceBackfillDays = 365
)

// FetchAllPricesStrategy enqueues a price fetch task for every asset at least
// one call references. Assets nobody has called are not worth provider quota.
type FetchAllPricesStrategy struct {
	logger       *logger.Logger
	redisClient  *redis.Client
	assetRepo    repository.AssetRepository
	snapshotRepo repository.PriceSnapshotRepository
}

// PriceFetchSweepResult reports the enqueue outcome for one asset.
type PriceFetchSweepResult struct {
	AssetID uint   `json:"asset_id"`
	Days    int    `json:"days"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// NewFetchAllPricesStrategy creates a new FetchAllPricesStrategy.
func NewFetchAllPricesStrategy(log *logger.Logger, redisClient *redis.Client,
	assetRepo repository.AssetRepository, snapshotRepo repository.PriceSnapshotRepository) JobExecutionStrategy {
	return &FetchAllPricesStrategy{logger: log, redisClient: redisClient, assetRepo: assetRepo, snapshotRepo: snapshotRepo}
}

// GetType returns the job type this strategy handles.
func (s *FetchAllPricesStrategy) GetType() entity.JobType {
	return entity.JobTypeFetchAllPrices
}

// Execute enqueues one price fetch task per called asset.
func (s *FetchAllPricesStrategy) Execute(ctx context.Context, job *entity.Job) (string, error) {
	assets, err := s.assetRepo.FindWithCalls(ctx)
	if err != nil {
		s.logger.Error("Failed to get called assets", logger.ErrorField(err))
		return "", fmt.Errorf("failed to get called assets: %w", err)
	}

	isSuccess := len(assets) == 0
	var results []PriceFetchSweepResult
	for _, asset := range assets {
		days := priceBackfillDays
		exists, err := s.snapshotRepo.ExistsForAsset(ctx, asset.ID)
		if err != nil {
			s.logger.Error("Failed to check price history", logger.ErrorField(err), logger.StringField("symbol", asset.Symbol))
			results = append(results, PriceFetchSweepResult{AssetID: asset.ID, Error: err.Error()})
			continue
		}
		if exists {
			days = priceTopUpDays
		}

		result := PriceFetchSweepResult{AssetID: asset.ID, Days: days}
		payload, err := json.Marshal(dto.StreamDataPriceFetch{AssetID: asset.ID, Days: days})
		if err != nil {
			result.Error = err.Error()
			results = append(results, result)
			continue
		}

		err = s.redisClient.XAdd(ctx, &goRedis.XAddArgs{
			Stream: common.RedisStreamPriceFetch,
			Values: map[string]interface{}{"payload": string(payload)},
		}).Err()
		if err != nil {
			s.logger.Error("Failed to enqueue price fetch task", logger.ErrorField(err), logger.StringField("symbol", asset.Symbol))
			result.Error = err.Error()
		} else {
			result.Success = true
			isSuccess = true
		}
		results = append(results, result)
	}

	resultJSON, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}
	if !isSuccess {
		return "", fmt.Errorf("failed to enqueue price fetch tasks")
	}
	return string(resultJSON), nil
}
