package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/squammynoodles/influenza/internal/entity"
	"github.com/squammynoodles/influenza/internal/executor/config"
	"github.com/squammynoodles/influenza/internal/executor/dto"
	"github.com/squammynoodles/influenza/internal/executor/repository"
	"github.com/squammynoodles/influenza/pkg/common"
	"github.com/squammynoodles/influenza/pkg/logger"
	"github.com/squammynoodles/influenza/pkg/telegram"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// PriceFetchService ingests historical OHLC data for one asset per task.
type PriceFetchService interface {
	ProcessTask(ctx context.Context)
	ProcessRetries(ctx context.Context)
	FetchPrices(ctx context.Context, assetID uint, days int) error
}

type priceFetchService struct {
	cfg          *config.Config
	log          *logger.Logger
	redisClient  *redis.Client
	assetRepo    repository.AssetRepository
	snapshotRepo repository.PriceSnapshotRepository
	providers    map[string]repository.PriceRepository
	telegramBot  telegram.Notifier
}

// NewPriceFetchService creates a new PriceFetchService. The asset class picks
// the provider: crypto goes to CoinGecko, macro to Yahoo Finance.
func NewPriceFetchService(cfg *config.Config, log *logger.Logger,
	redisClient *redis.Client,
	assetRepo repository.AssetRepository,
	snapshotRepo repository.PriceSnapshotRepository,
	coingeckoRepo repository.PriceRepository,
	yahooRepo repository.PriceRepository,
	telegramBot telegram.Notifier) PriceFetchService {
	return &priceFetchService{
		cfg:          cfg,
		log:          log,
		redisClient:  redisClient,
		assetRepo:    assetRepo,
		snapshotRepo: snapshotRepo,
		providers: map[string]repository.PriceRepository{
			entity.AssetClassCrypto: coingeckoRepo,
			entity.AssetClassMacro:  yahooRepo,
		},
		telegramBot: telegramBot,
	}
}

func (s *priceFetchService) ProcessTask(ctx context.Context) {
	streams, err := s.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer,
		Streams:  []string{common.RedisStreamPriceFetch, ">"},
		Count:    1,
		Block:    2 * time.Second,
	}).Result()
	if err != nil {
		if err == context.Canceled || err == redis.Nil {
			return
		}
		s.log.Error("Failed to read from stream", logger.ErrorField(err))
		return
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return
	}

	message := streams[0].Messages[0]
	streamData, ok := s.decodeMessage(message.ID, message.Values)
	if !ok {
		return
	}

	s.log.Debug("Processing price fetch task",
		logger.Field("asset_id", streamData.AssetID),
		logger.IntField("days", streamData.Days))

	if err := s.FetchPrices(ctx, streamData.AssetID, streamData.Days); err != nil {
		s.log.Error("Failed to fetch prices", logger.ErrorField(err),
			logger.Field("message_id", message.ID),
			logger.Field("asset_id", streamData.AssetID))
		return
	}

	if err := s.AckNDel(ctx, common.RedisStreamPriceFetch, message.ID); err != nil {
		s.log.Error("Failed to acknowledge price fetch task", logger.ErrorField(err), logger.Field("message_id", message.ID))
	}
}

// FetchPrices pulls the asset's recent candles and upserts them. An unknown
// asset class is a data problem retrying cannot fix, so it settles as a no-op
// after logging.
func (s *priceFetchService) FetchPrices(ctx context.Context, assetID uint, days int) error {
	asset, err := s.assetRepo.FindByID(ctx, assetID)
	if err != nil {
		// A deleted asset cannot be fetched by retrying, so the task is done.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("Asset no longer exists, discarding task", logger.Field("asset_id", assetID))
			return nil
		}
		return fmt.Errorf("failed to load asset %d: %w", assetID, err)
	}

	provider, ok := s.providers[asset.AssetClass]
	if !ok {
		s.log.Error("No price provider for asset class",
			logger.StringField("symbol", asset.Symbol),
			logger.StringField("asset_class", asset.AssetClass))
		return nil
	}

	points, err := provider.Historical(ctx, asset, days)
	if err != nil {
		return fmt.Errorf("failed to fetch prices for %s: %w", asset.Symbol, err)
	}
	if len(points) == 0 {
		s.log.Debug("No price points returned", logger.StringField("symbol", asset.Symbol))
		return nil
	}

	upserted, err := s.snapshotRepo.BulkUpsert(ctx, asset.ID, points)
	if err != nil {
		return fmt.Errorf("failed to upsert prices for %s: %w", asset.Symbol, err)
	}

	s.log.Info("Price snapshots ingested",
		logger.StringField("symbol", asset.Symbol),
		logger.IntField("days", days),
		logger.IntField("points", len(points)),
		logger.IntField("upserted", upserted))
	return nil
}

func (s *priceFetchService) decodeMessage(messageID string, values map[string]interface{}) (*dto.StreamDataPriceFetch, bool) {
	taskData, ok := values["payload"].(string)
	if !ok {
		s.log.Error("field 'payload' not found or not a string in stream message", logger.Field("message_id", messageID))
		return nil, false
	}

	var streamData dto.StreamDataPriceFetch
	if err := json.Unmarshal([]byte(taskData), &streamData); err != nil {
		s.log.Error("Failed to unmarshal task data", logger.ErrorField(err), logger.Field("message_id", messageID))
		return nil, false
	}
	return &streamData, true
}

func (s *priceFetchService) AckNDel(ctx context.Context, streamName string, messageID string) error {
	if err := s.redisClient.XAck(ctx, streamName, common.RedisStreamGroup, messageID).Err(); err != nil {
		return err
	}
	return s.redisClient.XDel(ctx, streamName, messageID).Err()
}

func (s *priceFetchService) ProcessRetries(ctx context.Context) {
	msgs, _, err := s.redisClient.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   common.RedisStreamPriceFetch,
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer + "-retry",
		MinIdle:  s.cfg.Executor.RedisStreamPriceFetchMaxIdleDuration,
		Start:    "0",
		Count:    1,
	}).Result()
	if err != nil {
		s.log.Error("Failed to claim price fetch task on retry", logger.ErrorField(err))
		return
	}
	if len(msgs) == 0 {
		s.log.Debug("Retry no pending messages found", logger.StringField("stream", common.RedisStreamPriceFetch))
		return
	}

	msg := msgs[0]
	pendingInfo, err := s.redisClient.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: common.RedisStreamPriceFetch,
		Group:  common.RedisStreamGroup,
		Start:  msg.ID,
		End:    msg.ID,
		Count:  1,
	}).Result()
	if err != nil {
		s.log.Error("Failed to get pending info", logger.ErrorField(err))
		return
	}
	if len(pendingInfo) == 0 {
		s.log.Warn("pending msg not found, but exist on xautoclaim",
			logger.StringField("stream", common.RedisStreamPriceFetch),
			logger.StringField("message_id", msg.ID))
		return
	}

	streamData, ok := s.decodeMessage(msg.ID, msg.Values)
	if !ok {
		return
	}

	if pendingInfo[0].RetryCount >= int64(s.cfg.Executor.RedisStreamPriceFetchMaxRetry) {
		s.log.Error("pending msg retry count exceeded",
			logger.StringField("stream", common.RedisStreamPriceFetch),
			logger.StringField("message_id", msg.ID),
			logger.Field("asset_id", streamData.AssetID),
			logger.IntField("retry_count", int(pendingInfo[0].RetryCount)),
			logger.IntField("max_retry", s.cfg.Executor.RedisStreamPriceFetchMaxRetry))
		alert := telegram.FormatErrorAlertMessage(time.Now(), fmt.Sprintf("Price fetch retry count exceeded for asset %d", streamData.AssetID))
		if err := s.telegramBot.SendMessage(alert); err != nil {
			s.log.Error("Failed to send telegram message retry exceeded", logger.ErrorField(err), logger.Field("asset_id", streamData.AssetID))
		}
		if err := s.AckNDel(ctx, common.RedisStreamPriceFetch, msg.ID); err != nil {
			s.log.Error("Failed to acknowledge price fetch task", logger.ErrorField(err), logger.Field("message_id", msg.ID))
		}
		return
	}

	if err := s.FetchPrices(ctx, streamData.AssetID, streamData.Days); err != nil {
		s.log.Error("Failed to fetch prices on retry", logger.ErrorField(err),
			logger.Field("message_id", msg.ID),
			logger.Field("asset_id", streamData.AssetID))
		return
	}

	if err := s.AckNDel(ctx, common.RedisStreamPriceFetch, msg.ID); err != nil {
		s.log.Error("Failed to acknowledge price fetch task", logger.ErrorField(err), logger.Field("message_id", msg.ID))
		return
	}
	s.log.Info("Retry price fetch task processed successfully", logger.Field("asset_id", streamData.AssetID))
}
