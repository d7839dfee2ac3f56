package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/squammynoodles/influenza/internal/entity"
	"github.com/squammynoodles/influenza/internal/scheduler/config"
	"github.com/squammynoodles/influenza/internal/scheduler/dto"
	"github.com/squammynoodles/influenza/pkg/common"
	"github.com/squammynoodles/influenza/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// Stream payload shapes mirrored from the executor side. Field names are the
// wire contract between the two services.
type extractionPayload struct {
	ContentID uint `json:"content_id"`
}

type accountSyncPayload struct {
	AccountType string `json:"account_type"`
	AccountID   uint   `json:"account_id"`
}

type priceFetchPayload struct {
	AssetID uint `json:"asset_id"`
	Days    int  `json:"days"`
}

// EnqueueService publishes ad-hoc pipeline tasks, bypassing the cron
// schedules. Used by operators to reprocess a specific row on demand.
type EnqueueService interface {
	EnqueueExtraction(ctx context.Context, req *dto.EnqueueExtractionRequest) (*dto.EnqueueResponse, error)
	EnqueueAccountSync(ctx context.Context, req *dto.EnqueueAccountSyncRequest) (*dto.EnqueueResponse, error)
	EnqueuePriceFetch(ctx context.Context, req *dto.EnqueuePriceFetchRequest) (*dto.EnqueueResponse, error)
}

// NewEnqueueService creates a new enqueue service.
func NewEnqueueService(redisClient *redis.Client, logger *logger.Logger, cfg *config.Config) EnqueueService {
	return &enqueueService{
		redisClient: redisClient,
		logger:      logger,
		cfg:         cfg,
	}
}

type enqueueService struct {
	redisClient *redis.Client
	logger      *logger.Logger
	cfg         *config.Config
}

// EnqueueExtraction publishes a call extraction task for one content row.
func (s *enqueueService) EnqueueExtraction(ctx context.Context, req *dto.EnqueueExtractionRequest) (*dto.EnqueueResponse, error) {
	if req.ContentID == 0 {
		return nil, fmt.Errorf("content_id is required")
	}
	return s.publish(ctx, common.RedisStreamCallExtraction, extractionPayload{ContentID: req.ContentID})
}

// EnqueueAccountSync publishes a sync task for one tracked account.
func (s *enqueueService) EnqueueAccountSync(ctx context.Context, req *dto.EnqueueAccountSyncRequest) (*dto.EnqueueResponse, error) {
	if req.AccountID == 0 {
		return nil, fmt.Errorf("account_id is required")
	}
	if req.AccountType != entity.AccountTypeYoutubeChannel && req.AccountType != entity.AccountTypeTwitterAccount {
		return nil, fmt.Errorf("unknown account type: %s", req.AccountType)
	}
	return s.publish(ctx, common.RedisStreamAccountSync, accountSyncPayload{
		AccountType: req.AccountType,
		AccountID:   req.AccountID,
	})
}

// EnqueuePriceFetch publishes a price fetch task for one asset. Days defaults
// to a one week top-up when not given.
func (s *enqueueService) EnqueuePriceFetch(ctx context.Context, req *dto.EnqueuePriceFetchRequest) (*dto.EnqueueResponse, error) {
	if req.AssetID == 0 {
		return nil, fmt.Errorf("asset_id is required")
	}
	days := req.Days
	if days <= 0 {
		days = 7
	}
	return s.publish(ctx, common.RedisStreamPriceFetch, priceFetchPayload{
		AssetID: req.AssetID,
		Days:    days,
	})
}

func (s *enqueueService) publish(ctx context.Context, stream string, payload interface{}) (*dto.EnqueueResponse, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	messageID, err := s.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{"payload": string(payloadJSON)},
		MaxLen: s.cfg.Redis.StreamMaxLen,
	}).Result()
	if err != nil {
		s.logger.Error("Failed to enqueue task", logger.ErrorField(err), logger.StringField("stream", stream))
		return nil, err
	}

	s.logger.Info("Task enqueued", logger.StringField("stream", stream), logger.StringField("message_id", messageID))
	return &dto.EnqueueResponse{Stream: stream, MessageID: messageID}, nil
}
