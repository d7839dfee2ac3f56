package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
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

// CallExtractionService runs the completion model over synced content and
// persists validated calls.
type CallExtractionService interface {
	ProcessTask(ctx context.Context)
	ProcessRetries(ctx context.Context)
	Extract(ctx context.Context, contentID uint) error
}

type callExtractionService struct {
	cfg            *config.Config
	log            *logger.Logger
	redisClient    *redis.Client
	aiRepo         repository.CallExtractionRepository
	contentRepo    repository.ContentRepository
	callRepo       repository.CallRepository
	assetRepo      repository.AssetRepository
	influencerRepo repository.InfluencerRepository
	telegramBot    telegram.Notifier
}

// NewCallExtractionService creates a new CallExtractionService.
func NewCallExtractionService(cfg *config.Config, log *logger.Logger,
	redisClient *redis.Client,
	aiRepo repository.CallExtractionRepository,
	contentRepo repository.ContentRepository,
	callRepo repository.CallRepository,
	assetRepo repository.AssetRepository,
	influencerRepo repository.InfluencerRepository,
	telegramBot telegram.Notifier) CallExtractionService {
	return &callExtractionService{
		cfg:            cfg,
		log:            log,
		redisClient:    redisClient,
		aiRepo:         aiRepo,
		contentRepo:    contentRepo,
		callRepo:       callRepo,
		assetRepo:      assetRepo,
		influencerRepo: influencerRepo,
		telegramBot:    telegramBot,
	}
}

func (s *callExtractionService) ProcessTask(ctx context.Context) {
	streams, err := s.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer,
		Streams:  []string{common.RedisStreamCallExtraction, ">"},
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

	s.log.Debug("Processing call extraction task", logger.Field("content_id", streamData.ContentID))

	if err := s.Extract(ctx, streamData.ContentID); err != nil {
		// Leave the message pending so the retry claimer picks it up.
		s.log.Error("Failed to extract calls", logger.ErrorField(err),
			logger.Field("message_id", message.ID),
			logger.Field("content_id", streamData.ContentID))
		return
	}

	if err := s.AckNDel(ctx, common.RedisStreamCallExtraction, message.ID); err != nil {
		s.log.Error("Failed to acknowledge call extraction task", logger.ErrorField(err), logger.Field("message_id", message.ID))
	}
}

// Extract runs the extraction state machine for one content row. Completed
// content is a no-op so redelivered messages never duplicate calls. Transport
// errors mark the row failed and propagate for retry; everything else settles
// into a terminal status.
func (s *callExtractionService) Extract(ctx context.Context, contentID uint) error {
	content, err := s.contentRepo.FindByID(ctx, contentID)
	if err != nil {
		// A deleted row cannot be extracted by retrying, so the task is done.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("Content no longer exists, discarding task", logger.Field("content_id", contentID))
			return nil
		}
		return fmt.Errorf("failed to load content %d: %w", contentID, err)
	}

	if content.ExtractionStatus == entity.ExtractionStatusCompleted {
		s.log.Debug("Content already extracted, skipping", logger.Field("content_id", contentID))
		return nil
	}

	if content.IsVideo() && strings.TrimSpace(content.Transcript) == "" {
		return s.contentRepo.UpdateExtractionStatus(ctx, content.ID, entity.ExtractionStatusNoTranscript)
	}
	if !content.IsVideo() && strings.TrimSpace(content.Body) == "" {
		return s.contentRepo.UpdateExtractionStatus(ctx, content.ID, entity.ExtractionStatusNoContent)
	}

	assets, err := s.assetRepo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load assets: %w", err)
	}

	result, err := s.aiRepo.ExtractCalls(ctx, content, assets)
	if err != nil {
		if updateErr := s.contentRepo.UpdateExtractionStatus(ctx, content.ID, entity.ExtractionStatusFailed); updateErr != nil {
			s.log.Error("Failed to mark content failed", logger.ErrorField(updateErr), logger.Field("content_id", content.ID))
		}
		return fmt.Errorf("extraction failed for content %d: %w", content.ID, err)
	}

	parsed := ParseCalls(result.RawJSON, content, assets)

	status := entity.ExtractionStatusNoCalls
	switch {
	case len(parsed.Calls) > 0:
		status = entity.ExtractionStatusCompleted
	case parsed.CandidateCount > 0:
		status = entity.ExtractionStatusLowConfidence
	}

	if err := s.callRepo.SaveWithContentStatus(ctx, content.ID, parsed.Calls, status); err != nil {
		return fmt.Errorf("failed to persist calls for content %d: %w", content.ID, err)
	}

	s.log.Info("Call extraction finished",
		logger.Field("content_id", content.ID),
		logger.StringField("status", status),
		logger.IntField("calls", len(parsed.Calls)),
		logger.IntField("candidates", parsed.CandidateCount),
		logger.IntField("total_tokens", result.TotalTokens))

	s.notifyCalls(ctx, content, assets, parsed.Calls)
	return nil
}

// notifyCalls announces persisted calls. Notification failure never fails the
// task; the calls are already durable.
func (s *callExtractionService) notifyCalls(ctx context.Context, content *entity.Content, assets []entity.Asset, calls []entity.Call) {
	if len(calls) == 0 {
		return
	}

	influencerName := fmt.Sprintf("influencer %d", content.InfluencerID)
	if influencer, err := s.influencerRepo.FindByID(ctx, content.InfluencerID); err == nil {
		influencerName = influencer.Name
	}

	symbolsByID := make(map[uint]string, len(assets))
	for _, a := range assets {
		symbolsByID[a.ID] = a.Symbol
	}

	for _, call := range calls {
		msg := telegram.FormatCallAlertMessage(influencerName, symbolsByID[call.AssetID], call.Direction, call.Confidence, call.Quote)
		if err := s.telegramBot.SendMessage(msg); err != nil {
			s.log.Error("Failed to send call alert", logger.ErrorField(err), logger.Field("call_content_id", call.ContentID))
		}
	}
}

func (s *callExtractionService) decodeMessage(messageID string, values map[string]interface{}) (*dto.StreamDataCallExtraction, bool) {
	taskData, ok := values["payload"].(string)
	if !ok {
		s.log.Error("field 'payload' not found or not a string in stream message", logger.Field("message_id", messageID))
		return nil, false
	}

	var streamData dto.StreamDataCallExtraction
	if err := json.Unmarshal([]byte(taskData), &streamData); err != nil {
		s.log.Error("Failed to unmarshal task data", logger.ErrorField(err), logger.Field("message_id", messageID))
		return nil, false
	}
	return &streamData, true
}

func (s *callExtractionService) AckNDel(ctx context.Context, streamName string, messageID string) error {
	if err := s.redisClient.XAck(ctx, streamName, common.RedisStreamGroup, messageID).Err(); err != nil {
		return err
	}
	return s.redisClient.XDel(ctx, streamName, messageID).Err()
}

func (s *callExtractionService) ProcessRetries(ctx context.Context) {
	msgs, _, err := s.redisClient.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   common.RedisStreamCallExtraction,
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer + "-retry",
		MinIdle:  s.cfg.Executor.RedisStreamCallExtractionMaxIdleDuration,
		Start:    "0",
		Count:    1,
	}).Result()
	if err != nil {
		s.log.Error("Failed to claim call extraction task on retry", logger.ErrorField(err))
		return
	}
	if len(msgs) == 0 {
		s.log.Debug("Retry no pending messages found", logger.StringField("stream", common.RedisStreamCallExtraction))
		return
	}

	msg := msgs[0]
	pendingInfo, err := s.redisClient.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: common.RedisStreamCallExtraction,
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
			logger.StringField("stream", common.RedisStreamCallExtraction),
			logger.StringField("message_id", msg.ID))
		return
	}

	streamData, ok := s.decodeMessage(msg.ID, msg.Values)
	if !ok {
		return
	}

	if pendingInfo[0].RetryCount >= int64(s.cfg.Executor.RedisStreamCallExtractionMaxRetry) {
		s.log.Error("pending msg retry count exceeded",
			logger.StringField("stream", common.RedisStreamCallExtraction),
			logger.StringField("message_id", msg.ID),
			logger.Field("content_id", streamData.ContentID),
			logger.IntField("retry_count", int(pendingInfo[0].RetryCount)),
			logger.IntField("max_retry", s.cfg.Executor.RedisStreamCallExtractionMaxRetry))
		alert := telegram.FormatErrorAlertMessage(time.Now(), fmt.Sprintf("Call extraction retry count exceeded for content %d", streamData.ContentID))
		if err := s.telegramBot.SendMessage(alert); err != nil {
			s.log.Error("Failed to send telegram message retry exceeded", logger.ErrorField(err), logger.Field("content_id", streamData.ContentID))
		}
		if err := s.AckNDel(ctx, common.RedisStreamCallExtraction, msg.ID); err != nil {
			s.log.Error("Failed to acknowledge call extraction task", logger.ErrorField(err), logger.Field("message_id", msg.ID))
		}
		return
	}

	if err := s.Extract(ctx, streamData.ContentID); err != nil {
		s.log.Error("Failed to extract calls on retry", logger.ErrorField(err),
			logger.Field("message_id", msg.ID),
			logger.Field("content_id", streamData.ContentID))
		return
	}

	if err := s.AckNDel(ctx, common.RedisStreamCallExtraction, msg.ID); err != nil {
		s.log.Error("Failed to acknowledge call extraction task", logger.ErrorField(err), logger.Field("message_id", msg.ID))
		return
	}
	s.log.Info("Retry call extraction task processed successfully", logger.Field("content_id", streamData.ContentID))
}
