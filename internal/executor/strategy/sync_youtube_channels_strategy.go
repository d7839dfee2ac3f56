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

// SyncYoutubeChannelsStrategy fans the channel roster out onto the account
// sync stream, one task per channel.
type SyncYoutubeChannelsStrategy struct {
	logger      *logger.Logger
	redisClient *redis.Client
	channelRepo repository.YoutubeChannelRepository
}

// AccountSyncResult reports the enqueue outcome for one account.
type AccountSyncResult struct {
	AccountID uint   `json:"account_id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// NewSyncYoutubeChannelsStrategy creates a new SyncYoutubeChannelsStrategy.
func NewSyncYoutubeChannelsStrategy(log *logger.Logger, redisClient *redis.Client, channelRepo repository.YoutubeChannelRepository) JobExecutionStrategy {
	return &SyncYoutubeChannelsStrategy{logger: log, redisClient: redisClient, channelRepo: channelRepo}
}

// GetType returns the job type this strategy handles.
func (s *SyncYoutubeChannelsStrategy) GetType() entity.JobType {
	return entity.JobTypeSyncYoutubeChannels
}

// Execute enqueues one account sync task per tracked channel.
func (s *SyncYoutubeChannelsStrategy) Execute(ctx context.Context, job *entity.Job) (string, error) {
	channels, err := s.channelRepo.FindAll(ctx)
	if err != nil {
		s.logger.Error("Failed to get youtube channels", logger.ErrorField(err))
		return "", fmt.Errorf("failed to get youtube channels: %w", err)
	}

	isSuccess := len(channels) == 0
	var results []AccountSyncResult
	for _, channel := range channels {
		result := AccountSyncResult{AccountID: channel.ID}
		if err := enqueueAccountSync(ctx, s.redisClient, entity.AccountTypeYoutubeChannel, channel.ID); err != nil {
			s.logger.Error("Failed to enqueue account sync task", logger.ErrorField(err), logger.Field("channel_id", channel.ID))
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
		return "", fmt.Errorf("failed to enqueue account sync tasks")
	}
	return string(resultJSON), nil
}

func enqueueAccountSync(ctx context.Context, redisClient *redis.Client, accountType string, accountID uint) error {
	payload, err := json.Marshal(dto.StreamDataAccountSync{
		AccountType: accountType,
		AccountID:   accountID,
	})
	if err != nil {
		return err
	}
	return redisClient.XAdd(ctx, &goRedis.XAddArgs{
		Stream: common.RedisStreamAccountSync,
		Values: map[string]interface{}{"payload": string(payload)},
	}).Err()
}
