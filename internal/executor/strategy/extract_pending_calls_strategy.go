package strategy

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/squammynoodles/influenza/internal/entity"
	"github.com/squammynoodles/influenza/internal/executor/dto"
	"github.com/squammynoodles/influenza/internal/executor/repository"
	"github.com/squammynoodles/influenza/pkg/common"
	"github.com/squammynoodles/influenza/pkg/logger"
	"github.com/squammynoodles/influenza/pkg/redis"

	goRedis "github.com/redis/go-redis/v9"
)

// ExtractPendingCallsStrategy sweeps pending content onto the call extraction
// stream. It backs up the event-driven enqueue done at sync time, catching
// rows whose enqueue was lost and rows whose transcript arrived late.
type ExtractPendingCallsStrategy struct {
	logger      *logger.Logger
	redisClient *redis.Client
	contentRepo repository.ContentRepository
}

// ExtractionSweepResult reports the enqueue outcome for one content row.
type ExtractionSweepResult struct {
	ContentID uint   `json:"content_id"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// NewExtractPendingCallsStrategy creates a new ExtractPendingCallsStrategy.
func NewExtractPendingCallsStrategy(log *logger.Logger, redisClient *redis.Client, contentRepo repository.ContentRepository) JobExecutionStrategy {
	return &ExtractPendingCallsStrategy{logger: log, redisClient: redisClient, contentRepo: contentRepo}
}

// GetType returns the job type this strategy handles.
func (s *ExtractPendingCallsStrategy) GetType() entity.JobType {
	return entity.JobTypeExtractPendingCalls
}

// Execute enqueues an extraction task for each pending content row that has
// text to work with. Videos still waiting on captions stay pending so the
// next sweep can pick them up once the transcript lands.
func (s *ExtractPendingCallsStrategy) Execute(ctx context.Context, job *entity.Job) (string, error) {
	contents, err := s.contentRepo.FindPending(ctx)
	if err != nil {
		s.logger.Error("Failed to get pending contents", logger.ErrorField(err))
		return "", fmt.Errorf("failed to get pending contents: %w", err)
	}

	isSuccess := true
	skipped := 0
	var results []ExtractionSweepResult
	for i := range contents {
		content := &contents[i]
		if !hasExtractableText(content) {
			skipped++
			continue
		}

		result := ExtractionSweepResult{ContentID: content.ID}
		payload, err := json.Marshal(dto.StreamDataCallExtraction{ContentID: content.ID})
		if err != nil {
			result.Error = err.Error()
			results = append(results, result)
			continue
		}

		err = s.redisClient.XAdd(ctx, &goRedis.XAddArgs{
			Stream: common.RedisStreamCallExtraction,
			Values: map[string]interface{}{"payload": string(payload)},
		}).Err()
		if err != nil {
			s.logger.Error("Failed to enqueue extraction task", logger.ErrorField(err), logger.Field("content_id", content.ID))
			result.Error = err.Error()
			isSuccess = false
		} else {
			result.Success = true
		}
		results = append(results, result)
	}

	s.logger.Info("Pending content sweep finished",
		logger.IntField("pending", len(contents)),
		logger.IntField("enqueued", len(results)),
		logger.IntField("skipped", skipped))

	resultJSON, err := json.Marshal(results)
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}
	if !isSuccess {
		return string(resultJSON), fmt.Errorf("failed to enqueue extraction tasks")
	}
	return string(resultJSON), nil
}

func hasExtractableText(content *entity.Content) bool {
	if content.IsVideo() {
		return strings.TrimSpace(content.Transcript) != ""
	}
	return strings.TrimSpace(content.Body) != ""
}
