package strategy

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/squammynoodles/influenza/internal/entity"
	"github.com/squammynoodles/influenza/internal/executor/repository"
	"github.com/squammynoodles/influenza/pkg/logger"
	"github.com/squammynoodles/influenza/pkg/redis"
)

// SyncTwitterAccountsStrategy fans the twitter account roster out onto the
// account sync stream.
type SyncTwitterAccountsStrategy struct {
	logger      *logger.Logger
	redisClient *redis.Client
	accountRepo repository.TwitterAccountRepository
}

// NewSyncTwitterAccountsStrategy creates a new SyncTwitterAccountsStrategy.
func NewSyncTwitterAccountsStrategy(log *logger.Logger, redisClient *redis.Client, accountRepo repository.TwitterAccountRepository) JobExecutionStrategy {
	return &SyncTwitterAccountsStrategy{logger: log, redisClient: redisClient, accountRepo: accountRepo}
}

// GetType returns the job type this strategy handles.
func (s *SyncTwitterAccountsStrategy) GetType() entity.JobType {
	return entity.JobTypeSyncTwitterAccounts
}

// Execute enqueues one account sync task per tracked twitter account.
func (s *SyncTwitterAccountsStrategy) Execute(ctx context.Context, job *entity.Job) (string, error) {
	accounts, err := s.accountRepo.FindAll(ctx)
	if err != nil {
		s.logger.Error("Failed to get twitter accounts", logger.ErrorField(err))
		return "", fmt.Errorf("failed to get twitter accounts: %w", err)
	}

	isSuccess := len(accounts) == 0
	var results []AccountSyncResult
	for _, account := range accounts {
		result := AccountSyncResult{AccountID: account.ID}
		if err := enqueueAccountSync(ctx, s.redisClient, entity.AccountTypeTwitterAccount, account.ID); err != nil {
			s.logger.Error("Failed to enqueue account sync task", logger.ErrorField(err), logger.Field("account_id", account.ID))
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
