package consumer

import (
	"context"
	"sync"
	"time"

	"github.com/squammynoodles/influenza/internal/executor/config"
	"github.com/squammynoodles/influenza/internal/executor/service"
	"github.com/squammynoodles/influenza/pkg/common"
	"github.com/squammynoodles/influenza/pkg/logger"
	"github.com/squammynoodles/influenza/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// RedisConsumer manages the consumption of tasks from the Redis streams.
type RedisConsumer struct {
	cfg               *config.Config
	redisClient       *redis.Client
	executorService   service.ExecutorService
	accountSyncSvc    service.AccountSyncService
	callExtractionSvc service.CallExtractionService
	priceFetchSvc     service.PriceFetchService
	logger            *logger.Logger
	stopChan          chan struct{}
	wg                sync.WaitGroup
}

// NewRedisConsumer creates a new RedisConsumer.
func NewRedisConsumer(
	cfg *config.Config,
	redisClient *redis.Client,
	executorService service.ExecutorService,
	accountSyncSvc service.AccountSyncService,
	callExtractionSvc service.CallExtractionService,
	priceFetchSvc service.PriceFetchService,
	log *logger.Logger,
) *RedisConsumer {
	return &RedisConsumer{
		cfg:               cfg,
		redisClient:       redisClient,
		executorService:   executorService,
		accountSyncSvc:    accountSyncSvc,
		callExtractionSvc: callExtractionSvc,
		priceFetchSvc:     priceFetchSvc,
		logger:            log,
		stopChan:          make(chan struct{}),
	}
}

// Start begins the consumer's task processing loops.
func (c *RedisConsumer) Start(ctx context.Context) {
	c.logger.Info("Redis consumer started")
	c.RegisterStreamHandler(ctx, c.executorService.ProcessTask, common.RedisStreamSchedulerTaskExecution, c.cfg.Executor.RedisStreamTaskExecutionTimeout)
	c.RegisterStreamHandler(ctx, c.accountSyncSvc.ProcessTask, common.RedisStreamAccountSync, c.cfg.Executor.RedisStreamAccountSyncTimeout)
	c.RegisterStreamHandler(ctx, c.callExtractionSvc.ProcessTask, common.RedisStreamCallExtraction, c.cfg.Executor.RedisStreamCallExtractionTimeout)
	c.RegisterStreamHandler(ctx, c.priceFetchSvc.ProcessTask, common.RedisStreamPriceFetch, c.cfg.Executor.RedisStreamPriceFetchTimeout)

	c.RegisterTickerHandler(ctx, c.accountSyncSvc.ProcessRetries, c.cfg.Executor.RedisStreamAccountSyncRetryInterval, c.cfg.Executor.RedisStreamAccountSyncMaxIdleDuration, common.RedisStreamAccountSync+"-retry")
	c.RegisterTickerHandler(ctx, c.callExtractionSvc.ProcessRetries, c.cfg.Executor.RedisStreamCallExtractionRetryInterval, c.cfg.Executor.RedisStreamCallExtractionMaxIdleDuration, common.RedisStreamCallExtraction+"-retry")
	c.RegisterTickerHandler(ctx, c.priceFetchSvc.ProcessRetries, c.cfg.Executor.RedisStreamPriceFetchRetryInterval, c.cfg.Executor.RedisStreamPriceFetchMaxIdleDuration, common.RedisStreamPriceFetch+"-retry")
}

// RegisterStreamHandler runs fn in a tight loop until shutdown, bounding each
// pass with the stream's timeout.
func (c *RedisConsumer) RegisterStreamHandler(ctx context.Context, fn func(ctx context.Context), streamName string, timeout time.Duration) {
	c.logger.Info("Registering stream handler", logger.Field("stream", streamName))
	c.wg.Add(1)
	utils.GoSafe(func() {
		defer c.wg.Done()
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Redis consumer stopping due to context cancellation")
				return
			case <-c.stopChan:
				c.logger.Info("Redis consumer stopping")
				return
			default:
				ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
				fn(ctxTimeout)
				cancel()
			}
		}
	})
}

// RegisterTickerHandler runs fn on an interval until shutdown.
func (c *RedisConsumer) RegisterTickerHandler(ctx context.Context, fn func(ctx context.Context), interval time.Duration, timeout time.Duration, name string) {
	c.logger.Info("Registering ticker handler",
		logger.Field("name", name),
		logger.Field("interval", interval),
		logger.Field("timeout", timeout))
	c.wg.Add(1)
	utils.GoSafe(func() {
		defer c.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
				fn(ctxTimeout)
				cancel()
			case <-ctx.Done():
				c.logger.Info("Ticker handler stopping due to context cancellation", logger.Field("name", name))
				return
			case <-c.stopChan:
				c.logger.Info("Ticker handler stopping", logger.Field("name", name))
				return
			}
		}
	})
}

// Stop gracefully shuts down the consumer.
func (c *RedisConsumer) Stop() {
	close(c.stopChan)
	c.wg.Wait()
	c.logger.Info("Redis consumer stopped")
}
