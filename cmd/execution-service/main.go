package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/squammynoodles/influenza/internal/executor/config"
	"github.com/squammynoodles/influenza/internal/executor/delivery/consumer"
	"github.com/squammynoodles/influenza/internal/executor/repository"
	"github.com/squammynoodles/influenza/internal/executor/service"
	"github.com/squammynoodles/influenza/internal/executor/strategy"
	"github.com/squammynoodles/influenza/pkg/common"
	"github.com/squammynoodles/influenza/pkg/logger"
	"github.com/squammynoodles/influenza/pkg/postgres"
	"github.com/squammynoodles/influenza/pkg/redis"
	"github.com/squammynoodles/influenza/pkg/telegram"

	"google.golang.org/genai"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the execution service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Execution Service", zap.String("name", cfg.App.Name))

	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", zap.Error(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	redisCfg := redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}
	redisClient, err := redis.NewClient(redisCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", zap.Error(err))
	}
	defer redisClient.Close()

	// MKSTREAM creates the stream if it doesn't exist.
	streams := []string{
		common.RedisStreamSchedulerTaskExecution,
		common.RedisStreamAccountSync,
		common.RedisStreamCallExtraction,
		common.RedisStreamPriceFetch,
	}
	for _, stream := range streams {
		if err := redisClient.XGroupCreateMkStream(context.Background(), stream, common.RedisStreamGroup, "0").Err(); err != nil {
			if err.Error() != "BUSYGROUP Consumer Group name already exists" {
				appLogger.Fatal("Failed to create consumer group", logger.ErrorField(err), logger.StringField("stream", stream))
			}
		}
	}

	jobRepo := repository.NewJobRepository(db.DB)
	historyRepo := repository.NewTaskExecutionHistoryRepository(db.DB)
	influencerRepo := repository.NewInfluencerRepository(db.DB)
	channelRepo := repository.NewYoutubeChannelRepository(db.DB)
	twitterAcctRepo := repository.NewTwitterAccountRepository(db.DB)
	contentRepo := repository.NewContentRepository(db.DB)
	callRepo := repository.NewCallRepository(db.DB)
	assetRepo := repository.NewAssetRepository(db.DB)
	snapshotRepo := repository.NewPriceSnapshotRepository(db.DB)

	videoRepo := repository.NewYoutubeRepository(cfg, appLogger)
	transcriptRepo := repository.NewTranscriptRepository(cfg, appLogger)
	tweetRepo := repository.NewTwitterRepository(cfg, appLogger)
	coingeckoRepo := repository.NewCoingeckoRepository(cfg, appLogger)
	yahooRepo := repository.NewYahooFinanceRepository(cfg, appLogger)

	var aiRepo repository.CallExtractionRepository
	switch cfg.AI.Provider {
	case "openai":
		aiRepo = repository.NewOpenAIRepository(cfg, appLogger)
	case "gemini":
		genAiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey: cfg.Gemini.APIKey,
		})
		if err != nil {
			appLogger.Fatal("Failed to initialize Gemini AI client", zap.Error(err))
		}
		repo, err := repository.NewGeminiAIRepository(cfg, appLogger, genAiClient)
		if err != nil {
			appLogger.Fatal("Failed to initialize Gemini AI repository", zap.Error(err))
		}
		aiRepo = repo
	default:
		appLogger.Fatal("Invalid AI provider specified in config", zap.String("provider", cfg.AI.Provider))
	}

	telegramNotifier, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		appLogger.Fatal("Failed to initialize Telegram notifier", zap.Error(err))
	}

	strategies := []strategy.JobExecutionStrategy{
		strategy.NewHTTPStrategy(appLogger),
		strategy.NewSyncYoutubeChannelsStrategy(appLogger, redisClient, channelRepo),
		strategy.NewSyncTwitterAccountsStrategy(appLogger, redisClient, twitterAcctRepo),
		strategy.NewExtractPendingCallsStrategy(appLogger, redisClient, contentRepo),
		strategy.NewFetchAllPricesStrategy(appLogger, redisClient, assetRepo, snapshotRepo),
	}

	executorSvc := service.NewExecutorService(redisClient.Client, jobRepo, historyRepo, appLogger, strategies)
	accountSyncSvc := service.NewAccountSyncService(cfg, appLogger, redisClient.Client, channelRepo, twitterAcctRepo, contentRepo, videoRepo, transcriptRepo, tweetRepo, telegramNotifier)
	callExtractionSvc := service.NewCallExtractionService(cfg, appLogger, redisClient.Client, aiRepo, contentRepo, callRepo, assetRepo, influencerRepo, telegramNotifier)
	priceFetchSvc := service.NewPriceFetchService(cfg, appLogger, redisClient.Client, assetRepo, snapshotRepo, coingeckoRepo, yahooRepo, telegramNotifier)

	redisConsumer := consumer.NewRedisConsumer(cfg, redisClient.Client, executorSvc, accountSyncSvc, callExtractionSvc, priceFetchSvc, appLogger)
	redisConsumer.Start(ctx)

	appLogger.Info("Execution service started. Waiting for tasks...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down execution service...")
	cancel()
	redisConsumer.Stop()
	appLogger.Info("Execution service stopped.")
}

func main() {
	rootCmd := &cobra.Command{Use: "execution-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-executor.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing execution-service CLI: %s\n", err)
		os.Exit(1)
	}
}
