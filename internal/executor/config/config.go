package config

import (
	"time"

	"github.com/squammynoodles/influenza/pkg/config"
)

// Executor holds executor-specific configuration.
type Executor struct {
	RedisStreamTaskExecutionTimeout time.Duration `mapstructure:"redis_stream_task_execution_timeout"`

	// Account sync
	RedisStreamAccountSyncTimeout         time.Duration `mapstructure:"redis_stream_account_sync_timeout"`
	RedisStreamAccountSyncRetryInterval   time.Duration `mapstructure:"redis_stream_account_sync_retry_interval"`
	RedisStreamAccountSyncMaxIdleDuration time.Duration `mapstructure:"redis_stream_account_sync_max_idle_duration"`
	RedisStreamAccountSyncMaxRetry        int           `mapstructure:"redis_stream_account_sync_max_retry"`

	// Call extraction
	RedisStreamCallExtractionTimeout         time.Duration `mapstructure:"redis_stream_call_extraction_timeout"`
	RedisStreamCallExtractionRetryInterval   time.Duration `mapstructure:"redis_stream_call_extraction_retry_interval"`
	RedisStreamCallExtractionMaxIdleDuration time.Duration `mapstructure:"redis_stream_call_extraction_max_idle_duration"`
	RedisStreamCallExtractionMaxRetry        int           `mapstructure:"redis_stream_call_extraction_max_retry"`

	// Price fetch
	RedisStreamPriceFetchTimeout         time.Duration `mapstructure:"redis_stream_price_fetch_timeout"`
	RedisStreamPriceFetchRetryInterval   time.Duration `mapstructure:"redis_stream_price_fetch_retry_interval"`
	RedisStreamPriceFetchMaxIdleDuration time.Duration `mapstructure:"redis_stream_price_fetch_max_idle_duration"`
	RedisStreamPriceFetchMaxRetry        int           `mapstructure:"redis_stream_price_fetch_max_retry"`
}

// OpenAI holds the configuration for the OpenAI chat completions API.
type OpenAI struct {
	APIKey              string `mapstructure:"api_key"`
	BaseURL             string `mapstructure:"base_url"`
	Model               string `mapstructure:"model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
	MaxTokenPerMinute   int    `mapstructure:"max_token_per_minute"`
}

// Gemini holds the configuration for the Gemini API.
type Gemini struct {
	APIKey              string `mapstructure:"api_key"`
	Model               string `mapstructure:"model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
	MaxTokenPerMinute   int    `mapstructure:"max_token_per_minute"`
}

// AI holds configuration for AI providers.
type AI struct {
	Provider string `mapstructure:"provider"`
}

// Telegram holds configuration for the Telegram notifier.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// YouTube holds the configuration for the YouTube Data API. When APIKey is
// empty the video lister falls back to the channel uploads RSS feed.
type YouTube struct {
	APIKey              string `mapstructure:"api_key"`
	BaseURL             string `mapstructure:"base_url"`
	FeedBaseURL         string `mapstructure:"feed_base_url"`
	WatchBaseURL        string `mapstructure:"watch_base_url"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Twitter holds the configuration for the twitterapi.io API.
type Twitter struct {
	APIKey              string `mapstructure:"api_key"`
	BaseURL             string `mapstructure:"base_url"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// CoinGecko holds the configuration for the CoinGecko API.
type CoinGecko struct {
	APIKey              string `mapstructure:"api_key"`
	BaseURL             string `mapstructure:"base_url"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// YahooFinance holds the configuration for the Yahoo Finance chart API.
type YahooFinance struct {
	BaseURL             string `mapstructure:"base_url"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Config holds the full configuration for the execution service.
type Config struct {
	App          config.App      `mapstructure:"app"`
	Logger       config.Logger   `mapstructure:"logger"`
	Database     config.Database `mapstructure:"database"`
	Redis        config.Redis    `mapstructure:"redis"`
	Executor     Executor        `mapstructure:"executor"`
	OpenAI       OpenAI          `mapstructure:"openai"`
	Gemini       Gemini          `mapstructure:"gemini"`
	AI           AI              `mapstructure:"ai"`
	Telegram     Telegram        `mapstructure:"telegram"`
	YouTube      YouTube         `mapstructure:"youtube"`
	Twitter      Twitter         `mapstructure:"twitter"`
	CoinGecko    CoinGecko       `mapstructure:"coingecko"`
	YahooFinance YahooFinance    `mapstructure:"yahoo_finance"`
}

// Load loads the executor configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
