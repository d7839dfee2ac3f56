package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/squammynoodles/influenza/internal/entity"
	"github.com/squammynoodles/influenza/internal/executor/config"
	"github.com/squammynoodles/influenza/internal/executor/dto"
	"github.com/squammynoodles/influenza/pkg/logger"
	"github.com/squammynoodles/influenza/pkg/ratelimit"

	"golang.org/x/time/rate"
)

const (
	openAITemperature = 0.1
	openAIMaxTokens   = 1000
)

// openAIRepository is a CallExtractionRepository backed by the OpenAI chat
// completions API.
type openAIRepository struct {
	client         *http.Client
	cfg            *config.Config
	logger         *logger.Logger
	tokenLimiter   *ratelimit.TokenLimiter
	requestLimiter *rate.Limiter
}

// NewOpenAIRepository creates a new OpenAI-backed extraction repository.
func NewOpenAIRepository(cfg *config.Config, log *logger.Logger) CallExtractionRepository {
	secondsPerRequest := time.Minute / time.Duration(cfg.OpenAI.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	return &openAIRepository{
		client: &http.Client{
			Timeout: 90 * time.Second,
		},
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
		tokenLimiter:   ratelimit.NewTokenLimiter(cfg.OpenAI.MaxTokenPerMinute),
	}
}

// ExtractCalls sends the content to the completions API and returns the raw
// JSON response text. Low temperature keeps the output near-deterministic.
func (r *openAIRepository) ExtractCalls(ctx context.Context, content *entity.Content, assets []entity.Asset) (*dto.ExtractionResult, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	payload := dto.OpenAIRequest{
		Model: r.cfg.OpenAI.Model,
		Messages: []dto.Message{
			{Role: "system", Content: BuildSystemPrompt(assets)},
			{Role: "user", Content: BuildUserPrompt(content)},
		},
		ResponseFormat: &dto.ResponseFormat{Type: "json_object"},
		Temperature:    openAITemperature,
		MaxTokens:      openAIMaxTokens,
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.cfg.OpenAI.BaseURL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("failed to create new http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", r.cfg.OpenAI.APIKey))

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to OpenAI API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("openai: %w", ErrRateLimited)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		r.logger.Error("Received non-OK response from OpenAI API",
			logger.IntField("status_code", resp.StatusCode),
			logger.Field("content_id", content.ID),
		)
		return nil, fmt.Errorf("received non-OK response from OpenAI API: %d - %s", resp.StatusCode, string(body))
	}

	var openaiResp dto.OpenAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&openaiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(openaiResp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in OpenAI response")
	}

	if openaiResp.Usage.TotalTokens > r.cfg.OpenAI.MaxTokenPerMinute/2 {
		r.logger.Warn("Token usage has exceeded 50% of the per-minute limit",
			logger.IntField("remaining", r.tokenLimiter.GetRemaining()))
	}

	if err := r.tokenLimiter.Wait(ctx, openaiResp.Usage.TotalTokens); err != nil {
		return nil, fmt.Errorf("failed to wait for token limit: %w", err)
	}

	return &dto.ExtractionResult{
		RawJSON:     openaiResp.Choices[0].Message.Content,
		TotalTokens: openaiResp.Usage.TotalTokens,
	}, nil
}
