package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/squammynoodles/influenza/internal/entity"
	"github.com/squammynoodles/influenza/internal/executor/config"
	"github.com/squammynoodles/influenza/internal/executor/dto"
	"github.com/squammynoodles/influenza/pkg/logger"
	"github.com/squammynoodles/influenza/pkg/ratelimit"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// geminiAIRepository is a CallExtractionRepository backed by the Google
// Gemini API.
type geminiAIRepository struct {
	cfg            *config.Config
	logger         *logger.Logger
	tokenLimiter   *ratelimit.TokenLimiter
	requestLimiter *rate.Limiter
	genAiClient    *genai.Client
}

// NewGeminiAIRepository creates a new Gemini-backed extraction repository.
func NewGeminiAIRepository(cfg *config.Config, log *logger.Logger, genAiClient *genai.Client) (CallExtractionRepository, error) {
	secondsPerRequest := time.Minute / time.Duration(cfg.Gemini.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	return &geminiAIRepository{
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
		tokenLimiter:   ratelimit.NewTokenLimiter(cfg.Gemini.MaxTokenPerMinute),
		genAiClient:    genAiClient,
	}, nil
}

// ExtractCalls sends the content to Gemini requesting a JSON response.
func (r *geminiAIRepository) ExtractCalls(ctx context.Context, content *entity.Content, assets []entity.Asset) (*dto.ExtractionResult, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(BuildUserPrompt(content), "user"),
	}

	tokenResp, err := r.genAiClient.Models.CountTokens(ctx, r.cfg.Gemini.Model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count tokens: %w", err)
	}

	r.logger.Debug("Gemini token count",
		logger.IntField("total_tokens", int(tokenResp.TotalTokens)),
		logger.IntField("remaining", r.tokenLimiter.GetRemaining()),
	)

	if err := r.tokenLimiter.Wait(ctx, int(tokenResp.TotalTokens)); err != nil {
		return nil, fmt.Errorf("failed to wait for token limit: %w", err)
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request limit: %w", err)
	}

	if int(tokenResp.TotalTokens) > r.cfg.Gemini.MaxTokenPerMinute/2 {
		r.logger.Warn("Token usage has exceeded 50% of the per-minute limit",
			logger.IntField("remaining", r.tokenLimiter.GetRemaining()))
	}

	temperature := float32(openAITemperature)
	resp, err := r.genAiClient.Models.GenerateContent(ctx, r.cfg.Gemini.Model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(BuildSystemPrompt(assets), "system"),
		ResponseMIMEType:  "application/json",
		Temperature:       &temperature,
		MaxOutputTokens:   openAIMaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send request to Gemini API: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("no content found in Gemini response")
	}

	totalTokens := int(tokenResp.TotalTokens)
	if resp.UsageMetadata != nil {
		totalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return &dto.ExtractionResult{
		RawJSON:     text,
		TotalTokens: totalTokens,
	}, nil
}
