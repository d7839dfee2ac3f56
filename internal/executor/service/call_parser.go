package service

import (
	"encoding/json"
	"strings"

	"github.com/squammynoodles/influenza/internal/entity"
	"github.com/squammynoodles/influenza/internal/executor/dto"
	"github.com/squammynoodles/influenza/pkg/utils"
)

// Confidence gates. Candidates below ParseThreshold are discarded outright;
// candidates at or above SaveThreshold are persisted. The band in between
// counts toward the low_confidence status but never reaches storage.
const (
	ParseThreshold = 0.5
	SaveThreshold  = 0.7

	maxQuoteLength = 200
)

// ParsedCalls is the outcome of validating one model response against the
// asset universe.
type ParsedCalls struct {
	// Calls are the candidates that cleared SaveThreshold, ready to persist.
	Calls []entity.Call
	// CandidateCount is how many candidates cleared ParseThreshold, persisted
	// or not.
	CandidateCount int
}

// ParseCalls validates the model's raw JSON output. A malformed response is
// treated the same as a response with no calls rather than as an error, since
// retrying the same content through the model rarely yields better JSON.
func ParseCalls(raw string, content *entity.Content, assets []entity.Asset) ParsedCalls {
	assetsBySymbol := make(map[string]*entity.Asset, len(assets))
	for i := range assets {
		assetsBySymbol[strings.ToUpper(assets[i].Symbol)] = &assets[i]
	}

	var response dto.ExtractionResponse
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &response); err != nil {
		return ParsedCalls{}
	}

	var parsed ParsedCalls
	for _, candidate := range response.Calls {
		if candidate.Confidence < ParseThreshold {
			continue
		}

		asset, ok := assetsBySymbol[strings.ToUpper(strings.TrimSpace(candidate.Asset))]
		if !ok {
			continue
		}

		direction := strings.ToLower(strings.TrimSpace(candidate.Direction))
		if direction != entity.DirectionBullish && direction != entity.DirectionBearish {
			continue
		}

		parsed.CandidateCount++
		if candidate.Confidence < SaveThreshold {
			continue
		}

		parsed.Calls = append(parsed.Calls, entity.Call{
			ContentID:    content.ID,
			InfluencerID: content.InfluencerID,
			AssetID:      asset.ID,
			Direction:    direction,
			Confidence:   candidate.Confidence,
			Quote:        utils.Truncate(candidate.Quote, maxQuoteLength),
			Reasoning:    candidate.Reasoning,
			CalledAt:     content.CalledAt(),
		})
	}
	return parsed
}

// stripCodeFence unwraps a ```json ... ``` block when the model ignores the
// JSON response format instruction.
func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
