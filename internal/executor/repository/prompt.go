package repository

import (
	"fmt"
	"strings"

	"github.com/squammynoodles/influenza/internal/entity"
	"github.com/squammynoodles/influenza/pkg/utils"
)

// MaxContentLength bounds the user prompt. Longer transcripts are cut off
// hard, not summarized.
const MaxContentLength = 50000

// BuildSystemPrompt enumerates the supported asset universe and the
// extraction rules the model must follow.
func BuildSystemPrompt(assets []entity.Asset) string {
	symbols := make([]string, 0, len(assets))
	var aliasBuilder strings.Builder
	for _, asset := range assets {
		symbols = append(symbols, asset.Symbol)
		for _, alias := range asset.Aliases {
			aliasBuilder.WriteString(fmt.Sprintf("- %s = %s\n", alias, asset.Symbol))
		}
	}

	promptTemplate := `You are a financial content analyst. Your job is to extract market calls
(trading recommendations) from influencer content.

A "call" is when the speaker explicitly recommends buying, selling, or
taking a position on a specific asset. Calls must be:
- EXPLICIT: The speaker must clearly state a directional opinion
- ACTIONABLE: Must reference a specific asset (not general market commentary)
- CURRENT: Must be about a current or future position (not past trades)

NOT a call (do NOT extract these):
- "Bitcoin is interesting" (no direction)
- "I sold my BTC last week" (past action, not recommendation)
- "People are buying ETH" (reporting others' actions, not recommending)
- "I would NOT buy NASDAQ here" (this is BEARISH, not bullish -- only extract if clearly bearish)
- "If Bitcoin hits 100K, then maybe" (hypothetical, too conditional)
- "BTC might go up" (hedging language, low confidence)
- "I'm watching SOL closely" (observation, no direction)

Supported assets (ONLY extract calls for these):
%s

Common name mappings:
%s
Respond with JSON in this exact format:
{
  "calls": [
    {
      "asset": "BTC",
      "direction": "bullish",
      "confidence": 0.85,
      "quote": "exact quote from the content, max 200 characters",
      "reasoning": "brief explanation of why this is a call"
    }
  ]
}

If there are NO calls in the content, respond with:
{ "calls": [] }

Rules:
- confidence is 0.0 to 1.0 (how certain you are this is a real, actionable call)
- direction MUST be "bullish" or "bearish"
- asset MUST be from the supported list above -- do NOT invent new tickers
- quote should be the exact words from the content, max 200 characters
- reasoning should be 1-2 sentences explaining why you classified this as a call
- Only include calls with confidence >= 0.5
- Be conservative: when in doubt, do NOT extract a call`

	return fmt.Sprintf(promptTemplate, strings.Join(symbols, ", "), aliasBuilder.String())
}

// BuildUserPrompt wraps the content body or transcript for analysis,
// truncated to MaxContentLength.
func BuildUserPrompt(content *entity.Content) string {
	var text string
	switch content.ContentType {
	case entity.ContentTypeYoutubeVideo:
		text = fmt.Sprintf("Analyze this YouTube video transcript for market calls:\n\nTitle: %s\n\n%s", content.Title, content.Transcript)
	case entity.ContentTypeTweet:
		text = fmt.Sprintf("Analyze this tweet for market calls:\n\n%s", content.Body)
	default:
		text = fmt.Sprintf("Analyze this content for market calls:\n\n%s", content.Body)
	}

	return utils.Truncate(text, MaxContentLength)
}
