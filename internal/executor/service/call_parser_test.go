package service

import (
	"testing"
	"time"

	"github.com/squammynoodles/influenza/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAssets() []entity.Asset {
	return []entity.Asset{
		{ID: 1, Symbol: "BTC", Name: "Bitcoin", AssetClass: entity.AssetClassCrypto},
		{ID: 2, Symbol: "ETH", Name: "Ethereum", AssetClass: entity.AssetClassCrypto},
	}
}

func testContent() *entity.Content {
	publishedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &entity.Content{
		ID:           10,
		InfluencerID: 3,
		ContentType:  entity.ContentTypeTweet,
		PublishedAt:  &publishedAt,
	}
}

func TestParseCalls_SavesHighConfidenceCall(t *testing.T) {
	raw := `{"calls":[{"asset":"btc","direction":"Bullish","confidence":0.9,"quote":"buying BTC here","reasoning":"explicit statement"}]}`

	parsed := ParseCalls(raw, testContent(), testAssets())

	require.Len(t, parsed.Calls, 1)
	assert.Equal(t, 1, parsed.CandidateCount)

	call := parsed.Calls[0]
	assert.Equal(t, uint(10), call.ContentID)
	assert.Equal(t, uint(3), call.InfluencerID)
	assert.Equal(t, uint(1), call.AssetID)
	assert.Equal(t, entity.DirectionBullish, call.Direction)
	assert.Equal(t, 0.9, call.Confidence)
	assert.Equal(t, "buying BTC here", call.Quote)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), call.CalledAt)
}

func TestParseCalls_MidBandCountsButIsNotSaved(t *testing.T) {
	raw := `{"calls":[{"asset":"ETH","direction":"bearish","confidence":0.6}]}`

	parsed := ParseCalls(raw, testContent(), testAssets())

	assert.Empty(t, parsed.Calls)
	assert.Equal(t, 1, parsed.CandidateCount)
}

func TestParseCalls_BelowParseThresholdIsDiscarded(t *testing.T) {
	raw := `{"calls":[{"asset":"BTC","direction":"bullish","confidence":0.4}]}`

	parsed := ParseCalls(raw, testContent(), testAssets())

	assert.Empty(t, parsed.Calls)
	assert.Zero(t, parsed.CandidateCount)
}

func TestParseCalls_UnknownAssetIsDiscarded(t *testing.T) {
	raw := `{"calls":[{"asset":"DOGE","direction":"bullish","confidence":0.95}]}`

	parsed := ParseCalls(raw, testContent(), testAssets())

	assert.Empty(t, parsed.Calls)
	assert.Zero(t, parsed.CandidateCount)
}

func TestParseCalls_InvalidDirectionIsDiscarded(t *testing.T) {
	raw := `{"calls":[{"asset":"BTC","direction":"neutral","confidence":0.95}]}`

	parsed := ParseCalls(raw, testContent(), testAssets())

	assert.Empty(t, parsed.Calls)
	assert.Zero(t, parsed.CandidateCount)
}

func TestParseCalls_MalformedJSONYieldsNoCalls(t *testing.T) {
	parsed := ParseCalls(`not json at all`, testContent(), testAssets())

	assert.Empty(t, parsed.Calls)
	assert.Zero(t, parsed.CandidateCount)
}

func TestParseCalls_UnwrapsCodeFence(t *testing.T) {
	raw := "```json\n{\"calls\":[{\"asset\":\"BTC\",\"direction\":\"bullish\",\"confidence\":0.8,\"quote\":\"long BTC\"}]}\n```"

	parsed := ParseCalls(raw, testContent(), testAssets())

	require.Len(t, parsed.Calls, 1)
	assert.Equal(t, "long BTC", parsed.Calls[0].Quote)
}

func TestParseCalls_TruncatesLongQuotes(t *testing.T) {
	quote := make([]byte, 0, 300)
	for i := 0; i < 300; i++ {
		quote = append(quote, 'a')
	}
	raw := `{"calls":[{"asset":"BTC","direction":"bullish","confidence":0.9,"quote":"` + string(quote) + `"}]}`

	parsed := ParseCalls(raw, testContent(), testAssets())

	require.Len(t, parsed.Calls, 1)
	assert.Len(t, parsed.Calls[0].Quote, maxQuoteLength)
}

func TestParseCalls_CalledAtFallsBackToIngestTime(t *testing.T) {
	content := testContent()
	content.PublishedAt = nil
	content.CreatedAt = time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	raw := `{"calls":[{"asset":"BTC","direction":"bullish","confidence":0.9}]}`

	parsed := ParseCalls(raw, content, testAssets())

	require.Len(t, parsed.Calls, 1)
	assert.Equal(t, content.CreatedAt, parsed.Calls[0].CalledAt)
}
