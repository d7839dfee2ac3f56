package repository

import (
	"strings"
	"testing"

	"github.com/squammynoodles/influenza/internal/entity"

	"github.com/stretchr/testify/assert"
)

func TestBuildSystemPrompt_ListsAssetsAndAliases(t *testing.T) {
	assets := []entity.Asset{
		{Symbol: "BTC", Name: "Bitcoin", Aliases: []string{"bitcoin", "btc"}},
		{Symbol: "SPY", Name: "S&P 500 ETF", Aliases: []string{"s&p 500"}},
	}

	prompt := BuildSystemPrompt(assets)

	assert.Contains(t, prompt, "BTC, SPY")
	assert.Contains(t, prompt, "- bitcoin = BTC")
	assert.Contains(t, prompt, "- s&p 500 = SPY")
	assert.Contains(t, prompt, `"calls": []`)
}

func TestBuildUserPrompt_VideoUsesTranscript(t *testing.T) {
	content := &entity.Content{
		ContentType: entity.ContentTypeYoutubeVideo,
		Title:       "Market Update",
		Body:        "description that must not be analyzed",
		Transcript:  "bitcoin is going much higher",
	}

	prompt := BuildUserPrompt(content)

	assert.Contains(t, prompt, "Market Update")
	assert.Contains(t, prompt, "bitcoin is going much higher")
	assert.NotContains(t, prompt, "description that must not be analyzed")
}

func TestBuildUserPrompt_TweetUsesBody(t *testing.T) {
	content := &entity.Content{
		ContentType: entity.ContentTypeTweet,
		Body:        "BTC to 100k",
	}

	prompt := BuildUserPrompt(content)

	assert.Contains(t, prompt, "BTC to 100k")
}

func TestBuildUserPrompt_TruncatesLongTranscripts(t *testing.T) {
	content := &entity.Content{
		ContentType: entity.ContentTypeYoutubeVideo,
		Title:       "Endless Stream",
		Transcript:  strings.Repeat("a", MaxContentLength+5000),
	}

	prompt := BuildUserPrompt(content)

	assert.Len(t, prompt, MaxContentLength)
}
