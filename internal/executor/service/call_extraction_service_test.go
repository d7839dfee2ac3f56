package service

import (
	"context"
	"errors"
	"testing"

	"github.com/squammynoodles/influenza/internal/entity"
	"github.com/squammynoodles/influenza/internal/executor/config"
	"github.com/squammynoodles/influenza/internal/executor/dto"
	"github.com/squammynoodles/influenza/internal/executor/repository"
	"github.com/squammynoodles/influenza/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeAIRepo struct {
	result *dto.ExtractionResult
	err    error
	calls  int
}

func (f *fakeAIRepo) ExtractCalls(_ context.Context, _ *entity.Content, _ []entity.Asset) (*dto.ExtractionResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeAssetRepo struct {
	assets []entity.Asset
}

func (f *fakeAssetRepo) GetAll(context.Context) ([]entity.Asset, error)        { return f.assets, nil }
func (f *fakeAssetRepo) FindByID(context.Context, uint) (*entity.Asset, error) { return nil, nil }
func (f *fakeAssetRepo) FindWithCalls(context.Context) ([]entity.Asset, error) { return nil, nil }

type fakeInfluencerRepo struct {
	influencer *entity.Influencer
	err        error
}

func (f *fakeInfluencerRepo) FindByID(context.Context, uint) (*entity.Influencer, error) {
	return f.influencer, f.err
}

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) SendMessage(text string) error {
	f.messages = append(f.messages, text)
	return nil
}

type extractionFixture struct {
	svc         CallExtractionService
	contentRepo repository.ContentRepository
	callRepo    repository.CallRepository
	aiRepo      *fakeAIRepo
	notifier    *fakeNotifier
}

func newExtractionFixture(t *testing.T, aiRepo *fakeAIRepo) *extractionFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entity.Content{}, &entity.Call{}))

	log, err := logger.New("error", "console")
	require.NoError(t, err)

	contentRepo := repository.NewContentRepository(db)
	callRepo := repository.NewCallRepository(db)
	notifier := &fakeNotifier{}
	assetRepo := &fakeAssetRepo{assets: []entity.Asset{
		{ID: 1, Symbol: "BTC", Name: "Bitcoin", AssetClass: entity.AssetClassCrypto},
	}}
	influencerRepo := &fakeInfluencerRepo{influencer: &entity.Influencer{ID: 5, Name: "Ava Trader"}}

	svc := NewCallExtractionService(&config.Config{}, log, nil, aiRepo, contentRepo, callRepo, assetRepo, influencerRepo, notifier)

	return &extractionFixture{
		svc:         svc,
		contentRepo: contentRepo,
		callRepo:    callRepo,
		aiRepo:      aiRepo,
		notifier:    notifier,
	}
}

func (f *extractionFixture) createContent(t *testing.T, content *entity.Content) *entity.Content {
	t.Helper()
	require.NoError(t, f.contentRepo.Create(context.Background(), content))
	return content
}

func TestExtract_CompletedWithCalls(t *testing.T) {
	aiRepo := &fakeAIRepo{result: &dto.ExtractionResult{
		RawJSON:     `{"calls":[{"asset":"BTC","direction":"bullish","confidence":0.9,"quote":"buying BTC here"}]}`,
		TotalTokens: 120,
	}}
	f := newExtractionFixture(t, aiRepo)

	content := f.createContent(t, &entity.Content{
		InfluencerID:     5,
		ContentType:      entity.ContentTypeTweet,
		ExternalID:       "tw-1",
		Body:             "I'm buying BTC here",
		ExtractionStatus: entity.ExtractionStatusPending,
	})

	require.NoError(t, f.svc.Extract(context.Background(), content.ID))

	reloaded, err := f.contentRepo.FindByID(context.Background(), content.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ExtractionStatusCompleted, reloaded.ExtractionStatus)
	assert.NotNil(t, reloaded.CallsExtractedAt)

	calls, err := f.callRepo.FindByContentID(context.Background(), content.ID)
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, entity.DirectionBullish, calls[0].Direction)
	assert.Equal(t, 0.9, calls[0].Confidence)

	require.Len(t, f.notifier.messages, 1)
	assert.Contains(t, f.notifier.messages[0], "Ava Trader")
	assert.Contains(t, f.notifier.messages[0], "BTC")
}

func TestExtract_LowConfidenceBand(t *testing.T) {
	aiRepo := &fakeAIRepo{result: &dto.ExtractionResult{
		RawJSON: `{"calls":[{"asset":"BTC","direction":"bullish","confidence":0.6}]}`,
	}}
	f := newExtractionFixture(t, aiRepo)

	content := f.createContent(t, &entity.Content{
		InfluencerID:     5,
		ContentType:      entity.ContentTypeTweet,
		ExternalID:       "tw-1",
		Body:             "BTC might be fine",
		ExtractionStatus: entity.ExtractionStatusPending,
	})

	require.NoError(t, f.svc.Extract(context.Background(), content.ID))

	reloaded, err := f.contentRepo.FindByID(context.Background(), content.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ExtractionStatusLowConfidence, reloaded.ExtractionStatus)

	calls, err := f.callRepo.FindByContentID(context.Background(), content.ID)
	require.NoError(t, err)
	assert.Empty(t, calls)
	assert.Empty(t, f.notifier.messages)
}

func TestExtract_NoCalls(t *testing.T) {
	aiRepo := &fakeAIRepo{result: &dto.ExtractionResult{RawJSON: `{"calls":[]}`}}
	f := newExtractionFixture(t, aiRepo)

	content := f.createContent(t, &entity.Content{
		InfluencerID:     5,
		ContentType:      entity.ContentTypeTweet,
		ExternalID:       "tw-1",
		Body:             "gm everyone",
		ExtractionStatus: entity.ExtractionStatusPending,
	})

	require.NoError(t, f.svc.Extract(context.Background(), content.ID))

	reloaded, err := f.contentRepo.FindByID(context.Background(), content.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ExtractionStatusNoCalls, reloaded.ExtractionStatus)
}

func TestExtract_CompletedContentIsNoOp(t *testing.T) {
	aiRepo := &fakeAIRepo{result: &dto.ExtractionResult{RawJSON: `{"calls":[]}`}}
	f := newExtractionFixture(t, aiRepo)

	content := f.createContent(t, &entity.Content{
		InfluencerID:     5,
		ContentType:      entity.ContentTypeTweet,
		ExternalID:       "tw-1",
		Body:             "BTC up only",
		ExtractionStatus: entity.ExtractionStatusCompleted,
	})

	require.NoError(t, f.svc.Extract(context.Background(), content.ID))

	assert.Zero(t, f.aiRepo.calls, "redelivered completed content must not hit the model again")
}

func TestExtract_VideoWithoutTranscript(t *testing.T) {
	aiRepo := &fakeAIRepo{}
	f := newExtractionFixture(t, aiRepo)

	content := f.createContent(t, &entity.Content{
		InfluencerID:     5,
		ContentType:      entity.ContentTypeYoutubeVideo,
		ExternalID:       "vid-1",
		Body:             "video description is not enough",
		ExtractionStatus: entity.ExtractionStatusPending,
	})

	require.NoError(t, f.svc.Extract(context.Background(), content.ID))

	reloaded, err := f.contentRepo.FindByID(context.Background(), content.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ExtractionStatusNoTranscript, reloaded.ExtractionStatus)
	assert.Zero(t, f.aiRepo.calls)
}

func TestExtract_EmptyTweetBody(t *testing.T) {
	aiRepo := &fakeAIRepo{}
	f := newExtractionFixture(t, aiRepo)

	content := f.createContent(t, &entity.Content{
		InfluencerID:     5,
		ContentType:      entity.ContentTypeTweet,
		ExternalID:       "tw-1",
		Body:             "   ",
		ExtractionStatus: entity.ExtractionStatusPending,
	})

	require.NoError(t, f.svc.Extract(context.Background(), content.ID))

	reloaded, err := f.contentRepo.FindByID(context.Background(), content.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ExtractionStatusNoContent, reloaded.ExtractionStatus)
}

func TestExtract_ModelErrorMarksFailedAndPropagates(t *testing.T) {
	aiRepo := &fakeAIRepo{err: errors.New("upstream timeout")}
	f := newExtractionFixture(t, aiRepo)

	content := f.createContent(t, &entity.Content{
		InfluencerID:     5,
		ContentType:      entity.ContentTypeTweet,
		ExternalID:       "tw-1",
		Body:             "BTC looking strong",
		ExtractionStatus: entity.ExtractionStatusPending,
	})

	err := f.svc.Extract(context.Background(), content.ID)
	require.Error(t, err)

	reloaded, findErr := f.contentRepo.FindByID(context.Background(), content.ID)
	require.NoError(t, findErr)
	assert.Equal(t, entity.ExtractionStatusFailed, reloaded.ExtractionStatus)
}

func TestExtract_DeletedContentIsDiscarded(t *testing.T) {
	aiRepo := &fakeAIRepo{}
	f := newExtractionFixture(t, aiRepo)

	// A nil error acks the message instead of leaving it for the retry claimer.
	require.NoError(t, f.svc.Extract(context.Background(), 999))
	assert.Equal(t, 0, aiRepo.calls)
}

func TestExtract_MalformedModelOutputIsNoCalls(t *testing.T) {
	aiRepo := &fakeAIRepo{result: &dto.ExtractionResult{RawJSON: `the model rambled instead of emitting JSON`}}
	f := newExtractionFixture(t, aiRepo)

	content := f.createContent(t, &entity.Content{
		InfluencerID:     5,
		ContentType:      entity.ContentTypeTweet,
		ExternalID:       "tw-1",
		Body:             "BTC thoughts",
		ExtractionStatus: entity.ExtractionStatusPending,
	})

	require.NoError(t, f.svc.Extract(context.Background(), content.ID))

	reloaded, err := f.contentRepo.FindByID(context.Background(), content.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.ExtractionStatusNoCalls, reloaded.ExtractionStatus)
}
