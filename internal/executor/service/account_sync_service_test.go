package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/squammynoodles/influenza/internal/entity"
	"github.com/squammynoodles/influenza/internal/executor/config"
	"github.com/squammynoodles/influenza/internal/executor/dto"
	"github.com/squammynoodles/influenza/internal/executor/repository"
	"github.com/squammynoodles/influenza/pkg/logger"

	goRedis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeVideoRepo struct {
	videos []dto.VideoItem
	err    error
	since  time.Time
}

func (f *fakeVideoRepo) RecentVideos(_ context.Context, _ *entity.YoutubeChannel, publishedAfter time.Time) ([]dto.VideoItem, error) {
	f.since = publishedAfter
	return f.videos, f.err
}

type fakeTranscriptRepo struct {
	transcripts map[string]string
}

func (f *fakeTranscriptRepo) Fetch(_ context.Context, videoID string) (string, error) {
	if transcript, ok := f.transcripts[videoID]; ok {
		return transcript, nil
	}
	return "", repository.ErrTranscriptUnavailable
}

type fakeTweetRepo struct {
	tweets []dto.TweetItem
	err    error
	since  time.Time
}

func (f *fakeTweetRepo) RecentTweets(_ context.Context, _ string, since time.Time) ([]dto.TweetItem, error) {
	f.since = since
	return f.tweets, f.err
}

type syncFixture struct {
	svc             AccountSyncService
	db              *gorm.DB
	channelRepo     repository.YoutubeChannelRepository
	twitterAcctRepo repository.TwitterAccountRepository
	contentRepo     repository.ContentRepository
	videoRepo       *fakeVideoRepo
	transcriptRepo  *fakeTranscriptRepo
	tweetRepo       *fakeTweetRepo
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entity.Content{}, &entity.YoutubeChannel{}, &entity.TwitterAccount{}))

	log, err := logger.New("error", "console")
	require.NoError(t, err)

	// Extraction enqueues are fire-and-forget; an unreachable broker only
	// produces an error log.
	redisClient := goRedis.NewClient(&goRedis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 10 * time.Millisecond,
	})

	f := &syncFixture{
		db:              db,
		channelRepo:     repository.NewYoutubeChannelRepository(db),
		twitterAcctRepo: repository.NewTwitterAccountRepository(db),
		contentRepo:     repository.NewContentRepository(db),
		videoRepo:       &fakeVideoRepo{},
		transcriptRepo:  &fakeTranscriptRepo{transcripts: map[string]string{}},
		tweetRepo:       &fakeTweetRepo{},
	}
	f.svc = NewAccountSyncService(&config.Config{}, log, redisClient,
		f.channelRepo, f.twitterAcctRepo, f.contentRepo,
		f.videoRepo, f.transcriptRepo, f.tweetRepo, &fakeNotifier{})
	return f
}

func timePtr(v time.Time) *time.Time { return &v }

func TestSync_TwitterCreatesContent(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	account := &entity.TwitterAccount{InfluencerID: 3, Username: "ava"}
	require.NoError(t, f.db.Create(account).Error)

	publishedAt := time.Now().UTC().Add(-time.Hour)
	f.tweetRepo.tweets = []dto.TweetItem{
		{TweetID: "tw-1", Text: "BTC to 100k", PublishedAt: &publishedAt, LikeCount: 42},
	}

	require.NoError(t, f.svc.Sync(ctx, entity.AccountTypeTwitterAccount, account.ID))

	content, err := f.contentRepo.FindByExternalID(ctx, entity.ContentTypeTweet, "tw-1")
	require.NoError(t, err)
	require.NotNil(t, content)
	assert.Equal(t, uint(3), content.InfluencerID)
	assert.Equal(t, "BTC to 100k", content.Body)
	assert.Equal(t, entity.ExtractionStatusPending, content.ExtractionStatus)

	reloaded, err := f.twitterAcctRepo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.NotNil(t, reloaded.LastSyncedAt, "watermark advances after a successful batch")
}

func TestSync_TwitterListingFailureKeepsWatermark(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	lastSynced := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Second)
	account := &entity.TwitterAccount{InfluencerID: 3, Username: "ava", LastSyncedAt: timePtr(lastSynced)}
	require.NoError(t, f.db.Create(account).Error)

	f.tweetRepo.err = errors.New("provider down")

	require.Error(t, f.svc.Sync(ctx, entity.AccountTypeTwitterAccount, account.ID))

	reloaded, err := f.twitterAcctRepo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastSyncedAt)
	assert.Equal(t, lastSynced.Unix(), reloaded.LastSyncedAt.Unix(), "watermark must not move when listing fails")
}

func TestSync_TwitterUsesWatermarkAsCutoff(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	lastSynced := time.Now().UTC().Add(-2 * time.Hour).Truncate(time.Second)
	account := &entity.TwitterAccount{InfluencerID: 3, Username: "ava", LastSyncedAt: timePtr(lastSynced)}
	require.NoError(t, f.db.Create(account).Error)

	require.NoError(t, f.svc.Sync(ctx, entity.AccountTypeTwitterAccount, account.ID))

	assert.Equal(t, lastSynced.Unix(), f.tweetRepo.since.Unix())
}

func TestSync_TwitterSkipsExistingTweets(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	account := &entity.TwitterAccount{InfluencerID: 3, Username: "ava"}
	require.NoError(t, f.db.Create(account).Error)

	require.NoError(t, f.contentRepo.Create(ctx, &entity.Content{
		InfluencerID:     3,
		ContentType:      entity.ContentTypeTweet,
		ExternalID:       "tw-1",
		Body:             "original body",
		ExtractionStatus: entity.ExtractionStatusCompleted,
	}))

	f.tweetRepo.tweets = []dto.TweetItem{{TweetID: "tw-1", Text: "same tweet again"}}

	require.NoError(t, f.svc.Sync(ctx, entity.AccountTypeTwitterAccount, account.ID))

	content, err := f.contentRepo.FindByExternalID(ctx, entity.ContentTypeTweet, "tw-1")
	require.NoError(t, err)
	assert.Equal(t, "original body", content.Body)
	assert.Equal(t, entity.ExtractionStatusCompleted, content.ExtractionStatus)
}

func TestSync_YoutubeCreatesContentWithTranscript(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	channel := &entity.YoutubeChannel{InfluencerID: 3, ChannelID: "UC123"}
	require.NoError(t, f.db.Create(channel).Error)

	f.videoRepo.videos = []dto.VideoItem{
		{VideoID: "vid-1", Title: "Market Update", Description: "desc", PublishedAt: time.Now().UTC().Add(-time.Hour)},
	}
	f.transcriptRepo.transcripts["vid-1"] = "bitcoin is going much higher"

	require.NoError(t, f.svc.Sync(ctx, entity.AccountTypeYoutubeChannel, channel.ID))

	content, err := f.contentRepo.FindByExternalID(ctx, entity.ContentTypeYoutubeVideo, "vid-1")
	require.NoError(t, err)
	require.NotNil(t, content)
	assert.Equal(t, "Market Update", content.Title)
	assert.Equal(t, "bitcoin is going much higher", content.Transcript)
	assert.Equal(t, entity.ExtractionStatusPending, content.ExtractionStatus)
}

func TestSync_YoutubeBackfillsMissingTranscript(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	channel := &entity.YoutubeChannel{InfluencerID: 3, ChannelID: "UC123"}
	require.NoError(t, f.db.Create(channel).Error)

	require.NoError(t, f.contentRepo.Create(ctx, &entity.Content{
		InfluencerID:     3,
		ContentType:      entity.ContentTypeYoutubeVideo,
		ExternalID:       "vid-1",
		Title:            "Market Update",
		ExtractionStatus: entity.ExtractionStatusNoTranscript,
	}))

	f.videoRepo.videos = []dto.VideoItem{
		{VideoID: "vid-1", Title: "Market Update", PublishedAt: time.Now().UTC().Add(-time.Hour)},
	}
	f.transcriptRepo.transcripts["vid-1"] = "captions finished processing"

	require.NoError(t, f.svc.Sync(ctx, entity.AccountTypeYoutubeChannel, channel.ID))

	content, err := f.contentRepo.FindByExternalID(ctx, entity.ContentTypeYoutubeVideo, "vid-1")
	require.NoError(t, err)
	assert.Equal(t, "captions finished processing", content.Transcript)
}

func TestSync_YoutubeNeverOverwritesTranscript(t *testing.T) {
	f := newSyncFixture(t)
	ctx := context.Background()

	channel := &entity.YoutubeChannel{InfluencerID: 3, ChannelID: "UC123"}
	require.NoError(t, f.db.Create(channel).Error)

	require.NoError(t, f.contentRepo.Create(ctx, &entity.Content{
		InfluencerID:     3,
		ContentType:      entity.ContentTypeYoutubeVideo,
		ExternalID:       "vid-1",
		Title:            "Market Update",
		Transcript:       "the original transcript",
		ExtractionStatus: entity.ExtractionStatusCompleted,
	}))

	f.videoRepo.videos = []dto.VideoItem{
		{VideoID: "vid-1", Title: "Market Update", PublishedAt: time.Now().UTC().Add(-time.Hour)},
	}
	f.transcriptRepo.transcripts["vid-1"] = "a different transcript"

	require.NoError(t, f.svc.Sync(ctx, entity.AccountTypeYoutubeChannel, channel.ID))

	content, err := f.contentRepo.FindByExternalID(ctx, entity.ContentTypeYoutubeVideo, "vid-1")
	require.NoError(t, err)
	assert.Equal(t, "the original transcript", content.Transcript)
}

func TestSync_DeletedAccountIsDiscarded(t *testing.T) {
	f := newSyncFixture(t)

	// A nil error acks the message instead of leaving it for the retry claimer.
	require.NoError(t, f.svc.Sync(context.Background(), entity.AccountTypeYoutubeChannel, 999))
	require.NoError(t, f.svc.Sync(context.Background(), entity.AccountTypeTwitterAccount, 999))

	assert.True(t, f.videoRepo.since.IsZero())
	assert.True(t, f.tweetRepo.since.IsZero())
}

func TestSync_UnknownAccountType(t *testing.T) {
	f := newSyncFixture(t)

	err := f.svc.Sync(context.Background(), "myspace_page", 1)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown account type")
}
