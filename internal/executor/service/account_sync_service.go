package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/squammynoodles/influenza/internal/entity"
	"github.com/squammynoodles/influenza/internal/executor/config"
	"github.com/squammynoodles/influenza/internal/executor/dto"
	"github.com/squammynoodles/influenza/internal/executor/repository"
	"github.com/squammynoodles/influenza/pkg/common"
	"github.com/squammynoodles/influenza/pkg/logger"
	"github.com/squammynoodles/influenza/pkg/telegram"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// defaultSyncWindow bounds the first sync of an account so a channel with
// years of uploads does not flood the pipeline.
const defaultSyncWindow = 7 * 24 * time.Hour

// AccountSyncService pulls recent content for one tracked account into the
// contents table and enqueues extraction for new rows.
type AccountSyncService interface {
	ProcessTask(ctx context.Context)
	ProcessRetries(ctx context.Context)
	Sync(ctx context.Context, accountType string, accountID uint) error
}

type accountSyncService struct {
	cfg             *config.Config
	log             *logger.Logger
	redisClient     *redis.Client
	channelRepo     repository.YoutubeChannelRepository
	twitterAcctRepo repository.TwitterAccountRepository
	contentRepo     repository.ContentRepository
	videoRepo       repository.VideoRepository
	transcriptRepo  repository.TranscriptRepository
	tweetRepo       repository.TweetRepository
	telegramBot     telegram.Notifier
}

// NewAccountSyncService creates a new AccountSyncService.
func NewAccountSyncService(cfg *config.Config, log *logger.Logger,
	redisClient *redis.Client,
	channelRepo repository.YoutubeChannelRepository,
	twitterAcctRepo repository.TwitterAccountRepository,
	contentRepo repository.ContentRepository,
	videoRepo repository.VideoRepository,
	transcriptRepo repository.TranscriptRepository,
	tweetRepo repository.TweetRepository,
	telegramBot telegram.Notifier) AccountSyncService {
	return &accountSyncService{
		cfg:             cfg,
		log:             log,
		redisClient:     redisClient,
		channelRepo:     channelRepo,
		twitterAcctRepo: twitterAcctRepo,
		contentRepo:     contentRepo,
		videoRepo:       videoRepo,
		transcriptRepo:  transcriptRepo,
		tweetRepo:       tweetRepo,
		telegramBot:     telegramBot,
	}
}

func (s *accountSyncService) ProcessTask(ctx context.Context) {
	streams, err := s.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer,
		Streams:  []string{common.RedisStreamAccountSync, ">"},
		Count:    1,
		Block:    2 * time.Second,
	}).Result()
	if err != nil {
		if err == context.Canceled || err == redis.Nil {
			return
		}
		s.log.Error("Failed to read from stream", logger.ErrorField(err))
		return
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return
	}

	message := streams[0].Messages[0]
	streamData, ok := s.decodeMessage(message.ID, message.Values)
	if !ok {
		return
	}

	s.log.Debug("Processing account sync task",
		logger.StringField("account_type", streamData.AccountType),
		logger.Field("account_id", streamData.AccountID))

	if err := s.Sync(ctx, streamData.AccountType, streamData.AccountID); err != nil {
		s.log.Error("Failed to sync account", logger.ErrorField(err),
			logger.Field("message_id", message.ID),
			logger.StringField("account_type", streamData.AccountType),
			logger.Field("account_id", streamData.AccountID))
		return
	}

	if err := s.AckNDel(ctx, common.RedisStreamAccountSync, message.ID); err != nil {
		s.log.Error("Failed to acknowledge account sync task", logger.ErrorField(err), logger.Field("message_id", message.ID))
	}
}

// Sync fetches the account's items newer than its watermark and upserts them
// as content rows. The watermark only advances after a fully listed batch, so
// a provider failure means the same window is retried rather than silently
// skipped. Single item failures are logged and sacrificed to keep one bad row
// from wedging the whole account.
func (s *accountSyncService) Sync(ctx context.Context, accountType string, accountID uint) error {
	switch accountType {
	case entity.AccountTypeYoutubeChannel:
		return s.syncYoutubeChannel(ctx, accountID)
	case entity.AccountTypeTwitterAccount:
		return s.syncTwitterAccount(ctx, accountID)
	default:
		return fmt.Errorf("unknown account type: %s", accountType)
	}
}

func (s *accountSyncService) syncYoutubeChannel(ctx context.Context, channelID uint) error {
	channel, err := s.channelRepo.FindByID(ctx, channelID)
	if err != nil {
		// A deleted account cannot be synced by retrying, so the task is done.
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("Youtube channel no longer exists, discarding task", logger.Field("channel_id", channelID))
			return nil
		}
		return fmt.Errorf("failed to load youtube channel %d: %w", channelID, err)
	}

	syncStartedAt := time.Now().UTC()
	watermark := syncStartedAt.Add(-defaultSyncWindow)
	if channel.LastSyncedAt != nil {
		watermark = *channel.LastSyncedAt
	}

	videos, err := s.videoRepo.RecentVideos(ctx, channel, watermark)
	if err != nil {
		return fmt.Errorf("failed to list videos for channel %s: %w", channel.ChannelID, err)
	}

	created := 0
	for i := range videos {
		if s.saveVideo(ctx, channel, &videos[i]) {
			created++
		}
	}

	if err := s.channelRepo.UpdateLastSyncedAt(ctx, channel.ID, syncStartedAt); err != nil {
		return fmt.Errorf("failed to advance watermark for channel %d: %w", channel.ID, err)
	}

	s.log.Info("Youtube channel synced",
		logger.StringField("channel_id", channel.ChannelID),
		logger.IntField("videos", len(videos)),
		logger.IntField("created", created))
	return nil
}

// saveVideo upserts one video as content and reports whether a new row was
// created.
func (s *accountSyncService) saveVideo(ctx context.Context, channel *entity.YoutubeChannel, video *dto.VideoItem) bool {
	existing, err := s.contentRepo.FindByExternalID(ctx, entity.ContentTypeYoutubeVideo, video.VideoID)
	if err != nil {
		s.log.Error("Failed to look up video content", logger.ErrorField(err), logger.StringField("video_id", video.VideoID))
		return false
	}

	if existing != nil {
		changed := false
		if existing.Title != video.Title {
			existing.Title = video.Title
			changed = true
		}
		// A transcript can appear after publication once captions finish
		// processing. An already stored transcript is never overwritten.
		if existing.Transcript == "" {
			if transcript := s.fetchTranscript(ctx, video.VideoID); transcript != "" {
				existing.Transcript = transcript
				changed = true
			}
		}
		if changed {
			if err := s.contentRepo.Update(ctx, existing); err != nil {
				s.log.Error("Failed to update video content", logger.ErrorField(err), logger.StringField("video_id", video.VideoID))
			}
		}
		return false
	}

	publishedAt := video.PublishedAt
	metadata, _ := json.Marshal(map[string]interface{}{
		"channel_id":    channel.ChannelID,
		"thumbnail_url": video.ThumbnailURL,
	})

	content := &entity.Content{
		InfluencerID:     channel.InfluencerID,
		ContentType:      entity.ContentTypeYoutubeVideo,
		ExternalID:       video.VideoID,
		Title:            video.Title,
		Body:             video.Description,
		Transcript:       s.fetchTranscript(ctx, video.VideoID),
		PublishedAt:      &publishedAt,
		Metadata:         metadata,
		ExtractionStatus: entity.ExtractionStatusPending,
	}
	if err := s.contentRepo.Create(ctx, content); err != nil {
		s.log.Error("Failed to create video content", logger.ErrorField(err), logger.StringField("video_id", video.VideoID))
		return false
	}

	s.enqueueExtraction(ctx, content.ID)
	return true
}

// fetchTranscript returns the video's transcript or empty. Transcript absence
// is normal for fresh and caption-less videos and never fails a sync.
func (s *accountSyncService) fetchTranscript(ctx context.Context, videoID string) string {
	transcript, err := s.transcriptRepo.Fetch(ctx, videoID)
	if err != nil {
		s.log.Warn("Transcript not available", logger.StringField("video_id", videoID), logger.ErrorField(err))
		return ""
	}
	return transcript
}

func (s *accountSyncService) syncTwitterAccount(ctx context.Context, accountID uint) error {
	account, err := s.twitterAcctRepo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("Twitter account no longer exists, discarding task", logger.Field("account_id", accountID))
			return nil
		}
		return fmt.Errorf("failed to load twitter account %d: %w", accountID, err)
	}

	syncStartedAt := time.Now().UTC()
	watermark := syncStartedAt.Add(-defaultSyncWindow)
	if account.LastSyncedAt != nil {
		watermark = *account.LastSyncedAt
	}

	tweets, err := s.tweetRepo.RecentTweets(ctx, account.Username, watermark)
	if err != nil {
		return fmt.Errorf("failed to list tweets for %s: %w", account.Username, err)
	}

	created := 0
	for i := range tweets {
		if s.saveTweet(ctx, account, &tweets[i]) {
			created++
		}
	}

	if err := s.twitterAcctRepo.UpdateLastSyncedAt(ctx, account.ID, syncStartedAt); err != nil {
		return fmt.Errorf("failed to advance watermark for account %d: %w", account.ID, err)
	}

	s.log.Info("Twitter account synced",
		logger.StringField("username", account.Username),
		logger.IntField("tweets", len(tweets)),
		logger.IntField("created", created))
	return nil
}

func (s *accountSyncService) saveTweet(ctx context.Context, account *entity.TwitterAccount, tweet *dto.TweetItem) bool {
	existing, err := s.contentRepo.FindByExternalID(ctx, entity.ContentTypeTweet, tweet.TweetID)
	if err != nil {
		s.log.Error("Failed to look up tweet content", logger.ErrorField(err), logger.StringField("tweet_id", tweet.TweetID))
		return false
	}
	if existing != nil {
		return false
	}

	metadata, _ := json.Marshal(map[string]interface{}{
		"retweet_count": tweet.RetweetCount,
		"like_count":    tweet.LikeCount,
		"reply_count":   tweet.ReplyCount,
		"is_reply":      tweet.IsReply,
	})

	content := &entity.Content{
		InfluencerID:     account.InfluencerID,
		ContentType:      entity.ContentTypeTweet,
		ExternalID:       tweet.TweetID,
		Body:             tweet.Text,
		PublishedAt:      tweet.PublishedAt,
		Metadata:         metadata,
		ExtractionStatus: entity.ExtractionStatusPending,
	}
	if err := s.contentRepo.Create(ctx, content); err != nil {
		s.log.Error("Failed to create tweet content", logger.ErrorField(err), logger.StringField("tweet_id", tweet.TweetID))
		return false
	}

	s.enqueueExtraction(ctx, content.ID)
	return true
}

// enqueueExtraction publishes an extraction task for a freshly created row.
// Failure is tolerated: the pending-content sweep enqueues leftovers on its
// next run.
func (s *accountSyncService) enqueueExtraction(ctx context.Context, contentID uint) {
	payload, err := json.Marshal(dto.StreamDataCallExtraction{ContentID: contentID})
	if err != nil {
		s.log.Error("Failed to marshal extraction task", logger.ErrorField(err), logger.Field("content_id", contentID))
		return
	}
	err = s.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: common.RedisStreamCallExtraction,
		MaxLen: s.cfg.Redis.StreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"payload": string(payload)},
	}).Err()
	if err != nil {
		s.log.Error("Failed to enqueue extraction task", logger.ErrorField(err), logger.Field("content_id", contentID))
	}
}

func (s *accountSyncService) decodeMessage(messageID string, values map[string]interface{}) (*dto.StreamDataAccountSync, bool) {
	taskData, ok := values["payload"].(string)
	if !ok {
		s.log.Error("field 'payload' not found or not a string in stream message", logger.Field("message_id", messageID))
		return nil, false
	}

	var streamData dto.StreamDataAccountSync
	if err := json.Unmarshal([]byte(taskData), &streamData); err != nil {
		s.log.Error("Failed to unmarshal task data", logger.ErrorField(err), logger.Field("message_id", messageID))
		return nil, false
	}
	return &streamData, true
}

func (s *accountSyncService) AckNDel(ctx context.Context, streamName string, messageID string) error {
	if err := s.redisClient.XAck(ctx, streamName, common.RedisStreamGroup, messageID).Err(); err != nil {
		return err
	}
	return s.redisClient.XDel(ctx, streamName, messageID).Err()
}

func (s *accountSyncService) ProcessRetries(ctx context.Context) {
	msgs, _, err := s.redisClient.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   common.RedisStreamAccountSync,
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer + "-retry",
		MinIdle:  s.cfg.Executor.RedisStreamAccountSyncMaxIdleDuration,
		Start:    "0",
		Count:    1,
	}).Result()
	if err != nil {
		s.log.Error("Failed to claim account sync task on retry", logger.ErrorField(err))
		return
	}
	if len(msgs) == 0 {
		s.log.Debug("Retry no pending messages found", logger.StringField("stream", common.RedisStreamAccountSync))
		return
	}

	msg := msgs[0]
	pendingInfo, err := s.redisClient.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: common.RedisStreamAccountSync,
		Group:  common.RedisStreamGroup,
		Start:  msg.ID,
		End:    msg.ID,
		Count:  1,
	}).Result()
	if err != nil {
		s.log.Error("Failed to get pending info", logger.ErrorField(err))
		return
	}
	if len(pendingInfo) == 0 {
		s.log.Warn("pending msg not found, but exist on xautoclaim",
			logger.StringField("stream", common.RedisStreamAccountSync),
			logger.StringField("message_id", msg.ID))
		return
	}

	streamData, ok := s.decodeMessage(msg.ID, msg.Values)
	if !ok {
		return
	}

	if pendingInfo[0].RetryCount >= int64(s.cfg.Executor.RedisStreamAccountSyncMaxRetry) {
		s.log.Error("pending msg retry count exceeded",
			logger.StringField("stream", common.RedisStreamAccountSync),
			logger.StringField("message_id", msg.ID),
			logger.StringField("account_type", streamData.AccountType),
			logger.Field("account_id", streamData.AccountID),
			logger.IntField("retry_count", int(pendingInfo[0].RetryCount)),
			logger.IntField("max_retry", s.cfg.Executor.RedisStreamAccountSyncMaxRetry))
		alert := telegram.FormatErrorAlertMessage(time.Now(), fmt.Sprintf("Account sync retry count exceeded for %s %d", streamData.AccountType, streamData.AccountID))
		if err := s.telegramBot.SendMessage(alert); err != nil {
			s.log.Error("Failed to send telegram message retry exceeded", logger.ErrorField(err), logger.Field("account_id", streamData.AccountID))
		}
		if err := s.AckNDel(ctx, common.RedisStreamAccountSync, msg.ID); err != nil {
			s.log.Error("Failed to acknowledge account sync task", logger.ErrorField(err), logger.Field("message_id", msg.ID))
		}
		return
	}

	if err := s.Sync(ctx, streamData.AccountType, streamData.AccountID); err != nil {
		s.log.Error("Failed to sync account on retry", logger.ErrorField(err),
			logger.Field("message_id", msg.ID),
			logger.StringField("account_type", streamData.AccountType),
			logger.Field("account_id", streamData.AccountID))
		return
	}

	if err := s.AckNDel(ctx, common.RedisStreamAccountSync, msg.ID); err != nil {
		s.log.Error("Failed to acknowledge account sync task", logger.ErrorField(err), logger.Field("message_id", msg.ID))
		return
	}
	s.log.Info("Retry account sync task processed successfully",
		logger.StringField("account_type", streamData.AccountType),
		logger.Field("account_id", streamData.AccountID))
}
