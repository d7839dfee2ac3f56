package dto

import "time"

// TweetsResponse is the twitterapi.io user/last_tweets response.
type TweetsResponse struct {
	Tweets      []TweetData `json:"tweets"`
	HasNextPage bool        `json:"has_next_page"`
	NextCursor  string      `json:"next_cursor"`
}

// TweetData is one raw tweet from the provider.
type TweetData struct {
	ID           string `json:"id"`
	Text         string `json:"text"`
	CreatedAt    string `json:"createdAt"`
	RetweetCount int    `json:"retweetCount"`
	LikeCount    int    `json:"likeCount"`
	ReplyCount   int    `json:"replyCount"`
	IsRetweet    bool   `json:"isRetweet"`
	InReplyToID  string `json:"inReplyToId"`
}

// TweetItem is a normalized tweet ready for persistence.
type TweetItem struct {
	TweetID      string
	Text         string
	PublishedAt  *time.Time
	RetweetCount int
	LikeCount    int
	ReplyCount   int
	IsRetweet    bool
	IsReply      bool
}
