package dto

import "time"

// VideoItem is a normalized video from a channel's uploads.
type VideoItem struct {
	VideoID      string
	Title        string
	Description  string
	PublishedAt  time.Time
	ThumbnailURL string
}

// PlaylistItemsResponse is the YouTube Data API playlistItems list response.
type PlaylistItemsResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Thumbnails  struct {
				Medium struct {
					URL string `json:"url"`
				} `json:"medium"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		ContentDetails struct {
			VideoID          string `json:"videoId"`
			VideoPublishedAt string `json:"videoPublishedAt"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// CaptionTrack is one entry in a video's caption track list.
type CaptionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
}
