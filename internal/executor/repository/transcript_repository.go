package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/squammynoodles/influenza/internal/executor/config"
	"github.com/squammynoodles/influenza/internal/executor/dto"
	"github.com/squammynoodles/influenza/pkg/logger"

	"github.com/PuerkitoBio/goquery"
)

var (
	captionTracksPattern = regexp.MustCompile(`"captionTracks":\s*(\[[^\]]+\])`)
	markupTagPattern     = regexp.MustCompile(`<[^>]+>`)
	cueIndexPattern      = regexp.MustCompile(`^\d+$`)
)

// transcriptRepository fetches and normalizes video transcripts from the
// caption tracks embedded in the watch page. Transcript absence and transient
// fetch failures are deliberately not distinguished: either way the caller
// stores the video without a transcript.
type transcriptRepository struct {
	cfg    *config.Config
	logger *logger.Logger
	client *http.Client
}

// NewTranscriptRepository creates a new transcript repository.
func NewTranscriptRepository(cfg *config.Config, log *logger.Logger) TranscriptRepository {
	return &transcriptRepository{
		cfg:    cfg,
		logger: log,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Fetch returns the plain-text transcript for the video, or
// ErrTranscriptUnavailable.
func (r *transcriptRepository) Fetch(ctx context.Context, videoID string) (string, error) {
	pageHTML, err := r.get(ctx, fmt.Sprintf("%s?v=%s", r.cfg.YouTube.WatchBaseURL, url.QueryEscape(videoID)))
	if err != nil {
		return "", fmt.Errorf("%w: failed to fetch watch page for %s: %v", ErrTranscriptUnavailable, videoID, err)
	}

	tracks := extractCaptionTracks(pageHTML)
	if len(tracks) == 0 {
		return "", fmt.Errorf("%w: no captions found for video %s", ErrTranscriptUnavailable, videoID)
	}

	track := SelectCaptionTrack(tracks)

	payload, err := r.get(ctx, track.BaseURL)
	if err != nil {
		return "", fmt.Errorf("%w: failed to fetch captions for %s: %v", ErrTranscriptUnavailable, videoID, err)
	}

	transcript := ParseCaptionPayload(payload)
	if transcript == "" {
		return "", fmt.Errorf("%w: empty captions for video %s", ErrTranscriptUnavailable, videoID)
	}

	return transcript, nil
}

func (r *transcriptRepository) get(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// extractCaptionTracks pulls the caption track list JSON out of the watch
// page's embedded player response.
func extractCaptionTracks(pageHTML string) []dto.CaptionTrack {
	match := captionTracksPattern.FindStringSubmatch(pageHTML)
	if match == nil {
		return nil
	}

	var tracks []dto.CaptionTrack
	if err := json.Unmarshal([]byte(match[1]), &tracks); err != nil {
		return nil
	}
	return tracks
}

// SelectCaptionTrack picks an exact "en" track, else the first track whose
// language code starts with "en", else the first available track.
func SelectCaptionTrack(tracks []dto.CaptionTrack) dto.CaptionTrack {
	for _, t := range tracks {
		if t.LanguageCode == "en" {
			return t
		}
	}
	for _, t := range tracks {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t
		}
	}
	return tracks[0]
}

// ParseCaptionPayload normalizes a caption payload into one plain-text
// transcript: cue timing and cue index lines are stripped, inline markup
// removed, consecutive duplicate lines (an auto-caption artifact) collapsed,
// and whitespace runs reduced to single spaces.
func ParseCaptionPayload(payload string) string {
	var lines []string
	if strings.Contains(payload, "<text") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(payload)); err == nil {
			doc.Find("text").Each(func(_ int, s *goquery.Selection) {
				lines = append(lines, s.Text())
			})
		}
	}
	if lines == nil {
		lines = strings.Split(payload, "\n")
	}

	var cleaned []string
	previous := ""
	for _, line := range lines {
		line = markupTagPattern.ReplaceAllString(line, "")
		line = html.UnescapeString(line)
		line = strings.TrimSpace(line)

		if line == "" || line == "WEBVTT" {
			continue
		}
		if strings.Contains(line, "-->") {
			continue
		}
		if cueIndexPattern.MatchString(line) {
			continue
		}
		if line == previous {
			continue
		}

		cleaned = append(cleaned, line)
		previous = line
	}

	return strings.Join(strings.Fields(strings.Join(cleaned, " ")), " ")
}
