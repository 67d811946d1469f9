package services

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/AtRiskMedia/vibecheck-go/internal/domain/apperrors"
	"github.com/AtRiskMedia/vibecheck-go/internal/domain/entities/session"
	"github.com/AtRiskMedia/vibecheck-go/internal/domain/entities/vibe"
)

// Share platforms for analysis results.
const (
	SharePlatformStory = "story"
	SharePlatformTweet = "tweet"
	SharePlatformLink  = "link"
)

const tweetIntentURL = "https://twitter.com/intent/tweet?text="

// ShareLink is what the browser needs to share a result.
type ShareLink struct {
	Platform string `json:"platform"`
	Text     string `json:"text"`
	URL      string `json:"url,omitempty"`
}

// ShareService builds share text and URLs.
type ShareService struct {
	instagramBaseURL string
}

// NewShareService creates a share service for the given Instagram web origin.
func NewShareService(instagramBaseURL string) *ShareService {
	if instagramBaseURL == "" {
		instagramBaseURL = "https://www.instagram.com"
	}
	return &ShareService{instagramBaseURL: strings.TrimRight(instagramBaseURL, "/")}
}

// ShareText is the canned brag line for a result.
func (s *ShareService) ShareText(result *vibe.AnalysisResult) string {
	top, _ := result.TopPersona()
	return fmt.Sprintf("Just got a %d vibe score on VibeCheck AI! My top tribe is %s %s Check it out: vibecheck-ai.com",
		result.OverallScore, top.DisplayName, top.Emoji)
}

// ResultLink builds the share payload for platform.
func (s *ShareService) ResultLink(result *vibe.AnalysisResult, platform string) (*ShareLink, error) {
	text := s.ShareText(result)
	switch platform {
	case SharePlatformStory, SharePlatformLink:
		return &ShareLink{Platform: platform, Text: text}, nil
	case SharePlatformTweet:
		return &ShareLink{Platform: platform, Text: text, URL: tweetIntentURL + encodeURIComponent(text)}, nil
	default:
		return nil, apperrors.NewValidationError("platform", "platform must be one of story, tweet, link")
	}
}

// InstagramURL builds the Instagram web share URL for kind. The image is not
// representable in these URLs and is dropped.
func (s *ShareService) InstagramURL(content session.ShareContent, kind session.ShareKind) (string, error) {
	text := encodeURIComponent(content.Text)
	switch kind {
	case session.ShareStory:
		return s.instagramBaseURL + "/create/story/?text=" + text, nil
	case session.SharePost:
		return s.instagramBaseURL + "/create/?text=" + text, nil
	default:
		return "", apperrors.NewValidationError("kind", "kind must be story or post")
	}
}

// encodeURIComponent escapes spaces as %20 rather than "+".
func encodeURIComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
