// Package session provides domain entities for a visitor's connected
// Instagram account and the OAuth connection state machine.
package session

import "time"

// ConnectionState is where a visitor's OAuth client sits in the connect flow.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
)

// InstagramProfile is the account information returned by the graph API.
type InstagramProfile struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	AccountType string `json:"account_type"`
	MediaCount  int    `json:"media_count"`
}

// OAuthSession is the live Instagram connection for one visitor. Token,
// profile and timestamps are stored and cleared together.
type OAuthSession struct {
	VisitorID   string           `json:"-"`
	AccessToken string           `json:"-"`
	Profile     InstagramProfile `json:"user"`
	IssuedAt    time.Time        `json:"created_at"`
	ExpiresAt   time.Time        `json:"expires_at"`
}

// NewOAuthSession stamps a session valid for validity from now.
func NewOAuthSession(visitorID, accessToken string, profile InstagramProfile, now time.Time, validity time.Duration) *OAuthSession {
	return &OAuthSession{
		VisitorID:   visitorID,
		AccessToken: accessToken,
		Profile:     profile,
		IssuedAt:    now,
		ExpiresAt:   now.Add(validity),
	}
}

// ValidAt reports whether the session may still be used at now.
func (s *OAuthSession) ValidAt(now time.Time) bool {
	return s != nil && s.AccessToken != "" && now.Before(s.ExpiresAt)
}

// MediaItem is one entry from the user's media feed.
type MediaItem struct {
	ID           string `json:"id"`
	Caption      string `json:"caption,omitempty"`
	MediaType    string `json:"media_type"`
	MediaURL     string `json:"media_url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Permalink    string `json:"permalink,omitempty"`
}

// ShareKind selects the Instagram surface a share opens.
type ShareKind string

const (
	ShareStory ShareKind = "story"
	SharePost  ShareKind = "post"
)

// ShareContent is what the visitor wants to share. ImageURL is accepted but
// Instagram's web share URLs cannot carry it.
type ShareContent struct {
	Text     string `json:"text"`
	ImageURL string `json:"image_url,omitempty"`
}

// TokenGrant is the result of an authorization-code exchange.
type TokenGrant struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
	UserID      string `json:"user_id,omitempty"`
}

// DeletionRequest records a Meta data-deletion callback.
type DeletionRequest struct {
	ConfirmationCode string    `json:"confirmation_code"`
	UserID           string    `json:"user_id,omitempty"`
	Status           string    `json:"status"`
	SessionsRemoved  int64     `json:"sessions_removed"`
	CreatedAt        time.Time `json:"created_at"`
}

// Deletion request statuses.
const (
	DeletionStatusCompleted = "completed"
)
