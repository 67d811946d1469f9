// Package messaging defines the real-time channels between the service and a
// visitor's browser: the opener channel used by the OAuth popup, the websocket
// hub, and the popup registry that tracks windows opened on a visitor's behalf.
package messaging

import "github.com/AtRiskMedia/vibecheck-go/internal/domain/entities/session"

// MessageType names a message on the opener channel or the websocket.
type MessageType string

const (
	MessageAuthSuccess  MessageType = "AUTH_SUCCESS"
	MessageAuthError    MessageType = "AUTH_ERROR"
	MessageConnected    MessageType = "instagramConnected"
	MessageDisconnected MessageType = "instagramDisconnected"
	MessageOpenWindow   MessageType = "OPEN_WINDOW"
	MessageCloseWindow  MessageType = "CLOSE_WINDOW"
	MessagePopupClosed  MessageType = "POPUP_CLOSED"
)

// Message is the payload carried by the opener channel and the websocket.
// AccessToken only travels in-process and is never serialised.
type Message struct {
	Type        MessageType               `json:"type"`
	Origin      string                    `json:"origin,omitempty"`
	State       string                    `json:"state,omitempty"`
	AccessToken string                    `json:"-"`
	User        *session.InstagramProfile `json:"user,omitempty"`
	Error       string                    `json:"error,omitempty"`
	URL         string                    `json:"url,omitempty"`
	Target      string                    `json:"target,omitempty"`
}

// Notifier pushes a message to every browser connection a visitor has open.
type Notifier interface {
	Notify(visitorID string, msg Message) int
}
