package services

import (
	"context"

	"github.com/AtRiskMedia/vibecheck-go/internal/domain/entities/session"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/messaging"
)

// InstagramAPI is the subset of the Instagram HTTP client the services use.
type InstagramAPI interface {
	AuthorizeURL(state string) string
	RedirectURI() string
	ExchangeCode(ctx context.Context, code, redirectURI string) (*session.TokenGrant, error)
	UpgradeToken(ctx context.Context, shortLived string) (*session.TokenGrant, error)
	FetchProfile(ctx context.Context, accessToken string) (*session.InstagramProfile, error)
	FetchMedia(ctx context.Context, accessToken string, limit int) ([]session.MediaItem, error)
}

// Popup is a window the service opened and may need to close.
type Popup interface {
	Closed() bool
	Close()
}

// WindowOpener opens browser windows for a visitor.
type WindowOpener interface {
	OpenPopup(visitorID, url string) Popup
	OpenTab(visitorID, url string)
}

type popupRegistryOpener struct {
	registry *messaging.PopupRegistry
}

// NewWindowOpener adapts a popup registry to WindowOpener.
func NewWindowOpener(registry *messaging.PopupRegistry) WindowOpener {
	return popupRegistryOpener{registry: registry}
}

func (o popupRegistryOpener) OpenPopup(visitorID, url string) Popup {
	return o.registry.OpenPopup(visitorID, url)
}

func (o popupRegistryOpener) OpenTab(visitorID, url string) {
	o.registry.OpenTab(visitorID, url)
}
