package messaging

import (
	"sync"
	"sync/atomic"

	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
)

// Window targets understood by the browser.
const (
	TargetPopup = "popup"
	TargetBlank = "_blank"
)

// Popup is a browser window opened on a visitor's behalf.
type Popup struct {
	VisitorID string
	URL       string

	closed   atomic.Bool
	registry *PopupRegistry
}

// Closed reports whether the window is known to be closed.
func (p *Popup) Closed() bool {
	return p.closed.Load()
}

// Close asks the browser to close the window. Closing twice is a no-op.
func (p *Popup) Close() {
	if p.closed.Swap(true) {
		return
	}
	p.registry.release(p)
	p.registry.notifier.Notify(p.VisitorID, Message{Type: MessageCloseWindow, URL: p.URL})
}

// PopupRegistry opens windows through the visitor's websocket and tracks the
// current auth popup so a browser-side close can be observed.
type PopupRegistry struct {
	popups   map[string]*Popup // visitorId -> current popup
	notifier Notifier
	mu       sync.Mutex
	logger   *logging.ChanneledLogger
}

// NewPopupRegistry creates a registry that opens windows through notifier.
func NewPopupRegistry(notifier Notifier, logger *logging.ChanneledLogger) *PopupRegistry {
	return &PopupRegistry{
		popups:   make(map[string]*Popup),
		notifier: notifier,
		logger:   logger,
	}
}

// OpenPopup opens url in a tracked popup window, replacing any earlier one.
func (r *PopupRegistry) OpenPopup(visitorID, url string) *Popup {
	p := &Popup{VisitorID: visitorID, URL: url, registry: r}

	r.mu.Lock()
	previous := r.popups[visitorID]
	r.popups[visitorID] = p
	r.mu.Unlock()

	if previous != nil {
		previous.closed.Store(true)
	}

	sent := r.notifier.Notify(visitorID, Message{Type: MessageOpenWindow, URL: url, Target: TargetPopup})
	r.logger.WebSocket().Debug("Popup opened", "visitorId", logging.SanitizeID(visitorID), "clients", sent)
	return p
}

// OpenTab opens url in a new untracked tab.
func (r *PopupRegistry) OpenTab(visitorID, url string) {
	r.notifier.Notify(visitorID, Message{Type: MessageOpenWindow, URL: url, Target: TargetBlank})
}

// MarkClosed records that the visitor closed their popup.
func (r *PopupRegistry) MarkClosed(visitorID string) {
	r.mu.Lock()
	p := r.popups[visitorID]
	delete(r.popups, visitorID)
	r.mu.Unlock()

	if p != nil {
		p.closed.Store(true)
		r.logger.WebSocket().Debug("Popup closed by browser", "visitorId", logging.SanitizeID(visitorID))
	}
}

func (r *PopupRegistry) release(p *Popup) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.popups[p.VisitorID] == p {
		delete(r.popups, p.VisitorID)
	}
}
