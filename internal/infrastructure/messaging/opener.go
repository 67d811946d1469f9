package messaging

import (
	"sync"

	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
)

const listenerBuffer = 4

// OpenerChannel delivers messages from the OAuth popup's callback to the
// connect attempt that opened it. Each listener only accepts messages whose
// Origin matches the origin it subscribed with.
type OpenerChannel struct {
	listeners map[string][]*Listener // visitorId -> listeners
	mu        sync.Mutex
	logger    *logging.ChanneledLogger
}

// Listener is one subscription. Close is idempotent.
type Listener struct {
	C <-chan Message

	ch        chan Message
	visitorID string
	origin    string
	owner     *OpenerChannel
	once      sync.Once
}

// NewOpenerChannel creates an empty channel.
func NewOpenerChannel(logger *logging.ChanneledLogger) *OpenerChannel {
	return &OpenerChannel{
		listeners: make(map[string][]*Listener),
		logger:    logger,
	}
}

// Subscribe registers a listener for visitorID that accepts messages from origin.
func (o *OpenerChannel) Subscribe(visitorID, origin string) *Listener {
	ch := make(chan Message, listenerBuffer)
	l := &Listener{C: ch, ch: ch, visitorID: visitorID, origin: origin, owner: o}

	o.mu.Lock()
	o.listeners[visitorID] = append(o.listeners[visitorID], l)
	o.mu.Unlock()

	o.logger.WebSocket().Debug("Opener listener registered", "visitorId", logging.SanitizeID(visitorID))
	return l
}

// Close removes the listener from its channel.
func (l *Listener) Close() {
	l.once.Do(func() {
		l.owner.remove(l)
	})
}

func (o *OpenerChannel) remove(l *Listener) {
	o.mu.Lock()
	defer o.mu.Unlock()

	current := o.listeners[l.visitorID]
	kept := make([]*Listener, 0, len(current))
	for _, other := range current {
		if other != l {
			kept = append(kept, other)
		}
	}
	if len(kept) == 0 {
		delete(o.listeners, l.visitorID)
	} else {
		o.listeners[l.visitorID] = kept
	}
	o.logger.WebSocket().Debug("Opener listener unregistered", "visitorId", logging.SanitizeID(l.visitorID))
}

// Post delivers msg to the visitor's listeners and returns how many accepted
// it. Listeners subscribed with a different origin ignore the message; a full
// listener buffer drops it.
//
// Every in-process poster stamps the configured origin, so the origin match
// here only rejects misrouted internal posts. Browser origins are enforced by
// the websocket upgrader's CheckOrigin in handlers.NewEventHandlers.
func (o *OpenerChannel) Post(visitorID string, msg Message) int {
	o.mu.Lock()
	defer o.mu.Unlock()

	delivered := 0
	for _, l := range o.listeners[visitorID] {
		if l.origin != msg.Origin {
			o.logger.WebSocket().Warn("Ignoring opener message from unexpected origin",
				"visitorId", logging.SanitizeID(visitorID), "origin", msg.Origin, "expected", l.origin, "type", msg.Type)
			continue
		}
		select {
		case l.ch <- msg:
			delivered++
		default:
			o.logger.WebSocket().Warn("Opener listener buffer full, dropping message", "visitorId", logging.SanitizeID(visitorID), "type", msg.Type)
		}
	}
	return delivered
}

// ListenerCount returns the number of live listeners for visitorID.
func (o *OpenerChannel) ListenerCount(visitorID string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.listeners[visitorID])
}

// TotalListeners returns the number of live listeners across all visitors.
func (o *OpenerChannel) TotalListeners() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	total := 0
	for _, ls := range o.listeners {
		total += len(ls)
	}
	return total
}
