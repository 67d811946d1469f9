package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []Message
}

func (n *recordingNotifier) Notify(visitorID string, msg Message) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return 1
}

func (n *recordingNotifier) types() []MessageType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]MessageType, 0, len(n.messages))
	for _, m := range n.messages {
		out = append(out, m.Type)
	}
	return out
}

func TestOpenerChannel_OriginCheck(t *testing.T) {
	o := NewOpenerChannel(logging.NewDiscardLogger())
	l := o.Subscribe("visitor-1", "https://vibe.example")
	defer l.Close()

	assert.Equal(t, 0, o.Post("visitor-1", Message{Type: MessageAuthSuccess, Origin: "https://evil.example"}))
	assert.Equal(t, 0, o.Post("visitor-2", Message{Type: MessageAuthSuccess, Origin: "https://vibe.example"}))
	assert.Equal(t, 1, o.Post("visitor-1", Message{Type: MessageAuthSuccess, Origin: "https://vibe.example", AccessToken: "tok"}))

	select {
	case msg := <-l.C:
		assert.Equal(t, MessageAuthSuccess, msg.Type)
		assert.Equal(t, "tok", msg.AccessToken)
	default:
		t.Fatal("expected a delivered message")
	}
}

func TestOpenerChannel_CloseIsIdempotent(t *testing.T) {
	o := NewOpenerChannel(logging.NewDiscardLogger())
	a := o.Subscribe("visitor-1", "o")
	b := o.Subscribe("visitor-1", "o")
	assert.Equal(t, 2, o.ListenerCount("visitor-1"))

	a.Close()
	a.Close()
	assert.Equal(t, 1, o.ListenerCount("visitor-1"))

	b.Close()
	assert.Equal(t, 0, o.ListenerCount("visitor-1"))
	assert.Equal(t, 0, o.Post("visitor-1", Message{Type: MessageAuthError, Origin: "o"}))
}

func TestPopupRegistry(t *testing.T) {
	n := &recordingNotifier{}
	r := NewPopupRegistry(n, logging.NewDiscardLogger())

	p := r.OpenPopup("visitor-1", "https://api.instagram.com/oauth/authorize")
	assert.False(t, p.Closed())

	r.MarkClosed("visitor-1")
	assert.True(t, p.Closed())

	p.Close()
	assert.Equal(t, []MessageType{MessageOpenWindow}, n.types())

	q := r.OpenPopup("visitor-1", "https://example/second")
	q.Close()
	q.Close()
	assert.Equal(t, []MessageType{MessageOpenWindow, MessageOpenWindow, MessageCloseWindow}, n.types())

	r.OpenTab("visitor-1", "https://www.instagram.com/create/?text=hi")
	assert.Len(t, n.types(), 4)
}

func TestPopupRegistry_NewPopupSupersedesOld(t *testing.T) {
	r := NewPopupRegistry(&recordingNotifier{}, logging.NewDiscardLogger())

	first := r.OpenPopup("visitor-1", "a")
	second := r.OpenPopup("visitor-1", "b")

	assert.True(t, first.Closed())
	assert.False(t, second.Closed())
}

func TestHub_NotifyAndInbound(t *testing.T) {
	hub := NewHub(logging.NewDiscardLogger())
	inbound := make(chan Message, 1)
	hub.OnMessage(func(visitorID string, msg Message) {
		if visitorID == "visitor-1" {
			inbound <- msg
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(conn, "visitor-1")
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ConnectionCount("visitor-1") == 1 }, time.Second, 10*time.Millisecond)

	assert.Equal(t, 1, hub.Notify("visitor-1", Message{Type: MessageDisconnected}))
	assert.Equal(t, 0, hub.Notify("visitor-2", Message{Type: MessageDisconnected}))

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var got Message
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, MessageDisconnected, got.Type)

	require.NoError(t, conn.WriteJSON(Message{Type: MessagePopupClosed}))
	select {
	case msg := <-inbound:
		assert.Equal(t, MessagePopupClosed, msg.Type)
	case <-time.After(time.Second):
		t.Fatal("inbound message not dispatched")
	}

	conn.Close()
	require.Eventually(t, func() bool { return hub.ConnectionCount("visitor-1") == 0 }, time.Second, 10*time.Millisecond)
}

func TestMessage_AccessTokenNotSerialised(t *testing.T) {
	hub := NewHub(logging.NewDiscardLogger())
	client := &Client{VisitorID: "v", Send: make(chan []byte, 1)}
	hub.visitorClients["v"] = map[*Client]bool{client: true}

	hub.Notify("v", Message{Type: MessageAuthSuccess, AccessToken: "secret-token"})
	payload := <-client.Send
	assert.NotContains(t, string(payload), "secret-token")
}
