package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/AtRiskMedia/vibecheck-go/internal/domain/apperrors"
	"github.com/AtRiskMedia/vibecheck-go/internal/domain/entities/session"
	"github.com/AtRiskMedia/vibecheck-go/internal/domain/entities/vibe"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/catalog"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/performance"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const testOrigin = "https://vibe.example"

func newTestTracker() *performance.Tracker {
	return performance.NewTracker(nil, prometheus.NewRegistry())
}

func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Load()
	require.NoError(t, err)
	return c
}

// fixedRandom always draws the same offset, clamped to the range.
type fixedRandom struct{ v int }

func (f fixedRandom) Intn(n int) int {
	if f.v >= n {
		return n - 1
	}
	return f.v
}

type memAnalysisRepo struct {
	mu      sync.Mutex
	records map[string][]vibe.AnalysisRecord
	err     error
}

func newMemAnalysisRepo() *memAnalysisRepo {
	return &memAnalysisRepo{records: make(map[string][]vibe.AnalysisRecord)}
}

func (r *memAnalysisRepo) Append(_ context.Context, visitorID string, record vibe.AnalysisRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.records[visitorID] = append(r.records[visitorID], record)
	return nil
}

func (r *memAnalysisRepo) FindByVisitor(_ context.Context, visitorID string) ([]vibe.AnalysisRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]vibe.AnalysisRecord(nil), r.records[visitorID]...), nil
}

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]session.OAuthSession
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]session.OAuthSession)}
}

func (r *memSessionRepo) Find(_ context.Context, visitorID string) (*session.OAuthSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[visitorID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *memSessionRepo) Save(_ context.Context, s *session.OAuthSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.VisitorID] = *s
	return nil
}

func (r *memSessionRepo) Delete(_ context.Context, visitorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, visitorID)
	return nil
}

func (r *memSessionRepo) DeleteByProfileID(_ context.Context, profileID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for id, s := range r.sessions {
		if s.Profile.ID == profileID {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed, nil
}

type memDeletionRepo struct {
	mu       sync.Mutex
	requests map[string]session.DeletionRequest
}

func newMemDeletionRepo() *memDeletionRepo {
	return &memDeletionRepo{requests: make(map[string]session.DeletionRequest)}
}

func (r *memDeletionRepo) Store(_ context.Context, req *session.DeletionRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[req.ConfirmationCode] = *req
	return nil
}

func (r *memDeletionRepo) FindByCode(_ context.Context, code string) (*session.DeletionRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[code]
	if !ok {
		return nil, nil
	}
	return &req, nil
}

type fakeInstagramAPI struct {
	mu          sync.Mutex
	profile     session.InstagramProfile
	media       []session.MediaItem
	exchangeErr error
	upgradeErr  error
	lastLimit   int
	lastToken   string
}

func (f *fakeInstagramAPI) AuthorizeURL(state string) string {
	return "https://api.instagram.com/oauth/authorize?state=" + state
}

func (f *fakeInstagramAPI) RedirectURI() string { return testOrigin + "/auth-callback" }

func (f *fakeInstagramAPI) ExchangeCode(_ context.Context, code, _ string) (*session.TokenGrant, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return &session.TokenGrant{AccessToken: "short-" + code, UserID: f.profile.ID}, nil
}

func (f *fakeInstagramAPI) UpgradeToken(_ context.Context, shortLived string) (*session.TokenGrant, error) {
	if f.upgradeErr != nil {
		return nil, f.upgradeErr
	}
	return &session.TokenGrant{AccessToken: "long-" + shortLived, TokenType: "bearer", ExpiresIn: 5184000}, nil
}

func (f *fakeInstagramAPI) FetchProfile(_ context.Context, accessToken string) (*session.InstagramProfile, error) {
	if accessToken == "" {
		return nil, apperrors.ErrNotConnected
	}
	f.mu.Lock()
	f.lastToken = accessToken
	f.mu.Unlock()
	p := f.profile
	return &p, nil
}

func (f *fakeInstagramAPI) FetchMedia(_ context.Context, accessToken string, limit int) ([]session.MediaItem, error) {
	if accessToken == "" {
		return nil, apperrors.ErrNotConnected
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastLimit = limit
	f.lastToken = accessToken
	return f.media, nil
}

type fakePopup struct {
	mu     sync.Mutex
	closed bool
	closes int
}

func (p *fakePopup) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *fakePopup) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.closes++
}

func (p *fakePopup) userClosed() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

type fakeWindows struct {
	mu     sync.Mutex
	popups []*fakePopup
	tabs   []string
}

func (w *fakeWindows) OpenPopup(_, _ string) Popup {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := &fakePopup{}
	w.popups = append(w.popups, p)
	return p
}

func (w *fakeWindows) OpenTab(_, url string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tabs = append(w.tabs, url)
}

func (w *fakeWindows) lastPopup() *fakePopup {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.popups[len(w.popups)-1]
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []messaging.Message
}

func (n *recordingNotifier) Notify(_ string, msg messaging.Message) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return 1
}

func (n *recordingNotifier) last(t messaging.MessageType) (messaging.Message, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.messages) - 1; i >= 0; i-- {
		if n.messages[i].Type == t {
			return n.messages[i], true
		}
	}
	return messaging.Message{}, false
}

func (n *recordingNotifier) count(t messaging.MessageType) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, m := range n.messages {
		if m.Type == t {
			c++
		}
	}
	return c
}

type oauthFixture struct {
	svc      *OAuthService
	api      *fakeInstagramAPI
	sessions *memSessionRepo
	states   *StateStore
	opener   *messaging.OpenerChannel
	windows  *fakeWindows
	notifier *recordingNotifier
	now      time.Time
}

func newOAuthFixture(t *testing.T) *oauthFixture {
	t.Helper()
	logger := logging.NewDiscardLogger()
	tracker := newTestTracker()

	f := &oauthFixture{
		api:      &fakeInstagramAPI{profile: session.InstagramProfile{ID: "17841400001", Username: "vibes", AccountType: "PERSONAL", MediaCount: 3}},
		sessions: newMemSessionRepo(),
		states:   NewStateStore(16, time.Minute),
		opener:   messaging.NewOpenerChannel(logger),
		windows:  &fakeWindows{},
		notifier: &recordingNotifier{},
		now:      time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewOAuthService(OAuthConfig{
		Origin:          testOrigin,
		SessionValidity: 60 * 24 * time.Hour,
		PollInterval:    5 * time.Millisecond,
		FlowTimeout:     time.Second,
	}, OAuthDeps{
		API:      f.api,
		Tokens:   NewTokenExchangeService(f.api, logger, tracker),
		Sessions: f.sessions,
		States:   f.states,
		Opener:   f.opener,
		Windows:  f.windows,
		Notifier: f.notifier,
		Share:    NewShareService(""),
	}, logger, tracker)
	f.svc.now = func() time.Time { return f.now }
	t.Cleanup(func() { _ = f.svc.Shutdown(context.Background()) })
	return f
}

var errBoom = errors.New("boom")
