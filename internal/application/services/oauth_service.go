package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/AtRiskMedia/vibecheck-go/internal/domain/apperrors"
	"github.com/AtRiskMedia/vibecheck-go/internal/domain/entities/session"
	"github.com/AtRiskMedia/vibecheck-go/internal/domain/repositories"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/performance"
)

const (
	DefaultMediaLimit = 25
	MaxMediaLimit     = 100
)

// OAuthConfig holds the timing and origin settings for the connect flow.
type OAuthConfig struct {
	Origin          string
	SessionValidity time.Duration
	PollInterval    time.Duration
	FlowTimeout     time.Duration
}

// OAuthService owns one OAuthClient per visitor plus the shared pieces they use.
type OAuthService struct {
	cfg      OAuthConfig
	api      InstagramAPI
	tokens   *TokenExchangeService
	sessions repositories.SessionRepository
	states   *StateStore
	opener   *messaging.OpenerChannel
	windows  WindowOpener
	notifier messaging.Notifier
	share    *ShareService
	now      func() time.Time

	clients   map[string]*OAuthClient
	clientsMu sync.Mutex

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// OAuthDeps groups the collaborators of an OAuthService.
type OAuthDeps struct {
	API      InstagramAPI
	Tokens   *TokenExchangeService
	Sessions repositories.SessionRepository
	States   *StateStore
	Opener   *messaging.OpenerChannel
	Windows  WindowOpener
	Notifier messaging.Notifier
	Share    *ShareService
}

// NewOAuthService creates the service. Shutdown cancels any in-flight attempts.
func NewOAuthService(cfg OAuthConfig, deps OAuthDeps, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *OAuthService {
	if cfg.SessionValidity <= 0 {
		cfg.SessionValidity = 60 * 24 * time.Hour
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.FlowTimeout <= 0 {
		cfg.FlowTimeout = 10 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &OAuthService{
		cfg:         cfg,
		api:         deps.API,
		tokens:      deps.Tokens,
		sessions:    deps.Sessions,
		states:      deps.States,
		opener:      deps.Opener,
		windows:     deps.Windows,
		notifier:    deps.Notifier,
		share:       deps.Share,
		now:         time.Now,
		clients:     make(map[string]*OAuthClient),
		baseCtx:     ctx,
		cancel:      cancel,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// Client returns the visitor's OAuth client, creating it on first use.
func (s *OAuthService) Client(visitorID string) *OAuthClient {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	c, ok := s.clients[visitorID]
	if !ok {
		c = &OAuthClient{visitorID: visitorID, svc: s, state: session.StateDisconnected}
		s.clients[visitorID] = c
	}
	return c
}

// ConnectingCount returns how many visitors have a connect attempt in flight.
func (s *OAuthService) ConnectingCount() int {
	s.clientsMu.Lock()
	clients := make([]*OAuthClient, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.clientsMu.Unlock()

	n := 0
	for _, c := range clients {
		if c.State() == session.StateConnecting {
			n++
		}
	}
	return n
}

// BeginConnect starts a connect attempt for visitorID and awaits it in the
// background. The returned attempt carries the authorize URL.
func (s *OAuthService) BeginConnect(ctx context.Context, visitorID string) (*ConnectAttempt, error) {
	attempt, err := s.Client(visitorID).Connect(ctx)
	if err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		awaitCtx, cancel := context.WithTimeout(s.baseCtx, s.cfg.FlowTimeout)
		defer cancel()
		if _, err := attempt.Await(awaitCtx); err != nil && !errors.Is(err, apperrors.ErrCancelled) {
			s.logger.LogError(logging.ChannelAuth, "await_connect", err, map[string]any{"visitorId": logging.SanitizeID(visitorID)})
		}
	}()
	return attempt, nil
}

// HandleCallback completes the redirect leg of the flow. It resolves state to
// the visitor that started the attempt, relays the code through the token
// exchange, and posts the outcome to that visitor's opener channel.
func (s *OAuthService) HandleCallback(ctx context.Context, state, code, errorReason string) (string, error) {
	marker := s.perfTracker.StartOperation("oauth_callback")
	defer marker.Complete()

	visitorID, ok := s.states.Consume(state)
	if !ok {
		err := apperrors.NewValidationError("state", "unknown or expired state")
		marker.SetError(err)
		s.logger.Auth().Warn("OAuth callback with unknown state")
		return "", err
	}

	// reason is what the opener receives; the attempt adds its own "authorize" context.
	fail := func(err error, reason string) (string, error) {
		marker.SetError(err)
		s.opener.Post(visitorID, messaging.Message{Type: messaging.MessageAuthError, Origin: s.cfg.Origin, State: state, Error: reason})
		s.logger.LogAuthOperation("oauth_callback", visitorID, false, map[string]any{"error": err.Error()})
		return visitorID, err
	}

	if errorReason != "" {
		return fail(&apperrors.UpstreamError{Op: "authorize", Err: errors.New(errorReason)}, errorReason)
	}

	grant, err := s.tokens.Exchange(ctx, code, s.api.RedirectURI())
	if err != nil {
		return fail(err, err.Error())
	}

	profile, err := s.api.FetchProfile(ctx, grant.AccessToken)
	if err != nil {
		return fail(err, err.Error())
	}

	s.opener.Post(visitorID, messaging.Message{
		Type:        messaging.MessageAuthSuccess,
		Origin:      s.cfg.Origin,
		State:       state,
		AccessToken: grant.AccessToken,
		User:        profile,
	})
	marker.SetSuccess(true)
	s.logger.LogAuthOperation("oauth_callback", visitorID, true, map[string]any{"username": profile.Username})
	return visitorID, nil
}

// Shutdown cancels in-flight attempts and waits for them to tear down.
func (s *OAuthService) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OAuthClient is one visitor's connection state machine:
// disconnected -> connecting -> connected -> disconnected.
type OAuthClient struct {
	visitorID string
	svc       *OAuthService

	mu      sync.Mutex
	state   session.ConnectionState
	attempt *ConnectAttempt
}

// State returns the current connection state.
func (c *OAuthClient) State() session.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *OAuthClient) setState(state session.ConnectionState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

// Connect opens the authorization popup and moves to connecting. It is
// invalid while connected. A connect issued while another attempt is still in
// flight cancels that attempt and starts over, since a browser without a
// socket can never report its popup closed.
func (c *OAuthClient) Connect(ctx context.Context) (*ConnectAttempt, error) {
	s := c.svc

	var superseded *ConnectAttempt
	defer func() {
		if superseded != nil {
			superseded.cancel()
			s.logger.Auth().Info("Superseded in-flight connect attempt", "visitorId", logging.SanitizeID(c.visitorID))
		}
	}()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == session.StateConnected {
		return nil, fmt.Errorf("connect from %s: %w", c.state, apperrors.ErrInvalidTransition)
	}
	if c.attempt != nil {
		superseded = c.attempt
		c.attempt = nil
		c.state = session.StateDisconnected
	}

	existing, err := s.sessions.Find(ctx, c.visitorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if existing.ValidAt(s.now()) {
		c.state = session.StateConnected
		return nil, fmt.Errorf("already connected: %w", apperrors.ErrInvalidTransition)
	}
	if existing != nil {
		// expired leftovers would otherwise log the new attempt out on the next status check
		if err := s.sessions.Delete(ctx, c.visitorID); err != nil {
			return nil, fmt.Errorf("failed to clear expired session: %w", err)
		}
	}

	state, err := s.states.Issue(c.visitorID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue oauth state: %w", err)
	}

	authURL := s.api.AuthorizeURL(state)
	attempt := &ConnectAttempt{
		AuthURL:  authURL,
		State:    state,
		client:   c,
		listener: s.opener.Subscribe(c.visitorID, s.cfg.Origin),
		done:     make(chan struct{}),
		aborted:  make(chan struct{}),
	}
	attempt.popup = s.windows.OpenPopup(c.visitorID, authURL)

	c.state = session.StateConnecting
	c.attempt = attempt
	s.logger.LogAuthOperation("connect", c.visitorID, true, nil)
	return attempt, nil
}

// IsConnected reports whether the visitor holds an unexpired session. An
// expired session is logged out as a side effect.
func (c *OAuthClient) IsConnected(ctx context.Context) (bool, error) {
	s := c.svc
	sess, err := s.sessions.Find(ctx, c.visitorID)
	if err != nil {
		return false, fmt.Errorf("failed to load session: %w", err)
	}

	if sess == nil {
		c.mu.Lock()
		if c.state == session.StateConnected {
			c.state = session.StateDisconnected
		}
		c.mu.Unlock()
		return false, nil
	}

	if !sess.ValidAt(s.now()) {
		s.logger.Auth().Info("Instagram session expired", "visitorId", logging.SanitizeID(c.visitorID), "expiresAt", sess.ExpiresAt)
		if err := c.disconnect(ctx, false); err != nil {
			return false, err
		}
		return false, nil
	}

	c.mu.Lock()
	if c.state == session.StateDisconnected {
		c.state = session.StateConnected
	}
	c.mu.Unlock()
	return true, nil
}

// Logout clears the stored session, cancels any connect attempt in flight,
// moves to disconnected and always announces the disconnect.
func (c *OAuthClient) Logout(ctx context.Context) error {
	return c.disconnect(ctx, true)
}

// disconnect clears the stored session. With abortAttempt false an attempt in
// flight survives, which is what an expiry noticed mid-connect needs.
func (c *OAuthClient) disconnect(ctx context.Context, abortAttempt bool) error {
	s := c.svc
	err := s.sessions.Delete(ctx, c.visitorID)

	var pending *ConnectAttempt
	c.mu.Lock()
	if abortAttempt {
		pending = c.attempt
		c.attempt = nil
		c.state = session.StateDisconnected
	} else if c.state == session.StateConnected {
		c.state = session.StateDisconnected
	}
	c.mu.Unlock()

	if pending != nil {
		pending.cancel()
	}

	s.notifier.Notify(c.visitorID, messaging.Message{Type: messaging.MessageDisconnected})
	s.logger.LogAuthOperation("logout", c.visitorID, err == nil, nil)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Share opens Instagram's web composer with the text prefilled and returns the
// URL it opened.
func (c *OAuthClient) Share(ctx context.Context, content session.ShareContent, kind session.ShareKind) (string, error) {
	s := c.svc
	connected, err := c.IsConnected(ctx)
	if err != nil {
		return "", err
	}
	if !connected {
		return "", apperrors.ErrNotConnected
	}

	shareURL, err := s.share.InstagramURL(content, kind)
	if err != nil {
		return "", err
	}
	s.windows.OpenTab(c.visitorID, shareURL)
	s.logger.Auth().Info("Instagram share opened", "visitorId", logging.SanitizeID(c.visitorID), "kind", kind)
	return shareURL, nil
}

func (c *OAuthClient) token(ctx context.Context) (string, error) {
	connected, err := c.IsConnected(ctx)
	if err != nil {
		return "", err
	}
	if !connected {
		return "", apperrors.ErrNotConnected
	}
	sess, err := c.svc.sessions.Find(ctx, c.visitorID)
	if err != nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}
	if sess == nil {
		return "", apperrors.ErrNotConnected
	}
	return sess.AccessToken, nil
}

// FetchMedia reads the connected account's recent media.
func (c *OAuthClient) FetchMedia(ctx context.Context, limit int) ([]session.MediaItem, error) {
	if limit <= 0 {
		limit = DefaultMediaLimit
	}
	if limit > MaxMediaLimit {
		limit = MaxMediaLimit
	}
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	return c.svc.api.FetchMedia(ctx, token, limit)
}

// FetchProfile reads the connected account's profile.
func (c *OAuthClient) FetchProfile(ctx context.Context) (*session.InstagramProfile, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	return c.svc.api.FetchProfile(ctx, token)
}

// ConnectAttempt is one open authorization popup.
type ConnectAttempt struct {
	AuthURL string
	State   string

	client   *OAuthClient
	listener *messaging.Listener
	popup    Popup

	once    sync.Once
	done    chan struct{}
	profile *session.InstagramProfile
	err     error

	abortOnce   sync.Once
	aborted     chan struct{}
	releaseOnce sync.Once
}

// Done is closed once the attempt has settled.
func (a *ConnectAttempt) Done() <-chan struct{} {
	return a.done
}

// Await blocks until the popup reports back, the popup is closed, or ctx
// ends, and handles exactly one of those. Later calls return the same outcome.
func (a *ConnectAttempt) Await(ctx context.Context) (*session.InstagramProfile, error) {
	a.once.Do(func() {
		a.profile, a.err = a.wait(ctx)
		close(a.done)
	})
	<-a.done
	return a.profile, a.err
}

// cancel abandons the attempt after its client has already moved on, e.g. a
// logout or a newer connect. It does not touch the client's state.
func (a *ConnectAttempt) cancel() {
	a.abortOnce.Do(func() { close(a.aborted) })
	a.release()
}

// release tears down the listener, popup and state exactly once.
func (a *ConnectAttempt) release() {
	a.releaseOnce.Do(func() {
		a.listener.Close()
		a.popup.Close()
		a.client.svc.states.Discard(a.State)
	})
}

// current reports whether the attempt is still the client's live one.
func (a *ConnectAttempt) current() bool {
	a.client.mu.Lock()
	defer a.client.mu.Unlock()
	return a.client.attempt == a
}

func (a *ConnectAttempt) wait(ctx context.Context) (*session.InstagramProfile, error) {
	s := a.client.svc
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer func() {
		ticker.Stop()
		a.release()
	}()

	for {
		select {
		case <-a.aborted:
			s.logger.LogAuthOperation("connect_aborted", a.client.visitorID, false, nil)
			return nil, fmt.Errorf("%w: attempt superseded", apperrors.ErrCancelled)

		case msg := <-a.listener.C:
			if profile, handled, err := a.handle(ctx, msg); handled {
				return profile, err
			}

		case <-ticker.C:
			if !a.popup.Closed() {
				continue
			}
			// a result posted just before the window closed still wins
			select {
			case msg := <-a.listener.C:
				if profile, handled, err := a.handle(ctx, msg); handled {
					return profile, err
				}
			default:
			}
			a.settle(session.StateDisconnected)
			s.logger.LogAuthOperation("connect_cancelled", a.client.visitorID, false, nil)
			return nil, apperrors.ErrCancelled

		case <-ctx.Done():
			a.settle(session.StateDisconnected)
			return nil, fmt.Errorf("%w: %v", apperrors.ErrCancelled, ctx.Err())
		}
	}
}

// handle processes one opener message. Messages for other attempts are skipped.
func (a *ConnectAttempt) handle(ctx context.Context, msg messaging.Message) (*session.InstagramProfile, bool, error) {
	if msg.State != "" && msg.State != a.State {
		return nil, false, nil
	}
	if msg.Type != messaging.MessageAuthSuccess && msg.Type != messaging.MessageAuthError {
		return nil, false, nil
	}
	if !a.current() {
		return nil, true, fmt.Errorf("%w: attempt superseded", apperrors.ErrCancelled)
	}

	if msg.Type == messaging.MessageAuthSuccess {
		profile, err := a.complete(ctx, msg)
		return profile, true, err
	}

	reason := msg.Error
	if reason == "" {
		reason = "authorization failed"
	}
	return nil, true, a.fail(reason, &apperrors.UpstreamError{Op: "authorize", Err: errors.New(reason)})
}

// fail settles the attempt as disconnected and tells the visitor's page why.
func (a *ConnectAttempt) fail(reason string, err error) error {
	s := a.client.svc
	a.settle(session.StateDisconnected)
	s.notifier.Notify(a.client.visitorID, messaging.Message{Type: messaging.MessageAuthError, Error: reason})
	s.logger.LogAuthOperation("connect", a.client.visitorID, false, map[string]any{"error": err.Error()})
	return err
}

func (a *ConnectAttempt) complete(ctx context.Context, msg messaging.Message) (*session.InstagramProfile, error) {
	s := a.client.svc
	profile := msg.User
	if profile == nil {
		fetched, err := s.api.FetchProfile(ctx, msg.AccessToken)
		if err != nil {
			return nil, a.fail("failed to load instagram profile", err)
		}
		profile = fetched
	}

	sess := session.NewOAuthSession(a.client.visitorID, msg.AccessToken, *profile, s.now().UTC(), s.cfg.SessionValidity)
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, a.fail("failed to save instagram session", fmt.Errorf("failed to save session: %w", err))
	}

	a.settle(session.StateConnected)
	s.notifier.Notify(a.client.visitorID, messaging.Message{Type: messaging.MessageConnected, User: profile})
	s.logger.LogAuthOperation("connect", a.client.visitorID, true, map[string]any{"username": profile.Username})
	return profile, nil
}

func (a *ConnectAttempt) settle(state session.ConnectionState) {
	c := a.client
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attempt == a {
		c.attempt = nil
		c.state = state
	}
}
