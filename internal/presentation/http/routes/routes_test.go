package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/AtRiskMedia/vibecheck-go/internal/application/container"
	"github.com/AtRiskMedia/vibecheck-go/internal/domain/apperrors"
	"github.com/AtRiskMedia/vibecheck-go/internal/domain/entities/session"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/persistence/database"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubInstagram struct {
	mu          sync.Mutex
	exchangeErr error
}

func (s *stubInstagram) AuthorizeURL(state string) string {
	return "https://api.instagram.test/oauth/authorize?state=" + url.QueryEscape(state)
}

func (s *stubInstagram) RedirectURI() string { return "https://vibe.test/auth-callback" }

func (s *stubInstagram) ExchangeCode(_ context.Context, code, _ string) (*session.TokenGrant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exchangeErr != nil {
		return nil, s.exchangeErr
	}
	return &session.TokenGrant{AccessToken: "short-" + code, UserID: "17841400001"}, nil
}

func (s *stubInstagram) UpgradeToken(_ context.Context, shortLived string) (*session.TokenGrant, error) {
	return &session.TokenGrant{AccessToken: "long-" + shortLived, TokenType: "bearer", ExpiresIn: 5184000}, nil
}

func (s *stubInstagram) FetchProfile(_ context.Context, token string) (*session.InstagramProfile, error) {
	if token == "" {
		return nil, apperrors.ErrNotConnected
	}
	return &session.InstagramProfile{ID: "17841400001", Username: "vibes", AccountType: "PERSONAL", MediaCount: 2}, nil
}

func (s *stubInstagram) FetchMedia(_ context.Context, token string, limit int) ([]session.MediaItem, error) {
	if token == "" {
		return nil, apperrors.ErrNotConnected
	}
	return []session.MediaItem{{ID: "m1", MediaType: "IMAGE"}, {ID: "m2", MediaType: "VIDEO"}}, nil
}

type noTranscriber struct{}

func (noTranscriber) Enabled() bool { return false }
func (noTranscriber) Transcribe(context.Context, string) (string, error) {
	return "", nil
}

type testApp struct {
	router  *gin.Engine
	api     *stubInstagram
	cookies []*http.Cookie
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logging.NewDiscardLogger()
	db, err := database.NewConnection(database.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.NewTableCreator(logger).CreateSchema(context.Background(), db))

	api := &stubInstagram{}
	c, err := container.NewContainer(db, logger, container.Options{
		JWTSecret:   "test-jwt-secret",
		AESKey:      "000102030405060708090a0b0c0d0e0f",
		Instagram:   api,
		Transcriber: noTranscriber{},
		Registry:    prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.OAuthService.Shutdown(context.Background()) })

	return &testApp{router: SetupRoutes(c), api: api}
}

// do sends a request carrying the visitor cookie from earlier responses.
func (a *testApp) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, ck := range a.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	if cookies := w.Result().Cookies(); len(cookies) > 0 {
		a.cookies = cookies
	}
	return w
}

func (a *testApp) doJSON(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return a.do(t, method, path, strings.NewReader(body), "application/json")
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])

	app.do(t, http.MethodGet, "/api/v1/vibe/trending", nil, "")
	w = app.do(t, http.MethodGet, "/healthz", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	perf := decode(t, w)["performance"].(map[string]any)
	assert.GreaterOrEqual(t, perf["completedOperations"].(float64), float64(1))
	assert.NotEmpty(t, perf["uptime"])

	w = app.do(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "vibecheck_operation_total")
}

func TestVibeRoutes(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/api/v1/vibe/personas", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 8, decode(t, w)["count"])
	require.NotEmpty(t, app.cookies)

	w = app.doJSON(t, http.MethodPost, "/api/v1/vibe/share", `{"platform":"tweet"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.doJSON(t, http.MethodPost, "/api/v1/vibe/analyze", `{"content":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.doJSON(t, http.MethodPost, "/api/v1/vibe/analyze", `{"content":"late night gaming with epic memes"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	result := body["result"].(map[string]any)
	assert.Len(t, result["tribes"], 8)
	assert.True(t, strings.HasPrefix(body["shareText"].(string), "Just got a "))
	assert.Contains(t, body["recommendations"], "hashtags")

	w = app.do(t, http.MethodGet, "/api/v1/vibe/profile", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode(t, w)
	assert.EqualValues(t, 1, profile["totalAnalyses"])
	assert.Equal(t, false, profile["isInstagramConnected"])
	assert.Len(t, profile["recent"], 1)

	w = app.doJSON(t, http.MethodPost, "/api/v1/vibe/share", `{"platform":"tweet"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(decode(t, w)["url"].(string), "https://twitter.com/intent/tweet?text=Just%20got%20a%20"))

	w = app.doJSON(t, http.MethodPost, "/api/v1/vibe/share", `{"platform":"fax"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodGet, "/api/v1/vibe/recommendations/nope", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	recs := decode(t, w)
	hashtags := recs["hashtags"].([]any)
	require.NotEmpty(t, hashtags)
	assert.Equal(t, true, hashtags[0].(map[string]any)["trending"])
	assert.NotEmpty(t, recs["songs"])
}

func TestOriginGuardOnAPI(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/vibe/analyze", strings.NewReader(`{"content":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://evil.test")
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTokenExchangeEndpoint(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/api/instagram/token", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "Method not allowed", decode(t, w)["error"])

	w = app.doJSON(t, http.MethodPost, "/api/instagram/token", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Authorization code is required", decode(t, w)["error"])

	w = app.doJSON(t, http.MethodPost, "/api/instagram/token", `{"code":"abc","redirect_uri":"https://vibe.test/"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "long-short-abc", body["access_token"])
	assert.Equal(t, "bearer", body["token_type"])
	assert.EqualValues(t, 5184000, body["expires_in"])

	app.api.mu.Lock()
	app.api.exchangeErr = &apperrors.UpstreamError{Op: "exchange code", StatusCode: 400, Err: fmt.Errorf("invalid code")}
	app.api.mu.Unlock()

	w = app.doJSON(t, http.MethodPost, "/api/instagram/token", `{"code":"abc"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body = decode(t, w)
	assert.Equal(t, "Failed to exchange authorization code for access token", body["error"])
	assert.Contains(t, body["details"], "invalid code")
}

func TestDeletionEndpoint(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/facebook/deletion", strings.NewReader(""), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	code := body["confirmation_code"].(string)
	assert.Equal(t, "https://example.com/data-deletion.html?code="+code, body["url"])

	w = app.do(t, http.MethodGet, "/api/facebook/deletion/status?code="+code, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, session.DeletionStatusCompleted, decode(t, w)["status"])

	w = app.do(t, http.MethodGet, "/api/facebook/deletion/status?code=missing", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(t, http.MethodPost, "/api/facebook/deletion", strings.NewReader(`{"signed_request":`), "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, decode(t, w)["confirmation_code"])

	form := url.Values{"signed_request": {"garbage"}}
	w = app.do(t, http.MethodPost, "/api/facebook/deletion", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInstagramConnectFlow(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodGet, "/api/v1/instagram/media", nil, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = app.do(t, http.MethodPost, "/api/v1/instagram/connect", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	authURL, err := url.Parse(decode(t, w)["authUrl"].(string))
	require.NoError(t, err)
	state := authURL.Query().Get("state")
	require.NotEmpty(t, state)

	// a retry without any socket attached replaces the pending attempt
	w = app.do(t, http.MethodPost, "/api/v1/instagram/connect", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	retryURL, err := url.Parse(decode(t, w)["authUrl"].(string))
	require.NoError(t, err)
	retryState := retryURL.Query().Get("state")
	require.NotEmpty(t, retryState)
	assert.NotEqual(t, state, retryState)

	w = app.do(t, http.MethodGet, "/auth-callback?state="+url.QueryEscape(state)+"&code=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodGet, "/auth-callback?state=forged&code=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodGet, "/auth-callback?state="+url.QueryEscape(retryState)+"&code=abc", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Connected to Instagram")

	assert.Eventually(t, func() bool {
		w := app.do(t, http.MethodGet, "/api/v1/instagram/status", nil, "")
		var status struct {
			Connected bool `json:"connected"`
		}
		return w.Code == http.StatusOK && json.Unmarshal(w.Body.Bytes(), &status) == nil && status.Connected
	}, 2*time.Second, 10*time.Millisecond)

	w = app.do(t, http.MethodGet, "/api/v1/instagram/media?limit=10", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["count"])

	w = app.do(t, http.MethodGet, "/api/v1/instagram/media?limit=zero", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodGet, "/api/v1/instagram/profile", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "vibes", decode(t, w)["user"].(map[string]any)["username"])

	w = app.doJSON(t, http.MethodPost, "/api/v1/instagram/share", `{"text":"my vibe","kind":"post"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://www.instagram.com/create/?text=my%20vibe", decode(t, w)["url"])

	w = app.do(t, http.MethodGet, "/api/v1/vibe/profile", nil, "")
	assert.Equal(t, true, decode(t, w)["isInstagramConnected"])

	w = app.do(t, http.MethodPost, "/api/v1/instagram/logout", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, http.MethodGet, "/api/v1/instagram/status", nil, "")
	assert.Equal(t, false, decode(t, w)["connected"])
}

func TestInstagramLogoutWhileConnecting(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/v1/instagram/connect", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	authURL, err := url.Parse(decode(t, w)["authUrl"].(string))
	require.NoError(t, err)
	state := authURL.Query().Get("state")

	w = app.do(t, http.MethodPost, "/api/v1/instagram/logout", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, http.MethodGet, "/api/v1/instagram/status", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["connected"])

	w = app.do(t, http.MethodGet, "/auth-callback?state="+url.QueryEscape(state)+"&code=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodPost, "/api/v1/instagram/connect", nil, "")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
