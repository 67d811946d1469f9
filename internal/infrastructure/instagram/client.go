// Package instagram provides the HTTP client for Instagram's OAuth and graph endpoints.
package instagram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/AtRiskMedia/vibecheck-go/internal/domain/apperrors"
	"github.com/AtRiskMedia/vibecheck-go/internal/domain/entities/session"
	"github.com/AtRiskMedia/vibecheck-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/vibecheck-go/pkg/config"
)

const (
	mediaFields   = "id,caption,media_type,media_url,thumbnail_url,permalink"
	profileFields = "id,username,account_type,media_count"
	maxErrorBody  = 4096
)

// Options configures a Client. Empty base URLs fall back to the public endpoints.
type Options struct {
	AppID        string
	AppSecret    string
	RedirectURI  string
	Scope        string
	AuthBaseURL  string
	GraphBaseURL string
	Timeout      time.Duration
	HTTPClient   *http.Client
}

// OptionsFromConfig builds Options from the process configuration.
func OptionsFromConfig() Options {
	return Options{
		AppID:        config.InstagramAppID,
		AppSecret:    config.InstagramAppSecret,
		RedirectURI:  config.InstagramRedirectURI,
		Scope:        config.InstagramScope,
		AuthBaseURL:  config.InstagramAuthBaseURL,
		GraphBaseURL: config.InstagramGraphBaseURL,
		Timeout:      config.HTTPClientTimeout,
	}
}

// Client talks to api.instagram.com and graph.instagram.com.
type Client struct {
	opts       Options
	httpClient *http.Client
	logger     *logging.ChanneledLogger
}

// NewClient creates a Client.
func NewClient(opts Options, logger *logging.ChanneledLogger) *Client {
	if opts.AuthBaseURL == "" {
		opts.AuthBaseURL = "https://api.instagram.com"
	}
	if opts.GraphBaseURL == "" {
		opts.GraphBaseURL = "https://graph.instagram.com"
	}
	opts.AuthBaseURL = strings.TrimRight(opts.AuthBaseURL, "/")
	opts.GraphBaseURL = strings.TrimRight(opts.GraphBaseURL, "/")

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{opts: opts, httpClient: httpClient, logger: logger}
}

// RedirectURI is the registered OAuth redirect.
func (c *Client) RedirectURI() string {
	return c.opts.RedirectURI
}

// AuthorizeURL builds the consent-screen URL for one connect attempt.
func (c *Client) AuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", c.opts.AppID)
	q.Set("redirect_uri", c.opts.RedirectURI)
	q.Set("scope", c.opts.Scope)
	q.Set("response_type", "code")
	q.Set("state", state)
	return c.opts.AuthBaseURL + "/oauth/authorize?" + q.Encode()
}

type shortLivedTokenResponse struct {
	AccessToken string      `json:"access_token"`
	UserID      json.Number `json:"user_id"`
}

type longLivedTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// ExchangeCode trades an authorization code for a short-lived token.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (*session.TokenGrant, error) {
	if redirectURI == "" {
		redirectURI = c.opts.RedirectURI
	}
	form := url.Values{}
	form.Set("client_id", c.opts.AppID)
	form.Set("client_secret", c.opts.AppSecret)
	form.Set("grant_type", "authorization_code")
	form.Set("redirect_uri", redirectURI)
	form.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.AuthBaseURL+"/oauth/access_token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &apperrors.UpstreamError{Op: "exchange code", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var body shortLivedTokenResponse
	if status, err := c.do(req, &body); err != nil {
		return nil, &apperrors.UpstreamError{Op: "exchange code", StatusCode: status, Err: err}
	}
	if body.AccessToken == "" {
		return nil, &apperrors.UpstreamError{Op: "exchange code", Err: errors.New("response carried no access_token")}
	}

	return &session.TokenGrant{AccessToken: body.AccessToken, UserID: body.UserID.String()}, nil
}

// UpgradeToken exchanges a short-lived token for a long-lived one.
func (c *Client) UpgradeToken(ctx context.Context, shortLived string) (*session.TokenGrant, error) {
	q := url.Values{}
	q.Set("grant_type", "ig_exchange_token")
	q.Set("client_secret", c.opts.AppSecret)
	q.Set("access_token", shortLived)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.GraphBaseURL+"/access_token?"+q.Encode(), nil)
	if err != nil {
		return nil, &apperrors.UpstreamError{Op: "upgrade token", Err: err}
	}

	var body longLivedTokenResponse
	if status, err := c.do(req, &body); err != nil {
		return nil, &apperrors.UpstreamError{Op: "upgrade token", StatusCode: status, Err: err}
	}
	if body.AccessToken == "" {
		return nil, &apperrors.UpstreamError{Op: "upgrade token", Err: errors.New("response carried no access_token")}
	}

	return &session.TokenGrant{AccessToken: body.AccessToken, ExpiresIn: body.ExpiresIn, TokenType: body.TokenType}, nil
}

// FetchProfile reads the token owner's account.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*session.InstagramProfile, error) {
	if accessToken == "" {
		return nil, apperrors.ErrNotConnected
	}
	q := url.Values{}
	q.Set("fields", profileFields)
	q.Set("access_token", accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.GraphBaseURL+"/me?"+q.Encode(), nil)
	if err != nil {
		return nil, &apperrors.RemoteFetchError{Resource: "profile", Err: err}
	}

	var profile session.InstagramProfile
	if status, err := c.do(req, &profile); err != nil {
		return nil, &apperrors.RemoteFetchError{Resource: "profile", StatusCode: status, Err: err}
	}
	return &profile, nil
}

// FetchMedia reads up to limit of the token owner's media items.
func (c *Client) FetchMedia(ctx context.Context, accessToken string, limit int) ([]session.MediaItem, error) {
	if accessToken == "" {
		return nil, apperrors.ErrNotConnected
	}
	q := url.Values{}
	q.Set("fields", mediaFields)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("access_token", accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.GraphBaseURL+"/me/media?"+q.Encode(), nil)
	if err != nil {
		return nil, &apperrors.RemoteFetchError{Resource: "media", Err: err}
	}

	var page struct {
		Data []session.MediaItem `json:"data"`
	}
	if status, err := c.do(req, &page); err != nil {
		return nil, &apperrors.RemoteFetchError{Resource: "media", StatusCode: status, Err: err}
	}
	if page.Data == nil {
		page.Data = []session.MediaItem{}
	}
	return page.Data, nil
}

// do sends req and decodes a 2xx JSON body into out. The returned status is
// zero on transport failure.
func (c *Client) do(req *http.Request, out any) (int, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Auth().Warn("Instagram request failed", "path", req.URL.Path, "error", err.Error(), "duration", time.Since(start))
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Auth().Warn("Instagram request rejected", "path", req.URL.Path, "status", resp.StatusCode, "duration", time.Since(start))
		msg := strings.TrimSpace(string(snippet))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return resp.StatusCode, errors.New(msg)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Auth().Debug("Instagram request completed", "path", req.URL.Path, "status", resp.StatusCode, "duration", time.Since(start))
	return resp.StatusCode, nil
}
