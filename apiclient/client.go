package apiclient

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/jrsteele09/fnb-console/oauthmodel"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	// DefaultTokenPrefix is the Authorization scheme used unless configured otherwise.
	DefaultTokenPrefix = "Bearer"
	// HeaderRequestID carries a per-call id, unchanged on the replay.
	HeaderRequestID = "X-Request-Id"

	debugTokenLength = 12
)

// Session supplies credentials to a Client and renews them when the backend rejects them.
type Session interface {
	// AccessToken returns the token to attach, or "" when not logged in.
	AccessToken() string
	// Renew returns a usable token after the backend refused rejected.
	Renew(ctx context.Context, rejected string) (string, error)
}

// Client issues API calls against one backend service. With a Session attached it
// injects the access token and replays a request once after a token refresh.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	session        Session
	tokenPrefix    string
	expiredSignals []string
	excludedPaths  []string
	debug          bool
	logger         zerolog.Logger
	metrics        *Metrics
}

// Option defines a function type to modify the Client instance.
type Option func(*Client)

// WithHTTPClient sets the transport. Share one client (and its cookie jar) between the
// account and data services so the refresh cookie set at login is sent on refresh.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithSession enables token injection and recovery.
func WithSession(session Session) Option {
	return func(c *Client) {
		c.session = session
	}
}

// WithTokenPrefix sets the Authorization scheme, e.g. "Token".
func WithTokenPrefix(prefix string) Option {
	return func(c *Client) {
		if prefix = strings.TrimSpace(prefix); prefix != "" {
			c.tokenPrefix = prefix
		}
	}
}

// WithExpiredSignals replaces the error details that mark a recoverable token failure.
func WithExpiredSignals(signals ...string) Option {
	return func(c *Client) {
		c.expiredSignals = signals
	}
}

// WithExcludedPaths lists path fragments that are never recovered, such as the refresh endpoint.
func WithExcludedPaths(paths ...string) Option {
	return func(c *Client) {
		c.excludedPaths = paths
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug logs every request and response at info level.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithMetrics records request and recovery counters.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New returns a client for the service rooted at baseURL. The base is normalised to end
// in a single "/api".
func New(baseURL string, options ...Option) *Client {
	c := &Client{
		baseURL:        apiBase(baseURL),
		httpClient:     http.DefaultClient,
		tokenPrefix:    DefaultTokenPrefix,
		expiredSignals: oauthmodel.ExpiredTokenSignals,
		excludedPaths:  []string{"/refresh/"},
		logger:         log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// BaseURL returns the normalised base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do sends req. A rejection signalling an expired token is recovered once through the
// Session; if recovery fails the original *APIError is returned.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	req = req.clone()
	if req.Header.Get(HeaderRequestID) == "" {
		req.Header.Set(HeaderRequestID, uuid.NewString())
	}

	token := req.token
	if token == "" {
		token = c.currentToken()
	}
	resp, err := c.send(ctx, req, token)
	if err == nil {
		return resp, nil
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || !c.recoverable(req, apiErr) {
		return nil, err
	}

	retry := req.MarkRetried()
	newToken, renewErr := c.session.Renew(ctx, token)
	if renewErr != nil || newToken == "" {
		c.metrics.observeRecovery(OutcomeRejected)
		c.logger.Warn().
			AnErr("renew_error", renewErr).
			Str("method", req.Method).
			Str("path", req.Path).
			Str("request_id", req.Header.Get(HeaderRequestID)).
			Msg("token recovery failed")
		return nil, apiErr
	}

	c.metrics.observeRecovery(OutcomeRecovered)
	return c.send(ctx, retry, newToken)
}

// Get issues a GET with optional query parameters.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, NewRequest(http.MethodGet, path).WithQuery(query))
}

// Post sends payload as JSON.
func (c *Client) Post(ctx context.Context, path string, payload any) (*Response, error) {
	return c.doJSON(ctx, http.MethodPost, path, payload)
}

// Put sends payload as JSON.
func (c *Client) Put(ctx context.Context, path string, payload any) (*Response, error) {
	return c.doJSON(ctx, http.MethodPut, path, payload)
}

// Patch sends payload as JSON.
func (c *Client) Patch(ctx context.Context, path string, payload any) (*Response, error) {
	return c.doJSON(ctx, http.MethodPatch, path, payload)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, NewRequest(http.MethodDelete, path))
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any) (*Response, error) {
	req, err := NewJSONRequest(method, path, payload)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

func (c *Client) currentToken() string {
	if c.session == nil {
		return ""
	}
	return c.session.AccessToken()
}

func (c *Client) recoverable(req *Request, apiErr *APIError) bool {
	if c.session == nil || req.Retried() || c.excluded(req.Path) {
		return false
	}
	return apiErr.IsTokenExpired(c.expiredSignals)
}

func (c *Client) excluded(path string) bool {
	return slices.ContainsFunc(c.excludedPaths, func(p string) bool {
		return strings.Contains(path, p)
	})
}

// send performs one HTTP round trip with token attached when not empty.
// Transport errors are returned unchanged.
func (c *Client) send(ctx context.Context, req *Request, token string) (*Response, error) {
	httpReq, err := c.newHTTPRequest(ctx, req, token)
	if err != nil {
		return nil, err
	}

	if c.debug {
		c.logger.Info().
			Str("method", req.Method).
			Str("url", httpReq.URL.String()).
			Str("auth", shortToken(token)).
			Bool("retry", req.Retried()).
			Str("request_id", req.Header.Get(HeaderRequestID)).
			Msg("request")
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.observeRequest(req.Method, 0)
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		c.metrics.observeRequest(req.Method, 0)
		return nil, err
	}
	c.metrics.observeRequest(req.Method, httpResp.StatusCode)

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		apiErr := newAPIError(req.Method, req.Path, httpResp.StatusCode, body)
		if c.debug {
			c.logger.Warn().
				Str("method", req.Method).
				Str("path", req.Path).
				Int("status", httpResp.StatusCode).
				Str("detail", apiErr.Reason()).
				Msg("response")
		}
		return nil, apiErr
	}

	if c.debug {
		c.logger.Info().
			Str("method", req.Method).
			Str("path", req.Path).
			Int("status", httpResp.StatusCode).
			Msg("response")
	}
	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
	}, nil
}

func (c *Client) newHTTPRequest(ctx context.Context, req *Request, token string) (*http.Request, error) {
	target := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, err
	}

	httpReq.Header = req.Header.Clone()
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	httpReq.Header.Set("Accept", contentTypeJSON)
	if token != "" {
		(&oauth2.Token{AccessToken: token, TokenType: c.tokenPrefix}).SetAuthHeader(httpReq)
	}
	return httpReq, nil
}

func apiBase(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if strings.HasSuffix(base, "/api") {
		return base
	}
	return base + "/api"
}

// shortToken returns a loggable prefix of a token.
func shortToken(token string) string {
	if token == "" {
		return "none"
	}
	if len(token) <= debugTokenLength {
		return token[:len(token)/2] + "…"
	}
	return token[:debugTokenLength] + "…"
}
