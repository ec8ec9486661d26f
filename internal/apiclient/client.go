package apiclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// DefaultRefreshPath is the token exchange endpoint
	DefaultRefreshPath = "/auth/refreshToken"

	defaultTimeout        = 30 * time.Second
	defaultRefreshTimeout = 15 * time.Second
	defaultUserAgent      = "lmscli"
)

// Tokens is the payload of login and refresh responses
type Tokens struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken,omitempty"`
	ExpiresIn    int64    `json:"expiresIn,omitempty"`
	TokenType    string   `json:"tokenType,omitempty"`
	Roles        []string `json:"roles,omitempty"`
}

// TokenStore holds the session tokens of an authenticated client
type TokenStore interface {
	AccessToken() string
	RefreshToken() string
	SetTokens(Tokens) error
	Clear() error
}

// LocaleSource provides the Accept-Language value
type LocaleSource interface {
	Locale() string
}

// TLSConfig configures server verification and client certificates
type TLSConfig struct {
	InsecureSkipVerify bool
	CAFile             string
	CertFile           string
	KeyFile            string
}

// Config is the static configuration of a Client
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	TLS       *TLSConfig
}

// Request describes one API call. Body is JSON encoded once, so the request
// can be replayed after a token refresh.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Header http.Header

	// Blob skips envelope unwrapping; out must be *[]byte or io.Writer
	Blob bool
}

// Client talks to the REST API
type Client struct {
	baseURL     *url.URL
	http        *http.Client
	userAgent   string
	refreshPath string

	tokens    TokenStore
	locale    LocaleSource
	refresher *refresher
	onExpired func(error)

	limiter *rate.Limiter
	metrics *Metrics
	logger  *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithAuth makes the client authenticated: bearer injection and refresh queuing
func WithAuth(store TokenStore) Option {
	return func(c *Client) { c.tokens = store }
}

// WithLocale sets the Accept-Language source
func WithLocale(src LocaleSource) Option {
	return func(c *Client) { c.locale = src }
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRefreshPath overrides DefaultRefreshPath
func WithRefreshPath(path string) Option {
	return func(c *Client) { c.refreshPath = path }
}

// WithOnSessionExpired registers a hook run after a refresh fails and the
// session has been cleared
func WithOnSessionExpired(fn func(error)) Option {
	return func(c *Client) { c.onExpired = fn }
}

// WithLogger sets the client logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records request and refresh metrics
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithRateLimit caps outgoing requests per second
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New creates a client for cfg.BaseURL
func New(cfg Config, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", cfg.BaseURL)
	}

	c := &Client{
		baseURL:     base,
		userAgent:   cfg.UserAgent,
		refreshPath: DefaultRefreshPath,
		logger:      slog.New(slog.DiscardHandler),
	}
	if c.userAgent == "" {
		c.userAgent = defaultUserAgent
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.http == nil {
		hc, err := buildHTTPClient(cfg.TLS, cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
		}
		c.http = hc
	}

	if c.tokens != nil {
		c.refresher = &refresher{
			store:     c.tokens,
			exchange:  c.exchangeRefreshToken,
			onExpired: c.onExpired,
			timeout:   defaultRefreshTimeout,
			logger:    c.logger,
			metrics:   c.metrics,
		}
	}

	return c, nil
}

// Authenticated reports whether the client injects bearer tokens
func (c *Client) Authenticated() bool {
	return c.tokens != nil
}

// BaseURL returns the API root
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Do sends req and decodes the envelope data into out (nil discards it)
func (c *Client) Do(ctx context.Context, req *Request, out any) error {
	body, err := encodeBody(req.Body)
	if err != nil {
		return err
	}

	send := func(ctx context.Context, token string) error {
		return c.roundTrip(ctx, req, body, token, out)
	}

	if c.refresher == nil {
		return send(ctx, "")
	}
	return c.refresher.do(ctx, send)
}

// Get issues a GET request
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post issues a POST request with a JSON body
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Put issues a PUT request with a JSON body
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

// Patch issues a PATCH request with a JSON body
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body}, out)
}

// Delete issues a DELETE request
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path}, out)
}

func encodeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		return data, nil
	}
}

// resolve joins path onto the base URL. path is taken as already escaped,
// so segments built with url.PathEscape survive.
func (c *Client) resolve(path string, query url.Values) string {
	u := c.baseURL.JoinPath(strings.TrimLeft(path, "/"))
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// newRequest builds an HTTP request with the common headers applied
func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, token string) (*http.Request, error) {
	httpReq, err := http.NewRequestWithContext(ctx, method, c.resolve(path, query), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-Id", uuid.NewString())
	if c.locale != nil {
		if lang := c.locale.Locale(); lang != "" {
			httpReq.Header.Set("Accept-Language", lang)
		}
	}
	if c.tokens != nil && token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	return httpReq, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// roundTrip performs one attempt of req with token
func (c *Client) roundTrip(ctx context.Context, req *Request, body []byte, token string, out any) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := c.newRequest(ctx, req.Method, req.Path, req.Query, reader, token)
	if err != nil {
		return err
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		} else {
			err = &TransportError{Method: req.Method, URL: httpReq.URL.String(), Err: err}
		}
		c.metrics.observeRequest(req.Method, outcomeOf(err), time.Since(start))
		return err
	}
	defer resp.Body.Close()

	err = c.decodeResponse(resp, req.Blob, out)
	c.metrics.observeRequest(req.Method, outcomeOf(err), time.Since(start))
	c.logger.Debug("api request",
		"method", req.Method,
		"path", req.Path,
		"status", resp.StatusCode,
		"request_id", httpReq.Header.Get("X-Request-Id"),
		"duration", time.Since(start),
		"error", err,
	)
	return err
}

// buildHTTPClient creates an HTTP client with optional TLS/mTLS configuration
func buildHTTPClient(tlsConfig *TLSConfig, timeout time.Duration) (*http.Client, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if tlsConfig != nil {
		tlsCfg := &tls.Config{
			InsecureSkipVerify: tlsConfig.InsecureSkipVerify,
		}

		if tlsConfig.CertFile != "" && tlsConfig.KeyFile != "" {
			cert, err := tls.LoadX509KeyPair(tlsConfig.CertFile, tlsConfig.KeyFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load client certificate: %w", err)
			}
			tlsCfg.Certificates = []tls.Certificate{cert}
		}

		if tlsConfig.CAFile != "" {
			caCert, err := os.ReadFile(tlsConfig.CAFile)
			if err != nil {
				return nil, fmt.Errorf("failed to read CA certificate: %w", err)
			}
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(caCert) {
				return nil, fmt.Errorf("failed to parse CA certificate")
			}
			tlsCfg.RootCAs = pool
		}

		transport.TLSClientConfig = tlsCfg
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}, nil
}
