// Package http implements the authenticated session shared by every resource handle
// of a client: Basic auth, default headers, interceptors and status classification.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/harvest-client/internal/constants"
	"github.com/fivetwenty-io/harvest-client/pkg/harvest"
)

// Client is an authenticated session. It is safe for concurrent use.
type Client struct {
	httpClient *retryablehttp.Client
	chain      *harvest.InterceptorChain
	logger     harvest.Logger
	debug      bool
}

// Request describes one call. URL is absolute; Query is merged into its query string.
type Request struct {
	Method  string
	URL     string
	Query   url.Values
	Body    any
	Headers map[string]string
}

// Response is a successful (non-error status) response with its body fully read.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

type options struct {
	logger       harvest.Logger
	debug        bool
	userAgent    string
	httpClient   *http.Client
	timeout      time.Duration
	interceptors *harvest.InterceptorChain
	metrics      *harvest.MetricsCollector
}

// Option configures a Client.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(logger harvest.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithDebug logs every request and response.
func WithDebug(debug bool) Option {
	return func(o *options) {
		o.debug = debug
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(o *options) {
		o.userAgent = userAgent
	}
}

// WithHTTPClient sets the underlying transport client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) {
		o.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout of the default transport client.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithInterceptors appends user interceptors after the built-in ones.
func WithInterceptors(chain *harvest.InterceptorChain) Option {
	return func(o *options) {
		o.interceptors = chain
	}
}

// WithMetrics records every request on collector.
func WithMetrics(collector *harvest.MetricsCollector) Option {
	return func(o *options) {
		o.metrics = collector
	}
}

// NewClient creates a session authenticating with apiKey. An empty key sends anonymous requests.
func NewClient(apiKey string, opts ...Option) *Client {
	cfg := &options{
		userAgent: constants.DefaultUserAgent,
		timeout:   constants.DefaultHTTPTimeout,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.CheckRetry = neverRetry
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil

	if cfg.httpClient != nil {
		retryClient.HTTPClient = cfg.httpClient
	} else {
		retryClient.HTTPClient.Timeout = cfg.timeout
	}

	if cfg.logger != nil {
		retryClient.Logger = &leveledLogger{logger: cfg.logger, debug: cfg.debug}
	}

	chain := harvest.NewInterceptorChain()
	chain.AddRequestInterceptor(harvest.BasicAuthInterceptor(apiKey))
	chain.AddRequestInterceptor(harvest.HeaderInterceptor(map[string]string{
		"User-Agent": cfg.userAgent,
		"Accept":     constants.ContentTypeJSON,
	}))
	chain.AddResponseInterceptor(harvest.ClassifyResponseInterceptor())

	if cfg.metrics != nil {
		chain.AddRequestInterceptor(cfg.metrics.RequestInterceptor())
		chain.AddResponseInterceptor(cfg.metrics.ResponseInterceptor())
	}

	chain.Extend(cfg.interceptors)

	return &Client{
		httpClient: retryClient,
		chain:      chain,
		logger:     cfg.logger,
		debug:      cfg.debug,
	}
}

// Do executes a request. Responses with a 4xx/5xx status are never returned:
// the classified *harvest.HTTPError is returned instead.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	fullURL, err := buildURL(req.URL, req.Query)
	if err != nil {
		return nil, err
	}

	intercepted := &harvest.Request{
		Method:   req.Method,
		URL:      fullURL,
		Headers:  make(http.Header),
		Metadata: make(map[string]interface{}),
	}

	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}

		intercepted.Body = data
		intercepted.Headers.Set("Content-Type", constants.ContentTypeJSON)
	}

	for key, value := range req.Headers {
		intercepted.Headers.Set(key, value)
	}

	err = c.chain.ExecuteRequestInterceptors(ctx, intercepted)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, intercepted)
	if err != nil {
		return nil, err
	}

	if resp.Error != nil {
		return nil, resp.Error
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
	}, nil
}

func (c *Client) send(ctx context.Context, req *harvest.Request) (*harvest.Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header = req.Headers.Clone()

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    req.URL,
		})
	}

	start := time.Now()

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		failed := &harvest.Response{Error: fmt.Errorf("request failed: %w", err)}
		_ = c.chain.ExecuteResponseInterceptors(ctx, req, failed)

		return nil, failed.Error
	}

	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method":      req.Method,
			"url":         req.URL,
			"status_code": httpResp.StatusCode,
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}

	resp := &harvest.Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       respBody,
	}

	err = c.chain.ExecuteResponseInterceptors(ctx, req, resp)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, rawURL string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, URL: rawURL, Query: query})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, rawURL string, body any, headers map[string]string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, URL: rawURL, Body: body, Headers: headers})
}

// Put performs a PUT request.
func (c *Client) Put(ctx context.Context, rawURL string, body any, headers map[string]string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, URL: rawURL, Body: body, Headers: headers})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, rawURL string, body any, headers map[string]string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, URL: rawURL, Body: body, Headers: headers})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, rawURL string, headers map[string]string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, URL: rawURL, Headers: headers})
}

func buildURL(rawURL string, query url.Values) (string, error) {
	if len(query) == 0 {
		return rawURL, nil
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid request URL %q: %w", rawURL, err)
	}

	merged := parsed.Query()
	for key, values := range query {
		merged[key] = values
	}

	parsed.RawQuery = merged.Encode()

	return parsed.String(), nil
}

func neverRetry(ctx context.Context, _ *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	return false, err
}
