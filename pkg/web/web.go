// Package web implements the HTTP utilities exposed as tools: plain
// requests, HTML scraping, endpoint monitoring, and JSON structure analysis.
package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (compatible; AnalyticsBot/1.0)"
	DefaultAccept    = "text/html,application/json,application/xhtml+xml"
	DefaultTimeout   = 30 * time.Second

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 10 << 20
)

// Config configures a Client.
type Config struct {
	UserAgent string
	Accept    string

	// Timeout is the per-request timeout used when a call does not set one.
	Timeout time.Duration

	// HTTPClient overrides the transport. Its own Timeout is ignored in
	// favor of per-request contexts.
	HTTPClient *http.Client

	// Now is the clock for metadata timestamps. Nil uses time.Now.
	Now func() time.Time
}

// Client performs outbound web requests on behalf of the tools.
type Client struct {
	userAgent  string
	accept     string
	timeout    time.Duration
	httpClient *http.Client
	now        func() time.Time
	logger     *slog.Logger
}

// New creates a Client, filling unset Config fields with defaults.
func New(cfg Config, logger *slog.Logger) *Client {
	c := &Client{
		userAgent:  cfg.UserAgent,
		accept:     cfg.Accept,
		timeout:    cfg.Timeout,
		httpClient: cfg.HTTPClient,
		now:        cfg.Now,
		logger:     logger,
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.accept == "" {
		c.accept = DefaultAccept
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// RequestOptions configures Request.
type RequestOptions struct {
	// Method defaults to GET.
	Method string `json:"method,omitempty"`

	// Params are appended to the URL query string.
	Params map[string]any `json:"params,omitempty"`

	// Data is JSON-encoded as the request body for non-GET methods.
	Data any `json:"data,omitempty"`

	// Headers override the default headers.
	Headers map[string]string `json:"headers,omitempty"`

	Timeout time.Duration `json:"-"`
}

// RequestMetadata describes a completed or failed request.
type RequestMetadata struct {
	URL            string `json:"url"`
	Method         string `json:"method,omitempty"`
	Timestamp      string `json:"timestamp"`
	ResponseTimeMs int64  `json:"responseTimeMs"`
}

// Response is the envelope returned by Request.
type Response struct {
	Success bool              `json:"success"`
	Status  int               `json:"status,omitempty"`
	Data    any               `json:"data,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Error   string            `json:"error,omitempty"`

	Metadata RequestMetadata `json:"metadata"`
}

// fetched is a raw response body plus what Request reports about it.
type fetched struct {
	status      int
	contentType string
	headers     map[string]string
	body        []byte
	meta        RequestMetadata
}

// Request performs a single HTTP request. Non-2xx statuses are reported with
// Success false but still carry the status, headers, and body.
func (c *Client) Request(ctx context.Context, rawURL string, opts RequestOptions) Response {
	f, err := c.fetch(ctx, rawURL, opts)
	if err != nil {
		return Response{
			Success:  false,
			Error:    err.Error(),
			Metadata: f.meta,
		}
	}

	resp := Response{
		Success:  f.status >= 200 && f.status < 300,
		Status:   f.status,
		Data:     decodeBody(f.contentType, f.body),
		Headers:  f.headers,
		Metadata: f.meta,
	}
	if !resp.Success {
		resp.Error = fmt.Sprintf("request failed with status code %d", f.status)
	}
	return resp
}

func (c *Client) fetch(ctx context.Context, rawURL string, opts RequestOptions) (fetched, error) {
	method := strings.ToUpper(strings.TrimSpace(opts.Method))
	if method == "" {
		method = http.MethodGet
	}

	start := c.now()
	out := fetched{meta: RequestMetadata{
		URL:       rawURL,
		Method:    method,
		Timestamp: start.UTC().Format(time.RFC3339Nano),
	}}

	u, err := url.Parse(rawURL)
	if err != nil {
		return out, fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return out, fmt.Errorf("invalid url %q: scheme must be http or https", rawURL)
	}
	if len(opts.Params) > 0 {
		q := u.Query()
		for k, v := range opts.Params {
			q.Set(k, fmt.Sprint(v))
		}
		u.RawQuery = q.Encode()
	}
	out.meta.URL = u.String()

	var body io.Reader
	if opts.Data != nil && method != http.MethodGet {
		data, err := json.Marshal(opts.Data)
		if err != nil {
			return out, fmt.Errorf("encoding request data: %w", err)
		}
		body = bytes.NewReader(data)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return out, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", c.accept)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	c.logger.Debug("web request", "method", method, "url", out.meta.URL)

	resp, err := c.httpClient.Do(req)
	out.meta.ResponseTimeMs = c.now().Sub(start).Milliseconds()
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	out.meta.ResponseTimeMs = c.now().Sub(start).Milliseconds()
	if err != nil {
		return out, fmt.Errorf("reading response body: %w", err)
	}

	out.status = resp.StatusCode
	out.contentType = resp.Header.Get("Content-Type")
	out.body = data
	out.headers = make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		out.headers[strings.ToLower(k)] = resp.Header.Get(k)
	}

	return out, nil
}

// decodeBody returns decoded JSON for JSON content types and the body text
// otherwise. A JSON body that fails to decode is returned as text.
func decodeBody(contentType string, body []byte) any {
	if len(body) == 0 {
		return nil
	}
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType == "application/json" || strings.HasSuffix(mediaType, "+json") {
		var v any
		if err := json.Unmarshal(body, &v); err == nil {
			return v
		}
	}
	return string(body)
}
