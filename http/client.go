package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client defaults.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryWait  = time.Second
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 4 << 10

// Client is the shared transport for the ticket and chat integrations:
// base URL, auth hook, retries on transient failures and typed errors.
type Client struct {
	client        *http.Client
	baseURL       string
	serviceName   string
	maxRetries    int
	retryWait     time.Duration
	beforeRequest func(req *http.Request) error
	logger        *slog.Logger
}

// ClientConfig holds configuration for Client.
type ClientConfig struct {
	Client      *http.Client
	BaseURL     string
	ServiceName string
	MaxRetries  int
	RetryWait   time.Duration

	// BeforeRequest runs on every attempt, after the body and headers are
	// set. Auth schemes that sign the request (JWT) hook in here.
	BeforeRequest func(req *http.Request) error

	Logger *slog.Logger
}

// NewClient creates a Client, filling in defaults for zero values.
func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		client:        cfg.Client,
		baseURL:       cfg.BaseURL,
		serviceName:   cfg.ServiceName,
		maxRetries:    cfg.MaxRetries,
		retryWait:     cfg.RetryWait,
		beforeRequest: cfg.BeforeRequest,
		logger:        cfg.Logger,
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: DefaultTimeout}
	}
	if c.maxRetries <= 0 {
		c.maxRetries = DefaultMaxRetries
	}
	if c.retryWait <= 0 {
		c.retryWait = DefaultRetryWait
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// Request Bodies
// =============================================================================

// Body is a replayable request payload.
type Body struct {
	Data        []byte
	ContentType string
}

// JSONBody encodes v as JSON.
func JSONBody(v any) (*Body, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}
	return &Body{Data: data, ContentType: "application/json"}, nil
}

// FormBody encodes values as application/x-www-form-urlencoded.
func FormBody(values url.Values) *Body {
	return &Body{Data: []byte(values.Encode()), ContentType: "application/x-www-form-urlencoded"}
}

// FileBody builds a multipart/form-data body holding one file under field.
func FileBody(field, filename string, content []byte) (*Body, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}
	return &Body{Data: buf.Bytes(), ContentType: w.FormDataContentType()}, nil
}

// RawBody sends content as-is.
func RawBody(content []byte, contentType string) *Body {
	return &Body{Data: content, ContentType: contentType}
}

// =============================================================================
// Execution
// =============================================================================

// Request describes one call. Path is appended to the base URL unless it
// is already absolute.
type Request struct {
	Method  string
	Path    string
	Body    *Body
	Headers map[string]string
}

// Do executes req with retries on network errors, 429 and 5xx. The caller
// owns the returned body.
func (c *Client) Do(ctx context.Context, req Request) (*http.Response, error) {
	target := req.Path
	if u, err := url.Parse(req.Path); err != nil || !u.IsAbs() {
		target = c.baseURL + req.Path
	}

	var lastErr error
	for attempt := range c.maxRetries {
		var body io.Reader
		if req.Body != nil {
			body = bytes.NewReader(req.Body.Data)
		}
		httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		httpReq.Header.Set("Accept", "application/json")
		if req.Body != nil && req.Body.ContentType != "" {
			httpReq.Header.Set("Content-Type", req.Body.ContentType)
		}
		for k, v := range req.Headers {
			httpReq.Header.Set(k, v)
		}
		if c.beforeRequest != nil {
			if err := c.beforeRequest(httpReq); err != nil {
				return nil, fmt.Errorf("%s: prepare request: %w", c.serviceName, err)
			}
		}

		resp, err := c.client.Do(httpReq)
		last := attempt == c.maxRetries-1
		if err != nil {
			lastErr = fmt.Errorf("%s request failed: %w", c.serviceName, err)
			if last || ctx.Err() != nil {
				break
			}
			if err := c.sleep(ctx, c.retryWait<<attempt); err != nil {
				return nil, err
			}
			continue
		}

		if retryableStatus(resp.StatusCode) && !last {
			wait := c.retryAfter(resp, attempt)
			resp.Body.Close()
			c.logger.Debug("retrying request", "service", c.serviceName, "status", resp.StatusCode, "wait", wait)
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}
		return resp, nil
	}
	return nil, lastErr
}

// DoJSON executes req and decodes a successful JSON response into result.
// A nil result discards the body.
func (c *Client) DoJSON(ctx context.Context, req Request, result any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.ParseError(resp, req.Path)
	}
	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode %s response: %w", c.serviceName, err)
	}
	return nil
}

// Get performs a GET and decodes the response into result.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	return c.DoJSON(ctx, Request{Method: http.MethodGet, Path: path}, result)
}

// Post sends body as JSON and decodes the response into result.
func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	b, err := JSONBody(body)
	if err != nil {
		return err
	}
	return c.DoJSON(ctx, Request{Method: http.MethodPost, Path: path, Body: b}, result)
}

// ParseError converts a failed response into an *APIError.
func (c *Client) ParseError(resp *http.Response, path string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	apiErr := &APIError{
		Service:    c.serviceName,
		StatusCode: resp.StatusCode,
		Endpoint:   path,
		RequestID:  resp.Header.Get("X-Request-Id"),
		Body:       string(body),
	}
	var payload struct {
		Message       string   `json:"message"`
		Error         string   `json:"error"`
		ErrorMessages []string `json:"errorMessages"`
	}
	if json.Unmarshal(body, &payload) == nil {
		switch {
		case payload.Message != "":
			apiErr.Message = payload.Message
		case payload.Error != "":
			apiErr.Message = payload.Error
		case len(payload.ErrorMessages) > 0:
			apiErr.Message = payload.ErrorMessages[0]
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{Service: c.serviceName, RetryAfter: parseRetryAfter(resp), cause: apiErr}
	}
	return apiErr
}

func (c *Client) retryAfter(resp *http.Response, attempt int) time.Duration {
	if d := parseRetryAfter(resp); d > 0 {
		return d
	}
	return c.retryWait << attempt
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func parseRetryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return 0
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}
