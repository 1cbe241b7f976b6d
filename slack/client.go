// Package slack is a minimal Slack Web API client for review threads:
// posting messages, replying in threads and uploading report files.
package slack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	rfhttp "github.com/randalmurphal/reviewflow/http"
)

// DefaultBaseURL is the Web API root.
const DefaultBaseURL = "https://slack.com/api"

// ErrTokenRequired is returned by NewClient without a bot token.
var ErrTokenRequired = errors.New("slack bot token is required")

// Config configures the client.
type Config struct {
	Token      string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
	RetryWait  time.Duration
}

// Client calls the Slack Web API with a bot token.
type Client struct {
	cfg    Config
	http   *rfhttp.Client
	logger *slog.Logger
}

// Option configures the client.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// WithHTTPClient sets the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = logger }
}

// NewClient creates a client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Token == "" {
		return nil, ErrTokenRequired
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	o := clientOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = rfhttp.DefaultTimeout
		}
		o.httpClient = &http.Client{Timeout: timeout}
	}

	token := cfg.Token
	c := &Client{cfg: cfg, logger: o.logger}
	c.http = rfhttp.NewClient(rfhttp.ClientConfig{
		Client:      o.httpClient,
		BaseURL:     cfg.BaseURL,
		ServiceName: "slack",
		MaxRetries:  cfg.MaxRetries,
		RetryWait:   cfg.RetryWait,
		Logger:      o.logger,
		BeforeRequest: func(req *http.Request) error {
			// Presigned upload URLs carry their own credentials.
			if strings.HasPrefix(req.URL.String(), cfg.BaseURL) {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			return nil
		},
	})
	return c, nil
}

// =============================================================================
// Messages
// =============================================================================

// PostMessage posts text to channel, in the thread rooted at threadTS when
// it is non-empty, and returns the new message's timestamp.
func (c *Client) PostMessage(ctx context.Context, channel, text, threadTS string) (string, error) {
	body := postMessageRequest{Channel: channel, Text: text, ThreadTS: threadTS, Mrkdwn: true}
	var resp postMessageResponse
	if err := c.callJSON(ctx, "chat.postMessage", body, &resp); err != nil {
		return "", err
	}
	return resp.TS, nil
}

// =============================================================================
// Files
// =============================================================================

// UploadFile uploads content as filename and shares it into channel (and
// thread, when threadTS is set) using the external upload flow.
func (c *Client) UploadFile(ctx context.Context, channel, filename string, content []byte, threadTS, title string) error {
	form := url.Values{}
	form.Set("filename", filename)
	form.Set("length", strconv.Itoa(len(content)))
	var ticket uploadURLResponse
	if err := c.call(ctx, "files.getUploadURLExternal", rfhttp.FormBody(form), &ticket); err != nil {
		return err
	}

	upload, err := rfhttp.FileBody("file", filename, content)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(ctx, rfhttp.Request{Method: http.MethodPost, Path: ticket.UploadURL, Body: upload})
	if err != nil {
		return fmt.Errorf("upload %s: %w", filename, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return c.http.ParseError(resp, "upload")
	}

	if title == "" {
		title = filename
	}
	complete := completeUploadRequest{
		Files:     []uploadedFile{{ID: ticket.FileID, Title: title}},
		ChannelID: channel,
		ThreadTS:  threadTS,
	}
	return c.callJSON(ctx, "files.completeUploadExternal", complete, &baseResponse{})
}

// =============================================================================
// Transport
// =============================================================================

// envelope is implemented by every response type.
type envelope interface {
	result() *baseResponse
}

func (c *Client) callJSON(ctx context.Context, method string, body any, out envelope) error {
	b, err := rfhttp.JSONBody(body)
	if err != nil {
		return err
	}
	b.ContentType = "application/json; charset=utf-8"
	return c.call(ctx, method, b, out)
}

// call posts to a Web API method. Slack reports most failures in a 200
// response with ok=false, which are converted to *APIError.
func (c *Client) call(ctx context.Context, method string, body *rfhttp.Body, out envelope) error {
	resp, err := c.http.Do(ctx, rfhttp.Request{Method: http.MethodPost, Path: "/" + method, Body: body})
	if err != nil {
		return fmt.Errorf("slack %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("slack %s: %w", method, c.http.ParseError(resp, method))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode slack %s response: %w", method, err)
	}
	if r := out.result(); !r.OK {
		return &APIError{Method: method, Code: r.Error}
	}
	if w := out.result().Warning; w != "" {
		c.logger.Debug("slack warning", "method", method, "warning", w)
	}
	return nil
}
