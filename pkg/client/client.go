// Package client is an HTTP client for the knowledge-base API: document
// ingestion and management, the server-held system prompt, and the streamed
// chat query endpoint.
//
// Every call is a single request. Nothing is retried; failures are returned
// to the caller as *StatusError, *ValidationError or wrapped transport
// errors.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/kbconsole/pkg/logger"
)

// API paths.
const (
	documentsPath    = "/api/ingestion/documents"
	uploadPath       = "/api/ingestion/upload"
	bulkUploadPath   = "/api/ingestion/bulk-upload"
	systemPromptPath = "/api/ingestion/system-prompt"
	promptResetPath  = "/api/ingestion/system-prompt/reset"
	chatStreamPath   = "/api/chat/query/stream"
)

// maxErrorBody bounds how much of a failed response body is kept.
const maxErrorBody = 4 * 1024

// requestIDHeader carries a per-request id for correlating server logs.
const requestIDHeader = "X-Request-ID"

// Client talks to one knowledge-base API.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets an overall per-request timeout. Zero disables it. The
// timeout also bounds streamed chat responses, so keep it generous.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a Client for the API at target (scheme + host + port).
func New(target string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(target, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid API target URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid API target URL %q: scheme must be http or https", target)
	}

	c := &Client{
		base:   base,
		http:   &http.Client{},
		logger: logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Target returns the API base URL.
func (c *Client) Target() string {
	return c.base.String()
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return nil, fmt.Errorf("creating %s %s request: %w", method, path, err)
	}
	req.Header.Set(requestIDHeader, uuid.NewString())
	return req, nil
}

// send performs req and returns the response when its status is 2xx.
// Otherwise the body is drained into a *StatusError.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to knowledge-base API at %s: %w", c.base.Host, err)
	}

	c.logger.Debug("api request",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"request_id", req.Header.Get(requestIDHeader),
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			Method: req.Method,
			Path:   req.URL.Path,
			Code:   resp.StatusCode,
			Body:   errorMessage(body),
		}
	}
	return resp, nil
}

// doJSON sends a request with an optional JSON body and decodes a JSON
// response into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// errorMessage extracts {"detail": ...} or {"error": ...} from an error
// body, falling back to the raw text.
func errorMessage(body []byte) string {
	var payload struct {
		Detail any    `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if s, ok := payload.Detail.(string); ok && s != "" {
			return s
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return string(body)
}
