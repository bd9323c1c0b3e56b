package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"
)

// TokenProvider supplies the bearer token for each request. An error or an
// empty token aborts the request before it reaches the network.
type TokenProvider interface {
	Token() (string, error)
}

// TokenFunc adapts a function to TokenProvider.
type TokenFunc func() (string, error)

// Token calls f.
func (f TokenFunc) Token() (string, error) { return f() }

// Client is a thin HTTP client for the dashboard REST API. It attaches the
// bearer token, decodes the response envelope and maps failures onto the
// package error taxonomy. It never retries.
type Client struct {
	baseURL    string
	tokens     TokenProvider
	httpClient *http.Client
	log        lgr.L
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds every request. Zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithLogger sets the client's logger.
func WithLogger(l lgr.L) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a client for the backend rooted at baseURL
// (e.g., http://localhost:5000). tokens may be nil for clients that only
// call Login.
func NewClient(baseURL string, tokens TokenProvider, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{},
		log:        lgr.NoOp,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Get performs an authenticated GET and decodes envelope data into result.
func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, result, true)
}

// Post performs an authenticated POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, result, true)
}

// Put performs an authenticated PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPut, path, body, result, true)
}

// Delete performs an authenticated DELETE with a JSON body.
func (c *Client) Delete(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodDelete, path, body, result, true)
}

// do builds the request, attaches the token, and decodes the envelope.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
	auth bool,
) error {
	var token string
	if auth {
		if c.tokens == nil {
			return ErrAuthenticationRequired
		}
		t, err := c.tokens.Token()
		if err != nil || t == "" {
			c.log.Logf("[DEBUG] no token for %s %s: %v", method, path, err)
			return ErrAuthenticationRequired
		}
		token = t
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Logf("[WARN] %s %s failed: %v", method, path, err)
		return &NetworkError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Method: method, Path: path, Err: fmt.Errorf("reading response body: %w", err)}
	}
	c.log.Logf("[DEBUG] %s %s -> %d in %s", method, path, resp.StatusCode, time.Since(started).Round(time.Millisecond))

	var env envelope
	decodeErr := json.Unmarshal(respBody, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{
			Method:  method,
			Path:    path,
			Code:    resp.StatusCode,
			Message: env.message(),
		}
	}

	if decodeErr != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, decodeErr)
	}
	if env.Success != nil && !*env.Success {
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Message: env.message()}
	}

	if result == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, result); err != nil {
		return fmt.Errorf("unmarshaling data from %s %s: %w", method, path, err)
	}
	return nil
}

// envelope is the backend's uniform response wrapper.
type envelope struct {
	Success *bool           `json:"success,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e envelope) message() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}
