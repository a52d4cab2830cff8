// Package client is the Go SDK for the Clarion hospital administration API.
// It covers filtered list fetching, report export downloads, and optimistic
// inventory mutations against a cookie-authenticated server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// Client holds the connection to one Clarion server. Authentication rides on
// the cookie jar; Login populates it.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient substitutes the underlying HTTP client. The jar is preserved
// if the replacement has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc.Jar == nil {
			hc.Jar = c.httpClient.Jar
		}
		c.httpClient = hc
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New constructs a Client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: 60 * time.Second,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Login authenticates with email and password, storing the session cookie in
// the jar for subsequent requests.
func (c *Client) Login(ctx context.Context, email, password string) error {
	form := url.Values{}
	form.Set("email", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer drainClose(resp.Body)

	if resp.StatusCode >= 400 {
		return newHTTPError(resp)
	}
	// The server answers with redirects to HTML pages either way; a rejected
	// login lands back on the sign-in page.
	if resp.Request != nil && strings.HasPrefix(resp.Request.URL.Path, "/login") {
		return ErrInvalidCredentials
	}
	return nil
}

// Logout destroys the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, "/auth/logout", url.Values{}, nil)
	if err != nil {
		return err
	}
	defer drainClose(resp.Body)
	if resp.StatusCode >= 400 {
		return newHTTPError(resp)
	}
	return nil
}

// do issues one API request. JSON bodies are encoded from body when non-nil.
// Every request carries the XMLHttpRequest marker the server requires on
// unsafe methods.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("api request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode))
	return resp, nil
}

// decodeJSON reads and decodes a response body, translating HTML payloads on
// 200 responses into the session-expired sentinel.
func decodeJSON(resp *http.Response, target any) error {
	defer drainClose(resp.Body)
	if isHTMLResponse(resp) {
		return ErrSessionExpired
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newHTTPError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

func isHTMLResponse(resp *http.Response) bool {
	if resp.StatusCode != http.StatusOK {
		return false
	}
	contentType := resp.Header.Get("Content-Type")
	return strings.HasPrefix(contentType, "text/html")
}

func drainClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 1<<16))
	_ = body.Close()
}

// apiPath joins path segments under the base URL, escaping each segment.
func apiPath(segments ...string) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString("/")
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}
