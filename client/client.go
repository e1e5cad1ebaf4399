// Package client is a Go SDK for the CMS REST API. It keeps the session
// cookie in a cookie jar and echoes the CSRF token the server hands out.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	apiPrefix  = "/api/v1"
	csrfHeader = "X-CSRF-Token"
)

// Client talks to one CMS server. It is safe for concurrent use.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *log.Logger

	mu   sync.Mutex
	csrf string
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. A cookie jar is added if it has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger logs one line per request.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New returns a client for the server at baseURL, e.g. http://localhost:8000.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}
	c := &Client{base: u, http: &http.Client{Timeout: 30 * time.Second}}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.http.Jar = jar
	}
	return c, nil
}

// BaseURL returns the server root the client was built with.
func (c *Client) BaseURL() string { return c.base.String() }

// Cookies returns the cookies the jar holds for the server.
func (c *Client) Cookies() []*http.Cookie {
	return c.http.Jar.Cookies(c.base)
}

// SetCookies restores cookies saved from an earlier Cookies call.
func (c *Client) SetCookies(cookies []*http.Cookie) {
	c.http.Jar.SetCookies(c.base, cookies)
}

// CSRFToken returns the last token seen in a response.
func (c *Client) CSRFToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.csrf
}

func (c *Client) setCSRF(tok string) {
	if tok == "" {
		return
	}
	c.mu.Lock()
	c.csrf = tok
	c.mu.Unlock()
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// ensureCSRF fetches a token with a safe request when none has been seen yet.
func (c *Client) ensureCSRF(ctx context.Context) error {
	if c.CSRFToken() != "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/healthz", nil), nil)
	if err != nil {
		return err
	}
	_, err = c.send(req, "/healthz", nil)
	return err
}

func isSafe(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

// send performs req and decodes a JSON success body into out when non-nil.
// It returns the raw body for callers that need it.
func (c *Client) send(req *http.Request, path string, out interface{}) ([]byte, error) {
	if !isSafe(req.Method) {
		if tok := c.CSRFToken(); tok != "" {
			req.Header.Set(csrfHeader, tok)
		}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Method: req.Method, Path: path, Err: err}
	}
	defer resp.Body.Close()
	c.setCSRF(resp.Header.Get(csrfHeader))
	if c.logger != nil {
		c.logger.Printf("%s %s -> %d (%s)", req.Method, path, resp.StatusCode, time.Since(start).Round(time.Millisecond))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Method: req.Method, Path: path, Err: err}
	}
	if resp.StatusCode >= 300 {
		return nil, decodeError(resp.StatusCode, body)
	}
	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return nil, fmt.Errorf("%s %s: decode response: %w", req.Method, path, err)
		}
	}
	return body, nil
}

func decodeError(status int, body []byte) *APIError {
	var env struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Field   string `json:"field"`
		} `json:"error"`
	}
	apiErr := &APIError{Status: status}
	if json.Unmarshal(body, &env) == nil && env.Error.Code != "" {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		apiErr.Field = env.Error.Field
		return apiErr
	}
	apiErr.Code = http.StatusText(status)
	apiErr.Message = strings.TrimSpace(string(body))
	return apiErr
}

// do sends a JSON request to an /api/v1 path.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out interface{}) error {
	_, err := c.doRaw(ctx, method, path, query, in, out)
	return err
}

func (c *Client) doRaw(ctx context.Context, method, path string, query url.Values, in, out interface{}) ([]byte, error) {
	if !isSafe(method) {
		if err := c.ensureCSRF(ctx); err != nil {
			return nil, err
		}
	}
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}
	full := apiPrefix + path
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(full, query), body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, full, out)
}

// upload posts data as the multipart field "file".
func (c *Client) upload(ctx context.Context, path, filename string, data []byte, out interface{}) error {
	if err := c.ensureCSRF(ctx); err != nil {
		return err
	}
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := part.Write(data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	full := apiPrefix + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(full, nil), buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	_, err = c.send(req, full, out)
	return err
}
