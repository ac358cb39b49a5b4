// Package azrest is the thin JSON-over-HTTP layer shared by the Azure REST
// clients (search, graph, hosted LLM). SDK-backed clients map their errors
// onto the same sentinels with FromSDK.
package azrest

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

	"github.com/codeready-toolchain/searchctl/pkg/credential"
	"github.com/codeready-toolchain/searchctl/pkg/version"
)

// DefaultTimeout bounds a single request when the caller supplies no client.
const DefaultTimeout = 60 * time.Second

// Authorizer decorates an outgoing request with credentials.
type Authorizer interface {
	Authorize(ctx context.Context, req *http.Request) error
}

// APIKey sets a static key header (search "api-key", OpenAI "api-key").
type APIKey struct {
	Header string
	Key    string
}

// Authorize implements Authorizer.
func (a APIKey) Authorize(_ context.Context, req *http.Request) error {
	if a.Key == "" {
		return fmt.Errorf("%s is empty", a.Header)
	}
	req.Header.Set(a.Header, a.Key)
	return nil
}

// Bearer sets an Authorization header with a token for Scope.
type Bearer struct {
	Provider credential.TokenProvider
	Scope    string
}

// Authorize implements Authorizer.
func (b Bearer) Authorize(ctx context.Context, req *http.Request) error {
	token, err := b.Provider.Token(ctx, b.Scope)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// Client issues JSON requests against a single service base URL.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	auth       Authorizer
	query      url.Values
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithQuery adds query parameters sent on every request (e.g. api-version).
func WithQuery(key, value string) Option {
	return func(c *Client) { c.query.Set(key, value) }
}

// New creates a client for baseURL. auth may be nil for anonymous access.
func New(baseURL string, auth Authorizer, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base URL %q must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		auth:       auth,
		query:      url.Values{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = slog.With("host", u.Host)
	return c, nil
}

// BaseURL returns the service base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Request describes one call. Body is JSON-encoded when set.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   any
}

// Response carries what callers need beyond the decoded body.
type Response struct {
	StatusCode int
	Header     http.Header
}

// Do sends req and decodes a JSON response into out (when non-nil and the
// response has a body). Non-2xx responses are returned as *APIError.
func (c *Client) Do(ctx context.Context, req Request, out any) (*Response, error) {
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Request completed",
		"method", req.Method,
		"path", req.Path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	result := &Response{StatusCode: resp.StatusCode, Header: resp.Header}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result, newAPIError(resp.StatusCode, body)
	}

	if out != nil && len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return result, fmt.Errorf("decode %s %s response: %w", req.Method, req.Path, err)
		}
	}
	return result, nil
}

// Fetch issues a GET against an absolute URL using the client's credentials.
// Used to follow service-provided continuation links.
func (c *Client) Fetch(ctx context.Context, absoluteURL string, out any) error {
	u, err := url.Parse(absoluteURL)
	if err != nil {
		return fmt.Errorf("parse link: %w", err)
	}
	if u.Host != c.baseURL.Host {
		return fmt.Errorf("refusing to follow link to foreign host %q", u.Host)
	}
	rel := strings.TrimPrefix(u.Path, c.baseURL.Path)
	_, err = c.Do(ctx, Request{Method: http.MethodGet, Path: rel, Query: u.Query()}, out)
	return err
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + "/" + strings.TrimLeft(req.Path, "/")

	q := url.Values{}
	for k, v := range c.query {
		q[k] = v
	}
	for k, v := range req.Query {
		q[k] = v
	}
	u.RawQuery = q.Encode()

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", version.Full())
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	if c.auth != nil {
		if err := c.auth.Authorize(ctx, httpReq); err != nil {
			return nil, fmt.Errorf("authorize request: %w", err)
		}
	}
	return httpReq, nil
}
