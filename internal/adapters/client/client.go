// Package client talks to a running deck server: it passes the gate and
// fetches the engagement document. The session marker lives in a cookie jar.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/okian/deck/internal/domain/engagement"
	"github.com/okian/deck/internal/domain/gate"
	"github.com/okian/deck/pkg/logger"
)

// Defaults.
const (
	DefaultTimeout        = 10 * time.Second
	DefaultVerifyPath     = "/api/auth"
	DefaultLogoutPath     = "/api/logout"
	DefaultEngagementPath = "/api/engagement"
	maxBody               = 4 << 20
)

// Client is an HTTP client for the deck API. It implements gate.Transport.
type Client struct {
	base *url.URL
	http *http.Client
	log  logger.Logger
}

var _ gate.Transport = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New returns a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	c := &Client{
		base: u,
		http: &http.Client{
			Timeout: DefaultTimeout,
			Jar:     jar,
			// The gate answers with redirects; surface them instead of
			// following to an HTML page.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		log: logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Verify submits secret to the verification endpoint. On success the jar
// holds the session marker.
func (c *Client) Verify(ctx context.Context, secret string) error {
	body, err := json.Marshal(map[string]string{"password": secret})
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(DefaultVerifyPath), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("verify: %w", err)
	}
	data, err := readResponseBody(resp)
	if err != nil {
		return err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		c.log.Debug(ctx, "gate unlocked")
		return nil
	case http.StatusUnauthorized:
		return gate.ErrInvalidSecret
	}
	var eb errorBody
	if json.Unmarshal(data, &eb) == nil && eb.Code == "not_configured" {
		return gate.ErrNotConfigured
	}
	return fmt.Errorf("%w: verify: %d", ErrUnexpectedStatus, resp.StatusCode)
}

// Engagement fetches the engagement document. It returns ErrLocked while
// the client holds no valid session marker.
func (c *Client) Engagement(ctx context.Context) (*engagement.Engagement, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(DefaultEngagementPath), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch engagement: %w", err)
	}
	data, err := readResponseBody(resp)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		return nil, ErrLocked
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: engagement: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var e engagement.Engagement
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decode engagement: %w", err)
	}
	if err := engagement.Validate(&e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Logout revokes the session marker.
func (c *Client) Logout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(DefaultLogoutPath), http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if _, err := readResponseBody(resp); err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: logout: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return nil
}

// Open tries to fetch the engagement and reports whether the gate is in the
// way. A nil error with locked false means the deck is open already.
func (c *Client) Open(ctx context.Context) (e *engagement.Engagement, locked bool, err error) {
	e, err = c.Engagement(ctx)
	if errors.Is(err, ErrLocked) {
		return nil, true, nil
	}
	return e, false, err
}

func (c *Client) endpoint(path string) string {
	return c.base.String() + path
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}
