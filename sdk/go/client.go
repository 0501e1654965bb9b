package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"studyquest/core"
	"studyquest/engine"
)

// Option configures the Client.
type Option func(*Client)

// Client provides typed access to the StudyQuest HTTP + WebSocket API.
type Client struct {
	baseURL    string
	wsURL      string
	httpClient *http.Client
	headers    http.Header
}

// NewClient constructs a new SDK client targeting the given baseURL (e.g., http://localhost:8080/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	c := &Client{
		baseURL:    baseURL,
		wsURL:      deriveWSURL(baseURL),
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithAuthToken adds an Authorization: Bearer token header to all requests (HTTP + WS).
func WithAuthToken(token string) Option {
	return func(c *Client) {
		if strings.TrimSpace(token) != "" {
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithAPIKey adds an X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if strings.TrimSpace(key) != "" {
			c.headers.Set("X-API-Key", key)
		}
	}
}

// WithHeader sets an arbitrary header applied to HTTP and WS calls.
func WithHeader(k, v string) Option {
	return func(c *Client) {
		if k != "" {
			c.headers.Set(k, v)
		}
	}
}

func userPath(userID, suffix string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", ErrEmptyUserID
	}
	return "/users/" + url.PathEscape(userID) + suffix, nil
}

// RecordActivity reports a completed activity. A zero at lets the server
// stamp the current time.
func (c *Client) RecordActivity(ctx context.Context, userID string, ev core.ActivityEvent, at time.Time) (engine.Outcome, error) {
	path, err := userPath(userID, "/activities")
	if err != nil {
		return engine.Outcome{}, err
	}
	body := struct {
		core.ActivityEvent
		At *time.Time `json:"at,omitempty"`
	}{ActivityEvent: ev}
	if !at.IsZero() {
		body.At = &at
	}
	var out engine.Outcome
	err = c.do(ctx, http.MethodPost, path, body, &out)
	return out, err
}

// GetStats fetches a user's current stats.
func (c *Client) GetStats(ctx context.Context, userID string) (Stats, error) {
	path, err := userPath(userID, "/stats")
	if err != nil {
		return Stats{}, err
	}
	var st Stats
	err = c.do(ctx, http.MethodGet, path, nil, &st)
	return st, err
}

// History fetches a user's activity records, oldest first.
func (c *Client) History(ctx context.Context, userID string) ([]core.ActivityRecord, error) {
	path, err := userPath(userID, "/history")
	if err != nil {
		return nil, err
	}
	var out []core.ActivityRecord
	err = c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// Achievements fetches the catalog annotated with a user's unlocks and progress.
func (c *Client) Achievements(ctx context.Context, userID string) ([]engine.AchievementStatus, error) {
	path, err := userPath(userID, "/achievements")
	if err != nil {
		return nil, err
	}
	var out []engine.AchievementStatus
	err = c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// Catalog fetches the achievement definitions.
func (c *Client) Catalog(ctx context.Context) ([]CatalogEntry, error) {
	var out []CatalogEntry
	err := c.do(ctx, http.MethodGet, "/achievements", nil, &out)
	return out, err
}

// Health probes /healthz and returns status + storage check.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var hs HealthStatus
	req, err := c.newRequest(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return hs, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return hs, err
	}
	defer resp.Body.Close()

	// an unhealthy server answers 503 with the same body
	if resp.StatusCode == http.StatusServiceUnavailable {
		err = json.NewDecoder(resp.Body).Decode(&hs)
		if err == nil {
			err = &APIError{Status: resp.StatusCode, Code: "unhealthy"}
		}
		return hs, err
	}
	err = decodeJSON(resp, &hs)
	return hs, err
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.applyHeaders(req)
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON(resp, out)
}

// SubscribeEvents connects to the WebSocket stream and emits core.Event values.
// A non-empty userID limits the stream to that user's events.
// The returned channel closes when ctx is done or the connection drops.
func (c *Client) SubscribeEvents(ctx context.Context, userID string) (<-chan core.Event, error) {
	if c.wsURL == "" {
		return nil, errors.New("wsURL is not set; ensure baseURL is http/https")
	}
	target := c.wsURL + "/ws"
	if strings.TrimSpace(userID) != "" {
		target = c.wsURL + "/users/" + url.PathEscape(userID) + "/ws"
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, target, c.headers)
	if err != nil {
		return nil, err
	}

	out := make(chan core.Event, 32)
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			var evt core.Event
			if err := conn.ReadJSON(&evt); err != nil {
				return
			}
			select {
			case out <- evt:
			case <-ctx.Done():
				return
			default:
				// drop if consumer is slow
			}
		}
	}()
	return out, nil
}

func (c *Client) applyHeaders(r *http.Request) {
	for k, vals := range c.headers {
		for _, v := range vals {
			r.Header.Add(k, v)
		}
	}
}

func deriveWSURL(httpBase string) string {
	u, err := url.Parse(httpBase)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		// leave as-is for custom schemes
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}
