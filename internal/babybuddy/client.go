package babybuddy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/MrSnakeDoc/cradle/internal/logger"
	"github.com/MrSnakeDoc/cradle/internal/metrics"
)

// Options configures the API client.
type Options struct {
	Host    string        // ex: "https://baby.example.com"
	Port    int           // ex: 8000
	APIKey  string        // Baby Buddy API token
	Timeout time.Duration // per-request timeout (default 10s)
}

// Client talks to the Baby Buddy REST API. It is safe for concurrent use
// after Connect has succeeded.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  logger.Logger
	metrics *metrics.Collector

	mu        sync.RWMutex
	endpoints map[string]string
}

// New creates an API client. mc may be nil to disable instrumentation.
func New(opts Options, log logger.Logger, mc *metrics.Collector) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		token:   opts.APIKey,
		http:    &http.Client{Timeout: timeout},
		logger:  log,
		metrics: mc,
	}
}

// Connect checks connectivity and discovers the endpoint URL map from
// GET /api/. A 401/403 surfaces as ErrAuthorization, anything else that
// prevents discovery as ErrConnect.
func (c *Client) Connect(ctx context.Context) error {
	body, status, err := c.do(ctx, http.MethodGet, c.baseURL+"/api/", nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnect, err)
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return fmt.Errorf("%w: status %d", ErrAuthorization, status)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", ErrConnect, status)
	}

	endpoints := make(map[string]string)
	if err := json.Unmarshal(body, &endpoints); err != nil {
		return fmt.Errorf("%w: failed to decode endpoint map: %v", ErrConnect, err)
	}

	c.mu.Lock()
	c.endpoints = endpoints
	c.mu.Unlock()

	c.logger.Debug("discovered babybuddy endpoints",
		logger.Int("count", len(endpoints)))
	return nil
}

// Children fetches all children.
func (c *Client) Children(ctx context.Context) ([]Child, error) {
	body, err := c.get(ctx, EndpointChildren, "")
	if err != nil {
		return nil, err
	}

	var p page
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("failed to decode children: %w", err)
	}

	children := make([]Child, 0, len(p.Results))
	for _, raw := range p.Results {
		var child Child
		if err := json.Unmarshal(raw, &child); err != nil {
			return nil, fmt.Errorf("failed to decode child: %w", err)
		}
		children = append(children, child)
	}
	return children, nil
}

// LatestEntry fetches the most recent record of endpoint for a child.
// It returns nil when the child has no records there yet.
func (c *Client) LatestEntry(ctx context.Context, endpoint string, childID int) (map[string]any, error) {
	body, err := c.get(ctx, endpoint, fmt.Sprintf("?child=%d&limit=1", childID))
	if err != nil {
		return nil, err
	}

	var p page
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", endpoint, err)
	}
	if len(p.Results) == 0 {
		return nil, nil
	}

	entry := make(map[string]any)
	if err := json.Unmarshal(p.Results[0], &entry); err != nil {
		return nil, fmt.Errorf("failed to decode %s entry: %w", endpoint, err)
	}
	return entry, nil
}

// ActiveTimer returns the child's running timer, or nil when none is active.
func (c *Client) ActiveTimer(ctx context.Context, childID int) (*Timer, error) {
	body, err := c.get(ctx, EndpointTimers, fmt.Sprintf("?child=%d&active=true&limit=1", childID))
	if err != nil {
		return nil, err
	}

	var p page
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("failed to decode timers: %w", err)
	}
	if len(p.Results) == 0 {
		return nil, nil
	}

	var timer Timer
	if err := json.Unmarshal(p.Results[0], &timer); err != nil {
		return nil, fmt.Errorf("failed to decode timer: %w", err)
	}
	return &timer, nil
}

// Post creates a record on endpoint. Anything but 201 Created is an APIError.
func (c *Client) Post(ctx context.Context, endpoint string, data map[string]any) error {
	url, err := c.endpointURL(endpoint)
	if err != nil {
		return err
	}

	c.logger.Debug("POST to babybuddy",
		logger.String("endpoint", endpoint))

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", endpoint, err)
	}

	body, status, err := c.doInstrumented(ctx, http.MethodPost, endpoint, url, payload)
	if err != nil {
		return fmt.Errorf("failed to create %s entry: %w", endpoint, err)
	}
	if status != http.StatusCreated {
		return &APIError{Endpoint: endpoint, Status: status, Body: string(body)}
	}
	return nil
}

// Patch updates an existing record on endpoint. Anything but 200 OK is an
// APIError.
func (c *Client) Patch(ctx context.Context, endpoint string, entry int, data map[string]any) error {
	url, err := c.endpointURL(endpoint)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", endpoint, err)
	}

	body, status, err := c.doInstrumented(ctx, http.MethodPatch, endpoint, fmt.Sprintf("%s%d/", url, entry), payload)
	if err != nil {
		return fmt.Errorf("failed to update %s/%d: %w", endpoint, entry, err)
	}
	if status != http.StatusOK {
		return &APIError{Endpoint: endpoint, Status: status, Body: string(body)}
	}
	return nil
}

// Delete removes a record from endpoint. Anything but 204 No Content is an
// APIError.
func (c *Client) Delete(ctx context.Context, endpoint string, entry int) error {
	url, err := c.endpointURL(endpoint)
	if err != nil {
		return err
	}

	body, status, err := c.doInstrumented(ctx, http.MethodDelete, endpoint, fmt.Sprintf("%s%d/", url, entry), nil)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%d: %w", endpoint, entry, err)
	}
	if status != http.StatusNoContent {
		return &APIError{Endpoint: endpoint, Status: status, Body: string(body)}
	}
	return nil
}

// get issues an instrumented GET against a discovered endpoint, with an
// optional query string appended.
func (c *Client) get(ctx context.Context, endpoint, query string) ([]byte, error) {
	url, err := c.endpointURL(endpoint)
	if err != nil {
		return nil, err
	}

	body, status, err := c.doInstrumented(ctx, http.MethodGet, endpoint, url+query, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", endpoint, err)
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, fmt.Errorf("%w: status %d", ErrAuthorization, status)
	}
	if status != http.StatusOK {
		return nil, &APIError{Endpoint: endpoint, Status: status, Body: string(body)}
	}
	return body, nil
}

func (c *Client) endpointURL(endpoint string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.endpoints) == 0 {
		return "", ErrNotConnected
	}
	url, ok := c.endpoints[endpoint]
	if !ok {
		return "", fmt.Errorf("babybuddy: unknown endpoint %q", endpoint)
	}
	return url, nil
}

func (c *Client) doInstrumented(ctx context.Context, method, endpoint, url string, payload []byte) ([]byte, int, error) {
	start := time.Now()
	body, status, err := c.do(ctx, method, url, payload)

	if c.metrics != nil {
		c.metrics.UpstreamDuration.WithLabelValues(method, endpoint).Observe(time.Since(start).Seconds())
		if err != nil {
			c.metrics.UpstreamErrors.WithLabelValues(endpoint).Inc()
		}
	}
	return body, status, err
}

func (c *Client) do(ctx context.Context, method, url string, payload []byte) ([]byte, int, error) {
	var reader io.Reader = http.NoBody
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}
