// Package request wraps net/http for backend calls: bearer auth, JSON
// encoding, and per-provider usage tracking. No timeout is layered on top
// of the transport here; callers bound calls with their context.
package request

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

	"summitgo/pkg/tracker"
	"summitgo/pkg/version"
)

var defaultUserAgent = fmt.Sprintf("SummitGo/%s (sync engine)", version.Version)

// Client handles HTTP requests against the backend and signed upload targets.
type Client struct {
	httpClient *http.Client
	token      string
	tracker    *tracker.Tracker
}

// New creates a new Client. The token is attached as a bearer credential to
// JSON calls (not to raw transfers, whose URLs are pre-signed).
func New(token string, t *tracker.Tracker) *Client {
	return &Client{
		httpClient: &http.Client{},
		token:      token,
		tracker:    t,
	}
}

// DoJSON performs a request with a JSON body (may be nil) and decodes a JSON
// response into out (may be nil).
func (c *Client) DoJSON(ctx context.Context, method, u string, body, out any) error {
	provider := providerOf(u)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.tracker.TrackAPIFailure(provider)
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		c.tracker.TrackAPIFailure(provider)
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	c.tracker.TrackAPISuccess(provider)

	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// PutRaw transfers raw bytes to a pre-signed URL. No auth header is sent;
// the URL itself carries the credential.
func (c *Client) PutRaw(ctx context.Context, u, contentType string, body io.Reader) error {
	provider := providerOf(u)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.tracker.TrackAPIFailure(provider)
		return fmt.Errorf("transfer failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		c.tracker.TrackAPIFailure(provider)
		return fmt.Errorf("transfer target returned %d", resp.StatusCode)
	}
	c.tracker.TrackAPISuccess(provider)
	return nil
}

// providerOf derives the tracking key from a URL's host.
func providerOf(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		slog.Debug("Unparseable provider URL", "url", u)
		return "unknown"
	}
	return parsed.Host
}
