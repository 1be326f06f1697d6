// Package poscache is the client side of the position-cache surface: raw
// item blobs for revalidation plus last-known node coordinates, keyed by
// project ID.
//
// The strict methods (Get, PutItems, PutPositions, DeleteItems) return
// errors; the Saved*/Save*/Invalidate wrappers are best-effort and swallow
// failures so a broken cache never breaks rendering.
package poscache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/stonebell/issuegraph/pkg/model"
)

// Data is one project's cache entry. Items is JSON "null" on a cache miss;
// callers distinguish a miss from a cached empty state.
type Data struct {
	Items         json.RawMessage               `json:"items"`
	NodePositions map[string]model.NodePosition `json:"nodePositions"`
}

// HasItems reports whether the entry carries a raw item blob.
func (d Data) HasItems() bool {
	return len(d.Items) > 0 && string(d.Items) != "null"
}

// Client talks to the cache server surface under baseURL
// (GET/PUT/DELETE {baseURL}/api/cache/{projectID}[...]).
type Client struct {
	baseURL string
	hc      *http.Client
	log     *slog.Logger
}

// NewClient creates a Client. A nil http.Client uses http.DefaultClient; a
// nil logger falls back to slog.Default.
func NewClient(baseURL string, hc *http.Client, log *slog.Logger) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{baseURL: baseURL, hc: hc, log: log}
}

func (c *Client) url(projectID, sub string) string {
	u := fmt.Sprintf("%s/api/cache/%s", c.baseURL, projectID)
	if sub != "" {
		u += "/" + sub
	}
	return u
}

func (c *Client) do(ctx context.Context, method, url string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build cache request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("cache request %s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("cache request %s %s: unexpected status %s", method, url, resp.Status)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode cache response: %w", err)
		}
	}
	return nil
}

// Get fetches the cache entry for a project. An absent entry is data
// (items null, empty positions), not an error.
func (c *Client) Get(ctx context.Context, projectID string) (Data, error) {
	var data Data
	if err := c.do(ctx, http.MethodGet, c.url(projectID, ""), nil, &data); err != nil {
		return Data{}, err
	}
	if data.NodePositions == nil {
		data.NodePositions = map[string]model.NodePosition{}
	}
	return data, nil
}

// PutItems stores the raw item blob for a project.
func (c *Client) PutItems(ctx context.Context, projectID string, items json.RawMessage) error {
	return c.do(ctx, http.MethodPut, c.url(projectID, "items"), items, nil)
}

// DeleteItems clears the raw item blob, keeping positions.
func (c *Client) DeleteItems(ctx context.Context, projectID string) error {
	return c.do(ctx, http.MethodDelete, c.url(projectID, "items"), nil, nil)
}

// PutPositions stores node coordinates. The write is last-writer-wins at
// whole-map granularity.
func (c *Client) PutPositions(ctx context.Context, projectID string, positions map[string]model.NodePosition) error {
	body, err := json.Marshal(positions)
	if err != nil {
		return fmt.Errorf("marshal positions: %w", err)
	}
	return c.do(ctx, http.MethodPut, c.url(projectID, "node-positions"), body, nil)
}

// SavedItems returns the cached raw item blob, or nil on a miss or any
// failure.
func (c *Client) SavedItems(ctx context.Context, projectID string) json.RawMessage {
	data, err := c.Get(ctx, projectID)
	if err != nil {
		c.log.Debug("cache read failed", "project_id", projectID, "error", err)
		return nil
	}
	if !data.HasItems() {
		return nil
	}
	return data.Items
}

// SavedPositions returns the cached position map, or nil when none is
// saved or the cache is unreachable.
func (c *Client) SavedPositions(ctx context.Context, projectID string) map[string]model.NodePosition {
	data, err := c.Get(ctx, projectID)
	if err != nil {
		c.log.Debug("cache read failed", "project_id", projectID, "error", err)
		return nil
	}
	if len(data.NodePositions) == 0 {
		return nil
	}
	return data.NodePositions
}

// SaveItems stores the raw item blob, ignoring failures.
func (c *Client) SaveItems(ctx context.Context, projectID string, items json.RawMessage) {
	if err := c.PutItems(ctx, projectID, items); err != nil {
		c.log.Debug("cache write failed", "project_id", projectID, "error", err)
	}
}

// SavePositions stores node coordinates, ignoring failures.
func (c *Client) SavePositions(ctx context.Context, projectID string, positions map[string]model.NodePosition) {
	if err := c.PutPositions(ctx, projectID, positions); err != nil {
		c.log.Debug("cache write failed", "project_id", projectID, "error", err)
	}
}

// Invalidate drops the raw item blob, ignoring failures.
func (c *Client) Invalidate(ctx context.Context, projectID string) {
	if err := c.DeleteItems(ctx, projectID); err != nil {
		c.log.Debug("cache invalidate failed", "project_id", projectID, "error", err)
	}
}
