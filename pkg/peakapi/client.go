// Package peakapi is the client for the remote SummitLog backend: ascent
// updates, manual summit creation, the photo upload protocol, and cached
// read views.
package peakapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"summitgo/pkg/model"
	"summitgo/pkg/request"
	"summitgo/pkg/store"
	"summitgo/pkg/tracker"
	"summitgo/pkg/views"
)

// Client talks to the backend. Write operations are idempotent: ascent
// updates by nature, summit creation via deterministic ids.
type Client struct {
	baseURL string
	http    *request.Client
	cache   store.CacheStore
	tracker *tracker.Tracker
}

// New creates a backend client.
func New(baseURL string, httpClient *request.Client, cache store.CacheStore, t *tracker.Tracker) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		cache:   cache,
		tracker: t,
	}
}

func (c *Client) provider() string {
	parsed, err := url.Parse(c.baseURL)
	if err != nil || parsed.Host == "" {
		return "unknown"
	}
	return parsed.Host
}

// ErrUnavailable marks a failed reachability probe. Callers that only need
// "is the backend up" can branch on it without inspecting the cause.
var ErrUnavailable = errors.New("backend unavailable")

// Ping checks backend reachability. Used by startup probes and the
// connectivity monitor.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.http.DoJSON(ctx, http.MethodGet, c.baseURL+"/health", nil, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// --- Writes ---

// AscentUpdate is the wire form of an ascent (trip report) update.
type AscentUpdate struct {
	AscentID         string   `json:"-"`
	Notes            string   `json:"notes,omitempty"`
	Difficulty       string   `json:"difficulty,omitempty"`
	ExperienceRating int      `json:"experience_rating,omitempty"`
	ConditionTags    []string `json:"condition_tags,omitempty"`
	CustomTags       []string `json:"custom_tags,omitempty"`
}

// UpdateAscent applies a trip report to an existing ascent. Safe to repeat.
func (c *Client) UpdateAscent(ctx context.Context, upd AscentUpdate) error {
	u := fmt.Sprintf("%s/v1/ascents/%s", c.baseURL, url.PathEscape(upd.AscentID))
	return c.http.DoJSON(ctx, http.MethodPatch, u, upd, nil)
}

// ManualSummitCreate is the wire form of a manual summit creation.
// ID is the deterministic resource id; the backend upserts on it.
type ManualSummitCreate struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	PeakID           string    `json:"peak_id"`
	ActivityID       string    `json:"activity_id,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	SummitTime       time.Time `json:"summit_time"`
	Timezone         string    `json:"timezone"`
	Difficulty       string    `json:"difficulty,omitempty"`
	ExperienceRating int       `json:"experience_rating,omitempty"`
	ConditionTags    []string  `json:"condition_tags,omitempty"`
	CustomTags       []string  `json:"custom_tags,omitempty"`
}

// CreateManualSummit creates (or re-creates, as an upsert) a manually logged
// summit and returns the summit resource id. If req.ID is empty it is derived
// from (user, peak, summit date).
func (c *Client) CreateManualSummit(ctx context.Context, req ManualSummitCreate) (string, error) {
	if req.ID == "" {
		date := req.SummitTime.UTC().Format("2006-01-02")
		if loc, err := time.LoadLocation(req.Timezone); err == nil && req.Timezone != "" {
			date = req.SummitTime.In(loc).Format("2006-01-02")
		}
		req.ID = DeterministicSummitID(req.UserID, req.PeakID, date)
	}
	u := c.baseURL + "/v1/summits"
	if err := c.http.DoJSON(ctx, http.MethodPut, u, req, nil); err != nil {
		return "", err
	}
	return req.ID, nil
}

// --- Photo upload protocol ---

// UploadTarget is a signed destination for one photo's bytes.
type UploadTarget struct {
	UploadURL string `json:"upload_url"`
	PhotoID   string `json:"photo_id"`
}

// RequestPhotoUpload asks the backend for a signed upload target, keyed by
// the owning resource (an ascent or a summit).
func (c *Client) RequestPhotoUpload(ctx context.Context, filename, contentType, ownerType, ownerID string) (UploadTarget, error) {
	body := map[string]string{
		"filename":     filename,
		"content_type": contentType,
		"owner_type":   ownerType,
		"owner_id":     ownerID,
	}
	var target UploadTarget
	err := c.http.DoJSON(ctx, http.MethodPost, c.baseURL+"/v1/photos/upload-url", body, &target)
	return target, err
}

// UploadPhotoBytes transfers raw photo bytes to the signed target.
func (c *Client) UploadPhotoBytes(ctx context.Context, uploadURL, contentType string, body io.Reader) error {
	return c.http.PutRaw(ctx, uploadURL, contentType, body)
}

// FinalizePhoto confirms a completed transfer, fixing the photo's dimensions
// and its association with the owning submission.
func (c *Client) FinalizePhoto(ctx context.Context, photoID string, width, height int) error {
	body := map[string]int{"width": width, "height": height}
	u := fmt.Sprintf("%s/v1/photos/%s/finalize", c.baseURL, url.PathEscape(photoID))
	return c.http.DoJSON(ctx, http.MethodPost, u, body, nil)
}

// --- Cached reads ---

// PeakDetail fetches a peak's detail view, served from the local cache when
// present. The sync reporter invalidates this cache after commits.
func (c *Client) PeakDetail(ctx context.Context, peakID string) (*model.Peak, error) {
	key := views.PeakDetailKey(peakID)
	if raw, hit := c.cache.GetCache(ctx, key); hit {
		c.tracker.TrackCacheHit(c.provider())
		var p model.Peak
		if err := json.Unmarshal(raw, &p); err == nil {
			return &p, nil
		}
		slog.Warn("Discarding corrupt cached peak view", "key", key)
	}
	c.tracker.TrackCacheMiss(c.provider())

	var p model.Peak
	u := fmt.Sprintf("%s/v1/peaks/%s", c.baseURL, url.PathEscape(peakID))
	if err := c.http.DoJSON(ctx, http.MethodGet, u, nil, &p); err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(&p); err == nil {
		if err := c.cache.SetCache(ctx, key, raw); err != nil {
			slog.Warn("Failed to cache peak view", "key", key, "error", err)
		}
	}
	return &p, nil
}

// UserJournal fetches a user's climb journal, served from the local cache
// when present.
func (c *Client) UserJournal(ctx context.Context, userID string) ([]model.JournalEntry, error) {
	key := views.UserJournalKey(userID)
	if raw, hit := c.cache.GetCache(ctx, key); hit {
		c.tracker.TrackCacheHit(c.provider())
		var entries []model.JournalEntry
		if err := json.Unmarshal(raw, &entries); err == nil {
			return entries, nil
		}
		slog.Warn("Discarding corrupt cached journal view", "key", key)
	}
	c.tracker.TrackCacheMiss(c.provider())

	var entries []model.JournalEntry
	u := fmt.Sprintf("%s/v1/users/%s/journal", c.baseURL, url.PathEscape(userID))
	if err := c.http.DoJSON(ctx, http.MethodGet, u, nil, &entries); err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(entries); err == nil {
		if err := c.cache.SetCache(ctx, key, raw); err != nil {
			slog.Warn("Failed to cache journal view", "key", key, "error", err)
		}
	}
	return entries, nil
}
