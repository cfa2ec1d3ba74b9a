// Package views names the cached read views and knows which of them a
// committed submission makes stale.
package views

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"summitgo/pkg/model"
	"summitgo/pkg/store"
)

// Cache key builders. Keys share the "views:" namespace so maintenance can
// prune them wholesale without touching other cache entries.

func PeakDetailKey(peakID string) string     { return "views:peak:" + peakID }
func UserPeaksKey(userID string) string      { return "views:user-peaks:" + userID }
func UserJournalKey(userID string) string    { return "views:journal:" + userID }
func UserProfileKey(userID string) string    { return "views:profile:" + userID }
func RecentActivityKey(userID string) string { return "views:activity:" + userID }

// AreaKey names a map-area view by its bounding box (minLon,minLat,maxLon,maxLat).
func AreaKey(b orb.Bound) string {
	return fmt.Sprintf("views:area:%g,%g,%g,%g", b.Min[0], b.Min[1], b.Max[0], b.Max[1])
}

// Invalidator drops read views made stale by committed submissions.
type Invalidator struct {
	cache store.CacheStore
}

// NewInvalidator creates an invalidator over the given cache.
func NewInvalidator(cache store.CacheStore) *Invalidator {
	return &Invalidator{cache: cache}
}

// SubmissionCommitted invalidates every view the submission's primary payload
// affects. Called once per committed submission, regardless of photo outcome.
func (v *Invalidator) SubmissionCommitted(ctx context.Context, sub *model.PendingSubmission) {
	switch sub.Kind {
	case model.KindTripReport:
		if sub.TripReport == nil {
			return
		}
		// The ascent id doesn't name the peak or user directly; the report
		// belongs to views keyed by them, so take the broad strokes.
		v.drop(ctx,
			"views:peak:",
			"views:user-peaks:",
			"views:journal:",
		)
	case model.KindManualSummit:
		ms := sub.ManualSummit
		if ms == nil {
			return
		}
		v.dropKeys(ctx,
			PeakDetailKey(ms.PeakID),
			UserPeaksKey(ms.UserID),
			UserJournalKey(ms.UserID),
			UserProfileKey(ms.UserID),
			RecentActivityKey(ms.UserID),
		)
		if ms.PeakLocation != nil {
			v.invalidateAreasContaining(ctx, ms.PeakLocation.Point())
		}
	default:
		slog.Warn("Not invalidating views for unknown submission kind", "kind", sub.Kind)
	}
}

func (v *Invalidator) dropKeys(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := v.cache.DeleteCache(ctx, key); err != nil {
			slog.Warn("View invalidation failed", "key", key, "error", err)
		}
	}
}

func (v *Invalidator) drop(ctx context.Context, prefixes ...string) {
	for _, p := range prefixes {
		if err := v.cache.DeleteCachePrefix(ctx, p); err != nil {
			slog.Warn("View invalidation failed", "prefix", p, "error", err)
		}
	}
}

// invalidateAreasContaining drops every cached map-area view whose bounding
// box contains the given point (the summited peak's location).
func (v *Invalidator) invalidateAreasContaining(ctx context.Context, pt orb.Point) {
	keys, err := v.cache.ListCacheKeys(ctx, "views:area:")
	if err != nil {
		slog.Warn("Area view listing failed", "error", err)
		return
	}
	for _, key := range keys {
		bound, ok := parseAreaKey(key)
		if !ok {
			continue
		}
		if bound.Contains(pt) {
			v.dropKeys(ctx, key)
		}
	}
}

func parseAreaKey(key string) (orb.Bound, bool) {
	raw, ok := strings.CutPrefix(key, "views:area:")
	if !ok {
		return orb.Bound{}, false
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return orb.Bound{}, false
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return orb.Bound{}, false
		}
		vals[i] = f
	}
	return orb.Bound{
		Min: orb.Point{vals[0], vals[1]},
		Max: orb.Point{vals[2], vals[3]},
	}, true
}
