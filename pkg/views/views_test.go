package views

import (
	"context"
	"strings"
	"testing"

	"github.com/paulmach/orb"

	"summitgo/pkg/model"
)

type fakeCache struct {
	entries map[string][]byte
}

func newFakeCache(keys ...string) *fakeCache {
	f := &fakeCache{entries: make(map[string][]byte)}
	for _, k := range keys {
		f.entries[k] = []byte("x")
	}
	return f
}

func (f *fakeCache) GetCache(ctx context.Context, key string) ([]byte, bool) {
	v, ok := f.entries[key]
	return v, ok
}

func (f *fakeCache) SetCache(ctx context.Context, key string, val []byte) error {
	f.entries[key] = val
	return nil
}

func (f *fakeCache) DeleteCache(ctx context.Context, key string) error {
	delete(f.entries, key)
	return nil
}

func (f *fakeCache) DeleteCachePrefix(ctx context.Context, prefix string) error {
	for k := range f.entries {
		if strings.HasPrefix(k, prefix) {
			delete(f.entries, k)
		}
	}
	return nil
}

func (f *fakeCache) ListCacheKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	for k := range f.entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func TestManualSummitInvalidation(t *testing.T) {
	cache := newFakeCache(
		PeakDetailKey("peak-1"),
		PeakDetailKey("peak-2"),
		UserPeaksKey("user-1"),
		UserJournalKey("user-1"),
		UserProfileKey("user-1"),
		RecentActivityKey("user-1"),
		UserProfileKey("user-2"),
	)
	inv := NewInvalidator(cache)

	sub := &model.PendingSubmission{
		Kind: model.KindManualSummit,
		ManualSummit: &model.ManualSummitPayload{
			UserID: "user-1",
			PeakID: "peak-1",
		},
	}
	inv.SubmissionCommitted(context.Background(), sub)

	for _, gone := range []string{
		PeakDetailKey("peak-1"),
		UserPeaksKey("user-1"),
		UserJournalKey("user-1"),
		UserProfileKey("user-1"),
		RecentActivityKey("user-1"),
	} {
		if _, ok := cache.entries[gone]; ok {
			t.Errorf("Expected %s invalidated", gone)
		}
	}
	for _, kept := range []string{PeakDetailKey("peak-2"), UserProfileKey("user-2")} {
		if _, ok := cache.entries[kept]; !ok {
			t.Errorf("Unrelated view %s was invalidated", kept)
		}
	}
}

func TestTripReportInvalidation(t *testing.T) {
	cache := newFakeCache(
		PeakDetailKey("peak-1"),
		UserJournalKey("user-1"),
		UserProfileKey("user-1"),
	)
	inv := NewInvalidator(cache)

	sub := &model.PendingSubmission{
		Kind:       model.KindTripReport,
		TripReport: &model.TripReportPayload{AscentID: "asc-1"},
	}
	inv.SubmissionCommitted(context.Background(), sub)

	if _, ok := cache.entries[PeakDetailKey("peak-1")]; ok {
		t.Error("Peak detail should be invalidated")
	}
	if _, ok := cache.entries[UserJournalKey("user-1")]; ok {
		t.Error("Journal should be invalidated")
	}
	// Trip reports do not touch profile views.
	if _, ok := cache.entries[UserProfileKey("user-1")]; !ok {
		t.Error("Profile view should survive a trip report")
	}
}

func TestAreaInvalidationByContainment(t *testing.T) {
	matterhorn := orb.Bound{Min: orb.Point{7.5, 45.9}, Max: orb.Point{7.8, 46.1}}
	elsewhere := orb.Bound{Min: orb.Point{-120, 35}, Max: orb.Point{-119, 36}}

	cache := newFakeCache(AreaKey(matterhorn), AreaKey(elsewhere))
	inv := NewInvalidator(cache)

	sub := &model.PendingSubmission{
		Kind: model.KindManualSummit,
		ManualSummit: &model.ManualSummitPayload{
			UserID:       "user-1",
			PeakID:       "peak-mh",
			PeakLocation: &model.GeoPoint{Lon: 7.6586, Lat: 45.9766},
		},
	}
	inv.SubmissionCommitted(context.Background(), sub)

	if _, ok := cache.entries[AreaKey(matterhorn)]; ok {
		t.Error("Containing area view should be invalidated")
	}
	if _, ok := cache.entries[AreaKey(elsewhere)]; !ok {
		t.Error("Non-containing area view should survive")
	}
}

func TestParseAreaKeyRejectsGarbage(t *testing.T) {
	for _, key := range []string{"views:area:", "views:area:1,2,3", "views:area:a,b,c,d", "views:peak:x"} {
		if _, ok := parseAreaKey(key); ok {
			t.Errorf("parseAreaKey accepted %q", key)
		}
	}
}
