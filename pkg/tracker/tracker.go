package tracker

import (
	"sync"
	"sync/atomic"
)

// Tracker tracks usage statistics per backend provider (API host).
type Tracker struct {
	mu    sync.RWMutex
	stats map[string]*ProviderStats
}

// ProviderStats holds metrics for a specific provider.
// Fields are accessed atomically.
type ProviderStats struct {
	CacheHits      int64
	CacheMisses    int64
	APISuccess     int64
	APIFailures    int64
	PhotosUploaded int64
	PhotosFailed   int64
}

// New creates a new Tracker.
func New() *Tracker {
	return &Tracker{
		stats: make(map[string]*ProviderStats),
	}
}

// getStats returns the stats object for a provider, creating it if needed.
func (t *Tracker) getStats(provider string) *ProviderStats {
	t.mu.RLock()
	s, ok := t.stats[provider]
	t.mu.RUnlock()
	if ok {
		return s
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	// Double check
	if s, ok = t.stats[provider]; ok {
		return s
	}
	s = &ProviderStats{}
	t.stats[provider] = s
	return s
}

// TrackCacheHit increments the cache hit counter.
func (t *Tracker) TrackCacheHit(provider string) {
	atomic.AddInt64(&t.getStats(provider).CacheHits, 1)
}

// TrackCacheMiss increments the cache miss counter.
func (t *Tracker) TrackCacheMiss(provider string) {
	atomic.AddInt64(&t.getStats(provider).CacheMisses, 1)
}

// TrackAPISuccess increments the API success counter.
func (t *Tracker) TrackAPISuccess(provider string) {
	atomic.AddInt64(&t.getStats(provider).APISuccess, 1)
}

// TrackAPIFailure increments the API failure counter.
func (t *Tracker) TrackAPIFailure(provider string) {
	atomic.AddInt64(&t.getStats(provider).APIFailures, 1)
}

// TrackPhotoUploaded increments the completed-photo counter.
func (t *Tracker) TrackPhotoUploaded(provider string) {
	atomic.AddInt64(&t.getStats(provider).PhotosUploaded, 1)
}

// TrackPhotoFailed increments the failed-photo counter.
func (t *Tracker) TrackPhotoFailed(provider string) {
	atomic.AddInt64(&t.getStats(provider).PhotosFailed, 1)
}

// Snapshot returns a copy of the current stats keyed by provider.
func (t *Tracker) Snapshot() map[string]ProviderStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]ProviderStats, len(t.stats))
	for provider, s := range t.stats {
		out[provider] = ProviderStats{
			CacheHits:      atomic.LoadInt64(&s.CacheHits),
			CacheMisses:    atomic.LoadInt64(&s.CacheMisses),
			APISuccess:     atomic.LoadInt64(&s.APISuccess),
			APIFailures:    atomic.LoadInt64(&s.APIFailures),
			PhotosUploaded: atomic.LoadInt64(&s.PhotosUploaded),
			PhotosFailed:   atomic.LoadInt64(&s.PhotosFailed),
		}
	}
	return out
}
