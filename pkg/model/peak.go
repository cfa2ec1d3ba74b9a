package model

import (
	"time"

	"github.com/paulmach/orb"
)

// GeoPoint is a lon/lat coordinate pair. It wraps orb.Point for JSON
// friendliness (orb.Point marshals as a bare array).
type GeoPoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Point converts to an orb.Point for geometry operations.
func (g GeoPoint) Point() orb.Point {
	return orb.Point{g.Lon, g.Lat}
}

// Peak is a summit as served by the backend's peak-detail view.
type Peak struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Location   GeoPoint `json:"location"`
	ElevationM float64  `json:"elevation_m"`
	AscentsCnt int      `json:"ascents_count"`
}

// Ascent is a recorded climb of a peak by a user.
type Ascent struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	PeakID           string    `json:"peak_id"`
	SummitTime       time.Time `json:"summit_time"`
	Notes            string    `json:"notes,omitempty"`
	Difficulty       string    `json:"difficulty,omitempty"`
	ExperienceRating int       `json:"experience_rating,omitempty"`
}

// JournalEntry is one row of a user's climb journal view.
type JournalEntry struct {
	AscentID  string    `json:"ascent_id"`
	PeakID    string    `json:"peak_id"`
	PeakName  string    `json:"peak_name"`
	Date      time.Time `json:"date"`
	HasReport bool      `json:"has_report"`
}
