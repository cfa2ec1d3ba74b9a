package model

import (
	"time"
)

// SubmissionKind discriminates the types of queued writes.
type SubmissionKind string

const (
	KindTripReport   SubmissionKind = "trip_report"
	KindManualSummit SubmissionKind = "manual_summit"
)

// PhotoRef points at a photo on the local device that should be attached
// to a submission once its primary payload has been committed.
type PhotoRef struct {
	URI      string `json:"uri"`
	Filename string `json:"filename"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// TripReportPayload carries an update to an existing ascent record.
type TripReportPayload struct {
	AscentID         string   `json:"ascent_id"`
	Notes            string   `json:"notes,omitempty"`
	Difficulty       string   `json:"difficulty,omitempty"`
	ExperienceRating int      `json:"experience_rating,omitempty"`
	ConditionTags    []string `json:"condition_tags,omitempty"`
	CustomTags       []string `json:"custom_tags,omitempty"`
}

// ManualSummitPayload carries a summit the user logged by hand, i.e. one the
// backend has no activity recording for.
type ManualSummitPayload struct {
	UserID           string     `json:"user_id"`
	PeakID           string     `json:"peak_id"`
	ActivityID       string     `json:"activity_id,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	SummitTime       time.Time  `json:"summit_time"`
	Timezone         string     `json:"timezone"`
	Difficulty       string     `json:"difficulty,omitempty"`
	ExperienceRating int        `json:"experience_rating,omitempty"`
	ConditionTags    []string   `json:"condition_tags,omitempty"`
	CustomTags       []string   `json:"custom_tags,omitempty"`
	PeakLocation     *GeoPoint  `json:"peak_location,omitempty"`
}

// SummitDate returns the calendar date of the summit in the payload's
// timezone, formatted YYYY-MM-DD. Falls back to UTC if the timezone
// string doesn't resolve.
func (p *ManualSummitPayload) SummitDate() string {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil || p.Timezone == "" {
		loc = time.UTC
	}
	return p.SummitTime.In(loc).Format("2006-01-02")
}

// PendingSubmission is a queued user write awaiting delivery to the backend.
// Exactly one of TripReport/ManualSummit is set, matching Kind.
type PendingSubmission struct {
	ID           string               `json:"id"`
	Kind         SubmissionKind       `json:"kind"`
	TripReport   *TripReportPayload   `json:"trip_report,omitempty"`
	ManualSummit *ManualSummitPayload `json:"manual_summit,omitempty"`
	Photos       []PhotoRef           `json:"photos,omitempty"`
	RetryCount   int                  `json:"retry_count"`
	LastError    string               `json:"last_error,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

// Clone returns a deep copy. Queue consumers get copies so they can't
// mutate repository state behind its back.
func (s *PendingSubmission) Clone() PendingSubmission {
	out := *s
	if s.TripReport != nil {
		tr := *s.TripReport
		tr.ConditionTags = append([]string(nil), s.TripReport.ConditionTags...)
		tr.CustomTags = append([]string(nil), s.TripReport.CustomTags...)
		out.TripReport = &tr
	}
	if s.ManualSummit != nil {
		ms := *s.ManualSummit
		ms.ConditionTags = append([]string(nil), s.ManualSummit.ConditionTags...)
		ms.CustomTags = append([]string(nil), s.ManualSummit.CustomTags...)
		if s.ManualSummit.PeakLocation != nil {
			pl := *s.ManualSummit.PeakLocation
			ms.PeakLocation = &pl
		}
		out.ManualSummit = &ms
	}
	out.Photos = append([]PhotoRef(nil), s.Photos...)
	return out
}
