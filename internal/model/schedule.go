package model

import "time"

// DefaultDurationSeconds is the hold time used when a schedule gives none.
const DefaultDurationSeconds = 10

// MaxDurationSeconds caps the hold time at 30 days.
const MaxDurationSeconds = 30 * 24 * 60 * 60

// Schedule describes when and for how long a message is shown.
type Schedule struct {
	StartAt         *time.Time `json:"start_at,omitempty"`
	EndAt           *time.Time `json:"end_at,omitempty"`
	DurationSeconds int        `json:"duration_seconds"`
}

// Valid reports whether the window, when fully given, is not empty.
func (s Schedule) Valid() bool {
	if s.StartAt != nil && s.EndAt != nil {
		return s.EndAt.After(*s.StartAt)
	}
	return s.DurationSeconds >= 0
}

// Hold returns the displaying-phase length.
func (s Schedule) Hold() time.Duration {
	secs := s.DurationSeconds
	if secs == 0 {
		secs = DefaultDurationSeconds
	}
	return time.Duration(secs) * time.Second
}

// Ended reports whether the schedule window closed before now.
func (s Schedule) Ended(now time.Time) bool {
	return s.EndAt != nil && !now.Before(*s.EndAt)
}
