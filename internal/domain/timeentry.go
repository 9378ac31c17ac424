package domain

import "time"

// TimeEntry tracks time spent on a project. StoppedAt is nil while the
// timer is running; DurationSeconds is filled in on stop.
type TimeEntry struct {
	ID              string
	UserID          string
	ProjectID       string
	Description     string
	StartedAt       time.Time
	StoppedAt       *time.Time
	DurationSeconds int64
	CreatedAt       time.Time
}
