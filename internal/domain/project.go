package domain

import "time"

// Project statuses accepted by the API.
const (
	ProjectStatusPlanned   = "planned"
	ProjectStatusActive    = "active"
	ProjectStatusOnHold    = "on-hold"
	ProjectStatusCompleted = "completed"
)

// Project is a unit of client work.
type Project struct {
	ID        string
	ClientID  string
	Name      string
	Status    string
	Progress  int
	Deadline  *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}
