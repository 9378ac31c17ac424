package domain

import "time"

// Client statuses accepted by the API.
const (
	ClientStatusActive   = "active"
	ClientStatusInactive = "inactive"
	ClientStatusLead     = "lead"
)

// Client represents a customer account.
type Client struct {
	ID          string
	Name        string
	ContactName string
	Email       string
	Phone       string
	Website     string
	Address     string
	Status      string
	Description string
	Avatar      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ClientInteraction records a touchpoint with a client (call, meeting, email).
type ClientInteraction struct {
	ID       string
	ClientID string
	UserID   string
	Type     string
	Summary  string
	Notes    string
	Date     time.Time
}

// ClientNote is a free-form note attached to a client.
type ClientNote struct {
	ID        string
	ClientID  string
	UserID    string
	Content   string
	CreatedAt time.Time
}
