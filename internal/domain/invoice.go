package domain

import "time"

// Invoice statuses accepted by the API.
const (
	InvoiceStatusDraft   = "draft"
	InvoiceStatusSent    = "sent"
	InvoiceStatusPaid    = "paid"
	InvoiceStatusOverdue = "overdue"
)

// Invoice bills a client, optionally against a project.
type Invoice struct {
	ID        string
	ClientID  string
	ProjectID *string
	Number    string
	Status    string
	Date      time.Time
	DueDate   time.Time
	Total     float64
	CreatedAt time.Time
	UpdatedAt time.Time
}
