package repository

import (
	"context"
	"time"

	"github.com/freelanceflow/api/internal/domain"
)

// UserRepository persists users.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
}

// ClientFilter narrows client listings.
type ClientFilter struct {
	Status string
	Search string
}

// ClientRelationCounts reports how many records reference a client.
type ClientRelationCounts struct {
	Projects int
	Invoices int
}

// ClientRepository persists clients and their interactions/notes.
type ClientRepository interface {
	CreateClient(ctx context.Context, client *domain.Client) error
	GetClientByID(ctx context.Context, id string) (*domain.Client, error)
	ClientEmailInUse(ctx context.Context, email, excludeID string) (bool, error)
	ListClients(ctx context.Context, filter ClientFilter) ([]domain.Client, error)
	UpdateClient(ctx context.Context, client *domain.Client) error
	DeleteClient(ctx context.Context, id string) error
	CountClientRelations(ctx context.Context, id string) (ClientRelationCounts, error)
	ListInteractionsByClient(ctx context.Context, clientID string) ([]domain.ClientInteraction, error)
	ListNotesByClient(ctx context.Context, clientID string) ([]domain.ClientNote, error)
}

// ProjectRepository persists projects.
type ProjectRepository interface {
	CreateProject(ctx context.Context, project *domain.Project) error
	GetProjectByID(ctx context.Context, id string) (*domain.Project, error)
	ListProjects(ctx context.Context, clientID string) ([]domain.Project, error)
}

// InvoiceFilter narrows invoice listings.
type InvoiceFilter struct {
	ClientID string
	Status   string
}

// InvoiceRepository persists invoices.
type InvoiceRepository interface {
	CreateInvoice(ctx context.Context, invoice *domain.Invoice) error
	GetInvoiceByID(ctx context.Context, id string) (*domain.Invoice, error)
	ListInvoices(ctx context.Context, filter InvoiceFilter) ([]domain.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, id, status string) error
	SumInvoiceTotalsByClient(ctx context.Context, clientID string) (float64, error)
}

// TimeEntryRepository persists time tracking entries.
type TimeEntryRepository interface {
	CreateTimeEntry(ctx context.Context, entry *domain.TimeEntry) error
	GetTimeEntryByID(ctx context.Context, id string) (*domain.TimeEntry, error)
	GetRunningEntry(ctx context.Context, userID string) (*domain.TimeEntry, error)
	StopTimeEntry(ctx context.Context, id string, stoppedAt time.Time, durationSeconds int64) error
	ListTimeEntriesByUser(ctx context.Context, userID string, limit int) ([]domain.TimeEntry, error)
}
