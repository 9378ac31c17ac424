package invoice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/freelanceflow/api/internal/domain"
	"github.com/freelanceflow/api/internal/repository"
	"github.com/freelanceflow/api/internal/service/activity"
)

// ErrInvalidInput marks validation failures; specific errors wrap it.
var ErrInvalidInput = errors.New("invalid input")

// ErrNumberTaken signals a duplicate invoice number.
var ErrNumberTaken = errors.New("an invoice with this number already exists")

var (
	errMissingClient  = fmt.Errorf("%w: client id is required", ErrInvalidInput)
	errMissingNumber  = fmt.Errorf("%w: invoice number is required", ErrInvalidInput)
	errMissingDueDate = fmt.Errorf("%w: due date must be RFC 3339", ErrInvalidInput)
	errNegativeTotal  = fmt.Errorf("%w: total cannot be negative", ErrInvalidInput)
	errBadStatus      = fmt.Errorf("%w: status must be draft, sent, paid or overdue", ErrInvalidInput)
	errUnknownClient  = fmt.Errorf("%w: client does not exist", ErrInvalidInput)
)

// CreateInput encapsulates invoice creation attributes.
type CreateInput struct {
	ClientID  string  `json:"clientId"`
	ProjectID string  `json:"projectId"`
	Number    string  `json:"number"`
	DueDate   string  `json:"dueDate"`
	Total     float64 `json:"total"`
}

// Service orchestrates invoicing.
type Service struct {
	invoices repository.InvoiceRepository
	clients  repository.ClientRepository
	feed     activity.Service
	logger   *slog.Logger
}

// New returns an invoice service.
func New(invoices repository.InvoiceRepository, clients repository.ClientRepository, feed activity.Service, logger *slog.Logger) Service {
	return Service{invoices: invoices, clients: clients, feed: feed, logger: logger}
}

func validStatus(status string) bool {
	switch status {
	case domain.InvoiceStatusDraft, domain.InvoiceStatusSent, domain.InvoiceStatusPaid, domain.InvoiceStatusOverdue:
		return true
	}
	return false
}

// Create issues a new draft invoice.
func (s Service) Create(ctx context.Context, input CreateInput) (*domain.Invoice, error) {
	if strings.TrimSpace(input.ClientID) == "" {
		return nil, errMissingClient
	}
	if strings.TrimSpace(input.Number) == "" {
		return nil, errMissingNumber
	}
	if input.Total < 0 {
		return nil, errNegativeTotal
	}
	dueDate, err := time.Parse(time.RFC3339, input.DueDate)
	if err != nil {
		return nil, errMissingDueDate
	}
	if _, err := s.clients.GetClientByID(ctx, input.ClientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errUnknownClient
		}
		return nil, err
	}
	var projectID *string
	if trimmed := strings.TrimSpace(input.ProjectID); trimmed != "" {
		projectID = &trimmed
	}
	now := time.Now().UTC()
	invoice := &domain.Invoice{
		ID:        uuid.NewString(),
		ClientID:  input.ClientID,
		ProjectID: projectID,
		Number:    strings.TrimSpace(input.Number),
		Status:    domain.InvoiceStatusDraft,
		Date:      now,
		DueDate:   dueDate.UTC(),
		Total:     input.Total,
		CreatedAt: now,
	}
	if err := s.invoices.CreateInvoice(ctx, invoice); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrNumberTaken
		}
		return nil, err
	}
	s.logger.Info("invoice created", "invoice_id", invoice.ID, "number", invoice.Number)
	s.feed.Emit("invoice.created", invoice.ID, invoice.Number)
	return invoice, nil
}

// Get loads a single invoice.
func (s Service) Get(ctx context.Context, id string) (*domain.Invoice, error) {
	return s.invoices.GetInvoiceByID(ctx, id)
}

// List returns invoices matching the filter.
func (s Service) List(ctx context.Context, filter repository.InvoiceFilter) ([]domain.Invoice, error) {
	if filter.Status != "" && !validStatus(filter.Status) {
		return nil, errBadStatus
	}
	return s.invoices.ListInvoices(ctx, filter)
}

// UpdateStatus transitions an invoice to a new status.
func (s Service) UpdateStatus(ctx context.Context, id, status string) (*domain.Invoice, error) {
	if !validStatus(status) {
		return nil, errBadStatus
	}
	if err := s.invoices.UpdateInvoiceStatus(ctx, id, status); err != nil {
		return nil, err
	}
	invoice, err := s.invoices.GetInvoiceByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.feed.Emit("invoice.status", invoice.ID, invoice.Number+" marked "+status)
	return invoice, nil
}
