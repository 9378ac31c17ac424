package client

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

// ErrEmailTaken signals another client already uses the email.
var ErrEmailTaken = errors.New("a client with this email already exists")

var (
	errShortName        = fmt.Errorf("%w: company name must be at least 2 characters", ErrInvalidInput)
	errShortContactName = fmt.Errorf("%w: contact name must be at least 2 characters", ErrInvalidInput)
	errBadEmail         = fmt.Errorf("%w: a valid email address is required", ErrInvalidInput)
	errBadStatus        = fmt.Errorf("%w: status must be active, inactive or lead", ErrInvalidInput)
)

// ErrHasRelations blocks deletion of clients with attached records.
type ErrHasRelations struct {
	Projects int
	Invoices int
}

func (e ErrHasRelations) Error() string {
	return "cannot delete client with associated projects or invoices"
}

const noInteractions = "No interactions yet"

// Input carries client attributes for create and update.
type Input struct {
	Name        string `json:"name"`
	ContactName string `json:"contactName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Website     string `json:"website"`
	Address     string `json:"address"`
	Status      string `json:"status"`
	Description string `json:"description"`
}

// Summary is the list-view projection of a client.
type Summary struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	ContactName     string  `json:"contactName"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone"`
	Address         string  `json:"address"`
	Website         string  `json:"website"`
	Status          string  `json:"status"`
	Description     string  `json:"description"`
	Projects        int     `json:"projects"`
	TotalBilled     float64 `json:"totalBilled"`
	LastInteraction string  `json:"lastInteraction"`
	Avatar          string  `json:"avatar"`
}

// UserRef identifies the author of an interaction or note.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ProjectRef summarizes a client's project in the detail view.
type ProjectRef struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Status   string  `json:"status"`
	Progress int     `json:"progress"`
	Deadline *string `json:"deadline"`
}

// InvoiceRef summarizes a client's invoice in the detail view.
type InvoiceRef struct {
	ID      string  `json:"id"`
	Number  string  `json:"number"`
	Status  string  `json:"status"`
	Date    string  `json:"date"`
	DueDate string  `json:"dueDate"`
	Total   float64 `json:"total"`
}

// InteractionRef describes a client touchpoint in the detail view.
type InteractionRef struct {
	ID      string  `json:"id"`
	Type    string  `json:"type"`
	Summary string  `json:"summary"`
	Notes   string  `json:"notes"`
	Date    string  `json:"date"`
	User    UserRef `json:"user"`
}

// NoteRef describes a client note in the detail view.
type NoteRef struct {
	ID        string  `json:"id"`
	Content   string  `json:"content"`
	CreatedAt string  `json:"createdAt"`
	User      UserRef `json:"user"`
}

// Detail is the full client projection with related records.
type Detail struct {
	Summary
	ProjectsList     []ProjectRef     `json:"projectsList"`
	InvoicesList     []InvoiceRef     `json:"invoicesList"`
	InteractionsList []InteractionRef `json:"interactionsList"`
	NotesList        []NoteRef        `json:"notesList"`
}

// Service orchestrates client management.
type Service struct {
	clients  repository.ClientRepository
	projects repository.ProjectRepository
	invoices repository.InvoiceRepository
	users    repository.UserRepository
	feed     activity.Service
	logger   *slog.Logger
}

// New returns a client service.
func New(clients repository.ClientRepository, projects repository.ProjectRepository, invoices repository.InvoiceRepository, users repository.UserRepository, feed activity.Service, logger *slog.Logger) Service {
	return Service{clients: clients, projects: projects, invoices: invoices, users: users, feed: feed, logger: logger}
}

func validate(input *Input) error {
	input.Name = strings.TrimSpace(input.Name)
	input.ContactName = strings.TrimSpace(input.ContactName)
	input.Email = strings.TrimSpace(input.Email)
	if len(input.Name) < 2 {
		return errShortName
	}
	if len(input.ContactName) < 2 {
		return errShortContactName
	}
	if !strings.Contains(input.Email, "@") {
		return errBadEmail
	}
	switch input.Status {
	case domain.ClientStatusActive, domain.ClientStatusInactive, domain.ClientStatusLead:
	default:
		return errBadStatus
	}
	return nil
}

func avatarFor(name string) string {
	initial := ""
	if name != "" {
		initial = string([]rune(name)[0])
	}
	return "/placeholder.svg?height=100&width=100&text=" + initial
}

// Create registers a new client.
func (s Service) Create(ctx context.Context, input Input) (*domain.Client, error) {
	if err := validate(&input); err != nil {
		return nil, err
	}
	inUse, err := s.clients.ClientEmailInUse(ctx, input.Email, "")
	if err != nil {
		return nil, err
	}
	if inUse {
		return nil, ErrEmailTaken
	}
	client := &domain.Client{
		ID:          uuid.NewString(),
		Name:        input.Name,
		ContactName: input.ContactName,
		Email:       input.Email,
		Phone:       input.Phone,
		Website:     input.Website,
		Address:     input.Address,
		Status:      input.Status,
		Description: input.Description,
		Avatar:      avatarFor(input.Name),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.clients.CreateClient(ctx, client); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	s.logger.Info("client created", "client_id", client.ID)
	s.feed.Emit("client.created", client.ID, client.Name)
	return client, nil
}

// Update rewrites a client's attributes.
func (s Service) Update(ctx context.Context, id string, input Input) (*domain.Client, error) {
	existing, err := s.clients.GetClientByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validate(&input); err != nil {
		return nil, err
	}
	if existing.Email != input.Email {
		inUse, err := s.clients.ClientEmailInUse(ctx, input.Email, id)
		if err != nil {
			return nil, err
		}
		if inUse {
			return nil, ErrEmailTaken
		}
	}
	existing.Name = input.Name
	existing.ContactName = input.ContactName
	existing.Email = input.Email
	existing.Phone = input.Phone
	existing.Website = input.Website
	existing.Address = input.Address
	existing.Status = input.Status
	existing.Description = input.Description
	if err := s.clients.UpdateClient(ctx, existing); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	s.feed.Emit("client.updated", existing.ID, existing.Name)
	return existing, nil
}

// Delete removes a client and its interactions/notes. Clients with projects
// or invoices cannot be deleted.
func (s Service) Delete(ctx context.Context, id string) error {
	client, err := s.clients.GetClientByID(ctx, id)
	if err != nil {
		return err
	}
	counts, err := s.clients.CountClientRelations(ctx, id)
	if err != nil {
		return err
	}
	if counts.Projects > 0 || counts.Invoices > 0 {
		return ErrHasRelations{Projects: counts.Projects, Invoices: counts.Invoices}
	}
	if err := s.clients.DeleteClient(ctx, id); err != nil {
		return err
	}
	s.logger.Info("client deleted", "client_id", id)
	s.feed.Emit("client.deleted", id, client.Name)
	return nil
}

// List returns client summaries matching the filter.
func (s Service) List(ctx context.Context, filter repository.ClientFilter) ([]Summary, error) {
	clients, err := s.clients.ListClients(ctx, filter)
	if err != nil {
		return nil, err
	}
	summaries := make([]Summary, 0, len(clients))
	for i := range clients {
		summary, err := s.summarize(ctx, &clients[i])
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// Get returns the full client detail projection.
func (s Service) Get(ctx context.Context, id string) (*Detail, error) {
	client, err := s.clients.GetClientByID(ctx, id)
	if err != nil {
		return nil, err
	}
	summary, err := s.summarize(ctx, client)
	if err != nil {
		return nil, err
	}
	detail := &Detail{
		Summary:          summary,
		ProjectsList:     make([]ProjectRef, 0),
		InvoicesList:     make([]InvoiceRef, 0),
		InteractionsList: make([]InteractionRef, 0),
		NotesList:        make([]NoteRef, 0),
	}

	projects, err := s.projects.ListProjects(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		ref := ProjectRef{ID: p.ID, Name: p.Name, Status: p.Status, Progress: p.Progress}
		if p.Deadline != nil {
			deadline := p.Deadline.UTC().Format(time.RFC3339)
			ref.Deadline = &deadline
		}
		detail.ProjectsList = append(detail.ProjectsList, ref)
	}

	invoices, err := s.invoices.ListInvoices(ctx, repository.InvoiceFilter{ClientID: id})
	if err != nil {
		return nil, err
	}
	for _, inv := range invoices {
		detail.InvoicesList = append(detail.InvoicesList, InvoiceRef{
			ID:      inv.ID,
			Number:  inv.Number,
			Status:  inv.Status,
			Date:    inv.Date.UTC().Format(time.RFC3339),
			DueDate: inv.DueDate.UTC().Format(time.RFC3339),
			Total:   inv.Total,
		})
	}

	users := map[string]UserRef{}
	interactions, err := s.clients.ListInteractionsByClient(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, in := range interactions {
		detail.InteractionsList = append(detail.InteractionsList, InteractionRef{
			ID:      in.ID,
			Type:    in.Type,
			Summary: in.Summary,
			Notes:   in.Notes,
			Date:    in.Date.UTC().Format(time.RFC3339),
			User:    s.userRef(ctx, users, in.UserID),
		})
	}

	notes, err := s.clients.ListNotesByClient(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, n := range notes {
		detail.NotesList = append(detail.NotesList, NoteRef{
			ID:        n.ID,
			Content:   n.Content,
			CreatedAt: n.CreatedAt.UTC().Format(time.RFC3339),
			User:      s.userRef(ctx, users, n.UserID),
		})
	}
	return detail, nil
}

func (s Service) summarize(ctx context.Context, client *domain.Client) (Summary, error) {
	counts, err := s.clients.CountClientRelations(ctx, client.ID)
	if err != nil {
		return Summary{}, err
	}
	totalBilled, err := s.invoices.SumInvoiceTotalsByClient(ctx, client.ID)
	if err != nil {
		return Summary{}, err
	}
	lastInteraction := noInteractions
	interactions, err := s.clients.ListInteractionsByClient(ctx, client.ID)
	if err != nil {
		return Summary{}, err
	}
	if len(interactions) > 0 {
		lastInteraction = interactions[0].Date.UTC().Format("January 2, 2006")
	}
	avatar := client.Avatar
	if avatar == "" {
		avatar = avatarFor(client.Name)
	}
	return Summary{
		ID:              client.ID,
		Name:            client.Name,
		ContactName:     client.ContactName,
		Email:           client.Email,
		Phone:           client.Phone,
		Address:         client.Address,
		Website:         client.Website,
		Status:          client.Status,
		Description:     client.Description,
		Projects:        counts.Projects,
		TotalBilled:     totalBilled,
		LastInteraction: lastInteraction,
		Avatar:          avatar,
	}, nil
}

func (s Service) userRef(ctx context.Context, cache map[string]UserRef, userID string) UserRef {
	if ref, ok := cache[userID]; ok {
		return ref
	}
	ref := UserRef{ID: userID}
	if user, err := s.users.GetUserByID(ctx, userID); err == nil {
		ref.Name = user.Name
		ref.Email = user.Email
	}
	cache[userID] = ref
	return ref
}
