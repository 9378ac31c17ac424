package project

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

var (
	errMissingName     = fmt.Errorf("%w: project name is required", ErrInvalidInput)
	errMissingClient   = fmt.Errorf("%w: client id is required", ErrInvalidInput)
	errBadStatus       = fmt.Errorf("%w: status must be planned, active, on-hold or completed", ErrInvalidInput)
	errBadProgress     = fmt.Errorf("%w: progress must be between 0 and 100", ErrInvalidInput)
	errUnknownClient   = fmt.Errorf("%w: client does not exist", ErrInvalidInput)
	errBadDeadlineForm = fmt.Errorf("%w: deadline must be RFC 3339", ErrInvalidInput)
)

// CreateInput encapsulates project creation attributes.
type CreateInput struct {
	ClientID string `json:"clientId"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Deadline string `json:"deadline"`
}

// Service orchestrates project management.
type Service struct {
	projects repository.ProjectRepository
	clients  repository.ClientRepository
	feed     activity.Service
	logger   *slog.Logger
}

// New returns a project service.
func New(projects repository.ProjectRepository, clients repository.ClientRepository, feed activity.Service, logger *slog.Logger) Service {
	return Service{projects: projects, clients: clients, feed: feed, logger: logger}
}

// Create registers a new project for an existing client.
func (s Service) Create(ctx context.Context, input CreateInput) (*domain.Project, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, errMissingName
	}
	if strings.TrimSpace(input.ClientID) == "" {
		return nil, errMissingClient
	}
	status := input.Status
	if status == "" {
		status = domain.ProjectStatusPlanned
	}
	switch status {
	case domain.ProjectStatusPlanned, domain.ProjectStatusActive, domain.ProjectStatusOnHold, domain.ProjectStatusCompleted:
	default:
		return nil, errBadStatus
	}
	if input.Progress < 0 || input.Progress > 100 {
		return nil, errBadProgress
	}
	var deadline *time.Time
	if input.Deadline != "" {
		parsed, err := time.Parse(time.RFC3339, input.Deadline)
		if err != nil {
			return nil, errBadDeadlineForm
		}
		utc := parsed.UTC()
		deadline = &utc
	}
	if _, err := s.clients.GetClientByID(ctx, input.ClientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errUnknownClient
		}
		return nil, err
	}
	project := &domain.Project{
		ID:        uuid.NewString(),
		ClientID:  input.ClientID,
		Name:      strings.TrimSpace(input.Name),
		Status:    status,
		Progress:  input.Progress,
		Deadline:  deadline,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.projects.CreateProject(ctx, project); err != nil {
		return nil, err
	}
	s.logger.Info("project created", "project_id", project.ID, "client_id", project.ClientID)
	s.feed.Emit("project.created", project.ID, project.Name)
	return project, nil
}

// Get loads a single project.
func (s Service) Get(ctx context.Context, id string) (*domain.Project, error) {
	return s.projects.GetProjectByID(ctx, id)
}

// List returns projects, optionally limited to one client.
func (s Service) List(ctx context.Context, clientID string) ([]domain.Project, error) {
	return s.projects.ListProjects(ctx, clientID)
}
