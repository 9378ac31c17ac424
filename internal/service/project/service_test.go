package project

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"log/slog"

	"github.com/freelanceflow/api/internal/domain"
	"github.com/freelanceflow/api/internal/repository"
	"github.com/freelanceflow/api/internal/service/activity"
)

type projectRepoMock struct {
	createFunc func(ctx context.Context, project *domain.Project) error
	getFunc    func(ctx context.Context, id string) (*domain.Project, error)
	listFunc   func(ctx context.Context, clientID string) ([]domain.Project, error)
}

func (m *projectRepoMock) CreateProject(ctx context.Context, project *domain.Project) error {
	return m.createFunc(ctx, project)
}

func (m *projectRepoMock) GetProjectByID(ctx context.Context, id string) (*domain.Project, error) {
	return m.getFunc(ctx, id)
}

func (m *projectRepoMock) ListProjects(ctx context.Context, clientID string) ([]domain.Project, error) {
	return m.listFunc(ctx, clientID)
}

type clientRepoMock struct {
	getFunc func(ctx context.Context, id string) (*domain.Client, error)
}

func (m *clientRepoMock) CreateClient(context.Context, *domain.Client) error {
	return errors.New("not implemented")
}

func (m *clientRepoMock) GetClientByID(ctx context.Context, id string) (*domain.Client, error) {
	return m.getFunc(ctx, id)
}

func (m *clientRepoMock) ClientEmailInUse(context.Context, string, string) (bool, error) {
	return false, errors.New("not implemented")
}

func (m *clientRepoMock) ListClients(context.Context, repository.ClientFilter) ([]domain.Client, error) {
	return nil, errors.New("not implemented")
}

func (m *clientRepoMock) UpdateClient(context.Context, *domain.Client) error {
	return errors.New("not implemented")
}

func (m *clientRepoMock) DeleteClient(context.Context, string) error {
	return errors.New("not implemented")
}

func (m *clientRepoMock) CountClientRelations(context.Context, string) (repository.ClientRelationCounts, error) {
	return repository.ClientRelationCounts{}, errors.New("not implemented")
}

func (m *clientRepoMock) ListInteractionsByClient(context.Context, string) ([]domain.ClientInteraction, error) {
	return nil, errors.New("not implemented")
}

func (m *clientRepoMock) ListNotesByClient(context.Context, string) ([]domain.ClientNote, error) {
	return nil, errors.New("not implemented")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func knownClient(id string) *clientRepoMock {
	return &clientRepoMock{
		getFunc: func(_ context.Context, got string) (*domain.Client, error) {
			if got != id {
				return nil, repository.ErrNotFound
			}
			return &domain.Client{ID: id, Name: "Acme Corp"}, nil
		},
	}
}

func TestCreateDefaultsToPlanned(t *testing.T) {
	var created *domain.Project
	projects := &projectRepoMock{
		createFunc: func(_ context.Context, p *domain.Project) error {
			created = p
			return nil
		},
	}
	svc := New(projects, knownClient("c1"), activity.Service{}, testLogger())

	p, err := svc.Create(context.Background(), CreateInput{ClientID: "c1", Name: "Website"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created == nil {
		t.Fatal("project never persisted")
	}
	if p.Status != domain.ProjectStatusPlanned {
		t.Errorf("status = %q, want planned", p.Status)
	}
	if p.Deadline != nil {
		t.Error("deadline must stay nil when omitted")
	}
}

func TestCreateParsesDeadline(t *testing.T) {
	projects := &projectRepoMock{
		createFunc: func(context.Context, *domain.Project) error { return nil },
	}
	svc := New(projects, knownClient("c1"), activity.Service{}, testLogger())

	deadline := time.Date(2026, time.October, 1, 12, 0, 0, 0, time.UTC)
	p, err := svc.Create(context.Background(), CreateInput{
		ClientID: "c1",
		Name:     "Website",
		Status:   domain.ProjectStatusActive,
		Deadline: deadline.Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Deadline == nil || !p.Deadline.Equal(deadline) {
		t.Errorf("deadline = %v, want %v", p.Deadline, deadline)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := New(&projectRepoMock{}, knownClient("c1"), activity.Service{}, testLogger())

	tests := []struct {
		name  string
		input CreateInput
	}{
		{name: "missing name", input: CreateInput{ClientID: "c1"}},
		{name: "missing client", input: CreateInput{Name: "Website"}},
		{name: "bad status", input: CreateInput{ClientID: "c1", Name: "Website", Status: "cancelled"}},
		{name: "progress over 100", input: CreateInput{ClientID: "c1", Name: "Website", Progress: 101}},
		{name: "negative progress", input: CreateInput{ClientID: "c1", Name: "Website", Progress: -1}},
		{name: "bad deadline", input: CreateInput{ClientID: "c1", Name: "Website", Deadline: "soon"}},
		{name: "unknown client", input: CreateInput{ClientID: "missing", Name: "Website"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.input)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}
