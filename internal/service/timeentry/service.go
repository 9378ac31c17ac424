package timeentry

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

// ErrTimerRunning rejects starting a second concurrent timer.
var ErrTimerRunning = errors.New("a timer is already running")

// ErrNotOwner rejects operations on another user's entry.
var ErrNotOwner = errors.New("time entry belongs to another user")

var (
	errMissingProject = fmt.Errorf("%w: project id is required", ErrInvalidInput)
	errUnknownProject = fmt.Errorf("%w: project does not exist", ErrInvalidInput)
)

const defaultListLimit = 100

// Service orchestrates time tracking. One running timer per user.
type Service struct {
	entries  repository.TimeEntryRepository
	projects repository.ProjectRepository
	feed     activity.Service
	logger   *slog.Logger
}

// New returns a time entry service.
func New(entries repository.TimeEntryRepository, projects repository.ProjectRepository, feed activity.Service, logger *slog.Logger) Service {
	return Service{entries: entries, projects: projects, feed: feed, logger: logger}
}

// Start begins a timer for the user on a project.
func (s Service) Start(ctx context.Context, userID, projectID, description string) (*domain.TimeEntry, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, errMissingProject
	}
	if _, err := s.projects.GetProjectByID(ctx, projectID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errUnknownProject
		}
		return nil, err
	}
	if _, err := s.entries.GetRunningEntry(ctx, userID); err == nil {
		return nil, ErrTimerRunning
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	now := time.Now().UTC()
	entry := &domain.TimeEntry{
		ID:          uuid.NewString(),
		UserID:      userID,
		ProjectID:   projectID,
		Description: strings.TrimSpace(description),
		StartedAt:   now,
		CreatedAt:   now,
	}
	if err := s.entries.CreateTimeEntry(ctx, entry); err != nil {
		// The partial unique index closes the race between two concurrent starts.
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrTimerRunning
		}
		return nil, err
	}
	s.logger.Info("timer started", "entry_id", entry.ID, "project_id", projectID)
	s.feed.Emit("timer.started", entry.ID, entry.Description)
	return entry, nil
}

// Stop ends the user's entry and records the elapsed duration.
func (s Service) Stop(ctx context.Context, userID, entryID string) (*domain.TimeEntry, error) {
	entry, err := s.entries.GetTimeEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if entry.UserID != userID {
		return nil, ErrNotOwner
	}
	if entry.StoppedAt != nil {
		return entry, nil
	}
	stoppedAt := time.Now().UTC()
	duration := int64(stoppedAt.Sub(entry.StartedAt) / time.Second)
	if duration < 0 {
		duration = 0
	}
	if err := s.entries.StopTimeEntry(ctx, entryID, stoppedAt, duration); err != nil {
		return nil, err
	}
	entry.StoppedAt = &stoppedAt
	entry.DurationSeconds = duration
	s.logger.Info("timer stopped", "entry_id", entryID, "duration_seconds", duration)
	s.feed.Emit("timer.stopped", entry.ID, entry.Description)
	return entry, nil
}

// List returns the user's recent entries.
func (s Service) List(ctx context.Context, userID string, limit int) ([]domain.TimeEntry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.entries.ListTimeEntriesByUser(ctx, userID, limit)
}
