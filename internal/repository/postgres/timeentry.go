package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/freelanceflow/api/internal/domain"
	"github.com/freelanceflow/api/internal/repository"
)

const timeEntryColumns = `id, user_id, project_id, description, started_at, stopped_at, duration_seconds, created_at`

// CreateTimeEntry inserts a time entry.
func (r *Repository) CreateTimeEntry(ctx context.Context, entry *domain.TimeEntry) error {
	const query = `INSERT INTO time_entries (id, user_id, project_id, description, started_at, stopped_at, duration_seconds, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.pool.Exec(ctx, query,
		entry.ID, entry.UserID, entry.ProjectID, entry.Description,
		entry.StartedAt, entry.StoppedAt, entry.DurationSeconds, entry.CreatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

// GetTimeEntryByID fetches a single entry.
func (r *Repository) GetTimeEntryByID(ctx context.Context, id string) (*domain.TimeEntry, error) {
	query := `SELECT ` + timeEntryColumns + ` FROM time_entries WHERE id = $1`
	return r.scanTimeEntry(r.pool.QueryRow(ctx, query, id))
}

// GetRunningEntry returns the user's currently running entry, if any.
func (r *Repository) GetRunningEntry(ctx context.Context, userID string) (*domain.TimeEntry, error) {
	query := `SELECT ` + timeEntryColumns + ` FROM time_entries
		WHERE user_id = $1 AND stopped_at IS NULL ORDER BY started_at DESC LIMIT 1`
	return r.scanTimeEntry(r.pool.QueryRow(ctx, query, userID))
}

// StopTimeEntry records the stop time and computed duration.
func (r *Repository) StopTimeEntry(ctx context.Context, id string, stoppedAt time.Time, durationSeconds int64) error {
	const query = `UPDATE time_entries SET stopped_at = $2, duration_seconds = $3
		WHERE id = $1 AND stopped_at IS NULL`
	tag, err := r.pool.Exec(ctx, query, id, stoppedAt, durationSeconds)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// ListTimeEntriesByUser returns the user's entries, newest first.
func (r *Repository) ListTimeEntriesByUser(ctx context.Context, userID string, limit int) ([]domain.TimeEntry, error) {
	query := `SELECT ` + timeEntryColumns + ` FROM time_entries
		WHERE user_id = $1 ORDER BY started_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.TimeEntry, 0)
	for rows.Next() {
		var e domain.TimeEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.ProjectID, &e.Description, &e.StartedAt, &e.StoppedAt, &e.DurationSeconds, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *Repository) scanTimeEntry(row pgx.Row) (*domain.TimeEntry, error) {
	var e domain.TimeEntry
	if err := row.Scan(&e.ID, &e.UserID, &e.ProjectID, &e.Description, &e.StartedAt, &e.StoppedAt, &e.DurationSeconds, &e.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}
