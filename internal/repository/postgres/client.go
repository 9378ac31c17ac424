package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/freelanceflow/api/internal/domain"
	"github.com/freelanceflow/api/internal/repository"
)

const clientColumns = `id, name, contact_name, email, phone, website, address, status, description, avatar, created_at, updated_at`

// CreateClient inserts a client. Duplicate emails surface as ErrConflict.
func (r *Repository) CreateClient(ctx context.Context, client *domain.Client) error {
	const query = `INSERT INTO clients (id, name, contact_name, email, phone, website, address, status, description, avatar, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`
	_, err := r.pool.Exec(ctx, query,
		client.ID, client.Name, client.ContactName, client.Email, client.Phone,
		client.Website, client.Address, client.Status, client.Description, client.Avatar, client.CreatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

// GetClientByID fetches a single client.
func (r *Repository) GetClientByID(ctx context.Context, id string) (*domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	var c domain.Client
	if err := scanClient(row, &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ClientEmailInUse reports whether another client already uses the email.
func (r *Repository) ClientEmailInUse(ctx context.Context, email, excludeID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM clients WHERE email = $1 AND id <> $2)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, email, excludeID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ListClients returns clients matching the filter, most recently updated first.
func (r *Repository) ListClients(ctx context.Context, filter repository.ClientFilter) ([]domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients`
	args := []any{}
	clause := " WHERE"
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf("%s status = $%d", clause, len(args))
		clause = " AND"
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		query += fmt.Sprintf("%s (name ILIKE $%d OR contact_name ILIKE $%d OR email ILIKE $%d)", clause, n, n, n)
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := make([]domain.Client, 0)
	for rows.Next() {
		var c domain.Client
		if err := scanClient(rows, &c); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// UpdateClient rewrites mutable client fields.
func (r *Repository) UpdateClient(ctx context.Context, client *domain.Client) error {
	const query = `UPDATE clients SET name = $2, contact_name = $3, email = $4, phone = $5,
		website = $6, address = $7, status = $8, description = $9, updated_at = NOW()
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query,
		client.ID, client.Name, client.ContactName, client.Email, client.Phone,
		client.Website, client.Address, client.Status, client.Description)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DeleteClient removes a client with its interactions and notes in one
// transaction. Callers enforce the no-projects/no-invoices guard first.
func (r *Repository) DeleteClient(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM client_interactions WHERE client_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM client_notes WHERE client_id = $1`, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return tx.Commit(ctx)
}

// CountClientRelations counts projects and invoices referencing a client.
func (r *Repository) CountClientRelations(ctx context.Context, id string) (repository.ClientRelationCounts, error) {
	const query = `SELECT
		(SELECT COUNT(1) FROM projects WHERE client_id = $1),
		(SELECT COUNT(1) FROM invoices WHERE client_id = $1)`
	var counts repository.ClientRelationCounts
	if err := r.pool.QueryRow(ctx, query, id).Scan(&counts.Projects, &counts.Invoices); err != nil {
		return repository.ClientRelationCounts{}, err
	}
	return counts, nil
}

// ListInteractionsByClient returns interactions newest first.
func (r *Repository) ListInteractionsByClient(ctx context.Context, clientID string) ([]domain.ClientInteraction, error) {
	const query = `SELECT id, client_id, user_id, type, summary, notes, date
		FROM client_interactions WHERE client_id = $1 ORDER BY date DESC`
	rows, err := r.pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	interactions := make([]domain.ClientInteraction, 0)
	for rows.Next() {
		var in domain.ClientInteraction
		if err := rows.Scan(&in.ID, &in.ClientID, &in.UserID, &in.Type, &in.Summary, &in.Notes, &in.Date); err != nil {
			return nil, err
		}
		interactions = append(interactions, in)
	}
	return interactions, rows.Err()
}

// ListNotesByClient returns notes newest first.
func (r *Repository) ListNotesByClient(ctx context.Context, clientID string) ([]domain.ClientNote, error) {
	const query = `SELECT id, client_id, user_id, content, created_at
		FROM client_notes WHERE client_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]domain.ClientNote, 0)
	for rows.Next() {
		var n domain.ClientNote
		if err := rows.Scan(&n.ID, &n.ClientID, &n.UserID, &n.Content, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func scanClient(row pgx.Row, c *domain.Client) error {
	return row.Scan(&c.ID, &c.Name, &c.ContactName, &c.Email, &c.Phone, &c.Website,
		&c.Address, &c.Status, &c.Description, &c.Avatar, &c.CreatedAt, &c.UpdatedAt)
}
