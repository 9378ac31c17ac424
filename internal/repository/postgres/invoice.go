package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/freelanceflow/api/internal/domain"
	"github.com/freelanceflow/api/internal/repository"
)

const invoiceColumns = `id, client_id, project_id, number, status, date, due_date, total, created_at, updated_at`

// CreateInvoice inserts an invoice. Duplicate numbers surface as ErrConflict.
func (r *Repository) CreateInvoice(ctx context.Context, invoice *domain.Invoice) error {
	const query = `INSERT INTO invoices (id, client_id, project_id, number, status, date, due_date, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`
	_, err := r.pool.Exec(ctx, query,
		invoice.ID, invoice.ClientID, invoice.ProjectID, invoice.Number, invoice.Status,
		invoice.Date, invoice.DueDate, invoice.Total, invoice.CreatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

// GetInvoiceByID fetches invoice details.
func (r *Repository) GetInvoiceByID(ctx context.Context, id string) (*domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	var inv domain.Invoice
	if err := scanInvoice(row, &inv); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

// ListInvoices returns invoices matching the filter, newest first.
func (r *Repository) ListInvoices(ctx context.Context, filter repository.InvoiceFilter) ([]domain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	args := []any{}
	clause := " WHERE"
	if filter.ClientID != "" {
		args = append(args, filter.ClientID)
		query += fmt.Sprintf("%s client_id = $%d", clause, len(args))
		clause = " AND"
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += fmt.Sprintf("%s status = $%d", clause, len(args))
	}
	query += ` ORDER BY date DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := make([]domain.Invoice, 0)
	for rows.Next() {
		var inv domain.Invoice
		if err := scanInvoice(rows, &inv); err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// UpdateInvoiceStatus transitions invoice status.
func (r *Repository) UpdateInvoiceStatus(ctx context.Context, id, status string) error {
	const query = `UPDATE invoices SET status = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SumInvoiceTotalsByClient totals everything billed to a client.
func (r *Repository) SumInvoiceTotalsByClient(ctx context.Context, clientID string) (float64, error) {
	const query = `SELECT COALESCE(SUM(total), 0) FROM invoices WHERE client_id = $1`
	var total float64
	if err := r.pool.QueryRow(ctx, query, clientID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func scanInvoice(row pgx.Row, inv *domain.Invoice) error {
	return row.Scan(&inv.ID, &inv.ClientID, &inv.ProjectID, &inv.Number, &inv.Status,
		&inv.Date, &inv.DueDate, &inv.Total, &inv.CreatedAt, &inv.UpdatedAt)
}
