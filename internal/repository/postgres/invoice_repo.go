package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"finrecon/internal/domain"
	"finrecon/internal/port"
)

type invoiceRepo struct {
	db *sqlx.DB
}

// NewInvoiceRepo creates a new PostgreSQL-backed InvoiceRepository.
func NewInvoiceRepo(db *sqlx.DB) port.InvoiceRepository {
	return &invoiceRepo{db: db}
}

func (r *invoiceRepo) CreateBatch(ctx context.Context, invoices []domain.Invoice) error {
	if len(invoices) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range invoices {
		invoices[i].CreatedAt = now
	}

	query := `INSERT INTO invoices (
		id, run_id, source, invoice_no, invoice_date,
		vendor_gstin, vendor_name,
		taxable_value, igst, cgst, sgst, cess,
		total_tax, invoice_value, row_number, created_at
	) VALUES (
		:id, :run_id, :source, :invoice_no, :invoice_date,
		:vendor_gstin, :vendor_name,
		:taxable_value, :igst, :cgst, :sgst, :cess,
		:total_tax, :invoice_value, :row_number, :created_at
	)`

	if _, err := r.db.NamedExecContext(ctx, query, invoices); err != nil {
		return fmt.Errorf("invoiceRepo.CreateBatch: %w", err)
	}
	return nil
}

func (r *invoiceRepo) ListByRunAndSource(ctx context.Context, runID uuid.UUID, source domain.InvoiceSource) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	err := r.db.SelectContext(ctx, &invoices,
		`SELECT * FROM invoices WHERE run_id = $1 AND source = $2
		 ORDER BY row_number, id`,
		runID, source)
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.ListByRunAndSource: %w", err)
	}
	return invoices, nil
}

func (r *invoiceRepo) CountByRunAndSource(ctx context.Context, runID uuid.UUID, source domain.InvoiceSource) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM invoices WHERE run_id = $1 AND source = $2",
		runID, source)
	if err != nil {
		return 0, fmt.Errorf("invoiceRepo.CountByRunAndSource: %w", err)
	}
	return count, nil
}

func (r *invoiceRepo) DeleteByRun(ctx context.Context, runID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM invoices WHERE run_id = $1", runID); err != nil {
		return fmt.Errorf("invoiceRepo.DeleteByRun: %w", err)
	}
	return nil
}
