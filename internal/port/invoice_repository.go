package port

import (
	"context"

	"github.com/google/uuid"

	"finrecon/internal/domain"
)

// InvoiceRepository defines the contract for invoice persistence.
type InvoiceRepository interface {
	CreateBatch(ctx context.Context, invoices []domain.Invoice) error
	ListByRunAndSource(ctx context.Context, runID uuid.UUID, source domain.InvoiceSource) ([]domain.Invoice, error)
	CountByRunAndSource(ctx context.Context, runID uuid.UUID, source domain.InvoiceSource) (int, error)
	DeleteByRun(ctx context.Context, runID uuid.UUID) error
}
