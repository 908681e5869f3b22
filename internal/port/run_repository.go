package port

import (
	"context"

	"github.com/google/uuid"

	"finrecon/internal/domain"
)

// RunRepository defines the contract for reconciliation run persistence.
type RunRepository interface {
	Create(ctx context.Context, run *domain.ReconciliationRun) error
	GetByID(ctx context.Context, runID uuid.UUID) (*domain.ReconciliationRun, error)
	ListByClient(ctx context.Context, clientID string, offset, limit int) ([]domain.ReconciliationRun, int, error)
	UpdateStatus(ctx context.Context, runID uuid.UUID, status domain.RunStatus, failureCause string) error
	UpdateSummary(ctx context.Context, run *domain.ReconciliationRun) error
	// ClaimQueued atomically moves up to limit of the oldest queued runs
	// to matching and returns them. An empty queue returns an empty slice.
	ClaimQueued(ctx context.Context, limit int) ([]domain.ReconciliationRun, error)
	Delete(ctx context.Context, runID uuid.UUID) error
}
