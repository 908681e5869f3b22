package port

import (
	"context"

	"github.com/google/uuid"

	"finrecon/internal/domain"
)

// ResultFilter narrows a match result listing. Zero values mean no filter.
type ResultFilter struct {
	Status   domain.MatchStatus
	Category domain.ClassificationCategory
	Offset   int
	Limit    int
}

// MatchResultRepository defines the contract for match result persistence.
// Listings return results with both invoice sides and the classification
// joined in.
type MatchResultRepository interface {
	CreateBatch(ctx context.Context, results []domain.MatchResult) error
	ListByRun(ctx context.Context, runID uuid.UUID, filter ResultFilter) ([]domain.MatchResult, int, error)
	DeleteByRun(ctx context.Context, runID uuid.UUID) error
}

// ClassificationRepository defines the contract for classification persistence.
type ClassificationRepository interface {
	CreateBatch(ctx context.Context, classifications []domain.Classification) error
	// UpdateCategory applies a manual override, e.g. writing off an
	// irrecoverable claim.
	UpdateCategory(ctx context.Context, classificationID uuid.UUID, category domain.ClassificationCategory, reason string) error
	DeleteByRun(ctx context.Context, runID uuid.UUID) error
}
