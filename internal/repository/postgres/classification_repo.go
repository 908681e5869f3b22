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

type classificationRepo struct {
	db *sqlx.DB
}

// NewClassificationRepo creates a new PostgreSQL-backed ClassificationRepository.
func NewClassificationRepo(db *sqlx.DB) port.ClassificationRepository {
	return &classificationRepo{db: db}
}

func (r *classificationRepo) CreateBatch(ctx context.Context, classifications []domain.Classification) error {
	if len(classifications) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range classifications {
		classifications[i].CreatedAt = now
	}

	query := `INSERT INTO classifications (
		id, run_id, match_result_id, category, reason, action_required, created_at
	) VALUES (
		:id, :run_id, :match_result_id, :category, :reason, :action_required, :created_at
	)`

	if _, err := r.db.NamedExecContext(ctx, query, classifications); err != nil {
		return fmt.Errorf("classificationRepo.CreateBatch: %w", err)
	}
	return nil
}

func (r *classificationRepo) UpdateCategory(ctx context.Context, classificationID uuid.UUID, category domain.ClassificationCategory, reason string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE classifications SET category = $1, reason = $2 WHERE id = $3",
		category, reason, classificationID)
	if err != nil {
		return fmt.Errorf("classificationRepo.UpdateCategory: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *classificationRepo) DeleteByRun(ctx context.Context, runID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM classifications WHERE run_id = $1", runID); err != nil {
		return fmt.Errorf("classificationRepo.DeleteByRun: %w", err)
	}
	return nil
}
