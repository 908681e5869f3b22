package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"finrecon/internal/domain"
	"finrecon/internal/port"
)

type runRepo struct {
	db *sqlx.DB
}

// NewRunRepo creates a new PostgreSQL-backed RunRepository.
func NewRunRepo(db *sqlx.DB) port.RunRepository {
	return &runRepo{db: db}
}

func (r *runRepo) Create(ctx context.Context, run *domain.ReconciliationRun) error {
	now := time.Now().UTC()
	run.CreatedAt = now
	run.UpdatedAt = now

	query := `INSERT INTO reconciliation_runs (
		id, client_id, gstin, return_period, status, failure_cause,
		pr_invoice_count, gstr2b_invoice_count,
		total_records, exact_match, amount_mismatch, date_mismatch,
		gstin_mismatch, pr_only, gstr2b_only, match_rate,
		pending_review, discrepancies,
		itc_claimable, itc_at_risk, total_itc_available,
		started_at, completed_at, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6,
		$7, $8,
		$9, $10, $11, $12,
		$13, $14, $15, $16,
		$17, $18,
		$19, $20, $21,
		$22, $23, $24, $25
	)`

	_, err := r.db.ExecContext(ctx, query,
		run.ID, run.ClientID, run.GSTIN, run.ReturnPeriod, run.Status, run.FailureCause,
		run.PRInvoiceCount, run.GSTR2BInvoiceCount,
		run.TotalRecords, run.ExactMatch, run.AmountMismatch, run.DateMismatch,
		run.GSTINMismatch, run.PROnly, run.GSTR2BOnly, run.MatchRate,
		run.PendingReview, run.Discrepancies,
		run.ITCClaimable, run.ITCAtRisk, run.TotalITCAvailable,
		run.StartedAt, run.CompletedAt, run.CreatedAt, run.UpdatedAt)
	if err != nil {
		return fmt.Errorf("runRepo.Create: %w", err)
	}
	return nil
}

func (r *runRepo) GetByID(ctx context.Context, runID uuid.UUID) (*domain.ReconciliationRun, error) {
	var run domain.ReconciliationRun
	err := r.db.GetContext(ctx, &run,
		"SELECT * FROM reconciliation_runs WHERE id = $1", runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRunNotFound
		}
		return nil, fmt.Errorf("runRepo.GetByID: %w", err)
	}
	return &run, nil
}

func (r *runRepo) ListByClient(ctx context.Context, clientID string, offset, limit int) ([]domain.ReconciliationRun, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM reconciliation_runs WHERE client_id = $1", clientID)
	if err != nil {
		return nil, 0, fmt.Errorf("runRepo.ListByClient count: %w", err)
	}

	var runs []domain.ReconciliationRun
	err = r.db.SelectContext(ctx, &runs,
		`SELECT * FROM reconciliation_runs WHERE client_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		clientID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("runRepo.ListByClient: %w", err)
	}
	return runs, total, nil
}

func (r *runRepo) UpdateStatus(ctx context.Context, runID uuid.UUID, status domain.RunStatus, failureCause string) error {
	now := time.Now().UTC()
	query := `UPDATE reconciliation_runs SET
		status = $1, failure_cause = $2, updated_at = $3,
		started_at = CASE WHEN $1 = 'matching' AND started_at IS NULL THEN $3 ELSE started_at END,
		completed_at = CASE WHEN $1 IN ('completed', 'failed') THEN $3 ELSE completed_at END
	 WHERE id = $4`
	result, err := r.db.ExecContext(ctx, query, status, failureCause, now, runID)
	if err != nil {
		return fmt.Errorf("runRepo.UpdateStatus: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrRunNotFound
	}
	return nil
}

func (r *runRepo) UpdateSummary(ctx context.Context, run *domain.ReconciliationRun) error {
	run.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE reconciliation_runs SET
			pr_invoice_count = $1, gstr2b_invoice_count = $2,
			total_records = $3, exact_match = $4, amount_mismatch = $5,
			date_mismatch = $6, gstin_mismatch = $7, pr_only = $8,
			gstr2b_only = $9, match_rate = $10, pending_review = $11,
			discrepancies = $12, itc_claimable = $13, itc_at_risk = $14,
			total_itc_available = $15, updated_at = $16
		 WHERE id = $17`,
		run.PRInvoiceCount, run.GSTR2BInvoiceCount,
		run.TotalRecords, run.ExactMatch, run.AmountMismatch,
		run.DateMismatch, run.GSTINMismatch, run.PROnly,
		run.GSTR2BOnly, run.MatchRate, run.PendingReview,
		run.Discrepancies, run.ITCClaimable, run.ITCAtRisk,
		run.TotalITCAvailable, run.UpdatedAt,
		run.ID)
	if err != nil {
		return fmt.Errorf("runRepo.UpdateSummary: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrRunNotFound
	}
	return nil
}

func (r *runRepo) ClaimQueued(ctx context.Context, limit int) ([]domain.ReconciliationRun, error) {
	// SKIP LOCKED keeps concurrent workers from claiming the same run.
	var runs []domain.ReconciliationRun
	err := r.db.SelectContext(ctx, &runs,
		`UPDATE reconciliation_runs SET status = 'matching', started_at = NOW(), updated_at = NOW()
		 WHERE id IN (
			SELECT id FROM reconciliation_runs
			WHERE status = 'queued'
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		 )
		 RETURNING *`, limit)
	if err != nil {
		return nil, fmt.Errorf("runRepo.ClaimQueued: %w", err)
	}
	return runs, nil
}

func (r *runRepo) Delete(ctx context.Context, runID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM reconciliation_runs WHERE id = $1", runID)
	if err != nil {
		return fmt.Errorf("runRepo.Delete: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrRunNotFound
	}
	return nil
}
