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

type matchResultRepo struct {
	db *sqlx.DB
}

// NewMatchResultRepo creates a new PostgreSQL-backed MatchResultRepository.
func NewMatchResultRepo(db *sqlx.DB) port.MatchResultRepository {
	return &matchResultRepo{db: db}
}

func (r *matchResultRepo) CreateBatch(ctx context.Context, results []domain.MatchResult) error {
	if len(results) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range results {
		results[i].CreatedAt = now
	}

	query := `INSERT INTO match_results (
		id, run_id, pr_invoice_id, gstr2b_invoice_id,
		status, confidence_score, match_rule,
		taxable_diff, igst_diff, cgst_diff, sgst_diff, total_diff,
		created_at
	) VALUES (
		:id, :run_id, :pr_invoice_id, :gstr2b_invoice_id,
		:status, :confidence_score, :match_rule,
		:taxable_diff, :igst_diff, :cgst_diff, :sgst_diff, :total_diff,
		:created_at
	)`

	if _, err := r.db.NamedExecContext(ctx, query, results); err != nil {
		return fmt.Errorf("matchResultRepo.CreateBatch: %w", err)
	}
	return nil
}

func (r *matchResultRepo) ListByRun(ctx context.Context, runID uuid.UUID, filter port.ResultFilter) ([]domain.MatchResult, int, error) {
	where := "WHERE m.run_id = $1"
	args := []any{runID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND m.status = $%d", len(args))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where += fmt.Sprintf(
			" AND EXISTS (SELECT 1 FROM classifications c WHERE c.match_result_id = m.id AND c.category = $%d)",
			len(args))
	}

	var total int
	err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM match_results m "+where, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("matchResultRepo.ListByRun count: %w", err)
	}

	query := "SELECT m.* FROM match_results m " + where + " ORDER BY m.created_at, m.id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var results []domain.MatchResult
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		return nil, 0, fmt.Errorf("matchResultRepo.ListByRun: %w", err)
	}

	if err := r.attachInvoices(ctx, runID, results); err != nil {
		return nil, 0, err
	}
	if err := r.attachClassifications(ctx, runID, results); err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// attachInvoices stitches both invoice sides onto the results with one
// query instead of a per-row join scan.
func (r *matchResultRepo) attachInvoices(ctx context.Context, runID uuid.UUID, results []domain.MatchResult) error {
	if len(results) == 0 {
		return nil
	}
	var invoices []domain.Invoice
	err := r.db.SelectContext(ctx, &invoices,
		"SELECT * FROM invoices WHERE run_id = $1", runID)
	if err != nil {
		return fmt.Errorf("matchResultRepo.attachInvoices: %w", err)
	}
	byID := make(map[uuid.UUID]*domain.Invoice, len(invoices))
	for i := range invoices {
		byID[invoices[i].ID] = &invoices[i]
	}
	for i := range results {
		if id := results[i].PRInvoiceID; id != nil {
			results[i].PRInvoice = byID[*id]
		}
		if id := results[i].GSTR2BInvoiceID; id != nil {
			results[i].GSTR2BInvoice = byID[*id]
		}
	}
	return nil
}

func (r *matchResultRepo) attachClassifications(ctx context.Context, runID uuid.UUID, results []domain.MatchResult) error {
	if len(results) == 0 {
		return nil
	}
	var classifications []domain.Classification
	err := r.db.SelectContext(ctx, &classifications,
		"SELECT * FROM classifications WHERE run_id = $1", runID)
	if err != nil {
		return fmt.Errorf("matchResultRepo.attachClassifications: %w", err)
	}
	byResult := make(map[uuid.UUID]*domain.Classification, len(classifications))
	for i := range classifications {
		byResult[classifications[i].MatchResultID] = &classifications[i]
	}
	for i := range results {
		results[i].Classification = byResult[results[i].ID]
	}
	return nil
}

func (r *matchResultRepo) DeleteByRun(ctx context.Context, runID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM match_results WHERE run_id = $1", runID); err != nil {
		return fmt.Errorf("matchResultRepo.DeleteByRun: %w", err)
	}
	return nil
}
