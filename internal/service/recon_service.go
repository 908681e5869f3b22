package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"finrecon/internal/domain"
	"finrecon/internal/port"
	"finrecon/internal/recon"
)

// UploadReport tells the caller what happened to an invoice batch: how many
// records were accepted and which were excluded, with reasons.
type UploadReport struct {
	Accepted int                `json:"accepted"`
	Excluded []recon.InputError `json:"excluded"`
}

// ReconService orchestrates the reconciliation lifecycle: run creation,
// invoice ingestion, queueing, execution, and result retrieval.
type ReconService interface {
	CreateRun(ctx context.Context, clientID, gstin, returnPeriod string) (*domain.ReconciliationRun, error)
	AddInvoices(ctx context.Context, runID uuid.UUID, source domain.InvoiceSource, invoices []domain.Invoice) (*UploadReport, error)
	Enqueue(ctx context.Context, runID uuid.UUID) error
	Execute(ctx context.Context, runID uuid.UUID) error
	GetRun(ctx context.Context, runID uuid.UUID) (*domain.ReconciliationRun, error)
	ListRuns(ctx context.Context, clientID string, offset, limit int) ([]domain.ReconciliationRun, int, error)
	GetResults(ctx context.Context, runID uuid.UUID, filter port.ResultFilter) ([]domain.MatchResult, int, error)
	GetSummary(ctx context.Context, runID uuid.UUID) (*domain.RunSummary, error)
	OverrideClassification(ctx context.Context, runID, classificationID uuid.UUID, category domain.ClassificationCategory, reason string) error
	DeleteRun(ctx context.Context, runID uuid.UUID) error
}

type reconService struct {
	runRepo            port.RunRepository
	invoiceRepo        port.InvoiceRepository
	matchResultRepo    port.MatchResultRepository
	classificationRepo port.ClassificationRepository
	cfg                recon.Config
}

// NewReconService creates a new ReconService with validated thresholds.
func NewReconService(
	runRepo port.RunRepository,
	invoiceRepo port.InvoiceRepository,
	matchResultRepo port.MatchResultRepository,
	classificationRepo port.ClassificationRepository,
	cfg recon.Config,
) (ReconService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &reconService{
		runRepo:            runRepo,
		invoiceRepo:        invoiceRepo,
		matchResultRepo:    matchResultRepo,
		classificationRepo: classificationRepo,
		cfg:                cfg,
	}, nil
}

func (s *reconService) CreateRun(ctx context.Context, clientID, gstin, returnPeriod string) (*domain.ReconciliationRun, error) {
	period, err := recon.ParsePeriod(returnPeriod)
	if err != nil {
		return nil, err
	}

	run := &domain.ReconciliationRun{
		ID:           uuid.New(),
		ClientID:     clientID,
		GSTIN:        gstin,
		ReturnPeriod: period.String(),
		Status:       domain.RunStatusPending,
	}
	if err := s.runRepo.Create(ctx, run); err != nil {
		return nil, err
	}
	log.Printf("reconService: created run %s for client %s period %s", run.ID, clientID, run.ReturnPeriod)
	return run, nil
}

func (s *reconService) AddInvoices(ctx context.Context, runID uuid.UUID, source domain.InvoiceSource, invoices []domain.Invoice) (*UploadReport, error) {
	if !domain.ValidSources[source] {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidSource, source)
	}
	run, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Status != domain.RunStatusPending && run.Status != domain.RunStatusUploading {
		return nil, fmt.Errorf("%w: run %s is %s", domain.ErrRunNotQueueable, runID, run.Status)
	}

	for i := range invoices {
		invoices[i].ID = uuid.New()
		invoices[i].RunID = runID
		invoices[i].Source = source
		if invoices[i].RowNumber == 0 {
			invoices[i].RowNumber = i + 1
		}
	}

	valid, excluded := recon.ValidateInvoices(invoices, s.cfg.AmountTolerance)
	if err := s.invoiceRepo.CreateBatch(ctx, valid); err != nil {
		return nil, err
	}
	if run.Status == domain.RunStatusPending {
		if err := s.runRepo.UpdateStatus(ctx, runID, domain.RunStatusUploading, ""); err != nil {
			return nil, err
		}
	}
	if len(excluded) > 0 {
		log.Printf("reconService: run %s %s upload excluded %d of %d record(s)",
			runID, source, len(excluded), len(invoices))
	}
	return &UploadReport{Accepted: len(valid), Excluded: excluded}, nil
}

func (s *reconService) Enqueue(ctx context.Context, runID uuid.UUID) error {
	run, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		return err
	}
	if run.Status == domain.RunStatusMatching {
		return fmt.Errorf("%w: run %s", domain.ErrRunAlreadyRunning, runID)
	}
	if run.Status != domain.RunStatusPending && run.Status != domain.RunStatusUploading {
		return fmt.Errorf("%w: run %s is %s", domain.ErrRunNotQueueable, runID, run.Status)
	}

	prCount, err := s.invoiceRepo.CountByRunAndSource(ctx, runID, domain.SourcePurchaseRegister)
	if err != nil {
		return err
	}
	g2bCount, err := s.invoiceRepo.CountByRunAndSource(ctx, runID, domain.SourceGSTR2B)
	if err != nil {
		return err
	}
	if prCount == 0 && g2bCount == 0 {
		return fmt.Errorf("%w: run %s has no invoices on either side", domain.ErrNoInvoices, runID)
	}

	return s.runRepo.UpdateStatus(ctx, runID, domain.RunStatusQueued, "")
}

// Execute runs the matching pipeline for one run. It is normally invoked by
// the queue worker after the run has been claimed, but can also be called
// directly on a queued run.
func (s *reconService) Execute(ctx context.Context, runID uuid.UUID) error {
	run, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		return err
	}
	switch run.Status {
	case domain.RunStatusQueued:
		if err := s.runRepo.UpdateStatus(ctx, runID, domain.RunStatusMatching, ""); err != nil {
			return err
		}
	case domain.RunStatusMatching:
		// Claimed by the worker.
	default:
		return fmt.Errorf("%w: run %s is %s", domain.ErrRunNotQueueable, runID, run.Status)
	}

	if err := s.execute(ctx, run); err != nil {
		if stErr := s.runRepo.UpdateStatus(ctx, runID, domain.RunStatusFailed, err.Error()); stErr != nil {
			log.Printf("reconService: run %s failed and status update also failed: %v", runID, stErr)
		}
		return err
	}
	return s.runRepo.UpdateStatus(ctx, runID, domain.RunStatusCompleted, "")
}

func (s *reconService) execute(ctx context.Context, run *domain.ReconciliationRun) error {
	started := time.Now()

	pr, err := s.invoiceRepo.ListByRunAndSource(ctx, run.ID, domain.SourcePurchaseRegister)
	if err != nil {
		return err
	}
	g2b, err := s.invoiceRepo.ListByRunAndSource(ctx, run.ID, domain.SourceGSTR2B)
	if err != nil {
		return err
	}
	if len(pr) == 0 && len(g2b) == 0 {
		return fmt.Errorf("%w: run %s", domain.ErrNoInvoices, run.ID)
	}

	period, err := recon.ParsePeriod(run.ReturnPeriod)
	if err != nil {
		return err
	}
	matcher, err := recon.NewMatcher(s.cfg)
	if err != nil {
		return err
	}

	results := matcher.Match(run.ID, pr, g2b)
	classifications := recon.NewClassifier(s.cfg, period).Classify(results)
	summary := recon.Summarize(results)

	// Re-runs replace any previous partition.
	if err := s.classificationRepo.DeleteByRun(ctx, run.ID); err != nil {
		return err
	}
	if err := s.matchResultRepo.DeleteByRun(ctx, run.ID); err != nil {
		return err
	}
	if err := s.matchResultRepo.CreateBatch(ctx, results); err != nil {
		return err
	}
	if err := s.classificationRepo.CreateBatch(ctx, classifications); err != nil {
		return err
	}

	run.PRInvoiceCount = len(pr)
	run.GSTR2BInvoiceCount = len(g2b)
	run.ApplySummary(&summary)
	if err := s.runRepo.UpdateSummary(ctx, run); err != nil {
		return err
	}

	log.Printf("reconService: run %s matched %d PR x %d GSTR-2B into %d result(s) in %s (match rate %.1f%%)",
		run.ID, len(pr), len(g2b), summary.TotalRecords, time.Since(started).Round(time.Millisecond), summary.MatchRate)
	return nil
}

func (s *reconService) GetRun(ctx context.Context, runID uuid.UUID) (*domain.ReconciliationRun, error) {
	return s.runRepo.GetByID(ctx, runID)
}

func (s *reconService) ListRuns(ctx context.Context, clientID string, offset, limit int) ([]domain.ReconciliationRun, int, error) {
	return s.runRepo.ListByClient(ctx, clientID, offset, limit)
}

func (s *reconService) GetResults(ctx context.Context, runID uuid.UUID, filter port.ResultFilter) ([]domain.MatchResult, int, error) {
	if _, err := s.runRepo.GetByID(ctx, runID); err != nil {
		return nil, 0, err
	}
	return s.matchResultRepo.ListByRun(ctx, runID, filter)
}

func (s *reconService) GetSummary(ctx context.Context, runID uuid.UUID) (*domain.RunSummary, error) {
	run, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Status != domain.RunStatusCompleted {
		return nil, fmt.Errorf("%w: run %s is %s", domain.ErrRunNotCompleted, runID, run.Status)
	}
	summary := &domain.RunSummary{
		TotalRecords:   run.TotalRecords,
		ExactMatch:     run.ExactMatch,
		AmountMismatch: run.AmountMismatch,
		DateMismatch:   run.DateMismatch,
		GSTINMismatch:  run.GSTINMismatch,
		PROnly:         run.PROnly,
		GSTR2BOnly:     run.GSTR2BOnly,
		MatchRate:      run.MatchRate,
		PendingReview:  run.PendingReview,
		Discrepancies:  run.Discrepancies,
		ITC: domain.ITCSummary{
			Claimable:      run.ITCClaimable,
			AtRisk:         run.ITCAtRisk,
			TotalAvailable: run.TotalITCAvailable,
		},
	}
	return summary, nil
}

func (s *reconService) OverrideClassification(ctx context.Context, runID, classificationID uuid.UUID, category domain.ClassificationCategory, reason string) error {
	if _, err := s.runRepo.GetByID(ctx, runID); err != nil {
		return err
	}
	return s.classificationRepo.UpdateCategory(ctx, classificationID, category, reason)
}

func (s *reconService) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	return s.runRepo.Delete(ctx, runID)
}
