package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finrecon/internal/domain"
	"finrecon/internal/port"
	"finrecon/internal/recon"
	"finrecon/internal/service"
	"finrecon/mocks"
)

const testGSTIN = "27ABCDE1234F1Z5"

type serviceMocks struct {
	runRepo            *mocks.MockRunRepo
	invoiceRepo        *mocks.MockInvoiceRepo
	matchResultRepo    *mocks.MockMatchResultRepo
	classificationRepo *mocks.MockClassificationRepo
}

func newReconService(t *testing.T) (service.ReconService, *serviceMocks) {
	t.Helper()
	m := &serviceMocks{
		runRepo:            new(mocks.MockRunRepo),
		invoiceRepo:        new(mocks.MockInvoiceRepo),
		matchResultRepo:    new(mocks.MockMatchResultRepo),
		classificationRepo: new(mocks.MockClassificationRepo),
	}
	svc, err := service.NewReconService(m.runRepo, m.invoiceRepo, m.matchResultRepo, m.classificationRepo, recon.DefaultConfig())
	require.NoError(t, err)
	return svc, m
}

func testInvoice(invoiceNo string, day int) domain.Invoice {
	date := time.Date(2025, 4, day, 0, 0, 0, 0, time.UTC)
	return domain.Invoice{
		InvoiceNo:    invoiceNo,
		InvoiceDate:  &date,
		VendorGSTIN:  testGSTIN,
		VendorName:   "Acme Traders",
		TaxableValue: decimal.NewFromInt(1000),
		CGST:         decimal.NewFromInt(90),
		SGST:         decimal.NewFromInt(90),
	}
}

func TestReconService_CreateRun(t *testing.T) {
	svc, m := newReconService(t)

	m.runRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.ReconciliationRun")).Return(nil)

	run, err := svc.CreateRun(context.Background(), "client-1", testGSTIN, "04-2025")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, run.ID)
	assert.Equal(t, "client-1", run.ClientID)
	assert.Equal(t, "04-2025", run.ReturnPeriod)
	assert.Equal(t, domain.RunStatusPending, run.Status)
	m.runRepo.AssertExpectations(t)
}

func TestReconService_CreateRun_InvalidPeriod(t *testing.T) {
	svc, m := newReconService(t)

	_, err := svc.CreateRun(context.Background(), "client-1", testGSTIN, "2025-04")
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
	m.runRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReconService_AddInvoices_InvalidSource(t *testing.T) {
	svc, _ := newReconService(t)

	_, err := svc.AddInvoices(context.Background(), uuid.New(), "gstr1", []domain.Invoice{testInvoice("INV-1", 5)})
	assert.ErrorIs(t, err, domain.ErrInvalidSource)
}

func TestReconService_AddInvoices_StoresValidRecords(t *testing.T) {
	svc, m := newReconService(t)
	runID := uuid.New()

	m.runRepo.On("GetByID", mock.Anything, runID).
		Return(&domain.ReconciliationRun{ID: runID, Status: domain.RunStatusPending}, nil)
	m.invoiceRepo.On("CreateBatch", mock.Anything, mock.AnythingOfType("[]domain.Invoice")).Return(nil)
	m.runRepo.On("UpdateStatus", mock.Anything, runID, domain.RunStatusUploading, "").Return(nil)

	report, err := svc.AddInvoices(context.Background(), runID, domain.SourcePurchaseRegister,
		[]domain.Invoice{testInvoice("INV-1", 5), testInvoice("INV-2", 7)})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Accepted)
	assert.Empty(t, report.Excluded)

	stored := m.invoiceRepo.Calls[0].Arguments.Get(1).([]domain.Invoice)
	require.Len(t, stored, 2)
	for i, inv := range stored {
		assert.NotEqual(t, uuid.Nil, inv.ID)
		assert.Equal(t, runID, inv.RunID)
		assert.Equal(t, domain.SourcePurchaseRegister, inv.Source)
		assert.Equal(t, i+1, inv.RowNumber)
		assert.True(t, inv.TotalTax.Equal(decimal.NewFromInt(180)))
		assert.True(t, inv.InvoiceValue.Equal(decimal.NewFromInt(1180)))
	}
	m.runRepo.AssertExpectations(t)
}

func TestReconService_AddInvoices_ExcludesBadRows(t *testing.T) {
	svc, m := newReconService(t)
	runID := uuid.New()

	bad := testInvoice("INV-NEG", 9)
	bad.CGST = decimal.NewFromInt(-90)

	m.runRepo.On("GetByID", mock.Anything, runID).
		Return(&domain.ReconciliationRun{ID: runID, Status: domain.RunStatusUploading}, nil)
	m.invoiceRepo.On("CreateBatch", mock.Anything, mock.AnythingOfType("[]domain.Invoice")).Return(nil)

	report, err := svc.AddInvoices(context.Background(), runID, domain.SourceGSTR2B,
		[]domain.Invoice{testInvoice("INV-1", 5), bad})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Accepted)
	require.Len(t, report.Excluded, 1)
	assert.Equal(t, "INV-NEG", report.Excluded[0].InvoiceNo)
	assert.Equal(t, "cgst", report.Excluded[0].Field)

	// Already uploading, no status transition expected.
	m.runRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReconService_AddInvoices_RejectsCompletedRun(t *testing.T) {
	svc, m := newReconService(t)
	runID := uuid.New()

	m.runRepo.On("GetByID", mock.Anything, runID).
		Return(&domain.ReconciliationRun{ID: runID, Status: domain.RunStatusCompleted}, nil)

	_, err := svc.AddInvoices(context.Background(), runID, domain.SourcePurchaseRegister,
		[]domain.Invoice{testInvoice("INV-1", 5)})
	assert.ErrorIs(t, err, domain.ErrRunNotQueueable)
}

func TestReconService_Enqueue(t *testing.T) {
	svc, m := newReconService(t)
	runID := uuid.New()

	m.runRepo.On("GetByID", mock.Anything, runID).
		Return(&domain.ReconciliationRun{ID: runID, Status: domain.RunStatusUploading}, nil)
	m.invoiceRepo.On("CountByRunAndSource", mock.Anything, runID, domain.SourcePurchaseRegister).Return(3, nil)
	m.invoiceRepo.On("CountByRunAndSource", mock.Anything, runID, domain.SourceGSTR2B).Return(2, nil)
	m.runRepo.On("UpdateStatus", mock.Anything, runID, domain.RunStatusQueued, "").Return(nil)

	err := svc.Enqueue(context.Background(), runID)
	require.NoError(t, err)
	m.runRepo.AssertExpectations(t)
}

func TestReconService_Enqueue_NoInvoices(t *testing.T) {
	svc, m := newReconService(t)
	runID := uuid.New()

	m.runRepo.On("GetByID", mock.Anything, runID).
		Return(&domain.ReconciliationRun{ID: runID, Status: domain.RunStatusPending}, nil)
	m.invoiceRepo.On("CountByRunAndSource", mock.Anything, runID, domain.SourcePurchaseRegister).Return(0, nil)
	m.invoiceRepo.On("CountByRunAndSource", mock.Anything, runID, domain.SourceGSTR2B).Return(0, nil)

	err := svc.Enqueue(context.Background(), runID)
	assert.ErrorIs(t, err, domain.ErrNoInvoices)
	m.runRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReconService_Enqueue_AlreadyQueued(t *testing.T) {
	svc, m := newReconService(t)
	runID := uuid.New()

	m.runRepo.On("GetByID", mock.Anything, runID).
		Return(&domain.ReconciliationRun{ID: runID, Status: domain.RunStatusQueued}, nil)

	err := svc.Enqueue(context.Background(), runID)
	assert.ErrorIs(t, err, domain.ErrRunNotQueueable)
}

func TestReconService_Enqueue_AlreadyMatching(t *testing.T) {
	svc, m := newReconService(t)
	runID := uuid.New()

	m.runRepo.On("GetByID", mock.Anything, runID).
		Return(&domain.ReconciliationRun{ID: runID, Status: domain.RunStatusMatching}, nil)

	err := svc.Enqueue(context.Background(), runID)
	assert.ErrorIs(t, err, domain.ErrRunAlreadyRunning)
	m.runRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReconService_Execute_CompletesRun(t *testing.T) {
	svc, m := newReconService(t)
	runID := uuid.New()

	pr := testInvoice("INV-1", 5)
	pr.ID = uuid.New()
	pr.RunID = runID
	pr.Source = domain.SourcePurchaseRegister
	pr.TotalTax = decimal.NewFromInt(180)
	pr.InvoiceValue = decimal.NewFromInt(1180)

	g2b := pr
	g2b.ID = uuid.New()
	g2b.Source = domain.SourceGSTR2B

	run := &domain.ReconciliationRun{
		ID: runID, ClientID: "client-1", GSTIN: testGSTIN,
		ReturnPeriod: "04-2025", Status: domain.RunStatusQueued,
	}

	m.runRepo.On("GetByID", mock.Anything, runID).Return(run, nil)
	m.runRepo.On("UpdateStatus", mock.Anything, runID, domain.RunStatusMatching, "").Return(nil)
	m.invoiceRepo.On("ListByRunAndSource", mock.Anything, runID, domain.SourcePurchaseRegister).
		Return([]domain.Invoice{pr}, nil)
	m.invoiceRepo.On("ListByRunAndSource", mock.Anything, runID, domain.SourceGSTR2B).
		Return([]domain.Invoice{g2b}, nil)
	m.classificationRepo.On("DeleteByRun", mock.Anything, runID).Return(nil)
	m.matchResultRepo.On("DeleteByRun", mock.Anything, runID).Return(nil)
	m.matchResultRepo.On("CreateBatch", mock.Anything, mock.AnythingOfType("[]domain.MatchResult")).Return(nil)
	m.classificationRepo.On("CreateBatch", mock.Anything, mock.AnythingOfType("[]domain.Classification")).Return(nil)
	m.runRepo.On("UpdateSummary", mock.Anything, mock.AnythingOfType("*domain.ReconciliationRun")).Return(nil)
	m.runRepo.On("UpdateStatus", mock.Anything, runID, domain.RunStatusCompleted, "").Return(nil)

	err := svc.Execute(context.Background(), runID)
	require.NoError(t, err)

	assert.Equal(t, 1, run.PRInvoiceCount)
	assert.Equal(t, 1, run.GSTR2BInvoiceCount)
	assert.Equal(t, 1, run.TotalRecords)
	assert.Equal(t, 1, run.ExactMatch)
	assert.Equal(t, 100.0, run.MatchRate)
	assert.True(t, run.ITCClaimable.Equal(decimal.NewFromInt(180)))
	assert.True(t, run.ITCAtRisk.IsZero())
	m.runRepo.AssertExpectations(t)
	m.matchResultRepo.AssertExpectations(t)
}

func TestReconService_Execute_AcceptsClaimedRun(t *testing.T) {
	svc, m := newReconService(t)
	runID := uuid.New()

	pr := testInvoice("INV-1", 5)
	pr.ID = uuid.New()

	run := &domain.ReconciliationRun{
		ID: runID, ReturnPeriod: "04-2025", Status: domain.RunStatusMatching,
	}

	m.runRepo.On("GetByID", mock.Anything, runID).Return(run, nil)
	m.invoiceRepo.On("ListByRunAndSource", mock.Anything, runID, domain.SourcePurchaseRegister).
		Return([]domain.Invoice{pr}, nil)
	m.invoiceRepo.On("ListByRunAndSource", mock.Anything, runID, domain.SourceGSTR2B).
		Return([]domain.Invoice{}, nil)
	m.classificationRepo.On("DeleteByRun", mock.Anything, runID).Return(nil)
	m.matchResultRepo.On("DeleteByRun", mock.Anything, runID).Return(nil)
	m.matchResultRepo.On("CreateBatch", mock.Anything, mock.AnythingOfType("[]domain.MatchResult")).Return(nil)
	m.classificationRepo.On("CreateBatch", mock.Anything, mock.AnythingOfType("[]domain.Classification")).Return(nil)
	m.runRepo.On("UpdateSummary", mock.Anything, mock.AnythingOfType("*domain.ReconciliationRun")).Return(nil)
	m.runRepo.On("UpdateStatus", mock.Anything, runID, domain.RunStatusCompleted, "").Return(nil)

	err := svc.Execute(context.Background(), runID)
	require.NoError(t, err)

	// No queued->matching transition, the worker already claimed it.
	for _, call := range m.runRepo.Calls {
		if call.Method == "UpdateStatus" {
			assert.NotEqual(t, domain.RunStatusMatching, call.Arguments.Get(2))
		}
	}
}

func TestReconService_Execute_MarksFailedOnError(t *testing.T) {
	svc, m := newReconService(t)
	runID := uuid.New()

	run := &domain.ReconciliationRun{ID: runID, ReturnPeriod: "04-2025", Status: domain.RunStatusQueued}

	m.runRepo.On("GetByID", mock.Anything, runID).Return(run, nil)
	m.runRepo.On("UpdateStatus", mock.Anything, runID, domain.RunStatusMatching, "").Return(nil)
	m.invoiceRepo.On("ListByRunAndSource", mock.Anything, runID, domain.SourcePurchaseRegister).
		Return(nil, errors.New("db connection error"))
	m.runRepo.On("UpdateStatus", mock.Anything, runID, domain.RunStatusFailed, mock.AnythingOfType("string")).Return(nil)

	err := svc.Execute(context.Background(), runID)
	require.Error(t, err)
	m.runRepo.AssertCalled(t, "UpdateStatus", mock.Anything, runID, domain.RunStatusFailed, mock.AnythingOfType("string"))
}

func TestReconService_Execute_RejectsPendingRun(t *testing.T) {
	svc, m := newReconService(t)
	runID := uuid.New()

	m.runRepo.On("GetByID", mock.Anything, runID).
		Return(&domain.ReconciliationRun{ID: runID, Status: domain.RunStatusPending}, nil)

	err := svc.Execute(context.Background(), runID)
	assert.ErrorIs(t, err, domain.ErrRunNotQueueable)
}

func TestReconService_GetSummary_RequiresCompletedRun(t *testing.T) {
	svc, m := newReconService(t)
	runID := uuid.New()

	m.runRepo.On("GetByID", mock.Anything, runID).
		Return(&domain.ReconciliationRun{ID: runID, Status: domain.RunStatusMatching}, nil)

	_, err := svc.GetSummary(context.Background(), runID)
	assert.ErrorIs(t, err, domain.ErrRunNotCompleted)
}

func TestReconService_GetSummary_RebuildsFromRun(t *testing.T) {
	svc, m := newReconService(t)
	runID := uuid.New()

	m.runRepo.On("GetByID", mock.Anything, runID).Return(&domain.ReconciliationRun{
		ID: runID, Status: domain.RunStatusCompleted,
		TotalRecords: 6, ExactMatch: 2, AmountMismatch: 1, DateMismatch: 1,
		PROnly: 1, GSTR2BOnly: 1, MatchRate: 33.3, PendingReview: 2, Discrepancies: 4,
		ITCClaimable:      decimal.NewFromInt(360),
		ITCAtRisk:         decimal.NewFromInt(540),
		TotalITCAvailable: decimal.NewFromInt(900),
	}, nil)

	summary, err := svc.GetSummary(context.Background(), runID)
	require.NoError(t, err)

	assert.Equal(t, 6, summary.TotalRecords)
	assert.Equal(t, 33.3, summary.MatchRate)
	assert.True(t, summary.ITC.TotalAvailable.Equal(summary.ITC.Claimable.Add(summary.ITC.AtRisk)))
}

func TestReconService_OverrideClassification(t *testing.T) {
	svc, m := newReconService(t)
	runID := uuid.New()
	classificationID := uuid.New()

	m.runRepo.On("GetByID", mock.Anything, runID).
		Return(&domain.ReconciliationRun{ID: runID, Status: domain.RunStatusCompleted}, nil)
	m.classificationRepo.On("UpdateCategory", mock.Anything, classificationID, domain.CategoryWrittenOff, "vendor deregistered").
		Return(nil)

	err := svc.OverrideClassification(context.Background(), runID, classificationID, domain.CategoryWrittenOff, "vendor deregistered")
	require.NoError(t, err)
	m.classificationRepo.AssertExpectations(t)
}

func TestReconService_GetResults_RunNotFound(t *testing.T) {
	svc, m := newReconService(t)
	runID := uuid.New()

	m.runRepo.On("GetByID", mock.Anything, runID).Return(nil, domain.ErrRunNotFound)

	_, _, err := svc.GetResults(context.Background(), runID, port.ResultFilter{})
	assert.ErrorIs(t, err, domain.ErrRunNotFound)
}
