package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"finrecon/internal/domain"
	"finrecon/internal/port"
	"finrecon/internal/service"
)

// MockReconService is a mock implementation of service.ReconService.
type MockReconService struct {
	mock.Mock
}

func (m *MockReconService) CreateRun(ctx context.Context, clientID, gstin, returnPeriod string) (*domain.ReconciliationRun, error) {
	args := m.Called(ctx, clientID, gstin, returnPeriod)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationRun), args.Error(1)
}

func (m *MockReconService) AddInvoices(ctx context.Context, runID uuid.UUID, source domain.InvoiceSource, invoices []domain.Invoice) (*service.UploadReport, error) {
	args := m.Called(ctx, runID, source, invoices)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UploadReport), args.Error(1)
}

func (m *MockReconService) Enqueue(ctx context.Context, runID uuid.UUID) error {
	args := m.Called(ctx, runID)
	return args.Error(0)
}

func (m *MockReconService) Execute(ctx context.Context, runID uuid.UUID) error {
	args := m.Called(ctx, runID)
	return args.Error(0)
}

func (m *MockReconService) GetRun(ctx context.Context, runID uuid.UUID) (*domain.ReconciliationRun, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReconciliationRun), args.Error(1)
}

func (m *MockReconService) ListRuns(ctx context.Context, clientID string, offset, limit int) ([]domain.ReconciliationRun, int, error) {
	args := m.Called(ctx, clientID, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.ReconciliationRun), args.Int(1), args.Error(2)
}

func (m *MockReconService) GetResults(ctx context.Context, runID uuid.UUID, filter port.ResultFilter) ([]domain.MatchResult, int, error) {
	args := m.Called(ctx, runID, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.MatchResult), args.Int(1), args.Error(2)
}

func (m *MockReconService) GetSummary(ctx context.Context, runID uuid.UUID) (*domain.RunSummary, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RunSummary), args.Error(1)
}

func (m *MockReconService) OverrideClassification(ctx context.Context, runID, classificationID uuid.UUID, category domain.ClassificationCategory, reason string) error {
	args := m.Called(ctx, runID, classificationID, category, reason)
	return args.Error(0)
}

func (m *MockReconService) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	args := m.Called(ctx, runID)
	return args.Error(0)
}
