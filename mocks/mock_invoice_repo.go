package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"finrecon/internal/domain"
)

// MockInvoiceRepo is a mock implementation of port.InvoiceRepository.
type MockInvoiceRepo struct {
	mock.Mock
}

func (m *MockInvoiceRepo) CreateBatch(ctx context.Context, invoices []domain.Invoice) error {
	args := m.Called(ctx, invoices)
	return args.Error(0)
}

func (m *MockInvoiceRepo) ListByRunAndSource(ctx context.Context, runID uuid.UUID, source domain.InvoiceSource) ([]domain.Invoice, error) {
	args := m.Called(ctx, runID, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepo) CountByRunAndSource(ctx context.Context, runID uuid.UUID, source domain.InvoiceSource) (int, error) {
	args := m.Called(ctx, runID, source)
	return args.Int(0), args.Error(1)
}

func (m *MockInvoiceRepo) DeleteByRun(ctx context.Context, runID uuid.UUID) error {
	args := m.Called(ctx, runID)
	return args.Error(0)
}
