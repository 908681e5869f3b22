package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"finrecon/internal/service"
)

// MockExportService is a mock implementation of service.ExportService.
type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) Render(ctx context.Context, runID uuid.UUID, format service.ExportFormat) (*service.Report, error) {
	args := m.Called(ctx, runID, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Report), args.Error(1)
}

func (m *MockExportService) Archive(ctx context.Context, runID uuid.UUID, format service.ExportFormat) (string, error) {
	args := m.Called(ctx, runID, format)
	return args.String(0), args.Error(1)
}
