package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"finrecon/internal/domain"
)

// MockResolutionService is a mock implementation of service.ResolutionService.
type MockResolutionService struct {
	mock.Mock
}

func (m *MockResolutionService) VendorGroups(ctx context.Context, runID uuid.UUID) ([]domain.VendorGroup, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.VendorGroup), args.Error(1)
}

func (m *MockResolutionService) NotifyVendor(ctx context.Context, runID uuid.UUID, vendorGSTIN, toEmail string) error {
	args := m.Called(ctx, runID, vendorGSTIN, toEmail)
	return args.Error(0)
}
