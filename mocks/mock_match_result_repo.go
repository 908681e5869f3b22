package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"finrecon/internal/domain"
	"finrecon/internal/port"
)

// MockMatchResultRepo is a mock implementation of port.MatchResultRepository.
type MockMatchResultRepo struct {
	mock.Mock
}

func (m *MockMatchResultRepo) CreateBatch(ctx context.Context, results []domain.MatchResult) error {
	args := m.Called(ctx, results)
	return args.Error(0)
}

func (m *MockMatchResultRepo) ListByRun(ctx context.Context, runID uuid.UUID, filter port.ResultFilter) ([]domain.MatchResult, int, error) {
	args := m.Called(ctx, runID, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.MatchResult), args.Int(1), args.Error(2)
}

func (m *MockMatchResultRepo) DeleteByRun(ctx context.Context, runID uuid.UUID) error {
	args := m.Called(ctx, runID)
	return args.Error(0)
}
