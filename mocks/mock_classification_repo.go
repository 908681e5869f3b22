package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"finrecon/internal/domain"
)

// MockClassificationRepo is a mock implementation of port.ClassificationRepository.
type MockClassificationRepo struct {
	mock.Mock
}

func (m *MockClassificationRepo) CreateBatch(ctx context.Context, classifications []domain.Classification) error {
	args := m.Called(ctx, classifications)
	return args.Error(0)
}

func (m *MockClassificationRepo) UpdateCategory(ctx context.Context, classificationID uuid.UUID, category domain.ClassificationCategory, reason string) error {
	args := m.Called(ctx, classificationID, category, reason)
	return args.Error(0)
}

func (m *MockClassificationRepo) DeleteByRun(ctx context.Context, runID uuid.UUID) error {
	args := m.Called(ctx, runID)
	return args.Error(0)
}
