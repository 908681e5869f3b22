package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"finrecon/internal/domain"
)

// MockEmailSender is a mock implementation of port.EmailSender.
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendVendorFollowUp(ctx context.Context, toEmail string, group domain.VendorGroup, returnPeriod string) error {
	args := m.Called(ctx, toEmail, group, returnPeriod)
	return args.Error(0)
}
