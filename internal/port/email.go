package port

import (
	"context"

	"finrecon/internal/domain"
)

// EmailSender defines the contract for sending vendor follow-up emails.
type EmailSender interface {
	SendVendorFollowUp(ctx context.Context, toEmail string, group domain.VendorGroup, returnPeriod string) error
}
