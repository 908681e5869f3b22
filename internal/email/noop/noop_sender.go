package noop

import (
	"context"
	"log"

	"finrecon/internal/domain"
	"finrecon/internal/port"
)

type noopSender struct{}

// NewNoopSender creates a no-op EmailSender that logs follow-ups to stdout.
func NewNoopSender() port.EmailSender {
	return &noopSender{}
}

func (s *noopSender) SendVendorFollowUp(_ context.Context, toEmail string, group domain.VendorGroup, returnPeriod string) error {
	log.Printf("[NOOP EMAIL] Vendor follow-up to %s: GSTIN %s, period %s, %d discrepancy(ies), %s at risk",
		toEmail, group.VendorGSTIN, returnPeriod, group.Discrepancies, group.AtRiskTax.StringFixed(2))
	return nil
}
