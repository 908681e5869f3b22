package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"finrecon/internal/domain"
	"finrecon/internal/port"
	"finrecon/internal/recon"
)

// ResolutionService groups a completed run's unresolved discrepancies by
// vendor and drives follow-up notification.
type ResolutionService interface {
	VendorGroups(ctx context.Context, runID uuid.UUID) ([]domain.VendorGroup, error)
	// NotifyVendor emails one vendor's discrepancy group to the given address.
	NotifyVendor(ctx context.Context, runID uuid.UUID, vendorGSTIN, toEmail string) error
}

type resolutionService struct {
	runRepo         port.RunRepository
	matchResultRepo port.MatchResultRepository
	emailSender     port.EmailSender
}

// NewResolutionService creates a new ResolutionService.
func NewResolutionService(
	runRepo port.RunRepository,
	matchResultRepo port.MatchResultRepository,
	emailSender port.EmailSender,
) ResolutionService {
	return &resolutionService{
		runRepo:         runRepo,
		matchResultRepo: matchResultRepo,
		emailSender:     emailSender,
	}
}

func (s *resolutionService) VendorGroups(ctx context.Context, runID uuid.UUID) ([]domain.VendorGroup, error) {
	run, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Status != domain.RunStatusCompleted {
		return nil, fmt.Errorf("%w: run %s is %s", domain.ErrRunNotCompleted, runID, run.Status)
	}
	results, _, err := s.matchResultRepo.ListByRun(ctx, runID, port.ResultFilter{})
	if err != nil {
		return nil, err
	}
	return recon.GroupByVendor(results), nil
}

func (s *resolutionService) NotifyVendor(ctx context.Context, runID uuid.UUID, vendorGSTIN, toEmail string) error {
	run, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		return err
	}
	groups, err := s.VendorGroups(ctx, runID)
	if err != nil {
		return err
	}
	for _, g := range groups {
		if g.VendorGSTIN != vendorGSTIN {
			continue
		}
		if err := s.emailSender.SendVendorFollowUp(ctx, toEmail, g, run.ReturnPeriod); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrEmailSendFailed, err)
		}
		log.Printf("resolutionService: sent follow-up for run %s vendor %s to %s (%d discrepancies)",
			runID, vendorGSTIN, toEmail, g.Discrepancies)
		return nil
	}
	return fmt.Errorf("%w: vendor %s has no discrepancies in run %s", domain.ErrNotFound, vendorGSTIN, runID)
}
