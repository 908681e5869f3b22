package service

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"finrecon/internal/domain"
	"finrecon/internal/export"
	"finrecon/internal/port"
)

// ExportFormat selects the report rendering.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
)

// Report is a rendered reconciliation report ready to stream to a client.
type Report struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders completed runs as downloadable reports and archives
// them to object storage.
type ExportService interface {
	Render(ctx context.Context, runID uuid.UUID, format ExportFormat) (*Report, error)
	// Archive uploads the rendered report and returns a presigned URL.
	Archive(ctx context.Context, runID uuid.UUID, format ExportFormat) (string, error)
}

type exportService struct {
	runRepo         port.RunRepository
	matchResultRepo port.MatchResultRepository
	storage         port.ObjectStorage
	bucket          string
	presignExpiry   int64
}

// NewExportService creates a new ExportService. storage may be nil when
// archival is not configured; Render still works.
func NewExportService(
	runRepo port.RunRepository,
	matchResultRepo port.MatchResultRepository,
	storage port.ObjectStorage,
	bucket string,
	presignExpiry int64,
) ExportService {
	return &exportService{
		runRepo:         runRepo,
		matchResultRepo: matchResultRepo,
		storage:         storage,
		bucket:          bucket,
		presignExpiry:   presignExpiry,
	}
}

func (s *exportService) Render(ctx context.Context, runID uuid.UUID, format ExportFormat) (*Report, error) {
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

	switch format {
	case FormatCSV:
		return renderCSV(run, results)
	case FormatXLSX:
		return renderXLSX(run, results)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func renderCSV(run *domain.ReconciliationRun, results []domain.MatchResult) (*Report, error) {
	var buf bytes.Buffer
	buf.Write(export.BOM)

	w := export.NewWriter(&buf)
	if err := w.WriteHeader(); err != nil {
		return nil, fmt.Errorf("exportService.renderCSV: %w", err)
	}
	if err := w.WriteResults(results); err != nil {
		return nil, fmt.Errorf("exportService.renderCSV: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("exportService.renderCSV: %w", err)
	}

	return &Report{
		Filename:    export.BuildFilename(run.ClientID, run.ReturnPeriod, "csv"),
		ContentType: "text/csv; charset=utf-8",
		Data:        buf.Bytes(),
	}, nil
}

func renderXLSX(run *domain.ReconciliationRun, results []domain.MatchResult) (*Report, error) {
	f, err := export.BuildWorkbook(run, results)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("exportService.renderXLSX: %w", err)
	}

	return &Report{
		Filename:    export.BuildFilename(run.ClientID, run.ReturnPeriod, "xlsx"),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        buf.Bytes(),
	}, nil
}

func (s *exportService) Archive(ctx context.Context, runID uuid.UUID, format ExportFormat) (string, error) {
	if s.storage == nil {
		return "", fmt.Errorf("%w: object storage not configured", domain.ErrUploadFailed)
	}
	report, err := s.Render(ctx, runID, format)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("reports/%s/%s", runID, report.Filename)
	_, err = s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.bucket,
		Key:         key,
		Body:        bytes.NewReader(report.Data),
		ContentType: report.ContentType,
		Size:        int64(len(report.Data)),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}
	log.Printf("exportService: archived run %s report to s3://%s/%s (%d bytes)",
		runID, s.bucket, key, len(report.Data))

	url, err := s.storage.GetPresignedURL(ctx, s.bucket, key, s.presignExpiry)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}
	return url, nil
}
