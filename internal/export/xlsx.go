package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"finrecon/internal/domain"
)

const (
	summarySheet = "Summary"
	resultsSheet = "Results"
)

// BuildWorkbook renders a completed run as an Excel workbook with a summary
// sheet and a full results sheet. The caller owns closing the file.
func BuildWorkbook(run *domain.ReconciliationRun, results []domain.MatchResult) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("export.BuildWorkbook: %w", err)
	}
	if _, err := f.NewSheet(resultsSheet); err != nil {
		return nil, fmt.Errorf("export.BuildWorkbook: %w", err)
	}

	if err := writeSummarySheet(f, run); err != nil {
		return nil, err
	}
	if err := writeResultsSheet(f, results); err != nil {
		return nil, err
	}
	return f, nil
}

func writeSummarySheet(f *excelize.File, run *domain.ReconciliationRun) error {
	rows := [][]any{
		{"Client", run.ClientID},
		{"GSTIN", run.GSTIN},
		{"Return Period", run.ReturnPeriod},
		{"Status", string(run.Status)},
		{},
		{"Total Records", run.TotalRecords},
		{"Exact Match", run.ExactMatch},
		{"Amount Mismatch", run.AmountMismatch},
		{"Date Mismatch", run.DateMismatch},
		{"GSTIN Mismatch", run.GSTINMismatch},
		{"PR Only", run.PROnly},
		{"GSTR-2B Only", run.GSTR2BOnly},
		{"Match Rate (%)", run.MatchRate},
		{"Discrepancies", run.Discrepancies},
		{"Pending Review", run.PendingReview},
		{},
		{"ITC Claimable", run.ITCClaimable.StringFixed(2)},
		{"ITC At Risk", run.ITCAtRisk.StringFixed(2)},
		{"Total ITC Available", run.TotalITCAvailable.StringFixed(2)},
	}
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return fmt.Errorf("export.writeSummarySheet: %w", err)
			}
			if err := f.SetCellValue(summarySheet, cell, v); err != nil {
				return fmt.Errorf("export.writeSummarySheet: %w", err)
			}
		}
	}
	return nil
}

func writeResultsSheet(f *excelize.File, results []domain.MatchResult) error {
	for j, name := range columns {
		cell, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return fmt.Errorf("export.writeResultsSheet: %w", err)
		}
		if err := f.SetCellValue(resultsSheet, cell, name); err != nil {
			return fmt.Errorf("export.writeResultsSheet: %w", err)
		}
	}
	for i := range results {
		row := resultToRow(&results[i])
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return fmt.Errorf("export.writeResultsSheet: %w", err)
			}
			if err := f.SetCellValue(resultsSheet, cell, v); err != nil {
				return fmt.Errorf("export.writeResultsSheet: %w", err)
			}
		}
	}
	return nil
}
