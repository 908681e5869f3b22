package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"finrecon/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// columns defines the CSV header row (19 columns).
var columns = []string{
	"Status",
	"Match Rule",
	"Confidence",
	"Category",
	"Vendor GSTIN",
	"Vendor Name",
	"PR Invoice No",
	"PR Invoice Date",
	"PR Taxable Value",
	"PR Total Tax",
	"PR Invoice Value",
	"GSTR-2B Invoice No",
	"GSTR-2B Invoice Date",
	"GSTR-2B Taxable Value",
	"GSTR-2B Total Tax",
	"GSTR-2B Invoice Value",
	"Total Diff",
	"Reason",
	"Action Required",
}

// Writer wraps csv.Writer for exporting match results as CSV.
type Writer struct {
	csv *csv.Writer
}

// NewWriter creates a Writer that writes CSV to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *Writer) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteResults converts a batch of match results to CSV rows and writes them.
func (w *Writer) WriteResults(results []domain.MatchResult) error {
	for i := range results {
		row := resultToRow(&results[i])
		if err := w.csv.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *Writer) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *Writer) Error() error {
	return w.csv.Error()
}

// resultToRow converts a single match result to a 19-element string slice.
// Columns for an absent side are left empty.
func resultToRow(r *domain.MatchResult) []string {
	row := make([]string, len(columns))

	row[0] = string(r.Status)
	row[1] = string(r.MatchRule)
	row[2] = strconv.FormatFloat(r.ConfidenceScore, 'f', 2, 64)
	if cls := r.Classification; cls != nil {
		row[3] = string(cls.Category)
		row[17] = cls.Reason
		row[18] = cls.ActionRequired
	}
	row[4], row[5] = r.Vendor()

	if inv := r.PRInvoice; inv != nil {
		row[6] = inv.InvoiceNo
		row[7] = formatDate(inv.InvoiceDate)
		row[8] = inv.TaxableValue.StringFixed(2)
		row[9] = inv.TotalTax.StringFixed(2)
		row[10] = inv.InvoiceValue.StringFixed(2)
	}
	if inv := r.GSTR2BInvoice; inv != nil {
		row[11] = inv.InvoiceNo
		row[12] = formatDate(inv.InvoiceDate)
		row[13] = inv.TaxableValue.StringFixed(2)
		row[14] = inv.TotalTax.StringFixed(2)
		row[15] = inv.InvoiceValue.StringFixed(2)
	}
	row[16] = r.TotalDiff.StringFixed(2)

	return row
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a client identifier for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns a sanitized filename for Content-Disposition header.
// Format: reconciliation_{sanitized_client}_{MM-YYYY}.{ext}
func BuildFilename(clientID, returnPeriod, ext string) string {
	return fmt.Sprintf("reconciliation_%s_%s.%s", SanitizeFilename(clientID), returnPeriod, ext)
}
