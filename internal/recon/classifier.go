package recon

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"finrecon/internal/domain"
)

// Period is one GST return period (calendar month).
type Period struct {
	Month time.Month
	Year  int
}

// ParsePeriod parses the MM-YYYY return period format.
func ParsePeriod(s string) (Period, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return Period{}, fmt.Errorf("%w: %q", domain.ErrInvalidPeriod, s)
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return Period{}, fmt.Errorf("%w: %q", domain.ErrInvalidPeriod, s)
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil || year < 2017 || year > 2099 {
		return Period{}, fmt.Errorf("%w: %q", domain.ErrInvalidPeriod, s)
	}
	return Period{Month: time.Month(month), Year: year}, nil
}

// Next returns the following return period.
func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Month: time.January, Year: p.Year + 1}
	}
	return Period{Month: p.Month + 1, Year: p.Year}
}

// Contains reports whether t falls inside the period's calendar month.
func (p Period) Contains(t time.Time) bool {
	return t.Year() == p.Year && t.Month() == p.Month
}

func (p Period) String() string {
	return fmt.Sprintf("%02d-%04d", int(p.Month), p.Year)
}

// actionByCategory is the fixed follow-up text attached per category.
// written_off is reachable only by manual override, never by the rule table.
var actionByCategory = map[domain.ClassificationCategory]string{
	domain.CategoryRecoverable:      "Accept difference as rounding; claim ITC as reported in GSTR-2B",
	domain.CategoryIrrecoverable:    "Reverse the ITC claim or obtain invoice confirmation from the vendor",
	domain.CategoryPendingVendor:    "Follow up with vendor for GSTR-1 filing",
	domain.CategoryDataEntryError:   "Correct the purchase register entry against the source invoice",
	domain.CategoryTimingDifference: "Carry forward to the next return period",
	domain.CategoryUnderReview:      "Verify the invoice against books before claiming ITC",
}

// Classifier assigns a discrepancy category to every non-exact match result.
// It is a pure, total function over a run's results: each non-exact result
// receives exactly one classification, exact matches receive none.
type Classifier struct {
	cfg    Config
	period Period
}

// NewClassifier builds a classifier for one run's return period.
func NewClassifier(cfg Config, period Period) *Classifier {
	return &Classifier{cfg: cfg, period: period}
}

// Classify walks the run's results, attaching a Classification to each
// non-exact one. The slice elements are augmented in place (append-only:
// match fields are never touched).
func (c *Classifier) Classify(results []domain.MatchResult) []domain.Classification {
	reported := vendorReportedCounts(results)

	var out []domain.Classification
	for i := range results {
		r := &results[i]
		if r.Status == domain.StatusExactMatch {
			continue
		}
		category, reason := c.classifyOne(r, reported)
		cls := domain.Classification{
			ID:             uuid.New(),
			RunID:          r.RunID,
			MatchResultID:  r.ID,
			Category:       category,
			Reason:         reason,
			ActionRequired: actionByCategory[category],
		}
		r.Classification = &cls
		out = append(out, cls)
	}
	return out
}

// classifyOne applies the rule table, first match wins.
func (c *Classifier) classifyOne(r *domain.MatchResult, reported map[string]int) (domain.ClassificationCategory, string) {
	switch r.Status {
	case domain.StatusGSTR2BOnly:
		inv := r.GSTR2BInvoice
		if inv != nil && inv.InvoiceDate != nil && c.withinFilingWindow(*inv.InvoiceDate) {
			return domain.CategoryTimingDifference, fmt.Sprintf(
				"invoice dated %s reported by vendor in GSTR-2B but not yet in the purchase register; within filing window %s",
				inv.InvoiceDate.Format("2006-01-02"), c.period)
		}
		return domain.CategoryUnderReview,
			"invoice reported only in GSTR-2B with no purchase register entry"

	case domain.StatusPROnly:
		gstin, _ := r.Vendor()
		if n := reported[normalizeGSTIN(gstin)]; n > 0 {
			return domain.CategoryPendingVendor, fmt.Sprintf(
				"invoice missing from GSTR-2B; vendor has %d other invoice(s) reported this period", n)
		}
		return domain.CategoryIrrecoverable,
			"invoice missing from GSTR-2B and vendor has no other reported activity this period"

	case domain.StatusAmountMismatch:
		diff := r.TotalDiff.Abs()
		if diff.LessThanOrEqual(c.cfg.RoundingThreshold) {
			return domain.CategoryRecoverable, fmt.Sprintf(
				"total difference of ₹%s is within the ₹%s rounding threshold",
				diff.StringFixed(2), c.cfg.RoundingThreshold.StringFixed(2))
		}
		return domain.CategoryDataEntryError, fmt.Sprintf(
			"total difference of ₹%s exceeds the ₹%s rounding threshold",
			diff.StringFixed(2), c.cfg.RoundingThreshold.StringFixed(2))

	case domain.StatusDateMismatch:
		return domain.CategoryTimingDifference, fmt.Sprintf(
			"invoice dated %s in the purchase register but %s in GSTR-2B",
			formatDate(r.PRInvoice), formatDate(r.GSTR2BInvoice))

	case domain.StatusGSTINMismatch:
		return domain.CategoryDataEntryError, fmt.Sprintf(
			"GSTIN recorded as %q in the purchase register and %q in GSTR-2B",
			invoiceGSTIN(r.PRInvoice), invoiceGSTIN(r.GSTR2BInvoice))
	}

	// Unreachable for a well-formed partition; conservative fallback.
	return domain.CategoryUnderReview, fmt.Sprintf("unrecognized match status %q", r.Status)
}

// withinFilingWindow reports whether the invoice date falls in the run's
// return period or the likely-next one.
func (c *Classifier) withinFilingWindow(t time.Time) bool {
	return c.period.Contains(t) || c.period.Next().Contains(t)
}

// vendorReportedCounts counts, per normalized GSTIN, the invoices the vendor
// actually reported in GSTR-2B this run (matched or gstr2b_only). A vendor
// with reported activity habitually files; their missing invoices are worth
// chasing rather than writing off.
func vendorReportedCounts(results []domain.MatchResult) map[string]int {
	counts := make(map[string]int)
	for i := range results {
		if inv := results[i].GSTR2BInvoice; inv != nil {
			counts[normalizeGSTIN(inv.VendorGSTIN)]++
		}
	}
	return counts
}

func formatDate(inv *domain.Invoice) string {
	if inv == nil || inv.InvoiceDate == nil {
		return "unknown"
	}
	return inv.InvoiceDate.Format("2006-01-02")
}

func invoiceGSTIN(inv *domain.Invoice) string {
	if inv == nil {
		return ""
	}
	return inv.VendorGSTIN
}
