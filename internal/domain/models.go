package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice is a single purchase-invoice line, tagged by source.
// Monetary fields are INR with 2 decimal places. TotalTax and InvoiceValue
// are recomputed from the components during input validation, never trusted
// from input. Invoices are immutable once created and belong to exactly one run.
type Invoice struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	RunID        uuid.UUID       `db:"run_id" json:"run_id"`
	Source       InvoiceSource   `db:"source" json:"source"`
	InvoiceNo    string          `db:"invoice_no" json:"invoice_no"`
	InvoiceDate  *time.Time      `db:"invoice_date" json:"invoice_date"`
	VendorGSTIN  string          `db:"vendor_gstin" json:"vendor_gstin"`
	VendorName   string          `db:"vendor_name" json:"vendor_name"`
	TaxableValue decimal.Decimal `db:"taxable_value" json:"taxable_value"`
	IGST         decimal.Decimal `db:"igst" json:"igst"`
	CGST         decimal.Decimal `db:"cgst" json:"cgst"`
	SGST         decimal.Decimal `db:"sgst" json:"sgst"`
	Cess         decimal.Decimal `db:"cess" json:"cess"`
	TotalTax     decimal.Decimal `db:"total_tax" json:"total_tax"`
	InvoiceValue decimal.Decimal `db:"invoice_value" json:"invoice_value"`
	RowNumber    int             `db:"row_number" json:"row_number"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// MatchResult is the outcome of comparing zero, one, or two invoices.
// At least one of PRInvoiceID/GSTR2BInvoiceID is always set. Diff fields
// follow the PR − GSTR2B sign convention; component diffs are zero when a
// side is absent, and TotalDiff carries the present side's full invoice
// value (signed) for pr_only/gstr2b_only results.
type MatchResult struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	RunID           uuid.UUID       `db:"run_id" json:"run_id"`
	PRInvoiceID     *uuid.UUID      `db:"pr_invoice_id" json:"pr_invoice_id"`
	GSTR2BInvoiceID *uuid.UUID      `db:"gstr2b_invoice_id" json:"gstr2b_invoice_id"`
	Status          MatchStatus     `db:"status" json:"status"`
	ConfidenceScore float64         `db:"confidence_score" json:"confidence_score"`
	MatchRule       MatchRule       `db:"match_rule" json:"match_rule"`
	TaxableDiff     decimal.Decimal `db:"taxable_diff" json:"taxable_diff"`
	IGSTDiff        decimal.Decimal `db:"igst_diff" json:"igst_diff"`
	CGSTDiff        decimal.Decimal `db:"cgst_diff" json:"cgst_diff"`
	SGSTDiff        decimal.Decimal `db:"sgst_diff" json:"sgst_diff"`
	TotalDiff       decimal.Decimal `db:"total_diff" json:"total_diff"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`

	// Joined invoice data, populated in memory and in API responses.
	PRInvoice     *Invoice `db:"-" json:"pr_invoice,omitempty"`
	GSTR2BInvoice *Invoice `db:"-" json:"gstr2b_invoice,omitempty"`

	// Classification attached after matching; nil for exact matches.
	Classification *Classification `db:"-" json:"classification,omitempty"`
}

// Vendor returns the GSTIN and name of whichever side of the result is present,
// preferring the GSTR-2B side.
func (r *MatchResult) Vendor() (gstin, name string) {
	if r.GSTR2BInvoice != nil {
		return r.GSTR2BInvoice.VendorGSTIN, r.GSTR2BInvoice.VendorName
	}
	if r.PRInvoice != nil {
		return r.PRInvoice.VendorGSTIN, r.PRInvoice.VendorName
	}
	return "", ""
}

// Classification is attached to a non-exact MatchResult; exact matches
// receive none. It is append-only and never mutates the match fields.
type Classification struct {
	ID             uuid.UUID              `db:"id" json:"id"`
	RunID          uuid.UUID              `db:"run_id" json:"run_id"`
	MatchResultID  uuid.UUID              `db:"match_result_id" json:"match_result_id"`
	Category       ClassificationCategory `db:"category" json:"category"`
	Reason         string                 `db:"reason" json:"reason"`
	ActionRequired string                 `db:"action_required" json:"action_required"`
	CreatedAt      time.Time              `db:"created_at" json:"created_at"`
}

// ReconciliationRun is the aggregate root binding one PR upload and one
// GSTR-2B upload to their full set of match results and derived statistics.
// Scoped to one client and one return period (MM-YYYY).
type ReconciliationRun struct {
	ID           uuid.UUID `db:"id" json:"id"`
	ClientID     string    `db:"client_id" json:"client_id"`
	GSTIN        string    `db:"gstin" json:"gstin"`
	ReturnPeriod string    `db:"return_period" json:"return_period"`
	Status       RunStatus `db:"status" json:"status"`
	FailureCause string    `db:"failure_cause" json:"failure_cause,omitempty"`

	PRInvoiceCount     int `db:"pr_invoice_count" json:"pr_invoice_count"`
	GSTR2BInvoiceCount int `db:"gstr2b_invoice_count" json:"gstr2b_invoice_count"`

	TotalRecords   int     `db:"total_records" json:"total_records"`
	ExactMatch     int     `db:"exact_match" json:"exact_match"`
	AmountMismatch int     `db:"amount_mismatch" json:"amount_mismatch"`
	DateMismatch   int     `db:"date_mismatch" json:"date_mismatch"`
	GSTINMismatch  int     `db:"gstin_mismatch" json:"gstin_mismatch"`
	PROnly         int     `db:"pr_only" json:"pr_only"`
	GSTR2BOnly     int     `db:"gstr2b_only" json:"gstr2b_only"`
	MatchRate      float64 `db:"match_rate" json:"match_rate"`
	PendingReview  int     `db:"pending_review" json:"pending_review"`
	Discrepancies  int     `db:"discrepancies" json:"discrepancies"`

	ITCClaimable      decimal.Decimal `db:"itc_claimable" json:"itc_claimable"`
	ITCAtRisk         decimal.Decimal `db:"itc_at_risk" json:"itc_at_risk"`
	TotalITCAvailable decimal.Decimal `db:"total_itc_available" json:"total_itc_available"`

	StartedAt   *time.Time `db:"started_at" json:"started_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// ApplySummary copies an aggregator summary onto the run's stats columns.
func (r *ReconciliationRun) ApplySummary(s *RunSummary) {
	r.TotalRecords = s.TotalRecords
	r.ExactMatch = s.ExactMatch
	r.AmountMismatch = s.AmountMismatch
	r.DateMismatch = s.DateMismatch
	r.GSTINMismatch = s.GSTINMismatch
	r.PROnly = s.PROnly
	r.GSTR2BOnly = s.GSTR2BOnly
	r.MatchRate = s.MatchRate
	r.PendingReview = s.PendingReview
	r.Discrepancies = s.Discrepancies
	r.ITCClaimable = s.ITC.Claimable
	r.ITCAtRisk = s.ITC.AtRisk
	r.TotalITCAvailable = s.ITC.TotalAvailable
}

// ITCSummary is the input-tax-credit breakdown for one run. TotalAvailable
// is always exactly Claimable + AtRisk.
type ITCSummary struct {
	Claimable      decimal.Decimal `json:"itc_claimable"`
	AtRisk         decimal.Decimal `json:"itc_at_risk"`
	TotalAvailable decimal.Decimal `json:"total_itc_available"`
}

// RunSummary is the aggregator's reduction of all match results of a run.
type RunSummary struct {
	TotalRecords   int        `json:"total_records"`
	ExactMatch     int        `json:"exact_match"`
	AmountMismatch int        `json:"amount_mismatch"`
	DateMismatch   int        `json:"date_mismatch"`
	GSTINMismatch  int        `json:"gstin_mismatch"`
	PROnly         int        `json:"pr_only"`
	GSTR2BOnly     int        `json:"gstr2b_only"`
	MatchRate      float64    `json:"match_rate"`
	PendingReview  int        `json:"pending_review"`
	Discrepancies  int        `json:"discrepancies"`
	ITC            ITCSummary `json:"itc_summary"`
}

// VendorGroup aggregates a vendor's unresolved discrepancies for follow-up.
type VendorGroup struct {
	VendorGSTIN   string          `json:"vendor_gstin"`
	VendorName    string          `json:"vendor_name"`
	Discrepancies int             `json:"discrepancies"`
	MissingInPR   int             `json:"missing_in_pr"`
	MissingIn2B   int             `json:"missing_in_2b"`
	AtRiskTax     decimal.Decimal `json:"at_risk_tax"`
	Results       []MatchResult   `json:"results"`
}
