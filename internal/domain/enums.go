package domain

// InvoiceSource identifies which ledger an invoice came from.
type InvoiceSource string

const (
	SourcePurchaseRegister InvoiceSource = "purchase_register"
	SourceGSTR2B           InvoiceSource = "gstr2b"
)

// ValidSources maps accepted source values.
var ValidSources = map[InvoiceSource]bool{
	SourcePurchaseRegister: true,
	SourceGSTR2B:           true,
}

// MatchStatus is the outcome of comparing a PR invoice with a GSTR-2B invoice.
type MatchStatus string

const (
	StatusExactMatch     MatchStatus = "exact_match"
	StatusAmountMismatch MatchStatus = "amount_mismatch"
	StatusDateMismatch   MatchStatus = "date_mismatch"
	StatusGSTINMismatch  MatchStatus = "gstin_mismatch"
	StatusPROnly         MatchStatus = "pr_only"
	StatusGSTR2BOnly     MatchStatus = "gstr2b_only"
)

// MatchRule identifies which tier of the matching cascade produced a pairing.
type MatchRule string

const (
	RuleExactKey       MatchRule = "exact_key"
	RuleValueTolerant  MatchRule = "value_tolerant_key"
	RuleFuzzyInvoiceNo MatchRule = "fuzzy_invoice_no"
	RuleUnmatched      MatchRule = "unmatched"
)

// ClassificationCategory is the discrepancy taxonomy applied to non-exact results.
type ClassificationCategory string

const (
	CategoryRecoverable      ClassificationCategory = "recoverable"
	CategoryIrrecoverable    ClassificationCategory = "irrecoverable"
	CategoryPendingVendor    ClassificationCategory = "pending_vendor"
	CategoryDataEntryError   ClassificationCategory = "data_entry_error"
	CategoryTimingDifference ClassificationCategory = "timing_difference"
	CategoryUnderReview      ClassificationCategory = "under_review"
	CategoryWrittenOff       ClassificationCategory = "written_off"
)

// RunStatus is the lifecycle state of a reconciliation run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusUploading RunStatus = "uploading"
	RunStatusQueued    RunStatus = "queued"
	RunStatusMatching  RunStatus = "matching"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)
