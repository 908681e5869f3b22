package recon

import (
	"strings"
)

// matchKey is the normalized (GSTIN, invoice number) pair used by the
// key-based tiers. Either half may be empty when the source field is
// missing; such invoices are ineligible for the tier that needs it.
type matchKey struct {
	GSTIN     string
	InvoiceNo string
}

func (k matchKey) complete() bool {
	return k.GSTIN != "" && k.InvoiceNo != ""
}

// normalizeGSTIN uppercases and strips whitespace. The verbatim value is
// preserved on the invoice for display; only the comparison uses this form.
func normalizeGSTIN(gstin string) string {
	s := strings.ToUpper(strings.TrimSpace(gstin))
	return strings.ReplaceAll(s, " ", "")
}

// normalizeInvoiceNo uppercases, drops every non-alphanumeric separator,
// and strips leading zeros so "inv/042" equals "INV 042" and "00042"
// equals "42".
func normalizeInvoiceNo(invoiceNo string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(invoiceNo) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return strings.TrimLeft(b.String(), "0")
}

func keyOf(gstin, invoiceNo string) matchKey {
	return matchKey{
		GSTIN:     normalizeGSTIN(gstin),
		InvoiceNo: normalizeInvoiceNo(invoiceNo),
	}
}
