package recon

import (
	"fmt"

	"github.com/shopspring/decimal"

	"finrecon/internal/domain"
)

// InputError describes a single invoice rejected before matching. Rejection
// is always per-record: the run proceeds with the valid subset.
type InputError struct {
	RowNumber int    `json:"row_number"`
	InvoiceNo string `json:"invoice_no"`
	Field     string `json:"field"`
	Reason    string `json:"reason"`
}

func (e InputError) Error() string {
	return fmt.Sprintf("invoice %q (row %d): %s: %s", e.InvoiceNo, e.RowNumber, e.Field, e.Reason)
}

// ValidateInvoices screens raw invoice records and recomputes the derived
// totals on the survivors. TotalTax and InvoiceValue are never trusted from
// input: total_tax = igst+cgst+sgst+cess and invoice_value = taxable+total_tax
// are recomputed, and a record whose stated invoice_value disagrees with its
// own components beyond the amount tolerance is excluded with a reason.
func ValidateInvoices(invoices []domain.Invoice, tolerance decimal.Decimal) (valid []domain.Invoice, excluded []InputError) {
	valid = make([]domain.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if field, bad := negativeAmountField(&inv); bad {
			excluded = append(excluded, InputError{
				RowNumber: inv.RowNumber,
				InvoiceNo: inv.InvoiceNo,
				Field:     field,
				Reason:    "amount is negative",
			})
			continue
		}

		totalTax := inv.IGST.Add(inv.CGST).Add(inv.SGST).Add(inv.Cess)
		invoiceValue := inv.TaxableValue.Add(totalTax)

		if !inv.InvoiceValue.IsZero() {
			if diff := inv.InvoiceValue.Sub(invoiceValue).Abs(); diff.GreaterThan(tolerance) {
				excluded = append(excluded, InputError{
					RowNumber: inv.RowNumber,
					InvoiceNo: inv.InvoiceNo,
					Field:     "invoice_value",
					Reason: fmt.Sprintf("stated value %s disagrees with components %s by %s",
						inv.InvoiceValue.StringFixed(2), invoiceValue.StringFixed(2), diff.StringFixed(2)),
				})
				continue
			}
		}

		inv.TotalTax = totalTax
		inv.InvoiceValue = invoiceValue
		valid = append(valid, inv)
	}
	return valid, excluded
}

func negativeAmountField(inv *domain.Invoice) (string, bool) {
	checks := []struct {
		field string
		value decimal.Decimal
	}{
		{"taxable_value", inv.TaxableValue},
		{"igst", inv.IGST},
		{"cgst", inv.CGST},
		{"sgst", inv.SGST},
		{"cess", inv.Cess},
	}
	for _, c := range checks {
		if c.value.IsNegative() {
			return c.field, true
		}
	}
	return "", false
}
