package recon_test

import (
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finrecon/internal/domain"
	"finrecon/internal/recon"
)

const testGSTIN = "27ABCDE1234F1Z5"

// newInvoice builds a validated invoice with derived totals already
// computed, the way ValidateInvoices leaves them.
func newInvoice(source domain.InvoiceSource, no, gstin, date string, taxable, igst, cgst, sgst float64) domain.Invoice {
	inv := domain.Invoice{
		ID:           uuid.New(),
		Source:       source,
		InvoiceNo:    no,
		VendorGSTIN:  gstin,
		VendorName:   "Acme Traders",
		TaxableValue: decimal.NewFromFloat(taxable),
		IGST:         decimal.NewFromFloat(igst),
		CGST:         decimal.NewFromFloat(cgst),
		SGST:         decimal.NewFromFloat(sgst),
		Cess:         decimal.Zero,
	}
	if date != "" {
		t, err := time.Parse("2006-01-02", date)
		if err != nil {
			panic(err)
		}
		inv.InvoiceDate = &t
	}
	inv.TotalTax = inv.IGST.Add(inv.CGST).Add(inv.SGST).Add(inv.Cess)
	inv.InvoiceValue = inv.TaxableValue.Add(inv.TotalTax)
	return inv
}

func prInvoice(no, gstin, date string, taxable, igst float64) domain.Invoice {
	return newInvoice(domain.SourcePurchaseRegister, no, gstin, date, taxable, igst, 0, 0)
}

func g2bInvoice(no, gstin, date string, taxable, igst float64) domain.Invoice {
	return newInvoice(domain.SourceGSTR2B, no, gstin, date, taxable, igst, 0, 0)
}

func newMatcher(t *testing.T) *recon.Matcher {
	t.Helper()
	m, err := recon.NewMatcher(recon.DefaultConfig())
	require.NoError(t, err)
	return m
}

func TestMatcher_ExactMatch(t *testing.T) {
	pr := []domain.Invoice{prInvoice("INV-001", testGSTIN, "2025-04-12", 1000.00, 180.00)}
	g2b := []domain.Invoice{g2bInvoice("INV-001", testGSTIN, "2025-04-12", 1000.00, 180.00)}

	results := newMatcher(t).Match(uuid.New(), pr, g2b)

	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, domain.StatusExactMatch, r.Status)
	assert.Equal(t, domain.RuleExactKey, r.MatchRule)
	assert.Equal(t, 1.0, r.ConfidenceScore)
	assert.True(t, r.TotalDiff.IsZero(), "total diff should be zero, got %s", r.TotalDiff)
	require.NotNil(t, r.PRInvoiceID)
	require.NotNil(t, r.GSTR2BInvoiceID)
	assert.Equal(t, pr[0].ID, *r.PRInvoiceID)
	assert.Equal(t, g2b[0].ID, *r.GSTR2BInvoiceID)
}

func TestMatcher_ExactMatch_WithinTolerance(t *testing.T) {
	// A ₹0.50 taxable drift stays inside the ₹1 tolerance.
	pr := []domain.Invoice{prInvoice("INV-002", testGSTIN, "2025-04-12", 1000.50, 180.00)}
	g2b := []domain.Invoice{g2bInvoice("INV-002", testGSTIN, "2025-04-12", 1000.00, 180.00)}

	results := newMatcher(t).Match(uuid.New(), pr, g2b)

	require.Len(t, results, 1)
	assert.Equal(t, domain.StatusExactMatch, results[0].Status)
	assert.Equal(t, domain.RuleExactKey, results[0].MatchRule)
}

func TestMatcher_NormalizedKey(t *testing.T) {
	// Same invoice recorded as "inv/042" and "INV 042" with leading
	// whitespace in the GSTIN still lands in one key group.
	pr := []domain.Invoice{prInvoice("inv/042", " "+testGSTIN, "2025-04-01", 500.00, 90.00)}
	g2b := []domain.Invoice{g2bInvoice("INV 042", " "+testGSTIN, "2025-04-01", 500.00, 90.00)}

	results := newMatcher(t).Match(uuid.New(), pr, g2b)

	require.Len(t, results, 1)
	assert.Equal(t, domain.StatusExactMatch, results[0].Status)
}

func TestMatcher_AmountMismatch(t *testing.T) {
	pr := []domain.Invoice{prInvoice("INV-003", testGSTIN, "2025-04-12", 1000.00, 180.00)}
	g2b := []domain.Invoice{g2bInvoice("INV-003", testGSTIN, "2025-04-12", 1050.00, 189.00)}

	results := newMatcher(t).Match(uuid.New(), pr, g2b)

	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, domain.StatusAmountMismatch, r.Status)
	assert.Equal(t, domain.RuleValueTolerant, r.MatchRule)
	assert.True(t, r.TotalDiff.Equal(decimal.NewFromFloat(-59.00)),
		"total diff should be -59.00, got %s", r.TotalDiff)
	assert.True(t, r.TaxableDiff.Equal(decimal.NewFromFloat(-50.00)))
	assert.InDelta(t, 0.941, r.ConfidenceScore, 0.001)
}

func TestMatcher_DateMismatch(t *testing.T) {
	pr := []domain.Invoice{prInvoice("INV-004", testGSTIN, "2025-04-12", 1000.00, 180.00)}
	g2b := []domain.Invoice{g2bInvoice("INV-004", testGSTIN, "2025-05-03", 1000.00, 180.00)}

	results := newMatcher(t).Match(uuid.New(), pr, g2b)

	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, domain.StatusDateMismatch, r.Status)
	assert.Equal(t, domain.RuleValueTolerant, r.MatchRule)
	assert.Equal(t, 0.85, r.ConfidenceScore)
	assert.True(t, r.TotalDiff.IsZero())
}

func TestMatcher_GSTINMismatch(t *testing.T) {
	// Lowercase recording in the register, amounts and dates identical.
	pr := []domain.Invoice{prInvoice("INV-005", "27abcde1234f1z5", "2025-04-12", 1000.00, 180.00)}
	g2b := []domain.Invoice{g2bInvoice("INV-005", testGSTIN, "2025-04-12", 1000.00, 180.00)}

	results := newMatcher(t).Match(uuid.New(), pr, g2b)

	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, domain.StatusGSTINMismatch, r.Status)
	assert.Equal(t, domain.RuleValueTolerant, r.MatchRule)
	assert.Equal(t, 0.7, r.ConfidenceScore)
}

func TestMatcher_FuzzyInvoiceNoTypo(t *testing.T) {
	// Vendor filed INV1OO (letter O) for the register's INV-100.
	pr := []domain.Invoice{prInvoice("INV-100", testGSTIN, "2025-04-12", 1000.00, 180.00)}
	g2b := []domain.Invoice{g2bInvoice("INV1OO", testGSTIN, "2025-04-12", 1000.00, 180.00)}

	results := newMatcher(t).Match(uuid.New(), pr, g2b)

	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, domain.RuleFuzzyInvoiceNo, r.MatchRule)
	assert.Equal(t, domain.StatusExactMatch, r.Status)
	assert.Less(t, r.ConfidenceScore, 1.0)
	assert.Greater(t, r.ConfidenceScore, 0.0)
}

func TestMatcher_FuzzyRespectsAmountTolerance(t *testing.T) {
	// Invoice numbers are one edit apart but the values differ by 10%,
	// far past the 2% fuzzy tolerance; both sides stay unmatched.
	pr := []domain.Invoice{prInvoice("INV-200", testGSTIN, "2025-04-12", 1000.00, 180.00)}
	g2b := []domain.Invoice{g2bInvoice("INV-201", testGSTIN, "2025-04-12", 1100.00, 198.00)}

	results := newMatcher(t).Match(uuid.New(), pr, g2b)

	require.Len(t, results, 2)
	statuses := []domain.MatchStatus{results[0].Status, results[1].Status}
	assert.Contains(t, statuses, domain.StatusPROnly)
	assert.Contains(t, statuses, domain.StatusGSTR2BOnly)
}

func TestMatcher_PROnly(t *testing.T) {
	pr := []domain.Invoice{prInvoice("INV-300", testGSTIN, "2025-04-12", 1000.00, 180.00)}

	results := newMatcher(t).Match(uuid.New(), pr, nil)

	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, domain.StatusPROnly, r.Status)
	assert.Equal(t, domain.RuleUnmatched, r.MatchRule)
	assert.Equal(t, 0.0, r.ConfidenceScore)
	assert.Nil(t, r.GSTR2BInvoiceID)
	assert.True(t, r.TotalDiff.Equal(decimal.NewFromFloat(1180.00)),
		"pr_only total diff carries the full invoice value, got %s", r.TotalDiff)
}

func TestMatcher_GSTR2BOnly(t *testing.T) {
	g2b := []domain.Invoice{g2bInvoice("INV-301", testGSTIN, "2025-04-12", 1000.00, 180.00)}

	results := newMatcher(t).Match(uuid.New(), nil, g2b)

	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, domain.StatusGSTR2BOnly, r.Status)
	assert.Nil(t, r.PRInvoiceID)
	assert.True(t, r.TotalDiff.Equal(decimal.NewFromFloat(-1180.00)),
		"gstr2b_only total diff is negative, got %s", r.TotalDiff)
}

func TestMatcher_EmptyGSTR2B(t *testing.T) {
	pr := []domain.Invoice{
		prInvoice("INV-400", testGSTIN, "2025-04-01", 100.00, 18.00),
		prInvoice("INV-401", testGSTIN, "2025-04-02", 200.00, 36.00),
		prInvoice("INV-402", "29XYZAB5678C1Z3", "2025-04-03", 300.00, 54.00),
	}

	results := newMatcher(t).Match(uuid.New(), pr, nil)

	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, domain.StatusPROnly, r.Status)
	}
}

func TestMatcher_MissingGSTINFallsToLeftover(t *testing.T) {
	// A register row with no GSTIN has no complete key and no vendor
	// group; it cannot reach any pairing tier.
	pr := []domain.Invoice{prInvoice("INV-500", "", "2025-04-12", 1000.00, 180.00)}
	g2b := []domain.Invoice{g2bInvoice("INV-500", testGSTIN, "2025-04-12", 1000.00, 180.00)}

	results := newMatcher(t).Match(uuid.New(), pr, g2b)

	require.Len(t, results, 2)
	statuses := []domain.MatchStatus{results[0].Status, results[1].Status}
	assert.Contains(t, statuses, domain.StatusPROnly)
	assert.Contains(t, statuses, domain.StatusGSTR2BOnly)
}

func TestMatcher_GreedyMinimumCostAssignment(t *testing.T) {
	// Two GSTR-2B rows share the register row's key; the closer value wins.
	pr := []domain.Invoice{prInvoice("INV-600", testGSTIN, "2025-04-12", 1000.00, 180.00)}
	near := g2bInvoice("INV-600", testGSTIN, "2025-04-12", 1005.00, 180.90)
	far := g2bInvoice("INV-600", testGSTIN, "2025-04-12", 1500.00, 270.00)
	g2b := []domain.Invoice{far, near}

	results := newMatcher(t).Match(uuid.New(), pr, g2b)

	require.Len(t, results, 2)
	var paired, leftover *domain.MatchResult
	for i := range results {
		if results[i].Status == domain.StatusGSTR2BOnly {
			leftover = &results[i]
		} else {
			paired = &results[i]
		}
	}
	require.NotNil(t, paired)
	require.NotNil(t, leftover)
	assert.Equal(t, near.ID, *paired.GSTR2BInvoiceID)
	assert.Equal(t, far.ID, *leftover.GSTR2BInvoiceID)
	assert.Equal(t, domain.StatusAmountMismatch, paired.Status)
}

func TestMatcher_DuplicateKeysPairDistinctRows(t *testing.T) {
	// Two identical register rows against two identical vendor rows must
	// consume each row exactly once.
	pr := []domain.Invoice{
		prInvoice("INV-700", testGSTIN, "2025-04-12", 1000.00, 180.00),
		prInvoice("INV-700", testGSTIN, "2025-04-12", 1000.00, 180.00),
	}
	g2b := []domain.Invoice{
		g2bInvoice("INV-700", testGSTIN, "2025-04-12", 1000.00, 180.00),
		g2bInvoice("INV-700", testGSTIN, "2025-04-12", 1000.00, 180.00),
	}

	results := newMatcher(t).Match(uuid.New(), pr, g2b)

	require.Len(t, results, 2)
	seenPR := map[uuid.UUID]bool{}
	seenG2B := map[uuid.UUID]bool{}
	for _, r := range results {
		assert.Equal(t, domain.StatusExactMatch, r.Status)
		require.NotNil(t, r.PRInvoiceID)
		require.NotNil(t, r.GSTR2BInvoiceID)
		assert.False(t, seenPR[*r.PRInvoiceID], "pr invoice consumed twice")
		assert.False(t, seenG2B[*r.GSTR2BInvoiceID], "gstr2b invoice consumed twice")
		seenPR[*r.PRInvoiceID] = true
		seenG2B[*r.GSTR2BInvoiceID] = true
	}
}

func mixedFixture() (pr, g2b []domain.Invoice) {
	otherGSTIN := "29XYZAB5678C1Z3"
	pr = []domain.Invoice{
		prInvoice("INV-801", testGSTIN, "2025-04-01", 1000.00, 180.00),
		prInvoice("INV-802", testGSTIN, "2025-04-02", 2000.00, 360.00),
		prInvoice("INV-803", otherGSTIN, "2025-04-03", 3000.00, 540.00),
		prInvoice("INV-8O4", otherGSTIN, "2025-04-04", 400.00, 72.00),
		prInvoice("INV-805", testGSTIN, "2025-04-05", 500.00, 90.00),
	}
	g2b = []domain.Invoice{
		g2bInvoice("INV-801", testGSTIN, "2025-04-01", 1000.00, 180.00),
		g2bInvoice("INV-802", testGSTIN, "2025-04-09", 2000.00, 360.00),
		g2bInvoice("INV-803", otherGSTIN, "2025-04-03", 3100.00, 558.00),
		g2bInvoice("INV-804", otherGSTIN, "2025-04-04", 400.00, 72.00),
		g2bInvoice("INV-899", testGSTIN, "2025-04-20", 700.00, 126.00),
	}
	return pr, g2b
}

func TestMatcher_PartitionInvariant(t *testing.T) {
	pr, g2b := mixedFixture()

	results := newMatcher(t).Match(uuid.New(), pr, g2b)

	prSeen := map[uuid.UUID]int{}
	g2bSeen := map[uuid.UUID]int{}
	for _, r := range results {
		if r.PRInvoiceID != nil {
			prSeen[*r.PRInvoiceID]++
		}
		if r.GSTR2BInvoiceID != nil {
			g2bSeen[*r.GSTR2BInvoiceID]++
		}
		assert.False(t, r.PRInvoiceID == nil && r.GSTR2BInvoiceID == nil,
			"result references no invoice at all")
	}
	require.Len(t, prSeen, len(pr))
	require.Len(t, g2bSeen, len(g2b))
	for _, inv := range pr {
		assert.Equal(t, 1, prSeen[inv.ID], "pr invoice %s", inv.InvoiceNo)
	}
	for _, inv := range g2b {
		assert.Equal(t, 1, g2bSeen[inv.ID], "gstr2b invoice %s", inv.InvoiceNo)
	}
}

// resultTriples flattens a partition into a sorted, order-independent form.
func resultTriples(results []domain.MatchResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		prID, g2bID := "-", "-"
		if r.PRInvoiceID != nil {
			prID = r.PRInvoiceID.String()
		}
		if r.GSTR2BInvoiceID != nil {
			g2bID = r.GSTR2BInvoiceID.String()
		}
		out = append(out, fmt.Sprintf("%s|%s|%s", r.Status, prID, g2bID))
	}
	sort.Strings(out)
	return out
}

func TestMatcher_DeterministicAcrossInputOrder(t *testing.T) {
	pr, g2b := mixedFixture()
	m := newMatcher(t)
	runID := uuid.New()

	first := m.Match(runID, pr, g2b)

	reversed := func(in []domain.Invoice) []domain.Invoice {
		out := make([]domain.Invoice, len(in))
		for i, inv := range in {
			out[len(in)-1-i] = inv
		}
		return out
	}
	second := m.Match(runID, reversed(pr), reversed(g2b))

	assert.Equal(t, resultTriples(first), resultTriples(second))
}

func TestMatcher_Idempotent(t *testing.T) {
	pr, g2b := mixedFixture()
	m := newMatcher(t)
	runID := uuid.New()

	first := m.Match(runID, pr, g2b)
	second := m.Match(runID, pr, g2b)

	assert.Equal(t, resultTriples(first), resultTriples(second))
}

func TestMatcher_InputSlicesNotMutated(t *testing.T) {
	pr, g2b := mixedFixture()
	prOrder := make([]uuid.UUID, len(pr))
	for i, inv := range pr {
		prOrder[i] = inv.ID
	}

	newMatcher(t).Match(uuid.New(), pr, g2b)

	for i, inv := range pr {
		assert.Equal(t, prOrder[i], inv.ID, "caller's slice was reordered")
	}
}

func TestNewMatcher_RejectsInvalidConfig(t *testing.T) {
	cfg := recon.DefaultConfig()
	cfg.AmountTolerance = decimal.NewFromInt(-1)

	m, err := recon.NewMatcher(cfg)

	assert.Nil(t, m)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}
