package recon

import (
	"sort"

	"github.com/shopspring/decimal"

	"finrecon/internal/domain"
)

// Summarize reduces a run's match results into counts, the match rate, and
// the ITC summary. It is a pure fold with no side effects; an empty result
// set short-circuits to zero values rather than dividing by zero.
//
// The ITC identity holds exactly by construction:
// total_itc_available = itc_claimable + itc_at_risk.
func Summarize(results []domain.MatchResult) domain.RunSummary {
	s := domain.RunSummary{TotalRecords: len(results)}

	claimable := decimal.Zero
	atRisk := decimal.Zero

	for i := range results {
		r := &results[i]
		switch r.Status {
		case domain.StatusExactMatch:
			s.ExactMatch++
			claimable = claimable.Add(matchedTax(r))
		case domain.StatusAmountMismatch:
			s.AmountMismatch++
		case domain.StatusDateMismatch:
			s.DateMismatch++
		case domain.StatusGSTINMismatch:
			s.GSTINMismatch++
		case domain.StatusPROnly:
			s.PROnly++
		case domain.StatusGSTR2BOnly:
			s.GSTR2BOnly++
		}

		if r.Status != domain.StatusExactMatch {
			s.Discrepancies++
			atRisk = atRisk.Add(atRiskTax(r))
			if cls := r.Classification; cls != nil && pendingCategory(cls.Category) {
				s.PendingReview++
			}
		}
	}

	if s.TotalRecords > 0 {
		rate := decimal.NewFromInt(int64(s.ExactMatch)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(s.TotalRecords))).
			Round(1)
		s.MatchRate, _ = rate.Float64()
	}

	s.ITC = domain.ITCSummary{
		Claimable:      claimable,
		AtRisk:         atRisk,
		TotalAvailable: claimable.Add(atRisk),
	}
	return s
}

// matchedTax is the tax backing a clean match: the GSTR-2B side when
// present, else the PR side.
func matchedTax(r *domain.MatchResult) decimal.Decimal {
	if r.GSTR2BInvoice != nil {
		return r.GSTR2BInvoice.TotalTax
	}
	if r.PRInvoice != nil {
		return r.PRInvoice.TotalTax
	}
	return decimal.Zero
}

// atRiskTax is vendor-reported tax that did not match cleanly, plus the full
// tax of register-only claims with no GSTR-2B support.
func atRiskTax(r *domain.MatchResult) decimal.Decimal {
	if r.GSTR2BInvoice != nil {
		return r.GSTR2BInvoice.TotalTax
	}
	if r.Status == domain.StatusPROnly && r.PRInvoice != nil {
		return r.PRInvoice.TotalTax
	}
	return decimal.Zero
}

func pendingCategory(c domain.ClassificationCategory) bool {
	switch c {
	case domain.CategoryUnderReview, domain.CategoryPendingVendor, domain.CategoryDataEntryError:
		return true
	}
	return false
}

// GroupByVendor buckets a run's non-exact results by vendor GSTIN for
// follow-up notification, ordered by at-risk tax descending then GSTIN.
func GroupByVendor(results []domain.MatchResult) []domain.VendorGroup {
	byGSTIN := make(map[string]*domain.VendorGroup)
	var order []string

	for i := range results {
		r := &results[i]
		if r.Status == domain.StatusExactMatch {
			continue
		}
		gstin, name := r.Vendor()
		key := normalizeGSTIN(gstin)
		g, ok := byGSTIN[key]
		if !ok {
			g = &domain.VendorGroup{
				VendorGSTIN: key,
				VendorName:  name,
				AtRiskTax:   decimal.Zero,
			}
			byGSTIN[key] = g
			order = append(order, key)
		}
		if g.VendorName == "" {
			g.VendorName = name
		}
		g.Discrepancies++
		switch r.Status {
		case domain.StatusGSTR2BOnly:
			g.MissingInPR++
		case domain.StatusPROnly:
			g.MissingIn2B++
		}
		g.AtRiskTax = g.AtRiskTax.Add(atRiskTax(r))
		g.Results = append(g.Results, *r)
	}

	groups := make([]domain.VendorGroup, 0, len(order))
	for _, key := range order {
		groups = append(groups, *byGSTIN[key])
	}
	sort.Slice(groups, func(i, j int) bool {
		if cmp := groups[i].AtRiskTax.Cmp(groups[j].AtRiskTax); cmp != 0 {
			return cmp > 0
		}
		return groups[i].VendorGSTIN < groups[j].VendorGSTIN
	})
	return groups
}
