package recon

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finrecon/internal/domain"
)

// Matcher pairs Purchase Register invoices against GSTR-2B invoices using a
// tiered greedy cascade. The output is a complete partition: every invoice
// on both sides appears in exactly one MatchResult, and the same two input
// sets always yield the same partition regardless of input ordering.
type Matcher struct {
	cfg Config
}

// NewMatcher validates the configuration and returns a Matcher. Invalid
// tolerances are rejected here, before any matching begins.
func NewMatcher(cfg Config) (*Matcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Matcher{cfg: cfg}, nil
}

// candidate is an invoice plus its precomputed normalized key.
type candidate struct {
	inv *domain.Invoice
	key matchKey
}

// pool is the Matcher's private bookkeeping of invoices not yet consumed by
// an earlier tier. It is owned by a single Match invocation and never shared.
type pool struct {
	pr     []candidate
	gstr2b []candidate
	taken  map[uuid.UUID]bool
}

func newPool(pr, gstr2b []domain.Invoice) *pool {
	p := &pool{taken: make(map[uuid.UUID]bool, len(pr)+len(gstr2b))}
	p.pr = toCandidates(pr)
	p.gstr2b = toCandidates(gstr2b)
	return p
}

func toCandidates(invoices []domain.Invoice) []candidate {
	// Copy so pointers into the slice stay valid and the caller's slice is
	// never reordered.
	owned := make([]domain.Invoice, len(invoices))
	copy(owned, invoices)

	cands := make([]candidate, len(owned))
	for i := range owned {
		cands[i] = candidate{
			inv: &owned[i],
			key: keyOf(owned[i].VendorGSTIN, owned[i].InvoiceNo),
		}
	}
	// Stable composite ordering makes every greedy selection deterministic.
	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.key.GSTIN != b.key.GSTIN {
			return a.key.GSTIN < b.key.GSTIN
		}
		if a.key.InvoiceNo != b.key.InvoiceNo {
			return a.key.InvoiceNo < b.key.InvoiceNo
		}
		return a.inv.ID.String() < b.inv.ID.String()
	})
	return cands
}

func (p *pool) claim(ids ...uuid.UUID) {
	for _, id := range ids {
		p.taken[id] = true
	}
}

func (p *pool) remaining(side []candidate) []candidate {
	out := make([]candidate, 0, len(side))
	for _, c := range side {
		if !p.taken[c.inv.ID] {
			out = append(out, c)
		}
	}
	return out
}

// Match runs the full cascade and returns the partition. Malformed
// individual invoices (missing GSTIN or number) are not errors; they simply
// have fewer eligible tiers and fall through to the leftover tier.
func (m *Matcher) Match(runID uuid.UUID, pr, gstr2b []domain.Invoice) []domain.MatchResult {
	p := newPool(pr, gstr2b)

	results := m.exactKeyTier(runID, p)
	results = append(results, m.valueTolerantTier(runID, p)...)
	results = append(results, m.fuzzyTier(runID, p)...)
	results = append(results, m.leftoverTier(runID, p)...)
	return results
}

// exactKeyTier pairs invoices sharing a normalized key whose amounts agree
// within the absolute tolerance, whose dates agree (or are absent), and
// whose GSTIN is recorded identically on both sides.
func (m *Matcher) exactKeyTier(runID uuid.UUID, p *pool) []domain.MatchResult {
	var results []domain.MatchResult
	for _, g := range groupByKey(p) {
		pairs := m.eligiblePairs(g, func(pr, g2b *domain.Invoice) bool {
			return m.amountsWithinTolerance(pr, g2b) &&
				datesAgree(pr, g2b) &&
				pr.VendorGSTIN == g2b.VendorGSTIN
		})
		for _, pair := range greedyAssign(p, pairs) {
			results = append(results, m.newPairResult(
				runID, pair.pr, pair.gstr2b, domain.StatusExactMatch, 1.0, domain.RuleExactKey))
		}
	}
	return results
}

// valueTolerantTier pairs the remaining invoices of each key group even when
// amounts differ beyond the exact tolerance. The status reports which field
// actually differs.
func (m *Matcher) valueTolerantTier(runID uuid.UUID, p *pool) []domain.MatchResult {
	var results []domain.MatchResult
	for _, g := range groupByKey(p) {
		pairs := m.eligiblePairs(g, func(_, _ *domain.Invoice) bool { return true })
		for _, pair := range greedyAssign(p, pairs) {
			status := m.pairStatus(pair.pr, pair.gstr2b)
			conf := m.pairConfidence(status, pair.pr, pair.gstr2b)
			results = append(results, m.newPairResult(
				runID, pair.pr, pair.gstr2b, status, conf, domain.RuleValueTolerant))
		}
	}
	return results
}

// fuzzyTier pairs invoices of the same vendor whose invoice numbers are
// close by edit distance and whose values are within the percentage
// tolerance. It exists to catch vendor-side typos.
func (m *Matcher) fuzzyTier(runID uuid.UUID, p *pool) []domain.MatchResult {
	var results []domain.MatchResult
	for _, g := range groupByGSTIN(p) {
		pairs := m.fuzzyPairs(g)
		assigned := greedyAssign(p, pairs)
		for _, pair := range assigned {
			status := m.pairStatus(pair.pr, pair.gstr2b)
			conf := pair.score
			if pair.ambiguous && conf > m.cfg.FuzzyConfidenceCap {
				conf = m.cfg.FuzzyConfidenceCap
			}
			results = append(results, m.newPairResult(
				runID, pair.pr, pair.gstr2b, status, conf, domain.RuleFuzzyInvoiceNo))
		}
	}
	return results
}

// leftoverTier turns everything still unmatched into one-sided results.
func (m *Matcher) leftoverTier(runID uuid.UUID, p *pool) []domain.MatchResult {
	var results []domain.MatchResult
	for _, c := range p.remaining(p.pr) {
		results = append(results, m.newPROnlyResult(runID, c.inv))
	}
	for _, c := range p.remaining(p.gstr2b) {
		results = append(results, m.newGSTR2BOnlyResult(runID, c.inv))
	}
	return results
}

// keyGroup holds both sides of one normalized key (or one GSTIN for the
// fuzzy tier), already in deterministic order.
type keyGroup struct {
	pr     []candidate
	gstr2b []candidate
}

func groupByKey(p *pool) []keyGroup {
	return buildGroups(p, func(c candidate) (matchKey, bool) {
		return c.key, c.key.complete()
	})
}

func groupByGSTIN(p *pool) []keyGroup {
	return buildGroups(p, func(c candidate) (matchKey, bool) {
		return matchKey{GSTIN: c.key.GSTIN}, c.key.complete()
	})
}

func buildGroups(p *pool, groupKey func(candidate) (matchKey, bool)) []keyGroup {
	groups := make(map[matchKey]*keyGroup)
	var order []matchKey
	add := func(c candidate, side func(*keyGroup) *[]candidate) {
		k, ok := groupKey(c)
		if !ok {
			return
		}
		g, exists := groups[k]
		if !exists {
			g = &keyGroup{}
			groups[k] = g
			order = append(order, k)
		}
		s := side(g)
		*s = append(*s, c)
	}
	for _, c := range p.remaining(p.pr) {
		add(c, func(g *keyGroup) *[]candidate { return &g.pr })
	}
	for _, c := range p.remaining(p.gstr2b) {
		add(c, func(g *keyGroup) *[]candidate { return &g.gstr2b })
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].GSTIN != order[j].GSTIN {
			return order[i].GSTIN < order[j].GSTIN
		}
		return order[i].InvoiceNo < order[j].InvoiceNo
	})

	out := make([]keyGroup, 0, len(order))
	for _, k := range order {
		g := groups[k]
		if len(g.pr) > 0 && len(g.gstr2b) > 0 {
			out = append(out, *g)
		}
	}
	return out
}

// scoredPair is a candidate pairing inside one group, ordered for the
// greedy minimum-cost assignment.
type scoredPair struct {
	pr, gstr2b *domain.Invoice
	absDiff    decimal.Decimal
	score      float64
	ambiguous  bool
	prIdx      int
	g2bIdx     int
}

// eligiblePairs builds every cross pairing of a group that passes the
// eligibility predicate, sorted by ascending absolute value difference and
// then by input order for determinism.
func (m *Matcher) eligiblePairs(g keyGroup, eligible func(pr, g2b *domain.Invoice) bool) []scoredPair {
	var pairs []scoredPair
	for i, pc := range g.pr {
		for j, gc := range g.gstr2b {
			if !eligible(pc.inv, gc.inv) {
				continue
			}
			pairs = append(pairs, scoredPair{
				pr:      pc.inv,
				gstr2b:  gc.inv,
				absDiff: pc.inv.InvoiceValue.Sub(gc.inv.InvoiceValue).Abs(),
				prIdx:   i,
				g2bIdx:  j,
			})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if cmp := pairs[i].absDiff.Cmp(pairs[j].absDiff); cmp != 0 {
			return cmp < 0
		}
		if pairs[i].prIdx != pairs[j].prIdx {
			return pairs[i].prIdx < pairs[j].prIdx
		}
		return pairs[i].g2bIdx < pairs[j].g2bIdx
	})
	return pairs
}

// fuzzyPairs scores candidate pairings within one vendor group by a blend
// of invoice-number similarity and amount closeness. Pairs over the edit
// distance or amount tolerance are dropped; a pairing whose score is shared
// by another candidate for the same PR invoice is flagged ambiguous.
func (m *Matcher) fuzzyPairs(g keyGroup) []scoredPair {
	var pairs []scoredPair
	for i, pc := range g.pr {
		for j, gc := range g.gstr2b {
			sim := stringSimilarity(pc.key.InvoiceNo, gc.key.InvoiceNo)
			if 1-sim > m.cfg.FuzzyMaxDistanceRatio {
				continue
			}
			closeness, ok := m.amountCloseness(pc.inv, gc.inv)
			if !ok {
				continue
			}
			pairs = append(pairs, scoredPair{
				pr:      pc.inv,
				gstr2b:  gc.inv,
				absDiff: pc.inv.InvoiceValue.Sub(gc.inv.InvoiceValue).Abs(),
				score:   0.6*sim + 0.4*closeness,
				prIdx:   i,
				g2bIdx:  j,
			})
		}
	}

	// Equal scores for the same PR invoice mean the tie-break decides; the
	// chosen pairing is marked so its confidence gets capped.
	for i := range pairs {
		for j := range pairs {
			if i != j && pairs[i].prIdx == pairs[j].prIdx && pairs[i].score == pairs[j].score {
				pairs[i].ambiguous = true
			}
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].score != pairs[j].score {
			return pairs[i].score > pairs[j].score
		}
		if pairs[i].prIdx != pairs[j].prIdx {
			return pairs[i].prIdx < pairs[j].prIdx
		}
		return pairs[i].g2bIdx < pairs[j].g2bIdx
	})
	return pairs
}

// amountCloseness reports how close the two invoice values are as a [0,1]
// fraction, and whether they fall within the fuzzy percentage tolerance.
func (m *Matcher) amountCloseness(pr, g2b *domain.Invoice) (float64, bool) {
	diff := pr.InvoiceValue.Sub(g2b.InvoiceValue).Abs()
	base := pr.InvoiceValue.Abs()
	if g2b.InvoiceValue.Abs().GreaterThan(base) {
		base = g2b.InvoiceValue.Abs()
	}
	if base.IsZero() {
		return 1, diff.IsZero()
	}
	frac := diff.Div(base)
	if frac.GreaterThan(m.cfg.FuzzyAmountTolerancePct) {
		return 0, false
	}
	f, _ := frac.Float64()
	return 1 - f, true
}

// greedyAssign consumes sorted pairs best-first, skipping any pair whose
// invoice was already claimed. No invoice is consumed twice.
func greedyAssign(p *pool, pairs []scoredPair) []scoredPair {
	var chosen []scoredPair
	for _, pair := range pairs {
		if p.taken[pair.pr.ID] || p.taken[pair.gstr2b.ID] {
			continue
		}
		p.claim(pair.pr.ID, pair.gstr2b.ID)
		chosen = append(chosen, pair)
	}
	return chosen
}

// pairStatus reports which field of a matched pair actually differs,
// checked in taxonomy order: GSTIN recording drift, then dates, then amounts.
func (m *Matcher) pairStatus(pr, g2b *domain.Invoice) domain.MatchStatus {
	amountsOK := m.amountsWithinTolerance(pr, g2b)
	switch {
	case amountsOK && pr.VendorGSTIN != g2b.VendorGSTIN:
		return domain.StatusGSTINMismatch
	case amountsOK && !datesAgree(pr, g2b):
		return domain.StatusDateMismatch
	case !amountsOK:
		return domain.StatusAmountMismatch
	default:
		return domain.StatusExactMatch
	}
}

// pairConfidence scores a value-tolerant pairing. Amount mismatches scale
// inversely with the normalized magnitude of the difference.
func (m *Matcher) pairConfidence(status domain.MatchStatus, pr, g2b *domain.Invoice) float64 {
	switch status {
	case domain.StatusGSTINMismatch:
		return 0.7
	case domain.StatusDateMismatch:
		return 0.85
	case domain.StatusAmountMismatch:
		base := pr.TaxableValue
		if !base.IsPositive() {
			base = g2b.TaxableValue
		}
		if !base.IsPositive() {
			return 0
		}
		frac, _ := pr.InvoiceValue.Sub(g2b.InvoiceValue).Abs().Div(base).Float64()
		if frac >= 1 {
			return 0
		}
		return 1 - frac
	default:
		return 1
	}
}

func (m *Matcher) amountsWithinTolerance(pr, g2b *domain.Invoice) bool {
	return pr.TaxableValue.Sub(g2b.TaxableValue).Abs().LessThanOrEqual(m.cfg.AmountTolerance) &&
		pr.TotalTax.Sub(g2b.TotalTax).Abs().LessThanOrEqual(m.cfg.AmountTolerance)
}

// datesAgree treats a missing date on either side as agreement; absent
// invoices cannot participate in date-tolerant matching.
func datesAgree(pr, g2b *domain.Invoice) bool {
	if pr.InvoiceDate == nil || g2b.InvoiceDate == nil {
		return true
	}
	ay, am, ad := pr.InvoiceDate.Date()
	by, bm, bd := g2b.InvoiceDate.Date()
	return ay == by && am == bm && ad == bd
}

func (m *Matcher) newPairResult(runID uuid.UUID, pr, g2b *domain.Invoice, status domain.MatchStatus, confidence float64, rule domain.MatchRule) domain.MatchResult {
	prID, g2bID := pr.ID, g2b.ID
	return domain.MatchResult{
		ID:              uuid.New(),
		RunID:           runID,
		PRInvoiceID:     &prID,
		GSTR2BInvoiceID: &g2bID,
		Status:          status,
		ConfidenceScore: confidence,
		MatchRule:       rule,
		TaxableDiff:     pr.TaxableValue.Sub(g2b.TaxableValue),
		IGSTDiff:        pr.IGST.Sub(g2b.IGST),
		CGSTDiff:        pr.CGST.Sub(g2b.CGST),
		SGSTDiff:        pr.SGST.Sub(g2b.SGST),
		TotalDiff:       pr.InvoiceValue.Sub(g2b.InvoiceValue),
		PRInvoice:       pr,
		GSTR2BInvoice:   g2b,
	}
}

func (m *Matcher) newPROnlyResult(runID uuid.UUID, pr *domain.Invoice) domain.MatchResult {
	prID := pr.ID
	return domain.MatchResult{
		ID:          uuid.New(),
		RunID:       runID,
		PRInvoiceID: &prID,
		Status:      domain.StatusPROnly,
		MatchRule:   domain.RuleUnmatched,
		TotalDiff:   pr.InvoiceValue,
		PRInvoice:   pr,
	}
}

func (m *Matcher) newGSTR2BOnlyResult(runID uuid.UUID, g2b *domain.Invoice) domain.MatchResult {
	g2bID := g2b.ID
	return domain.MatchResult{
		ID:              uuid.New(),
		RunID:           runID,
		GSTR2BInvoiceID: &g2bID,
		Status:          domain.StatusGSTR2BOnly,
		MatchRule:       domain.RuleUnmatched,
		TotalDiff:       g2b.InvoiceValue.Neg(),
		GSTR2BInvoice:   g2b,
	}
}
