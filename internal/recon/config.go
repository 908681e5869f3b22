package recon

import (
	"fmt"

	"github.com/shopspring/decimal"

	"finrecon/internal/domain"
)

// Config holds the tunable thresholds of the matching cascade and the
// classifier. The defaults encode policy, not law: ₹1 absorbs rounding
// between ledgers, ₹10 separates rounding noise from data entry errors,
// and the fuzzy tier exists to catch vendor-side typos.
type Config struct {
	// AmountTolerance is the absolute INR tolerance within which taxable
	// value and total tax are considered equal.
	AmountTolerance decimal.Decimal

	// RoundingThreshold is the absolute INR total-diff magnitude up to
	// which an amount mismatch is classified as recoverable.
	RoundingThreshold decimal.Decimal

	// FuzzyAmountTolerancePct is the fractional amount proximity required
	// for a fuzzy-tier pairing (0.02 = 2%).
	FuzzyAmountTolerancePct decimal.Decimal

	// FuzzyMaxDistanceRatio is the maximum Levenshtein distance relative
	// to invoice-number length for a fuzzy-tier candidate.
	FuzzyMaxDistanceRatio float64

	// FuzzyConfidenceCap bounds the confidence of a fuzzy pairing chosen
	// among equally-scored candidates, so downstream classification
	// treats the tie-broken choice conservatively.
	FuzzyConfidenceCap float64
}

// DefaultConfig returns the documented default thresholds.
func DefaultConfig() Config {
	return Config{
		AmountTolerance:         decimal.NewFromInt(1),
		RoundingThreshold:       decimal.NewFromInt(10),
		FuzzyAmountTolerancePct: decimal.NewFromFloat(0.02),
		FuzzyMaxDistanceRatio:   0.35,
		FuzzyConfidenceCap:      0.9,
	}
}

// Validate rejects invalid tolerance parameters before any matching begins.
func (c Config) Validate() error {
	if c.AmountTolerance.IsNegative() {
		return fmt.Errorf("%w: amount tolerance %s is negative", domain.ErrInvalidConfig, c.AmountTolerance)
	}
	if c.RoundingThreshold.IsNegative() {
		return fmt.Errorf("%w: rounding threshold %s is negative", domain.ErrInvalidConfig, c.RoundingThreshold)
	}
	if c.FuzzyAmountTolerancePct.IsNegative() {
		return fmt.Errorf("%w: fuzzy amount tolerance %s is negative", domain.ErrInvalidConfig, c.FuzzyAmountTolerancePct)
	}
	if c.FuzzyMaxDistanceRatio < 0 || c.FuzzyMaxDistanceRatio > 1 {
		return fmt.Errorf("%w: fuzzy distance ratio %.2f outside [0,1]", domain.ErrInvalidConfig, c.FuzzyMaxDistanceRatio)
	}
	if c.FuzzyConfidenceCap < 0 || c.FuzzyConfidenceCap > 1 {
		return fmt.Errorf("%w: fuzzy confidence cap %.2f outside [0,1]", domain.ErrInvalidConfig, c.FuzzyConfidenceCap)
	}
	return nil
}
