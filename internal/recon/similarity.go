package recon

import (
	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// unitCosts scores every edit operation at 1. The library default charges
// substitutions at 2, which would count a single typo as two edits.
var unitCosts = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: levenshtein.IdenticalRunes,
}

// distanceRatio returns the Levenshtein distance between the two strings
// divided by the length of the longer one, in [0,1]. 0 means identical.
func distanceRatio(a, b string) float64 {
	if a == b {
		return 0
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 0
	}
	d := levenshtein.DistanceForStrings([]rune(a), []rune(b), unitCosts)
	return float64(d) / float64(maxLen)
}

// stringSimilarity is 1 - distanceRatio, in [0,1].
func stringSimilarity(a, b string) float64 {
	return 1 - distanceRatio(a, b)
}
