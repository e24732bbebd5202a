package targets

import "github.com/agext/levenshtein"

// Distance is the Levenshtein edit distance between a and b over runes, with
// unit cost for insertion, deletion and substitution.
func Distance(a, b string) int {
	return levenshtein.Distance(a, b, nil)
}
