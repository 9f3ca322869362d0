package diag

import "github.com/agext/levenshtein"

// Suggest returns the candidate closest to the given name, or "" when none
// is close enough to plausibly be a typo.
func Suggest(given string, candidates []string) string {
	for _, candidate := range candidates {
		if levenshtein.Distance(given, candidate, nil) < 3 {
			return candidate
		}
	}
	return ""
}
