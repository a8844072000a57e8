package module

import "strings"

// fuzzyMatch returns registered names that contain pattern as a
// case-insensitive substring, adapted from the teacher's job-name fuzzy
// matcher (root fuzzy_match.go: findFuzzyMatches) onto module names instead
// of pipeline job names.
func fuzzyMatch(names []string, pattern string) []string {
	lower := strings.ToLower(pattern)
	var matches []string
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), lower) {
			matches = append(matches, n)
		}
	}
	return matches
}
