package ui

import (
	"sort"
	"strings"
)

const (
	// maxDistance is the largest edit distance still offered as a
	// suggestion.
	maxDistance = 3
	// maxSuggestions caps how many names are offered.
	maxSuggestions = 3
)

// Suggest returns the candidate names closest to target, for "did you
// mean" hints when a group, variable, or type lookup fails. Matching is
// case-insensitive; candidates further than a small edit distance are
// dropped.
func Suggest(target string, candidates []string) []string {
	type scored struct {
		value    string
		distance int
	}
	var matches []scored
	lowered := strings.ToLower(target)
	for _, candidate := range candidates {
		dist := editDistance(lowered, strings.ToLower(candidate))
		if dist <= maxDistance {
			matches = append(matches, scored{candidate, dist})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})
	if len(matches) > maxSuggestions {
		matches = matches[:maxSuggestions]
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.value
	}
	return out
}

// editDistance is the Levenshtein distance between two strings.
func editDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(s2)]
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
