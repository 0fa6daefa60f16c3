package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// minFuzzyLength stops very short queries matching almost anything
const minFuzzyLength = 4

// FuzzyMatch performs fuzzy string matching using Levenshtein distance
// Returns the minimum edit distance between the shorter string and the best matching substring of the longer
func FuzzyMatch(str1, str2 string) int {
	str1 = strings.ToLower(strings.TrimSpace(str1))
	str2 = strings.ToLower(strings.TrimSpace(str2))

	shorter, longer := str1, str2
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	// slide the shorter string across the longer one
	minDistance := math.MaxInt32
	for i := 0; i <= len(longer)-len(shorter); i++ {
		distance := LevenshteinDistance(shorter, longer[i:i+len(shorter)])
		if distance < minDistance {
			minDistance = distance
		}
		if minDistance == 0 {
			break
		}
	}
	return minDistance
}

// LevenshteinDistance calculates the Levenshtein distance between two strings
func LevenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	// two rows of the full matrix are enough
	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(s2)]
}

// ClosestMatch returns the index of the one candidate within maxDistance of query.
// It fails when the query is too short, nothing is close enough, or the best distance is shared
func ClosestMatch(query string, candidates []string, maxDistance int) (int, bool) {
	if len(strings.TrimSpace(query)) < minFuzzyLength {
		return -1, false
	}
	best, bestDistance, tied := -1, math.MaxInt32, false
	for i, c := range candidates {
		d := FuzzyMatch(query, c)
		switch {
		case d < bestDistance:
			best, bestDistance, tied = i, d, false
		case d == bestDistance:
			tied = true
		}
	}
	if best < 0 || tied || bestDistance > maxDistance {
		return -1, false
	}
	return best, true
}

// GetAsString converts the scalar values JSON decoding produces to a string.
// Whole floats are written without a decimal point so team ids survive the trip
func GetAsString(s any) (string, error) {
	switch v := s.(type) {
	case nil:
		return "", fmt.Errorf("cannot convert nil to string")
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return "", fmt.Errorf("cannot convert type %T to string", s)
	}
}
