package landsat

import (
	"slices"
	"strings"
)

// SortNatural sorts names in "human" order: digit runs compare as numbers and
// everything else compares lexically, so B2 sorts before B10.
func SortNatural(names []string) {
	slices.SortStableFunc(names, naturalCompare)
}

// NaturalLess reports whether a sorts before b in natural order
func NaturalLess(a, b string) bool {
	return naturalCompare(a, b) < 0
}

func naturalCompare(a, b string) int {
	ca, cb := splitRuns(a), splitRuns(b)
	for i := 0; i < len(ca) && i < len(cb); i++ {
		x, y := ca[i], cb[i]

		var c int
		if isDigits(x) && isDigits(y) {
			c = compareNumeric(x, y)
		} else {
			c = strings.Compare(x, y)
		}
		if c != 0 {
			return c
		}
	}
	return len(ca) - len(cb)
}

// splitRuns splits s into alternating non-digit and digit runs
func splitRuns(s string) []string {
	var runs []string
	start := 0
	for i := 1; i < len(s); i++ {
		if isDigit(s[i-1]) != isDigit(s[i]) {
			runs = append(runs, s[start:i])
			start = i
		}
	}
	if start < len(s) {
		runs = append(runs, s[start:])
	}
	return runs
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

// compareNumeric compares two digit runs by value without parsing, so runs
// longer than an int64 still compare correctly
func compareNumeric(x, y string) int {
	x = strings.TrimLeft(x, "0")
	y = strings.TrimLeft(y, "0")
	if len(x) != len(y) {
		return len(x) - len(y)
	}
	return strings.Compare(x, y)
}
