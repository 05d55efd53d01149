package storage

import "strings"

// splitNamespace tokenizes a namespace into lower-cased segments. Both "\" and "/"
// are accepted as separators so PHP-style and Go import-path namespaces compare alike.
func splitNamespace(ns string) []string {
	fields := strings.FieldsFunc(trimNamespace(ns), func(r rune) bool {
		return r == '\\' || r == '/'
	})
	for i, f := range fields {
		fields[i] = strings.ToLower(f)
	}
	return fields
}

func trimNamespace(ns string) string {
	return strings.Trim(ns, "\\/ \t\n\r")
}

func commonHead(a, b []string) int {
	n := min(len(a), len(b))
	for i := range n {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

// CommonPrefixLen returns the number of equal leading segments of a and b.
func CommonPrefixLen(a, b string) int {
	return commonHead(splitNamespace(a), splitNamespace(b))
}

// ClosestNamespace selects the candidate sharing the longest common prefix with target.
// Ties go to the candidate with the smallest distance, counted as the segments of both
// namespaces left over after the common prefix. The first candidate wins remaining ties.
func ClosestNamespace(target string, candidates []string) (string, bool) {
	t := splitNamespace(target)
	best := ""
	bestCommon, bestDist := -1, 0
	found := false

	for _, candidate := range candidates {
		c := splitNamespace(candidate)
		common := commonHead(t, c)
		dist := (len(t) - common) + (len(c) - common)

		if common > bestCommon || (common == bestCommon && dist < bestDist) {
			bestCommon = common
			bestDist = dist
			best = trimNamespace(candidate)
			found = true
		}
	}

	return best, found
}
