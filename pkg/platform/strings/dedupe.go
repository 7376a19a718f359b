// Package strings normalizes caller-supplied string lists such as document
// references and comma separated query values.
package strings

import (
	"strings"
)

// DedupeAndTrim trims each element and drops blanks and repeats, keeping
// first-seen order. Document references keep their case.
func DedupeAndTrim(values []string) []string {
	return dedupe(values, strings.TrimSpace)
}

// SplitLower splits comma separated values such as "Submitted, paid" into
// lowercased, trimmed, de-duplicated parts. Repeated query keys are passed
// as separate values.
func SplitLower(values ...string) []string {
	var parts []string
	for _, v := range values {
		parts = append(parts, strings.Split(v, ",")...)
	}
	out := dedupe(parts, func(s string) string {
		return strings.ToLower(strings.TrimSpace(s))
	})
	if len(out) == 0 {
		return nil
	}
	return out
}

func dedupe(values []string, norm func(string) string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		n := norm(v)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		result = append(result, n)
	}
	return result
}
