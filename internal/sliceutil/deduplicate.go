// Package sliceutil provides generic slice helpers.
package sliceutil

import "strings"

// Deduplicate removes items whose key was already seen, preserving order.
// Only the first occurrence of each key is kept.
//
// Example:
//
//	unique := sliceutil.Deduplicate(candidates, func(c storage.BookCandidate) string { return c.ISBN })
func Deduplicate[T any, K comparable](items []T, keyFunc func(T) K) []T {
	if len(items) == 0 {
		return items
	}

	seen := make(map[K]struct{}, len(items))
	result := make([]T, 0, len(items))
	for _, item := range items {
		key := keyFunc(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, item)
	}
	return result
}

// NonBlank trims each string and drops the empty ones.
func NonBlank(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
