// Package stringutil provides string helpers shared by the command and
// book search packages.
package stringutil

import "strings"

// IsNumeric checks if a string contains only ASCII digits.
// Returns false for empty strings.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// NormalizeISBN strips the hyphens and spaces people type inside an ISBN.
// A trailing lowercase x check digit is uppercased.
func NormalizeISBN(s string) string {
	s = strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(s))
	if strings.HasSuffix(s, "x") {
		s = s[:len(s)-1] + "X"
	}
	return s
}

// IsISBN reports whether s, after NormalizeISBN, has the shape of an
// ISBN-13 or an ISBN-10. Check digits are not verified.
func IsISBN(s string) bool {
	s = NormalizeISBN(s)
	switch len(s) {
	case 13:
		return IsNumeric(s)
	case 10:
		return IsNumeric(s[:9]) && (s[9] == 'X' || IsNumeric(s[9:]))
	}
	return false
}

// Ellipsis keeps the first n runes of s and appends "..." when anything
// was cut.
func Ellipsis(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// Fit shortens s so the result, including a trailing "...", is at most
// limit runes. Discord rejects embed fields over their limit.
func Fit(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit <= 3 {
		return string(r[:limit])
	}
	return string(r[:limit-3]) + "..."
}
