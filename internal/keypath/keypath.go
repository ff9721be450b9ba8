// Package keypath provides helpers for colon-delimited configuration key paths.
package keypath

import "strings"

// Delimiter separates path segments within a flat configuration key.
const Delimiter = ":"

// Combine joins path parts with the delimiter, skipping empty parts.
func Combine(parts ...string) string {
	nonEmpty := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, Delimiter)
}

// SegmentCount returns the number of delimiter-separated segments in key.
// The empty key has zero segments.
func SegmentCount(key string) int {
	if key == "" {
		return 0
	}
	return strings.Count(key, Delimiter) + 1
}

// Fold returns the case-insensitive identity of a key. Two keys are the
// same flat key exactly when their folds are equal.
func Fold(key string) string {
	return strings.ToLower(key)
}

// PrefixSegments returns the substring of key spanning its first n segments.
// It returns ok=false when key has fewer than n segments or n < 1.
func PrefixSegments(key string, n int) (prefix string, ok bool) {
	if n < 1 || key == "" {
		return "", false
	}
	idx := 0
	for i := 1; i < n; i++ {
		next := strings.Index(key[idx:], Delimiter)
		if next < 0 {
			return "", false
		}
		idx += next + len(Delimiter)
	}
	if rest := strings.Index(key[idx:], Delimiter); rest >= 0 {
		return key[:idx+rest], true
	}
	return key, true
}

// HasPrefix reports whether key starts with prefix under case-insensitive
// comparison.
func HasPrefix(key, prefix string) bool {
	return strings.HasPrefix(Fold(key), Fold(prefix))
}
