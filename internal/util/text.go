package util

import "strings"

// SanitizePostgresText drops invalid UTF-8 and NUL bytes, which postgres
// text columns reject.
func SanitizePostgresText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}

// TruncateRunes returns the first n runes of value.
func TruncateRunes(value string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range value {
		if count == n {
			return value[:i]
		}
		count++
	}
	return value
}
