package model

import "strings"

// NormalizeSymbol uppercases user input and appends the market suffix when missing.
func NormalizeSymbol(input, suffix string) string {
	s := strings.ToUpper(strings.TrimSpace(input))
	s = strings.TrimPrefix(s, "$")
	if s == "" {
		return ""
	}
	suffix = strings.ToUpper(suffix)
	if suffix != "" && !strings.HasSuffix(s, suffix) {
		s += suffix
	}
	return s
}
