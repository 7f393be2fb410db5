package util

import "strings"

// SplitSymbols splits a comma separated list into upper-cased, de-duplicated symbols.
func SplitSymbols(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return NormalizeSymbols(strings.Split(s, ","))
}

// NormalizeSymbols trims, upper-cases and de-duplicates symbols, keeping first-seen order.
func NormalizeSymbols(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
