// Package strings holds helpers for parsing delimited settings.
package strings

import "strings"

// SplitList breaks a delimited setting such as "a, b,,a" into its distinct
// non-blank items in first-seen order. A blank input yields nil so callers
// can fall back to a default.
func SplitList(raw, sep string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var items []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, sep) {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		items = append(items, item)
	}
	return items
}
