package backtest

import "strings"

// Backend identifiers.
const (
	Native  = "native"
	NextBar = "nextbar"
	Auto    = "auto"
)

// Priority is the order Select walks for an empty or "auto" preference.
var Priority = []string{Native, NextBar}

// Select picks a backend id from a preference and an availability map.
// An available preference wins. Empty or "auto" take the first available
// backend in Priority. Anything else resolves to Native. Select never fails
// and has no side effects.
func Select(preference string, available map[string]bool) string {
	pref := strings.ToLower(strings.TrimSpace(preference))
	if pref != "" && pref != Auto && available[pref] {
		return pref
	}
	if pref == "" || pref == Auto {
		for _, id := range Priority {
			if available[id] {
				return id
			}
		}
	}
	return Native
}
