package repository

import "strings"

const cacheKeySep = "::"

// CacheKey builds the local cache key for a plan. An empty section yields
// the legacy unscoped key written before plans were section-scoped.
func CacheKey(userID, date, section string) string {
	parts := []string{"plan", userID, date}
	if section != "" {
		parts = append(parts, section)
	}
	return strings.Join(parts, cacheKeySep)
}

// CacheKeyCandidates lists the keys to try, most specific first. The
// legacy unscoped key stays readable so plans cached by older clients are
// still found; callers must check the decoded plan's section before use.
func CacheKeyCandidates(userID, date, section string) []string {
	if section == "" {
		return []string{CacheKey(userID, date, "")}
	}
	return []string{
		CacheKey(userID, date, section),
		CacheKey(userID, date, ""),
	}
}
