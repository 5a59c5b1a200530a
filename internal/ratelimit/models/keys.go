package models

import "strings"

const keyPrefix = "clientele:ratelimit"

// SanitizeKeySegment escapes delimiter characters in rate limit key segments
// so an identifier containing ':' cannot address a neighbouring bucket.
//
// Example: an IPv6 address "::1" becomes "__1".
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// NewIPRateLimitKey builds the bucket key for a client IP on a route group.
func NewIPRateLimitKey(ip, group string) string {
	return keyPrefix + ":ip:" + SanitizeKeySegment(group) + ":" + SanitizeKeySegment(ip)
}
