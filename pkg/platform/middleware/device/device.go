// Package device turns a User-Agent header into a short display name such as
// "Chrome on macOS", recorded with audit events.
package device

import (
	"strings"

	"github.com/mssola/useragent"
)

const unknownDevice = "Unknown Device"

// ParseUserAgent returns "<browser> on <platform>" for ua.
func ParseUserAgent(ua string) string {
	ua = strings.TrimSpace(ua)
	if ua == "" {
		return unknownDevice
	}

	parsed := useragent.New(ua)
	browser, _ := parsed.Browser()
	if browser == "" {
		browser = "Unknown Browser"
	}

	platform := parsed.OS()
	if platform == "" {
		platform = parsed.Platform()
	}
	if strings.Contains(ua, "iPhone") {
		platform = "iPhone"
	} else if strings.Contains(ua, "iPad") {
		platform = "iPad"
	}
	if platform == "" {
		platform = "Unknown OS"
	}

	return strings.TrimSpace(browser + " on " + platform)
}
