package metadata

import (
	"net"
	"net/http"
	"strings"

	"clientele/pkg/platform/middleware/device"
	"clientele/pkg/requestcontext"
)

// ClientMetadata extracts client IP address, User-Agent and a device name
// from the request and adds them to the context for handlers and services.
// Proxy headers are honored only when trustProxy is set.
// This middleware should be applied early in the chain.
func ClientMetadata(trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ua := r.Header.Get("User-Agent")
			ctx := requestcontext.WithClientMetadata(r.Context(),
				ClientIPFromRequest(r, trustProxy), ua, device.ParseUserAgent(ua))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIPFromRequest extracts the client IP, consulting X-Forwarded-For and
// X-Real-IP first when trustProxy is set.
func ClientIPFromRequest(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			// X-Forwarded-For can contain multiple IPs (client, proxy1, proxy2, ...)
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}

	if r.RemoteAddr == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
