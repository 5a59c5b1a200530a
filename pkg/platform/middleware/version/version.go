// Package version provides middleware for API version extraction.
package version

import (
	"net/http"

	id "clientele/pkg/domain"
	"clientele/pkg/requestcontext"
)

// HeaderAPIVersion echoes the version that served the request.
const HeaderAPIVersion = "X-API-Version"

// ExtractVersion creates middleware that records the API version of a Chi
// subrouter. When using r.Route("/api/v1", ...), the version is already
// determined by the route match.
//
// Usage:
//
//	r.Route(id.APIVersionV1.BasePath(), func(v1 chi.Router) {
//	    v1.Use(version.ExtractVersion(id.APIVersionV1))
//	    // ... routes
//	})
func ExtractVersion(version id.APIVersion) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(HeaderAPIVersion, version.String())
			ctx := requestcontext.WithAPIVersion(r.Context(), version)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
