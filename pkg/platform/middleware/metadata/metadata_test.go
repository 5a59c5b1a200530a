package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"clientele/pkg/requestcontext"
)

func TestClientIPFromRequest(t *testing.T) {
	newReq := func(remote string, headers map[string]string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = remote
		for k, v := range headers {
			r.Header.Set(k, v)
		}
		return r
	}

	t.Run("remote addr without proxy trust", func(t *testing.T) {
		r := newReq("10.0.0.1:5555", map[string]string{"X-Forwarded-For": "1.2.3.4"})
		assert.Equal(t, "10.0.0.1", ClientIPFromRequest(r, false))
	})

	t.Run("first forwarded ip when trusted", func(t *testing.T) {
		r := newReq("10.0.0.1:5555", map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.2"})
		assert.Equal(t, "1.2.3.4", ClientIPFromRequest(r, true))
	})

	t.Run("real ip header when trusted", func(t *testing.T) {
		r := newReq("10.0.0.1:5555", map[string]string{"X-Real-IP": "5.6.7.8"})
		assert.Equal(t, "5.6.7.8", ClientIPFromRequest(r, true))
	})

	t.Run("ipv6 remote addr", func(t *testing.T) {
		assert.Equal(t, "::1", ClientIPFromRequest(newReq("[::1]:8080", nil), false))
	})
}

func TestClientMetadataMiddleware(t *testing.T) {
	var ip, ua, dev string
	h := ClientMetadata(false)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ip = requestcontext.ClientIP(r.Context())
		ua = requestcontext.UserAgent(r.Context())
		dev = requestcontext.Device(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.10:1234"
	r.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "192.0.2.10", ip)
	assert.Contains(t, ua, "Firefox")
	assert.Contains(t, dev, "Firefox")
}
