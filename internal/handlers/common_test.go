package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIP(t *testing.T) {
	t.Run("ignores forwarding headers by default", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/api/support", nil)
		r.RemoteAddr = "198.51.100.4:52110"
		r.Header.Set("X-Forwarded-For", "203.0.113.9")

		assert.Equal(t, "198.51.100.4", clientIP(r, false))
	})

	t.Run("uses the first forwarded address behind a trusted proxy", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/api/support", nil)
		r.RemoteAddr = "10.0.0.2:40000"
		r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.2")

		assert.Equal(t, "203.0.113.9", clientIP(r, true))
	})

	t.Run("falls back to the socket address on a bad header", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/api/support", nil)
		r.RemoteAddr = "198.51.100.4:52110"
		r.Header.Set("X-Forwarded-For", "not-an-ip")

		assert.Equal(t, "198.51.100.4", clientIP(r, true))
	})

	t.Run("handles a bare remote address", func(t *testing.T) {
		r := httptest.NewRequest("POST", "/api/support", nil)
		r.RemoteAddr = "198.51.100.4"

		assert.Equal(t, "198.51.100.4", clientIP(r, false))
	})
}
