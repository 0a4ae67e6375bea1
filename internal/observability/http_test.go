package observability

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetaFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("X-Device-Id", "device-1")
	r.Header.Set("X-Request-Id", "req-1")
	r.RemoteAddr = "10.0.0.9:54321"

	meta := MetaFromRequest(r)
	assert.Equal(t, "device-1", meta.DeviceID)
	assert.Equal(t, "req-1", meta.RequestID)
	assert.Equal(t, "10.0.0.9", meta.IP)
}

func TestMetaPrefersForwardedFor(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws", nil)
	r.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	r.RemoteAddr = "10.0.0.9:54321"

	assert.Equal(t, "203.0.113.7", MetaFromRequest(r).IP)
}
