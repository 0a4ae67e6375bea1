package observability

import (
	"net"
	"net/http"
	"strings"
)

// RequestMeta is the handshake metadata carried on relay lifecycle events so
// a connection can be correlated with the client device and the edge request
// that opened it.
type RequestMeta struct {
	DeviceID  string
	RequestID string
	IP        string
}

// MetaFromRequest captures the lifecycle metadata of an upgrade request.
func MetaFromRequest(r *http.Request) RequestMeta {
	return RequestMeta{
		DeviceID:  r.Header.Get("X-Device-Id"),
		RequestID: r.Header.Get("X-Request-Id"),
		IP:        clientIP(r),
	}
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the peer
// address.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
