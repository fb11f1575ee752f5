// Package clientip resolves the real client IP for requests that may
// arrive through a reverse proxy.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

// FromRequest returns the client IP for r. Proxy headers win over the
// peer address: the first hop of X-Forwarded-For, then X-Real-IP, then
// RemoteAddr with the port stripped.
func FromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// X-Forwarded-For can contain multiple IPs, take the first
		if ip := strings.TrimSpace(strings.SplitN(xff, ",", 2)[0]); ip != "" {
			return ip
		}
	}

	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		if addr := strings.TrimSpace(r.RemoteAddr); addr != "" {
			return addr
		}
		return "unknown"
	}
	return host
}
