package contact

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP identifies the submitter. With trustProxy the server is assumed to
// sit behind exactly one reverse proxy, so the right-most X-Forwarded-For hop
// is the client; earlier hops are caller supplied and ignored.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := lastForwardedHop(r.Header.Values("X-Forwarded-For")); ip != "" {
			return ip
		}
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	if net.ParseIP(addr) != nil {
		return addr
	}
	return UnknownClient
}

func lastForwardedHop(values []string) string {
	for i := len(values) - 1; i >= 0; i-- {
		parts := strings.Split(values[i], ",")
		for j := len(parts) - 1; j >= 0; j-- {
			if ip := strings.TrimSpace(parts[j]); net.ParseIP(ip) != nil {
				return ip
			}
			if strings.TrimSpace(parts[j]) != "" {
				// garbage in the trusted hop, fall back to the socket peer
				return ""
			}
		}
	}
	return ""
}
