// Package clientip resolves the address of the browser behind the load
// balancer for logs and audit lines.
package clientip

import (
	"net/http"
	"net/netip"
	"strings"
)

// DefaultHeaders are consulted in order before RemoteAddr.
var DefaultHeaders = []string{"CloudFront-Viewer-Address", "X-Forwarded-For", "X-Real-IP"}

// Config lists the proxy headers trusted by the deployment.
type Config struct {
	Headers []string `env:"CLIENT_IP_HEADERS" envDefault:"CloudFront-Viewer-Address,X-Forwarded-For,X-Real-IP" envSeparator:","`
}

// Resolve returns the first valid address found in headers, then in
// r.RemoteAddr. X-Forwarded-For style lists yield their leftmost valid
// entry. The result is empty when nothing parses.
func Resolve(r *http.Request, headers ...string) string {
	if len(headers) == 0 {
		headers = DefaultHeaders
	}
	for _, h := range headers {
		for v := range strings.SplitSeq(r.Header.Get(h), ",") {
			if ip := parse(v); ip != "" {
				return ip
			}
		}
	}
	return parse(r.RemoteAddr)
}

// parse accepts "ip", "ip:port" and "[ipv6]:port".
func parse(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return ap.Addr().Unmap().String()
	}
	if addr, err := netip.ParseAddr(strings.Trim(s, "[]")); err == nil {
		return addr.Unmap().String()
	}
	return ""
}
