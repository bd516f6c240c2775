package clientip_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metisnation/registry/pkg/clientip"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{name: "remote addr", remote: "203.0.113.7:51234", want: "203.0.113.7"},
		{name: "cloudfront viewer address", headers: map[string]string{"CloudFront-Viewer-Address": "198.51.100.4:443"}, remote: "10.0.0.1:80", want: "198.51.100.4"},
		{name: "leftmost forwarded entry", headers: map[string]string{"X-Forwarded-For": "junk, 192.0.2.9, 10.0.0.2"}, remote: "10.0.0.1:80", want: "192.0.2.9"},
		{name: "bracketed ipv6", headers: map[string]string{"X-Real-IP": "[2001:db8::1]:8443"}, remote: "10.0.0.1:80", want: "2001:db8::1"},
		{name: "mapped ipv4", remote: "[::ffff:192.0.2.1]:80", want: "192.0.2.1"},
		{name: "invalid everywhere", headers: map[string]string{"X-Forwarded-For": "unknown"}, remote: "pipe", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientip.Resolve(r))
		})
	}
}

func TestResolve_TrustedHeadersOnly(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:80"
	r.Header.Set("X-Forwarded-For", "192.0.2.9")

	assert.Equal(t, "10.0.0.1", clientip.Resolve(r, "X-Real-IP"))
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	var got string
	h := clientip.Middleware(clientip.Config{Headers: []string{"X-Real-IP"}})(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got = clientip.FromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Real-IP", "192.0.2.44")
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, "192.0.2.44", got)

	attr, ok := clientip.LoggerExtractor()(clientip.WithContext(context.Background(), got))
	require.True(t, ok)
	assert.Equal(t, "client_ip", attr.Key)

	_, ok = clientip.LoggerExtractor()(context.Background())
	assert.False(t, ok)
}
