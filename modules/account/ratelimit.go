package account

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/metisnation/registry/pkg/cookie"
	"github.com/metisnation/registry/pkg/ratelimiter"
)

// Rate-limited actions.
const (
	ActionResendSignupCode = "resend-signup-code"
	ActionResendResetCode  = "resend-reset-code"
)

const deviceCookieMaxAge = 365 * 24 * time.Hour

// RateLimitStoreFunc returns the rate-limit store of the requesting browser.
type RateLimitStoreFunc func(w http.ResponseWriter, r *http.Request) ratelimiter.Store

// CookieRateLimits keeps entries in signed rl_<action> cookies.
func CookieRateLimits(cookies *cookie.Manager, maxAge time.Duration) RateLimitStoreFunc {
	return func(w http.ResponseWriter, r *http.Request) ratelimiter.Store {
		return ratelimiter.NewCookieStore(cookies, w, r, maxAge)
	}
}

// DeviceRateLimits keeps entries in a shared store under the browser's
// device ID. DeviceMiddleware must run first.
func DeviceRateLimits(store ratelimiter.Store) RateLimitStoreFunc {
	return func(_ http.ResponseWriter, r *http.Request) ratelimiter.Store {
		return ratelimiter.WithPrefix(store, "device:"+DeviceIDFromContext(r.Context()))
	}
}

type deviceKey struct{}

// DeviceIDFromContext returns the ID set by DeviceMiddleware, or "".
func DeviceIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(deviceKey{}).(string)
	return id
}

// DeviceMiddleware gives every browser a long-lived signed device ID.
func DeviceMiddleware(cookies *cookie.Manager, name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := cookies.GetSigned(r, name)
			if err != nil || uuid.Validate(id) != nil {
				id = uuid.NewString()
				cookies.SetSigned(w, name, id, cookie.WithMaxAge(int(deviceCookieMaxAge.Seconds())))
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), deviceKey{}, id)))
		})
	}
}
