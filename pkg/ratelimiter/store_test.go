package ratelimiter_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metisnation/registry/pkg/cookie"
	"github.com/metisnation/registry/pkg/ratelimiter"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(10*time.Millisecond), ratelimiter.WithEntryTTL(50*time.Millisecond))
	t.Cleanup(store.Close)

	_, err := store.Load(ctx, "k")
	assert.ErrorIs(t, err, ratelimiter.ErrEntryNotFound)

	entry := ratelimiter.Entry{Attempts: 1, Timestamp: time.Now().UnixMilli()}
	require.NoError(t, store.Save(ctx, "k", entry))
	got, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, entry, got)

	assert.Eventually(t, func() bool {
		_, err := store.Load(ctx, "k")
		return err != nil
	}, time.Second, 10*time.Millisecond)

	store.Close()
	store.Close()
}

func TestPrefixedStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	base := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
	a := ratelimiter.WithPrefix(base, "device-a")
	b := ratelimiter.WithPrefix(base, "device-b")

	require.NoError(t, a.Save(ctx, "resend", ratelimiter.Entry{Attempts: 2}))
	_, err := b.Load(ctx, "resend")
	assert.ErrorIs(t, err, ratelimiter.ErrEntryNotFound)

	got, err := base.Load(ctx, "device-a:resend")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Attempts)

	require.NoError(t, a.Delete(ctx, "resend"))
	_, err = base.Load(ctx, "device-a:resend")
	assert.ErrorIs(t, err, ratelimiter.ErrEntryNotFound)
}

func TestRedisStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := ratelimiter.NewRedisStore(client, 5*time.Minute)

	_, err := store.Load(ctx, "resend")
	assert.ErrorIs(t, err, ratelimiter.ErrEntryNotFound)

	entry := ratelimiter.Entry{Attempts: 2, Timestamp: 1718971200000}
	require.NoError(t, store.Save(ctx, "resend", entry))

	raw, err := mr.Get("ratelimit:resend")
	require.NoError(t, err)
	assert.JSONEq(t, `{"attempts":2,"timestamp":1718971200000}`, raw)
	assert.Equal(t, 5*time.Minute, mr.TTL("ratelimit:resend"))

	got, err := store.Load(ctx, "resend")
	require.NoError(t, err)
	assert.Equal(t, entry, got)

	mr.FastForward(6 * time.Minute)
	_, err = store.Load(ctx, "resend")
	assert.ErrorIs(t, err, ratelimiter.ErrEntryNotFound)

	require.NoError(t, store.Save(ctx, "resend", entry))
	require.NoError(t, store.Delete(ctx, "resend"))
	assert.False(t, mr.Exists("ratelimit:resend"))
}

func TestCookieStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	mgr, err := cookie.New([]string{"this-is-a-very-long-secret-key-32-chars-long"})
	require.NoError(t, err)

	// First request records a failure.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/resend", nil)
	store := ratelimiter.NewCookieStore(mgr, rec, req, 5*time.Minute)

	entry := ratelimiter.Entry{Attempts: 1, Timestamp: time.Now().UnixMilli()}
	require.NoError(t, store.Save(ctx, "resend-signup-code", entry))
	got, err := store.Load(ctx, "resend-signup-code")
	require.NoError(t, err)
	assert.Equal(t, entry, got)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "rl_resend-signup-code", cookies[0].Name)
	assert.Equal(t, 300, cookies[0].MaxAge)

	// Second request carries the cookie back.
	req2 := httptest.NewRequest(http.MethodPost, "/auth/resend", nil)
	req2.AddCookie(cookies[0])
	store2 := ratelimiter.NewCookieStore(mgr, httptest.NewRecorder(), req2, 5*time.Minute)
	got, err = store2.Load(ctx, "resend-signup-code")
	require.NoError(t, err)
	assert.Equal(t, entry, got)

	require.NoError(t, store2.Delete(ctx, "resend-signup-code"))
	_, err = store2.Load(ctx, "resend-signup-code")
	assert.ErrorIs(t, err, ratelimiter.ErrEntryNotFound)

	t.Run("tampered cookie is ignored", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/resend", nil)
		req.AddCookie(&http.Cookie{Name: "rl_resend-signup-code", Value: "eyJhdHRlbXB0cyI6MH0.YmFk"})
		store := ratelimiter.NewCookieStore(mgr, httptest.NewRecorder(), req, time.Minute)
		_, err := store.Load(ctx, "resend-signup-code")
		assert.ErrorIs(t, err, ratelimiter.ErrEntryNotFound)
	})

	assert.Equal(t, "rl_device_resend", ratelimiter.CookieName("device:resend"))
}
