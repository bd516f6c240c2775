package cookie_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metisnation/registry/pkg/cookie"
)

const (
	secretA = "a-very-long-secret-key-for-testing-aaaa"
	secretB = "b-very-long-secret-key-for-testing-bbbb"
)

// roundTrip returns a request carrying the cookies written to w.
func roundTrip(w *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func newManager(t *testing.T, secrets ...string) *cookie.Manager {
	t.Helper()
	m, err := cookie.New(secrets)
	require.NoError(t, err)
	return m
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := cookie.New(nil)
	assert.ErrorIs(t, err, cookie.ErrNoSecret)

	_, err = cookie.New([]string{"", "  "})
	assert.ErrorIs(t, err, cookie.ErrNoSecret)

	_, err = cookie.New([]string{"short"})
	assert.ErrorIs(t, err, cookie.ErrSecretTooShort)
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	m, err := cookie.NewFromConfig(cookie.Config{
		Secrets:  []string{secretA},
		Path:     "/auth",
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	m.Set(w, "flow", "abc", cookie.WithMaxAge(60))

	c := w.Result().Cookies()[0]
	assert.Equal(t, "/auth", c.Path)
	assert.True(t, c.Secure)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, 60, c.MaxAge)
}

func TestPlain(t *testing.T) {
	t.Parallel()
	m := newManager(t, secretA)

	_, err := m.Get(httptest.NewRequest(http.MethodGet, "/", nil), "missing")
	assert.ErrorIs(t, err, cookie.ErrCookieNotFound)

	w := httptest.NewRecorder()
	m.Set(w, "flow_id", "f-1")
	got, err := m.Get(roundTrip(w), "flow_id")
	require.NoError(t, err)
	assert.Equal(t, "f-1", got)

	w = httptest.NewRecorder()
	m.Delete(w, "flow_id")
	assert.Equal(t, -1, w.Result().Cookies()[0].MaxAge)
}

func TestSigned(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		m := newManager(t, secretA)
		w := httptest.NewRecorder()
		m.SetSigned(w, "s", "hello|world")

		got, err := m.GetSigned(roundTrip(w), "s")
		require.NoError(t, err)
		assert.Equal(t, "hello|world", got)
	})

	t.Run("tampered value", func(t *testing.T) {
		t.Parallel()
		m := newManager(t, secretA)
		w := httptest.NewRecorder()
		m.SetSigned(w, "s", `{"attempts":2}`)

		c := w.Result().Cookies()[0]
		_, sig, _ := strings.Cut(c.Value, ".")
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "s", Value: "eyJhdHRlbXB0cyI6MH0." + sig})

		_, err := m.GetSigned(r, "s")
		assert.ErrorIs(t, err, cookie.ErrInvalidSignature)
	})

	t.Run("malformed value", func(t *testing.T) {
		t.Parallel()
		m := newManager(t, secretA)
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "s", Value: "no-separator"})
		_, err := m.GetSigned(r, "s")
		assert.ErrorIs(t, err, cookie.ErrInvalidFormat)
	})

	t.Run("secret rotation", func(t *testing.T) {
		t.Parallel()
		old := newManager(t, secretA)
		w := httptest.NewRecorder()
		old.SetSigned(w, "s", "v")

		rotated := newManager(t, secretB, secretA)
		got, err := rotated.GetSigned(roundTrip(w), "s")
		require.NoError(t, err)
		assert.Equal(t, "v", got)

		_, err = newManager(t, secretB).GetSigned(roundTrip(w), "s")
		assert.ErrorIs(t, err, cookie.ErrInvalidSignature)
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		type entry struct {
			Attempts  int   `json:"attempts"`
			Timestamp int64 `json:"timestamp"`
		}
		m := newManager(t, secretA)
		w := httptest.NewRecorder()
		require.NoError(t, m.SetSignedJSON(w, "rl_login", entry{2, 1700000000000}))

		var got entry
		require.NoError(t, m.GetSignedJSON(roundTrip(w), "rl_login", &got))
		assert.Equal(t, entry{2, 1700000000000}, got)
	})
}

func TestEncrypted(t *testing.T) {
	t.Parallel()

	t.Run("round trip hides value", func(t *testing.T) {
		t.Parallel()
		m := newManager(t, secretA)
		w := httptest.NewRecorder()
		require.NoError(t, m.SetEncrypted(w, "session", "access-token"))

		assert.NotContains(t, w.Result().Cookies()[0].Value, "access-token")
		got, err := m.GetEncrypted(roundTrip(w), "session")
		require.NoError(t, err)
		assert.Equal(t, "access-token", got)
	})

	t.Run("unique ciphertexts", func(t *testing.T) {
		t.Parallel()
		m := newManager(t, secretA)
		w1, w2 := httptest.NewRecorder(), httptest.NewRecorder()
		require.NoError(t, m.SetEncrypted(w1, "c", "same"))
		require.NoError(t, m.SetEncrypted(w2, "c", "same"))
		assert.NotEqual(t, w1.Result().Cookies()[0].Value, w2.Result().Cookies()[0].Value)
	})

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		require.NoError(t, newManager(t, secretA).SetEncrypted(w, "c", "v"))
		_, err := newManager(t, secretB).GetEncrypted(roundTrip(w), "c")
		assert.ErrorIs(t, err, cookie.ErrDecryptionFailed)
	})

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		m := newManager(t, secretA)
		w := httptest.NewRecorder()
		require.NoError(t, m.SetEncryptedJSON(w, "c", map[string]string{"sub": "u-1"}))

		var got map[string]string
		require.NoError(t, m.GetEncryptedJSON(roundTrip(w), "c", &got))
		assert.Equal(t, "u-1", got["sub"])
	})
}

func TestFlash(t *testing.T) {
	t.Parallel()
	m := newManager(t, secretA)

	w := httptest.NewRecorder()
	require.NoError(t, m.SetFlash(w, "notice", "Please sign in to continue."))

	w2 := httptest.NewRecorder()
	var msg string
	require.NoError(t, m.GetFlash(w2, roundTrip(w), "notice", &msg))
	assert.Equal(t, "Please sign in to continue.", msg)

	deleted := w2.Result().Cookies()
	require.Len(t, deleted, 1)
	assert.Equal(t, -1, deleted[0].MaxAge)

	w3 := httptest.NewRecorder()
	err := m.GetFlash(w3, httptest.NewRequest(http.MethodGet, "/", nil), "notice", &msg)
	assert.ErrorIs(t, err, cookie.ErrCookieNotFound)
	assert.Empty(t, w3.Result().Cookies())
}
