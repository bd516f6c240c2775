package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/metisnation/registry/pkg/cookie"
)

const DefaultSessionCookie = "registry_session"

var (
	ErrNoSession      = errors.New("auth: no session")
	ErrSessionExpired = errors.New("auth: session expired")
)

// Session is the cookie payload. Only the access token is kept: ID and
// refresh tokens would push the cookie past browser size limits.
type Session struct {
	AccessToken string    `json:"at"`
	Subject     string    `json:"sub"`
	Email       string    `json:"email"`
	ExpiresAt   time.Time `json:"exp"`
}

// Expired reports whether the session is unusable at now.
func (s Session) Expired(now time.Time) bool {
	return s.AccessToken == "" || !now.Before(s.ExpiresAt)
}

// SessionOption configures a SessionStore.
type SessionOption func(*SessionStore)

// WithCookieName overrides DefaultSessionCookie.
func WithCookieName(name string) SessionOption {
	return func(s *SessionStore) { s.name = name }
}

// WithSessionClock sets the time source used for expiry.
func WithSessionClock(now func() time.Time) SessionOption {
	return func(s *SessionStore) { s.now = now }
}

// SessionStore persists sessions in an encrypted cookie.
type SessionStore struct {
	cookies *cookie.Manager
	name    string
	now     func() time.Time
}

// NewSessionStore creates a store over cookies.
func NewSessionStore(cookies *cookie.Manager, opts ...SessionOption) *SessionStore {
	s := &SessionStore{cookies: cookies, name: DefaultSessionCookie, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save writes the session cookie; it expires together with the access token.
func (s *SessionStore) Save(w http.ResponseWriter, sess Session) error {
	maxAge := int(sess.ExpiresAt.Sub(s.now()).Seconds())
	if maxAge <= 0 {
		return ErrSessionExpired
	}
	return s.cookies.SetEncryptedJSON(w, s.name, sess, cookie.WithMaxAge(maxAge))
}

// Load reads the session from r.
func (s *SessionStore) Load(r *http.Request) (Session, error) {
	var sess Session
	if err := s.cookies.GetEncryptedJSON(r, s.name, &sess); err != nil {
		if errors.Is(err, cookie.ErrCookieNotFound) {
			return Session{}, ErrNoSession
		}
		return Session{}, errors.Join(ErrNoSession, err)
	}
	if sess.Expired(s.now()) {
		return Session{}, ErrSessionExpired
	}
	return sess, nil
}

// Clear removes the session cookie.
func (s *SessionStore) Clear(w http.ResponseWriter) {
	s.cookies.Delete(w, s.name)
}
