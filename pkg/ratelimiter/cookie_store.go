package ratelimiter

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/metisnation/registry/pkg/cookie"
)

const cookiePrefix = "rl_"

// CookieStore keeps entries in signed cookies of one request/response pair.
// Writes are visible to later reads in the same request.
type CookieStore struct {
	cookies *cookie.Manager
	w       http.ResponseWriter
	r       *http.Request
	maxAge  time.Duration

	written map[string]*Entry // nil value marks a deleted entry
}

// NewCookieStore binds a store to the current request. maxAge is the cookie
// lifetime, normally the policy staleness window.
func NewCookieStore(cookies *cookie.Manager, w http.ResponseWriter, r *http.Request, maxAge time.Duration) *CookieStore {
	return &CookieStore{
		cookies: cookies,
		w:       w,
		r:       r,
		maxAge:  maxAge,
		written: make(map[string]*Entry),
	}
}

// CookieName returns the cookie holding the entry of key.
func CookieName(key string) string {
	return cookiePrefix + strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, key)
}

func (s *CookieStore) Load(_ context.Context, key string) (Entry, error) {
	name := CookieName(key)
	if e, ok := s.written[name]; ok {
		if e == nil {
			return Entry{}, ErrEntryNotFound
		}
		return *e, nil
	}

	var e Entry
	if err := s.cookies.GetSignedJSON(s.r, name, &e); err != nil {
		// Tampered or unreadable cookies count as absent.
		return Entry{}, ErrEntryNotFound
	}
	return e, nil
}

func (s *CookieStore) Save(_ context.Context, key string, entry Entry) error {
	name := CookieName(key)
	if err := s.cookies.SetSignedJSON(s.w, name, entry, cookie.WithMaxAge(int(s.maxAge.Seconds()))); err != nil {
		return err
	}
	s.written[name] = &entry
	return nil
}

func (s *CookieStore) Delete(_ context.Context, key string) error {
	name := CookieName(key)
	s.cookies.Delete(s.w, name)
	s.written[name] = nil
	return nil
}
