package cookie

import "errors"

var (
	// ErrNoSecret is returned by New when COOKIE_SECRETS is empty.
	ErrNoSecret       = errors.New("no cookie secret configured")
	ErrSecretTooShort = errors.New("cookie secret too short")

	// ErrInvalidSignature and ErrDecryptionFailed mean the value was tampered
	// with or signed by a retired key.
	ErrInvalidSignature = errors.New("invalid cookie signature")
	ErrDecryptionFailed = errors.New("cookie decryption failed")

	ErrCookieNotFound = errors.New("cookie not found")
	ErrInvalidFormat  = errors.New("malformed cookie value")
)
