// Package cookie manages the registry's browser cookies: plain, signed
// (HMAC-SHA256) and encrypted (AES-256-GCM) values, plus one-shot flash
// messages.
//
// Secrets are at least 32 characters. The first secret signs and encrypts;
// every secret is tried when reading, so a new secret can be prepended
// while cookies issued under the old one stay valid.
//
//	cookies, err := cookie.NewFromConfig(cfg)
//	...
//	_ = cookies.SetSignedJSON(w, "rl_login", entry, cookie.WithMaxAge(300))
//	err = cookies.GetSignedJSON(r, "rl_login", &entry)
//
// Read failures are ErrCookieNotFound, ErrInvalidFormat, ErrInvalidSignature
// or ErrDecryptionFailed; callers usually treat all of them as "no cookie".
package cookie
