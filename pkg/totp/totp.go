// Package totp builds authenticator-app enrolment material for secrets
// issued by the identity provider: the otpauth:// key URI and its QR code.
// It also computes RFC 6238 codes, which the provider verifies server-side;
// the registry uses them to check enrolment links and in tests.
package totp

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/metisnation/registry/pkg/qrcode"
)

const (
	Digits = 6
	Period = 30 * time.Second
)

var (
	ErrMissingSecret      = errors.New("missing secret")
	ErrInvalidSecret      = errors.New("invalid secret")
	ErrMissingAccountName = errors.New("missing account name")
	ErrMissingIssuer      = errors.New("missing issuer")
)

var secretPattern = regexp.MustCompile(`^[A-Z2-7]+=*$`)

// Params describe one authenticator entry.
type Params struct {
	Secret      string // base32, as returned by AssociateSoftwareToken
	AccountName string // the citizen's email
	Issuer      string
}

func (p Params) Validate() error {
	switch {
	case p.Secret == "":
		return ErrMissingSecret
	case !secretPattern.MatchString(p.Secret):
		return ErrInvalidSecret
	case p.AccountName == "":
		return ErrMissingAccountName
	case p.Issuer == "":
		return ErrMissingIssuer
	}
	return nil
}

// URI returns the Key URI Format string understood by authenticator apps.
func URI(p Params) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("secret", p.Secret)
	q.Set("issuer", p.Issuer)
	q.Set("algorithm", "SHA1")
	q.Set("digits", fmt.Sprint(Digits))
	q.Set("period", fmt.Sprint(int(Period.Seconds())))

	label := url.PathEscape(p.Issuer) + ":" + url.PathEscape(p.AccountName)
	return "otpauth://totp/" + label + "?" + q.Encode(), nil
}

// Enrollment is what the TOTP setup page renders.
type Enrollment struct {
	Secret string // shown for manual entry
	URI    string
	QRCode string // data:image/png;base64 URL
}

// NewEnrollment builds the URI and its QR code image.
func NewEnrollment(p Params, qrSize int) (Enrollment, error) {
	uri, err := URI(p)
	if err != nil {
		return Enrollment{}, err
	}
	img, err := qrcode.GenerateBase64Image(uri, qrSize)
	if err != nil {
		return Enrollment{}, err
	}
	return Enrollment{Secret: groupSecret(p.Secret), URI: uri, QRCode: img}, nil
}

// groupSecret splits the secret into blocks of four for manual entry.
func groupSecret(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func decodeSecret(secret string) ([]byte, error) {
	secret = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(secret), " ", ""))
	if !secretPattern.MatchString(secret) {
		return nil, ErrInvalidSecret
	}
	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.TrimRight(secret, "="))
	if err != nil {
		return nil, errors.Join(ErrInvalidSecret, err)
	}
	return key, nil
}

// Code returns the code for the period containing t.
func Code(secret string, t time.Time) (string, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return "", err
	}
	return hotp(key, uint64(t.Unix()/int64(Period.Seconds()))), nil
}

// Verify accepts codes from the previous, current and next period.
func Verify(secret, code string, t time.Time) (bool, error) {
	key, err := decodeSecret(secret)
	if err != nil {
		return false, err
	}
	counter := uint64(t.Unix() / int64(Period.Seconds()))
	for _, c := range []uint64{counter - 1, counter, counter + 1} {
		if hmac.Equal([]byte(hotp(key, c)), []byte(code)) {
			return true, nil
		}
	}
	return false, nil
}

// hotp is RFC 4226 with SHA-1 and six digits.
func hotp(key []byte, counter uint64) string {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	code := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff
	return fmt.Sprintf("%06d", code%1_000_000)
}
