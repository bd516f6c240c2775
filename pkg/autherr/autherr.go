package autherr

import (
	"errors"
	"strings"
)

// Kind is the category of an authentication failure.
type Kind string

const (
	KindUnknown            Kind = "unknown"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindUnconfirmedAccount Kind = "unconfirmed_account"
	KindUserNotFound       Kind = "user_not_found"
	KindCodeMismatch       Kind = "code_mismatch"
	KindExpiredCode        Kind = "expired_code"
	KindRateLimited        Kind = "rate_limited"
	KindTooManyRequests    Kind = "too_many_requests"
	KindInvalidParameter   Kind = "invalid_parameter"
	KindUsernameExists     Kind = "username_exists"
	KindInvalidPassword    Kind = "invalid_password"
)

// GenericMessage is shown when nothing more specific is known.
const GenericMessage = "Something went wrong. Please try again."

var messages = map[Kind]string{
	KindInvalidCredentials: "Incorrect email or password.",
	KindUnconfirmedAccount: "Please confirm your account before signing in.",
	KindUserNotFound:       "No account found with this email address.",
	KindCodeMismatch:       "Invalid verification code. Please try again.",
	KindExpiredCode:        "Verification code has expired. Please request a new one.",
	KindRateLimited:        "Too many attempts. Please wait before trying again.",
	KindTooManyRequests:    "Too many requests. Please try again later.",
	KindInvalidParameter:   "Invalid input. Please check your information and try again.",
	KindUsernameExists:     "An account with this email address already exists.",
	KindInvalidPassword:    "Password does not meet the requirements.",
}

// Message returns the user-facing text of a kind, empty for KindUnknown.
func (k Kind) Message() string {
	return messages[k]
}

// Error is a classified identity-provider failure.
type Error struct {
	Kind    Kind
	Code    string // provider error code, e.g. "CodeMismatchException"
	Message string // provider message, never shown for known kinds
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return e.Code + ": " + e.Message
	case e.Code != "":
		return e.Code
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by kind, so errors.Is(err, &Error{Kind: k}) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Code == "" && t.Message == ""
}

// New builds a classified error.
func New(kind Kind, code, message string, err error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Err: err}
}

// coder is satisfied by provider API errors (smithy.APIError and friends).
type coder interface {
	ErrorCode() string
}

type pattern struct {
	kind   Kind
	needle []string
}

// patterns is ordered; the first match wins.
var patterns = []pattern{
	{KindInvalidCredentials, []string{"notauthorized", "incorrect username or password"}},
	{KindUnconfirmedAccount, []string{"usernotconfirmed", "not confirmed"}},
	{KindUserNotFound, []string{"usernotfound"}},
	{KindCodeMismatch, []string{"codemismatch", "invalid verification code"}},
	{KindExpiredCode, []string{"expiredcode", "expired"}},
	{KindRateLimited, []string{"limitexceeded", "attempt limit exceeded"}},
	{KindTooManyRequests, []string{"toomanyrequests"}},
	{KindInvalidParameter, []string{"invalidparameter"}},
	{KindUsernameExists, []string{"usernameexists", "already exists"}},
	{KindInvalidPassword, []string{"invalidpassword", "password did not conform"}},
}

// Classify returns the kind of err. A nil error is KindUnknown.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var ae *Error
	if errors.As(err, &ae) && ae.Kind != "" && ae.Kind != KindUnknown {
		return ae.Kind
	}

	text := strings.ToLower(err.Error())
	var c coder
	if errors.As(err, &c) {
		text = strings.ToLower(c.ErrorCode()) + " " + text
	}

	for _, p := range patterns {
		for _, n := range p.needle {
			if strings.Contains(text, n) {
				return p.kind
			}
		}
	}
	return KindUnknown
}

// Message returns the user-facing message for err. Unknown failures show the
// provider message if there is one, else GenericMessage.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if msg := Classify(err).Message(); msg != "" {
		return msg
	}

	var ae *Error
	if errors.As(err, &ae) {
		if ae.Message != "" {
			return ae.Message
		}
		return GenericMessage
	}
	if raw := err.Error(); raw != "" {
		return raw
	}
	return GenericMessage
}

// IsRateLimit reports whether err is an attempt-limit failure.
func IsRateLimit(err error) bool {
	return Classify(err) == KindRateLimited
}

// IsConfirmationRequired reports whether err means the account exists but its
// email has not been confirmed yet.
func IsConfirmationRequired(err error) bool {
	return Classify(err) == KindUnconfirmedAccount
}

// Context selects how failures are surfaced to the user.
type Context int

const (
	ContextDefault Context = iota
	// ContextResetPassword hides every failure except rate limiting so the
	// response does not reveal whether an address is registered.
	ContextResetPassword
)

// Process returns the message to show for err in ctx. The boolean is false
// when the error must not be surfaced.
func Process(err error, ctx Context) (string, bool) {
	if err == nil {
		return "", false
	}
	if ctx == ContextResetPassword && !IsRateLimit(err) {
		return "", false
	}
	return Message(err), true
}
