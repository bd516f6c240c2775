package validator

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode"
)

// Phone number regex - international format with optional country code
var phoneRegex = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// ValidEmail validates that a string is a valid email address using RFC 5322.
func ValidEmail(field, value string) Rule {
	return Rule{
		Check: func() bool {
			if strings.TrimSpace(value) == "" {
				return false
			}

			addr, err := mail.ParseAddress(value)
			if err != nil {
				return false
			}
			// Reject display-name forms like "Jane <jane@example.com>".
			if addr.Address != value {
				return false
			}

			local, domain, ok := strings.Cut(addr.Address, "@")
			if !ok || local == "" {
				return false
			}

			if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
				return false
			}
			for part := range strings.SplitSeq(domain, ".") {
				if part == "" {
					return false
				}
			}

			return true
		},
		Error: ValidationError{
			Field:          field,
			Message:        "must be a valid email address",
			TranslationKey: "validation.email",
			TranslationValues: map[string]any{
				"field": field,
			},
		},
	}
}

// ValidPhone accepts E.164 numbers; spaces, dashes and parentheses are ignored.
func ValidPhone(field, value string) Rule {
	return Rule{
		Check: func() bool {
			cleaned := strings.Map(func(r rune) rune {
				switch r {
				case ' ', '-', '(', ')', '.':
					return -1
				}
				return r
			}, value)
			return phoneRegex.MatchString(cleaned)
		},
		Error: ValidationError{
			Field:          field,
			Message:        "must be a valid phone number",
			TranslationKey: "validation.phone",
			TranslationValues: map[string]any{
				"field": field,
			},
		},
	}
}

// ValidOTP validates that a string is a valid OTP code with the specified length.
// The OTP must contain exactly the specified number of digits (0-9 only).
func ValidOTP(field, value string, length int) Rule {
	return Rule{
		Check: func() bool {
			if length <= 0 || len(value) != length {
				return false
			}
			for _, char := range value {
				if !unicode.IsDigit(char) {
					return false
				}
			}
			return true
		},
		Error: ValidationError{
			Field:          field,
			Message:        fmt.Sprintf("must be a %d-digit code", length),
			TranslationKey: "validation.otp_code",
			TranslationValues: map[string]any{
				"field":  field,
				"length": length,
			},
		},
	}
}
