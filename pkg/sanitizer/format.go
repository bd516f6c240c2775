package sanitizer

import "strings"

// NormalizeEmail trims and lowercases an address. The identity provider
// treats emails case-insensitively, so the lowered form is the canonical key
// for rate limits and flow context.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MaskEmail keeps the first character of the local part for log lines.
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return strings.Repeat("*", len(email))
	}
	return local[:1] + strings.Repeat("*", len(local)-1) + "@" + domain
}

// NormalizeCode strips spaces and dashes users paste into verification codes.
func NormalizeCode(code string) string {
	return KeepDigits(code)
}

// NormalizePhone keeps a leading plus sign and the digits.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}
	digits := KeepDigits(phone)
	if strings.HasPrefix(phone, "+") {
		return "+" + digits
	}
	return digits
}
