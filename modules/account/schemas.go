package account

import (
	"strings"
	"time"

	"github.com/metisnation/registry/pkg/sanitizer"
	"github.com/metisnation/registry/pkg/validator"
)

const (
	minPasswordLength = 8
	maxNameLength     = 100
	maxAgeYears       = 130
	codeLength        = 6

	msgPasswordTooShort = "Password must be at least 8 characters"
	msgPasswordMismatch = "Passwords do not match"
	msgEmail            = "Please enter a valid email address"
	msgCode             = "Please enter the 6-digit code"
)

// LoginInput is the login form.
type LoginInput struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

// SignupInput is the registration form.
type SignupInput struct {
	FirstName       string `form:"first_name"`
	LastName        string `form:"last_name"`
	Email           string `form:"email"`
	BirthDate       string `form:"birth_date"`
	Password        string `form:"password"`
	ConfirmPassword string `form:"confirm_password"`
}

// ForgotPasswordInput requests a reset code.
type ForgotPasswordInput struct {
	Email string `form:"email"`
}

// ConfirmSignupInput carries the emailed verification code.
type ConfirmSignupInput struct {
	Code string `form:"code"`
}

// ConfirmResetInput sets a new password with the emailed reset code.
type ConfirmResetInput struct {
	Code            string `form:"code"`
	Password        string `form:"password"`
	ConfirmPassword string `form:"confirm_password"`
}

// TOTPInput is an authenticator code.
type TOTPInput struct {
	Code string `form:"code"`
}

func emailRules(field, value string) []validator.Rule {
	return []validator.Rule{
		validator.Required(field, value).WithMessage("Email is required"),
		validator.ValidEmail(field, value).WithMessage(msgEmail),
	}
}

func codeRule(field, value string) validator.Rule {
	return validator.ValidOTP(field, value, codeLength).WithMessage(msgCode)
}

func nameRules(field, label, value string) []validator.Rule {
	return []validator.Rule{
		validator.Required(field, value).WithMessage(label + " is required"),
		validator.MaxLen(field, value, maxNameLength).WithMessage(label + " must be at most 100 characters"),
	}
}

// newPasswordRules applies the full password policy used on sign-up and reset.
func newPasswordRules(field, value string) []validator.Rule {
	return []validator.Rule{
		validator.MinLen(field, value, minPasswordLength).WithMessage(msgPasswordTooShort),
		validator.StrongPassword(field, value),
	}
}

// confirmPassword is the cross-field pass. It only runs once both password
// fields passed their own rules.
func confirmPassword(first error, password, confirm string) error {
	verrs := validator.ExtractValidationErrors(first)
	if verrs.Has("password") || verrs.Has("confirm_password") {
		return first
	}
	return validator.Merge(first, validator.Apply(
		validator.Equal("confirm_password", confirm, password).WithMessage(msgPasswordMismatch),
	))
}

// ValidateLogin normalizes and validates the login form.
func ValidateLogin(in LoginInput) (LoginInput, error) {
	in.Email = sanitizer.NormalizeEmail(in.Email)
	rules := append(emailRules("email", in.Email),
		validator.MinLen("password", in.Password, minPasswordLength).WithMessage(msgPasswordTooShort),
	)
	return in, validator.Apply(rules...)
}

// ValidateSignup normalizes and validates the registration form.
func ValidateSignup(in SignupInput) (SignupInput, error) {
	in.FirstName = sanitizer.NormalizeName(in.FirstName)
	in.LastName = sanitizer.NormalizeName(in.LastName)
	in.Email = sanitizer.NormalizeEmail(in.Email)
	in.BirthDate = strings.TrimSpace(in.BirthDate)

	rules := nameRules("first_name", "First name", in.FirstName)
	rules = append(rules, nameRules("last_name", "Last name", in.LastName)...)
	rules = append(rules, emailRules("email", in.Email)...)
	rules = append(rules, birthDateRules("birth_date", in.BirthDate)...)
	rules = append(rules, newPasswordRules("password", in.Password)...)
	rules = append(rules, validator.Required("confirm_password", in.ConfirmPassword).WithMessage("Please confirm your password"))

	return in, confirmPassword(validator.Apply(rules...), in.Password, in.ConfirmPassword)
}

func birthDateRules(field, value string) []validator.Rule {
	rules := []validator.Rule{
		validator.Required(field, value).WithMessage("Date of birth is required"),
		validator.ValidDate(field, value, validator.DateLayout).WithMessage("Please enter a valid date"),
	}
	if d, err := time.Parse(validator.DateLayout, value); err == nil {
		rules = append(rules,
			validator.PastDate(field, d).WithMessage("Date of birth must be in the past"),
			validator.MaxAge(field, d, maxAgeYears).WithMessage("Please enter a valid date of birth"),
		)
	}
	return rules
}

// ValidateForgotPassword normalizes and validates the reset request.
func ValidateForgotPassword(in ForgotPasswordInput) (ForgotPasswordInput, error) {
	in.Email = sanitizer.NormalizeEmail(in.Email)
	return in, validator.Apply(emailRules("email", in.Email)...)
}

// ValidateConfirmSignup strips separators from the code and validates it.
func ValidateConfirmSignup(in ConfirmSignupInput) (ConfirmSignupInput, error) {
	in.Code = sanitizer.NormalizeCode(in.Code)
	return in, validator.Apply(codeRule("code", in.Code))
}

// ValidateConfirmReset validates the code and the new password.
func ValidateConfirmReset(in ConfirmResetInput) (ConfirmResetInput, error) {
	in.Code = sanitizer.NormalizeCode(in.Code)
	rules := append([]validator.Rule{codeRule("code", in.Code)}, newPasswordRules("password", in.Password)...)
	rules = append(rules, validator.Required("confirm_password", in.ConfirmPassword).WithMessage("Please confirm your password"))
	return in, confirmPassword(validator.Apply(rules...), in.Password, in.ConfirmPassword)
}

// ValidateTOTP validates an authenticator code.
func ValidateTOTP(in TOTPInput) (TOTPInput, error) {
	in.Code = sanitizer.NormalizeCode(in.Code)
	return in, validator.Apply(codeRule("code", in.Code))
}
