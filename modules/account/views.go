package account

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/metisnation/registry/pkg/password"
	"github.com/metisnation/registry/pkg/ratelimiter"
)

const (
	flowElementID         = "auth-flow"
	requirementsElementID = "password-requirements"
	datastarScript        = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.5/bundles/datastar.js"
)

// Views renders the authentication pages. Replace any function to restyle
// a step; DefaultViews provides plain semantic HTML.
type Views struct {
	Page           func(PageParams) templ.Component
	Login          func(LoginParams) templ.Component
	Signup         func(SignupParams) templ.Component
	ForgotPassword func(ForgotPasswordParams) templ.Component
	ConfirmSignup  func(ConfirmSignupParams) templ.Component
	ConfirmReset   func(ConfirmResetParams) templ.Component
	TOTP           func(TOTPParams) templ.Component
	Requirements   func(RequirementsParams) templ.Component
}

// PageParams wraps a step in the document.
type PageParams struct {
	Title string
	Body  templ.Component
}

// FormParams is shared by every step form.
type FormParams struct {
	Action      string
	DismissURL  string
	BackURL     string
	Message     string
	Error       string
	FieldErrors map[string]string
}

type LoginParams struct {
	Form              FormParams
	Email             string
	SignupURL         string
	ForgotPasswordURL string
}

type SignupParams struct {
	Form            FormParams
	Values          SignupInput
	Requirements    RequirementsParams
	RequirementsURL string
}

type ForgotPasswordParams struct {
	Form  FormParams
	Email string
}

type ConfirmSignupParams struct {
	Form         FormParams
	Email        string
	ResendURL    string
	CountdownURL string
	Resend       ratelimiter.State
}

type ConfirmResetParams struct {
	Form            FormParams
	Email           string
	ResendURL       string
	CountdownURL    string
	Resend          ratelimiter.State
	Requirements    RequirementsParams
	RequirementsURL string
}

type TOTPParams struct {
	Form FormParams
}

// RequirementsParams is the live password checklist.
type RequirementsParams struct {
	Requirements password.Requirements
}

// DefaultViews returns the built-in templates.
func DefaultViews() *Views {
	return &Views{
		Page:           pageView,
		Login:          loginView,
		Signup:         signupView,
		ForgotPassword: forgotPasswordView,
		ConfirmSignup:  confirmSignupView,
		ConfirmReset:   confirmResetView,
		TOTP:           totpView,
		Requirements:   requirementsView,
	}
}

type htmlWriter struct {
	strings.Builder
}

func (b *htmlWriter) raw(parts ...string) {
	for _, p := range parts {
		b.WriteString(p)
	}
}

func (b *htmlWriter) text(s string) {
	b.WriteString(templ.EscapeString(s))
}

func component(fn func(ctx context.Context, b *htmlWriter) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b htmlWriter
		if err := fn(ctx, &b); err != nil {
			return err
		}
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func embed(ctx context.Context, b *htmlWriter, c templ.Component) error {
	if c == nil {
		return nil
	}
	return c.Render(ctx, b)
}

func pageView(p PageParams) templ.Component {
	return component(func(ctx context.Context, b *htmlWriter) error {
		b.raw(`<!doctype html><html lang="en"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<title>`)
		b.text(p.Title)
		b.raw(` | MNO Registry</title><script type="module" src="`, datastarScript, `"></script></head>`,
			`<body><main class="auth"><div id="toast-container"></div>`)
		if err := embed(ctx, b, p.Body); err != nil {
			return err
		}
		b.raw(`</main></body></html>`)
		return nil
	})
}

// openForm writes the step wrapper, banners and the form tag.
func openForm(b *htmlWriter, step Step, title string, f FormParams) {
	b.raw(`<div id="`, flowElementID, `" data-step="`, string(step), `"><h1>`)
	b.text(title)
	b.raw(`</h1>`)
	if f.Message != "" {
		b.raw(`<div class="banner banner-success" role="status">`)
		b.text(f.Message)
		b.raw(`</div>`)
	}
	if f.Error != "" {
		b.raw(`<div class="banner banner-error" role="alert">`)
		b.text(f.Error)
		if f.DismissURL != "" {
			b.raw(`<form method="post" action="`, templ.EscapeString(f.DismissURL), `" data-on:submit__prevent="@post('`,
				templ.EscapeString(f.DismissURL), `')"><button type="submit" aria-label="Dismiss">&times;</button></form>`)
		}
		b.raw(`</div>`)
	}
	if msg := f.FieldErrors[""]; msg != "" {
		b.raw(`<div class="banner banner-error" role="alert">`)
		b.text(msg)
		b.raw(`</div>`)
	}
	action := templ.EscapeString(f.Action)
	b.raw(`<form method="post" action="`, action, `" data-on:submit__prevent="@post('`, action, `', {contentType: 'form'})">`)
}

func closeForm(b *htmlWriter, submit string, f FormParams) {
	b.raw(`<button type="submit">`)
	b.text(submit)
	b.raw(`</button></form>`)
	closeStep(b, f.BackURL)
}

// closeStep writes the back link and ends the step wrapper.
func closeStep(b *htmlWriter, backURL string) {
	if backURL != "" {
		link(b, backURL, "Back to sign in")
	}
	b.raw(`</div>`)
}

func field(b *htmlWriter, name, label, kind, value string, errs map[string]string, extra string) {
	b.raw(`<label for="`, name, `">`)
	b.text(label)
	b.raw(`</label><input id="`, name, `" name="`, name, `" type="`, kind, `"`)
	if value != "" {
		b.raw(` value="`)
		b.text(value)
		b.raw(`"`)
	}
	if msg := errs[name]; msg != "" {
		b.raw(` aria-invalid="true" aria-describedby="`, name, `-error"`)
	}
	if extra != "" {
		b.raw(` `, extra)
	}
	b.raw(`>`)
	if msg := errs[name]; msg != "" {
		b.raw(`<p class="field-error" id="`, name, `-error">`)
		b.text(msg)
		b.raw(`</p>`)
	}
}

func codeField(b *htmlWriter, errs map[string]string) {
	field(b, "code", "Verification code", "text", "", errs,
		`inputmode="numeric" autocomplete="one-time-code" maxlength="7" required`)
}

func link(b *htmlWriter, url, label string) {
	u := templ.EscapeString(url)
	b.raw(`<form method="post" action="`, u, `" data-on:submit__prevent="@post('`, u, `')">`,
		`<button type="submit" class="link">`)
	b.text(label)
	b.raw(`</button></form>`)
}

func loginView(p LoginParams) templ.Component {
	return component(func(_ context.Context, b *htmlWriter) error {
		openForm(b, StepLogin, "Sign in", p.Form)
		field(b, "email", "Email", "email", p.Email, p.Form.FieldErrors, `autocomplete="email" required`)
		field(b, "password", "Password", "password", "", p.Form.FieldErrors, `autocomplete="current-password" required`)
		b.raw(`<button type="submit">Sign in</button></form>`)
		link(b, p.ForgotPasswordURL, "Forgot your password?")
		link(b, p.SignupURL, "Create an account")
		b.raw(`</div>`)
		return nil
	})
}

func signupView(p SignupParams) templ.Component {
	return component(func(ctx context.Context, b *htmlWriter) error {
		v, errs := p.Values, p.Form.FieldErrors
		openForm(b, StepSignup, "Create your account", p.Form)
		field(b, "first_name", "First name", "text", v.FirstName, errs, `autocomplete="given-name" maxlength="100" required`)
		field(b, "last_name", "Last name", "text", v.LastName, errs, `autocomplete="family-name" maxlength="100" required`)
		field(b, "email", "Email", "email", v.Email, errs, `autocomplete="email" required`)
		field(b, "birth_date", "Date of birth", "date", v.BirthDate, errs, `autocomplete="bday" required`)
		field(b, "password", "Password", "password", "", errs, passwordWatch(p.RequirementsURL))
		if err := embed(ctx, b, requirementsView(p.Requirements)); err != nil {
			return err
		}
		field(b, "confirm_password", "Confirm password", "password", "", errs, `autocomplete="new-password" required`)
		closeForm(b, "Create account", p.Form)
		return nil
	})
}

func passwordWatch(url string) string {
	if url == "" {
		return `autocomplete="new-password" required`
	}
	u := templ.EscapeString(url)
	return `autocomplete="new-password" required data-on:input__debounce.300ms="@post('` + u + `', {contentType: 'form'})"`
}

func forgotPasswordView(p ForgotPasswordParams) templ.Component {
	return component(func(_ context.Context, b *htmlWriter) error {
		openForm(b, StepForgotPassword, "Reset your password", p.Form)
		b.raw(`<p>Enter the email address of your account and we will send you a reset code.</p>`)
		field(b, "email", "Email", "email", p.Email, p.Form.FieldErrors, `autocomplete="email" required`)
		closeForm(b, "Send reset code", p.Form)
		return nil
	})
}

// resendBlock renders the resend button and, while a cooldown runs, the
// live countdown fed by the countdown stream.
func resendBlock(b *htmlWriter, resendURL, countdownURL string, st ratelimiter.State) {
	u := templ.EscapeString(resendURL)
	b.raw(`<div class="resend" data-signals="{countdown: `, fmt.Sprint(st.Countdown), `}"`)
	if st.Countdown > 0 && countdownURL != "" {
		b.raw(` data-init="@get('`, templ.EscapeString(countdownURL), `')"`)
	}
	b.raw(`><form method="post" action="`, u, `" data-on:submit__prevent="@post('`, u, `')">`,
		`<button type="submit" data-attr:disabled="$countdown > 0"`)
	if st.Countdown > 0 {
		b.raw(` disabled`)
	}
	b.raw(`>Resend code</button></form>`)
	if st.Countdown > 0 {
		b.raw(`<p class="countdown">You can request a new code in <span data-text="$countdown">`,
			fmt.Sprint(st.Countdown), `</span> seconds.</p>`)
	}
	b.raw(`</div>`)
}

func confirmSignupView(p ConfirmSignupParams) templ.Component {
	return component(func(_ context.Context, b *htmlWriter) error {
		openForm(b, StepConfirmSignup, "Confirm your email", p.Form)
		b.raw(`<p>We sent a 6-digit code to <strong>`)
		b.text(p.Email)
		b.raw(`</strong>.</p>`)
		codeField(b, p.Form.FieldErrors)
		b.raw(`<button type="submit">Confirm</button></form>`)
		resendBlock(b, p.ResendURL, p.CountdownURL, p.Resend)
		closeStep(b, p.Form.BackURL)
		return nil
	})
}

func confirmResetView(p ConfirmResetParams) templ.Component {
	return component(func(ctx context.Context, b *htmlWriter) error {
		errs := p.Form.FieldErrors
		openForm(b, StepConfirmPasswordReset, "Choose a new password", p.Form)
		b.raw(`<p>If an account exists for <strong>`)
		b.text(p.Email)
		b.raw(`</strong>, we sent it a 6-digit reset code.</p>`)
		codeField(b, errs)
		field(b, "password", "New password", "password", "", errs, passwordWatch(p.RequirementsURL))
		if err := embed(ctx, b, requirementsView(p.Requirements)); err != nil {
			return err
		}
		field(b, "confirm_password", "Confirm new password", "password", "", errs, `autocomplete="new-password" required`)
		b.raw(`<button type="submit">Reset password</button></form>`)
		resendBlock(b, p.ResendURL, p.CountdownURL, p.Resend)
		closeStep(b, p.Form.BackURL)
		return nil
	})
}

func totpView(p TOTPParams) templ.Component {
	return component(func(_ context.Context, b *htmlWriter) error {
		openForm(b, StepTOTP, "Two-step verification", p.Form)
		b.raw(`<p>Enter the 6-digit code from your authenticator app.</p>`)
		codeField(b, p.Form.FieldErrors)
		closeForm(b, "Verify", p.Form)
		return nil
	})
}

func requirementsView(p RequirementsParams) templ.Component {
	return component(func(_ context.Context, b *htmlWriter) error {
		r := p.Requirements
		b.raw(`<ul id="`, requirementsElementID, `" class="password-requirements" data-strength="`, fmt.Sprint(r.Strength()), `">`)
		items := []struct {
			key string
			ok  bool
		}{
			{password.RequirementMinLength, r.MinLength},
			{password.RequirementLowercase, r.Lowercase},
			{password.RequirementUppercase, r.Uppercase},
			{password.RequirementNumbers, r.Numbers},
			{password.RequirementSpecialChars, r.SpecialChars},
		}
		for _, it := range items {
			class := "unmet"
			if it.ok {
				class = "met"
			}
			b.raw(`<li class="`, class, `">`)
			b.text(password.Describe(it.key))
			b.raw(`</li>`)
		}
		b.raw(`</ul>`)
		return nil
	})
}
