package profile

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/metisnation/registry/pkg/totp"
	"github.com/metisnation/registry/pkg/validator"
	"github.com/metisnation/registry/svc/registry"
)

const (
	profileFormID = "profile-form"
	securityID    = "security"
)

// Views renders the signed-in pages.
type Views struct {
	Page        func(title string, body templ.Component) templ.Component
	ProfileForm func(ProfileFormParams) templ.Component
	Security    func(SecurityParams) templ.Component
	TOTPSetup   func(TOTPSetupParams) templ.Component
}

type ProfileFormParams struct {
	Action      string
	Values      ProfileInput
	GenderTypes []registry.GenderType
	Message     string
	Error       string
	FieldErrors map[string]string
}

type SecurityParams struct {
	TOTPEnabled bool
	SetupURL    string
	DisableURL  string
	SignOutURL  string
	Message     string
}

type TOTPSetupParams struct {
	Enrollment totp.Enrollment
	VerifyURL  string
	RestartURL string
	Error      string
}

func DefaultViews() *Views {
	return &Views{
		Page:        pageView,
		ProfileForm: profileFormView,
		Security:    securityView,
		TOTPSetup:   totpSetupView,
	}
}

func render(fn func(ctx context.Context, b *strings.Builder) error) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		if err := fn(ctx, &b); err != nil {
			return err
		}
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func write(b *strings.Builder, parts ...string) {
	for _, p := range parts {
		b.WriteString(p)
	}
}

func esc(s string) string { return templ.EscapeString(s) }

func pageView(title string, body templ.Component) templ.Component {
	return render(func(ctx context.Context, b *strings.Builder) error {
		write(b, `<!doctype html><html lang="en"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1"><title>`, esc(title),
			` | MNO Registry</title><script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.5/bundles/datastar.js"></script>`,
			`</head><body><main class="dashboard"><div id="toast-container"></div>`)
		if err := body.Render(ctx, b); err != nil {
			return err
		}
		write(b, `</main></body></html>`)
		return nil
	})
}

// dashboard stacks the profile form and the security panel.
func dashboard(v *Views, p ProfileFormParams, s SecurityParams) templ.Component {
	return render(func(ctx context.Context, b *strings.Builder) error {
		write(b, `<h1>Your registry profile</h1>`)
		if err := v.ProfileForm(p).Render(ctx, b); err != nil {
			return err
		}
		return v.Security(s).Render(ctx, b)
	})
}

func banner(b *strings.Builder, class, msg string) {
	if msg != "" {
		write(b, `<div class="banner banner-`, class, `" role="status">`, esc(msg), `</div>`)
	}
}

func input(b *strings.Builder, name, label, kind, value string, errs map[string]string) {
	write(b, `<label for="`, name, `">`, esc(label), `</label><input id="`, name, `" name="`, name,
		`" type="`, kind, `" value="`, esc(value), `">`)
	if msg := errs[name]; msg != "" {
		write(b, `<p class="field-error">`, esc(msg), `</p>`)
	}
}

func postAttrs(url string) string {
	u := esc(url)
	return `method="post" action="` + u + `" data-on:submit__prevent="@post('` + u + `', {contentType: 'form'})"`
}

func profileFormView(p ProfileFormParams) templ.Component {
	return render(func(_ context.Context, b *strings.Builder) error {
		v := p.Values
		write(b, `<section id="`, profileFormID, `"><h2>Personal information</h2>`)
		banner(b, "success", p.Message)
		banner(b, "error", p.Error)
		write(b, `<form `, postAttrs(p.Action), `>`)
		input(b, "first_name", "First name", "text", v.FirstName, p.FieldErrors)
		input(b, "last_name", "Last name", "text", v.LastName, p.FieldErrors)
		input(b, "birth_date", "Date of birth", "date", v.BirthDate, p.FieldErrors)

		write(b, `<label for="gender_type_id">Gender</label><select id="gender_type_id" name="gender_type_id"><option value="">Prefer not to say</option>`)
		for _, g := range p.GenderTypes {
			id := strconv.Itoa(int(g.ID))
			write(b, `<option value="`, id, `"`)
			if g.ID == v.GenderTypeID {
				write(b, ` selected`)
			}
			write(b, `>`, esc(g.Name), `</option>`)
		}
		write(b, `</select>`)
		if msg := p.FieldErrors["gender_type_id"]; msg != "" {
			write(b, `<p class="field-error">`, esc(msg), `</p>`)
		}

		input(b, "phone", "Phone", "tel", v.Phone, p.FieldErrors)
		write(b, `<button type="submit">Save</button></form></section>`)
		return nil
	})
}

func securityView(p SecurityParams) templ.Component {
	return render(func(_ context.Context, b *strings.Builder) error {
		write(b, `<section id="`, securityID, `"><h2>Security</h2>`)
		banner(b, "success", p.Message)
		if p.TOTPEnabled {
			write(b, `<p>Two-step verification is on.</p><form `, postAttrs(p.DisableURL), `><button type="submit">Turn off</button></form>`)
		} else {
			write(b, `<p>Protect your account with an authenticator app.</p><a href="`, esc(p.SetupURL), `">Set up two-step verification</a>`)
		}
		write(b, `<form `, postAttrs(p.SignOutURL), `><button type="submit">Sign out</button></form></section>`)
		return nil
	})
}

func totpSetupView(p TOTPSetupParams) templ.Component {
	return render(func(_ context.Context, b *strings.Builder) error {
		write(b, `<section id="`, securityID, `"><h2>Set up two-step verification</h2>`)
		banner(b, "error", p.Error)
		if p.Enrollment.QRCode != "" {
			write(b, `<p>Scan this code with your authenticator app.</p><img alt="QR code" src="`, esc(p.Enrollment.QRCode), `">`,
				`<p>Or enter this key: <code>`, esc(p.Enrollment.Secret), `</code></p>`)
		} else {
			write(b, `<p><a href="`, esc(p.RestartURL), `">Show the QR code again</a></p>`)
		}
		write(b, `<form `, postAttrs(p.VerifyURL), `>`)
		input(b, "code", "Verification code", "text", "", nil)
		write(b, `<button type="submit">Verify</button></form></section>`)
		return nil
	})
}

func formValues(p registry.Profile) ProfileInput {
	in := ProfileInput{
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		GenderTypeID: p.GenderTypeID,
		Phone:        p.Phone,
	}
	if !p.BirthDate.IsZero() {
		in.BirthDate = p.BirthDate.Format(validator.DateLayout)
	}
	return in
}
