package email

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// WelcomeData fills the welcome message.
type WelcomeData struct {
	FirstName    string
	DashboardURL string
	SupportEmail string
}

const welcomeTag = "welcome"

// Welcome renders the post-confirmation welcome email.
func Welcome(d WelcomeData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		name := d.FirstName
		if name == "" {
			name = "citizen"
		}
		_, err := io.WriteString(w, `<!doctype html><html><body style="font-family:sans-serif">`+
			`<h1>Welcome to the Métis Nation of Ontario Registry</h1>`+
			`<p>Tânshi `+templ.EscapeString(name)+`,</p>`+
			`<p>Your email address is confirmed and your registry account is ready.</p>`+
			`<p><a href="`+templ.EscapeString(d.DashboardURL)+`">Go to your dashboard</a></p>`+
			`<p>Questions? Write to <a href="mailto:`+templ.EscapeString(d.SupportEmail)+`">`+
			templ.EscapeString(d.SupportEmail)+`</a>.</p>`+
			`</body></html>`)
		return err
	})
}

// WelcomeMessage renders Welcome into a Message for to.
func WelcomeMessage(ctx context.Context, to string, d WelcomeData) (Message, error) {
	body, err := Render(ctx, Welcome(d))
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:       to,
		Subject:  "Welcome to the MNO Registry",
		BodyHTML: body,
		Tag:      welcomeTag,
	}, nil
}
