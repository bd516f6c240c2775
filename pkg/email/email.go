package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/a-h/templ"

	"github.com/metisnation/registry/pkg/validator"
)

var (
	ErrFailedToSendEmail = errors.New("email: failed to send")
	ErrInvalidConfig     = errors.New("email: invalid config")
	ErrInvalidMessage    = errors.New("email: invalid message")
)

// Config holds email service configuration. Without Postmark tokens the
// application falls back to DevSender writing into DevDir.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"registry@metisnation.org"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"registry@metisnation.org"`
	DevDir               string `env:"EMAIL_DEV_DIR" envDefault:"tmp/emails"`
}

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Message is one outbound email.
type Message struct {
	To       string
	Subject  string
	BodyHTML string
	Tag      string
}

func (m Message) Validate() error {
	err := validator.Apply(
		validator.Required("to", m.To),
		validator.ValidEmail("to", m.To),
		validator.Required("subject", m.Subject),
		validator.Required("body", m.BodyHTML),
	)
	if err != nil {
		return errors.Join(ErrInvalidMessage, err)
	}
	return nil
}

// Render renders a templ component to a string.
func Render(ctx context.Context, c templ.Component) (string, error) {
	var sb strings.Builder
	if err := c.Render(ctx, &sb); err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return sb.String(), nil
}
