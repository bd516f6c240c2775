package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"

	"github.com/metisnation/registry/pkg/validator"
)

// PostmarkSender delivers through Postmark.
type PostmarkSender struct {
	client *postmark.Client
	from   string
	reply  string
}

// PostmarkOption configures a PostmarkSender.
type PostmarkOption func(*postmark.Client)

// WithBaseURL points the client at another API host.
func WithBaseURL(url string) PostmarkOption {
	return func(c *postmark.Client) { c.BaseURL = url }
}

// NewPostmarkSender validates cfg and builds the client.
func NewPostmarkSender(cfg Config, opts ...PostmarkOption) (*PostmarkSender, error) {
	err := validator.Apply(
		validator.Required("POSTMARK_SERVER_TOKEN", cfg.PostmarkServerToken),
		validator.Required("POSTMARK_ACCOUNT_TOKEN", cfg.PostmarkAccountToken),
		validator.ValidEmail("SENDER_EMAIL", cfg.SenderEmail),
		validator.ValidEmail("SUPPORT_EMAIL", cfg.SupportEmail),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	client := postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken)
	for _, opt := range opts {
		opt(client)
	}
	return &PostmarkSender{client: client, from: cfg.SenderEmail, reply: cfg.SupportEmail}, nil
}

// Send replies go to the support address; opens and HTML links are tracked.
func (s *PostmarkSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:       s.from,
		ReplyTo:    s.reply,
		To:         msg.To,
		Subject:    msg.Subject,
		Tag:        msg.Tag,
		HTMLBody:   msg.BodyHTML,
		TrackOpens: true,
		TrackLinks: "HtmlOnly",
	})
	if err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrFailedToSendEmail, fmt.Errorf("postmark error %d: %s", resp.ErrorCode, resp.Message))
	}
	return nil
}
