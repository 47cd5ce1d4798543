package mailer

import (
	"context"

	"github.com/teemow/autopilot/internal/gmail"
)

// GmailSender is the part of gmail.Client used by GmailMailer.
type GmailSender interface {
	SendEmail(ctx context.Context, msg *gmail.EmailMessage) (string, error)
}

// GmailMailer sends mail from the authenticated Gmail account.
type GmailMailer struct {
	client  GmailSender
	replyTo string
}

// NewGmailMailer wraps client.
func NewGmailMailer(client GmailSender, replyTo string) *GmailMailer {
	return &GmailMailer{client: client, replyTo: replyTo}
}

// Send delivers msg through the Gmail API.
func (m *GmailMailer) Send(ctx context.Context, msg Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}
	return m.client.SendEmail(ctx, &gmail.EmailMessage{
		To:        msg.To,
		ReplyTo:   firstNonEmpty(msg.ReplyTo, m.replyTo),
		Subject:   msg.Subject,
		Text:      msg.Text,
		HTML:      msg.HTML,
		Automated: msg.Kind,
	})
}
