package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/teemow/autopilot/internal/config"
	"github.com/teemow/autopilot/internal/gmail"
)

// Kinds of mail autopilot sends. The kind travels in the gmail.AutomatedHeader
// so the assistant and the reply poller can recognize their own output.
const (
	KindEscalation   = "escalation"
	KindReview       = "review"
	KindConfirmation = "confirmation"
)

// Message is an outbound notification or report email.
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
	ReplyTo string
	Kind    string
}

// Validate checks that msg can be delivered.
func (m Message) Validate() error {
	if len(m.To) == 0 {
		return fmt.Errorf("at least one recipient is required")
	}
	for _, to := range m.To {
		if strings.TrimSpace(to) == "" {
			return fmt.Errorf("recipient cannot be empty")
		}
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("subject is required")
	}
	if m.HTML == "" && m.Text == "" {
		return fmt.Errorf("an HTML or text body is required")
	}
	return nil
}

// Mailer delivers a message and returns the provider's message ID.
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// New returns the mailer selected by cfg.Mail.Provider. gmailClient is only
// used, and then required, for the gmail provider.
func New(ctx context.Context, cfg *config.Config, gmailClient *gmail.Client) (Mailer, error) {
	switch cfg.Mail.Provider {
	case config.MailProviderSES:
		return NewSESMailer(ctx, cfg.Mail.SESRegion, cfg.Mail.From, cfg.Mail.ReplyTo)
	case config.MailProviderGmail:
		if gmailClient == nil {
			return nil, fmt.Errorf("gmail mail provider requires a Gmail client")
		}
		return NewGmailMailer(gmailClient, cfg.Mail.ReplyTo), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Mail.Provider)
	}
}
