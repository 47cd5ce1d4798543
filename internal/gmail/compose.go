package gmail

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// EmailMessage is an outbound message. At least one of Text or HTML must be
// set; when both are, a multipart/alternative body is built.
type EmailMessage struct {
	To         []string
	Cc         []string
	ReplyTo    string
	Subject    string
	Text       string
	HTML       string
	InReplyTo  string
	References string
	ThreadID   string
	// Automated is written as the AutomatedHeader when set.
	Automated string
}

// Validate checks the fields Gmail needs to accept the message.
func (m *EmailMessage) Validate() error {
	if len(m.To) == 0 {
		return fmt.Errorf("at least one recipient is required")
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("subject is required")
	}
	if m.Text == "" && m.HTML == "" {
		return fmt.Errorf("body is required")
	}
	return nil
}

// ReplyTo builds a plain-text reply to original threaded with In-Reply-To and
// References.
func ReplyTo(original Email, body string) *EmailMessage {
	to := original.ReplyTo
	if to == "" {
		to = original.From
	}

	subject := original.Subject
	if !strings.HasPrefix(strings.ToLower(subject), "re:") {
		subject = "Re: " + subject
	}

	references := original.MessageID
	if original.References != "" {
		references = strings.TrimSpace(original.References + " " + original.MessageID)
	}

	return &EmailMessage{
		To:         []string{to},
		Subject:    subject,
		Text:       body,
		InReplyTo:  original.MessageID,
		References: references,
		ThreadID:   original.ThreadID,
	}
}

// Raw renders the message in RFC 2822 format, base64url encoded as the Gmail
// API expects.
func (m *EmailMessage) Raw() (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}

	var b strings.Builder
	writeHeader := func(name, value string) {
		if value == "" {
			return
		}
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\r\n")
	}

	writeHeader("To", strings.Join(m.To, ", "))
	writeHeader("Cc", strings.Join(m.Cc, ", "))
	writeHeader("Reply-To", m.ReplyTo)
	writeHeader("Subject", encodeRFC2047(m.Subject))
	writeHeader("In-Reply-To", m.InReplyTo)
	writeHeader("References", m.References)
	writeHeader(AutomatedHeader, m.Automated)
	writeHeader("MIME-Version", "1.0")

	switch {
	case m.Text != "" && m.HTML != "":
		var body bytes.Buffer
		w := multipart.NewWriter(&body)
		for _, part := range []struct{ ctype, content string }{
			{"text/plain; charset=\"UTF-8\"", m.Text},
			{"text/html; charset=\"UTF-8\"", m.HTML},
		} {
			pw, err := w.CreatePart(textproto.MIMEHeader{"Content-Type": {part.ctype}})
			if err != nil {
				return "", fmt.Errorf("failed to build message part: %w", err)
			}
			if _, err := pw.Write([]byte(part.content)); err != nil {
				return "", fmt.Errorf("failed to build message part: %w", err)
			}
		}
		if err := w.Close(); err != nil {
			return "", fmt.Errorf("failed to build message: %w", err)
		}
		writeHeader("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", w.Boundary()))
		b.WriteString("\r\n")
		b.Write(body.Bytes())
	case m.HTML != "":
		writeHeader("Content-Type", "text/html; charset=\"UTF-8\"")
		b.WriteString("\r\n")
		b.WriteString(m.HTML)
	default:
		writeHeader("Content-Type", "text/plain; charset=\"UTF-8\"")
		b.WriteString("\r\n")
		b.WriteString(m.Text)
	}

	return base64.URLEncoding.EncodeToString([]byte(b.String())), nil
}

// encodeRFC2047 encodes non-ASCII header values (umlauts in subjects).
func encodeRFC2047(s string) string {
	for _, r := range s {
		if r > 127 {
			return mime.BEncoding.Encode("UTF-8", s)
		}
	}
	return s
}
