package gmail

import (
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRaw(t *testing.T, raw string) *mail.Message {
	t.Helper()
	data, err := base64.URLEncoding.DecodeString(raw)
	require.NoError(t, err)
	msg, err := mail.ReadMessage(strings.NewReader(string(data)))
	require.NoError(t, err)
	return msg
}

func TestEmailMessage_Validate(t *testing.T) {
	tests := []struct {
		name    string
		msg     EmailMessage
		wantErr string
	}{
		{"missing recipient", EmailMessage{Subject: "s", Text: "b"}, "at least one recipient"},
		{"missing subject", EmailMessage{To: []string{"a@b.c"}, Text: "b"}, "subject is required"},
		{"missing body", EmailMessage{To: []string{"a@b.c"}, Subject: "s"}, "body is required"},
		{"html only", EmailMessage{To: []string{"a@b.c"}, Subject: "s", HTML: "<p>b</p>"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestRaw_PlainText(t *testing.T) {
	m := &EmailMessage{
		To:      []string{"a@example.com", "b@example.com"},
		ReplyTo: "bot@example.com",
		Subject: "Grüße aus München",
		Text:    "hello",
	}
	raw, err := m.Raw()
	require.NoError(t, err)

	msg := decodeRaw(t, raw)
	assert.Equal(t, "a@example.com, b@example.com", msg.Header.Get("To"))
	assert.Equal(t, "bot@example.com", msg.Header.Get("Reply-To"))
	assert.Empty(t, msg.Header.Get(AutomatedHeader))
	assert.True(t, strings.HasPrefix(msg.Header.Get("Subject"), "=?UTF-8?b?"))

	subject, err := new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "Grüße aus München", subject)

	assert.Contains(t, msg.Header.Get("Content-Type"), "text/plain")
	body, err := io.ReadAll(msg.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
}

func TestRaw_Alternative(t *testing.T) {
	m := &EmailMessage{
		To:      []string{"a@example.com"},
		Subject: "Daily review",
		Text:    "plain body",
		HTML:    "<p>html body</p>",
	}
	raw, err := m.Raw()
	require.NoError(t, err)

	msg := decodeRaw(t, raw)
	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/alternative", mediaType)

	r := multipart.NewReader(msg.Body, params["boundary"])
	var parts []string
	for {
		p, err := r.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(p)
		require.NoError(t, err)
		parts = append(parts, p.Header.Get("Content-Type")+"|"+string(data))
	}
	assert.Equal(t, []string{
		`text/plain; charset="UTF-8"|plain body`,
		`text/html; charset="UTF-8"|<p>html body</p>`,
	}, parts)
}

func TestRaw_AutomatedHeader(t *testing.T) {
	m := &EmailMessage{To: []string{"me@example.com"}, Subject: "Re: Daily review", Text: "ok", Automated: "confirmation"}
	raw, err := m.Raw()
	require.NoError(t, err)

	msg := decodeRaw(t, raw)
	assert.Equal(t, "confirmation", msg.Header.Get(AutomatedHeader))
}

func TestReplyTo_Threading(t *testing.T) {
	original := Email{
		ThreadID:   "t1",
		From:       "Jane <jane@example.com>",
		Subject:    "Lunch?",
		MessageID:  "<m2@example.com>",
		References: "<m1@example.com>",
	}

	reply := ReplyTo(original, "Sure")
	assert.Equal(t, []string{"Jane <jane@example.com>"}, reply.To)
	assert.Equal(t, "Re: Lunch?", reply.Subject)
	assert.Equal(t, "<m2@example.com>", reply.InReplyTo)
	assert.Equal(t, "<m1@example.com> <m2@example.com>", reply.References)
	assert.Equal(t, "t1", reply.ThreadID)

	original.Subject = "RE: Lunch?"
	original.ReplyTo = "team@example.com"
	original.References = ""
	reply = ReplyTo(original, "Sure")
	assert.Equal(t, "RE: Lunch?", reply.Subject)
	assert.Equal(t, []string{"team@example.com"}, reply.To)
	assert.Equal(t, "<m2@example.com>", reply.References)

	raw, err := reply.Raw()
	require.NoError(t, err)
	msg := decodeRaw(t, raw)
	assert.Equal(t, "<m2@example.com>", msg.Header.Get("In-Reply-To"))
}

func TestEncodeRFC2047(t *testing.T) {
	assert.Equal(t, "plain ascii", encodeRFC2047("plain ascii"))
	assert.NotEqual(t, "Über", encodeRFC2047("Über"))
}
