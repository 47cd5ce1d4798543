package gmail

import (
	"net/mail"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	gmail "google.golang.org/api/gmail/v1"
)

// AutomatedHeader marks mail sent by autopilot itself. Its value names the
// kind of message, e.g. "escalation".
const AutomatedHeader = "X-Autopilot"

// Email is the flattened view of a Gmail message used by the assistant and
// the reply poller.
type Email struct {
	ID          string
	ThreadID    string
	From        string
	FromName    string
	FromAddress string
	ReplyTo     string
	To          string
	Subject     string
	Date        string
	MessageID   string
	References  string
	Snippet     string
	Body        string
	LabelIDs    []string

	// Bulk is set when the message carries mailing-list or bulk headers.
	Bulk        bool
	Unsubscribe []UnsubscribeMethod

	// Automated is the AutomatedHeader value; empty for mail autopilot did
	// not send.
	Automated string
}

// UnsubscribeMethod is one entry of a List-Unsubscribe header.
type UnsubscribeMethod struct {
	Type string // "mailto" or "http"
	URL  string
}

// ToEmail flattens msg.
func ToEmail(msg *gmail.Message) Email {
	from := HeaderValue(msg, "From")
	name, addr := ParseAddress(from)

	e := Email{
		ID:          msg.Id,
		ThreadID:    msg.ThreadId,
		From:        from,
		FromName:    name,
		FromAddress: addr,
		ReplyTo:     HeaderValue(msg, "Reply-To"),
		To:          HeaderValue(msg, "To"),
		Subject:     HeaderValue(msg, "Subject"),
		Date:        HeaderValue(msg, "Date"),
		MessageID:   HeaderValue(msg, "Message-ID"),
		References:  HeaderValue(msg, "References"),
		Snippet:     html.UnescapeString(msg.Snippet),
		Body:        PlainTextBody(msg),
		LabelIDs:    msg.LabelIds,
		Automated:   HeaderValue(msg, AutomatedHeader),
	}
	if e.MessageID == "" {
		e.MessageID = HeaderValue(msg, "Message-Id")
	}

	if lu := HeaderValue(msg, "List-Unsubscribe"); lu != "" {
		e.Unsubscribe = parseListUnsubscribe(lu)
		e.Bulk = true
	}
	if HeaderValue(msg, "List-Id") != "" {
		e.Bulk = true
	}
	switch strings.ToLower(HeaderValue(msg, "Precedence")) {
	case "bulk", "list", "junk":
		e.Bulk = true
	}
	if v := strings.ToLower(HeaderValue(msg, "Auto-Submitted")); v != "" && v != "no" {
		e.Bulk = true
	}
	return e
}

// HeaderValue extracts a header value from a Gmail message. Header names are
// matched case-insensitively.
func HeaderValue(m *gmail.Message, header string) string {
	if m == nil || m.Payload == nil {
		return ""
	}
	for _, h := range m.Payload.Headers {
		if strings.EqualFold(h.Name, header) {
			return h.Value
		}
	}
	return ""
}

// ParseAddress splits a From-style header into display name and lowercase
// address. Unparseable input is returned as the address.
func ParseAddress(s string) (name, addr string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	a, err := mail.ParseAddress(s)
	if err != nil {
		if i := strings.LastIndex(s, "<"); i >= 0 {
			if j := strings.LastIndex(s, ">"); j > i {
				return strings.Trim(strings.TrimSpace(s[:i]), `"`), strings.ToLower(strings.TrimSpace(s[i+1 : j]))
			}
		}
		return "", strings.ToLower(s)
	}
	return a.Name, strings.ToLower(a.Address)
}

// PlainTextBody returns the message body as plain text. text/plain parts are
// preferred; otherwise the first text/html part is stripped of markup.
func PlainTextBody(m *gmail.Message) string {
	if m == nil || m.Payload == nil {
		return ""
	}

	var plain, rich string
	walkParts(m.Payload, func(p *gmail.MessagePart) {
		if p.Body == nil || p.Body.Data == "" || p.Filename != "" {
			return
		}
		mimeType := strings.ToLower(p.MimeType)
		switch {
		case plain == "" && strings.HasPrefix(mimeType, "text/plain"):
			if s, err := decodeBody(p.Body.Data); err == nil {
				plain = s
			}
		case rich == "" && strings.HasPrefix(mimeType, "text/html"):
			if s, err := decodeBody(p.Body.Data); err == nil {
				rich = s
			}
		}
	})

	if plain != "" {
		return normalizeNewlines(plain)
	}
	if rich != "" {
		return StripHTML(rich)
	}
	return ""
}

// StripHTML reduces an HTML document to readable text, one line per block.
// Comments, attributes and the content of script, style and head elements
// never reach the output. Blockquote lines are prefixed with "> " the way a
// plain-text reply quotes them.
func StripHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return ""
	}
	w := &textWriter{}
	w.walk(doc)
	w.flush()
	return strings.Join(w.lines, "\n")
}

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Ul: true, atom.Ol: true,
	atom.Tr: true, atom.Table: true, atom.Blockquote: true, atom.Pre: true, atom.Hr: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
}

type textWriter struct {
	lines []string
	line  strings.Builder
	quote int
	pre   int
}

func (w *textWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.text(n.Data)
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Head, atom.Script, atom.Style, atom.Template, atom.Noscript, atom.Title:
			return
		case atom.Br:
			w.flush()
			return
		}
	}

	block := n.Type == html.ElementNode && blockElements[n.DataAtom]
	if block {
		w.flush()
	}
	if n.DataAtom == atom.Blockquote {
		w.quote++
		defer func() { w.quote-- }()
	}
	if n.DataAtom == atom.Pre {
		w.pre++
		defer func() { w.pre-- }()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
	if n.DataAtom == atom.Td || n.DataAtom == atom.Th {
		w.line.WriteString(" ")
	}
	if block {
		w.flush()
	}
}

func (w *textWriter) text(s string) {
	if w.pre == 0 {
		w.line.WriteString(collapseSpace(s))
		return
	}
	for i, part := range strings.Split(normalizeNewlines(s), "\n") {
		if i > 0 {
			w.flush()
		}
		w.line.WriteString(part)
	}
}

func (w *textWriter) flush() {
	line := strings.TrimSpace(w.line.String())
	w.line.Reset()
	if line == "" {
		return
	}
	w.lines = append(w.lines, strings.Repeat("> ", w.quote)+line)
}

// collapseSpace folds whitespace runs into single spaces, keeping one space
// at either end so adjacent inline text does not run together.
func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		if s != "" {
			return " "
		}
		return ""
	}
	out := strings.Join(fields, " ")
	if strings.TrimLeftFunc(s, unicode.IsSpace) != s {
		out = " " + out
	}
	if strings.TrimRightFunc(s, unicode.IsSpace) != s {
		out += " "
	}
	return out
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// parseListUnsubscribe parses the List-Unsubscribe header value, e.g.
// <mailto:unsub@example.com?subject=unsubscribe>, <https://example.com/unsub>
func parseListUnsubscribe(header string) []UnsubscribeMethod {
	var methods []UnsubscribeMethod
	for _, part := range strings.Split(header, "<") {
		end := strings.Index(part, ">")
		if end == -1 {
			continue
		}
		url := strings.TrimSpace(part[:end])
		switch {
		case strings.HasPrefix(url, "mailto:"):
			methods = append(methods, UnsubscribeMethod{Type: "mailto", URL: url})
		case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
			methods = append(methods, UnsubscribeMethod{Type: "http", URL: url})
		}
	}
	return methods
}

func walkParts(part *gmail.MessagePart, fn func(*gmail.MessagePart)) {
	if part == nil {
		return
	}
	fn(part)
	for _, sub := range part.Parts {
		walkParts(sub, fn)
	}
}
