package replies

import (
	"regexp"
	"strings"
)

var (
	attributionLine  = regexp.MustCompile(`(?i)^on\s.+\swrote:\s*$`)
	attributionStart = regexp.MustCompile(`(?i)^on\s.+\d`)
	originalMessage  = regexp.MustCompile(`(?i)^-{2,}\s*(original message|forwarded message)\s*-{2,}\s*$`)
	headerBlock      = regexp.MustCompile(`(?i)^(from|sent|date|to|subject):\s`)
	mobileSignature  = regexp.MustCompile(`(?i)^sent from my \w+`)
)

// StripQuoted returns the part of a reply the sender actually wrote: it cuts
// at the quoted-reply attribution ("On ... wrote:", possibly wrapped over two
// lines), an "Original Message" separator, an Outlook style From: header
// block, a signature separator or a "Sent from my ..." footer, and drops
// ">"-quoted lines.
func StripQuoted(body string) string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	lines := strings.Split(body, "\n")

	var kept []string
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if attributionLine.MatchString(trimmed) {
			break
		}
		if attributionStart.MatchString(trimmed) && i+1 < len(lines) &&
			strings.HasSuffix(strings.TrimSpace(lines[i+1]), "wrote:") {
			break
		}
		if originalMessage.MatchString(trimmed) || mobileSignature.MatchString(trimmed) {
			break
		}
		if line == "-- " || trimmed == "--" {
			break
		}
		if headerBlock.MatchString(trimmed) && strings.HasPrefix(strings.ToLower(trimmed), "from:") &&
			i+1 < len(lines) && headerBlock.MatchString(strings.TrimSpace(lines[i+1])) {
			break
		}
		if strings.HasPrefix(trimmed, ">") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
