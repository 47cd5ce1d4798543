package assistant

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"text/template"

	"github.com/teemow/autopilot/internal/gmail"
	"github.com/teemow/autopilot/internal/llm"
	"github.com/teemow/autopilot/internal/logging"
)

// Classification sources.
const (
	SourceRules = "rules"
	SourceLLM   = "llm"
)

// DefaultUrgentKeywords are matched against the subject when no keywords are
// configured.
var DefaultUrgentKeywords = []string{
	"urgent", "asap", "emergency", "immediately", "action required", "time sensitive",
}

//go:embed prompts/*.tmpl
var promptFS embed.FS

var prompts = template.Must(template.ParseFS(promptFS, "prompts/*.tmpl"))

// Classification is the tier assigned to a message and why.
type Classification struct {
	Tier       Tier    `json:"tier"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// ClassifierOptions configures a Classifier.
type ClassifierOptions struct {
	OwnerEmail     string
	OwnerName      string
	VIPs           []string
	UrgentKeywords []string
	// Threshold is the rule confidence below which the LLM is consulted.
	Threshold    float64
	MaxBodyChars int
}

// Classifier assigns tiers to messages.
type Classifier struct {
	completer llm.Completer
	opts      ClassifierOptions
	vips      map[string]bool
	urgent    *regexp.Regexp
	logger    *slog.Logger
}

var (
	automatedSender = regexp.MustCompile(`(?i)^(no-?reply|do-?not-?reply|notifications?|alerts?|mailer-daemon|bounce[s]?|news(letter)?|updates?|info|billing|receipts?)([+.\-_].*)?@`)
	automatedTopic  = regexp.MustCompile(`(?i)\b(receipt|invoice|order confirmation|your order|has shipped|shipping confirmation|newsletter|statement is (ready|available)|verification code|password reset|payment received|subscription)\b`)
	requestPattern  = regexp.MustCompile(`(?i)\b(can you|could you|would you|will you|please|let me know|are you (free|available)|do you have|what do you think|thoughts\?)`)
)

// NewClassifier creates a Classifier. completer may be nil, in which case
// only the rules are used.
func NewClassifier(completer llm.Completer, opts ClassifierOptions, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts.UrgentKeywords) == 0 {
		opts.UrgentKeywords = DefaultUrgentKeywords
	}
	if opts.MaxBodyChars <= 0 {
		opts.MaxBodyChars = 4000
	}

	vips := make(map[string]bool, len(opts.VIPs))
	for _, v := range opts.VIPs {
		vips[strings.ToLower(strings.TrimSpace(v))] = true
	}

	quoted := make([]string, 0, len(opts.UrgentKeywords))
	for _, k := range opts.UrgentKeywords {
		if k = strings.TrimSpace(k); k != "" {
			quoted = append(quoted, regexp.QuoteMeta(k))
		}
	}

	return &Classifier{
		completer: completer,
		opts:      opts,
		vips:      vips,
		urgent:    regexp.MustCompile(`(?i)\b(` + strings.Join(quoted, "|") + `)\b`),
		logger:    logging.WithOperation(logger, "assistant.classify"),
	}
}

// Classify returns the tier for email. It never fails: LLM errors fall back to
// the rule result.
func (c *Classifier) Classify(ctx context.Context, email gmail.Email) Classification {
	result := c.Rules(email)
	if c.completer == nil || result.Confidence >= c.opts.Threshold {
		return result
	}

	refined, err := c.ask(ctx, email)
	if err != nil {
		c.logger.Warn("llm classification failed, using rules",
			logging.MessageID(email.ID),
			logging.Err(err))
		return result
	}
	return refined
}

// Rules classifies email without the LLM.
func (c *Classifier) Rules(email gmail.Email) Classification {
	from := strings.ToLower(email.FromAddress)

	if c.isVIP(from) {
		return Classification{Tier: TierEscalate, Reason: "VIP sender", Confidence: 0.95, Source: SourceRules}
	}
	if m := c.urgent.FindString(email.Subject); m != "" {
		return Classification{Tier: TierEscalate, Reason: "urgent keyword in subject: " + strings.ToLower(m), Confidence: 0.8, Source: SourceRules}
	}
	if email.Bulk {
		return Classification{Tier: TierHandle, Reason: "mailing list or bulk mail", Confidence: 0.9, Source: SourceRules}
	}
	if automatedSender.MatchString(from) {
		return Classification{Tier: TierHandle, Reason: "automated sender", Confidence: 0.85, Source: SourceRules}
	}
	if automatedTopic.MatchString(email.Subject) {
		return Classification{Tier: TierHandle, Reason: "receipt or notification", Confidence: 0.7, Source: SourceRules}
	}

	body := firstLines(email.Body, 20)
	if strings.Contains(body, "?") || requestPattern.MatchString(body) || strings.HasSuffix(strings.TrimSpace(email.Subject), "?") {
		conf := 0.7
		if !c.addressedToOwner(email) {
			conf = 0.5
		}
		return Classification{Tier: TierDraft, Reason: "direct question or request", Confidence: conf, Source: SourceRules}
	}

	return Classification{Tier: TierFlag, Reason: "no rule matched", Confidence: 0.3, Source: SourceRules}
}

func (c *Classifier) isVIP(from string) bool {
	if from == "" {
		return false
	}
	if c.vips[from] {
		return true
	}
	if at := strings.LastIndexByte(from, '@'); at >= 0 {
		return c.vips[from[at:]] || c.vips[from[at+1:]]
	}
	return false
}

func (c *Classifier) addressedToOwner(email gmail.Email) bool {
	if c.opts.OwnerEmail == "" {
		return true
	}
	return strings.Contains(strings.ToLower(email.To), strings.ToLower(c.opts.OwnerEmail))
}

type llmClassification struct {
	Tier       int     `json:"tier"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

func (c *Classifier) ask(ctx context.Context, email gmail.Email) (Classification, error) {
	prompt, err := renderPrompt("classify.tmpl", email, c.opts.OwnerName, "", "", c.opts.MaxBodyChars)
	if err != nil {
		return Classification{}, err
	}

	out, err := c.completer.Complete(ctx, prompt)
	if err != nil {
		return Classification{}, err
	}

	var got llmClassification
	if err := llm.DecodeJSON(out, &got); err != nil {
		return Classification{}, err
	}
	tier := Tier(got.Tier)
	if !tier.Valid() {
		return Classification{}, &InvalidTierError{Tier: got.Tier}
	}

	conf := got.Confidence
	switch {
	case conf < 0:
		conf = 0
	case conf > 1:
		conf = 1
	}
	return Classification{Tier: tier, Reason: strings.TrimSpace(got.Reason), Confidence: conf, Source: SourceLLM}, nil
}

// InvalidTierError is returned when the LLM answers with a tier outside 1-4.
type InvalidTierError struct {
	Tier int
}

func (e *InvalidTierError) Error() string {
	return fmt.Sprintf("llm returned invalid tier %d", e.Tier)
}

type promptData struct {
	Owner     string
	Style     string
	Signature string
	From      string
	Subject   string
	Body      string
}

func renderPrompt(name string, email gmail.Email, owner, style, signature string, maxBody int) (string, error) {
	if owner == "" {
		owner = "the owner of this mailbox"
	}
	from := email.From
	if from == "" {
		from = email.FromAddress
	}
	var buf bytes.Buffer
	err := prompts.ExecuteTemplate(&buf, name, promptData{
		Owner:     owner,
		Style:     style,
		Signature: signature,
		From:      from,
		Subject:   email.Subject,
		Body:      truncate(email.Body, maxBody),
	})
	return buf.String(), err
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n]) + "\n[truncated]"
}

func firstLines(s string, n int) string {
	lines := strings.SplitN(s, "\n", n+1)
	if len(lines) > n {
		lines = lines[:n]
	}
	var kept []string
	for _, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), ">") {
			continue
		}
		kept = append(kept, l)
	}
	return strings.Join(kept, "\n")
}
