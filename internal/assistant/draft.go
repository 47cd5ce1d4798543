package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/teemow/autopilot/internal/gmail"
	"github.com/teemow/autopilot/internal/llm"
)

// ErrNoLLM is returned by Draft when no LLM is configured.
var ErrNoLLM = errors.New("no LLM configured")

// DrafterOptions configures a Drafter.
type DrafterOptions struct {
	OwnerName    string
	Style        string
	Signature    string
	MaxBodyChars int
}

// Drafter writes reply drafts with the LLM.
type Drafter struct {
	completer llm.Completer
	opts      DrafterOptions
}

// NewDrafter creates a Drafter. completer may be nil, in which case every
// Draft call fails with ErrNoLLM.
func NewDrafter(completer llm.Completer, opts DrafterOptions) *Drafter {
	if opts.MaxBodyChars <= 0 {
		opts.MaxBodyChars = 4000
	}
	if opts.Signature == "" {
		opts.Signature = opts.OwnerName
	}
	return &Drafter{completer: completer, opts: opts}
}

// Draft returns the body of a reply to email.
func (d *Drafter) Draft(ctx context.Context, email gmail.Email) (string, error) {
	if d == nil || d.completer == nil {
		return "", ErrNoLLM
	}

	prompt, err := renderPrompt("draft.tmpl", email, d.opts.OwnerName, d.opts.Style, d.opts.Signature, d.opts.MaxBodyChars)
	if err != nil {
		return "", fmt.Errorf("failed to render draft prompt: %w", err)
	}

	out, err := d.completer.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to draft reply: %w", err)
	}

	body := strings.TrimSpace(stripFence(out))
	if body == "" {
		return "", errors.New("llm returned an empty draft")
	}
	return body, nil
}

// stripFence removes a surrounding markdown code fence, which some models add
// even when asked not to.
func stripFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") || !strings.HasSuffix(t, "```") || len(t) < 6 {
		return s
	}
	t = strings.TrimSuffix(strings.TrimPrefix(t, "```"), "```")
	if nl := strings.IndexByte(t, '\n'); nl >= 0 && !strings.Contains(t[:nl], " ") {
		t = t[nl+1:]
	}
	return t
}
