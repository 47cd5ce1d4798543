package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/teemow/autopilot/internal/llm"
	"github.com/teemow/autopilot/internal/logging"
	"github.com/teemow/autopilot/internal/todoist"
)

// Category is a coarse task category.
type Category string

// Known categories. CategoryOther means no keyword matched.
const (
	CategoryCommunication Category = "communication"
	CategoryErrand        Category = "errand"
	CategoryResearch      Category = "research"
	CategoryFinance       Category = "finance"
	CategoryHealth        Category = "health"
	CategoryHome          Category = "home"
	CategoryWork          Category = "work"
	CategoryAdmin         Category = "admin"
	CategoryOther         Category = "other"
)

// Analysis sources.
const (
	SourceRules = "rules"
	SourceLLM   = "llm"
)

// DelegateLabel marks tasks handed to the Comet browser agent.
const DelegateLabel = "comet"

// Analysis is the analyzer's view of one task.
type Analysis struct {
	Category   Category `json:"category"`
	Suggestion string   `json:"suggestion"`
	Delegable  bool     `json:"delegable"`
	Source     string   `json:"source"`
}

type rule struct {
	category   Category
	pattern    *regexp.Regexp
	suggestion string
}

func keywords(words ...string) *regexp.Regexp {
	return regexp.MustCompile(`\b(` + strings.Join(words, "|") + `)\b`)
}

// Rules are evaluated in order; the first match wins.
var rules = []rule{
	{CategoryFinance, keywords("pay", "bill", "invoice", "tax(es)?", "budget", "ynab", "refund", "bank", "transfer", "insurance", "rent"),
		"Check the budget first, then pay or schedule it in one sitting."},
	{CategoryHealth, keywords("doctor", "dentist", "pharmacy", "prescription", "appointment", "vet", "therapy", "gym", "workout"),
		"Book it now while it is on your mind."},
	{CategoryCommunication, keywords("call", "email", "e-mail", "text", "reply", "respond", "message", "write to", "follow up", "ping"),
		"Block ten minutes and send it before anything else."},
	{CategoryResearch, keywords("research", "compare", "look up", "look into", "investigate", "find out", "read up"),
		"Delegate a first pass to Comet and decide from its summary."},
	{CategoryErrand, keywords("buy", "pick up", "drop off", "return", "groceries", "store", "shop", "post office", "mail package"),
		"Batch it with other errands on one trip."},
	{CategoryHome, keywords("clean", "fix", "repair", "laundry", "garden", "vacuum", "dishes", "trash", "install", "organize"),
		"Pick a 30 minute slot this weekend."},
	{CategoryWork, keywords("meeting", "review", "deploy", "prepare", "presentation", "report", "draft", "slides", "project", "deadline"),
		"Timebox it in your next focus block."},
	{CategoryAdmin, keywords("renew", "register", "form", "passport", "license", "subscription", "cancel", "sign up", "update address"),
		"Do it in the next admin batch."},
}

const otherSuggestion = "Rewrite it as one concrete next action."

var delegablePattern = keywords("research", "find", "compare", "book", "order", "look up", "look into")

// Analyzer categorizes tasks and suggests how to tackle them. The LLM is only
// consulted when no keyword rule matches.
type Analyzer struct {
	llm    llm.Completer
	logger *slog.Logger
}

// New creates an Analyzer. completer may be nil.
func New(completer llm.Completer, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{llm: completer, logger: logging.WithOperation(logger, "analyzer")}
}

// Analyze returns the analysis for task. It never fails: LLM errors fall back
// to the rule result.
func (a *Analyzer) Analyze(ctx context.Context, task todoist.Task) Analysis {
	result := Classify(task)
	if result.Category != CategoryOther || a.llm == nil {
		return result
	}

	refined, err := a.ask(ctx, task)
	if err != nil {
		a.logger.Debug("llm analysis failed, using rules",
			logging.TaskID(task.ID),
			logging.Err(err))
		return result
	}

	if refined.Category != "" && IsKnown(refined.Category) {
		result.Category = refined.Category
	}
	if s := strings.TrimSpace(refined.Suggestion); s != "" {
		result.Suggestion = s
	}
	result.Delegable = result.Delegable || refined.Delegable
	result.Source = SourceLLM
	return result
}

// Classify applies the keyword rules only.
func Classify(task todoist.Task) Analysis {
	text := strings.ToLower(task.Content + "\n" + task.Description)

	result := Analysis{
		Category:   CategoryOther,
		Suggestion: otherSuggestion,
		Source:     SourceRules,
	}
	for _, r := range rules {
		if r.pattern.MatchString(text) {
			result.Category = r.category
			result.Suggestion = r.suggestion
			break
		}
	}
	result.Delegable = task.HasLabel(DelegateLabel) || delegablePattern.MatchString(strings.ToLower(task.Content))
	return result
}

// IsKnown reports whether c is one of the named categories.
func IsKnown(c Category) bool {
	if c == CategoryOther {
		return true
	}
	for _, r := range rules {
		if r.category == c {
			return true
		}
	}
	return false
}

func (a *Analyzer) ask(ctx context.Context, task todoist.Task) (Analysis, error) {
	out, err := a.llm.Complete(ctx, prompt(task))
	if err != nil {
		return Analysis{}, err
	}
	var refined Analysis
	if err := llm.DecodeJSON(out, &refined); err != nil {
		return Analysis{}, err
	}
	refined.Category = Category(strings.ToLower(strings.TrimSpace(string(refined.Category))))
	return refined, nil
}

func prompt(task todoist.Task) string {
	var b strings.Builder
	b.WriteString("Categorize this to-do item and suggest the single best next step.\n")
	b.WriteString("Categories: communication, errand, research, finance, health, home, work, admin, other.\n")
	b.WriteString("Mark delegable=true if a browser agent could do it alone (research, booking, ordering).\n")
	b.WriteString(`Answer with JSON only: {"category": "...", "suggestion": "...", "delegable": false}`)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Task: %s\n", task.Content)
	if task.Description != "" {
		fmt.Fprintf(&b, "Notes: %s\n", task.Description)
	}
	return b.String()
}
