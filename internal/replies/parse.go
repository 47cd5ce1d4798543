package replies

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Action is a reply command verb.
type Action string

const (
	ActionComplete   Action = "done"
	ActionReschedule Action = "defer"
	ActionDelete     Action = "delete"
	ActionPriority   Action = "priority"
	ActionDelegate   Action = "delegate"
	ActionAdd        Action = "add"
)

// DefaultDeferDate is used by defer commands without a date.
const DefaultDeferDate = "tomorrow"

// maxRange bounds "1-N" ranges so a typo cannot touch every task.
const maxRange = 50

// Command is one parsed reply line.
type Command struct {
	Action  Action
	Numbers []int
	// When is the Todoist due string for ActionReschedule and ActionAdd.
	When string
	// Priority is the display priority 1 (P1) to 4 for ActionPriority.
	Priority int
	// Content is the new task text for ActionAdd.
	Content string
	Line    string
}

// ParseResult holds the commands found in a reply and the lines that were
// not understood.
type ParseResult struct {
	Commands     []Command
	Unrecognized []string
}

var (
	priorityVerb = regexp.MustCompile(`^p([1-4])$`)
	dueSeparator = regexp.MustCompile(`(?i)\s+due\s+`)
	plainNumber  = regexp.MustCompile(`^\d+$`)
)

var durationUnits = map[string]bool{
	"day": true, "days": true,
	"week": true, "weeks": true,
	"month": true, "months": true,
	"year": true, "years": true,
}

// Parse strips quoted text from body and parses one command per line.
// Commands are case-insensitive.
func Parse(body string) ParseResult {
	var res ParseResult
	for _, raw := range strings.Split(StripQuoted(body), "\n") {
		line := strings.TrimSpace(raw)
		line = strings.TrimLeft(line, "-*• ")
		if line == "" {
			continue
		}
		cmd, err := ParseLine(line)
		if err != nil {
			res.Unrecognized = append(res.Unrecognized, line)
			continue
		}
		res.Commands = append(res.Commands, cmd)
	}
	return res
}

// ParseLine parses a single command.
func ParseLine(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty line")
	}
	verb := strings.ToLower(strings.TrimSuffix(fields[0], ":"))
	rest := fields[1:]
	cmd := Command{Line: line}

	switch verb {
	case "done", "complete", "completed", "d", "x":
		cmd.Action = ActionComplete
		return withNumbers(cmd, rest)

	case "defer", "snooze", "postpone", "reschedule", "move":
		cmd.Action = ActionReschedule
		nums, tail := leadingNumbers(rest)
		if n := len(rest) - len(tail); n > 0 && len(tail) > 0 && durationUnits[strings.ToLower(tail[0])] && plainNumber.MatchString(rest[n-1]) {
			// "defer 1 3 days": the last number is the amount.
			nums, _ = leadingNumbers(rest[:n-1])
			tail = rest[n-1:]
		}
		if len(nums) == 0 {
			return Command{}, fmt.Errorf("no task numbers")
		}
		cmd.Numbers = nums
		if len(tail) > 0 {
			switch strings.ToLower(tail[0]) {
			case "to", "until", "till":
				tail = tail[1:]
			}
		}
		cmd.When = strings.Join(tail, " ")
		if cmd.When == "" {
			cmd.When = DefaultDeferDate
		}
		return cmd, nil

	case "delete", "del", "remove", "rm":
		cmd.Action = ActionDelete
		return withNumbers(cmd, rest)

	case "delegate", "comet":
		cmd.Action = ActionDelegate
		return withNumbers(cmd, rest)

	case "priority", "prio":
		cmd.Action = ActionPriority
		if len(rest) < 2 {
			return Command{}, fmt.Errorf("priority needs task numbers and a level")
		}
		level, ok := parseLevel(rest[len(rest)-1])
		if !ok {
			return Command{}, fmt.Errorf("invalid priority %q", rest[len(rest)-1])
		}
		cmd.Priority = level
		return withNumbers(cmd, rest[:len(rest)-1])

	case "add", "new", "create":
		cmd.Action = ActionAdd
		text := strings.TrimSpace(line[len(fields[0]):])
		if loc := dueSeparator.FindAllStringIndex(text, -1); len(loc) > 0 {
			last := loc[len(loc)-1]
			cmd.When = strings.TrimSpace(text[last[1]:])
			text = strings.TrimSpace(text[:last[0]])
		}
		if text == "" {
			return Command{}, fmt.Errorf("add needs task content")
		}
		cmd.Content = text
		return cmd, nil
	}

	if m := priorityVerb.FindStringSubmatch(verb); m != nil {
		cmd.Action = ActionPriority
		cmd.Priority, _ = strconv.Atoi(m[1])
		return withNumbers(cmd, rest)
	}
	return Command{}, fmt.Errorf("unknown command %q", verb)
}

func parseLevel(s string) (int, bool) {
	s = strings.TrimPrefix(strings.ToLower(s), "p")
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 4 {
		return 0, false
	}
	return n, true
}

func withNumbers(cmd Command, tokens []string) (Command, error) {
	nums, tail := leadingNumbers(tokens)
	if len(nums) == 0 {
		return Command{}, fmt.Errorf("no task numbers")
	}
	if len(tail) > 0 {
		return Command{}, fmt.Errorf("unexpected %q", strings.Join(tail, " "))
	}
	cmd.Numbers = nums
	return cmd, nil
}

// leadingNumbers consumes item numbers ("3", "#3", "1,2", "4-6", "and") from
// the front of tokens and returns the rest.
func leadingNumbers(tokens []string) ([]int, []string) {
	var nums []int
	seen := make(map[int]bool)
	add := func(n int) {
		if !seen[n] {
			seen[n] = true
			nums = append(nums, n)
		}
	}

	i := 0
tokens:
	for ; i < len(tokens); i++ {
		tok := strings.ToLower(tokens[i])
		if tok == "and" || tok == "&" || tok == "," {
			continue
		}
		parts := strings.Split(tok, ",")
		var parsed []int
		for _, p := range parts {
			if p == "" {
				continue
			}
			got, ok := parseNumberOrRange(p)
			if !ok {
				break tokens
			}
			parsed = append(parsed, got...)
		}
		for _, n := range parsed {
			add(n)
		}
	}
	return nums, tokens[i:]
}

func parseNumberOrRange(s string) ([]int, bool) {
	s = strings.TrimPrefix(s, "#")
	if lo, hi, ok := strings.Cut(s, "-"); ok {
		a, errA := strconv.Atoi(strings.TrimPrefix(lo, "#"))
		b, errB := strconv.Atoi(strings.TrimPrefix(hi, "#"))
		if errA != nil || errB != nil || a < 1 || b < a || b-a >= maxRange {
			return nil, false
		}
		out := make([]int, 0, b-a+1)
		for n := a; n <= b; n++ {
			out = append(out, n)
		}
		return out, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return nil, false
	}
	return []int{n}, true
}
