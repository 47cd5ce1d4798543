package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Completer produces a completion for a prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CLIError describes a failed invocation of the LLM command line tool.
type CLIError struct {
	Op     string
	Stderr string
	Err    error
}

func (e *CLIError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("llm %s: %v (stderr: %s)", e.Op, e.Err, truncate(e.Stderr, 500))
	}
	return fmt.Sprintf("llm %s: %v", e.Op, e.Err)
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// CLIRunner runs an LLM CLI in non-interactive print mode:
//
//	<command> [args...] -p <prompt> --output-format json [--model <model>]
type CLIRunner struct {
	Command string
	Args    []string
	Model   string
	Timeout time.Duration
}

// NewCLIRunner returns a runner for command. An empty command means "claude".
func NewCLIRunner(command, model string, timeout time.Duration) *CLIRunner {
	if command == "" {
		command = "claude"
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &CLIRunner{
		Command: command,
		Model:   model,
		Timeout: timeout,
	}
}

// envelope is the --output-format json result object.
type envelope struct {
	Type    string `json:"type"`
	Subtype string `json:"subtype"`
	Result  string `json:"result"`
	IsError bool   `json:"is_error"`
}

// Complete runs the CLI with prompt and returns the result text.
func (r *CLIRunner) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", &CLIError{Op: "complete", Err: errors.New("prompt cannot be empty")}
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	args := append([]string{}, r.Args...)
	args = append(args, "-p", prompt, "--output-format", "json")
	if r.Model != "" {
		args = append(args, "--model", r.Model)
	}

	cmd := exec.CommandContext(ctx, r.Command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return "", &CLIError{Op: "complete", Err: fmt.Errorf("timed out after %v: %w", r.Timeout, ctx.Err())}
		case errors.Is(ctx.Err(), context.Canceled):
			return "", &CLIError{Op: "complete", Err: ctx.Err()}
		}
		return "", &CLIError{Op: "complete", Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}

	return parseOutput(stdout.Bytes())
}

func parseOutput(out []byte) (string, error) {
	text := strings.TrimSpace(string(out))
	if text == "" {
		return "", &CLIError{Op: "parse", Err: errors.New("empty response")}
	}

	var env envelope
	if err := json.Unmarshal([]byte(text), &env); err != nil || env.Type == "" {
		// Not the JSON envelope; older CLIs and wrappers print the bare result.
		return text, nil
	}
	if env.IsError {
		return "", &CLIError{Op: "complete", Err: fmt.Errorf("cli reported error: %s", truncate(env.Result, 500))}
	}

	result := strings.TrimSpace(env.Result)
	if result == "" {
		return "", &CLIError{Op: "parse", Err: errors.New("no result text in response")}
	}
	return result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
