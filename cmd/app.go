package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/option"

	"github.com/teemow/autopilot/internal/config"
	"github.com/teemow/autopilot/internal/gmail"
	"github.com/teemow/autopilot/internal/google"
	"github.com/teemow/autopilot/internal/instrumentation"
	"github.com/teemow/autopilot/internal/llm"
	"github.com/teemow/autopilot/internal/logging"
	"github.com/teemow/autopilot/internal/mailer"
	"github.com/teemow/autopilot/internal/rewards"
	"github.com/teemow/autopilot/internal/todoist"
	"github.com/teemow/autopilot/internal/toggl"
	"github.com/teemow/autopilot/internal/ynab"
)

// State files, relative to the configured state directory.
const (
	processedMessagesFile = "processed-messages.json"
	processedRepliesFile  = "processed-replies.json"
	taskMappingsFile      = "task-mappings.json"
)

// app is what every command builds first: the loaded config, the process
// logger and the instrumentation provider. Clients are created on demand so
// each command only needs the credentials it uses.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	provider *instrumentation.Provider
	instr    instrumentation.Config
	closeLog func() error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.Setup(logging.Options{Debug: debugMode, File: cfg.LogFile})
	if err != nil {
		return nil, err
	}

	instr := instrumentation.DefaultConfig()
	instr.ServiceVersion = version
	provider, err := instrumentation.NewProvider(ctx, instr)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		instr:    instr,
		closeLog: closeLog,
	}, nil
}

// Close flushes telemetry and closes the log file.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.provider.Shutdown(ctx); err != nil {
		a.logger.Warn("instrumentation shutdown failed", logging.Err(err))
	}
	_ = a.closeLog()
}

func (a *app) metrics() *instrumentation.Metrics {
	return a.provider.Metrics()
}

func (a *app) location() *time.Location {
	// Load already validated the zone.
	loc, err := a.cfg.Location()
	if err != nil {
		return time.Local
	}
	return loc
}

func (a *app) ynabClient() (*ynab.Client, error) {
	if err := a.cfg.RequireYNAB(); err != nil {
		return nil, err
	}
	return ynab.NewClient(ynab.Config{
		Token:   a.cfg.YNAB.Token,
		BaseURL: a.cfg.YNAB.BaseURL,
		Metrics: a.metrics(),
	})
}

func (a *app) todoistClient() (*todoist.Client, error) {
	if err := a.cfg.RequireTodoist(); err != nil {
		return nil, err
	}
	return todoist.NewClient(todoist.Config{
		Token:   a.cfg.Todoist.Token,
		BaseURL: a.cfg.Todoist.BaseURL,
		Metrics: a.metrics(),
	})
}

// togglClient returns nil without a token; the time section of the review
// is optional.
func (a *app) togglClient() (*toggl.Client, error) {
	if a.cfg.Toggl.Token == "" {
		return nil, nil
	}
	return toggl.NewClient(toggl.Config{
		Token:   a.cfg.Toggl.Token,
		BaseURL: a.cfg.Toggl.BaseURL,
		Metrics: a.metrics(),
	})
}

func (a *app) gmailClient(ctx context.Context) (*gmail.Client, error) {
	if err := a.cfg.RequireGmail(); err != nil {
		return nil, err
	}
	httpClient, err := google.HTTPClient(ctx, a.cfg.Gmail.CredentialsFile, a.cfg.GmailTokenFile())
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate Gmail account %s: %w", a.cfg.Gmail.Account, err)
	}
	return gmail.NewClient(ctx, option.WithHTTPClient(httpClient))
}

// mailer returns the configured outbound mailer. gmailClient may be nil
// unless the provider is gmail.
func (a *app) mailer(ctx context.Context, gmailClient *gmail.Client) (mailer.Mailer, error) {
	if err := a.cfg.RequireMail(); err != nil {
		return nil, err
	}
	m, err := mailer.New(ctx, a.cfg, gmailClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create mailer: %w", err)
	}
	return m, nil
}

// completer returns nil when the LLM is disabled, so callers fall back to
// their rules.
func (a *app) completer() llm.Completer {
	if !a.cfg.LLM.Enabled {
		return nil
	}
	return llm.NewCLIRunner(a.cfg.LLM.Command, a.cfg.LLM.Model, a.cfg.LLM.Timeout)
}

func (a *app) rewardsTracker() (*rewards.Tracker, error) {
	t, err := rewards.New(a.cfg.Rewards)
	if err != nil {
		return nil, fmt.Errorf("invalid rewards config: %w", err)
	}
	return t, nil
}
