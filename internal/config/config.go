package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v9"
	"gopkg.in/yaml.v3"
)

// Mail provider names.
const (
	MailProviderSES   = "ses"
	MailProviderGmail = "gmail"
)

// Config is the complete autopilot configuration. Values are resolved in
// order: built-in defaults, YAML file, environment variables. Command-line
// flags are applied by the cmd package on top.
type Config struct {
	OwnerEmail string `yaml:"owner-email" env:"AUTOPILOT_OWNER_EMAIL"`
	OwnerName  string `yaml:"owner-name" env:"AUTOPILOT_OWNER_NAME"`
	StateDir   string `yaml:"state-dir" env:"AUTOPILOT_STATE_DIR"`
	TimeZone   string `yaml:"time-zone" env:"AUTOPILOT_TZ"`
	LogFile    string `yaml:"log-file" env:"AUTOPILOT_LOG_FILE"`

	Gmail     GmailConfig     `yaml:"gmail"`
	YNAB      YNABConfig      `yaml:"ynab"`
	Todoist   TodoistConfig   `yaml:"todoist"`
	Toggl     TogglConfig     `yaml:"toggl"`
	Mail      MailConfig      `yaml:"mail"`
	LLM       LLMConfig       `yaml:"llm"`
	Assistant AssistantConfig `yaml:"assistant"`
	Review    ReviewConfig    `yaml:"review"`
	Replies   RepliesConfig   `yaml:"replies"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Rewards   RewardsConfig   `yaml:"rewards"`
}

// GmailConfig points at the OAuth client and token files for the mailbox.
type GmailConfig struct {
	Account         string `yaml:"account" env:"GMAIL_ACCOUNT"`
	CredentialsFile string `yaml:"credentials-file" env:"GMAIL_CREDENTIALS_FILE"`
	TokenFile       string `yaml:"token-file" env:"GMAIL_TOKEN_FILE"`
}

// YNABConfig configures the YNAB REST client.
type YNABConfig struct {
	Token    string `yaml:"token" env:"YNAB_TOKEN"`
	BudgetID string `yaml:"budget-id" env:"YNAB_BUDGET_ID"`
	BaseURL  string `yaml:"base-url" env:"YNAB_BASE_URL"`
}

// TodoistConfig configures the Todoist REST client.
type TodoistConfig struct {
	Token   string `yaml:"token" env:"TODOIST_TOKEN"`
	BaseURL string `yaml:"base-url" env:"TODOIST_BASE_URL"`
}

// TogglConfig configures the optional Toggl Track client.
type TogglConfig struct {
	Token   string `yaml:"token" env:"TOGGL_TOKEN"`
	BaseURL string `yaml:"base-url" env:"TOGGL_BASE_URL"`
}

// MailConfig selects the outbound mail provider.
type MailConfig struct {
	Provider  string `yaml:"provider" env:"AUTOPILOT_MAIL_PROVIDER"`
	From      string `yaml:"from" env:"AUTOPILOT_MAIL_FROM"`
	ReplyTo   string `yaml:"reply-to" env:"AUTOPILOT_MAIL_REPLY_TO"`
	SESRegion string `yaml:"ses-region" env:"AWS_REGION"`
}

// LLMConfig configures the external LLM command line tool.
type LLMConfig struct {
	Enabled bool          `yaml:"enabled" env:"AUTOPILOT_LLM_ENABLED"`
	Command string        `yaml:"command" env:"AUTOPILOT_LLM_COMMAND"`
	Model   string        `yaml:"model" env:"AUTOPILOT_LLM_MODEL"`
	Timeout time.Duration `yaml:"timeout" env:"AUTOPILOT_LLM_TIMEOUT"`
}

// AssistantConfig configures the email assistant.
type AssistantConfig struct {
	Query          string   `yaml:"query" env:"ASSISTANT_QUERY"`
	MaxMessages    int      `yaml:"max-messages" env:"ASSISTANT_MAX_MESSAGES"`
	VIPs           []string `yaml:"vips" env:"ASSISTANT_VIPS" envSeparator:","`
	UrgentKeywords []string `yaml:"urgent-keywords"`
	LabelPrefix    string   `yaml:"label-prefix" env:"ASSISTANT_LABEL_PREFIX"`
	LLMThreshold   float64  `yaml:"llm-threshold" env:"ASSISTANT_LLM_THRESHOLD"`
	Retention      Duration `yaml:"retention" env:"ASSISTANT_RETENTION"`
	MaxBodyChars   int      `yaml:"max-body-chars"`
	DraftStyle     string   `yaml:"draft-style"`
}

// ReviewConfig configures the Todoist daily review.
type ReviewConfig struct {
	Filter        string `yaml:"filter" env:"REVIEW_FILTER"`
	SubjectPrefix string `yaml:"subject-prefix" env:"REVIEW_SUBJECT_PREFIX"`
	UpcomingDays  int    `yaml:"upcoming-days" env:"REVIEW_UPCOMING_DAYS"`
	Recipient     string `yaml:"recipient" env:"REVIEW_RECIPIENT"`
}

// RepliesConfig configures the reply-command poller.
type RepliesConfig struct {
	Lookback  string   `yaml:"lookback" env:"REPLIES_LOOKBACK"`
	Retention Duration `yaml:"retention" env:"REPLIES_RETENTION"`
}

// DashboardConfig configures the budget dashboard HTTP server.
type DashboardConfig struct {
	Addr     string   `yaml:"addr" env:"DASHBOARD_ADDR"`
	CacheTTL Duration `yaml:"cache-ttl" env:"DASHBOARD_CACHE_TTL"`
}

// RewardsConfig lists the credit cards and how spending maps to reward categories.
type RewardsConfig struct {
	Cards []CardConfig `yaml:"cards"`
	Rules []RuleConfig `yaml:"rules"`
}

// CardConfig describes one rewards card.
type CardConfig struct {
	Name            string             `yaml:"name"`
	Issuer          string             `yaml:"issuer"`
	AccountID       string             `yaml:"ynab-account-id"`
	BaseRate        float64            `yaml:"base-rate"`
	Categories      map[string]float64 `yaml:"categories"`
	PointValueCents float64            `yaml:"point-value-cents"`
	AnnualFee       float64            `yaml:"annual-fee"`
}

// RuleConfig maps YNAB categories and payees onto a reward category.
type RuleConfig struct {
	Category       string   `yaml:"category"`
	YNABCategories []string `yaml:"ynab-categories"`
	Payees         []string `yaml:"payees"`
}

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	return &Config{
		StateDir: defaultStateDir(),
		TimeZone: "Local",
		Gmail: GmailConfig{
			Account: "default",
		},
		YNAB: YNABConfig{
			BudgetID: "last-used",
			BaseURL:  "https://api.ynab.com/v1",
		},
		Todoist: TodoistConfig{
			BaseURL: "https://api.todoist.com/rest/v2",
		},
		Toggl: TogglConfig{
			BaseURL: "https://api.track.toggl.com/api/v9",
		},
		Mail: MailConfig{
			Provider:  MailProviderSES,
			SESRegion: "us-east-1",
		},
		LLM: LLMConfig{
			Command: "claude",
			Timeout: 2 * time.Minute,
		},
		Assistant: AssistantConfig{
			Query:        "in:inbox is:unread",
			MaxMessages:  25,
			LabelPrefix:  "assistant",
			LLMThreshold: 0.6,
			Retention:    Duration(30 * 24 * time.Hour),
			MaxBodyChars: 4000,
		},
		Review: ReviewConfig{
			Filter:        "overdue | today | next 7 days",
			SubjectPrefix: "Daily review",
			UpcomingDays:  7,
		},
		Replies: RepliesConfig{
			Lookback:  "2d",
			Retention: Duration(14 * 24 * time.Hour),
		},
		Dashboard: DashboardConfig{
			Addr:     ":8081",
			CacheTTL: Duration(5 * time.Minute),
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = filepath.Join(homeDir(), ".config")
	}
	return filepath.Join(dir, "autopilot", "config.yaml")
}

// Load reads the config file at path and applies environment overrides.
// An empty path means DefaultPath; a missing default file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// defaults and env only
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.StateDir = expandHome(cfg.StateDir)
	cfg.LogFile = expandHome(cfg.LogFile)
	cfg.Gmail.CredentialsFile = expandHome(cfg.Gmail.CredentialsFile)
	cfg.Gmail.TokenFile = expandHome(cfg.Gmail.TokenFile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings shared by every command.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid time-zone %q: %w", c.TimeZone, err)
	}
	switch c.Mail.Provider {
	case MailProviderSES, MailProviderGmail:
	default:
		return fmt.Errorf("invalid mail provider %q, must be one of: ses, gmail", c.Mail.Provider)
	}
	if c.Assistant.LLMThreshold < 0 || c.Assistant.LLMThreshold > 1 {
		return fmt.Errorf("assistant llm-threshold must be between 0.0 and 1.0, got %f", c.Assistant.LLMThreshold)
	}
	return nil
}

// Location returns the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.TimeZone == "" || c.TimeZone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.TimeZone)
}

// StatePath returns the path of a state file inside the state directory.
func (c *Config) StatePath(name string) string {
	return filepath.Join(c.StateDir, name)
}

// GmailTokenFile returns the OAuth token file for the configured mailbox.
func (c *Config) GmailTokenFile() string {
	if c.Gmail.TokenFile != "" {
		return c.Gmail.TokenFile
	}
	return c.StatePath("google-" + c.Gmail.Account + ".json")
}

// ReviewRecipient returns where the daily review is sent.
func (c *Config) ReviewRecipient() string {
	if c.Review.Recipient != "" {
		return c.Review.Recipient
	}
	return c.OwnerEmail
}

// RequireOwner fails when no owner email is configured.
func (c *Config) RequireOwner() error {
	if c.OwnerEmail == "" {
		return errors.New("owner-email is required (config file or AUTOPILOT_OWNER_EMAIL)")
	}
	return nil
}

// RequireYNAB fails when the YNAB token is missing.
func (c *Config) RequireYNAB() error {
	if c.YNAB.Token == "" {
		return errors.New("ynab token is required (config file or YNAB_TOKEN)")
	}
	return nil
}

// RequireTodoist fails when the Todoist token is missing.
func (c *Config) RequireTodoist() error {
	if c.Todoist.Token == "" {
		return errors.New("todoist token is required (config file or TODOIST_TOKEN)")
	}
	return nil
}

// RequireGmail fails when the Gmail OAuth client credentials are missing.
func (c *Config) RequireGmail() error {
	if c.Gmail.CredentialsFile == "" {
		return errors.New("gmail credentials-file is required (config file or GMAIL_CREDENTIALS_FILE)")
	}
	return nil
}

// RequireMail fails when the outbound mail settings are incomplete.
func (c *Config) RequireMail() error {
	if c.Mail.Provider == MailProviderSES && c.Mail.From == "" {
		return errors.New("mail from address is required for the ses provider")
	}
	if c.Mail.Provider == MailProviderGmail {
		return c.RequireGmail()
	}
	return nil
}

func defaultStateDir() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "autopilot")
	}
	return filepath.Join(homeDir(), ".local", "state", "autopilot")
}

func expandHome(path string) string {
	if path == "~" {
		return homeDir()
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		return filepath.Join(homeDir(), rest)
	}
	return path
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	// Windows fallback
	return os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
}
