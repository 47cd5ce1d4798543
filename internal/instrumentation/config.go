package instrumentation

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
)

// Config holds the configuration for OpenTelemetry instrumentation. All
// fields are read from the environment by DefaultConfig.
type Config struct {
	// ServiceName is the name of the service (default: autopilot)
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"autopilot"`

	// ServiceVersion is the version of the service
	ServiceVersion string `env:"-"`

	// ServiceInstanceID is the unique instance identifier (default: hostname)
	ServiceInstanceID string `env:"OTEL_SERVICE_INSTANCE_ID"`

	// Enabled determines if instrumentation is active (default: true)
	Enabled bool `env:"INSTRUMENTATION_ENABLED" envDefault:"true"`

	// MetricsExporter is one of "prometheus", "otlp", "stdout"
	MetricsExporter string `env:"METRICS_EXPORTER" envDefault:"prometheus"`

	// TracingExporter is one of "otlp", "stdout", "none"
	TracingExporter string `env:"TRACING_EXPORTER" envDefault:"none"`

	// OTLPEndpoint is the OTLP collector endpoint without scheme, e.g. "localhost:4318"
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// OTLPInsecure switches OTLP export to plain HTTP. Local development only.
	OTLPInsecure bool `env:"OTEL_EXPORTER_OTLP_INSECURE"`

	// TraceSamplingRate is the sampling rate for traces (0.0 to 1.0)
	TraceSamplingRate float64 `env:"OTEL_TRACES_SAMPLER_ARG" envDefault:"0.1"`

	// AuditLogging configures audit logging of MCP tool calls.
	AuditLogging AuditLoggingConfig
}

// AuditLoggingConfig holds configuration for audit logging.
type AuditLoggingConfig struct {
	// Enabled determines if audit logging is active (default: true)
	Enabled bool `env:"AUDIT_LOGGING_ENABLED" envDefault:"true"`

	// IncludeArgs logs tool arguments (payees, amounts, task text). Off by
	// default because the arguments are personal financial data.
	IncludeArgs bool `env:"AUDIT_LOGGING_INCLUDE_ARGS"`
}

// DefaultConfig reads the instrumentation configuration from the environment.
// Malformed values fall back to the defaults.
func DefaultConfig() Config {
	var config Config
	if err := env.Parse(&config); err != nil {
		config = Config{}
		_ = env.ParseWithOptions(&config, env.Options{Environment: map[string]string{}})
	}
	config.ServiceVersion = "unknown"
	return config
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		return fmt.Errorf("trace sampling rate must be between 0.0 and 1.0, got %f", c.TraceSamplingRate)
	}

	switch c.MetricsExporter {
	case "", ExporterPrometheus, ExporterOTLP, ExporterStdout:
	default:
		return fmt.Errorf("invalid metrics exporter %q, must be one of: prometheus, otlp, stdout", c.MetricsExporter)
	}

	switch c.TracingExporter {
	case "", ExporterOTLP, ExporterStdout, ExporterNone:
	default:
		return fmt.Errorf("invalid tracing exporter %q, must be one of: otlp, stdout, none", c.TracingExporter)
	}

	if (c.TracingExporter == ExporterOTLP || c.MetricsExporter == ExporterOTLP) && c.OTLPEndpoint == "" {
		return fmt.Errorf("OTLP endpoint is required when using an OTLP exporter")
	}

	return nil
}

// Constants for metric label values.
const (
	// Status values
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
	StatusDryRun  = "dry_run"

	// Upstream service names
	ServiceYNAB    = "ynab"
	ServiceTodoist = "todoist"
	ServiceToggl   = "toggl"
	ServiceGmail   = "gmail"
	ServiceSES     = "ses"
	ServiceLLM     = "llm"
	ServiceRewards = "rewards"

	// Exporter types
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterStdout     = "stdout"
	ExporterNone       = "none"

	// Metric recording intervals
	DefaultMetricInterval = 10 * time.Second
)
