// Package logging provides structured logging utilities for autopilot.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Process logger setup with optional JSON file fan-out (Setup)
//   - PII sanitization (email anonymization)
//   - Consistent attribute naming across the codebase
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "assistant.run")
//	logger.Info("message classified",
//	    logging.MessageID(id),
//	    logging.Tier(2))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("escalation sent",
//	    logging.UserHash(sender))
//
// # Security Considerations
//
//   - Sender addresses are hashed to prevent PII leakage while allowing correlation
//   - Tokens are never logged directly
package logging
