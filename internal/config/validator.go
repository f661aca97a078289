package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "session.event_buffer_size")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateSession()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateDashboard()...)

	return errors
}

func (c *Config) validateSession() []ValidationError {
	var errors []ValidationError

	if c.Session.EventBufferSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "session.event_buffer_size",
			Value:   c.Session.EventBufferSize,
			Message: "must be at least 1",
		})
	}
	if c.Session.TeardownTimeoutSeconds < 1 {
		errors = append(errors, ValidationError{
			Field:   "session.teardown_timeout_seconds",
			Value:   c.Session.TeardownTimeoutSeconds,
			Message: "must be at least 1",
		})
	}
	if c.Session.ReconnectDelayMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "session.reconnect_delay_ms",
			Value:   c.Session.ReconnectDelayMs,
			Message: "must not be negative",
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	return errors
}

func (c *Config) validateDashboard() []ValidationError {
	var errors []ValidationError

	if c.Dashboard.MaxEventLines < 1 {
		errors = append(errors, ValidationError{
			Field:   "dashboard.max_event_lines",
			Value:   c.Dashboard.MaxEventLines,
			Message: "must be at least 1",
		})
	}

	return errors
}
