// Package errors provides centralized error definitions and error handling
// utilities for the wagate codebase. It defines domain-specific errors,
// semantic error types, error constructors with context wrapping, and error
// classification helpers.
//
// # Error Types
//
// The package provides two categories of errors:
//
// Domain-specific errors represent errors from specific subsystems:
//   - SessionError: errors related to session lifecycle management
//   - DeliveryError: errors related to message delivery over a transport
//   - PersistenceError: errors related to the session registry store
//
// Semantic errors represent common error conditions:
//   - ValidationError: invalid input or state
//   - TimeoutError: operation timed out
//
// # Usage
//
// Creating errors:
//
//	// Domain-specific error
//	err := errors.NewSessionError("session is not live", errors.ErrSessionNotFound)
//
//	// With context wrapping
//	err := errors.NewDeliveryError("send failed", baseErr).WithRecipient("6281...")
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrSessionNotFound) { ... }
//
//	var deliveryErr *errors.DeliveryError
//	if errors.As(err, &deliveryErr) { ... }
//
//	if errors.IsRetryable(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Session-related sentinel errors
var (
	// ErrSessionNotFound indicates that no live session matches the given id.
	ErrSessionNotFound = New("session not found")
	// ErrSessionNotReady indicates that a session exists but its transport
	// has not finished authenticating and syncing.
	ErrSessionNotReady = New("session is not ready")
	// ErrSessionExists indicates that a live session with the id already exists.
	ErrSessionExists = New("session already exists")
	// ErrAuthFailed indicates that the pairing challenge was rejected or
	// expired. This is terminal; the session must be created again.
	ErrAuthFailed = New("authentication failed")
)

// Delivery-related sentinel errors
var (
	// ErrRecipientNotRegistered indicates the recipient does not exist on
	// the external messaging network.
	ErrRecipientNotRegistered = New("recipient is not registered")
	// ErrDeliveryFailed indicates the transport failed while sending.
	// The underlying cause is attached; delivery is not retried automatically.
	ErrDeliveryFailed = New("message delivery failed")
)

// Persistence-related sentinel errors
var (
	// ErrPersistenceWrite indicates the registry file could not be written.
	// Non-fatal: in-memory state remains authoritative until the next
	// successful write.
	ErrPersistenceWrite = New("registry write failed")
	// ErrRegistryCorrupted indicates the registry file cannot be parsed.
	ErrRegistryCorrupted = New("registry data corrupted")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// GatewayError is the base interface for all wagate errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type GatewayError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *baseError) Unwrap() error {
	return e.cause
}

func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

func (e *baseError) Severity() Severity { return e.severity }
func (e *baseError) IsRetryable() bool  { return e.retryable }
func (e *baseError) IsUserFacing() bool { return e.userFacing }

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// SessionError represents errors related to session lifecycle management.
//
// Example:
//
//	err := errors.NewSessionError("cannot resume", errors.ErrAuthFailed)
//	err = err.WithSessionID("alice")
//	fmt.Println(err) // "session error [session=alice]: cannot resume: authentication failed"
type SessionError struct {
	baseError
	SessionID string
}

// NewSessionError creates a new SessionError.
func NewSessionError(message string, cause error) *SessionError {
	return &SessionError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithSessionID adds a session ID to the error context.
func (e *SessionError) WithSessionID(id string) *SessionError {
	e.SessionID = id
	return e
}

// WithSeverity sets the error severity.
func (e *SessionError) WithSeverity(s Severity) *SessionError {
	e.severity = s
	return e
}

// Error returns the formatted error message.
func (e *SessionError) Error() string {
	prefix := "session error"
	if e.SessionID != "" {
		prefix = fmt.Sprintf("session error [session=%s]", e.SessionID)
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *SessionError) Is(target error) bool {
	if _, ok := target.(*SessionError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// DeliveryError represents errors related to sending a message over a
// session's transport.
//
// Example:
//
//	err := errors.NewDeliveryError("send failed", cause).
//		WithSessionID("alice").WithRecipient("628123@c.us")
type DeliveryError struct {
	baseError
	SessionID string
	Recipient string
}

// NewDeliveryError creates a new DeliveryError wrapping ErrDeliveryFailed.
func NewDeliveryError(message string, cause error) *DeliveryError {
	if cause == nil {
		cause = ErrDeliveryFailed
	} else {
		cause = fmt.Errorf("%w: %w", ErrDeliveryFailed, cause)
	}
	return &DeliveryError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  true, // transport failures may succeed on caller retry
			userFacing: true,
		},
	}
}

// WithSessionID adds a session ID to the error context.
func (e *DeliveryError) WithSessionID(id string) *DeliveryError {
	e.SessionID = id
	return e
}

// WithRecipient adds the recipient address to the error context.
func (e *DeliveryError) WithRecipient(recipient string) *DeliveryError {
	e.Recipient = recipient
	return e
}

// Error returns the formatted error message.
func (e *DeliveryError) Error() string {
	var parts []string
	if e.SessionID != "" {
		parts = append(parts, fmt.Sprintf("session=%s", e.SessionID))
	}
	if e.Recipient != "" {
		parts = append(parts, fmt.Sprintf("recipient=%s", e.Recipient))
	}

	prefix := "delivery error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("delivery error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *DeliveryError) Is(target error) bool {
	if _, ok := target.(*DeliveryError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// PersistenceError represents errors from the registry store. These are
// logged and never crash the process; the in-memory session table stays
// authoritative.
type PersistenceError struct {
	baseError
	Path string
}

// NewPersistenceError creates a new PersistenceError wrapping ErrPersistenceWrite.
func NewPersistenceError(message string, cause error) *PersistenceError {
	if cause == nil {
		cause = ErrPersistenceWrite
	} else {
		cause = fmt.Errorf("%w: %w", ErrPersistenceWrite, cause)
	}
	return &PersistenceError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityWarning,
			retryable:  true,
			userFacing: false,
		},
	}
}

// WithPath adds the store path to the error context.
func (e *PersistenceError) WithPath(path string) *PersistenceError {
	e.Path = path
	return e
}

// Error returns the formatted error message.
func (e *PersistenceError) Error() string {
	prefix := "persistence error"
	if e.Path != "" {
		prefix = fmt.Sprintf("persistence error [path=%s]", e.Path)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *PersistenceError) Is(target error) bool {
	if _, ok := target.(*PersistenceError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("session id cannot be empty")
//	err = err.WithField("id").WithValue("")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// TimeoutError represents an operation that timed out.
//
// Example:
//
//	err := errors.NewTimeoutError("waiting for driver teardown", 5*time.Second)
type TimeoutError struct {
	baseError
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{
			message:    operation,
			severity:   SeverityWarning,
			retryable:  true, // Timeouts are generally retryable
			userFacing: true,
		},
		Operation: operation,
		Duration:  duration,
	}
}

// WithCause adds a cause to the error.
func (e *TimeoutError) WithCause(cause error) *TimeoutError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout error: %s (timeout: %s)", e.Operation, e.Duration)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", base, e.cause)
	}
	return base
}

// Is checks if this error matches the target.
func (e *TimeoutError) Is(target error) bool {
	if _, ok := target.(*TimeoutError); ok {
		return true
	}
	if errors.Is(target, ErrTimeout) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var gatewayErr GatewayError
	if As(err, &gatewayErr) {
		return gatewayErr.IsRetryable()
	}

	if Is(err, ErrTimeout) {
		return true
	}

	return false
}

// IsUserFacing returns true if the error message is safe to display to end
// users (client-visible rejections rather than internal failures).
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var gatewayErr GatewayError
	if As(err, &gatewayErr) {
		return gatewayErr.IsUserFacing()
	}

	// Caller errors are always user-facing.
	if Is(err, ErrSessionNotFound) || Is(err, ErrSessionNotReady) ||
		Is(err, ErrRecipientNotRegistered) || Is(err, ErrInvalidInput) {
		return true
	}

	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement GatewayError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var gatewayErr GatewayError
	if As(err, &gatewayErr) {
		return gatewayErr.Severity()
	}

	return SeverityError
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to bootstrap sessions")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "failed to create session %s", id)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
