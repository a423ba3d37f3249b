// Package errors provides custom error types for the regsync system.
// These errors let callers tell fatal failures (authentication) apart from
// record-scoped ones (transient, rejected) without string matching.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Common sentinel errors for the regsync system
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrAuthentication indicates missing or rejected platform credentials
	ErrAuthentication = errors.New("authentication failed")

	// ErrTransient indicates a network or server failure that survived all retries
	ErrTransient = errors.New("transient request failure")

	// ErrRejected indicates the platform refused a request with a non-auth 4xx
	ErrRejected = errors.New("request rejected")

	// ErrRateLimited indicates that the API rate limit has been exceeded
	ErrRateLimited = errors.New("rate limited")

	// ErrRegimeNotFound indicates a taxation label could not be resolved
	ErrRegimeNotFound = errors.New("regime not found")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// AuthenticationError represents missing credentials, a rejected login or
// exhausted re-authentication attempts. It is fatal to a whole run.
type AuthenticationError struct {
	Endpoint string
	Method   string // "password", "bearer"
	Message  string
	Err      error
}

// Error implements the error interface
func (e *AuthenticationError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("authentication error at %s (%s): %s", e.Endpoint, e.Method, e.Message)
	}
	return fmt.Sprintf("authentication error (%s): %s", e.Method, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthentication
}

// NewAuthenticationError creates a new AuthenticationError
func NewAuthenticationError(endpoint, method, message string, err error) *AuthenticationError {
	return &AuthenticationError{
		Endpoint: endpoint,
		Method:   method,
		Message:  message,
		Err:      err,
	}
}

// TransientRequestError is returned once a request kept failing at the
// network level or with a 5xx/429 after every retry was spent.
type TransientRequestError struct {
	Method     string
	Path       string
	Attempts   int
	StatusCode int // zero for network-level failures
	Err        error
}

// Error implements the error interface
func (e *TransientRequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s failed after %d attempts (status %d): %v", e.Method, e.Path, e.Attempts, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s failed after %d attempts: %v", e.Method, e.Path, e.Attempts, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *TransientRequestError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *TransientRequestError) Is(target error) bool {
	if target == ErrTransient {
		return true
	}
	return e.StatusCode == 429 && target == ErrRateLimited
}

// RequestRejectedError represents a 4xx response other than 401/403.
// Rejections are never retried.
type RequestRejectedError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

// Error implements the error interface
func (e *RequestRejectedError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s %s rejected (status %d): %s", e.Method, e.Path, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s %s rejected (status %d)", e.Method, e.Path, e.StatusCode)
}

// Is implements errors.Is support
func (e *RequestRejectedError) Is(target error) bool {
	if target == ErrRejected {
		return true
	}
	return e.StatusCode == 404 && target == ErrNotFound
}

// NewRequestRejectedError creates a new RequestRejectedError
func NewRequestRejectedError(method, path string, statusCode int, body string) *RequestRejectedError {
	return &RequestRejectedError{
		Method:     method,
		Path:       path,
		StatusCode: statusCode,
		Body:       body,
	}
}

// RegimeNotFoundError reports a taxation label that matched neither the
// known-id table nor the platform catalog. Resolution falls back to a
// default, so this error is logged rather than returned to callers.
type RegimeNotFoundError struct {
	Label     string
	Canonical string
}

// Error implements the error interface
func (e *RegimeNotFoundError) Error() string {
	if e.Canonical != "" && e.Canonical != e.Label {
		return fmt.Sprintf("regime %q (canonical %q) not found", e.Label, e.Canonical)
	}
	return fmt.Sprintf("regime %q not found", e.Label)
}

// Is implements errors.Is support
func (e *RegimeNotFoundError) Is(target error) bool {
	return target == ErrRegimeNotFound || target == ErrNotFound
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "open"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// ResourceError represents an error during resource operations
type ResourceError struct {
	Operation string // "create", "update", "fetch", "list"
	Resource  string // "client", "regime", "module"
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError creates a new ResourceError
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ResourceError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsAuthentication checks if an error is fatal to the whole run
func IsAuthentication(err error) bool {
	return errors.Is(err, ErrAuthentication)
}

// IsTransient checks if an error is a retried-and-exhausted request failure
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// IsRejected checks if an error is a non-retryable 4xx rejection
func IsRejected(err error) bool {
	return errors.Is(err, ErrRejected)
}

// IsRateLimited checks if an error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// Cause classifies err into a short label for logs and metrics. Rate limits
// are reported apart from other exhausted retries.
func Cause(err error) string {
	switch {
	case err == nil:
		return ""
	case IsAuthentication(err):
		return "authentication"
	case IsRateLimited(err):
		return "rate_limited"
	case IsTransient(err):
		return "transient"
	case IsRejected(err):
		return "rejected"
	case IsValidationError(err):
		return "validation"
	case IsNotFound(err):
		return "not_found"
	case IsCanceled(err), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}
