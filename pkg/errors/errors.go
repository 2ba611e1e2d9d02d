package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTarget        = errors.New("invalid target url")
	ErrUnknownScanKind      = errors.New("unknown scan kind")
	ErrScanInProgress       = errors.New("a scan is already in progress for this requester")
	ErrScanNotFound         = errors.New("scan not found")
	ErrScanNotCompleted     = errors.New("only completed scans can be saved")
	ErrScanTerminal         = errors.New("scan already reached a terminal state")
	ErrNotFound             = errors.New("key not found")
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrInvalidConfig        = errors.New("invalid configuration")
	ErrDiscordNotConfigured = errors.New("discord client not configured")
)

// BackendError is returned when the scanning backend answers with a non-2xx status.
type BackendError struct {
	Endpoint   string
	StatusCode int
	Status     string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s returned HTTP %d: %s", e.Endpoint, e.StatusCode, e.Status)
}

func NewBackendError(endpoint string, statusCode int, status string) *BackendError {
	return &BackendError{
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Status:     status,
	}
}

// AuthError carries the message of an auth backend reply with success=false.
type AuthError struct {
	Operation string
	Message   string
	Err       error
}

func (e *AuthError) Error() string {
	if e.Message == "" && e.Err != nil {
		return fmt.Sprintf("auth %s failed: %v", e.Operation, e.Err)
	}
	if e.Message == "" {
		return fmt.Sprintf("auth %s rejected", e.Operation)
	}
	return fmt.Sprintf("auth %s rejected: %s", e.Operation, e.Message)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func NewAuthError(operation, message string, err error) *AuthError {
	return &AuthError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

type ConfigError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value: %v): %s", e.Field, e.Value, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

func NewConfigError(field string, value interface{}, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// Is and As are re-exported so callers importing this package under the
// name "errors" keep access to the standard helpers.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Join(errs ...error) error {
	return errors.Join(errs...)
}
