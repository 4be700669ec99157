package domain

import "errors"

// Sentinel errors for domain-level error handling. Admission-time errors
// on a single order never abort a run; only configuration errors at start
// time are fatal.
var (
	ErrInvalidOrder     = errors.New("invalid_order")
	ErrDuplicateOrderID = errors.New("duplicate_order_id")
	ErrUnknownStrategy  = errors.New("unknown_strategy")
	ErrRunNotFound      = errors.New("run_not_found")
	ErrRunNotRunning    = errors.New("run_not_running")
)

// ConfigError represents an invalid simulation configuration. It fails
// the start call synchronously; no partial run state is created.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
