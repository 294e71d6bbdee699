package core

import (
	"errors"
	"fmt"
)

// ConfigError represents a configuration problem with an actionable fix.
type ConfigError struct {
	Code    string // Error code for programmatic handling
	Message string // Human-readable error message
	Action  string // What the operator should change
}

func (e *ConfigError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s. %s", e.Message, e.Action)
	}
	return e.Message
}

// Error codes for configuration errors
const (
	ErrCodeEnvFileMissing   = "ENV_FILE_MISSING"
	ErrCodeConfigFile       = "CONFIG_FILE"
	ErrCodeInvalidValue     = "INVALID_VALUE"
	ErrCodeMissingConfig    = "MISSING_CONFIG"
	ErrCodeUnsupportedStore = "UNSUPPORTED_STORE"
)

// ErrEnvFileMissing returns an error for a missing .env file.
func ErrEnvFileMissing(path string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeEnvFileMissing,
		Message: fmt.Sprintf("Environment file not found: %s", path),
		Action:  "Create the file or export the RW_* variables directly",
	}
}

// ErrConfigFile returns an error for an unreadable or malformed YAML config file.
func ErrConfigFile(path string, reason error) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeConfigFile,
		Message: fmt.Sprintf("Cannot load config file %s: %v", path, reason),
		Action:  "Fix the file or unset RW_CONFIG_FILE",
	}
}

// ErrInvalidValue returns an error for a variable holding an unusable value.
func ErrInvalidValue(varName, value, reason string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeInvalidValue,
		Message: fmt.Sprintf("Invalid %s '%s': %s", varName, value, reason),
		Action:  fmt.Sprintf("Set %s to a valid value", varName),
	}
}

// ErrMissingConfig returns an error for missing required configuration.
func ErrMissingConfig(varName string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeMissingConfig,
		Message: fmt.Sprintf("Missing required configuration: %s", varName),
		Action:  fmt.Sprintf("Set %s in your .env file", varName),
	}
}

// ErrUnsupportedStore returns an error for an unknown session store backend.
func ErrUnsupportedStore(kind string) *ConfigError {
	return &ConfigError{
		Code:    ErrCodeUnsupportedStore,
		Message: fmt.Sprintf("Unsupported session store '%s'", kind),
		Action:  "Set RW_SESSION_STORE to 'memory' or 'redis'",
	}
}

// IsConfigError reports whether err wraps a ConfigError and returns it.
func IsConfigError(err error) (*ConfigError, bool) {
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		return configErr, true
	}
	return nil, false
}
