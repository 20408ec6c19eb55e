package cli

import "fmt"

// ConfigError reports a configuration problem found while starting a
// command.
type ConfigError struct {
	Path    string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("configuration error: %s", e.Message)
	}
	return fmt.Sprintf("configuration error in %s: %s", e.Path, e.Message)
}

// NewConfigError creates a ConfigError for the given config path.
func NewConfigError(path, message string) *ConfigError {
	return &ConfigError{Path: path, Message: message}
}

// CommandError wraps a failure of a named command.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }
