package types

import "fmt"

// ValidationError is returned for a single malformed input field. It never
// stops a batch.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ConfigurationError is returned when a rule set or threshold cannot be used.
// Engines refuse to start on one.
type ConfigurationError struct {
	Rule   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Rule == "" {
		return "configuration: " + e.Reason
	}
	return fmt.Sprintf("configuration: %s: %s", e.Rule, e.Reason)
}
