package config

import "fmt"

// ConfigurationError reports a missing required credential or a malformed
// override. It is fatal at startup.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return e.Reason
}

func missing(key string) error {
	return &ConfigurationError{
		Key:    key,
		Reason: fmt.Sprintf("missing %s; set it in the shell or in .env, or run `n1browse setup`", key),
	}
}

func malformed(key, kind, raw string) error {
	return &ConfigurationError{
		Key:    key,
		Reason: fmt.Sprintf("%s must be %s, got %q", key, kind, raw),
	}
}
