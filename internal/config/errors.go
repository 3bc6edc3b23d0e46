package config

import "fmt"

// ConfigurationError reports a setting that prevents the server from
// starting: a bad value, an unreadable file or a missing host key. It is the
// only error allowed to abort the process.
type ConfigurationError struct {
	Key string // setting, env var or file that is wrong
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %v", e.Key, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
