package app

import "errors"

// Config holds everything an App instance needs to run.
type Config struct {
	DocPath string

	LogFormat string
	LogLevel  string

	Strict    bool
	Print     bool
	NoColor   bool
	Overrides map[string][]string
}

// NewConfig validates a Config, returning it ready for App construction.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.DocPath == "" {
		return nil, errors.New("DocPath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
