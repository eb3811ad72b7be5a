package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const redacted = "********"

// Dump renders the effective settings as YAML with secrets redacted.
func (c *Config) Dump() ([]byte, error) {
	s := c.Settings()
	if s.Provider.APIKey != "" {
		s.Provider.APIKey = redacted
	}
	out, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("config: dump: %w", err)
	}
	return out, nil
}
