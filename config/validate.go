package config

import (
	"fmt"
	"strings"
)

// ConfigurationError marks a fatal startup misconfiguration. It aborts the
// process before any cycle runs; per-cycle failures never use it.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}

func (c *Config) Validate() error {
	if c.Service.Hostname == "" {
		return &ConfigurationError{Reason: "a hostname is required"}
	}

	if !strings.Contains(strings.Trim(c.Service.Hostname, "."), ".") {
		return &ConfigurationError{Reason: fmt.Sprintf("hostname %q must be fully qualified", c.Service.Hostname)}
	}

	if !c.Service.IPv4 && !c.Service.IPv6 {
		return &ConfigurationError{Reason: "at least one of IPv4 and IPv6 must be enabled"}
	}

	if c.Service.Interval < 0 {
		return &ConfigurationError{Reason: "interval must not be negative"}
	}

	if c.Provider.Email == "" || !strings.Contains(c.Provider.Email, "@") {
		return &ConfigurationError{Reason: "a valid account email is required"}
	}

	if c.Provider.APIKey == "" {
		return &ConfigurationError{Reason: "an account API key is required"}
	}

	for _, addr := range c.Address {
		if addr.Family == "" {
			return &ConfigurationError{Reason: "address entries must name a family"}
		}
	}

	return nil
}
