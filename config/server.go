package config

import "fmt"

// ServerConfig defines the HTTP API listener.
type ServerConfig struct {
	Address                string `json:"address"`
	ReadTimeoutSeconds     int    `json:"read_timeout_seconds"`
	ShutdownTimeoutSeconds int    `json:"shutdown_timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *ServerConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.ReadTimeoutSeconds <= 0 {
		c.ReadTimeoutSeconds = 10
	}
	if c.ShutdownTimeoutSeconds <= 0 {
		c.ShutdownTimeoutSeconds = 5
	}
}

// Validate checks mandatory fields.
func (c ServerConfig) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	return nil
}
