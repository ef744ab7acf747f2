package config

import "fmt"

// validOutputs are the accepted renderer modes for human-facing commands.
var validOutputs = map[string]bool{
	"table": true,
	"json":  true,
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.SnapshotPath == "" {
		return fmt.Errorf("snapshot path is required")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.OutputFormat != "" && !validOutputs[c.OutputFormat] {
		return fmt.Errorf("invalid output format %q (expected table or json)", c.OutputFormat)
	}
	return nil
}
