package config

import (
	"fmt"

	"github.com/kbukum/forge/logger"
)

// ToolConfig holds the fields every forge tool shares. Embed it in larger
// settings structs:
//
//	type Settings struct {
//	    config.ToolConfig `yaml:",inline" mapstructure:",squash"`
//	    Build BuildConfig `yaml:"build" mapstructure:"build"`
//	}
type ToolConfig struct {
	Name    string        `yaml:"name" mapstructure:"name"`
	Debug   bool          `yaml:"debug" mapstructure:"debug"`
	Logging logger.Config `yaml:"logging" mapstructure:"logging"`
}

// GetToolConfig returns the embedded ToolConfig.
func (c *ToolConfig) GetToolConfig() *ToolConfig {
	return c
}

// ApplyDefaults fills in unset fields. Debug raises the log level to debug.
func (c *ToolConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "forge"
	}
	if c.Debug && c.Logging.Level == "" {
		c.Logging.Level = "debug"
	}
	c.Logging.ApplyDefaults()
}

// Validate checks the shared fields.
func (c *ToolConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config.name is required")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}
