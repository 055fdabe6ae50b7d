package config

import (
	"github.com/kbukum/opflow/logger"
	"github.com/kbukum/opflow/validation"
)

// Environments accepted by ServiceConfig.Validate.
var Environments = []string{"development", "staging", "production"}

// ServiceConfig holds the fields every opflow binary shares. Binaries
// embed it in their own config struct:
//
//	type AppConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Engine EngineConfig  `yaml:"engine" mapstructure:"engine"`
//	}
type ServiceConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Version     string        `yaml:"version" mapstructure:"version"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// ApplyDefaults fills in the environment and the logging section. Debug
// lowers the log level to debug unless a level was set explicitly; the
// service name doubles as the console log tag.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = Environments[0]
	}
	if c.Debug && c.Logging.Level == "" {
		c.Logging.Level = "debug"
	}
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()
}

// Validate reports every invalid shared field as one INVALID_CONFIG error.
func (c *ServiceConfig) Validate() error {
	v := validation.New().At("config")
	v.Required("name", c.Name)
	v.Check(c.Environment != "", "environment", "is required")
	v.OneOf("environment", c.Environment, Environments)
	if err := c.Logging.Validate(); err != nil {
		v.Fail("logging", "%v", err)
	}
	return v.Err()
}
