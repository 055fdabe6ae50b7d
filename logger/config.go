package logger

import (
	"errors"
	"fmt"
	"slices"
)

// Accepted values for Config.Level, Config.Format and Config.Output.
var (
	Levels  = []string{"trace", "debug", "info", "warn", "error", "fatal"}
	Formats = []string{"json", "console", "text", FormatPretty}
	Outputs = []string{"stdout", "stderr", "file"}
)

// DefaultFilename is the log file used when output is "file".
const DefaultFilename = "opflow.log"

// Config selects level, encoding and destination. The rotation fields only
// apply to file output and are passed to lumberjack unchanged.
type Config struct {
	Level     string `yaml:"level" mapstructure:"level"`
	Format    string `yaml:"format" mapstructure:"format"`
	Output    string `yaml:"output" mapstructure:"output"`
	NoColor   bool   `yaml:"no_color" mapstructure:"no_color"`
	Timestamp bool   `yaml:"timestamp" mapstructure:"timestamp"`
	Caller    bool   `yaml:"caller" mapstructure:"caller"`

	Filename   string `yaml:"filename" mapstructure:"filename"`
	MaxSize    int    `yaml:"max_size" mapstructure:"max_size"`       // MB
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"` // files
	MaxAge     int    `yaml:"max_age" mapstructure:"max_age"`         // days
	Compress   bool   `yaml:"compress" mapstructure:"compress"`
	LocalTime  bool   `yaml:"local_time" mapstructure:"local_time"`

	// ServiceName tags console output. Filled from the service config when empty.
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
}

// ApplyDefaults fills unset fields. Timestamps are always on.
func (c *Config) ApplyDefaults() {
	setDefault(&c.Level, "info")
	setDefault(&c.Format, "console")
	setDefault(&c.Output, "stdout")
	if c.Output == "file" {
		setDefault(&c.Filename, DefaultFilename)
	}
	if c.MaxSize == 0 {
		c.MaxSize = 100
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = 3
	}
	if c.MaxAge == 0 {
		c.MaxAge = 28
	}
	c.Timestamp = true
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error
	check := func(key, val string, allowed []string) {
		if !slices.Contains(allowed, val) {
			errs = append(errs, fmt.Errorf("logging.%s must be one of %v (got %q)", key, allowed, val))
		}
	}
	check("level", c.Level, Levels)
	check("format", c.Format, Formats)
	check("output", c.Output, Outputs)
	if c.Output == "file" && c.Filename == "" {
		errs = append(errs, errors.New("logging.filename is required when output is file"))
	}
	return errors.Join(errs...)
}

func setDefault(field *string, val string) {
	if *field == "" {
		*field = val
	}
}
