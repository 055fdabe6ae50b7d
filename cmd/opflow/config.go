package main

import (
	"fmt"

	"github.com/kbukum/opflow/config"
	"github.com/kbukum/opflow/observability"
	"github.com/kbukum/opflow/snapshot"
	"github.com/kbukum/opflow/validation"
)

const serviceName = "opflow"

// AppConfig is the opflow binary configuration.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Engine    EngineConfig         `yaml:"engine" mapstructure:"engine"`
	Snapshot  snapshot.Config      `yaml:"snapshot" mapstructure:"snapshot"`
	Telemetry observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// EngineConfig holds run defaults; flags override them.
type EngineConfig struct {
	Workers  int  `yaml:"workers" mapstructure:"workers" validate:"min=1"`
	Backfill bool `yaml:"backfill" mapstructure:"backfill"`
	Force    bool `yaml:"force" mapstructure:"force"`
}

func defaultAppConfig() AppConfig {
	cfg := AppConfig{
		Engine:    EngineConfig{Workers: 4},
		Snapshot:  snapshot.DefaultConfig(),
		Telemetry: observability.DefaultConfig(serviceName),
	}
	cfg.Name = serviceName
	// stdout carries command output.
	cfg.Logging.Output = "stderr"
	return cfg
}

// loadAppConfig reads the config file (searched for when path is empty),
// .env files and OPFLOW_* variables on top of the defaults.
func loadAppConfig(path string) (*AppConfig, error) {
	cfg := defaultAppConfig()

	var opts []config.LoaderOption
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	if err := config.LoadConfig(serviceName, &cfg, opts...); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	cfg.Snapshot.ApplyDefaults()
	if err := cfg.ServiceConfig.Validate(); err != nil {
		return nil, err
	}
	if err := validation.Validate(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Snapshot.Validate(); err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return &cfg, nil
}
