package main

import (
	"testing"

	"github.com/kbukum/opflow/snapshot"
)

func TestLoadAppConfigDefaults(t *testing.T) {
	cfg, err := loadAppConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != serviceName {
		t.Errorf("Name = %q", cfg.Name)
	}
	if cfg.Engine.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Engine.Workers)
	}
	if cfg.Snapshot.Provider != snapshot.ProviderMemory {
		t.Errorf("Provider = %q", cfg.Snapshot.Provider)
	}
	if cfg.Logging.Output != "stderr" {
		t.Errorf("Logging.Output = %q, want stderr", cfg.Logging.Output)
	}
}

func TestLoadAppConfigEnvOverrides(t *testing.T) {
	t.Setenv("OPFLOW_ENGINE_WORKERS", "8")
	t.Setenv("OPFLOW_SNAPSHOT_PROVIDER", "badger")

	cfg, err := loadAppConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Engine.Workers)
	}
	if cfg.Snapshot.Provider != snapshot.ProviderBadger {
		t.Errorf("Provider = %q", cfg.Snapshot.Provider)
	}
}

func TestLoadAppConfigValidation(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"workers below one", "OPFLOW_ENGINE_WORKERS", "0"},
		{"unknown provider", "OPFLOW_SNAPSHOT_PROVIDER", "etcd"},
		{"unknown environment", "OPFLOW_ENVIRONMENT", "moon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := loadAppConfig(""); err == nil {
				t.Errorf("%s=%s should be rejected", tt.key, tt.value)
			}
		})
	}
}
