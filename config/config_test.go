package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Engine        struct {
		Workers  int  `mapstructure:"workers"`
		Backfill bool `mapstructure:"backfill"`
	} `mapstructure:"engine"`
	SQL struct {
		MaxOpenConns    int           `mapstructure:"max_open_conns"`
		ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	} `mapstructure:"sql"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "opflow"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if cfg.Logging.ServiceName != "opflow" {
			t.Errorf("expected logging service name to follow Name, got %q", cfg.Logging.ServiceName)
		}
	})

	t.Run("debug raises log level", func(t *testing.T) {
		cfg := ServiceConfig{Name: "opflow", Debug: true}
		cfg.ApplyDefaults()
		if cfg.Logging.Level != "debug" {
			t.Errorf("expected debug level, got %q", cfg.Logging.Level)
		}
	})

	t.Run("explicit level wins over debug", func(t *testing.T) {
		cfg := ServiceConfig{Name: "opflow", Debug: true}
		cfg.Logging.Level = "warn"
		cfg.ApplyDefaults()
		if cfg.Logging.Level != "warn" {
			t.Errorf("expected warn, got %q", cfg.Logging.Level)
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr string
	}{
		{"valid development", ServiceConfig{Name: "svc", Environment: "development"}, ""},
		{"valid production", ServiceConfig{Name: "svc", Environment: "production"}, ""},
		{"missing name", ServiceConfig{Environment: "production"}, "config.name: is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "qa"}, "config.environment: must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadConfigFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "opflow.yml", `
name: opflow
environment: staging
engine:
  workers: 4
sql:
  conn_max_lifetime: 5m
`)

	var cfg testConfig
	if err := LoadConfig("opflow", &cfg, WithConfigFile(path), WithEnvPrefix("OPFLOWTEST1")); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Name != "opflow" || cfg.Environment != "staging" {
		t.Errorf("unexpected service config %+v", cfg.ServiceConfig)
	}
	if cfg.Engine.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Engine.Workers)
	}
	if cfg.SQL.ConnMaxLifetime != 5*time.Minute {
		t.Errorf("expected 5m lifetime, got %v", cfg.SQL.ConnMaxLifetime)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "opflow.yml", "name: opflow\nengine:\n  workers: 2\n")
	t.Setenv("OPFLOWTEST2_ENGINE_WORKERS", "8")
	t.Setenv("OPFLOWTEST2_ENGINE_BACKFILL", "true")
	t.Setenv("OPFLOWTEST2_SQL_MAX_OPEN_CONNS", "12")

	var cfg testConfig
	if err := LoadConfig("opflow", &cfg, WithConfigFile(path), WithEnvPrefix("OPFLOWTEST2")); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Engine.Workers != 8 || !cfg.Engine.Backfill {
		t.Errorf("env overrides not applied: %+v", cfg.Engine)
	}
	if cfg.SQL.MaxOpenConns != 12 {
		t.Errorf("expected nested underscore key, got %d", cfg.SQL.MaxOpenConns)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	var cfg testConfig
	err := LoadConfig("opflow", &cfg,
		WithFileSystem(&mockFS{}),
		WithEnvPrefix("OPFLOWTEST3"),
		WithDefaults(map[string]any{"engine.workers": 3, "name": "fallback"}))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Engine.Workers != 3 || cfg.Name != "fallback" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	var cfg testConfig
	err := LoadConfig("opflow", &cfg, WithConfigFile("/nonexistent/opflow.yml"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yml", "engine: [unclosed")
	var cfg testConfig
	if err := LoadConfig("opflow", &cfg, WithConfigFile(path)); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "OPFLOWTEST4_ENGINE_WORKERS=6\n")
	t.Cleanup(func() { os.Unsetenv("OPFLOWTEST4_ENGINE_WORKERS") })

	var cfg testConfig
	err := LoadConfig("opflow", &cfg, WithFileSystem(&mockFS{files: map[string]bool{}}),
		WithEnvFile(envPath), WithEnvPrefix("OPFLOWTEST4"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Engine.Workers != 6 {
		t.Errorf("expected value from .env file, got %d", cfg.Engine.Workers)
	}
}

func TestResolverWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/opflow/config.yml": true,
		"./config.yml":            true,
		".env":                    true,
	}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("opflow", LoaderConfig{})
	if files.ConfigFile != "./cmd/opflow/config.yml" {
		t.Errorf("expected the cmd config to win, got %q", files.ConfigFile)
	}
	if files.EnvFile != ".env" {
		t.Errorf("expected .env, got %q", files.EnvFile)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	got := envKeyVariants("SQL_MAX_OPEN")
	want := []string{"sql_max_open", "sql.max_open", "sql.max.open"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("envKeyVariants = %v, want %v", got, want)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool { return m.files[path] }

// LoadEnv delegates to the real loader so .env tests exercise godotenv.
func (m *mockFS) LoadEnv(path string) error { return OSFileSystem{}.LoadEnv(path) }
