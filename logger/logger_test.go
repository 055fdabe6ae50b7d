package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	cfg := &Config{
		Level:  "invalid-level",
		Format: "json",
		Output: "stdout",
	}
	l := New(cfg, "test")
	if l == nil {
		t.Fatal("expected logger to be created even with invalid level")
	}
}

func TestNewWithWriter_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, &Config{Level: "debug", Format: "json"}, "svc")

	l.WithComponent("container").Info("task finished", Fields(FieldOperator, "extract", FieldLevel, 2))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "task finished" {
		t.Errorf("unexpected message: %v", entry["message"])
	}
	if entry[FieldComponent] != "container" {
		t.Errorf("expected component field, got %v", entry[FieldComponent])
	}
	if entry[FieldOperator] != "extract" {
		t.Errorf("expected operator field, got %v", entry[FieldOperator])
	}
}

func TestNewWithWriter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, &Config{Level: "warn", Format: "json"}, "svc")

	l.Info("hidden")
	l.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn message should be written")
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, &Config{Level: "info", Format: "console", NoColor: true}, "opflow")
	l.Info("level finished", Fields(FieldLevel, 1))

	out := buf.String()
	for _, want := range []string{"[OPF][INF]", "level finished", "level_index:1"} {
		if !strings.Contains(out, want) {
			t.Errorf("console line %q missing %q", out, want)
		}
	}
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opflow.log")
	cfg := &Config{Level: "info", Format: "json", Output: "file", Filename: path}
	cfg.ApplyDefaults()

	l := New(cfg, "file-svc")
	l.Info("written to file")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected log file: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("log file missing message: %q", data)
	}
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != "console" || cfg.Output != "stdout" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}

	tests := []struct {
		name string
		cfg  Config
	}{
		{"bad level", Config{Level: "loud", Format: "json", Output: "stdout"}},
		{"bad format", Config{Level: "info", Format: "xml", Output: "stdout"}},
		{"bad output", Config{Level: "info", Format: "json", Output: "syslog"}},
		{"file without name", Config{Level: "info", Format: "json", Output: "file"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestGetGlobalLoggerDefault(t *testing.T) {
	SetGlobalLogger(nil)
	l := GetGlobalLogger()
	if l == nil {
		t.Fatal("expected default global logger to be created")
	}
}

func TestGetOverrides(t *testing.T) {
	var buf bytes.Buffer
	SetGlobalLogger(NewWithWriter(&buf, &Config{Level: "info", Format: "json"}, "test"))
	defer SetGlobalLogger(nil)

	Get(ComponentContainer).Info("from global")
	if !strings.Contains(buf.String(), `"component":"container"`) {
		t.Errorf("fallback logger should carry the component name: %s", buf.String())
	}

	custom := Nop()
	Register(ComponentSnapshot, custom)
	defer Unregister(ComponentSnapshot)
	if got := Get(ComponentSnapshot); got != custom {
		t.Error("expected registered logger")
	}

	Unregister(ComponentSnapshot)
	if got := Get(ComponentSnapshot); got == custom {
		t.Error("Unregister should restore the fallback")
	}
}

func TestFields(t *testing.T) {
	f := Fields("a", 1, "b", "two", "dangling")
	if len(f) != 2 || f["a"] != 1 || f["b"] != "two" {
		t.Errorf("unexpected fields: %v", f)
	}
}

func TestMerge(t *testing.T) {
	a := Fields("a", 1, "b", 2)
	got := Merge(a, Fields("b", 3), nil)
	if got["a"] != 1 || got["b"] != 3 {
		t.Errorf("unexpected merge: %v", got)
	}
	if a["b"] != 2 {
		t.Error("Merge modified its input")
	}
}

func TestMergeWithError(t *testing.T) {
	if f := MergeWithError(nil, errors.New("boom")); f[FieldError] != "boom" {
		t.Errorf("unexpected fields: %v", f)
	}
	if f := MergeWithError(Fields("a", 1), nil); len(f) != 1 {
		t.Errorf("nil error should add nothing: %v", f)
	}
}
