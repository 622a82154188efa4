package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/vango-store/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	if !cfg.InterceptionEnabled() {
		t.Error("InterceptionEnabled() = false, want true")
	}
	if cfg.Metrics.Namespace != DefaultNamespace {
		t.Errorf("Metrics.Namespace = %q, want %q", cfg.Metrics.Namespace, DefaultNamespace)
	}
	if cfg.Tracing.TracerName != DefaultTracerName {
		t.Errorf("Tracing.TracerName = %q, want %q", cfg.Tracing.TracerName, DefaultTracerName)
	}
	if cfg.Inspector.Addr != DefaultInspectorAddr {
		t.Errorf("Inspector.Addr = %q, want %q", cfg.Inspector.Addr, DefaultInspectorAddr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := Load(tmpDir); err == nil || !strings.Contains(err.Error(), "E141") {
		t.Errorf("Load(empty dir) error = %v, want E141", err)
	}

	configJSON := `{
  "store": {"interception": false, "debug": true},
  "metrics": {"enabled": true, "namespace": "app", "subsystem": "store"},
  "inspector": {"addr": "127.0.0.1:9000"}
}
`
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.InterceptionEnabled() {
		t.Error("InterceptionEnabled() = true, want false")
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Namespace != "app" || cfg.Metrics.Subsystem != "store" {
		t.Errorf("Metrics = %+v", cfg.Metrics)
	}
	if cfg.Inspector.Addr != "127.0.0.1:9000" {
		t.Errorf("Inspector.Addr = %q", cfg.Inspector.Addr)
	}
	if cfg.LogLevel() != slog.LevelDebug {
		t.Errorf("LogLevel() = %v, want debug (store.debug)", cfg.LogLevel())
	}
	if cfg.Tracing.TracerName != DefaultTracerName {
		t.Errorf("Tracing.TracerName = %q, want default", cfg.Tracing.TracerName)
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(t.TempDir())
	if err != nil {
		t.Fatalf("LoadOrDefault error: %v", err)
	}
	if cfg.Path() != "" {
		t.Errorf("Path() = %q, want empty", cfg.Path())
	}
}

func TestLoadFile_InvalidJSON(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(configPath, []byte("not valid json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(configPath)
	if err == nil {
		t.Fatal("Expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "E120") {
		t.Errorf("Expected E120 error, got: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		code   string
	}{
		{"bad namespace", func(c *Config) { c.Metrics.Namespace = "1bad" }, "E121"},
		{"bad subsystem", func(c *Config) { c.Metrics.Subsystem = "has-dash" }, "E121"},
		{"bad addr", func(c *Config) { c.Inspector.Addr = "nocolon" }, "E122"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "E123"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "E123"},
		{"port only", func(c *Config) { c.Inspector.Addr = ":8080" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.code == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.code) {
				t.Errorf("Validate() = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestSave(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), ConfigFileName)

	cfg := New()
	cfg.Metrics.Namespace = "saved"

	if err := cfg.Save(); err == nil {
		t.Error("Expected error when saving without path")
	}
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("SaveTo error: %v", err)
	}

	loaded, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if loaded.Metrics.Namespace != "saved" {
		t.Errorf("Metrics.Namespace = %q, want saved", loaded.Metrics.Namespace)
	}
	if loaded.Path() != configPath {
		t.Errorf("Path() = %q, want %q", loaded.Path(), configPath)
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := New()
	cfg.Log.Format = "json"
	cfg.Logger(&buf).Info("hello", "k", "v")
	if !strings.Contains(buf.String(), `"msg":"hello"`) {
		t.Errorf("json log = %q", buf.String())
	}

	buf.Reset()
	cfg.Log.Format = "text"
	cfg.Logger(&buf).Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug line logged at info level: %q", buf.String())
	}
}

func TestErrorsAreStoreErrors(t *testing.T) {
	_, err := Load(t.TempDir())
	var se *errors.StoreError
	if !asStoreError(err, &se) || se.Category != errors.CategoryCLI {
		t.Errorf("Load error = %#v, want CLI StoreError", err)
	}
}

func asStoreError(err error, target **errors.StoreError) bool {
	se, ok := err.(*errors.StoreError)
	if ok {
		*target = se
	}
	return ok
}
