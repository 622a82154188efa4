package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/common/model"
	"github.com/vango-dev/vango-store/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "vango-store.json"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "vango_store"

	// DefaultTracerName is the default OpenTelemetry tracer name.
	DefaultTracerName = "vango-store"

	// DefaultInspectorAddr is the default inspector listen address.
	DefaultInspectorAddr = "localhost:7331"

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default log format.
	DefaultLogFormat = "text"
)

// Config represents vango-store.json.
type Config struct {
	// Store contains interception settings.
	Store StoreConfig `json:"store"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `json:"metrics"`

	// Tracing contains OpenTelemetry settings.
	Tracing TracingConfig `json:"tracing"`

	// Inspector contains devtools server settings.
	Inspector InspectorConfig `json:"inspector"`

	// Log contains logging settings.
	Log LogConfig `json:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// StoreConfig contains interception settings.
type StoreConfig struct {
	// Interception enables dependency tracking and write staging.
	// Defaults to true; false makes every handle read and write the
	// canonical store directly.
	Interception *bool `json:"interception,omitempty"`

	// Debug logs every staged write and commit.
	Debug bool `json:"debug,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled registers the store metrics.
	Enabled bool `json:"enabled,omitempty"`

	// Namespace is the metrics namespace.
	Namespace string `json:"namespace,omitempty"`

	// Subsystem is the metrics subsystem.
	Subsystem string `json:"subsystem,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// TracerName is the tracer resolved from the global provider.
	TracerName string `json:"tracerName,omitempty"`
}

// InspectorConfig contains devtools server settings.
type InspectorConfig struct {
	// Addr is the host:port the inspector listens on.
	Addr string `json:"addr,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from the specified directory.
// It looks for vango-store.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadOrDefault loads the configuration in dir, or returns the defaults
// when there is none.
func LoadOrDefault(dir string) (*Config, error) {
	if !Exists(dir) {
		return New(), nil
	}
	return Load(dir)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E141").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Create " + ConfigFileName + " or run without --config")
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E120").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Store.Interception == nil {
		enabled := true
		c.Store.Interception = &enabled
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}
	if c.Inspector.Addr == "" {
		c.Inspector.Addr = DefaultInspectorAddr
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Store.Debug {
		c.Log.Level = "debug"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	name := c.Metrics.Namespace
	if c.Metrics.Subsystem != "" {
		name += "_" + c.Metrics.Subsystem
	}
	if !model.IsValidMetricName(model.LabelValue(name + "_total")) {
		return errors.New("E121").
			WithDetailf("%q is not a valid metric name prefix", name).
			WithSuggestion("Use letters, digits and underscores, starting with a letter")
	}

	if _, port, err := net.SplitHostPort(c.Inspector.Addr); err != nil || port == "" {
		return errors.New("E122").
			WithDetailf("%q is not host:port", c.Inspector.Addr)
	}

	if _, ok := logLevels[strings.ToLower(c.Log.Level)]; !ok {
		return errors.New("E123").WithDetailf("unknown level %q", c.Log.Level)
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		return errors.New("E123").WithDetailf("unknown format %q", c.Log.Format)
	}
	return nil
}

// InterceptionEnabled reports whether interception is enabled.
func (c *Config) InterceptionEnabled() bool {
	return c.Store.Interception == nil || *c.Store.Interception
}

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	if l, ok := logLevels[strings.ToLower(c.Log.Level)]; ok {
		return l
	}
	return slog.LevelInfo
}

// Logger builds the logger described by the Log section.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel()}
	if strings.ToLower(c.Log.Format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}
