// Package config loads and validates kpfbuilder configuration from YAML with
// .env support and environment variable expansion.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration document.
type Config struct {
	Previewer  PreviewerConfig  `yaml:"previewer,omitempty"`
	Conversion ConversionConfig `yaml:"conversion,omitempty"`
	Output     OutputConfig     `yaml:"output,omitempty"`
	Daemon     DaemonConfig     `yaml:"daemon,omitempty"`
	Events     EventsConfig     `yaml:"events,omitempty"`
}

// PreviewerConfig controls how the external Kindle Previewer is located.
type PreviewerConfig struct {
	// Path overrides all platform-specific detection when set. It must point
	// at the Previewer install directory (the one containing the executable).
	Path string `yaml:"path,omitempty"`
	// WinePrefix overrides WINEPREFIX for registry lookup on Linux.
	WinePrefix string `yaml:"wine_prefix,omitempty"`
	// ExtraEnv names additional environment variables passed through to the
	// child process on top of the built-in allow-list.
	ExtraEnv []string `yaml:"extra_env,omitempty"`
}

// ConversionConfig holds per-conversion tuning knobs.
// Duration fields are strings ("10m", "90s") parsed via time.ParseDuration.
type ConversionConfig struct {
	// Timeout bounds a single Previewer run (default 10m). "0" disables the deadline.
	Timeout string `yaml:"timeout,omitempty"`
	// Flags are conversion behavior switches (e.g. NoPrep to skip input cleaning).
	Flags []string `yaml:"flags,omitempty"`
	// PrepareInput toggles EPUB cleanup before handing the file to the Previewer.
	PrepareInput *bool `yaml:"prepare_input,omitempty"`
}

// OutputConfig represents output configuration
type OutputConfig struct {
	Directory string `yaml:"directory"`
}

// DaemonConfig configures the drop-directory watch mode.
type DaemonConfig struct {
	WatchDir       string `yaml:"watch_dir,omitempty"`
	OutputDir      string `yaml:"output_dir,omitempty"`
	RescanInterval string `yaml:"rescan_interval,omitempty"`
	HistoryDB      string `yaml:"history_db,omitempty"`
	MetricsListen  string `yaml:"metrics_listen,omitempty"`
}

// EventsConfig configures optional NATS JetStream publication of job events.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
	Stream  string `yaml:"stream,omitempty"`
}

// PrepareInputEnabled reports whether EPUB preparation should run (default true).
func (c ConversionConfig) PrepareInputEnabled() bool {
	return c.PrepareInput == nil || *c.PrepareInput
}

// HasFlag reports whether a conversion flag is set (case-sensitive, matching
// the flag names the conversion pipeline understands).
func (c ConversionConfig) HasFlag(name string) bool {
	for _, f := range c.Flags {
		if f == name {
			return true
		}
	}
	return false
}

// TimeoutDuration parses the timeout, falling back to the 10 minute default
// on empty or malformed values. "0" disables the deadline.
func (c ConversionConfig) TimeoutDuration() time.Duration {
	return parseDurationOr(c.Timeout, 10*time.Minute)
}

// RescanIntervalDuration parses the rescan interval (default 5m).
func (d DaemonConfig) RescanIntervalDuration() time.Duration {
	return parseDurationOr(d.RescanInterval, 5*time.Minute)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	dur, err := time.ParseDuration(s)
	if err != nil || dur < 0 {
		return fallback
	}
	return dur
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	if err := loadEnvFile(); err != nil {
		// Don't fail if .env doesn't exist, just log it
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&config)
	return &config, nil
}

// Default returns a Config with defaults applied, for use without a config file.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(config *Config) {
	if config.Output.Directory == "" {
		config.Output.Directory = "."
	}
	if config.Daemon.WatchDir == "" {
		config.Daemon.WatchDir = "./incoming"
	}
	if config.Daemon.OutputDir == "" {
		config.Daemon.OutputDir = "./converted"
	}
	if config.Daemon.HistoryDB == "" {
		config.Daemon.HistoryDB = "./kpfbuilder-history.db"
	}
	if config.Daemon.MetricsListen == "" {
		config.Daemon.MetricsListen = ":9175"
	}
	if config.Events.Subject == "" {
		config.Events.Subject = "kpfbuilder.jobs"
	}
	if config.Events.Stream == "" {
		config.Events.Stream = "KPFBUILDER"
	}
	if config.Events.NATSURL == "" {
		config.Events.NATSURL = "nats://127.0.0.1:4222"
	}
}

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	prepare := true
	exampleConfig := Config{
		Previewer: PreviewerConfig{
			Path: "",
		},
		Conversion: ConversionConfig{
			Timeout:      "10m",
			PrepareInput: &prepare,
		},
		Output: OutputConfig{
			Directory: "./converted",
		},
		Daemon: DaemonConfig{
			WatchDir:       "./incoming",
			OutputDir:      "./converted",
			RescanInterval: "5m",
			HistoryDB:      "./kpfbuilder-history.db",
			MetricsListen:  ":9175",
		},
		Events: EventsConfig{
			Enabled: false,
			NATSURL: "nats://127.0.0.1:4222",
			Subject: "kpfbuilder.jobs",
			Stream:  "KPFBUILDER",
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
