package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete wagate configuration
type Config struct {
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Session   SessionConfig   `mapstructure:"session"`
	Control   ControlConfig   `mapstructure:"control"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
}

// GatewayConfig controls where the daemon stores its state
type GatewayConfig struct {
	// DataDir is the directory where the registry, logs and control channel live.
	// If empty, defaults to ".wagate" relative to the working directory.
	// Supports ~ for home directory expansion.
	DataDir string `mapstructure:"data_dir"`
	// RegistryFile is the registry file name within the data directory
	RegistryFile string `mapstructure:"registry_file"`
}

// SessionConfig controls per-session lifecycle behavior
type SessionConfig struct {
	// EventBufferSize is the capacity of each adapter's event channel
	EventBufferSize int `mapstructure:"event_buffer_size"`
	// TeardownTimeoutSeconds bounds how long Shutdown waits for a driver to
	// tear down cooperatively before teardown is forced
	TeardownTimeoutSeconds int `mapstructure:"teardown_timeout_seconds"`
	// ReconnectDelayMs is the pause before the self-heal restart after a
	// transport disconnect
	ReconnectDelayMs int `mapstructure:"reconnect_delay_ms"`
}

// ControlConfig controls the file-drop command channel
type ControlConfig struct {
	// Enabled controls whether the daemon watches the control directory (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Dir is the control directory name within the data directory
	Dir string `mapstructure:"dir"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether file logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
}

// DashboardConfig controls the terminal dashboard observer
type DashboardConfig struct {
	// Enabled controls whether `wagate serve` launches the dashboard (default: true)
	Enabled bool `mapstructure:"enabled"`
	// MaxEventLines limits how many recent events the dashboard keeps
	MaxEventLines int `mapstructure:"max_event_lines"`
}

// EventBuffer returns the adapter event channel capacity, floored at 1.
func (c *SessionConfig) EventBuffer() int {
	if c.EventBufferSize < 1 {
		return 1
	}
	return c.EventBufferSize
}

// TeardownTimeout returns the teardown timeout as a time.Duration
func (c *SessionConfig) TeardownTimeout() time.Duration {
	return time.Duration(c.TeardownTimeoutSeconds) * time.Second
}

// ReconnectDelay returns the self-heal restart delay as a time.Duration
func (c *SessionConfig) ReconnectDelay() time.Duration {
	return time.Duration(c.ReconnectDelayMs) * time.Millisecond
}

// ResolveDataDir returns the resolved data directory path.
// If DataDir is empty, it returns ".wagate" relative to baseDir.
// If DataDir starts with ~, it expands to the user's home directory.
// If DataDir is a relative path, it's resolved relative to baseDir.
func (g *GatewayConfig) ResolveDataDir(baseDir string) string {
	if g.DataDir == "" {
		return filepath.Join(baseDir, ".wagate")
	}

	path := g.DataDir

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	return path
}

// RegistryPath returns the full path of the registry file under the
// resolved data directory.
func (g *GatewayConfig) RegistryPath(baseDir string) string {
	name := g.RegistryFile
	if name == "" {
		name = "sessions.json"
	}
	return filepath.Join(g.ResolveDataDir(baseDir), name)
}

// ControlPath returns the full path of the control directory under the
// resolved data directory.
func (c *Config) ControlPath(baseDir string) string {
	dir := c.Control.Dir
	if dir == "" {
		dir = "control"
	}
	return filepath.Join(c.Gateway.ResolveDataDir(baseDir), dir)
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			DataDir:      "", // Empty means use default: .wagate
			RegistryFile: "sessions.json",
		},
		Session: SessionConfig{
			EventBufferSize:        16,
			TeardownTimeoutSeconds: 5,
			ReconnectDelayMs:       250,
		},
		Control: ControlConfig{
			Enabled: true,
			Dir:     "control",
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
		},
		Dashboard: DashboardConfig{
			Enabled:       true,
			MaxEventLines: 200,
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Gateway defaults
	viper.SetDefault("gateway.data_dir", defaults.Gateway.DataDir)
	viper.SetDefault("gateway.registry_file", defaults.Gateway.RegistryFile)

	// Session defaults
	viper.SetDefault("session.event_buffer_size", defaults.Session.EventBufferSize)
	viper.SetDefault("session.teardown_timeout_seconds", defaults.Session.TeardownTimeoutSeconds)
	viper.SetDefault("session.reconnect_delay_ms", defaults.Session.ReconnectDelayMs)

	// Control defaults
	viper.SetDefault("control.enabled", defaults.Control.Enabled)
	viper.SetDefault("control.dir", defaults.Control.Dir)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)

	// Dashboard defaults
	viper.SetDefault("dashboard.enabled", defaults.Dashboard.Enabled)
	viper.SetDefault("dashboard.max_event_lines", defaults.Dashboard.MaxEventLines)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "wagate")
	}
	// Fall back to ~/.config/wagate
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wagate"
	}
	return filepath.Join(home, ".config", "wagate")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
