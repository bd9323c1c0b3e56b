package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// APIConfig holds the backend connection settings.
type APIConfig struct {
	// BaseURL is the root URL of the backend (e.g., http://localhost:5000).
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds each request; 0 leaves requests unbounded.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`
}

// PollConfig controls the background refresh of the task list.
type PollConfig struct {
	IntervalSec     int `mapstructure:"interval_sec" yaml:"interval_sec"`
	InitialDelaySec int `mapstructure:"initial_delay_sec" yaml:"initial_delay_sec"`
}

// StoreConfig locates the local task cache.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LogConfig holds logging preferences.
type LogConfig struct {
	Debug bool   `mapstructure:"debug" yaml:"debug"`
	File  string `mapstructure:"file" yaml:"file"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Poll    PollConfig    `mapstructure:"poll" yaml:"poll"`
	Store   StoreConfig   `mapstructure:"store" yaml:"store"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Display DisplayConfig `mapstructure:"display" yaml:"display"`
}

// envPrefix scopes environment overrides, e.g. CRMDASH_API_BASE_URL.
const envPrefix = "CRMDASH"

// ConfigDir returns ~/.config/crmdash, or "." when the home directory
// cannot be resolved.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "crmdash")
}

// DefaultConfigPath returns the default path for the configuration file.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		API: APIConfig{
			BaseURL: "http://localhost:5000",
		},
		Poll: PollConfig{
			IntervalSec:     30,
			InitialDelaySec: 5,
		},
		Store: StoreConfig{
			Path: filepath.Join(ConfigDir(), "cache.db"),
		},
		Log: LogConfig{
			File: filepath.Join(ConfigDir(), "crmdash.log"),
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// newViper builds a viper instance with defaults and env overrides bound.
func newViper(path string) *viper.Viper {
	def := defaultAppConfig()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api.base_url", def.API.BaseURL)
	v.SetDefault("api.timeout_sec", def.API.TimeoutSec)
	v.SetDefault("poll.interval_sec", def.Poll.IntervalSec)
	v.SetDefault("poll.initial_delay_sec", def.Poll.InitialDelaySec)
	v.SetDefault("store.path", def.Store.Path)
	v.SetDefault("log.debug", def.Log.Debug)
	v.SetDefault("log.file", def.Log.File)
	v.SetDefault("display.theme", def.Display.Theme)

	return v
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// A missing file yields the defaults, still subject to CRMDASH_* overrides.
func LoadConfig(path string) (*AppConfig, error) {
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil {
		_, isPathErr := err.(*os.PathError)
		_, isNotFound := err.(viper.ConfigFileNotFoundError)
		if !isPathErr && !isNotFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Poll.IntervalSec <= 0 {
		cfg.Poll.IntervalSec = 30
	}
	if cfg.Poll.InitialDelaySec < 0 {
		cfg.Poll.InitialDelaySec = 0
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("poll", cfg.Poll)
	v.Set("store", cfg.Store)
	v.Set("log", cfg.Log)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
