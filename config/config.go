// Package config loads multishot settings from defaults, an optional YAML
// file, a .env file and MULTISHOT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"multishot/device"
	"multishot/layout"
)

const (
	// EnvPrefix prefixes every environment variable read by multishot.
	EnvPrefix = "MULTISHOT"
	// ConfigName is the base name of the optional config file.
	ConfigName = "multishot"

	DefaultWaitTime           = 3.0
	DefaultConcurrency        = 1
	DefaultNavigationTimeout  = 60 * time.Second
	DefaultNetworkIdleTimeout = 30 * time.Second
	DefaultHTTPTimeout        = 10 * time.Second
)

// Cookie represents a browser cookie set before every navigation.
type Cookie struct {
	Name     string `mapstructure:"name"`
	Value    string `mapstructure:"value"`
	Domain   string `mapstructure:"domain"`
	Path     string `mapstructure:"path"`
	Secure   bool   `mapstructure:"secure"`
	HTTPOnly bool   `mapstructure:"http_only"`
}

// BrowserConfig holds headless browser settings.
type BrowserConfig struct {
	ExecPath           string        `mapstructure:"exec_path"`
	RemoteURL          string        `mapstructure:"remote_url"`
	Headless           bool          `mapstructure:"headless"`
	NavigationTimeout  time.Duration `mapstructure:"navigation_timeout"`
	NetworkIdleTimeout time.Duration `mapstructure:"network_idle_timeout"`
	UserAgent          string        `mapstructure:"user_agent"`
	Cookies            []Cookie      `mapstructure:"cookies"`
}

// HTTPConfig holds settings for the reachability check and image downloads.
type HTTPConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	FollowRedirects bool          `mapstructure:"follow_redirects"`
	UserAgent       string        `mapstructure:"user_agent"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config represents the application configuration.
type Config struct {
	OutputDir       string        `mapstructure:"output_dir"`
	WaitTime        float64       `mapstructure:"wait_time"`
	AllDevicesScope string        `mapstructure:"all_devices_scope"`
	Concurrency     int           `mapstructure:"concurrency"`
	Browser         BrowserConfig `mapstructure:"browser"`
	HTTP            HTTPConfig    `mapstructure:"http"`
	Log             LogConfig     `mapstructure:"log"`
}

// Load reads configuration into v. An explicit cfgFile must exist; otherwise
// multishot.yaml is looked up in ., ./config and ~/.config/multishot and is
// optional.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	loadEnvFile()
	setupViper(v, cfgFile)
	SetDefaults(v)

	if err := bindEnvironmentVariables(v); err != nil {
		return nil, err
	}
	if err := readConfigFile(v, cfgFile); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadEnvFile loads .env file (ignores error if file doesn't exist).
func loadEnvFile() {
	_ = godotenv.Load()
}

func setupViper(v *viper.Viper, cfgFile string) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		return
	}
	v.SetConfigName(ConfigName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", ConfigName))
	}
}

func readConfigFile(v *viper.Viper, cfgFile string) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if cfgFile == "" && errors.As(err, &notFound) {
		return nil
	}
	return fmt.Errorf("read config file: %w", err)
}

func bindEnvironmentVariables(v *viper.Viper) error {
	if err := v.BindEnv("log.level", EnvPrefix+"_LOG_LEVEL", "LOG_LEVEL"); err != nil {
		return fmt.Errorf("failed to bind LOG_LEVEL: %w", err)
	}
	if err := v.BindEnv("log.format", EnvPrefix+"_LOG_FORMAT", "LOG_FORMAT"); err != nil {
		return fmt.Errorf("failed to bind LOG_FORMAT: %w", err)
	}
	return nil
}

// SetDefaults sets default configuration values.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("output_dir", layout.DefaultOutputRoot())
	v.SetDefault("wait_time", DefaultWaitTime)
	v.SetDefault("all_devices_scope", string(device.ScopeCanonical))
	v.SetDefault("concurrency", DefaultConcurrency)

	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.remote_url", "")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.navigation_timeout", DefaultNavigationTimeout)
	v.SetDefault("browser.network_idle_timeout", DefaultNetworkIdleTimeout)
	v.SetDefault("browser.user_agent", "")

	v.SetDefault("http.timeout", DefaultHTTPTimeout)
	v.SetDefault("http.follow_redirects", true)
	v.SetDefault("http.user_agent", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Validate checks ranges and normalizes paths.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		c.OutputDir = layout.DefaultOutputRoot()
	}
	c.OutputDir = layout.ExpandHome(c.OutputDir)

	if c.WaitTime < 0 {
		return fmt.Errorf("wait_time must not be negative, got %v", c.WaitTime)
	}

	if _, err := device.ParseScope(c.AllDevicesScope); err != nil {
		return err
	}

	if c.Concurrency == 0 {
		c.Concurrency = DefaultConcurrency
	} else if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}

	if c.Browser.NavigationTimeout <= 0 {
		return fmt.Errorf("browser.navigation_timeout must be positive")
	}
	if c.Browser.NetworkIdleTimeout <= 0 {
		return fmt.Errorf("browser.network_idle_timeout must be positive")
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive")
	}

	for i, cookie := range c.Browser.Cookies {
		if cookie.Name == "" {
			return fmt.Errorf("browser cookie #%d is missing name", i+1)
		}
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "console", "json":
	default:
		return fmt.Errorf("unsupported log format: %s (supported: console, json)", c.Log.Format)
	}
	return nil
}

// Scope returns the parsed all-devices scope.
func (c *Config) Scope() device.Scope {
	scope, err := device.ParseScope(c.AllDevicesScope)
	if err != nil {
		return device.ScopeCanonical
	}
	return scope
}

// Wait returns WaitTime as a duration.
func (c *Config) Wait() time.Duration {
	return SecondsToDuration(c.WaitTime)
}

// SecondsToDuration converts fractional seconds to a time.Duration.
func SecondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
