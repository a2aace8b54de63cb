// Package config handles configuration for shin-macaca.
//
// Values are resolved in this order, later sources winning:
// built-in defaults, config.yaml, environment (including .env), CLI flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/SH1NK10KU/shin-macaca/pkg/core"
	"github.com/SH1NK10KU/shin-macaca/pkg/pagemodel"
)

// Environment variables read by ApplyEnv.
const (
	EnvBrowser  = "browser"
	EnvPort     = "MACACA_SERVER_PORT"
	EnvEmail    = "SHIN_EMAIL"
	EnvPassword = "SHIN_PASSWORD"
	EnvBaseURL  = "SHIN_BASE_URL"
)

// DefaultUserAgent identifies the automated browser to the site.
const DefaultUserAgent = "Mozilla/5.0 AppleWebKit/537.36 (KHTML, like Gecko) Chrome/59.0 Safari/537.36 Macaca Custom UserAgent"

// Config represents the workspace configuration (config.yaml).
type Config struct {
	Server  Server  `yaml:"server"`
	Browser Browser `yaml:"browser"`
	Wait    Wait    `yaml:"wait"`
	Site    Site    `yaml:"site"`
	Report  Report  `yaml:"report"`

	// StopOnFail skips the remaining cases after the first failure.
	StopOnFail bool `yaml:"stopOnFail"`
}

// Server locates the automation server.
type Server struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	CommandTimeout time.Duration `yaml:"commandTimeout"` // per HTTP round trip
}

// Browser describes the session to create.
type Browser struct {
	Name              string  `yaml:"name"`
	UserAgent         string  `yaml:"userAgent"`
	DeviceScaleFactor float64 `yaml:"deviceScaleFactor"`
	Width             int     `yaml:"width"`
	Height            int     `yaml:"height"`
}

// Wait controls element waits.
type Wait struct {
	Timeout  time.Duration `yaml:"timeout"`
	Interval time.Duration `yaml:"interval"`
	Settle   time.Duration `yaml:"settle"`
}

// Site is the application under test.
type Site struct {
	BaseURL  string `yaml:"baseURL"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	TourFile string `yaml:"tourFile"` // optional fixtures override
}

// Report controls output.
type Report struct {
	Output string `yaml:"output"`
	Open   bool   `yaml:"open"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: Server{
			Host:           "localhost",
			Port:           3456,
			CommandTimeout: 300 * time.Second,
		},
		Browser: Browser{
			Name:              "electron",
			UserAgent:         DefaultUserAgent,
			DeviceScaleFactor: 2,
			Width:             1024,
			Height:            768,
		},
		Wait: Wait{
			Timeout:  10 * time.Second,
			Interval: 100 * time.Millisecond,
		},
		Site: Site{
			BaseURL:  pagemodel.DefaultBaseURL,
			Email:    pagemodel.PlaceholderEmail,
			Password: pagemodel.PlaceholderPassword,
		},
		Report: Report{
			Output: "reports",
		},
	}
}

// Load loads configuration from a file on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Normalize()
	return cfg, nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	// Try config.yaml first
	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// Try config.yml
	configPath = filepath.Join(dir, "config.yml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// No config file found, use defaults
	return Default(), nil
}

// LoadDotEnv loads <dir>/.env into the process environment when it exists.
// Variables already set are not overridden.
func LoadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	return godotenv.Load(path)
}

// ApplyEnv overrides fields from environment variables read with getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvBrowser); v != "" {
		c.Browser.Name = v
	}
	if v := getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("%s=%q is not a port number", EnvPort, v))
		}
		c.Server.Port = port
	}
	if v := getenv(EnvEmail); v != "" {
		c.Site.Email = v
	}
	if v := getenv(EnvPassword); v != "" {
		c.Site.Password = v
	}
	if v := getenv(EnvBaseURL); v != "" {
		c.Site.BaseURL = v
	}
	c.Normalize()
	return nil
}

// Normalize lower-cases the browser name.
func (c *Config) Normalize() {
	c.Browser.Name = strings.ToLower(strings.TrimSpace(c.Browser.Name))
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return core.ErrInvalidConfig.WithMessage(fmt.Sprintf(format, args...))
	}
	switch {
	case c.Server.Host == "":
		return invalid("server.host is required")
	case c.Server.Port <= 0 || c.Server.Port > 65535:
		return invalid("server.port %d out of range", c.Server.Port)
	case c.Browser.Name == "":
		return invalid("browser.name is required")
	case c.Browser.Width <= 0 || c.Browser.Height <= 0:
		return invalid("browser window %dx%d is not positive", c.Browser.Width, c.Browser.Height)
	case c.Wait.Timeout <= 0 || c.Wait.Interval <= 0:
		return invalid("wait.timeout and wait.interval must be positive")
	case c.Wait.Interval > c.Wait.Timeout:
		return invalid("wait.interval %s exceeds wait.timeout %s", c.Wait.Interval, c.Wait.Timeout)
	case c.Wait.Settle < 0:
		return invalid("wait.settle must not be negative")
	case c.Report.Output == "":
		return invalid("report.output is required")
	}
	return nil
}

// ServerURL is the automation server endpoint.
func (c *Config) ServerURL() string {
	return fmt.Sprintf("http://%s:%d", c.Server.Host, c.Server.Port)
}

// Capabilities are sent when creating the session.
func (c *Config) Capabilities() map[string]interface{} {
	caps := map[string]interface{}{
		"platformName": "desktop",
		"browserName":  c.Browser.Name,
	}
	if c.Browser.UserAgent != "" {
		caps["userAgent"] = c.Browser.UserAgent
	}
	if c.Browser.DeviceScaleFactor > 0 {
		caps["deviceScaleFactor"] = c.Browser.DeviceScaleFactor
	}
	return caps
}

// Credentials returns the test account.
func (c *Config) Credentials() pagemodel.Credentials {
	return pagemodel.Credentials{Email: c.Site.Email, Password: c.Site.Password}
}

// Tour returns the tour fixtures, from Site.TourFile when set.
func (c *Config) Tour() (pagemodel.Tour, error) {
	if c.Site.TourFile == "" {
		return pagemodel.DefaultTour(), nil
	}
	return pagemodel.LoadTour(c.Site.TourFile)
}
