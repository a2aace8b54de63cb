package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SH1NK10KU/shin-macaca/pkg/core"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.ServerURL() != "http://localhost:3456" {
		t.Errorf("ServerURL() = %q, want %q", cfg.ServerURL(), "http://localhost:3456")
	}
	if cfg.Browser.Name != "electron" {
		t.Errorf("Browser.Name = %q, want electron", cfg.Browser.Name)
	}
	if cfg.Browser.Width != 1024 || cfg.Browser.Height != 768 {
		t.Errorf("window = %dx%d, want 1024x768", cfg.Browser.Width, cfg.Browser.Height)
	}
	if cfg.Wait.Timeout != 10*time.Second || cfg.Wait.Interval != 100*time.Millisecond {
		t.Errorf("wait = %s/%s, want 10s/100ms", cfg.Wait.Timeout, cfg.Wait.Interval)
	}
	if cfg.Server.CommandTimeout != 300*time.Second {
		t.Errorf("CommandTimeout = %s, want 5m0s", cfg.Server.CommandTimeout)
	}
	if !cfg.Credentials().IsPlaceholder() {
		t.Error("expected placeholder credentials by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestCapabilities(t *testing.T) {
	caps := Default().Capabilities()

	want := map[string]interface{}{
		"platformName":      "desktop",
		"browserName":       "electron",
		"userAgent":         DefaultUserAgent,
		"deviceScaleFactor": 2.0,
	}
	for k, v := range want {
		if caps[k] != v {
			t.Errorf("caps[%q] = %v, want %v", k, caps[k], v)
		}
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `
server:
  host: macaca.local
  port: 4000
browser:
  name: Chrome
  width: 1280
  height: 800
wait:
  timeout: 20s
  interval: 250ms
  settle: 300ms
site:
  email: qa@example.com
  tourFile: tour.yaml
report:
  output: out
  open: true
stopOnFail: true
`
	writeFile(t, configPath, content)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ServerURL() != "http://macaca.local:4000" {
		t.Errorf("ServerURL() = %q", cfg.ServerURL())
	}
	if cfg.Browser.Name != "chrome" {
		t.Errorf("expected browser name lower-cased, got %q", cfg.Browser.Name)
	}
	if cfg.Browser.Width != 1280 || cfg.Browser.Height != 800 {
		t.Errorf("window = %dx%d", cfg.Browser.Width, cfg.Browser.Height)
	}
	if cfg.Browser.UserAgent != DefaultUserAgent {
		t.Errorf("expected default user agent to be kept, got %q", cfg.Browser.UserAgent)
	}
	if cfg.Wait.Timeout != 20*time.Second || cfg.Wait.Interval != 250*time.Millisecond || cfg.Wait.Settle != 300*time.Millisecond {
		t.Errorf("wait = %+v", cfg.Wait)
	}
	if cfg.Site.Email != "qa@example.com" || cfg.Site.TourFile != "tour.yaml" {
		t.Errorf("site = %+v", cfg.Site)
	}
	if cfg.Report.Output != "out" || !cfg.Report.Open {
		t.Errorf("report = %+v", cfg.Report)
	}
	if !cfg.StopOnFail {
		t.Error("expected stopOnFail true")
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	writeFile(t, configPath, `server: [invalid yaml`)

	_, err := Load(configPath)
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoad_EmptyConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	writeFile(t, configPath, ``)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 3456 {
		t.Errorf("expected default port, got %d", cfg.Server.Port)
	}
}

func TestLoadFromDir_ConfigYml(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.yml"), "browser:\n  name: firefox\n")

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Browser.Name != "firefox" {
		t.Errorf("expected firefox, got %s", cfg.Browser.Name)
	}
}

func TestLoadFromDir_NoConfig(t *testing.T) {
	cfg, err := LoadFromDir(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Browser.Name != "electron" {
		t.Errorf("expected defaults, got browser %s", cfg.Browser.Name)
	}
}

func TestLoadFromDir_PrefersYamlOverYml(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.yaml"), "browser:\n  name: chrome\n")
	writeFile(t, filepath.Join(dir, "config.yml"), "browser:\n  name: firefox\n")

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Should prefer config.yaml
	if cfg.Browser.Name != "chrome" {
		t.Errorf("expected chrome (from config.yaml), got %s", cfg.Browser.Name)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvBrowser:  "Electron",
		EnvPort:     "5000",
		EnvEmail:    "qa@example.com",
		EnvPassword: "secret",
		EnvBaseURL:  "http://staging.local",
	}

	cfg := Default()
	if err := cfg.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Browser.Name != "electron" {
		t.Errorf("Browser.Name = %q, want electron", cfg.Browser.Name)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want 5000", cfg.Server.Port)
	}
	creds := cfg.Credentials()
	if creds.Email != "qa@example.com" || creds.Password != "secret" {
		t.Errorf("Credentials() = %v", creds)
	}
	if cfg.Site.BaseURL != "http://staging.local" {
		t.Errorf("Site.BaseURL = %q", cfg.Site.BaseURL)
	}
}

func TestApplyEnv_InvalidPort(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(func(k string) string {
		if k == EnvPort {
			return "abc"
		}
		return ""
	})
	if !errors.Is(err, core.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ".env"), "SHIN_TEST_DOTENV=loaded\n")
	t.Cleanup(func() { os.Unsetenv("SHIN_TEST_DOTENV") })

	if err := LoadDotEnv(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("SHIN_TEST_DOTENV"); got != "loaded" {
		t.Errorf("SHIN_TEST_DOTENV = %q, want loaded", got)
	}

	// Missing file is not an error.
	if err := LoadDotEnv(t.TempDir()); err != nil {
		t.Errorf("unexpected error for missing .env: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty host", func(c *Config) { c.Server.Host = "" }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"no browser", func(c *Config) { c.Browser.Name = "" }},
		{"zero window", func(c *Config) { c.Browser.Width = 0 }},
		{"zero timeout", func(c *Config) { c.Wait.Timeout = 0 }},
		{"interval over timeout", func(c *Config) { c.Wait.Interval = time.Minute }},
		{"negative settle", func(c *Config) { c.Wait.Settle = -time.Second }},
		{"no output", func(c *Config) { c.Report.Output = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if !errors.Is(err, core.ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestTour(t *testing.T) {
	cfg := Default()
	tour, err := cfg.Tour()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tour.Dialogs) != 7 {
		t.Errorf("expected 7 dialogs, got %d", len(tour.Dialogs))
	}

	cfg.Site.TourFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := cfg.Tour(); err == nil {
		t.Error("expected error for missing tour file")
	}
}
