package cli

import (
	"bytes"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/SH1NK10KU/shin-macaca/pkg/config"
	"github.com/SH1NK10KU/shin-macaca/pkg/report"
	"github.com/SH1NK10KU/shin-macaca/pkg/webdriver/wdtest"
)

// silenceStdout discards console output for the rest of the test.
func silenceStdout(t *testing.T) {
	t.Helper()
	devNull, err := os.Open(os.DevNull)
	if err != nil {
		t.Fatal(err)
	}
	oldStdout := os.Stdout
	os.Stdout = devNull
	t.Cleanup(func() {
		os.Stdout = oldStdout
		devNull.Close()
	})
}

func TestResolveOutputDir_Default(t *testing.T) {
	dir, err := resolveOutputDir("", false, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(dir, "reports/") {
		t.Errorf("expected dir to start with reports/, got %s", dir)
	}
	// Should have timestamp subfolder
	parts := strings.Split(dir, "/")
	if len(parts) != 2 {
		t.Errorf("expected reports/<timestamp>, got %s", dir)
	}
}

func TestResolveOutputDir_ConfigBase(t *testing.T) {
	dir, err := resolveOutputDir("", false, "out")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(dir, "out/") {
		t.Errorf("expected dir to start with out/, got %s", dir)
	}
}

func TestResolveOutputDir_CustomOutput(t *testing.T) {
	dir, err := resolveOutputDir("./my-reports", false, "out")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(dir, "my-reports/") {
		t.Errorf("expected dir to start with my-reports/, got %s", dir)
	}
}

func TestResolveOutputDir_Flatten(t *testing.T) {
	dir, err := resolveOutputDir("./my-reports", true, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dir != "my-reports" {
		t.Errorf("expected my-reports, got %s", dir)
	}
}

func TestResolveOutputDir_FlattenWithoutOutput(t *testing.T) {
	_, err := resolveOutputDir("", true, "out")
	if err == nil {
		t.Error("expected error when flatten is used without output")
	}
}

func TestGlobalFlags(t *testing.T) {
	flagNames := make(map[string]bool)
	for _, f := range GlobalFlags {
		for _, name := range f.Names() {
			flagNames[name] = true
		}
	}

	for _, name := range []string{"verbose", "no-ansi"} {
		if !flagNames[name] {
			t.Errorf("expected flag %q to be defined", name)
		}
	}
}

func TestNewApp_Commands(t *testing.T) {
	app := NewApp()
	for _, name := range []string{"run", "steps", "report"} {
		if app.Command(name) == nil {
			t.Errorf("expected command %q", name)
		}
	}
}

func TestStepsCommand(t *testing.T) {
	oldEnabled := colorsEnabled
	defer func() { colorsEnabled = oldEnabled }()

	var out bytes.Buffer
	app := NewApp()
	app.Writer = &out

	if err := app.Run([]string{"shin-macaca", "--no-ansi", "steps"}); err != nil {
		t.Fatalf("steps failed: %v", err)
	}

	text := out.String()
	for _, want := range []string{
		"[1] Part 1: verify these windows are shown in correct sequence",
		`Check dialog "Site Sections" and click "Next"`,
		"[2] Part 2: verify the text font is changed to 'Arvo'",
		"Pick Arvo",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestStepsCommand_TourOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tour.yaml")
	if err := os.WriteFile(path, []byte("font:\n  name: Lato\n  expectPrefix: lato\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	app := NewApp()
	app.Writer = &out
	if err := app.Run([]string{"shin-macaca", "steps", "--tour", path}); err != nil {
		t.Fatalf("steps failed: %v", err)
	}
	if !strings.Contains(out.String(), "Pick Lato") {
		t.Errorf("expected overridden font:\n%s", out.String())
	}
}

func TestReportCommand_NoArgs(t *testing.T) {
	app := NewApp()
	app.Writer = &bytes.Buffer{}
	if err := app.Run([]string{"shin-macaca", "report"}); err == nil {
		t.Error("expected error without a report directory")
	}
}

func TestReportCommand(t *testing.T) {
	dir := t.TempDir()
	index, details := report.BuildSkeleton([]report.CasePlan{{Name: "Part 1", Steps: []string{"log in"}}}, report.BuilderConfig{})
	if err := report.WriteSkeleton(dir, index, details); err != nil {
		t.Fatal(err)
	}

	htmlPath := filepath.Join(t.TempDir(), "portable.html")
	app := NewApp()
	app.Writer = &bytes.Buffer{}
	if err := app.Run([]string{"shin-macaca", "report", "--html", htmlPath, "--embed", "--allure", dir}); err != nil {
		t.Fatalf("report failed: %v", err)
	}

	if _, err := os.Stat(htmlPath); err != nil {
		t.Errorf("html not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "allure-results", "categories.json")); err != nil {
		t.Errorf("allure results not written: %v", err)
	}
}

// captureConfig runs the run command's flag set and returns the resolved config.
func captureConfig(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()
	var got *config.Config
	cmd := &cli.Command{
		Name:  "run",
		Flags: runCommand.Flags,
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			got = cfg
			return err
		},
	}
	app := &cli.App{Name: "test-app", Flags: GlobalFlags, Commands: []*cli.Command{cmd}}
	err := app.Run(append([]string{"test-app", "run"}, args...))
	return got, err
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "server:\n  port: 4444\nsite:\n  email: file@example.com\n  password: file-secret\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(config.EnvEmail, "env@example.com")
	t.Setenv(config.EnvPassword, "env-secret")
	t.Setenv(config.EnvBrowser, "Chrome")
	t.Setenv(config.EnvPort, "")

	cfg, err := captureConfig(t, "--config", path, "--email", "flag@example.com")
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	if cfg.Site.Email != "flag@example.com" {
		t.Errorf("Email = %q, want flag value", cfg.Site.Email)
	}
	if cfg.Site.Password != "env-secret" {
		t.Errorf("Password = %q, want env value", cfg.Site.Password)
	}
	if cfg.Server.Port != 4444 {
		t.Errorf("Port = %d, want file value 4444", cfg.Server.Port)
	}
	if cfg.Browser.Name != "chrome" {
		t.Errorf("Browser = %q, want lower-cased env value", cfg.Browser.Name)
	}
	if cfg.Server.Host != "localhost" {
		t.Errorf("Host = %q, want default", cfg.Server.Host)
	}
}

func TestLoadConfig_FlagNormalizesBrowser(t *testing.T) {
	t.Setenv(config.EnvBrowser, "")
	t.Setenv(config.EnvPort, "")

	cfg, err := captureConfig(t, "--browser", " Electron ")
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Browser.Name != "electron" {
		t.Errorf("Browser = %q, want electron", cfg.Browser.Name)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv(config.EnvPort, "")

	if _, err := captureConfig(t, "--port", "70000"); err == nil {
		t.Error("expected error for out-of-range port")
	}
}

func TestRunCommand_SessionRejected(t *testing.T) {
	silenceStdout(t)
	t.Setenv(config.EnvPort, "")
	t.Setenv(config.EnvBrowser, "")

	srv := wdtest.NewServer()
	defer srv.Close()
	srv.RejectSession = true

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "run")
	app := NewApp()
	app.ExitErrHandler = func(*cli.Context, error) {}
	err = app.Run([]string{
		"shin-macaca", "run",
		"--host", u.Hostname(), "--port", u.Port(),
		"--output", out, "--flatten",
		"--wait-timeout", "200ms",
		"--allure",
	})

	var exitErr cli.ExitCoder
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
		t.Fatalf("expected exit code 1, got %v", err)
	}

	index, _, err := report.ReadReport(out)
	if err != nil {
		t.Fatalf("ReadReport failed: %v", err)
	}
	if index.Status != report.StatusFailed {
		t.Errorf("status = %q, want failed", index.Status)
	}
	for _, name := range []string{"report.html", "shin-macaca.log", filepath.Join("allure-results", "environment.properties")} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "0ms"},
		{999, "999ms"},
		{1500, "1.5s"},
		{61000, "1m 1s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.ms); got != tt.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 42); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	got := truncate("Part 1: verify these windows are shown in correct sequence", 20)
	if len([]rune(got)) != 20 || !strings.HasSuffix(got, "...") {
		t.Errorf("truncate() = %q", got)
	}
}

func TestColor_Enabled(t *testing.T) {
	oldEnabled := colorsEnabled
	defer func() { colorsEnabled = oldEnabled }()

	colorsEnabled = true
	result := color(colorGreen)
	if result != colorGreen {
		t.Errorf("color(colorGreen) with colors enabled = %q, want %q", result, colorGreen)
	}
}

func TestColor_Disabled(t *testing.T) {
	oldEnabled := colorsEnabled
	defer func() { colorsEnabled = oldEnabled }()

	colorsEnabled = false
	result := color(colorGreen)
	if result != "" {
		t.Errorf("color(colorGreen) with colors disabled = %q, want empty string", result)
	}
}
