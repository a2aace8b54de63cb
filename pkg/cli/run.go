package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/SH1NK10KU/shin-macaca/pkg/actions"
	"github.com/SH1NK10KU/shin-macaca/pkg/config"
	"github.com/SH1NK10KU/shin-macaca/pkg/executor"
	"github.com/SH1NK10KU/shin-macaca/pkg/logger"
	"github.com/SH1NK10KU/shin-macaca/pkg/pagemodel"
	"github.com/SH1NK10KU/shin-macaca/pkg/report"
	"github.com/SH1NK10KU/shin-macaca/pkg/tour"
)

var runCommand = &cli.Command{
	Name:  "run",
	Usage: "Run the tour suite against a Macaca server",
	Description: `Log in, walk the guided tour and change a font, reporting every step.

Settings are taken from, highest priority first: flags, environment
(browser, MACACA_SERVER_PORT, SHIN_EMAIL, SHIN_PASSWORD, SHIN_BASE_URL,
also read from ./.env), config.yaml, built-in defaults.

Reports are generated in the output directory:
  - Default: ./reports/<timestamp>/
  - With --output: <output>/<timestamp>/
  - With --output and --flatten: <output>/ (no timestamp subfolder)`,
	Flags: []cli.Flag{
		// Configuration
		&cli.StringFlag{
			Name:  "config",
			Usage: "Path to config.yaml (default: ./config.yaml if present)",
		},
		&cli.StringFlag{
			Name:  "tour",
			Usage: "YAML file overriding the tour dialogs and font",
		},

		// Server and browser
		&cli.StringFlag{
			Name:  "host",
			Usage: "Macaca server host",
		},
		&cli.IntFlag{
			Name:  "port",
			Usage: "Macaca server port",
		},
		&cli.StringFlag{
			Name:  "browser",
			Usage: "Browser name (electron, chrome, ...)",
		},

		// Site
		&cli.StringFlag{
			Name:  "base-url",
			Usage: "Site under test",
		},
		&cli.StringFlag{
			Name:  "email",
			Usage: "Login email",
		},
		&cli.StringFlag{
			Name:  "password",
			Usage: "Login password",
		},

		// Waits
		&cli.DurationFlag{
			Name:  "wait-timeout",
			Usage: "How long to wait for an element or page load",
		},
		&cli.DurationFlag{
			Name:  "settle",
			Usage: "Extra pause after each page load",
		},

		// Output
		&cli.StringFlag{
			Name:  "output",
			Usage: "Output directory for reports (default: ./reports)",
		},
		&cli.BoolFlag{
			Name:  "flatten",
			Usage: "Don't create timestamp subfolder (requires --output)",
		},
		&cli.BoolFlag{
			Name:  "open",
			Usage: "Open the HTML report when the run ends",
		},
		&cli.BoolFlag{
			Name:  "allure",
			Usage: "Also write allure-results/",
		},
		&cli.BoolFlag{
			Name:  "stop-on-fail",
			Usage: "Skip the remaining cases after the first failure",
		},
	},
	Action: runSuite,
}

// RunConfig holds everything needed for one run.
type RunConfig struct {
	Config    *config.Config
	Tour      pagemodel.Tour
	OutputDir string
	Verbose   bool
	Allure    bool
}

func runSuite(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	outputDir, err := resolveOutputDir(c.String("output"), c.Bool("flatten"), cfg.Report.Output)
	if err != nil {
		return err
	}

	t, err := cfg.Tour()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return executeRun(ctx, &RunConfig{
		Config:    cfg,
		Tour:      t,
		OutputDir: outputDir,
		Verbose:   c.Bool("verbose"),
		Allure:    c.Bool("allure"),
	})
}

// loadConfig resolves settings: defaults, then config.yaml, then the
// environment (including ./.env), then flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if err := config.LoadDotEnv("."); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg *config.Config
	var err error
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromDir(".")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	applyFlags(c, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags copies explicitly set flags over cfg.
func applyFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("host") {
		cfg.Server.Host = c.String("host")
	}
	if c.IsSet("port") {
		cfg.Server.Port = c.Int("port")
	}
	if c.IsSet("browser") {
		cfg.Browser.Name = c.String("browser")
	}
	if c.IsSet("base-url") {
		cfg.Site.BaseURL = c.String("base-url")
	}
	if c.IsSet("email") {
		cfg.Site.Email = c.String("email")
	}
	if c.IsSet("password") {
		cfg.Site.Password = c.String("password")
	}
	if c.IsSet("tour") {
		cfg.Site.TourFile = c.String("tour")
	}
	if c.IsSet("wait-timeout") {
		cfg.Wait.Timeout = c.Duration("wait-timeout")
	}
	if c.IsSet("settle") {
		cfg.Wait.Settle = c.Duration("settle")
	}
	if c.IsSet("open") {
		cfg.Report.Open = c.Bool("open")
	}
	if c.IsSet("stop-on-fail") {
		cfg.StopOnFail = c.Bool("stop-on-fail")
	}
	cfg.Normalize()
}

// resolveOutputDir determines the output directory based on flags.
// - No --output: <base>/<timestamp>/
// - --output given: <output>/<timestamp>/
// - --output + --flatten: <output>/ (error if --output not given)
func resolveOutputDir(output string, flatten bool, base string) (string, error) {
	if flatten && output == "" {
		return "", fmt.Errorf("--flatten requires --output to be specified")
	}

	baseDir := output
	if baseDir == "" {
		baseDir = base
	}
	if baseDir == "" {
		baseDir = "./reports"
	}

	if flatten {
		return filepath.Clean(baseDir), nil
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(baseDir, timestamp), nil
}

func executeRun(ctx context.Context, rc *RunConfig) error {
	cfg := rc.Config

	// 1. Create output directory
	if err := os.MkdirAll(rc.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// 2. Initialize logging
	logPath := filepath.Join(rc.OutputDir, "shin-macaca.log")
	if err := logger.Init(logPath, rc.Verbose); err != nil {
		fmt.Printf("Warning: Failed to initialize logger: %v\n", err)
	}
	defer logger.Close()

	logger.Info("=== Run started ===")
	logger.Info("Output directory: %s", rc.OutputDir)
	logger.Info("Server: %s", cfg.ServerURL())
	logger.Info("Browser: %s", cfg.Browser.Name)

	creds := cfg.Credentials()

	printBanner()
	printSetup(cfg, creds)

	// 3. Build the suite
	model := pagemodel.New(cfg.Site.BaseURL)
	cases := tour.Suite(model, rc.Tour, creds)

	// 4. Execute
	fmt.Printf("\n%sExecution%s\n", color(colorBold), color(colorReset))
	runner := executor.New(sessionStarter(cfg, model), executor.RunnerConfig{
		OutputDir:       rc.OutputDir,
		StopOnFail:      cfg.StopOnFail,
		ScreenshotWidth: cfg.Browser.Width,
		Suite:           tour.SuiteName,
		Browser: report.Browser{
			Name:        cfg.Browser.Name,
			ServerURL:   cfg.ServerURL(),
			UserAgent:   cfg.Browser.UserAgent,
			Width:       cfg.Browser.Width,
			Height:      cfg.Browser.Height,
			ScaleFactor: cfg.Browser.DeviceScaleFactor,
		},
		Runner:         report.RunnerInfo{Name: "shin-macaca", Version: Version},
		OnCaseStart:    onCaseStart,
		OnStepComplete: onStepComplete,
		OnCaseEnd:      onCaseEnd,
	})

	result, err := runner.Run(ctx, cases)
	if err != nil {
		logger.Error("Run failed: %v", err)
		return err
	}
	logger.Info("Run completed: %d passed, %d failed, %d skipped",
		result.PassedCases, result.FailedCases, result.SkippedCases)

	printSummary(result)
	if result.Err != nil {
		fmt.Printf("\n  %s✗ Run aborted:%s %v\n", color(colorRed), color(colorReset), result.Err)
	}

	// 5. Reports
	htmlPath := writeReports(rc.OutputDir, rc.Allure)
	if cfg.Report.Open && htmlPath != "" {
		if err := report.Open(htmlPath); err != nil {
			fmt.Printf("  %s⚠%s Warning: %v\n", color(colorYellow), color(colorReset), err)
		}
	}

	if result.Status != report.StatusPassed {
		return cli.Exit("", 1)
	}
	return nil
}

// sessionStarter opens a browser session with the configured capabilities.
func sessionStarter(cfg *config.Config, model *pagemodel.Model) executor.SessionStarter {
	return func(ctx context.Context) (*actions.Session, error) {
		fmt.Printf("  %s⏳ Connecting to %s...%s\n", color(colorCyan), cfg.ServerURL(), color(colorReset))
		return actions.Start(ctx, actions.Options{
			ServerURL:      cfg.ServerURL(),
			Capabilities:   cfg.Capabilities(),
			WindowWidth:    cfg.Browser.Width,
			WindowHeight:   cfg.Browser.Height,
			CommandTimeout: cfg.Server.CommandTimeout,
			Wait: actions.WaitOptions{
				Timeout:  cfg.Wait.Timeout,
				Interval: cfg.Wait.Interval,
				Settle:   cfg.Wait.Settle,
			},
			Model: model,
		})
	}
}

// writeReports regenerates the final HTML report and, optionally, the
// Allure results. It returns the HTML path, or "" when it could not be written.
func writeReports(outputDir string, allure bool) string {
	logger.Info("Generating reports...")
	fmt.Println()
	fmt.Printf("  %s⏳ Generating reports...%s\n", color(colorCyan), color(colorReset))
	fmt.Println()

	htmlPath := filepath.Join(outputDir, "report.html")
	jsonPath := filepath.Join(outputDir, "report.json")

	if err := report.GenerateHTML(outputDir, report.HTMLConfig{
		OutputPath: htmlPath,
		Title:      tour.SuiteName,
	}); err != nil {
		htmlPath = ""
		fmt.Printf("  %s⚠%s Warning: failed to generate HTML report: %v\n", color(colorYellow), color(colorReset), err)
	}

	allurePath := ""
	if allure {
		if err := report.GenerateAllure(outputDir); err != nil {
			fmt.Printf("  %s⚠%s Warning: failed to generate Allure results: %v\n", color(colorYellow), color(colorReset), err)
		} else {
			allurePath = filepath.Join(outputDir, "allure-results")
		}
	}

	fmt.Println("  Reports:")
	if htmlPath != "" {
		fmt.Printf("    HTML:   %s\n", htmlPath)
	}
	fmt.Printf("    JSON:   %s\n", jsonPath)
	if allurePath != "" {
		fmt.Printf("    Allure: %s\n", allurePath)
	}
	fmt.Printf("    Log:    %s\n", filepath.Join(outputDir, "shin-macaca.log"))
	return htmlPath
}
