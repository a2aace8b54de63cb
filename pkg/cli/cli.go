// Package cli provides the command-line interface for shin-macaca.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging",
		EnvVars: []string{"SHIN_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// NewApp builds the command tree.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "shin-macaca",
		Usage:   "Guided-tour UI regression suite for the Strikingly editor",
		Version: Version,
		Description: `shin-macaca drives a browser through a Macaca (WebDriver) server: it logs
in, walks the seven-dialog editor tour and changes a section font.

Examples:
  shin-macaca run --email qa@example.com --password secret
  browser=chrome MACACA_SERVER_PORT=3456 shin-macaca run --open
  shin-macaca steps
  shin-macaca report reports/2026-10-18_10-00-00 --allure`,
		Flags: GlobalFlags,
		Before: func(c *cli.Context) error {
			if c.Bool("no-ansi") {
				colorsEnabled = false
			}
			return nil
		},
		Commands: []*cli.Command{
			runCommand,
			stepsCommand,
			reportCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
