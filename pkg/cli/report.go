package cli

import (
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/SH1NK10KU/shin-macaca/pkg/report"
	"github.com/SH1NK10KU/shin-macaca/pkg/tour"
)

var reportCommand = &cli.Command{
	Name:      "report",
	Usage:     "Regenerate reports from a previous run",
	ArgsUsage: "<report-dir>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "html",
			Usage: "Write the HTML report to this path instead of <report-dir>/report.html",
		},
		&cli.BoolFlag{
			Name:  "embed",
			Usage: "Embed screenshots in the HTML (portable single file)",
		},
		&cli.BoolFlag{
			Name:  "allure",
			Usage: "Also write <report-dir>/allure-results/",
		},
		&cli.BoolFlag{
			Name:  "open",
			Usage: "Open the HTML report",
		},
	},
	Action: regenerateReport,
}

func regenerateReport(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one report directory is required")
	}
	dir := c.Args().First()

	htmlPath := c.String("html")
	if htmlPath == "" {
		htmlPath = filepath.Join(dir, "report.html")
	}
	if err := report.GenerateHTML(dir, report.HTMLConfig{
		OutputPath:  htmlPath,
		EmbedAssets: c.Bool("embed"),
		Title:       tour.SuiteName,
	}); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "HTML:   %s\n", htmlPath)

	if c.Bool("allure") {
		if err := report.GenerateAllure(dir); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Allure: %s\n", filepath.Join(dir, "allure-results"))
	}

	if c.Bool("open") {
		return report.Open(htmlPath)
	}
	return nil
}
