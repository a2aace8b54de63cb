package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/SH1NK10KU/shin-macaca/pkg/config"
	"github.com/SH1NK10KU/shin-macaca/pkg/executor"
	"github.com/SH1NK10KU/shin-macaca/pkg/pagemodel"
	"github.com/SH1NK10KU/shin-macaca/pkg/report"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// Slow step threshold in milliseconds (5 seconds)
const slowThresholdMs = 5000

// colorsEnabled determines if ANSI colors should be used
var colorsEnabled = true

func init() {
	// Respect NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		colorsEnabled = false
		return
	}
	// Check if stdout is a terminal
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			colorsEnabled = false
		}
	}
}

// color returns the color code if colors are enabled, empty string otherwise
func color(c string) string {
	if colorsEnabled {
		return c
	}
	return ""
}

func printBanner() {
	fmt.Println()
	fmt.Printf("%sshin-macaca%s %s\n", color(colorBold), color(colorReset), Version)
}

func printSetup(cfg *config.Config, creds pagemodel.Credentials) {
	fmt.Printf("\n%sSetup%s\n", color(colorBold), color(colorReset))
	fmt.Printf("  Server:   %s\n", cfg.ServerURL())
	fmt.Printf("  Browser:  %s (%dx%d @%gx)\n", cfg.Browser.Name, cfg.Browser.Width, cfg.Browser.Height, cfg.Browser.DeviceScaleFactor)
	fmt.Printf("  Site:     %s\n", cfg.Site.BaseURL)
	fmt.Printf("  Account:  %s\n", creds)
	if creds.IsPlaceholder() {
		fmt.Printf("  %s⚠%s Using placeholder credentials; set --email/--password or %s/%s\n",
			color(colorYellow), color(colorReset), config.EnvEmail, config.EnvPassword)
	}
}

// Live progress callbacks

func onCaseStart(caseIdx, totalCases int, name string) {
	fmt.Printf("\n  %s[%d/%d]%s %s%s%s\n",
		color(colorCyan), caseIdx+1, totalCases, color(colorReset),
		color(colorBold), name, color(colorReset))
	fmt.Println(strings.Repeat("─", 60))
}

func onStepComplete(idx int, name string, status report.Status, durationMs int64, errMsg string) {
	durStr := formatDuration(durationMs)

	if status == report.StatusPassed {
		symbol := "✓"
		symbolColor := color(colorGreen)
		durColor := ""
		if durationMs >= slowThresholdMs {
			durColor = color(colorYellow)
			symbol = "⚠"
			symbolColor = color(colorYellow)
		}
		fmt.Printf("    %s%s%s %s %s(%s)%s\n",
			symbolColor, symbol, color(colorReset), name, durColor, durStr, color(colorReset))
		return
	}

	fmt.Printf("    %s✗%s %s (%s)\n", color(colorRed), color(colorReset), name, durStr)
	if errMsg != "" {
		fmt.Printf("      %s╰─%s %s\n", color(colorGray), color(colorReset), errMsg)
	}
}

func onCaseEnd(name string, status report.Status, durationMs int64) {
	switch status {
	case report.StatusPassed:
		fmt.Printf("%s✓ %s%s %s%s%s\n",
			color(colorGreen), color(colorReset), name, color(colorGray), formatDuration(durationMs), color(colorReset))
	case report.StatusSkipped:
		fmt.Printf("%s- %s%s %s(skipped)%s\n",
			color(colorCyan), color(colorReset), name, color(colorGray), color(colorReset))
	default:
		fmt.Printf("%s✗ %s%s %s%s%s\n",
			color(colorRed), color(colorReset), name, color(colorGray), formatDuration(durationMs), color(colorReset))
	}
}

func printSummary(result *executor.RunResult) {
	totalSteps := 0
	passedSteps := 0
	failedSteps := 0
	skippedSteps := 0
	for _, cr := range result.CaseResults {
		totalSteps += cr.StepsTotal
		passedSteps += cr.StepsPassed
		failedSteps += cr.StepsFailed
		skippedSteps += cr.StepsSkipped
	}

	fmt.Println()
	if passedSteps > 0 {
		fmt.Printf("  %s%d steps passing%s (%s)\n", color(colorGreen), passedSteps, color(colorReset), formatDuration(result.Duration))
	}
	if failedSteps > 0 {
		fmt.Printf("  %s%d steps failing%s\n", color(colorRed), failedSteps, color(colorReset))
	}
	if skippedSteps > 0 {
		fmt.Printf("  %s%d steps skipped%s\n", color(colorCyan), skippedSteps, color(colorReset))
	}
	fmt.Println()

	tableWidth := 92
	fmt.Println(strings.Repeat("═", tableWidth))
	fmt.Printf("  %-42s %6s %7s %6s %6s %6s %10s\n", "Case", "Status", "Steps", "Pass", "Fail", "Skip", "Duration")
	fmt.Println(strings.Repeat("─", tableWidth))

	for _, cr := range result.CaseResults {
		status, statusColor := statusLabel(cr.Status)

		fmt.Printf("  %-42s %s%6s%s %7d %6d %6d %6d %10s\n",
			truncate(cr.Name, 42), statusColor, status, color(colorReset),
			cr.StepsTotal, cr.StepsPassed, cr.StepsFailed, cr.StepsSkipped,
			formatDuration(cr.Duration))
	}

	fmt.Println(strings.Repeat("─", tableWidth))
	statusStr := fmt.Sprintf("%d/%d", result.PassedCases, result.TotalCases)
	statusColor := color(colorGreen)
	if result.FailedCases > 0 {
		statusColor = color(colorRed)
	}
	fmt.Printf("  %s%-42s%s %s%6s%s %7d %6d %6d %6d %10s\n",
		color(colorBold), "TOTAL", color(colorReset),
		statusColor, statusStr, color(colorReset),
		totalSteps, passedSteps, failedSteps, skippedSteps,
		formatDuration(result.Duration))
	fmt.Println(strings.Repeat("═", tableWidth))
}

func statusLabel(s report.Status) (string, string) {
	switch s {
	case report.StatusFailed:
		return "✗ FAIL", color(colorRed)
	case report.StatusSkipped:
		return "- SKIP", color(colorCyan)
	default:
		return "✓ PASS", color(colorGreen)
	}
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// formatDuration formats milliseconds to a human-readable string.
// Shows milliseconds for values < 1s, seconds otherwise.
func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	return fmt.Sprintf("%dm %ds", mins, secs)
}
