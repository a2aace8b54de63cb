package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// HTMLConfig contains configuration for HTML report generation.
type HTMLConfig struct {
	OutputPath  string // Path to write the HTML file
	EmbedAssets bool   // Embed screenshots as base64 (larger file, but portable)
	Title       string // Report title (default: "Test Report")
	ReportDir   string // Directory containing report.json (needed for asset paths)
}

// GenerateHTML generates an HTML report from the report directory.
func GenerateHTML(reportDir string, cfg HTMLConfig) error {
	index, cases, err := ReadReport(reportDir)
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}

	if cfg.Title == "" {
		cfg.Title = "Test Report"
	}
	if cfg.ReportDir == "" {
		cfg.ReportDir = reportDir
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = filepath.Join(reportDir, "report.html")
	}

	html, err := renderHTML(buildHTMLData(index, cases, cfg))
	if err != nil {
		return fmt.Errorf("render html: %w", err)
	}

	if err := os.WriteFile(cfg.OutputPath, []byte(html), 0o644); err != nil {
		return fmt.Errorf("write html: %w", err)
	}
	return nil
}

// HTMLData contains all data needed for the HTML template.
type HTMLData struct {
	Title         string
	GeneratedAt   string
	Index         *Index
	Cases         []CaseHTMLData
	TotalDuration string
	PassRate      float64
	Live          bool // reload while the run is in progress
}

// CaseHTMLData contains case data formatted for HTML.
type CaseHTMLData struct {
	CaseDetail
	Status      Status
	DurationStr string
	Screenshot  template.URL // base64 data URI or relative path
	Steps       []StepHTMLData
}

// StepHTMLData contains step data formatted for HTML.
type StepHTMLData struct {
	Step
	DurationStr string
}

func buildHTMLData(index *Index, cases []CaseDetail, cfg HTMLConfig) HTMLData {
	casesData := make([]CaseHTMLData, len(cases))
	for i, c := range cases {
		steps := make([]StepHTMLData, len(c.Steps))
		for j, s := range c.Steps {
			steps[j] = StepHTMLData{Step: s, DurationStr: formatDuration(s.Duration)}
		}

		screenshot := c.Screenshot
		if screenshot != "" && cfg.EmbedAssets {
			screenshot = loadAsBase64(filepath.Join(cfg.ReportDir, c.Screenshot))
		}

		casesData[i] = CaseHTMLData{
			CaseDetail:  c,
			Status:      index.Cases[i].Status,
			DurationStr: formatDuration(index.Cases[i].Duration),
			Screenshot:  template.URL(filepath.ToSlash(screenshot)),
			Steps:       steps,
		}
	}

	var passRate float64
	if index.Summary.Total > 0 {
		passRate = float64(index.Summary.Passed) / float64(index.Summary.Total) * 100
	}

	var totalDurationMs int64
	if index.EndTime != nil {
		totalDurationMs = index.EndTime.Sub(index.StartTime).Milliseconds()
	}

	return HTMLData{
		Title:         cfg.Title,
		GeneratedAt:   time.Now().Format("2006-01-02 15:04:05"),
		Index:         index,
		Cases:         casesData,
		TotalDuration: formatDuration(&totalDurationMs),
		PassRate:      passRate,
		Live:          !index.Status.IsTerminal(),
	}
}

func formatDuration(ms *int64) string {
	if ms == nil {
		return "-"
	}
	d := time.Duration(*ms) * time.Millisecond
	if d < time.Second {
		return fmt.Sprintf("%dms", *ms)
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}

func loadAsBase64(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	ext := strings.ToLower(filepath.Ext(path))
	mimeType := "image/png"
	if ext == ".jpg" || ext == ".jpeg" {
		mimeType = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

func renderHTML(data HTMLData) (string, error) {
	tmpl, err := template.New("report").Parse(htmlTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    {{if .Live}}<meta http-equiv="refresh" content="2">{{end}}
    <title>{{.Title}}</title>
    <style>
        :root {
            --bg-primary: #ffffff;
            --bg-secondary: #f9fafb;
            --text-primary: #000000;
            --text-muted: rgb(107, 114, 128);
            --border-color: #e5e7eb;
            --passed: #22c55e;
            --failed: #ef4444;
            --failed-bg: rgba(239, 68, 68, 0.08);
            --skipped: #eab308;
            --running: #06b6d4;
            --pending: #6b7280;
        }
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            background: var(--bg-primary);
            color: var(--text-primary);
            line-height: 1.5;
        }
        .header { background: var(--bg-secondary); border-bottom: 1px solid var(--border-color); padding: 16px 24px; }
        .header h1 { font-size: 18px; font-weight: 600; }
        .meta { font-size: 12px; color: var(--text-muted); }
        .summary { display: flex; gap: 16px; margin-top: 12px; font-size: 14px; }
        .summary .passed { color: var(--passed); }
        .summary .failed { color: var(--failed); }
        .summary .skipped { color: var(--skipped); }
        main { padding: 24px; display: flex; flex-direction: column; gap: 16px; }
        .case { border: 1px solid var(--border-color); border-radius: 8px; overflow: hidden; }
        .case-header { display: flex; justify-content: space-between; padding: 12px 16px; background: var(--bg-secondary); }
        .case-name { font-weight: 500; }
        .badge { font-size: 12px; font-weight: 600; text-transform: uppercase; }
        .badge.passed { color: var(--passed); }
        .badge.failed { color: var(--failed); }
        .badge.skipped { color: var(--skipped); }
        .badge.running { color: var(--running); }
        .badge.pending { color: var(--pending); }
        .steps { list-style: none; }
        .steps li { display: flex; justify-content: space-between; padding: 6px 16px; border-top: 1px solid var(--border-color); font-size: 13px; }
        .steps li.failed { background: var(--failed-bg); }
        .error { padding: 8px 16px; font-size: 12px; background: var(--failed-bg); }
        .error pre { white-space: pre-wrap; font-family: ui-monospace, Menlo, monospace; margin-top: 6px; }
        .screenshot { padding: 12px 16px; border-top: 1px solid var(--border-color); }
        .screenshot img { max-width: 480px; border: 1px solid var(--border-color); }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.Title}}</h1>
        <div class="meta">
            Run {{.Index.RunID}} &middot; {{.Index.Browser.Name}} @ {{.Index.Browser.ServerURL}}
            &middot; {{.Index.Browser.Width}}&times;{{.Index.Browser.Height}}
            &middot; generated {{.GeneratedAt}}
        </div>
        <div class="summary">
            <span>{{.Index.Summary.Total}} cases</span>
            <span class="passed">{{.Index.Summary.Passed}} passed</span>
            <span class="failed">{{.Index.Summary.Failed}} failed</span>
            <span class="skipped">{{.Index.Summary.Skipped}} skipped</span>
            <span>{{printf "%.0f" .PassRate}}% pass rate</span>
            <span>{{.TotalDuration}}</span>
        </div>
    </div>
    <main>
        {{range .Cases}}
        <section class="case" id="{{.ID}}">
            <div class="case-header">
                <span class="case-name">{{.Name}}</span>
                <span><span class="badge {{.Status}}">{{.Status}}</span> &middot; {{.DurationStr}}</span>
            </div>
            <ul class="steps">
                {{range .Steps}}
                <li class="{{.Status}}">
                    <span>{{.Name}}</span>
                    <span><span class="badge {{.Status}}">{{.Status}}</span> &middot; {{.DurationStr}}</span>
                </li>
                {{if .Error}}
                <li class="error">
                    <div>
                        <strong>{{.Error.Type}}</strong>: {{.Error.Message}}
                        {{if .Error.Expected}}<pre>expected: {{.Error.Expected}}
actual:   {{.Error.Actual}}</pre>{{end}}
                        {{if .Error.Diff}}<pre>{{.Error.Diff}}</pre>{{end}}
                    </div>
                </li>
                {{end}}
                {{end}}
            </ul>
            {{if .Screenshot}}
            <div class="screenshot"><img src="{{.Screenshot}}" alt="Screenshot after {{.Name}}"></div>
            {{end}}
        </section>
        {{end}}
    </main>
</body>
</html>
`
