package report

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/SH1NK10KU/shin-macaca/pkg/logger"
)

// Allure result schema types.

// AllureResult represents a single test result in Allure format.
type AllureResult struct {
	UUID          string              `json:"uuid"`
	HistoryID     string              `json:"historyId"`
	FullName      string              `json:"fullName"`
	Name          string              `json:"name"`
	Status        string              `json:"status"`
	Stage         string              `json:"stage"`
	Start         int64               `json:"start"`
	Stop          int64               `json:"stop"`
	Labels        []AllureLabel       `json:"labels"`
	StatusDetails AllureStatusDetails `json:"statusDetails"`
	Steps         []AllureStep        `json:"steps"`
	Attachments   []AllureAttachment  `json:"attachments"`
}

// AllureStep represents a step within a test result.
type AllureStep struct {
	Name          string              `json:"name"`
	Status        string              `json:"status"`
	Stage         string              `json:"stage"`
	Start         int64               `json:"start"`
	Stop          int64               `json:"stop"`
	StatusDetails AllureStatusDetails `json:"statusDetails"`
}

// AllureAttachment represents a file attachment.
type AllureAttachment struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Type   string `json:"type"`
}

// AllureLabel represents a label on a test result.
type AllureLabel struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// AllureStatusDetails holds failure message and trace.
type AllureStatusDetails struct {
	Message string `json:"message,omitempty"`
	Trace   string `json:"trace,omitempty"`
}

// AllureCategory defines a failure category with regex matching.
type AllureCategory struct {
	Name            string   `json:"name"`
	MatchedStatuses []string `json:"matchedStatuses"`
	MessageRegex    string   `json:"messageRegex"`
}

// GenerateAllure writes Allure-compatible results to <reportDir>/allure-results/.
func GenerateAllure(reportDir string) error {
	index, cases, err := ReadReport(reportDir)
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}

	allureDir := filepath.Join(reportDir, "allure-results")
	if err := os.MkdirAll(allureDir, 0o755); err != nil {
		return fmt.Errorf("create allure-results dir: %w", err)
	}

	for i, entry := range index.Cases {
		result := buildAllureResult(&entry, &cases[i], index)

		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal allure result for %s: %w", entry.ID, err)
		}

		resultPath := filepath.Join(allureDir, result.UUID+"-result.json")
		if err := os.WriteFile(resultPath, data, 0o644); err != nil {
			return fmt.Errorf("write allure result %s: %w", entry.ID, err)
		}

		if cases[i].Screenshot != "" {
			copyFile(filepath.Join(reportDir, cases[i].Screenshot), filepath.Join(allureDir, attachmentName(entry.ID)))
		}
	}

	if err := writeAllureCategories(allureDir); err != nil {
		return err
	}
	return writeAllureEnvironment(allureDir, index)
}

func buildAllureResult(entry *CaseEntry, detail *CaseDetail, index *Index) AllureResult {
	startMs, stopMs := allureTimes(entry.StartTime, entry.EndTime, entry.Duration)

	labels := []AllureLabel{
		{Name: "suite", Value: index.Suite},
		{Name: "framework", Value: "webdriver"},
		{Name: "host", Value: index.Browser.Name},
		{Name: "severity", Value: "normal"},
	}

	var statusDetails AllureStatusDetails
	if entry.Error != nil {
		statusDetails.Message = *entry.Error
	}

	steps := make([]AllureStep, 0, len(detail.Steps))
	for _, s := range detail.Steps {
		steps = append(steps, buildAllureStep(s))
	}

	var attachments []AllureAttachment
	if detail.Screenshot != "" {
		attachments = append(attachments, AllureAttachment{
			Name:   "Screenshot",
			Source: attachmentName(entry.ID),
			Type:   "image/png",
		})
	}

	return AllureResult{
		UUID:          index.RunID + "-" + entry.ID,
		HistoryID:     fnv32aHash(index.Suite + ":" + entry.Name),
		FullName:      index.Suite + " " + entry.Name,
		Name:          entry.Name,
		Status:        mapAllureStatus(entry.Status),
		Stage:         "finished",
		Start:         startMs,
		Stop:          stopMs,
		Labels:        labels,
		StatusDetails: statusDetails,
		Steps:         steps,
		Attachments:   attachments,
	}
}

func buildAllureStep(s Step) AllureStep {
	startMs, stopMs := allureTimes(s.StartTime, s.EndTime, s.Duration)

	var details AllureStatusDetails
	if s.Error != nil {
		details.Message = s.Error.Message
		details.Trace = s.Error.Diff
	}

	return AllureStep{
		Name:          s.Name,
		Status:        mapAllureStatus(s.Status),
		Stage:         "finished",
		Start:         startMs,
		Stop:          stopMs,
		StatusDetails: details,
	}
}

func allureTimes(start, end *time.Time, duration *int64) (int64, int64) {
	var startMs, stopMs int64
	if start != nil {
		startMs = start.UnixMilli()
	}
	if end != nil {
		stopMs = end.UnixMilli()
	} else if start != nil && duration != nil {
		stopMs = startMs + *duration
	}
	return startMs, stopMs
}

func attachmentName(caseID string) string {
	return caseID + "-screenshot.png"
}

// copyFile copies src to dst. Failures are logged; a missing screenshot
// must not fail the export.
func copyFile(src, dst string) {
	in, err := os.Open(src)
	if err != nil {
		return
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		logger.Warn("failed to copy %s to %s: %v", src, dst, err)
	}
}

// mapAllureStatus maps report Status to Allure status string.
func mapAllureStatus(s Status) string {
	switch s {
	case StatusPassed:
		return "passed"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// fnv32aHash returns a hex-encoded FNV-32a hash of the input string.
func fnv32aHash(s string) string {
	h := fnv.New32a()
	h.Write([]byte(s))
	return fmt.Sprintf("%08x", h.Sum32())
}

// writeAllureCategories writes categories.json for failure categorization.
func writeAllureCategories(allureDir string) error {
	categories := []AllureCategory{
		{Name: "Element Not Found", MatchedStatuses: []string{"failed"}, MessageRegex: "(?i).*waiting for (id|css|xpath|className)=.*"},
		{Name: "Page Load Timeout", MatchedStatuses: []string{"failed"}, MessageRegex: "(?i).*page to finish loading.*"},
		{Name: "Dialog Content Mismatch", MatchedStatuses: []string{"failed"}, MessageRegex: "(?i).*does not contain the expected content.*"},
		{Name: "Font Not Applied", MatchedStatuses: []string{"failed"}, MessageRegex: "(?i).*font-family.*"},
		{Name: "Automation Server Error", MatchedStatuses: []string{"failed", "broken"}, MessageRegex: "(?i).*(automation server|browser session).*"},
	}

	data, err := json.MarshalIndent(categories, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}

	path := filepath.Join(allureDir, "categories.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write categories.json: %w", err)
	}
	return nil
}

// writeAllureEnvironment writes environment.properties with session metadata.
func writeAllureEnvironment(allureDir string, index *Index) error {
	var b strings.Builder
	b.WriteString("framework=webdriver\n")

	if index.Browser.Name != "" {
		b.WriteString(fmt.Sprintf("browser.name=%s\n", index.Browser.Name))
	}
	if index.Browser.ServerURL != "" {
		b.WriteString(fmt.Sprintf("browser.server=%s\n", index.Browser.ServerURL))
	}
	if index.Browser.Width > 0 {
		b.WriteString(fmt.Sprintf("browser.window=%dx%d\n", index.Browser.Width, index.Browser.Height))
	}
	if index.Runner.Version != "" {
		b.WriteString(fmt.Sprintf("runner.version=%s\n", index.Runner.Version))
	}
	b.WriteString(fmt.Sprintf("run.id=%s\n", index.RunID))

	path := filepath.Join(allureDir, "environment.properties")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write environment.properties: %w", err)
	}
	return nil
}
