// Package report provides JSON-based test reporting with live updates.
//
// Layout:
//   - report.json: index file (small, rewritten on every status change)
//   - cases/case-XXX.json: per-case detail files
//   - assets/case-XXX/: per-case artifacts (screenshots)
//   - report.html: human-readable view, regenerated with the index
//
// The index is the single source of truth for status; a viewer polls
// report.json and reloads case details whose updateSeq changed.
package report

import "time"

// Version is the report schema version.
const Version = "1.0.0"

// Status represents the execution status.
type Status string

// Status values.
const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// IsTerminal returns true if the status is a final state.
func (s Status) IsTerminal() bool {
	return s == StatusPassed || s == StatusFailed || s == StatusSkipped
}

// ============================================================================
// INDEX (report.json)
// ============================================================================

// Index is the main report file that binds everything together.
type Index struct {
	Version     string      `json:"version"`
	RunID       string      `json:"runId"`
	UpdateSeq   uint64      `json:"updateSeq"`
	Status      Status      `json:"status"`
	StartTime   time.Time   `json:"startTime"`
	EndTime     *time.Time  `json:"endTime,omitempty"`
	LastUpdated time.Time   `json:"lastUpdated"`
	Suite       string      `json:"suite"`
	Browser     Browser     `json:"browser"`
	Runner      RunnerInfo  `json:"runner"`
	Summary     Summary     `json:"summary"`
	Cases       []CaseEntry `json:"cases"`
}

// Browser describes the remote session the suite ran against.
type Browser struct {
	Name        string  `json:"name"`
	ServerURL   string  `json:"serverUrl"`
	UserAgent   string  `json:"userAgent,omitempty"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	ScaleFactor float64 `json:"scaleFactor,omitempty"`
}

// RunnerInfo identifies the tool that produced the report.
type RunnerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Summary contains aggregated case counts.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Running int `json:"running"`
	Pending int `json:"pending"`
}

// CaseEntry is the index entry for a case.
type CaseEntry struct {
	Index       int         `json:"index"`
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	DataFile    string      `json:"dataFile"`
	AssetsDir   string      `json:"assetsDir"`
	Status      Status      `json:"status"`
	UpdateSeq   uint64      `json:"updateSeq"`
	StartTime   *time.Time  `json:"startTime,omitempty"`
	EndTime     *time.Time  `json:"endTime,omitempty"`
	Duration    *int64      `json:"duration,omitempty"` // milliseconds
	LastUpdated *time.Time  `json:"lastUpdated,omitempty"`
	Steps       StepSummary `json:"steps"`
	Error       *string     `json:"error,omitempty"`
}

// StepSummary contains step counts for a case.
type StepSummary struct {
	Total   int  `json:"total"`
	Passed  int  `json:"passed"`
	Failed  int  `json:"failed"`
	Skipped int  `json:"skipped"`
	Running int  `json:"running"`
	Pending int  `json:"pending"`
	Current *int `json:"current,omitempty"` // index of the running step
}

// ============================================================================
// CASE DETAIL (cases/case-XXX.json)
// ============================================================================

// CaseDetail contains full case execution details.
type CaseDetail struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	StartTime  time.Time  `json:"startTime"`
	EndTime    *time.Time `json:"endTime,omitempty"`
	Duration   *int64     `json:"duration,omitempty"` // milliseconds
	Steps      []Step     `json:"steps"`
	Screenshot string     `json:"screenshot,omitempty"` // taken after the case
}

// Step represents a single step execution.
type Step struct {
	ID        string     `json:"id"`
	Index     int        `json:"index"`
	Name      string     `json:"name"`
	Status    Status     `json:"status"`
	StartTime *time.Time `json:"startTime,omitempty"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	Duration  *int64     `json:"duration,omitempty"` // milliseconds
	Error     *Error     `json:"error,omitempty"`
}

// Error contains error details.
type Error struct {
	Type     string `json:"type"` // assertion, timeout, connection, protocol, config
	Code     string `json:"code,omitempty"`
	Message  string `json:"message"`
	Locator  string `json:"locator,omitempty"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual,omitempty"`
	Diff     string `json:"diff,omitempty"`
}

// ============================================================================
// UPDATE TYPES
// ============================================================================

// CaseUpdate contains the fields to update in the index for a case.
type CaseUpdate struct {
	Status    Status
	StartTime *time.Time
	EndTime   *time.Time
	Duration  *int64
	Steps     StepSummary
	Error     *string
}
