package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/SH1NK10KU/shin-macaca/pkg/logger"
)

// CaseWriter writes updates for a single case.
type CaseWriter struct {
	detail    *CaseDetail
	path      string
	assetsDir string
	index     *IndexWriter

	// maxScreenshotWidth downscales screenshots wider than this (0 keeps them).
	maxScreenshotWidth uint
}

// NewCaseWriter creates a new CaseWriter for a case.
func NewCaseWriter(detail *CaseDetail, outputDir string, index *IndexWriter) *CaseWriter {
	assetsDir := filepath.Join(outputDir, "assets", detail.ID)
	if err := ensureDir(assetsDir); err != nil {
		logger.Warn("Failed to create %s: %v", assetsDir, err)
	}

	return &CaseWriter{
		detail:    detail,
		path:      filepath.Join(outputDir, "cases", detail.ID+".json"),
		assetsDir: assetsDir,
		index:     index,
	}
}

// SetMaxScreenshotWidth sets the logical window width. Screenshots taken on
// high-density displays are scaled down to it.
func (w *CaseWriter) SetMaxScreenshotWidth(width int) {
	if width > 0 {
		w.maxScreenshotWidth = uint(width)
	}
}

// Start marks the case as started.
func (w *CaseWriter) Start() {
	now := time.Now()
	w.detail.StartTime = now

	w.flush()
	w.index.UpdateCase(w.detail.ID, &CaseUpdate{
		Status:    StatusRunning,
		StartTime: &now,
		Steps:     w.stepSummary(),
	})
}

// StepStart marks a step as started.
func (w *CaseWriter) StepStart(stepIndex int) {
	if stepIndex < 0 || stepIndex >= len(w.detail.Steps) {
		return
	}

	now := time.Now()
	step := &w.detail.Steps[stepIndex]
	step.Status = StatusRunning
	step.StartTime = &now

	w.flush()
	w.updateIndexProgress()
}

// StepEnd marks a step as complete.
func (w *CaseWriter) StepEnd(stepIndex int, status Status, err *Error) {
	if stepIndex < 0 || stepIndex >= len(w.detail.Steps) {
		return
	}

	now := time.Now()
	step := &w.detail.Steps[stepIndex]
	step.Status = status
	step.EndTime = &now
	if step.StartTime != nil {
		duration := now.Sub(*step.StartTime).Milliseconds()
		step.Duration = &duration
	}
	step.Error = err

	w.flush()
	w.updateIndexProgress()
}

// SkipRemainingSteps marks every pending step from fromIndex on as skipped.
func (w *CaseWriter) SkipRemainingSteps(fromIndex int) {
	for i := fromIndex; i < len(w.detail.Steps); i++ {
		if w.detail.Steps[i].Status == StatusPending {
			w.detail.Steps[i].Status = StatusSkipped
		}
	}
	w.flush()
}

// SaveScreenshot stores the end-of-case screenshot and returns its path
// relative to the report directory.
func (w *CaseWriter) SaveScreenshot(data []byte) (string, error) {
	if w.maxScreenshotWidth > 0 {
		scaled, err := Downscale(data, w.maxScreenshotWidth)
		if err != nil {
			logger.Warn("Keeping full-size screenshot for %s: %v", w.detail.ID, err)
		} else {
			data = scaled
		}
	}

	filename := "screenshot.png"
	if err := os.WriteFile(filepath.Join(w.assetsDir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}

	rel := filepath.Join("assets", w.detail.ID, filename)
	w.detail.Screenshot = rel
	w.flush()
	return rel, nil
}

// End marks the case as complete.
func (w *CaseWriter) End(status Status) {
	now := time.Now()
	w.detail.EndTime = &now

	var duration int64
	if !w.detail.StartTime.IsZero() {
		duration = now.Sub(w.detail.StartTime).Milliseconds()
		w.detail.Duration = &duration
	}

	w.flush()

	var errMsg *string
	if status == StatusFailed {
		for _, step := range w.detail.Steps {
			if step.Error != nil {
				msg := step.Error.Message
				errMsg = &msg
				break
			}
		}
	}

	w.index.UpdateCase(w.detail.ID, &CaseUpdate{
		Status:   status,
		EndTime:  &now,
		Duration: &duration,
		Steps:    w.stepSummary(),
		Error:    errMsg,
	})
}

// Detail returns the current case detail (for reading).
func (w *CaseWriter) Detail() *CaseDetail {
	return w.detail
}

func (w *CaseWriter) flush() {
	if err := atomicWriteJSON(w.path, w.detail); err != nil {
		logger.Warn("Failed to write %s: %v", w.path, err)
	}
}

func (w *CaseWriter) updateIndexProgress() {
	w.index.UpdateCase(w.detail.ID, &CaseUpdate{
		Status: StatusRunning,
		Steps:  w.stepSummary(),
	})
}

func (w *CaseWriter) stepSummary() StepSummary {
	var s StepSummary
	s.Total = len(w.detail.Steps)

	for i, step := range w.detail.Steps {
		switch step.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		case StatusRunning:
			s.Running++
			idx := i
			s.Current = &idx
		case StatusPending:
			s.Pending++
		}
	}
	return s
}
