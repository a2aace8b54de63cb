package report

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/SH1NK10KU/shin-macaca/pkg/logger"
)

// progressDebounce batches running-state updates into one write.
const progressDebounce = 100 * time.Millisecond

// IndexWriter provides serialized updates to the report index.
type IndexWriter struct {
	mu        sync.Mutex
	outputDir string
	path      string
	index     *Index

	pending map[string]*CaseUpdate
	timer   *time.Timer
	closed  bool
}

// NewIndexWriter creates a new IndexWriter.
func NewIndexWriter(outputDir string, index *Index) *IndexWriter {
	return &IndexWriter{
		outputDir: outputDir,
		path:      filepath.Join(outputDir, "report.json"),
		index:     index,
		pending:   make(map[string]*CaseUpdate),
	}
}

// Start marks the run as started.
func (w *IndexWriter) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	w.index.Status = StatusRunning
	w.index.StartTime = now

	w.flushLocked()
}

// UpdateCase queues an update for a case entry. Terminal states flush
// immediately; progress updates are debounced.
func (w *IndexWriter) UpdateCase(caseID string, update *CaseUpdate) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[caseID] = update

	if update.Status.IsTerminal() {
		w.flushLocked()
		return
	}

	if w.timer == nil && !w.closed {
		w.timer = time.AfterFunc(progressDebounce, w.flush)
	}
}

// End marks the run as complete.
func (w *IndexWriter) End() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for caseID, update := range w.pending {
		w.applyUpdate(caseID, update)
	}
	w.pending = make(map[string]*CaseUpdate)

	now := time.Now()
	w.index.EndTime = &now
	w.index.Status = w.computeRunStatus()

	w.flushLocked()
}

// Close flushes pending updates and stops the debounce timer.
func (w *IndexWriter) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.closed = true
	w.flushLocked()
}

// GetIndex returns the current index (for reading).
func (w *IndexWriter) GetIndex() *Index {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.index
}

func (w *IndexWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.flushLocked()
}

func (w *IndexWriter) flushLocked() {
	for caseID, update := range w.pending {
		w.applyUpdate(caseID, update)
	}
	w.pending = make(map[string]*CaseUpdate)

	w.index.UpdateSeq++
	w.index.LastUpdated = time.Now()
	w.index.Summary = w.computeSummary()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}

	if err := atomicWriteJSON(w.path, w.index); err != nil {
		logger.Warn("Failed to write report index: %v", err)
		return
	}

	// Regenerate HTML for live file:// viewing
	if err := GenerateHTML(w.outputDir, HTMLConfig{Title: w.index.Suite}); err != nil {
		logger.Warn("Failed to write HTML report: %v", err)
	}
}

func (w *IndexWriter) applyUpdate(caseID string, update *CaseUpdate) {
	for i := range w.index.Cases {
		if w.index.Cases[i].ID != caseID {
			continue
		}
		c := &w.index.Cases[i]
		c.Status = update.Status
		if update.StartTime != nil {
			c.StartTime = update.StartTime
		}
		if update.EndTime != nil {
			c.EndTime = update.EndTime
		}
		if update.Duration != nil {
			c.Duration = update.Duration
		}
		c.Steps = update.Steps
		if update.Error != nil {
			c.Error = update.Error
		}
		c.UpdateSeq++
		now := time.Now()
		c.LastUpdated = &now
		return
	}
}

func (w *IndexWriter) computeSummary() Summary {
	var s Summary
	for _, c := range w.index.Cases {
		s.Total++
		switch c.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		case StatusRunning:
			s.Running++
		case StatusPending:
			s.Pending++
		}
	}
	return s
}

// computeRunStatus determines the overall run status. Cases still pending
// at the end of a run never ran and count as skipped; a case still running
// was interrupted and counts as failed.
func (w *IndexWriter) computeRunStatus() Status {
	status := StatusPassed
	for i := range w.index.Cases {
		c := &w.index.Cases[i]
		switch c.Status {
		case StatusPending:
			c.Status = StatusSkipped
		case StatusRunning:
			c.Status = StatusFailed
			status = StatusFailed
		case StatusFailed:
			status = StatusFailed
		}
	}
	return status
}
