// Package executor runs test cases against a browser session, connecting
// actions to reports.
package executor

import (
	"context"
	"time"

	"github.com/SH1NK10KU/shin-macaca/pkg/actions"
	"github.com/SH1NK10KU/shin-macaca/pkg/logger"
	"github.com/SH1NK10KU/shin-macaca/pkg/report"
)

// sessionCloseTimeout bounds the teardown DELETE /session call.
const sessionCloseTimeout = 30 * time.Second

// Step is one named action in a case.
type Step struct {
	Name string
	Run  func(ctx context.Context, s *actions.Session) error
}

// Case is a linear chain of steps. The first failing step fails the case.
type Case struct {
	Name  string
	Steps []Step
}

// SessionStarter opens the session a run executes against.
type SessionStarter func(ctx context.Context) (*actions.Session, error)

// RunnerConfig configures the test runner.
type RunnerConfig struct {
	OutputDir  string // Report output directory
	StopOnFail bool   // Skip remaining cases after the first failure

	// ScreenshotWidth downscales end-of-case screenshots (0 keeps full size).
	ScreenshotWidth int

	Suite   string
	Browser report.Browser
	Runner  report.RunnerInfo

	// Live progress callbacks
	OnCaseStart    func(caseIdx, totalCases int, name string)
	OnStepComplete func(idx int, name string, status report.Status, durationMs int64, err string)
	OnCaseEnd      func(name string, status report.Status, durationMs int64)
}

// RunResult contains the outcome of a test run.
type RunResult struct {
	Status       report.Status
	TotalCases   int
	PassedCases  int
	FailedCases  int
	SkippedCases int
	Duration     int64 // Total duration in milliseconds
	CaseResults  []CaseResult

	// Err is the error that aborted the run, if any.
	Err error
}

// CaseResult contains the outcome of a single case.
type CaseResult struct {
	ID           string
	Name         string
	Status       report.Status
	Duration     int64
	Error        string
	StepsTotal   int
	StepsPassed  int
	StepsFailed  int
	StepsSkipped int

	err error
}

// Runner orchestrates case execution.
type Runner struct {
	config RunnerConfig
	start  SessionStarter
}

// New creates a new Runner.
func New(start SessionStarter, cfg RunnerConfig) *Runner {
	return &Runner{
		config: cfg,
		start:  start,
	}
}

// Plans describes cases for the report skeleton.
func Plans(cases []Case) []report.CasePlan {
	plans := make([]report.CasePlan, len(cases))
	for i, c := range cases {
		names := make([]string, len(c.Steps))
		for j, s := range c.Steps {
			names[j] = s.Name
		}
		plans[i] = report.CasePlan{Name: c.Name, Steps: names}
	}
	return plans
}

// Run opens a session, executes all cases and writes the report. The
// returned error covers report I/O only; test failures are in the result.
func (r *Runner) Run(ctx context.Context, cases []Case) (*RunResult, error) {
	// Skeleton first so a connection failure still leaves a report
	index, details := report.BuildSkeleton(Plans(cases), report.BuilderConfig{
		Suite:   r.config.Suite,
		Browser: r.config.Browser,
		Runner:  r.config.Runner,
	})
	if err := report.WriteSkeleton(r.config.OutputDir, index, details); err != nil {
		return nil, err
	}

	indexWriter := report.NewIndexWriter(r.config.OutputDir, index)
	defer indexWriter.Close()
	indexWriter.Start()

	results := make([]CaseResult, len(cases))
	var abortErr error

	session, err := r.start(ctx)
	if err != nil {
		logger.Error("Failed to start session: %v", err)
		abortErr = err
		if len(cases) > 0 {
			results[0] = r.failBeforeStart(cases[0], &details[0], indexWriter, err)
		}
		for i := 1; i < len(cases); i++ {
			results[i] = skipped(&details[i], "session not started")
		}
	} else {
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sessionCloseTimeout)
			defer cancel()
			if err := session.Close(closeCtx); err != nil {
				logger.Warn("Failed to close session: %v", err)
			}
		}()
		abortErr = r.executeCases(ctx, session, cases, details, indexWriter, results)
	}

	indexWriter.End()

	result := r.buildRunResult(results)
	result.Err = abortErr
	return result, nil
}

// executeCases runs cases sequentially and returns the error that aborted
// the run, if any.
func (r *Runner) executeCases(ctx context.Context, session *actions.Session, cases []Case, details []report.CaseDetail, indexWriter *report.IndexWriter, results []CaseResult) error {
	var abortErr error
	stop := ""

	for i := range cases {
		if stop == "" && ctx.Err() != nil {
			abortErr = ctx.Err()
			stop = "run cancelled"
		}
		if stop != "" {
			results[i] = skipped(&details[i], stop)
			continue
		}

		cr := &CaseRunner{
			ctx:         ctx,
			testCase:    cases[i],
			detail:      &details[i],
			session:     session,
			config:      r.config,
			indexWriter: indexWriter,
			caseIdx:     i,
			totalCases:  len(cases),
		}
		results[i] = cr.Run()

		if results[i].Status != report.StatusFailed {
			continue
		}
		switch {
		case isFatal(results[i].err):
			abortErr = results[i].err
			stop = "run aborted"
		case r.config.StopOnFail:
			stop = "run stopped"
		}
	}
	return abortErr
}

// failBeforeStart records a session start failure against the first step of c.
func (r *Runner) failBeforeStart(c Case, detail *report.CaseDetail, indexWriter *report.IndexWriter, err error) CaseResult {
	w := report.NewCaseWriter(detail, r.config.OutputDir, indexWriter)
	w.Start()
	w.StepStart(0)
	w.StepEnd(0, report.StatusFailed, report.ErrorFrom(err))
	w.SkipRemainingSteps(1)
	w.End(report.StatusFailed)

	if r.config.OnCaseEnd != nil {
		r.config.OnCaseEnd(c.Name, report.StatusFailed, 0)
	}

	result := CaseResult{
		ID:         detail.ID,
		Name:       detail.Name,
		Status:     report.StatusFailed,
		Error:      err.Error(),
		StepsTotal: len(c.Steps),
		err:        err,
	}
	if len(c.Steps) > 0 {
		result.StepsFailed = 1
		result.StepsSkipped = len(c.Steps) - 1
	}
	return result
}

func skipped(detail *report.CaseDetail, reason string) CaseResult {
	return CaseResult{
		ID:           detail.ID,
		Name:         detail.Name,
		Status:       report.StatusSkipped,
		Error:        reason,
		StepsTotal:   len(detail.Steps),
		StepsSkipped: len(detail.Steps),
	}
}

// buildRunResult aggregates case results into a run result.
func (r *Runner) buildRunResult(caseResults []CaseResult) *RunResult {
	result := &RunResult{
		TotalCases:  len(caseResults),
		CaseResults: caseResults,
	}

	for _, cr := range caseResults {
		result.Duration += cr.Duration
		switch cr.Status {
		case report.StatusPassed:
			result.PassedCases++
		case report.StatusFailed:
			result.FailedCases++
		case report.StatusSkipped:
			result.SkippedCases++
		}
	}

	result.Status = report.StatusPassed
	if result.FailedCases > 0 {
		result.Status = report.StatusFailed
	}
	return result
}
