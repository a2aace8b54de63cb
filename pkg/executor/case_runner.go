package executor

import (
	"context"
	"time"

	"github.com/SH1NK10KU/shin-macaca/pkg/actions"
	"github.com/SH1NK10KU/shin-macaca/pkg/core"
	"github.com/SH1NK10KU/shin-macaca/pkg/logger"
	"github.com/SH1NK10KU/shin-macaca/pkg/report"
)

// CaseRunner executes a single case.
type CaseRunner struct {
	ctx         context.Context
	testCase    Case
	detail      *report.CaseDetail
	session     *actions.Session
	config      RunnerConfig
	indexWriter *report.IndexWriter
	caseWriter  *report.CaseWriter
	caseIdx     int // Current case index (0-based)
	totalCases  int
	// Step counters
	stepsPassed  int
	stepsFailed  int
	stepsSkipped int
}

// Run executes the case and returns the result.
func (cr *CaseRunner) Run() CaseResult {
	caseStart := time.Now()

	cr.caseWriter = report.NewCaseWriter(cr.detail, cr.config.OutputDir, cr.indexWriter)
	cr.caseWriter.SetMaxScreenshotWidth(cr.config.ScreenshotWidth)

	name := cr.detail.Name
	if cr.config.OnCaseStart != nil {
		cr.config.OnCaseStart(cr.caseIdx, cr.totalCases, name)
	}
	logger.Info("Case %d/%d: %s", cr.caseIdx+1, cr.totalCases, name)

	cr.caseWriter.Start()

	status := report.StatusPassed
	var caseErr error

	for i, step := range cr.testCase.Steps {
		if cr.ctx.Err() != nil {
			cr.caseWriter.SkipRemainingSteps(i)
			cr.stepsSkipped += len(cr.testCase.Steps) - i
			status = report.StatusSkipped
			caseErr = cr.ctx.Err()
			break
		}

		stepStatus, durationMs, err := cr.executeStep(i, step)

		errMsg := ""
		if err != nil {
			errMsg = err.Error()
		}
		if cr.config.OnStepComplete != nil {
			cr.config.OnStepComplete(i, step.Name, stepStatus, durationMs, errMsg)
		}

		if stepStatus == report.StatusPassed {
			cr.stepsPassed++
			continue
		}

		// Skip the rest of the chain and fail the case
		cr.stepsFailed++
		cr.caseWriter.SkipRemainingSteps(i + 1)
		cr.stepsSkipped += len(cr.testCase.Steps) - i - 1
		status = report.StatusFailed
		caseErr = err
		break
	}

	cr.captureScreenshot()
	cr.caseWriter.End(status)

	durationMs := time.Since(caseStart).Milliseconds()
	if cr.config.OnCaseEnd != nil {
		cr.config.OnCaseEnd(name, status, durationMs)
	}

	result := CaseResult{
		ID:           cr.detail.ID,
		Name:         name,
		Status:       status,
		Duration:     durationMs,
		StepsTotal:   len(cr.testCase.Steps),
		StepsPassed:  cr.stepsPassed,
		StepsFailed:  cr.stepsFailed,
		StepsSkipped: cr.stepsSkipped,
		err:          caseErr,
	}
	if caseErr != nil {
		result.Error = caseErr.Error()
	}
	return result
}

// executeStep runs one step and records it. It returns the status, the
// duration in milliseconds and the step error.
func (cr *CaseRunner) executeStep(idx int, step Step) (report.Status, int64, error) {
	stepStart := time.Now()
	cr.caseWriter.StepStart(idx)
	logger.Debug("Step %d: %s", idx+1, step.Name)

	err := step.Run(cr.ctx, cr.session)
	durationMs := time.Since(stepStart).Milliseconds()

	if err != nil {
		logger.Warn("Step %q failed: %v", step.Name, err)
		cr.caseWriter.StepEnd(idx, report.StatusFailed, report.ErrorFrom(err))
		return report.StatusFailed, durationMs, err
	}

	cr.caseWriter.StepEnd(idx, report.StatusPassed, nil)
	return report.StatusPassed, durationMs, nil
}

// captureScreenshot attaches the end-of-case screenshot. Failures are logged
// and do not change the case outcome.
func (cr *CaseRunner) captureScreenshot() {
	ctx := cr.ctx
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}

	data, err := cr.session.Screenshot(ctx)
	if err != nil {
		logger.Warn("Screenshot after %s failed: %v", cr.detail.ID, err)
		return
	}
	if _, err := cr.caseWriter.SaveScreenshot(data); err != nil {
		logger.Warn("Saving screenshot for %s failed: %v", cr.detail.ID, err)
	}
}

// isFatal reports whether err must abort the whole run.
func isFatal(err error) bool {
	return err != nil && core.CategoryOf(err).IsFatalToRun()
}
