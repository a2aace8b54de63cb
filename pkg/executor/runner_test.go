package executor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SH1NK10KU/shin-macaca/pkg/actions"
	"github.com/SH1NK10KU/shin-macaca/pkg/core"
	"github.com/SH1NK10KU/shin-macaca/pkg/report"
	"github.com/SH1NK10KU/shin-macaca/pkg/webdriver/wdtest"
)

func newTestServer(t *testing.T) *wdtest.Server {
	t.Helper()
	srv := wdtest.NewServer()
	t.Cleanup(srv.Close)
	return srv
}

func starter(srv *wdtest.Server) SessionStarter {
	return func(ctx context.Context) (*actions.Session, error) {
		return actions.Start(ctx, actions.Options{
			ServerURL: srv.URL,
			Wait:      actions.WaitOptions{Timeout: 200 * time.Millisecond, Interval: 10 * time.Millisecond},
		})
	}
}

func pass(name string) Step {
	return Step{Name: name, Run: func(context.Context, *actions.Session) error { return nil }}
}

func fail(name string, err error) Step {
	return Step{Name: name, Run: func(context.Context, *actions.Session) error { return err }}
}

func readCaseDetail(t *testing.T, dir, id string) report.CaseDetail {
	t.Helper()
	_, details, err := report.ReadReport(dir)
	if err != nil {
		t.Fatalf("ReadReport failed: %v", err)
	}
	for _, d := range details {
		if d.ID == id {
			return d
		}
	}
	t.Fatalf("case %s not in report", id)
	return report.CaseDetail{}
}

func TestRunner_Run_AllPassed(t *testing.T) {
	tmpDir := t.TempDir()
	srv := newTestServer(t)

	runner := New(starter(srv), RunnerConfig{OutputDir: tmpDir, Suite: "tour"})
	result, err := runner.Run(context.Background(), []Case{
		{Name: "Part 1", Steps: []Step{pass("log in"), pass("check dialog")}},
		{Name: "Part 2", Steps: []Step{pass("change font")}},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.Status != report.StatusPassed {
		t.Errorf("Status = %v, want passed", result.Status)
	}
	if result.TotalCases != 2 || result.PassedCases != 2 {
		t.Errorf("cases = %d total, %d passed", result.TotalCases, result.PassedCases)
	}
	if result.Err != nil {
		t.Errorf("Err = %v, want nil", result.Err)
	}
	if !srv.Closed() {
		t.Error("session was not closed")
	}

	index, _, err := report.ReadReport(tmpDir)
	if err != nil {
		t.Fatalf("ReadReport failed: %v", err)
	}
	if index.Status != report.StatusPassed {
		t.Errorf("index status = %q, want passed", index.Status)
	}
}

func TestRunner_Run_ScreenshotAfterEveryCase(t *testing.T) {
	tmpDir := t.TempDir()
	srv := newTestServer(t)

	runner := New(starter(srv), RunnerConfig{OutputDir: tmpDir})
	_, err := runner.Run(context.Background(), []Case{
		{Name: "passes", Steps: []Step{pass("a")}},
		{Name: "fails", Steps: []Step{fail("b", core.ErrTextMismatch)}},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if n := srv.CountPath("GET", "/screenshot"); n != 2 {
		t.Errorf("screenshots = %d, want 2", n)
	}
	for _, id := range []string{"case-000", "case-001"} {
		d := readCaseDetail(t, tmpDir, id)
		if d.Screenshot == "" {
			t.Errorf("%s has no screenshot", id)
			continue
		}
		if _, err := os.Stat(filepath.Join(tmpDir, d.Screenshot)); err != nil {
			t.Errorf("%s screenshot missing: %v", id, err)
		}
	}
}

func TestRunner_Run_FirstFailureSkipsRemainingSteps(t *testing.T) {
	tmpDir := t.TempDir()
	srv := newTestServer(t)

	thirdRan := false
	mismatch := core.ErrTextMismatch.WithMessage("dialog does not contain the expected content").
		WithDetails(map[string]interface{}{"expected": "Site Sections", "actual": "Navigation"})

	runner := New(starter(srv), RunnerConfig{OutputDir: tmpDir})
	result, err := runner.Run(context.Background(), []Case{
		{Name: "Part 1", Steps: []Step{
			pass("log in"),
			fail("check dialog", mismatch),
			{Name: "check next dialog", Run: func(context.Context, *actions.Session) error {
				thirdRan = true
				return nil
			}},
		}},
		{Name: "Part 2", Steps: []Step{pass("change font")}},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if thirdRan {
		t.Error("step after the failure was executed")
	}
	if result.Status != report.StatusFailed {
		t.Errorf("Status = %v, want failed", result.Status)
	}

	cr := result.CaseResults[0]
	if cr.StepsPassed != 1 || cr.StepsFailed != 1 || cr.StepsSkipped != 1 {
		t.Errorf("steps = %d passed, %d failed, %d skipped", cr.StepsPassed, cr.StepsFailed, cr.StepsSkipped)
	}
	if cr.Error != mismatch.Error() {
		t.Errorf("Error = %q", cr.Error)
	}

	// Later cases still run
	if result.CaseResults[1].Status != report.StatusPassed {
		t.Errorf("Part 2 = %v, want passed", result.CaseResults[1].Status)
	}

	d := readCaseDetail(t, tmpDir, "case-000")
	failed := 0
	for _, s := range d.Steps {
		if s.Status == report.StatusFailed {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("failed steps in report = %d, want exactly 1", failed)
	}
	if d.Steps[1].Error == nil || d.Steps[1].Error.Expected != "Site Sections" {
		t.Errorf("step error = %+v", d.Steps[1].Error)
	}
	if d.Steps[2].Status != report.StatusSkipped {
		t.Errorf("step 2 = %q, want skipped", d.Steps[2].Status)
	}
}

func TestRunner_Run_StopOnFail(t *testing.T) {
	srv := newTestServer(t)

	secondRan := false
	runner := New(starter(srv), RunnerConfig{OutputDir: t.TempDir(), StopOnFail: true})
	result, err := runner.Run(context.Background(), []Case{
		{Name: "Part 1", Steps: []Step{fail("check dialog", core.ErrTextMismatch)}},
		{Name: "Part 2", Steps: []Step{{Name: "change font", Run: func(context.Context, *actions.Session) error {
			secondRan = true
			return nil
		}}}},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if secondRan {
		t.Error("second case ran despite StopOnFail")
	}
	if result.CaseResults[1].Status != report.StatusSkipped {
		t.Errorf("Part 2 = %v, want skipped", result.CaseResults[1].Status)
	}
	if result.SkippedCases != 1 {
		t.Errorf("SkippedCases = %d, want 1", result.SkippedCases)
	}
}

func TestRunner_Run_ConnectionErrorAbortsRun(t *testing.T) {
	srv := newTestServer(t)

	lost := core.ErrServerUnreachable.WithCause(errors.New("connection refused"))
	runner := New(starter(srv), RunnerConfig{OutputDir: t.TempDir()})
	result, err := runner.Run(context.Background(), []Case{
		{Name: "Part 1", Steps: []Step{fail("log in", lost)}},
		{Name: "Part 2", Steps: []Step{pass("change font")}},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !errors.Is(result.Err, core.ErrServerUnreachable) {
		t.Errorf("Err = %v, want server unreachable", result.Err)
	}
	if result.CaseResults[1].Status != report.StatusSkipped {
		t.Errorf("Part 2 = %v, want skipped", result.CaseResults[1].Status)
	}
}

func TestRunner_Run_SessionNotCreated(t *testing.T) {
	tmpDir := t.TempDir()
	srv := newTestServer(t)
	srv.RejectSession = true

	stepRan := false
	runner := New(starter(srv), RunnerConfig{OutputDir: tmpDir})
	result, err := runner.Run(context.Background(), []Case{
		{Name: "Part 1", Steps: []Step{
			{Name: "open login page", Run: func(context.Context, *actions.Session) error {
				stepRan = true
				return nil
			}},
			pass("log in"),
		}},
		{Name: "Part 2", Steps: []Step{pass("change font")}},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if stepRan {
		t.Error("step ran without a session")
	}
	if result.Status != report.StatusFailed {
		t.Errorf("Status = %v, want failed", result.Status)
	}
	if core.CategoryOf(result.Err) != core.ErrCategoryConnection {
		t.Errorf("Err category = %v, want connection", core.CategoryOf(result.Err))
	}

	index, details, err := report.ReadReport(tmpDir)
	if err != nil {
		t.Fatalf("ReadReport failed: %v", err)
	}
	if index.Status != report.StatusFailed {
		t.Errorf("index status = %q, want failed", index.Status)
	}
	if details[0].Steps[0].Status != report.StatusFailed || details[0].Steps[1].Status != report.StatusSkipped {
		t.Errorf("Part 1 steps = %q, %q", details[0].Steps[0].Status, details[0].Steps[1].Status)
	}
	if index.Cases[1].Status != report.StatusSkipped {
		t.Errorf("Part 2 = %q, want skipped", index.Cases[1].Status)
	}
}

func TestRunner_Run_Cancelled(t *testing.T) {
	srv := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := New(starter(srv), RunnerConfig{OutputDir: t.TempDir()})
	result, err := runner.Run(ctx, []Case{
		{Name: "Part 1", Steps: []Step{
			{Name: "interrupt", Run: func(context.Context, *actions.Session) error {
				cancel()
				return nil
			}},
			pass("never runs"),
		}},
		{Name: "Part 2", Steps: []Step{pass("change font")}},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.CaseResults[0].Status != report.StatusSkipped {
		t.Errorf("Part 1 = %v, want skipped", result.CaseResults[0].Status)
	}
	if result.CaseResults[1].Status != report.StatusSkipped {
		t.Errorf("Part 2 = %v, want skipped", result.CaseResults[1].Status)
	}
	if !errors.Is(result.Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", result.Err)
	}
	if !srv.Closed() {
		t.Error("session was not closed after cancellation")
	}
}

func TestRunner_Callbacks(t *testing.T) {
	srv := newTestServer(t)

	var started []string
	var steps []report.Status
	var ended []report.Status

	runner := New(starter(srv), RunnerConfig{
		OutputDir: t.TempDir(),
		OnCaseStart: func(caseIdx, totalCases int, name string) {
			if totalCases != 2 {
				t.Errorf("totalCases = %d, want 2", totalCases)
			}
			started = append(started, name)
		},
		OnStepComplete: func(idx int, name string, status report.Status, durationMs int64, err string) {
			steps = append(steps, status)
		},
		OnCaseEnd: func(name string, status report.Status, durationMs int64) {
			ended = append(ended, status)
		},
	})
	_, err := runner.Run(context.Background(), []Case{
		{Name: "Part 1", Steps: []Step{pass("a"), fail("b", core.ErrTextMismatch), pass("c")}},
		{Name: "Part 2", Steps: []Step{pass("d")}},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(started) != 2 || started[0] != "Part 1" {
		t.Errorf("started = %v", started)
	}
	want := []report.Status{report.StatusPassed, report.StatusFailed, report.StatusPassed}
	if len(steps) != len(want) {
		t.Fatalf("step callbacks = %v, want %v", steps, want)
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Errorf("step %d = %q, want %q", i, steps[i], want[i])
		}
	}
	if len(ended) != 2 || ended[0] != report.StatusFailed || ended[1] != report.StatusPassed {
		t.Errorf("ended = %v", ended)
	}
}

func TestPlans(t *testing.T) {
	plans := Plans([]Case{
		{Name: "Part 1", Steps: []Step{pass("log in"), pass("check dialog")}},
	})
	if len(plans) != 1 || plans[0].Name != "Part 1" {
		t.Fatalf("plans = %+v", plans)
	}
	if len(plans[0].Steps) != 2 || plans[0].Steps[1] != "check dialog" {
		t.Errorf("steps = %v", plans[0].Steps)
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{core.ErrTextMismatch, false},
		{core.ErrWaitTimeout, false},
		{core.ErrServerUnreachable, true},
		{core.ErrSessionNotCreated.WithCause(errors.New("boom")), true},
		{errors.New("plain"), false},
	}
	for _, tt := range tests {
		if got := isFatal(tt.err); got != tt.want {
			t.Errorf("isFatal(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
