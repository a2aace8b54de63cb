package report

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/SH1NK10KU/shin-macaca/pkg/core"
)

// BuilderConfig contains configuration for building the report skeleton.
type BuilderConfig struct {
	Suite   string     // Suite display name
	Browser Browser    // Session information
	Runner  RunnerInfo // Tool name and version
}

// CasePlan is the shape of a case before it runs.
type CasePlan struct {
	Name  string
	Steps []string
}

// BuildSkeleton creates the initial report structure. Every case and step
// starts pending. It should be called before the session is created so a
// connection failure still leaves a complete report behind.
func BuildSkeleton(cases []CasePlan, cfg BuilderConfig) (*Index, []CaseDetail) {
	now := time.Now()

	index := &Index{
		Version:     Version,
		RunID:       uuid.NewString(),
		Status:      StatusPending,
		StartTime:   now,
		LastUpdated: now,
		Suite:       cfg.Suite,
		Browser:     cfg.Browser,
		Runner:      cfg.Runner,
		Summary: Summary{
			Total:   len(cases),
			Pending: len(cases),
		},
		Cases: make([]CaseEntry, len(cases)),
	}

	details := make([]CaseDetail, len(cases))
	for i, c := range cases {
		caseID := fmt.Sprintf("case-%03d", i)
		steps := buildSteps(c.Steps)

		index.Cases[i] = CaseEntry{
			Index:     i,
			ID:        caseID,
			Name:      c.Name,
			DataFile:  filepath.Join("cases", caseID+".json"),
			AssetsDir: filepath.Join("assets", caseID),
			Status:    StatusPending,
			Steps: StepSummary{
				Total:   len(steps),
				Pending: len(steps),
			},
		}

		details[i] = CaseDetail{
			ID:    caseID,
			Name:  c.Name,
			Steps: steps,
		}
	}

	return index, details
}

func buildSteps(names []string) []Step {
	steps := make([]Step, len(names))
	for i, name := range names {
		steps[i] = Step{
			ID:     fmt.Sprintf("step-%03d", i),
			Index:  i,
			Name:   name,
			Status: StatusPending,
		}
	}
	return steps
}

// WriteSkeleton writes the initial skeleton to disk: report.json, every case
// detail file, and report.html.
func WriteSkeleton(outputDir string, index *Index, details []CaseDetail) error {
	if err := ensureDir(filepath.Join(outputDir, "cases")); err != nil {
		return fmt.Errorf("create cases dir: %w", err)
	}
	if err := ensureDir(filepath.Join(outputDir, "assets")); err != nil {
		return fmt.Errorf("create assets dir: %w", err)
	}

	for _, d := range details {
		casePath := filepath.Join(outputDir, "cases", d.ID+".json")
		if err := atomicWriteJSON(casePath, d); err != nil {
			return fmt.Errorf("write case %s: %w", d.ID, err)
		}
		if err := ensureDir(filepath.Join(outputDir, "assets", d.ID)); err != nil {
			return fmt.Errorf("create assets dir for %s: %w", d.ID, err)
		}
	}

	if err := atomicWriteJSON(filepath.Join(outputDir, "report.json"), index); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	if err := GenerateHTML(outputDir, HTMLConfig{Title: index.Suite}); err != nil {
		return fmt.Errorf("generate html: %w", err)
	}
	return nil
}

// ErrorFrom converts an execution error into its report form.
func ErrorFrom(err error) *Error {
	if err == nil {
		return nil
	}

	out := &Error{
		Type:    core.CategoryOf(err).String(),
		Message: err.Error(),
	}

	var execErr *core.ExecutionError
	if errors.As(err, &execErr) {
		out.Code = execErr.Code
		out.Locator = execErr.Detail("locator")
		out.Expected = execErr.Detail("expected")
		out.Actual = execErr.Detail("actual")
		out.Diff = execErr.Detail("diff")
	}
	return out
}
