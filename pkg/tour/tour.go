// Package tour defines the guided-tour regression suite: logging in, walking
// the editor tour and changing a section font.
package tour

import (
	"context"
	"fmt"
	"strings"

	"github.com/SH1NK10KU/shin-macaca/pkg/actions"
	"github.com/SH1NK10KU/shin-macaca/pkg/core"
	"github.com/SH1NK10KU/shin-macaca/pkg/executor"
	"github.com/SH1NK10KU/shin-macaca/pkg/logger"
	"github.com/SH1NK10KU/shin-macaca/pkg/pagemodel"
)

// SuiteName is the display name of the suite in reports.
const SuiteName = "Strikingly guided tour"

// Case names.
const (
	DialogsCase = "Part 1: verify these windows are shown in correct sequence with corresponding titles and content"
	FontCase    = "Part 2: verify the text font is changed to '%s'"
)

// Suite returns the cases in run order. Part 2 continues in the editor that
// Part 1 leaves open.
func Suite(model *pagemodel.Model, t pagemodel.Tour, creds pagemodel.Credentials) []executor.Case {
	return []executor.Case{
		dialogsCase(model, t, creds),
		fontCase(model, t.Font),
	}
}

func dialogsCase(model *pagemodel.Model, t pagemodel.Tour, creds pagemodel.Credentials) executor.Case {
	steps := []executor.Step{
		{
			Name: "Open the login page",
			Run: func(ctx context.Context, s *actions.Session) error {
				return s.Open(ctx, model.Login.URL)
			},
		},
		{
			Name: "Log in as " + creds.Email,
			Run: func(ctx context.Context, s *actions.Session) error {
				return s.LogIn(ctx, creds)
			},
		},
		{
			Name: "Edit the first site",
			Run: func(ctx context.Context, s *actions.Session) error {
				return s.ClickElementByIndex(ctx, model.Dashboard.EditButton.Value, 0)
			},
		},
		{
			Name: "Open the tutorial",
			Run: func(ctx context.Context, s *actions.Session) error {
				return s.ReplaceURLAndRedirect(ctx, t.Redirect.From, t.Redirect.To)
			},
		},
	}

	for _, d := range t.Dialogs {
		d := d
		steps = append(steps, executor.Step{
			Name: fmt.Sprintf("Check dialog %q and click %q", d.Title, d.Button),
			Run: func(ctx context.Context, s *actions.Session) error {
				return s.CheckDialog(ctx, d)
			},
		})
	}

	return executor.Case{Name: DialogsCase, Steps: steps}
}

func fontCase(model *pagemodel.Model, font pagemodel.FontChange) executor.Case {
	tutorial := model.Tutorial
	textBox := tutorial.Page.ContactWithUsTextBox.Value

	return executor.Case{
		Name: fmt.Sprintf(FontCase, font.Name),
		Steps: []executor.Step{
			{
				Name: "Open the Contact Us section",
				Run: func(ctx context.Context, s *actions.Session) error {
					return s.ClickByXPath(ctx, tutorial.Menu.Sections.ContactUsButton.Value)
				},
			},
			{
				Name: "Edit the Connect With Us text",
				Run: func(ctx context.Context, s *actions.Session) error {
					return s.ClickByXPath(ctx, textBox)
				},
			},
			{
				Name: "Open the font picker",
				Run: func(ctx context.Context, s *actions.Session) error {
					return s.ClickByID(ctx, tutorial.Toolbar.FontFamilyButton.Value)
				},
			},
			{
				Name: "Pick " + font.Name,
				Run: func(ctx context.Context, s *actions.Session) error {
					return s.ClickByXPath(ctx, tutorial.Menu.EditFonts.FontXPath(font.Name))
				},
			},
			{
				Name: "Check the font-family starts with " + font.ExpectPrefix,
				Run: func(ctx context.Context, s *actions.Session) error {
					family, err := s.FontFamilyByXPath(ctx, textBox)
					if err != nil {
						return err
					}
					return AssertFontPrefix(family, font.ExpectPrefix)
				},
			},
		},
	}
}

// AssertFontPrefix checks that a computed font-family starts with prefix,
// ignoring case.
func AssertFontPrefix(family, prefix string) error {
	logger.Info("Computed font-family: %s", family)
	if strings.HasPrefix(strings.ToLower(family), strings.ToLower(prefix)) {
		return nil
	}
	return core.ErrTextMismatch.
		WithMessage(fmt.Sprintf("font-family %q does not start with %q", family, prefix)).
		WithDetails(map[string]interface{}{
			"expected": prefix + "…",
			"actual":   family,
		})
}
