package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/SH1NK10KU/shin-macaca/pkg/core"
	"github.com/SH1NK10KU/shin-macaca/pkg/locator"
	"github.com/SH1NK10KU/shin-macaca/pkg/logger"
	"github.com/SH1NK10KU/shin-macaca/pkg/pagemodel"
	"github.com/SH1NK10KU/shin-macaca/pkg/script"
	"github.com/SH1NK10KU/shin-macaca/pkg/webdriver"
)

// Open loads url and waits for it to finish loading.
func (s *Session) Open(ctx context.Context, url string) error {
	logger.Info("Opening %s", url)
	if err := s.client.Navigate(ctx, url); err != nil {
		return err
	}
	return s.WaitReady(ctx)
}

// LogIn fills in the login form and submits it.
func (s *Session) LogIn(ctx context.Context, creds pagemodel.Credentials) error {
	page := s.model.Login
	logger.Info("Logging in as %s", creds.Email)

	email, err := s.WaitFor(ctx, page.EmailField)
	if err != nil {
		return err
	}
	if err := s.SendKeys(ctx, email, creds.Email); err != nil {
		return err
	}

	password, err := s.Find(ctx, page.PasswordField)
	if err != nil {
		return err
	}
	if err := s.SendKeys(ctx, password, creds.Password); err != nil {
		return err
	}

	button, err := s.Find(ctx, page.LogInButton)
	if err != nil {
		return err
	}
	return s.Click(ctx, button)
}

// ElementInnerText returns the innerText of the first element matching css.
func (s *Session) ElementInnerText(ctx context.Context, css string) (string, error) {
	v, err := s.Execute(ctx, script.InnerText, script.SelectorArgs{Selector: css})
	if err != nil {
		return "", err
	}
	switch text := v.(type) {
	case nil:
		return "", core.ErrElementNotFound.
			WithMessage("no element matches css=" + css).
			WithDetails(map[string]interface{}{"locator": "css=" + css})
	case string:
		return text, nil
	default:
		return fmt.Sprint(text), nil
	}
}

// ElementAt returns the index-th element matching css.
func (s *Session) ElementAt(ctx context.Context, css string, index int) (webdriver.Element, error) {
	if index < 0 {
		return webdriver.Element{}, core.ErrInvalidConfig.WithMessage(fmt.Sprintf("negative element index %d", index))
	}

	v, err := s.Execute(ctx, script.ElementAt, script.IndexArgs{Selector: css, Index: index})
	if err != nil {
		return webdriver.Element{}, err
	}
	el, ok := v.(webdriver.Element)
	if !ok {
		return webdriver.Element{}, core.ErrElementNotFound.
			WithMessage(fmt.Sprintf("no element at index %d for css=%s", index, css)).
			WithDetails(map[string]interface{}{"locator": "css=" + css, "index": index})
	}
	return el, nil
}

// ClickElementByIndex waits for css to match, then clicks the index-th match.
func (s *Session) ClickElementByIndex(ctx context.Context, css string, index int) error {
	logger.Info("Clicking css=%s [%d]", css, index)
	if _, err := s.WaitForAll(ctx, locator.ByCSS(css)); err != nil {
		return err
	}
	el, err := s.ElementAt(ctx, css, index)
	if err != nil {
		return err
	}
	return s.Click(ctx, el)
}

// ReplaceURLAndRedirect replaces the first occurrence of oldValue in the
// current URL with newValue and navigates there.
func (s *Session) ReplaceURLAndRedirect(ctx context.Context, oldValue, newValue string) error {
	v, err := s.Execute(ctx, script.ReplaceURL, script.ReplaceArgs{Old: oldValue, New: newValue})
	if err != nil {
		return err
	}
	target, _ := v.(string)
	if target == "" {
		return core.ErrRemoteCommand.WithMessage(fmt.Sprintf("redirect script returned %v, want a URL", v))
	}
	logger.Info("Redirecting to %s", target)

	// The old page can still report readyState "complete" until the
	// browser starts loading target.
	err = s.poll(ctx, core.ErrWaitTimeout, "navigation to "+target, func(ctx context.Context) (bool, error) {
		current, err := s.client.CurrentURL(ctx)
		if err != nil {
			return false, err
		}
		return current == target, nil
	})
	if err != nil {
		return err
	}
	return s.WaitReady(ctx)
}

// CheckDialog waits for the dialog titled step.Title, asserts its content
// contains step.Content, and clicks step.Button.
func (s *Session) CheckDialog(ctx context.Context, step pagemodel.DialogStep) error {
	dialog := s.model.Tutorial.PopupDialog
	logger.Info("Checking dialog %q", step.Title)

	if _, err := s.WaitFor(ctx, locator.ByXPath(dialog.TitleXPath(step.Title))); err != nil {
		return err
	}

	content, err := s.ElementInnerText(ctx, dialog.Content.Value)
	if err != nil {
		return err
	}
	if !strings.Contains(content, step.Content) {
		return core.ErrTextMismatch.
			WithMessage(fmt.Sprintf("dialog %q does not contain the expected content", step.Title)).
			WithDetails(map[string]interface{}{
				"expected": step.Content,
				"actual":   content,
				"diff":     Diff(step.Content, content),
			})
	}

	button, err := s.WaitFor(ctx, locator.ByXPath(dialog.ButtonXPath(step.Button)))
	if err != nil {
		return err
	}
	return s.Click(ctx, button)
}

// ClickByXPath waits for xpath and clicks it.
func (s *Session) ClickByXPath(ctx context.Context, xpath string) error {
	return s.clickLocator(ctx, locator.ByXPath(xpath))
}

// ClickByID waits for the element with id and clicks it.
func (s *Session) ClickByID(ctx context.Context, id string) error {
	return s.clickLocator(ctx, locator.ByID(id))
}

func (s *Session) clickLocator(ctx context.Context, loc locator.Locator) error {
	logger.Info("Clicking %s", loc.Describe())
	el, err := s.WaitFor(ctx, loc)
	if err != nil {
		return err
	}
	return s.Click(ctx, el)
}

// FontFamilyByXPath waits for xpath and returns its computed font-family.
func (s *Session) FontFamilyByXPath(ctx context.Context, xpath string) (string, error) {
	el, err := s.WaitFor(ctx, locator.ByXPath(xpath))
	if err != nil {
		return "", err
	}
	return s.client.CSSValue(ctx, el, "font-family")
}
