// Package actions implements the composite page operations used by the tour
// suite. Every mutating operation returns only once the page reports it has
// finished loading.
package actions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/SH1NK10KU/shin-macaca/pkg/core"
	"github.com/SH1NK10KU/shin-macaca/pkg/locator"
	"github.com/SH1NK10KU/shin-macaca/pkg/logger"
	"github.com/SH1NK10KU/shin-macaca/pkg/pagemodel"
	"github.com/SH1NK10KU/shin-macaca/pkg/script"
	"github.com/SH1NK10KU/shin-macaca/pkg/webdriver"
)

// WaitOptions controls element waits and readiness polling.
type WaitOptions struct {
	Timeout  time.Duration
	Interval time.Duration
	// Settle is an extra pause after the page is ready, for animations.
	Settle time.Duration
}

// DefaultWaitOptions returns a 10s timeout polled every 100ms.
func DefaultWaitOptions() WaitOptions {
	return WaitOptions{Timeout: 10 * time.Second, Interval: 100 * time.Millisecond}
}

func (w WaitOptions) withDefaults() WaitOptions {
	def := DefaultWaitOptions()
	if w.Timeout <= 0 {
		w.Timeout = def.Timeout
	}
	if w.Interval <= 0 {
		w.Interval = def.Interval
	}
	return w
}

// Options configures Start.
type Options struct {
	ServerURL      string
	Capabilities   map[string]interface{}
	WindowWidth    int
	WindowHeight   int
	CommandTimeout time.Duration
	Wait           WaitOptions
	Model          *pagemodel.Model
}

// Session is one remote browser session plus the page model its actions use.
type Session struct {
	client *webdriver.Client
	model  *pagemodel.Model
	wait   WaitOptions
}

// NewSession wraps an already connected client.
func NewSession(client *webdriver.Client, model *pagemodel.Model, wait WaitOptions) *Session {
	if model == nil {
		model = pagemodel.New("")
	}
	return &Session{client: client, model: model, wait: wait.withDefaults()}
}

// Start connects to the automation server and sizes the window. The caller
// must Close the returned session.
func Start(ctx context.Context, opts Options) (*Session, error) {
	client := webdriver.NewClient(opts.ServerURL, opts.CommandTimeout)
	if err := client.Connect(ctx, opts.Capabilities); err != nil {
		return nil, err
	}

	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		if err := client.SetWindowSize(ctx, opts.WindowWidth, opts.WindowHeight); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("failed to set window size: %w", err)
		}
	}
	return NewSession(client, opts.Model, opts.Wait), nil
}

// Close ends the remote session.
func (s *Session) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Client returns the underlying WebDriver client.
func (s *Session) Client() *webdriver.Client { return s.client }

// Model returns the page model.
func (s *Session) Model() *pagemodel.Model { return s.model }

// Wait returns the wait settings.
func (s *Session) Wait() WaitOptions { return s.wait }

// errNotYet makes poll try again.
var errNotYet = errors.New("condition not met yet")

// poll runs cond until it reports done, fails, or the wait timeout elapses.
// On timeout it returns base with a message naming what was awaited.
func (s *Session) poll(ctx context.Context, base *core.ExecutionError, what string, cond func(context.Context) (bool, error)) error {
	waitCtx, cancel := context.WithTimeout(ctx, s.wait.Timeout)
	defer cancel()

	var lastErr error
	op := func() error {
		done, err := cond(waitCtx)
		if err != nil {
			if waitCtx.Err() != nil {
				return err
			}
			return backoff.Permanent(err)
		}
		if !done {
			return errNotYet
		}
		return nil
	}
	notify := func(err error, _ time.Duration) { lastErr = err }

	b := backoff.WithContext(backoff.NewConstantBackOff(s.wait.Interval), waitCtx)
	err := backoff.RetryNotify(op, b, notify)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if waitCtx.Err() != nil || errors.Is(err, errNotYet) {
		timeoutErr := base.WithMessage(fmt.Sprintf("timed out after %s waiting for %s", s.wait.Timeout, what))
		if lastErr != nil && !errors.Is(lastErr, errNotYet) {
			timeoutErr = timeoutErr.WithCause(lastErr)
		}
		return timeoutErr
	}
	return err
}

// WaitFor polls until loc matches an element.
func (s *Session) WaitFor(ctx context.Context, loc locator.Locator) (webdriver.Element, error) {
	logger.Debug("Waiting for %s", loc.Describe())

	var el webdriver.Element
	err := s.poll(ctx, core.ErrElementNotFound, loc.Describe(), func(ctx context.Context) (bool, error) {
		found, err := s.client.FindElement(ctx, string(loc.Strategy), loc.Value)
		if webdriver.IsNoSuchElement(err) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		el = found
		return true, nil
	})
	if err != nil {
		return webdriver.Element{}, withLocator(err, loc)
	}
	return el, nil
}

// WaitForAll polls until loc matches at least one element.
func (s *Session) WaitForAll(ctx context.Context, loc locator.Locator) ([]webdriver.Element, error) {
	var elems []webdriver.Element
	err := s.poll(ctx, core.ErrElementNotFound, loc.Describe(), func(ctx context.Context) (bool, error) {
		found, err := s.FindAll(ctx, loc)
		if err != nil {
			return false, err
		}
		elems = found
		return len(found) > 0, nil
	})
	if err != nil {
		return nil, withLocator(err, loc)
	}
	return elems, nil
}

// WaitReady polls until document.readyState is "complete", then pauses for
// the settle delay.
func (s *Session) WaitReady(ctx context.Context) error {
	src, err := script.ReadyState.Render(nil)
	if err != nil {
		return err
	}

	err = s.poll(ctx, core.ErrWaitTimeout, "page to finish loading", func(ctx context.Context) (bool, error) {
		state, err := s.client.Execute(ctx, src)
		if err != nil {
			return false, err
		}
		return state == "complete", nil
	})
	if err != nil {
		return err
	}

	if s.wait.Settle > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.wait.Settle):
		}
	}
	return nil
}

// Find locates one element without waiting.
func (s *Session) Find(ctx context.Context, loc locator.Locator) (webdriver.Element, error) {
	el, err := s.client.FindElement(ctx, string(loc.Strategy), loc.Value)
	if webdriver.IsNoSuchElement(err) {
		return webdriver.Element{}, core.ErrElementNotFound.
			WithMessage("no element matches "+loc.Describe()).
			WithCause(err).
			WithDetails(map[string]interface{}{"locator": loc.Describe()})
	}
	return el, err
}

// FindAll locates every matching element without waiting.
func (s *Session) FindAll(ctx context.Context, loc locator.Locator) ([]webdriver.Element, error) {
	return s.client.FindElements(ctx, string(loc.Strategy), loc.Value)
}

// Click clicks el and waits for the page to settle.
func (s *Session) Click(ctx context.Context, el webdriver.Element) error {
	if err := s.client.Click(ctx, el); err != nil {
		return err
	}
	return s.WaitReady(ctx)
}

// SendKeys types text into el.
func (s *Session) SendKeys(ctx context.Context, el webdriver.Element, text string) error {
	return s.client.SendKeys(ctx, el, text)
}

// Execute renders a script template and runs it in the page.
func (s *Session) Execute(ctx context.Context, sc *script.Script, data interface{}) (interface{}, error) {
	src, err := sc.Render(data)
	if err != nil {
		return nil, err
	}
	logger.Debug("Executing script %s", sc.Name())
	return s.client.Execute(ctx, src)
}

// Screenshot captures the current window as PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	return s.client.Screenshot(ctx)
}

func withLocator(err error, loc locator.Locator) error {
	var execErr *core.ExecutionError
	if errors.As(err, &execErr) {
		return execErr.WithDetails(map[string]interface{}{"locator": loc.Describe()})
	}
	return err
}
