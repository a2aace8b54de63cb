// Package locator describes how to find an element on a page.
package locator

import (
	"fmt"
	"strings"
)

// Strategy is a WebDriver location strategy.
type Strategy string

// Supported strategies. Values are sent to the server as-is.
const (
	StrategyID        Strategy = "id"
	StrategyCSS       Strategy = "css selector"
	StrategyXPath     Strategy = "xpath"
	StrategyClassName Strategy = "class name"
)

// shortNames are used by Describe.
var shortNames = map[Strategy]string{
	StrategyID:        "id",
	StrategyCSS:       "css",
	StrategyXPath:     "xpath",
	StrategyClassName: "className",
}

// Locator identifies an element by strategy and value.
type Locator struct {
	Strategy Strategy
	Value    string
}

// ByID locates by element id.
func ByID(id string) Locator { return Locator{Strategy: StrategyID, Value: id} }

// ByCSS locates by CSS selector.
func ByCSS(selector string) Locator { return Locator{Strategy: StrategyCSS, Value: selector} }

// ByXPath locates by XPath expression.
func ByXPath(expr string) Locator { return Locator{Strategy: StrategyXPath, Value: expr} }

// ByClassName locates by a single class name.
func ByClassName(name string) Locator { return Locator{Strategy: StrategyClassName, Value: name} }

// Describe renders the locator for logs and error messages, e.g. "xpath=//h3".
func (l Locator) Describe() string {
	name, ok := shortNames[l.Strategy]
	if !ok {
		name = string(l.Strategy)
	}
	return name + "=" + l.Value
}

func (l Locator) String() string { return l.Describe() }

// IsZero reports whether the locator is unset.
func (l Locator) IsZero() bool { return l.Strategy == "" && l.Value == "" }

// Validate checks the strategy is known and the value non-empty.
func (l Locator) Validate() error {
	if _, ok := shortNames[l.Strategy]; !ok {
		return fmt.Errorf("unknown locator strategy %q", l.Strategy)
	}
	if strings.TrimSpace(l.Value) == "" {
		return fmt.Errorf("empty %s locator", shortNames[l.Strategy])
	}
	return nil
}

// Parse reads the Describe form back, e.g. "css=.edit" or "id=user_email".
func Parse(s string) (Locator, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		return Locator{}, fmt.Errorf("locator %q: missing '='", s)
	}
	for strategy, short := range shortNames {
		if short == name || string(strategy) == name {
			l := Locator{Strategy: strategy, Value: value}
			return l, l.Validate()
		}
	}
	return Locator{}, fmt.Errorf("locator %q: unknown strategy %q", s, name)
}
