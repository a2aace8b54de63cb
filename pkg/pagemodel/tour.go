package pagemodel

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed tour.yaml
var defaultTour []byte

// DialogStep is one tour dialog: its title, a substring of its content, and
// the label of the button that advances the tour.
type DialogStep struct {
	Title   string `yaml:"title" json:"title"`
	Content string `yaml:"content" json:"content"`
	Button  string `yaml:"button" json:"button"`
}

// Redirect rewrites the editor URL to open the tour.
type Redirect struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// FontChange is the font picked in the second case and the expected prefix
// of the resulting computed font-family.
type FontChange struct {
	Name         string `yaml:"name"`
	ExpectPrefix string `yaml:"expectPrefix"`
}

// Tour holds the text fixtures of the guided tour.
type Tour struct {
	Redirect Redirect     `yaml:"redirect"`
	Dialogs  []DialogStep `yaml:"dialogs"`
	Font     FontChange   `yaml:"font"`
}

// DefaultTour returns the built-in tour fixtures.
func DefaultTour() Tour {
	t, err := decodeTour(defaultTour, Tour{})
	if err == nil {
		err = t.Validate()
	}
	if err != nil {
		panic(fmt.Sprintf("pagemodel: embedded tour: %v", err))
	}
	return t
}

// LoadTour reads tour fixtures from a YAML file. Fields left out of the file
// keep their default values; a dialogs list replaces the default list.
func LoadTour(path string) (Tour, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tour{}, fmt.Errorf("failed to read tour file: %w", err)
	}
	return ParseTour(data)
}

// ParseTour parses tour YAML on top of the defaults.
func ParseTour(data []byte) (Tour, error) {
	base := DefaultTour()
	dialogs := base.Dialogs
	base.Dialogs = nil

	t, err := decodeTour(data, base)
	if err != nil {
		return Tour{}, err
	}
	if t.Dialogs == nil {
		t.Dialogs = dialogs
	}
	if err := t.Validate(); err != nil {
		return Tour{}, err
	}
	return t, nil
}

func decodeTour(data []byte, t Tour) (Tour, error) {
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tour{}, fmt.Errorf("failed to parse tour: %w", err)
	}
	return t, nil
}

// Validate checks every dialog is complete.
func (t Tour) Validate() error {
	if len(t.Dialogs) == 0 {
		return fmt.Errorf("tour has no dialogs")
	}
	for i, d := range t.Dialogs {
		if strings.TrimSpace(d.Title) == "" || strings.TrimSpace(d.Button) == "" {
			return fmt.Errorf("dialog %d: title and button are required", i+1)
		}
	}
	if t.Redirect.From == "" {
		return fmt.Errorf("tour redirect.from is required")
	}
	if t.Font.Name == "" {
		return fmt.Errorf("tour font.name is required")
	}
	return nil
}
