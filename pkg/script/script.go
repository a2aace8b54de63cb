// Package script builds the page scripts sent to the browser. Values reach a
// script only through the quote function, which renders JavaScript string
// literals, and every rendered script is parsed locally before it is sent.
package script

import (
	"bytes"
	"encoding/json"
	"strings"
	"text/template"

	"github.com/dop251/goja"

	"github.com/SH1NK10KU/shin-macaca/pkg/core"
)

// Script is a named script template.
type Script struct {
	name string
	tmpl *template.Template
}

var funcs = template.FuncMap{
	"quote": Quote,
}

// New parses a script template. It panics on a template syntax error.
func New(name, src string) *Script {
	return &Script{
		name: name,
		tmpl: template.Must(template.New(name).Funcs(funcs).Option("missingkey=error").Parse(src)),
	}
}

// Name returns the script name.
func (s *Script) Name() string { return s.name }

// Render executes the template with data and checks the result parses.
func (s *Script) Render(data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return "", core.ErrMalformedScript.WithCause(err).WithDetails(map[string]interface{}{"script": s.name})
	}
	src := buf.String()
	if err := Validate(src); err != nil {
		return "", core.ErrMalformedScript.WithCause(err).WithDetails(map[string]interface{}{"script": s.name})
	}
	return src, nil
}

// Validate parses src as the body of a function, which is how WebDriver
// executes synchronous scripts.
func Validate(src string) error {
	_, err := goja.Compile("script", wrap(src), false)
	return err
}

func wrap(src string) string {
	return "(function() {\n" + src + "\n})"
}

// Quote renders s as a JavaScript string literal.
func Quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a string cannot fail.
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}
