package locator

import (
	"fmt"
	"strings"
)

// Template is an XPath expression with a single %s hole. The hole receives a
// quoted XPath string literal, so templates are written as
// `contains(text(), %s)` without surrounding quotes.
type Template struct {
	format string
}

// NewTemplate returns a template. It panics if format does not contain
// exactly one %s verb.
func NewTemplate(format string) Template {
	if strings.Count(format, "%s") != 1 || strings.Count(format, "%") != 1 {
		panic(fmt.Sprintf("locator: template %q must contain exactly one %%s", format))
	}
	return Template{format: format}
}

// Fill produces the XPath with value inserted as a literal.
func (t Template) Fill(value string) string {
	return fmt.Sprintf(t.format, QuoteXPath(value))
}

// Locate is Fill wrapped in an XPath locator.
func (t Template) Locate(value string) Locator {
	return ByXPath(t.Fill(value))
}

// QuoteXPath renders s as an XPath 1.0 string literal. XPath has no escape
// sequences, so a value holding both quote kinds is built with concat().
func QuoteXPath(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}

	parts := strings.Split(s, `"`)
	args := make([]string, 0, 2*len(parts)-1)
	for i, part := range parts {
		if i > 0 {
			args = append(args, `'"'`)
		}
		if part != "" {
			args = append(args, `"`+part+`"`)
		}
	}
	return "concat(" + strings.Join(args, ", ") + ")"
}
