package actions

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Diff renders a unified diff of expected against actual, one sentence per
// line so a single changed word is easy to spot in long dialog text.
func Diff(expected, actual string) string {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(sentences(expected)),
		B:        difflib.SplitLines(sentences(actual)),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return ""
	}
	return text
}

func sentences(s string) string {
	s = strings.ReplaceAll(s, ". ", ".\n")
	s = strings.ReplaceAll(s, "! ", "!\n")
	s = strings.ReplaceAll(s, "? ", "?\n")
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	return s
}
