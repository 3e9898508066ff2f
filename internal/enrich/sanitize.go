package enrich

import (
	"regexp"
	"strings"
)

var (
	leadingFence  = regexp.MustCompile("^```[a-zA-Z]*\n?")
	trailingFence = regexp.MustCompile("```$")
)

// CleanModelJSON strips markdown-style code fences and stray backticks from
// a model response before JSON parsing. Models wrap "raw JSON only" answers
// in fences often enough that sanitizing unconditionally is cheaper than
// detecting it.
func CleanModelJSON(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return "{}"
	}
	text = leadingFence.ReplaceAllString(text, "")
	text = trailingFence.ReplaceAllString(strings.TrimSpace(text), "")
	return strings.ReplaceAll(text, "`", "")
}
