package llm

import (
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z][a-zA-Z0-9_]*)\}`)

// Render expands every {name} placeholder in template with the matching value
// from tctx. Unknown placeholders substitute to the empty string; rendering
// never fails.
func Render(template string, tctx map[string]string) string {
	rendered := placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		return tctx[name]
	})
	return strings.TrimSpace(rendered)
}
