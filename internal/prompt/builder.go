// Package prompt renders the built-in operation templates. Substitution is
// driven by the context map: every {{key}} with a matching context entry is
// replaced, placeholders without a context entry stay verbatim.
package prompt

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Context is the substitution map for a template render.
type Context map[string]any

// Build renders the named template with the given context. Non-string values
// are JSON-serialized before substitution. Keys are regex-escaped so a key
// containing reserved characters cannot corrupt unrelated placeholders.
func Build(templateKey string, ctx Context) (string, error) {
	tmpl, ok := builtinTemplates[templateKey]
	if !ok {
		return "", fmt.Errorf("unknown prompt template %q", templateKey)
	}
	return Render(tmpl, ctx), nil
}

// Render substitutes {{key}} placeholders in tmpl from ctx.
func Render(tmpl string, ctx Context) string {
	out := tmpl
	for key, value := range ctx {
		pattern := regexp.MustCompile(`\{\{` + regexp.QuoteMeta(key) + `\}\}`)
		out = pattern.ReplaceAllLiteralString(out, stringify(value))
	}
	return out
}

func stringify(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

// Has reports whether a template key exists.
func Has(templateKey string) bool {
	_, ok := builtinTemplates[templateKey]
	return ok
}

// Keys returns the available template keys, for diagnostics.
func Keys() []string {
	keys := make([]string, 0, len(builtinTemplates))
	for k := range builtinTemplates {
		keys = append(keys, k)
	}
	return keys
}

// UnresolvedPlaceholders lists {{...}} tokens left in a rendered prompt.
func UnresolvedPlaceholders(rendered string) []string {
	matches := placeholderRe.FindAllString(rendered, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	var out []string
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			out = append(out, strings.TrimSuffix(strings.TrimPrefix(m, "{{"), "}}"))
		}
	}
	return out
}

var placeholderRe = regexp.MustCompile(`\{\{[^{}]+\}\}`)
