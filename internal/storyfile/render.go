package storyfile

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/opencode-ai/cradle/internal/vars"
)

// renderText expands {{.name}} references against the current variables.
// Text without template actions is returned unchanged.
func renderText(name, content string, store *vars.Store) (string, error) {
	if !strings.Contains(content, "{{") {
		return content, nil
	}

	parsed, err := template.New(name).
		Funcs(template.FuncMap{"default": defaultValue}).
		Option("missingkey=zero").
		Parse(content)
	if err != nil {
		return "", fmt.Errorf("parse template %q: %w", name, err)
	}

	data := make(map[string]any)
	for _, key := range store.Names() {
		data[key] = store.Get(key).String()
	}

	var out strings.Builder
	if err := parsed.Execute(&out, data); err != nil {
		return "", fmt.Errorf("render template %q: %w", name, err)
	}

	return out.String(), nil
}

func defaultValue(def string, value any) string {
	if value == nil {
		return def
	}
	text := strings.TrimSpace(fmt.Sprint(value))
	if text == "" {
		return def
	}
	return text
}
