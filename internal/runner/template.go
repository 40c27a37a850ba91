package runner

import "strings"

// DefaultPlaceholder marks where the changed path lands in the command.
const DefaultPlaceholder = "{}"

// Template is the user's command with an optional placeholder for the
// changed path.
type Template struct {
	Command     string
	Placeholder string
}

// NewTemplate builds a template, falling back to the default
// placeholder when none is given.
func NewTemplate(command, placeholder string) Template {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	return Template{Command: command, Placeholder: placeholder}
}

// HasPlaceholder reports whether rendering substitutes anything.
func (t Template) HasPlaceholder() bool {
	return strings.Contains(t.Command, t.placeholder())
}

// Render substitutes the shell-quoted path at every placeholder
// occurrence. Commands without a placeholder come back unchanged, so
// static commands work as-is.
func (t Template) Render(path string) string {
	if !t.HasPlaceholder() {
		return t.Command
	}
	return strings.ReplaceAll(t.Command, t.placeholder(), quotePath(path))
}

func (t Template) placeholder() string {
	if t.Placeholder == "" {
		return DefaultPlaceholder
	}
	return t.Placeholder
}
