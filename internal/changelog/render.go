package changelog

import (
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/remcovanmook/networkd-schema/internal/templates"
)

// Text renders the report as plain text for terminal output.
func (r *Report) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Changes from %s to %s\n", r.From, r.To)
	if r.Empty() {
		b.WriteString("\nNo schema changes detected.\n")
		return b.String()
	}
	writeGroup := func(label string, items []string) {
		if len(items) == 0 {
			return
		}
		fmt.Fprintf(&b, "  %s:\n", label)
		for _, item := range items {
			fmt.Fprintf(&b, "    %s\n", item)
		}
	}
	for i := range r.Formats {
		changes := &r.Formats[i]
		if changes.Empty() {
			continue
		}
		fmt.Fprintf(&b, "\n%s\n", changes.Format.Stem())
		writeGroup("added", changes.Added)
		writeGroup("deprecated", changes.Deprecated)
		writeGroup("removed", changes.Removed)
	}
	return b.String()
}

// HTML renders the report as the documentation site's changes fragment.
func (r *Report) HTML(w io.Writer) error {
	content, err := templates.GetTemplate("changelog.html.tmpl")
	if err != nil {
		return err
	}
	tmpl, err := template.New("changelog").Parse(content)
	if err != nil {
		return fmt.Errorf("failed to parse changelog template: %w", err)
	}
	if err := tmpl.Execute(w, r); err != nil {
		return fmt.Errorf("failed to execute changelog template: %w", err)
	}
	return nil
}
