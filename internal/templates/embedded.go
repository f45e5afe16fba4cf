// Package templates embeds the text assets the CLI renders: the starter
// build manifest and the changelog HTML fragment.
package templates

import (
	"embed"
	"fmt"
)

//go:embed changelog.html.tmpl manifest.yaml.tmpl
var EmbeddedTemplates embed.FS

// GetTemplate returns the content of a specific template.
func GetTemplate(templateName string) (string, error) {
	content, err := EmbeddedTemplates.ReadFile(templateName)
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", templateName, err)
	}
	return string(content), nil
}

// TemplateExists checks if a template exists in the embedded filesystem.
func TemplateExists(templateName string) bool {
	_, err := EmbeddedTemplates.ReadFile(templateName)
	return err == nil
}
