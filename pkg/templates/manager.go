package templates

import (
	"bytes"
	"fmt"
	"path/filepath"
	"text/template"
)

// Renderer renders named prompt templates (for dependency injection).
type Renderer interface {
	ExecuteTemplate(name string, data any) (string, error)
	TemplateExists(name string) bool
}

// Manager loads all *.tmpl files from a directory.
type Manager struct {
	templates *template.Template
	directory string
}

// NewManager parses every template under templatesDir.
func NewManager(templatesDir string) (*Manager, error) {
	pattern := filepath.Join(templatesDir, "*.tmpl")

	tmpl, err := template.New("root").Funcs(funcMap()).ParseGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates from %s: %w", templatesDir, err)
	}

	return &Manager{templates: tmpl, directory: templatesDir}, nil
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"printf": fmt.Sprintf,
	}
}

// ExecuteTemplate renders the named template with data.
func (m *Manager) ExecuteTemplate(name string, data any) (string, error) {
	t := m.templates.Lookup(name)
	if t == nil {
		return "", fmt.Errorf("template not found: %s", name)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

// TemplateExists reports whether a named template was loaded.
func (m *Manager) TemplateExists(name string) bool {
	return m.templates.Lookup(name) != nil
}
