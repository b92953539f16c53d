package template

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"text/template"

	"github.com/fjglira/mdcr/internal/domain"
)

//go:embed templates/*.tmpl
var builtin embed.FS

// TemplateEngine renders starter configuration files.
type TemplateEngine interface {
	Render(name string, data ConfigData) (string, error)
	ListTemplates() []string
}

// PresetData describes one preset in a rendered config.
type PresetData struct {
	Name       string
	Languages  []string
	Command    []string
	InputMode  string
	OutputMode string
	Timeout    string
}

// ConfigData is the struct passed to templates.
type ConfigData struct {
	Presets []PresetData
}

// DefaultConfigData returns the presets written by `mdcr init`.
func DefaultConfigData() ConfigData {
	return ConfigData{Presets: []PresetData{
		{
			Name:       "shell-output",
			Languages:  []string{"sh"},
			Command:    []string{"sh"},
			InputMode:  "stdin",
			OutputMode: "check",
			Timeout:    "30s",
		},
		{
			Name:       "gofmt",
			Languages:  []string{"go"},
			Command:    []string{"gofmt", "{file}"},
			InputMode:  "file",
			OutputMode: "replace",
		},
	}}
}

// DefaultEngine implements TemplateEngine.
type DefaultEngine struct {
	templates map[string]*template.Template
}

// NewEngine loads every .tmpl file at the root of fsys.
func NewEngine(fsys fs.FS) (*DefaultEngine, error) {
	engine := &DefaultEngine{templates: make(map[string]*template.Template)}
	if err := engine.loadTemplates(fsys); err != nil {
		return nil, err
	}
	return engine, nil
}

// NewBuiltinEngine loads the templates embedded in the binary.
func NewBuiltinEngine() (*DefaultEngine, error) {
	sub, err := fs.Sub(builtin, "templates")
	if err != nil {
		return nil, domain.NewError("template", "templates", 0, "failed to open embedded templates", err)
	}
	return NewEngine(sub)
}

func (e *DefaultEngine) loadTemplates(fsys fs.FS) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return domain.NewError("template", ".", 0, "failed to read template directory", err)
	}

	funcMap := CustomFuncMap()

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".tmpl") {
			continue
		}

		content, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return domain.NewError("template", entry.Name(), 0, "failed to read template file", err)
		}

		name := strings.TrimSuffix(path.Base(entry.Name()), ".tmpl")
		tmpl, err := template.New(name).Funcs(funcMap).Parse(string(content))
		if err != nil {
			return domain.NewError("template", entry.Name(), 0, "failed to parse template", err)
		}

		e.templates[name] = tmpl
	}

	if len(e.templates) == 0 {
		return domain.NewError("template", ".", 0, "no templates found", nil)
	}

	return nil
}

// Render renders the named template ("toml" or "yaml") with data.
func (e *DefaultEngine) Render(name string, data ConfigData) (string, error) {
	tmpl, ok := e.templates[name]
	if !ok {
		return "", domain.NewError("template", "", 0,
			fmt.Sprintf("template %q not found (available: %s)", name, strings.Join(e.ListTemplates(), ", ")), nil)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", domain.NewError("template", name, 0, "failed to execute template", err)
	}
	return buf.String(), nil
}

// ListTemplates returns the names of all loaded templates, sorted.
func (e *DefaultEngine) ListTemplates() []string {
	names := make([]string, 0, len(e.templates))
	for name := range e.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
