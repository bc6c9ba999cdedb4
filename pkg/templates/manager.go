package templates

import (
	"bytes"
	"fmt"
	"path/filepath"
	"text/template"

	"go.uber.org/zap"

	"github.com/physiqlab/coach-bot/pkg/logger"
)

// Manager holds a parsed message template set loaded from a directory
type Manager struct {
	templates *template.Template
}

// funcMap carries the helpers the message templates need beyond the
// text/template builtins
func funcMap() template.FuncMap {
	return template.FuncMap{
		"float": func(val interface{}) float64 {
			switch v := val.(type) {
			case float64:
				return v
			case float32:
				return float64(v)
			case int:
				return float64(v)
			default:
				if dec, ok := val.(interface{ InexactFloat64() float64 }); ok {
					return dec.InexactFloat64()
				}
				return 0
			}
		},
		"add": func(a, b int) int {
			return a + b
		},
	}
}

// NewManager parses every .tmpl file under the directory (one
// subdirectory level deep) and verifies the named templates are present
func NewManager(dir string, required ...string) (*Manager, error) {
	tmpl := template.New("root").Funcs(funcMap())

	for _, pattern := range []string{
		filepath.Join(dir, "*.tmpl"),
		filepath.Join(dir, "*", "*.tmpl"),
	} {
		if parsed, err := tmpl.ParseGlob(pattern); err == nil && parsed != nil {
			tmpl = parsed
		}
	}

	if len(tmpl.Templates()) <= 1 { // the bare root does not count
		return nil, fmt.Errorf("no templates found in %s", dir)
	}

	for _, name := range required {
		if tmpl.Lookup(name) == nil {
			return nil, fmt.Errorf("required template not found: %s", name)
		}
	}

	logger.Info("templates loaded",
		zap.Int("count", len(tmpl.Templates())-1),
		zap.String("directory", dir),
	)

	return &Manager{templates: tmpl}, nil
}

// ExecuteTemplate renders the named template with data
func (m *Manager) ExecuteTemplate(name string, data interface{}) (string, error) {
	tmpl := m.templates.Lookup(name)
	if tmpl == nil {
		return "", fmt.Errorf("template %s not found", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}
