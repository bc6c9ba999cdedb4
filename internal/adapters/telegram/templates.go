package telegram

import (
	"fmt"

	"github.com/physiqlab/coach-bot/pkg/templates"
)

// TemplateManager loads the Telegram message templates
type TemplateManager struct {
	*templates.Manager
}

// NewTemplateManager creates and loads all templates
func NewTemplateManager(templatesDir string) (*TemplateManager, error) {
	if templatesDir == "" {
		templatesDir = "./templates/telegram"
	}

	manager, err := templates.NewManager(templatesDir,
		"weekly_report.tmpl",
		"recovery_alert.tmpl",
		"conflict_prompt.tmpl",
		"macro_plan.tmpl",
		"error_alert.tmpl",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load telegram templates: %w", err)
	}

	return &TemplateManager{Manager: manager}, nil
}
