package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/physiqlab/coach-bot/internal/adapters/config"
	"github.com/physiqlab/coach-bot/pkg/logger"
	"github.com/physiqlab/coach-bot/pkg/models"
)

// Notifier sends coaching notifications to athletes via Telegram.
// Athletes without a linked chat (TelegramChatID == 0) are skipped silently
type Notifier struct {
	api             *tgbotapi.BotAPI
	cfg             *config.TelegramConfig
	templateManager *TemplateManager
}

// NewNotifier creates new Telegram notifier
func NewNotifier(botToken string, cfg *config.TelegramConfig, templateManager *TemplateManager) (*Notifier, error) {
	if botToken == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	bot.Debug = false

	logger.Info("telegram notifier initialized",
		zap.String("bot_username", bot.Self.UserName),
	)

	return &Notifier{
		api:             bot,
		cfg:             cfg,
		templateManager: templateManager,
	}, nil
}

// SendWeeklyReport sends the weekly evaluation summary to the athlete
func (n *Notifier) SendWeeklyReport(ctx context.Context, profile *models.AthleteProfile, eval *models.WeeklyEvaluation) error {
	if profile.TelegramChatID == 0 {
		return nil
	}

	adjustments := make([]map[string]interface{}, 0, len(eval.Adjustments))
	for _, adj := range eval.Adjustments {
		adjustments = append(adjustments, map[string]interface{}{
			"Description":  adj.Description,
			"CalorieDelta": fmt.Sprintf("%+d", int(adj.CalorieDelta)),
		})
	}

	data := map[string]interface{}{
		"Name":        profile.Name,
		"Emoji":       evaluationEmoji(eval.Status),
		"Phase":       eval.Phase.DisplayName(),
		"Status":      string(eval.Status),
		"StartWeight": fmt.Sprintf("%.1f", eval.StartWeightKg),
		"EndWeight":   fmt.Sprintf("%.1f", eval.EndWeightKg),
		"DeltaWeight": fmt.Sprintf("%+.2f", eval.DeltaWeightKg),
		"DeltaBF":     fmt.Sprintf("%+.2f", eval.DeltaBodyFatPct),
		"DeltaLean":   fmt.Sprintf("%+.2f", eval.DeltaLeanKg),
		"Adjustments": adjustments,
		"Summary":     eval.Summary,
		"Date":        time.Now().Format("2006-01-02"),
	}

	msg, err := n.templateManager.ExecuteTemplate("weekly_report.tmpl", data)
	if err != nil {
		return err
	}

	return n.sendMessageMarkdown(profile.TelegramChatID, msg)
}

// SendRecoveryAlert warns the athlete when readiness calls for backing off
func (n *Notifier) SendRecoveryAlert(ctx context.Context, profile *models.AthleteProfile, decision *models.RecoveryDecision) error {
	if profile.TelegramChatID == 0 {
		return nil
	}

	data := map[string]interface{}{
		"Name":      profile.Name,
		"Emoji":     recoveryEmoji(decision.Status),
		"Points":    decision.FatiguePoints,
		"Status":    string(decision.Status),
		"Action":    decision.Action,
		"Rationale": decision.Rationale,
	}

	msg, err := n.templateManager.ExecuteTemplate("recovery_alert.tmpl", data)
	if err != nil {
		return err
	}

	return n.sendMessageMarkdown(profile.TelegramChatID, msg)
}

// SendConflictPrompt asks the athlete to pick a path when weekly progress
// signals pull in opposite directions
func (n *Notifier) SendConflictPrompt(ctx context.Context, profile *models.AthleteProfile, eval *models.WeeklyEvaluation) error {
	if profile.TelegramChatID == 0 {
		return nil
	}

	options := make([]map[string]interface{}, 0, len(eval.Options))
	for _, opt := range eval.Options {
		options = append(options, map[string]interface{}{
			"Label":       opt.Label,
			"Description": opt.Description,
		})
	}

	data := map[string]interface{}{
		"Name":    profile.Name,
		"Phase":   eval.Phase.DisplayName(),
		"Summary": eval.Summary,
		"Options": options,
	}

	msg, err := n.templateManager.ExecuteTemplate("conflict_prompt.tmpl", data)
	if err != nil {
		return err
	}

	return n.sendMessageMarkdown(profile.TelegramChatID, msg)
}

// SendMacroPlan sends the current 7-day macro prescription to the athlete
func (n *Notifier) SendMacroPlan(ctx context.Context, profile *models.AthleteProfile, table *models.MacroTable) error {
	if profile.TelegramChatID == 0 {
		return nil
	}

	alerts := make([]string, 0, len(table.Alerts))
	for _, text := range table.Alerts {
		alerts = append(alerts, text)
	}

	data := map[string]interface{}{
		"Name":        profile.Name,
		"Phase":       table.Phase.DisplayName(),
		"Maintenance": table.MaintenanceKcal,
		"Adjusted":    table.AdjustedBaseKcal,
		"Suppression": table.SuppressionKcal,
		"Days":        table.Days,
		"Alerts":      alerts,
	}

	msg, err := n.templateManager.ExecuteTemplate("macro_plan.tmpl", data)
	if err != nil {
		return err
	}

	return n.sendMessageMarkdown(profile.TelegramChatID, msg)
}

// SendErrorAlert notifies the operator chat about a processing failure
func (n *Notifier) SendErrorAlert(athleteName, errorMsg string) error {
	if n.cfg.AdminChatID == 0 {
		return nil
	}

	data := map[string]interface{}{
		"Name":     athleteName,
		"ErrorMsg": errorMsg,
		"Time":     time.Now().Format("15:04:05"),
	}

	msg, err := n.templateManager.ExecuteTemplate("error_alert.tmpl", data)
	if err != nil {
		return err
	}

	return n.sendMessageMarkdown(n.cfg.AdminChatID, msg)
}

// Helper methods

func (n *Notifier) sendMessageMarkdown(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"

	_, err := n.api.Send(msg)
	if err != nil {
		logger.Error("failed to send telegram message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
		return err
	}

	return nil
}

func evaluationEmoji(status models.EvaluationStatus) string {
	switch status {
	case models.EvaluationOnTrack:
		return "✅"
	case models.EvaluationAdjustments:
		return "🛠"
	case models.EvaluationConflict:
		return "⚖️"
	default:
		return "📋"
	}
}

func recoveryEmoji(status models.RecoveryStatus) string {
	switch status {
	case models.RecoverySevereFatigue:
		return "🔴"
	case models.RecoveryIncompleteRecovery:
		return "🟡"
	default:
		return "🟢"
	}
}
