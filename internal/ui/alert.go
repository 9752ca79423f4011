package ui

import (
	"fmt"
	"strings"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/enums"
	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
	"github.com/ivankudzin/tgapp/feedbot/internal/infra/telegram"
)

// RenderAlert builds the moderation dialog. Warnings get a Close button only
// when dismissible is true.
func RenderAlert(alert model.ModerationAlert, seq uint64, dismissible bool) (string, [][]telegram.InlineButton) {
	suspension := alert.Kind == enums.AlertKindSuspension

	title := "Content Warning"
	headline := "Your content has been flagged for review."
	footer := "This is a warning. Repeated violations may result in account suspension. Please review our community guidelines."
	if suspension {
		title = "Account Suspended"
		headline = "Your account has been suspended due to repeated violations."
		footer = "Your account has been suspended after multiple violations of our community guidelines. Please contact support if you believe this is an error."
	}

	category := strings.TrimSpace(alert.Category)
	if category == "" {
		category = "unspecified"
	}

	lines := []string{
		title,
		"",
		headline,
		"",
		"Reason: Hate speech detected",
		"Category: " + category,
		fmt.Sprintf("Confidence: %.1f%%", alert.ConfidenceScore*100),
	}
	if message := strings.TrimSpace(alert.Message); message != "" {
		lines = append(lines, "", message)
	}
	lines = append(lines, "", footer)

	row := []telegram.InlineButton{{Text: "I Understand", Data: alertCallback(ActionAck, seq)}}
	if dismissible {
		row = append(row, telegram.InlineButton{Text: "Close", Data: alertCallback(ActionClose, seq)})
	}
	return strings.Join(lines, "\n"), [][]telegram.InlineButton{row}
}

// AlertAcknowledgedMessage is the callback toast after "I Understand".
func AlertAcknowledgedMessage(kind enums.AlertKind) string {
	if kind == enums.AlertKindSuspension {
		return "Suspension notice acknowledged."
	}
	return "Warning acknowledged."
}
