package ui

import (
	"fmt"
	"strings"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
)

func RenderProfile(user model.User, violations []model.Violation, postsCount int, own bool) string {
	lines := []string{
		fmt.Sprintf("@%s (id %d)", fallback(user.Username, "unknown"), user.ID),
	}
	if own && user.Email != "" {
		lines = append(lines, "Email: "+user.Email)
	}
	if user.CreatedAt != nil {
		lines = append(lines, "Member since: "+user.CreatedAt.UTC().Format("2006-01-02"))
	}
	lines = append(lines,
		fmt.Sprintf("Posts: %d", postsCount),
		fmt.Sprintf("Warnings: %d", user.WarningCount),
	)
	if user.IsSuspended {
		lines = append(lines, "Status: suspended")
	}
	if user.IsAdmin {
		lines = append(lines, "Role: admin")
	}

	if len(violations) > 0 {
		lines = append(lines, "", "Violations:")
		for _, v := range violations {
			lines = append(lines, renderViolationLine(v))
		}
	}
	return strings.Join(lines, "\n")
}

func renderViolationLine(v model.Violation) string {
	when := "-"
	if v.Timestamp != nil {
		when = v.Timestamp.UTC().Format("2006-01-02 15:04")
	}
	return fmt.Sprintf("• %s · %s %.0f%% · %s", when, fallback(v.Category, "unspecified"), v.ConfidenceScore*100, truncate(v.Content, 80))
}

func truncate(value string, limit int) string {
	runes := []rune(strings.TrimSpace(value))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "…"
}
