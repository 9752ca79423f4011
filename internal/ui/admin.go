package ui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
)

func RenderStatistics(stats model.Statistics) string {
	lines := []string{
		"Statistics",
		fmt.Sprintf("Users: %d (active %d, suspended %d)", stats.TotalUsers, stats.ActiveUsers, stats.SuspendedUsers),
		fmt.Sprintf("Posts: %d (clean %d, hate speech %d, %.1f%%)", stats.TotalPosts, stats.CleanPosts, stats.HateSpeechPosts, stats.HateSpeechPercentage),
		fmt.Sprintf("Violations: %d", stats.TotalViolations),
	}

	if len(stats.ViolationsByCategory) > 0 {
		categories := make([]string, 0, len(stats.ViolationsByCategory))
		for category := range stats.ViolationsByCategory {
			categories = append(categories, category)
		}
		sort.Slice(categories, func(i, j int) bool {
			left, right := stats.ViolationsByCategory[categories[i]], stats.ViolationsByCategory[categories[j]]
			if left != right {
				return left > right
			}
			return categories[i] < categories[j]
		})
		lines = append(lines, "By category:")
		for _, category := range categories {
			lines = append(lines, fmt.Sprintf("  %s: %d", category, stats.ViolationsByCategory[category]))
		}
	}
	return strings.Join(lines, "\n")
}

func RenderUsers(users []model.User) string {
	if len(users) == 0 {
		return "Users: none"
	}
	lines := []string{fmt.Sprintf("Users (%d)", len(users))}
	for _, user := range users {
		flags := make([]string, 0, 2)
		if user.IsAdmin {
			flags = append(flags, "admin")
		}
		if user.IsSuspended {
			flags = append(flags, "suspended")
		}
		line := fmt.Sprintf("%d · @%s · warnings %d · violations %d", user.ID, fallback(user.Username, "unknown"), user.WarningCount, user.ViolationsCount)
		if len(flags) > 0 {
			line += " · " + strings.Join(flags, ", ")
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func RenderViolations(page model.ViolationsPage, category string) string {
	header := fmt.Sprintf("Violations · page %d/%d · %d total", page.Page, maxInt(page.Pages, 1), page.Total)
	if strings.TrimSpace(category) != "" {
		header += " · " + category
	}
	if len(page.Violations) == 0 {
		return header + "\nNo violations."
	}
	lines := []string{header}
	for _, v := range page.Violations {
		lines = append(lines, fmt.Sprintf("@%s (%d) %s", fallback(v.Username, "unknown"), v.UserID, renderViolationLine(v)))
	}
	return strings.Join(lines, "\n")
}

func RenderDashboard(dashboard model.Dashboard) string {
	return strings.Join([]string{
		RenderStatistics(dashboard.Statistics),
		"",
		RenderViolations(dashboard.Violations, ""),
		"",
		RenderUsers(dashboard.Users),
	}, "\n")
}

func RenderModerationResult(result model.ModerationActionResult) string {
	message := strings.TrimSpace(result.Message)
	if message == "" {
		message = "Done."
	}
	status := "active"
	if result.Suspended {
		status = "suspended"
	}
	return fmt.Sprintf("%s\n@%s · warnings %d · %s", message, fallback(result.User.Username, strconv.FormatInt(result.User.ID, 10)), result.User.WarningCount, status)
}

func RenderLexicon(stats model.LexiconStats) string {
	lines := []string{
		"Lexicon",
		"Path: " + fallback(stats.Path, "-"),
		fmt.Sprintf("Words: %d", stats.WordsCount),
		fmt.Sprintf("Phrases: %d", stats.PhrasesCount),
	}
	if stats.Mode != "" {
		lines = append(lines, "Mode: "+stats.Mode)
	}
	return strings.Join(lines, "\n")
}

func RenderHistory(items []model.Audit) string {
	if len(items) == 0 {
		return "History: empty"
	}
	lines := []string{"History"}
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("%s · %s · tg %d · %s",
			item.CreatedAt.UTC().Format("2006-01-02 15:04"),
			item.Action,
			item.ActorTGID,
			string(item.Payload),
		))
	}
	return strings.Join(lines, "\n")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
