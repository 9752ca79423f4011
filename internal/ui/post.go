package ui

import (
	"fmt"
	"strings"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/enums"
	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
	"github.com/ivankudzin/tgapp/feedbot/internal/infra/telegram"
)

const maxShownComments = 3

// RenderPost renders one post card with its action buttons. viewerID is the
// logged-in user; the delete button is offered on the viewer's own posts only.
func RenderPost(post model.Post, viewerID int64) (string, [][]telegram.InlineButton) {
	lines := []string{
		fmt.Sprintf("@%s · %s", fallback(post.Username, "unknown"), formatTime(post)),
	}
	if content := strings.TrimSpace(post.Content); content != "" {
		lines = append(lines, "", content)
	}
	if post.ImageURL != "" {
		lines = append(lines, "", "🖼 "+post.ImageURL)
	}

	status := fmt.Sprintf("❤ %d · 💬 %d", post.LikesCount, len(post.Comments))
	if post.State == enums.ItemStatePending {
		status += " · syncing…"
	}
	lines = append(lines, "", status)

	comments := post.Comments
	if len(comments) > maxShownComments {
		comments = comments[len(comments)-maxShownComments:]
	}
	for _, comment := range comments {
		lines = append(lines, fmt.Sprintf("  @%s: %s", fallback(comment.Username, "unknown"), comment.Content))
	}

	likeButton := telegram.InlineButton{Text: "❤ Like", Data: postCallback(ActionLike, post.ID)}
	if post.Liked {
		likeButton = telegram.InlineButton{Text: "💔 Unlike", Data: postCallback(ActionUnlike, post.ID)}
	}
	row := []telegram.InlineButton{
		likeButton,
		{Text: "💬 Comment", Data: postCallback(ActionComment, post.ID)},
	}
	if viewerID > 0 && post.UserID == viewerID {
		row = append(row, telegram.InlineButton{Text: "🗑 Delete", Data: postCallback(ActionDelete, post.ID)})
	}
	return strings.Join(lines, "\n"), [][]telegram.InlineButton{row}
}

func RenderFeedHeader(page, pages, total int) string {
	if pages < 1 {
		pages = 1
	}
	return fmt.Sprintf("Feed · page %d/%d · %d posts", page, pages, total)
}

// FeedNavigation returns previous/next buttons for the loaded page.
func FeedNavigation(page, pages int) [][]telegram.InlineButton {
	row := make([]telegram.InlineButton, 0, 2)
	if page > 1 {
		row = append(row, telegram.InlineButton{Text: "« Newer", Data: pageCallback(page - 1)})
	}
	if page < pages {
		row = append(row, telegram.InlineButton{Text: "Older »", Data: pageCallback(page + 1)})
	}
	return [][]telegram.InlineButton{row}
}

func RetryKeyboard() [][]telegram.InlineButton {
	return [][]telegram.InlineButton{{{Text: "Retry", Data: RetryCallback()}}}
}

func formatTime(post model.Post) string {
	if post.CreatedAt.IsZero() {
		return "just now"
	}
	return post.CreatedAt.UTC().Format("2006-01-02 15:04")
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}
