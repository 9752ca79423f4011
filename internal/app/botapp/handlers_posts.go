package botapp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/enums"
	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
	"github.com/ivankudzin/tgapp/feedbot/internal/infra/telegram"
	"github.com/ivankudzin/tgapp/feedbot/internal/repo/apihttp"
	"github.com/ivankudzin/tgapp/feedbot/internal/services/ratelimit"
	"github.com/ivankudzin/tgapp/feedbot/internal/services/submission"
	"github.com/ivankudzin/tgapp/feedbot/internal/ui"
)

func (a *App) handleFeed(ctx context.Context, chatID int64, page int) {
	sess, ok := a.requireSession(ctx, chatID)
	if !ok {
		return
	}

	token := a.views.Activate(chatID, enums.ViewKindFeed)
	list := a.lists.Feed(chatID)
	result, err := a.feed.Load(token.Context(), list, page)
	if err != nil {
		if token.Context().Err() != nil {
			return
		}
		a.replyError(ctx, chatID, err)
		return
	}
	if !a.views.IsActive(chatID, token) {
		return
	}

	if len(result.Posts) == 0 {
		a.sendText(chatID, ui.MsgFeedEmpty)
		return
	}
	a.sendText(chatID, ui.RenderFeedHeader(result.Page, result.Pages, result.Total))
	a.sendPostCards(chatID, list.Posts(), sess.User.ID)
	if nav := ui.FeedNavigation(result.Page, result.Pages); len(nav[0]) > 0 {
		a.sendInline(chatID, fmt.Sprintf("Page %d of %d", result.Page, result.Pages), nav)
	}
}

func (a *App) sendPostCards(chatID int64, posts []model.Post, viewerID int64) {
	if limit := a.cfg.Feed.PageSize; limit > 0 && len(posts) > limit {
		posts = posts[:limit]
	}
	for _, post := range posts {
		text, rows := ui.RenderPost(post, viewerID)
		a.sendInline(chatID, text, rows)
	}
}

func (a *App) promptPost(ctx context.Context, chatID int64) {
	sess, ok := a.requireSession(ctx, chatID)
	if !ok {
		return
	}
	wait, err := a.limiter.RetryAfter(ctx, ratelimit.ActionPost, sess.User.ID)
	if err != nil {
		a.logger.Warn("rate limit peek", zap.Int64("chat_id", chatID), zap.Error(err))
	} else if wait > 0 {
		a.sendText(chatID, ui.SlowDownMessage(wait))
		return
	}
	a.views.Activate(chatID, enums.ViewKindCreate)
	a.setState(chatID, chatState{State: telegram.StateWaitingPostText})
	a.sendMenu(chatID, ui.MsgEnterPost, ui.CancelMenu())
}

func (a *App) handlePostCommand(ctx context.Context, message *tgbotapi.Message) {
	text := strings.TrimSpace(message.CommandArguments())
	if text == "" {
		a.promptPost(ctx, message.Chat.ID)
		return
	}
	a.handleTextPost(ctx, message.Chat.ID, text)
}

func (a *App) handleTextPost(ctx context.Context, chatID int64, text string) {
	sess, ok := a.requireSession(ctx, chatID)
	if !ok {
		return
	}
	a.submitPost(ctx, chatID, sess, model.Draft{Content: text})
}

func (a *App) handlePhotoPost(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	sess, ok := a.requireSession(ctx, chatID)
	if !ok {
		return
	}
	if !a.media.Enabled() {
		a.sendText(chatID, ui.MsgPhotosDisabled)
		return
	}

	// Telegram lists sizes from smallest to largest.
	photo := message.Photo[len(message.Photo)-1]
	imageURL, err := a.media.AttachTelegramPhoto(ctx, sess.User.ID, photo.FileID)
	if err != nil {
		a.logger.Warn("attach photo", zap.Int64("chat_id", chatID), zap.Error(err))
		a.sendText(chatID, userMessage(err))
		return
	}

	a.submitPost(ctx, chatID, sess, model.Draft{
		Content:  message.Caption,
		ImageURL: imageURL,
	})
}

// submitPost runs one submission. The backend call is not tied to the view,
// but the feed only gains the post if the chat is still on the create view.
func (a *App) submitPost(ctx context.Context, chatID int64, sess model.Session, draft model.Draft) {
	if a.suspensionPending(chatID) {
		a.sendText(chatID, ui.MsgAlertNeedsAck)
		return
	}
	token := a.views.Activate(chatID, enums.ViewKindCreate)

	if wait, allowed := a.throttle(ctx, ratelimit.ActionPost, sess.User.ID); !allowed {
		if err := a.drafts.Save(ctx, chatID, draft); err != nil {
			a.logger.Warn("save draft", zap.Int64("chat_id", chatID), zap.Error(err))
			a.sendText(chatID, ui.SlowDownMessage(wait))
			return
		}
		a.sendInline(chatID, ui.SlowDownMessage(wait), ui.RetryKeyboard())
		return
	}

	outcome, err := a.flow.Submit(context.WithoutCancel(ctx), sess, draft)
	if err != nil {
		var validationErr *submission.ValidationError
		if errors.As(err, &validationErr) {
			a.sendText(chatID, ui.MsgEmptyPost)
			return
		}
		if a.observe(ctx, chatID, err) {
			return
		}
		kept := true
		if saveErr := a.drafts.Save(ctx, chatID, draft); saveErr != nil {
			a.logger.Warn("save draft", zap.Int64("chat_id", chatID), zap.Error(saveErr))
			kept = false
		}
		reason := outcome.Reason
		if reason == "" {
			reason = userMessage(err)
		}
		if apihttp.IsTransient(err) {
			reason += "\n" + ui.MsgTemporaryFailure
		}
		if kept {
			a.sendInline(chatID, ui.FailureMessage(reason, true), ui.RetryKeyboard())
		} else {
			a.sendText(chatID, ui.FailureMessage(reason, false))
		}
		return
	}

	if err := a.drafts.Delete(ctx, chatID); err != nil {
		a.logger.Warn("drop draft", zap.Int64("chat_id", chatID), zap.Error(err))
	}

	if outcome.Published() && outcome.Post != nil {
		if a.views.IsActive(chatID, token) {
			a.lists.Feed(chatID).Prepend(*outcome.Post)
		}
		a.sendMainMenu(ctx, chatID, ui.PublishedMessage())
		text, rows := ui.RenderPost(*outcome.Post, sess.User.ID)
		a.sendInline(chatID, text, rows)
	}
	if outcome.Kind == submission.OutcomeRejected {
		a.sendMainMenu(ctx, chatID, ui.MsgPostRejected)
	}
	if outcome.Alert != nil {
		a.showAlert(chatID, *outcome.Alert)
	}
}

func (a *App) handleComment(ctx context.Context, chatID, postID int64, messageID int, text string) {
	sess, ok := a.requireSession(ctx, chatID)
	if !ok {
		return
	}
	if a.suspensionPending(chatID) {
		a.sendText(chatID, ui.MsgAlertNeedsAck)
		return
	}
	submitCtx := context.WithoutCancel(ctx)

	var (
		outcome submission.Outcome
		err     error
	)
	list := a.listFor(chatID, postID)
	if list != nil {
		outcome, err = a.feed.Comment(submitCtx, sess, list, postID, text)
	} else {
		outcome, err = a.flow.SubmitComment(submitCtx, sess, postID, text)
	}
	if err != nil {
		var validationErr *submission.ValidationError
		if errors.As(err, &validationErr) {
			a.sendText(chatID, ui.MsgEmptyComment)
			return
		}
		if a.observe(ctx, chatID, err) {
			return
		}
		reason := outcome.Reason
		if reason == "" {
			reason = userMessage(err)
		}
		a.sendMainMenu(ctx, chatID, ui.FailureMessage(reason, false))
		return
	}

	if outcome.Published() {
		a.sendMainMenu(ctx, chatID, ui.MsgCommentAdded)
		if list != nil && messageID != 0 {
			if post, found := list.Get(postID); found {
				a.editPost(chatID, messageID, post, sess.User.ID)
			}
		}
	} else {
		a.sendMainMenu(ctx, chatID, ui.MsgCommentRejected)
	}
	if outcome.Alert != nil {
		a.showAlert(chatID, *outcome.Alert)
	}
}

// suspensionPending reports whether an unacknowledged suspension alert blocks
// new content in the chat.
func (a *App) suspensionPending(chatID int64) bool {
	coordinator, ok := a.alerts.Lookup(chatID)
	if !ok {
		return false
	}
	state, current, _ := coordinator.State()
	return state == enums.AlertStateShowing && current != nil && current.Kind == enums.AlertKindSuspension
}

// showAlert replaces whatever alert the chat had with this one.
func (a *App) showAlert(chatID int64, alert model.ModerationAlert) {
	coordinator := a.alerts.For(chatID)
	showing := coordinator.Show(alert)
	text, rows := ui.RenderAlert(showing.Alert, showing.Seq, coordinator.Dismissible(showing.Alert.Kind))
	a.sendInline(chatID, text, rows)
	a.logger.Info("moderation alert shown",
		zap.Int64("chat_id", chatID),
		zap.String("kind", string(showing.Alert.Kind)),
		zap.Uint64("seq", showing.Seq),
	)
}
