package botapp

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/enums"
	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
	"github.com/ivankudzin/tgapp/feedbot/internal/infra/telegram"
	"github.com/ivankudzin/tgapp/feedbot/internal/repo/apihttp"
	"github.com/ivankudzin/tgapp/feedbot/internal/services/access"
	adminsvc "github.com/ivankudzin/tgapp/feedbot/internal/services/admin"
	feedsvc "github.com/ivankudzin/tgapp/feedbot/internal/services/feed"
	mediasvc "github.com/ivankudzin/tgapp/feedbot/internal/services/media"
	"github.com/ivankudzin/tgapp/feedbot/internal/services/profiles"
	"github.com/ivankudzin/tgapp/feedbot/internal/services/ratelimit"
	sessionsvc "github.com/ivankudzin/tgapp/feedbot/internal/services/session"
	"github.com/ivankudzin/tgapp/feedbot/internal/services/submission"
	"github.com/ivankudzin/tgapp/feedbot/internal/ui"
)

type chatState struct {
	State       telegram.State
	PostID      int64
	MessageID   int
	LexiconMode string
}

func (a *App) routeUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message != nil {
		a.routeMessage(ctx, update.Message)
	}

	if update.CallbackQuery != nil {
		a.handleCallback(ctx, update.CallbackQuery)
	}
}

func (a *App) routeMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.Chat == nil {
		return
	}

	// Any new message is an interaction outside the shown alert.
	if coordinator, ok := a.alerts.Lookup(message.Chat.ID); ok {
		coordinator.Dismiss()
	}

	if message.IsCommand() {
		a.clearState(message.Chat.ID)
		a.handleCommand(ctx, message)
		return
	}

	if a.handleMenuMessage(ctx, message) {
		return
	}
	if a.handlePendingInput(ctx, message) {
		return
	}
	if len(message.Photo) > 0 {
		a.handlePhotoPost(ctx, message)
		return
	}

	a.sendText(message.Chat.ID, ui.MsgUnknownCommand)
}

func (a *App) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	args := strings.Fields(message.CommandArguments())

	switch message.Command() {
	case "start", "help":
		a.handleStart(ctx, message)
	case "login":
		a.handleLogin(ctx, message, args)
	case "register":
		a.handleRegister(ctx, message, args)
	case "logout":
		a.handleLogout(ctx, message.Chat.ID)
	case "feed":
		a.handleFeed(ctx, message.Chat.ID, parsePage(args, 0))
	case "post":
		a.handlePostCommand(ctx, message)
	case "profile":
		a.handleProfile(ctx, message.Chat.ID, args)
	case "editprofile":
		a.handleEditProfile(ctx, message.Chat.ID, args)
	case "admin":
		a.handleDashboard(ctx, message.Chat.ID)
	case "users":
		a.handleUsers(ctx, message.Chat.ID)
	case "stats":
		a.handleStatistics(ctx, message.Chat.ID)
	case "violations":
		a.handleViolations(ctx, message.Chat.ID, args)
	case "warn":
		a.handleWarn(ctx, message.Chat.ID, args)
	case "suspend":
		a.handleSuspend(ctx, message.Chat.ID, args)
	case "unsuspend":
		a.handleUnsuspend(ctx, message.Chat.ID, args)
	case "lexicon":
		a.handleLexicon(ctx, message.Chat.ID, message.CommandArguments())
	case "history":
		a.handleHistory(ctx, message.Chat.ID)
	default:
		a.sendText(message.Chat.ID, ui.MsgUnknownCommand)
	}
}

func (a *App) handleMenuMessage(ctx context.Context, message *tgbotapi.Message) bool {
	chatID := message.Chat.ID
	switch strings.TrimSpace(message.Text) {
	case ui.ButtonFeed:
		a.clearState(chatID)
		a.handleFeed(ctx, chatID, 1)
	case ui.ButtonNewPost:
		a.promptPost(ctx, chatID)
	case ui.ButtonProfile:
		a.clearState(chatID)
		a.handleProfile(ctx, chatID, nil)
	case ui.ButtonLogout:
		a.handleLogout(ctx, chatID)
	case ui.ButtonAdmin:
		a.clearState(chatID)
		a.handleDashboard(ctx, chatID)
	case ui.ButtonHistory:
		a.clearState(chatID)
		a.handleHistory(ctx, chatID)
	case ui.ButtonCancel:
		a.clearState(chatID)
		a.sendMainMenu(ctx, chatID, ui.MsgCancelled)
	default:
		return false
	}
	return true
}

func (a *App) handlePendingInput(ctx context.Context, message *tgbotapi.Message) bool {
	chatID := message.Chat.ID
	state, ok := a.getState(chatID)
	if !ok {
		return false
	}

	switch state.State {
	case telegram.StateWaitingPostText:
		a.clearState(chatID)
		if len(message.Photo) > 0 {
			a.handlePhotoPost(ctx, message)
			return true
		}
		a.handleTextPost(ctx, chatID, message.Text)
		return true
	case telegram.StateWaitingCommentText:
		if strings.TrimSpace(message.Text) == "" {
			a.sendText(chatID, ui.MsgEmptyComment)
			return true
		}
		a.clearState(chatID)
		a.handleComment(ctx, chatID, state.PostID, state.MessageID, message.Text)
		return true
	case telegram.StateWaitingLexicon:
		a.clearState(chatID)
		a.updateLexicon(ctx, chatID, state.LexiconMode, message.Text)
		return true
	}
	return false
}

func (a *App) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	ackText := ""
	ackAlert := false
	defer func() {
		a.answerCallback(query.ID, ackText, ackAlert)
	}()

	chatID, ok := callbackChatID(query)
	if !ok {
		return
	}

	parts := strings.Split(query.Data, ":")
	if len(parts) < 2 {
		ackText = "Unknown action"
		return
	}

	switch parts[0] {
	case ui.CallbackPrefixPost:
		ackText, ackAlert = a.handlePostCallback(ctx, chatID, query, parts)
	case ui.CallbackPrefixAlert:
		ackText, ackAlert = a.handleAlertCallback(chatID, query, parts)
	case ui.CallbackPrefixFeed:
		if parts[1] != ui.ActionPage || len(parts) != 3 {
			ackText = "Unknown action"
			return
		}
		page, err := strconv.Atoi(parts[2])
		if err != nil || page < 1 {
			ackText = "Invalid page"
			return
		}
		a.handleFeed(ctx, chatID, page)
	default:
		ackText = "Unknown action"
	}
}

func (a *App) handlePostCallback(ctx context.Context, chatID int64, query *tgbotapi.CallbackQuery, parts []string) (string, bool) {
	sess, ok := a.requireSession(ctx, chatID)
	if !ok {
		return "", false
	}

	if parts[1] == ui.ActionRetry {
		draft, found, err := a.drafts.Get(ctx, chatID)
		if err != nil {
			a.logger.Warn("load draft", zap.Int64("chat_id", chatID), zap.Error(err))
			return ui.MsgTryAgain, false
		}
		if !found {
			return ui.MsgNoDraft, true
		}
		a.stripKeyboard(chatID, query.Message.MessageID)
		a.submitPost(ctx, chatID, sess, draft)
		return "", false
	}

	if len(parts) != 3 {
		return "Unknown action", false
	}
	postID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || postID <= 0 {
		return "Invalid post", false
	}

	if parts[1] == ui.ActionComment {
		a.setState(chatID, chatState{
			State:     telegram.StateWaitingCommentText,
			PostID:    postID,
			MessageID: query.Message.MessageID,
		})
		a.sendMenu(chatID, ui.MsgEnterComment, ui.CancelMenu())
		return "", false
	}

	list := a.listFor(chatID, postID)
	if list == nil {
		return ui.MsgPostUnavailable, true
	}
	messageID := query.Message.MessageID

	switch parts[1] {
	case ui.ActionLike, ui.ActionUnlike:
		if wait, allowed := a.throttle(ctx, ratelimit.ActionLike, sess.User.ID); !allowed {
			return ui.SlowDownMessage(wait), true
		}
		toggle := a.feed.Like
		if parts[1] == ui.ActionUnlike {
			toggle = a.feed.Unlike
		}
		post, err := toggle(ctx, sess, list, postID)
		if err != nil {
			if current, found := list.Get(postID); found {
				a.editPost(chatID, messageID, current, sess.User.ID)
			}
			return a.callbackError(ctx, chatID, err), false
		}
		a.editPost(chatID, messageID, post, sess.User.ID)
		return "", false
	case ui.ActionDelete:
		if err := a.feed.Delete(ctx, sess, list, postID); err != nil {
			return a.callbackError(ctx, chatID, err), false
		}
		edit := tgbotapi.NewEditMessageText(chatID, messageID, ui.MsgPostDeleted)
		if err := a.bot.Request(edit); err != nil {
			a.logger.Warn("edit deleted post", zap.Int64("chat_id", chatID), zap.Error(err))
		}
		return ui.MsgPostDeleted, false
	default:
		return "Unknown action", false
	}
}

func (a *App) handleAlertCallback(chatID int64, query *tgbotapi.CallbackQuery, parts []string) (string, bool) {
	if len(parts) != 3 {
		return "Unknown action", false
	}
	seq, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return "Unknown action", false
	}
	coordinator := a.alerts.For(chatID)

	switch parts[1] {
	case ui.ActionAck:
		_, current, _ := coordinator.State()
		a.stripKeyboard(chatID, query.Message.MessageID)
		// A stale acknowledgment leaves the current alert in place.
		if current != nil && coordinator.AcknowledgeSeq(seq) {
			return ui.AlertAcknowledgedMessage(current.Kind), false
		}
		return "", false
	case ui.ActionClose:
		_, current, currentSeq := coordinator.State()
		if current != nil && currentSeq == seq && !coordinator.Dismissible(current.Kind) {
			return ui.MsgAlertNeedsAck, true
		}
		coordinator.DismissSeq(seq)
		a.stripKeyboard(chatID, query.Message.MessageID)
		return "", false
	default:
		return "Unknown action", false
	}
}

// listFor picks the list the post card was rendered from, preferring the view
// the chat is on.
func (a *App) listFor(chatID, postID int64) *feedsvc.List {
	candidates := []*feedsvc.List{a.lists.Feed(chatID), a.lists.Profile(chatID)}
	if token, ok := a.views.Current(chatID); ok && token.Kind == enums.ViewKindProfile {
		candidates[0], candidates[1] = candidates[1], candidates[0]
	}
	for _, list := range candidates {
		if _, ok := list.Get(postID); ok {
			return list
		}
	}
	return nil
}

// throttle lets the action through when the limiter itself fails.
func (a *App) throttle(ctx context.Context, action ratelimit.Action, userID int64) (time.Duration, bool) {
	wait, allowed, err := a.limiter.Allow(ctx, action, userID)
	if err != nil {
		a.logger.Warn("rate limit check", zap.String("action", string(action)), zap.Error(err))
		return 0, true
	}
	return wait, allowed
}

func (a *App) requireSession(ctx context.Context, chatID int64) (model.Session, bool) {
	sess, err := a.sessions.Current(ctx, chatID)
	if err != nil {
		if !errors.Is(err, sessionsvc.ErrNoSession) {
			a.logger.Warn("load session", zap.Int64("chat_id", chatID), zap.Error(err))
		}
		a.sendMenu(chatID, ui.MsgNeedLogin, nil)
		return model.Session{}, false
	}
	return sess, true
}

// replyError reports err to the chat. A suspension refusal ends the session first.
func (a *App) replyError(ctx context.Context, chatID int64, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	if a.observe(ctx, chatID, err) {
		return
	}
	a.sendText(chatID, userMessage(err))
}

func (a *App) callbackError(ctx context.Context, chatID int64, err error) string {
	if a.observe(ctx, chatID, err) {
		return ui.MsgAccountSuspended
	}
	return userMessage(err)
}

func (a *App) observe(ctx context.Context, chatID int64, err error) bool {
	if !errors.Is(a.sessions.Observe(ctx, chatID, err), sessionsvc.ErrSuspended) {
		return false
	}
	a.forgetChat(chatID)
	a.sendMenu(chatID, ui.MsgSessionSuspended, nil)
	return true
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, sessionsvc.ErrNoSession):
		return ui.MsgNeedLogin
	case errors.Is(err, sessionsvc.ErrInvalidCredentials):
		return ui.MsgInvalidLogin
	case errors.Is(err, sessionsvc.ErrSuspended):
		return ui.MsgAccountSuspended
	case errors.Is(err, access.ErrForbidden):
		return ui.MsgNoAccess
	case errors.Is(err, profiles.ErrNotFound):
		return ui.MsgUserNotFound
	case errors.Is(err, feedsvc.ErrNotFound):
		return ui.MsgPostUnavailable
	case errors.Is(err, submission.ErrEmptyContent):
		return ui.MsgEmptyPost
	case errors.Is(err, mediasvc.ErrDisabled):
		return ui.MsgPhotosDisabled
	case errors.Is(err, mediasvc.ErrTooLarge):
		return ui.MsgPhotoTooLarge
	case errors.Is(err, sessionsvc.ErrValidation),
		errors.Is(err, profiles.ErrValidation),
		errors.Is(err, adminsvc.ErrValidation):
		return validationText(err)
	}
	if message := apihttp.ErrorMessage(err); message != "" {
		return message
	}
	return ui.MsgTryAgain
}

// validationText drops the sentinel prefix of "validation error: <detail>".
func validationText(err error) string {
	text := err.Error()
	if idx := strings.LastIndex(text, "validation error: "); idx >= 0 {
		text = text[idx+len("validation error: "):]
	}
	if strings.TrimSpace(text) == "" || text == "validation error" {
		return ui.MsgTryAgain
	}
	return strings.ToUpper(text[:1]) + text[1:]
}

func (a *App) sendMainMenu(ctx context.Context, chatID int64, text string) {
	sess, err := a.sessions.Current(ctx, chatID)
	if err != nil {
		a.sendMenu(chatID, text, nil)
		return
	}
	a.sendMenu(chatID, text, ui.MainMenu(true, a.admin.IsAdmin(sess)))
}

// sendMenu replaces the reply keyboard; nil rows remove it.
func (a *App) sendMenu(chatID int64, text string, rows [][]string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if len(rows) == 0 {
		msg.ReplyMarkup = telegram.RemoveKeyboard()
	} else {
		msg.ReplyMarkup = telegram.BuildReplyKeyboard(rows)
	}
	if _, err := a.bot.Send(msg); err != nil {
		a.logger.Error("send menu", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (a *App) sendInline(chatID int64, text string, rows [][]telegram.InlineButton) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = telegram.BuildInlineKeyboard(rows)
	if _, err := a.bot.Send(msg); err != nil {
		a.logger.Error("send inline message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (a *App) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := a.bot.Send(msg); err != nil {
		a.logger.Error("send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (a *App) editPost(chatID int64, messageID int, post model.Post, viewerID int64) {
	text, rows := ui.RenderPost(post, viewerID)
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, telegram.BuildInlineKeyboard(rows))
	if err := a.bot.Request(edit); err != nil {
		a.logger.Warn("edit post card", zap.Int64("chat_id", chatID), zap.Int64("post_id", post.ID), zap.Error(err))
	}
}

func (a *App) stripKeyboard(chatID int64, messageID int) {
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, telegram.EmptyInlineKeyboard())
	if err := a.bot.Request(edit); err != nil {
		a.logger.Warn("strip inline keyboard", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (a *App) deleteMessage(chatID int64, messageID int) {
	if err := a.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		a.logger.Debug("delete message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (a *App) answerCallback(callbackID, text string, alert bool) {
	cfg := tgbotapi.NewCallback(callbackID, text)
	cfg.ShowAlert = alert
	if err := a.bot.Request(cfg); err != nil {
		a.logger.Warn("answer callback", zap.Error(err))
	}
}

func callbackChatID(query *tgbotapi.CallbackQuery) (int64, bool) {
	if query == nil || query.Message == nil || query.Message.Chat == nil {
		return 0, false
	}
	return query.Message.Chat.ID, true
}

// forgetChat drops everything held in memory for a chat whose session ended.
func (a *App) forgetChat(chatID int64) {
	a.clearState(chatID)
	a.views.Drop(chatID)
	a.lists.Drop(chatID)
	a.alerts.Drop(chatID)
}

func (a *App) getState(chatID int64) (chatState, bool) {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	state, ok := a.stateByChat[chatID]
	return state, ok
}

func (a *App) setState(chatID int64, state chatState) {
	a.stateMu.Lock()
	a.stateByChat[chatID] = state
	a.stateMu.Unlock()
}

func (a *App) clearState(chatID int64) {
	a.stateMu.Lock()
	delete(a.stateByChat, chatID)
	a.stateMu.Unlock()
}

// parsePage reads a 1-based page number from args[idx], defaulting to 1.
func parsePage(args []string, idx int) int {
	if idx >= len(args) {
		return 1
	}
	page, err := strconv.Atoi(args[idx])
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func parseUserID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
