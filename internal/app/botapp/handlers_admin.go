package botapp

import (
	"context"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/enums"
	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
	"github.com/ivankudzin/tgapp/feedbot/internal/infra/telegram"
	adminsvc "github.com/ivankudzin/tgapp/feedbot/internal/services/admin"
	"github.com/ivankudzin/tgapp/feedbot/internal/ui"
)

const historyLimit = 20

// adminSession resolves the session and activates the admin view. Rights are
// checked by the admin service on every call.
func (a *App) adminSession(ctx context.Context, chatID int64) (model.Session, context.Context, bool) {
	sess, ok := a.requireSession(ctx, chatID)
	if !ok {
		return model.Session{}, nil, false
	}
	if !a.admin.IsAdmin(sess) {
		a.sendText(chatID, ui.MsgNoAccess)
		return model.Session{}, nil, false
	}
	token := a.views.Activate(chatID, enums.ViewKindAdmin)
	return sess, token.Context(), true
}

func (a *App) handleDashboard(ctx context.Context, chatID int64) {
	sess, viewCtx, ok := a.adminSession(ctx, chatID)
	if !ok {
		return
	}
	dashboard, err := a.admin.Dashboard(viewCtx, sess)
	if err != nil {
		a.adminError(ctx, viewCtx, chatID, err)
		return
	}
	a.sendText(chatID, ui.RenderDashboard(dashboard))
}

func (a *App) handleUsers(ctx context.Context, chatID int64) {
	sess, viewCtx, ok := a.adminSession(ctx, chatID)
	if !ok {
		return
	}
	users, err := a.admin.Users(viewCtx, sess)
	if err != nil {
		a.adminError(ctx, viewCtx, chatID, err)
		return
	}
	a.sendText(chatID, ui.RenderUsers(users))
}

func (a *App) handleStatistics(ctx context.Context, chatID int64) {
	sess, viewCtx, ok := a.adminSession(ctx, chatID)
	if !ok {
		return
	}
	stats, err := a.admin.Statistics(viewCtx, sess)
	if err != nil {
		a.adminError(ctx, viewCtx, chatID, err)
		return
	}
	a.sendText(chatID, ui.RenderStatistics(stats))
}

func (a *App) handleViolations(ctx context.Context, chatID int64, args []string) {
	sess, viewCtx, ok := a.adminSession(ctx, chatID)
	if !ok {
		return
	}
	page := parsePage(args, 0)
	category := ""
	if len(args) > 1 {
		category = args[1]
	}
	result, err := a.admin.Violations(viewCtx, sess, page, category)
	if err != nil {
		a.adminError(ctx, viewCtx, chatID, err)
		return
	}
	a.sendText(chatID, ui.RenderViolations(result, category))
}

func (a *App) handleWarn(ctx context.Context, chatID int64, args []string) {
	a.moderate(ctx, chatID, args, ui.MsgWarnUsage, func(sess model.Session, userID int64, reason string) (model.ModerationActionResult, error) {
		return a.admin.Warn(ctx, sess, userID, reason)
	})
}

func (a *App) handleSuspend(ctx context.Context, chatID int64, args []string) {
	a.moderate(ctx, chatID, args, ui.MsgSuspendUsage, func(sess model.Session, userID int64, reason string) (model.ModerationActionResult, error) {
		return a.admin.Suspend(ctx, sess, userID, reason, "")
	})
}

func (a *App) handleUnsuspend(ctx context.Context, chatID int64, args []string) {
	a.moderate(ctx, chatID, args, ui.MsgUnsuspendUsage, func(sess model.Session, userID int64, _ string) (model.ModerationActionResult, error) {
		return a.admin.Unsuspend(ctx, sess, userID)
	})
}

func (a *App) moderate(
	ctx context.Context,
	chatID int64,
	args []string,
	usage string,
	action func(sess model.Session, userID int64, reason string) (model.ModerationActionResult, error),
) {
	sess, ok := a.requireSession(ctx, chatID)
	if !ok {
		return
	}
	if len(args) == 0 {
		a.sendText(chatID, usage)
		return
	}
	userID, valid := parseUserID(args[0])
	if !valid {
		a.sendText(chatID, usage)
		return
	}

	result, err := action(sess, userID, strings.Join(args[1:], " "))
	if err != nil {
		a.replyError(ctx, chatID, err)
		return
	}
	a.sendText(chatID, ui.RenderModerationResult(result))
}

func (a *App) handleLexicon(ctx context.Context, chatID int64, rawArgs string) {
	sess, ok := a.requireSession(ctx, chatID)
	if !ok {
		return
	}

	sub, rest := splitFirstWord(rawArgs)

	switch strings.ToLower(sub) {
	case "stats":
		stats, err := a.admin.LexiconStats(ctx, sess)
		if err != nil {
			a.replyError(ctx, chatID, err)
			return
		}
		a.sendText(chatID, ui.RenderLexicon(stats))
	case "reload":
		stats, err := a.admin.ReloadLexicon(ctx, sess, rest)
		if err != nil {
			a.replyError(ctx, chatID, err)
			return
		}
		a.sendText(chatID, ui.RenderLexicon(stats))
	case adminsvc.LexiconModeAppend, adminsvc.LexiconModeReplace:
		if rest == "" {
			if !a.admin.IsAdmin(sess) {
				a.sendText(chatID, ui.MsgNoAccess)
				return
			}
			a.setState(chatID, chatState{State: telegram.StateWaitingLexicon, LexiconMode: strings.ToLower(sub)})
			a.sendMenu(chatID, ui.MsgEnterLexicon, ui.CancelMenu())
			return
		}
		a.updateLexicon(ctx, chatID, strings.ToLower(sub), rest)
	default:
		a.sendText(chatID, ui.MsgLexiconUsage)
	}
}

func (a *App) updateLexicon(ctx context.Context, chatID int64, mode, content string) {
	sess, ok := a.requireSession(ctx, chatID)
	if !ok {
		return
	}
	stats, err := a.admin.UpdateLexicon(ctx, sess, content, mode, "")
	if err != nil {
		a.replyError(ctx, chatID, err)
		return
	}
	a.sendMainMenu(ctx, chatID, ui.RenderLexicon(stats))
}

func (a *App) handleHistory(ctx context.Context, chatID int64) {
	sess, ok := a.requireSession(ctx, chatID)
	if !ok {
		return
	}
	items, err := a.admin.History(ctx, sess, historyLimit)
	if err != nil {
		a.replyError(ctx, chatID, err)
		return
	}
	a.sendText(chatID, ui.RenderHistory(items))
}

// splitFirstWord keeps the line breaks of the remainder, which lexicon content relies on.
func splitFirstWord(raw string) (string, string) {
	raw = strings.TrimSpace(raw)
	idx := strings.IndexFunc(raw, unicode.IsSpace)
	if idx < 0 {
		return raw, ""
	}
	return raw[:idx], strings.TrimSpace(raw[idx:])
}

func (a *App) adminError(ctx, viewCtx context.Context, chatID int64, err error) {
	if viewCtx.Err() != nil {
		a.logger.Debug("admin view left before load finished", zap.Int64("chat_id", chatID))
		return
	}
	a.replyError(ctx, chatID, err)
}
