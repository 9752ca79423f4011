package botapp

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	sessionsvc "github.com/ivankudzin/tgapp/feedbot/internal/services/session"
	"github.com/ivankudzin/tgapp/feedbot/internal/ui"
)

func (a *App) handleStart(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	sess, err := a.sessions.Current(ctx, chatID)
	if err != nil {
		a.sendMenu(chatID, ui.StartMessage("", false), nil)
		return
	}
	isAdmin := a.admin.IsAdmin(sess)
	a.sendMenu(chatID, ui.StartMessage(sess.User.Username, isAdmin), ui.MainMenu(true, isAdmin))
}

func (a *App) handleLogin(ctx context.Context, message *tgbotapi.Message, args []string) {
	chatID := message.Chat.ID
	// The message carries a password.
	a.deleteMessage(chatID, message.MessageID)

	if len(args) != 2 {
		a.sendText(chatID, ui.MsgLoginUsage)
		return
	}

	sess, err := a.sessions.Login(ctx, chatID, senderID(message), args[0], args[1])
	if err != nil {
		a.logAuthFailure("login", chatID, err)
		a.sendText(chatID, userMessage(err))
		return
	}

	isAdmin := a.admin.IsAdmin(sess)
	a.sendMenu(chatID, ui.StartMessage(sess.User.Username, isAdmin), ui.MainMenu(true, isAdmin))
}

func (a *App) handleRegister(ctx context.Context, message *tgbotapi.Message, args []string) {
	chatID := message.Chat.ID
	a.deleteMessage(chatID, message.MessageID)

	if len(args) != 3 {
		a.sendText(chatID, ui.MsgRegisterUsage)
		return
	}

	sess, err := a.sessions.Register(ctx, chatID, senderID(message), args[0], args[1], args[2])
	if err != nil {
		a.logAuthFailure("register", chatID, err)
		a.sendText(chatID, userMessage(err))
		return
	}

	isAdmin := a.admin.IsAdmin(sess)
	a.sendMenu(chatID, ui.StartMessage(sess.User.Username, isAdmin), ui.MainMenu(true, isAdmin))
}

func (a *App) handleLogout(ctx context.Context, chatID int64) {
	a.clearState(chatID)
	if err := a.sessions.Logout(ctx, chatID); err != nil {
		a.logger.Error("logout", zap.Int64("chat_id", chatID), zap.Error(err))
		a.sendText(chatID, ui.MsgTryAgain)
		return
	}
	if err := a.drafts.Delete(ctx, chatID); err != nil {
		a.logger.Warn("drop draft on logout", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	a.forgetChat(chatID)
	a.sendMenu(chatID, ui.MsgLoggedOut, nil)
}

// logAuthFailure keeps rejected credentials at info and everything else at warn.
func (a *App) logAuthFailure(op string, chatID int64, err error) {
	if sessionsvc.IsUserFacing(err) {
		a.logger.Info(op+" rejected", zap.Int64("chat_id", chatID), zap.Error(err))
		return
	}
	a.logger.Warn(op+" failed", zap.Int64("chat_id", chatID), zap.Error(err))
}

func senderID(message *tgbotapi.Message) int64 {
	if message.From != nil {
		return message.From.ID
	}
	return message.Chat.ID
}
