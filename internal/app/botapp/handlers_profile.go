package botapp

import (
	"context"
	"strings"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/enums"
	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
	"github.com/ivankudzin/tgapp/feedbot/internal/ui"
)

func (a *App) handleProfile(ctx context.Context, chatID int64, args []string) {
	sess, ok := a.requireSession(ctx, chatID)
	if !ok {
		return
	}

	userID := sess.User.ID
	if len(args) > 0 {
		id, valid := parseUserID(args[0])
		if !valid {
			a.sendText(chatID, ui.MsgUserNotFound)
			return
		}
		userID = id
	}

	token := a.views.Activate(chatID, enums.ViewKindProfile)
	profile, err := a.profiles.Load(token.Context(), userID)
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

	a.lists.SetProfile(chatID, profile.Posts)
	own := userID == sess.User.ID
	a.sendText(chatID, ui.RenderProfile(profile.User, profile.Violations, profile.Posts.Len(), own))
	a.sendPostCards(chatID, profile.Posts.Posts(), sess.User.ID)
}

func (a *App) handleEditProfile(ctx context.Context, chatID int64, args []string) {
	sess, ok := a.requireSession(ctx, chatID)
	if !ok {
		return
	}
	if len(args) != 2 {
		a.sendText(chatID, ui.MsgEditProfileUsage)
		return
	}

	value := args[1]
	var update model.ProfileUpdate
	switch strings.ToLower(args[0]) {
	case "username":
		update.Username = &value
	case "email":
		update.Email = &value
	default:
		a.sendText(chatID, ui.MsgEditProfileUsage)
		return
	}

	updated, err := a.profiles.Update(ctx, sess, update)
	if err != nil {
		a.replyError(ctx, chatID, err)
		return
	}
	if err := a.sessions.Refresh(ctx, updated); err != nil {
		a.replyError(ctx, chatID, err)
		return
	}
	a.sendText(chatID, ui.MsgProfileUpdated)
}
