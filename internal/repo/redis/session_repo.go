package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
	sessionsvc "github.com/ivankudzin/tgapp/feedbot/internal/services/session"
)

const sessionPrefix = keyPrefix + "session:"

type SessionRepo struct {
	client *goredis.Client
}

func NewSessionRepo(client *goredis.Client) *SessionRepo {
	return &SessionRepo{client: client}
}

func (r *SessionRepo) Save(ctx context.Context, session model.Session, ttl time.Duration) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if !session.Valid() {
		return sessionsvc.ErrValidation
	}

	fields := map[string]interface{}{
		"chat_id":       session.ChatID,
		"telegram_id":   session.TelegramID,
		"user_id":       session.User.ID,
		"username":      session.User.Username,
		"email":         session.User.Email,
		"is_admin":      strconv.FormatBool(session.User.IsAdmin),
		"is_suspended":  strconv.FormatBool(session.User.IsSuspended),
		"warning_count": session.User.WarningCount,
		"started_at":    session.StartedAt.Unix(),
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, sessionKey(session.ChatID))
	pipe.HSet(ctx, sessionKey(session.ChatID), fields)
	pipe.Expire(ctx, sessionKey(session.ChatID), ttlOrDefault(ttl))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save redis session: %w", err)
	}

	return nil
}

func (r *SessionRepo) Get(ctx context.Context, chatID int64) (model.Session, error) {
	if r.client == nil {
		return model.Session{}, fmt.Errorf("redis client is nil")
	}

	values, err := r.client.HGetAll(ctx, sessionKey(chatID)).Result()
	if err != nil {
		return model.Session{}, fmt.Errorf("get session hash: %w", err)
	}
	if len(values) == 0 {
		return model.Session{}, sessionsvc.ErrNoSession
	}

	return parseSession(values)
}

func (r *SessionRepo) Delete(ctx context.Context, chatID int64) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, sessionKey(chatID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func parseSession(values map[string]string) (model.Session, error) {
	chatID, err := strconv.ParseInt(values["chat_id"], 10, 64)
	if err != nil || chatID == 0 {
		return model.Session{}, sessionsvc.ErrNoSession
	}
	userID, err := strconv.ParseInt(values["user_id"], 10, 64)
	if err != nil || userID <= 0 {
		return model.Session{}, sessionsvc.ErrNoSession
	}

	telegramID, _ := strconv.ParseInt(values["telegram_id"], 10, 64)
	warningCount, _ := strconv.Atoi(values["warning_count"])
	isAdmin, _ := strconv.ParseBool(values["is_admin"])
	isSuspended, _ := strconv.ParseBool(values["is_suspended"])
	startedUnix, _ := strconv.ParseInt(values["started_at"], 10, 64)

	return model.Session{
		ChatID:     chatID,
		TelegramID: telegramID,
		User: model.User{
			ID:           userID,
			Username:     values["username"],
			Email:        values["email"],
			IsAdmin:      isAdmin,
			IsSuspended:  isSuspended,
			WarningCount: warningCount,
		},
		StartedAt: time.Unix(startedUnix, 0).UTC(),
	}, nil
}

func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 24 * time.Hour
	}
	return ttl
}

func sessionKey(chatID int64) string {
	return sessionPrefix + strconv.FormatInt(chatID, 10)
}
