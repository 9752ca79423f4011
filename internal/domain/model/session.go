package model

import "time"

// Session is the identity of a logged-in chat. It is passed explicitly to the
// services that act on behalf of the user.
type Session struct {
	ChatID     int64     `json:"chat_id"`
	TelegramID int64     `json:"telegram_id"`
	User       User      `json:"user"`
	StartedAt  time.Time `json:"started_at"`
}

func (s Session) Valid() bool {
	return s.ChatID != 0 && s.User.ID > 0
}
