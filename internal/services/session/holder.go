// Package session keeps the logged-in identity of each chat. Sessions are
// handed out as values and passed explicitly to the services that need them.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
	"github.com/ivankudzin/tgapp/feedbot/internal/repo/apihttp"
)

type Store interface {
	Save(ctx context.Context, session model.Session, ttl time.Duration) error
	Get(ctx context.Context, chatID int64) (model.Session, error)
	Delete(ctx context.Context, chatID int64) error
}

type AuthAPI interface {
	Login(ctx context.Context, username, password string) (model.User, error)
	Register(ctx context.Context, username, email, password string) (model.User, error)
	Logout(ctx context.Context) error
}

type Holder struct {
	auth   AuthAPI
	store  Store
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

func NewHolder(auth AuthAPI, store Store, ttl time.Duration, logger *zap.Logger) *Holder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Holder{
		auth:   auth,
		store:  store,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

func (h *Holder) Login(ctx context.Context, chatID, telegramID int64, username, password string) (model.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return model.Session{}, fmt.Errorf("%w: username and password are required", ErrValidation)
	}

	user, err := h.auth.Login(apihttp.WithActorTGID(ctx, telegramID), username, password)
	if err != nil {
		return model.Session{}, mapAuthError("login", err)
	}
	if user.IsSuspended {
		return model.Session{}, ErrSuspended
	}

	return h.start(ctx, chatID, telegramID, user)
}

func (h *Holder) Register(ctx context.Context, chatID, telegramID int64, username, email, password string) (model.Session, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || password == "" {
		return model.Session{}, fmt.Errorf("%w: username and password are required", ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return model.Session{}, fmt.Errorf("%w: invalid email", ErrValidation)
	}

	user, err := h.auth.Register(apihttp.WithActorTGID(ctx, telegramID), username, email, password)
	if err != nil {
		return model.Session{}, mapAuthError("register", err)
	}

	return h.start(ctx, chatID, telegramID, user)
}

// Logout ends the chat session. The backend call is best effort; the local
// session is removed either way.
func (h *Holder) Logout(ctx context.Context, chatID int64) error {
	if err := h.auth.Logout(ctx); err != nil {
		h.logger.Warn("backend logout failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	if err := h.store.Delete(ctx, chatID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (h *Holder) Current(ctx context.Context, chatID int64) (model.Session, error) {
	sess, err := h.store.Get(ctx, chatID)
	if err != nil {
		return model.Session{}, err
	}
	if !sess.Valid() {
		return model.Session{}, ErrNoSession
	}
	return sess, nil
}

// Refresh stores updated user fields for an existing session.
func (h *Holder) Refresh(ctx context.Context, sess model.Session) error {
	if !sess.Valid() {
		return ErrNoSession
	}
	return h.store.Save(ctx, sess, h.ttl)
}

// Observe inspects the error of an authenticated request. A suspended-account
// refusal ends the session and yields ErrSuspended; any other error is ignored.
// This is the only path on which a suspension invalidates a session.
func (h *Holder) Observe(ctx context.Context, chatID int64, err error) error {
	if err == nil || !apihttp.IsSuspended(err) {
		return nil
	}
	if deleteErr := h.store.Delete(ctx, chatID); deleteErr != nil {
		h.logger.Warn("drop suspended session failed", zap.Int64("chat_id", chatID), zap.Error(deleteErr))
	}
	h.logger.Info("session ended after suspension", zap.Int64("chat_id", chatID))
	return ErrSuspended
}

func (h *Holder) start(ctx context.Context, chatID, telegramID int64, user model.User) (model.Session, error) {
	sess := model.Session{
		ChatID:     chatID,
		TelegramID: telegramID,
		User:       user,
		StartedAt:  h.now().UTC(),
	}
	if !sess.Valid() {
		return model.Session{}, fmt.Errorf("%w: backend returned no user", ErrValidation)
	}
	if err := h.store.Save(ctx, sess, h.ttl); err != nil {
		return model.Session{}, fmt.Errorf("save session: %w", err)
	}
	h.logger.Info("session started",
		zap.Int64("chat_id", chatID),
		zap.Int64("user_id", user.ID),
	)
	return sess, nil
}

func mapAuthError(op string, err error) error {
	switch apihttp.StatusCode(err) {
	case http.StatusUnauthorized:
		return ErrInvalidCredentials
	case http.StatusForbidden:
		return ErrSuspended
	case http.StatusBadRequest, http.StatusConflict:
		message := apihttp.ErrorMessage(err)
		if message == "" {
			message = op + " rejected"
		}
		return fmt.Errorf("%w: %s", ErrValidation, message)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// IsUserFacing reports whether err carries a message safe to show to the user.
func IsUserFacing(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrSuspended) || errors.Is(err, ErrNoSession)
}
