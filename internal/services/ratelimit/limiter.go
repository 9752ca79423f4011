// Package ratelimit throttles per-user bot actions with fixed Redis windows.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
)

type Action string

const (
	ActionLike Action = "likes"
	ActionPost Action = "posts"
)

type WindowStore interface {
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	WindowState(ctx context.Context, key string) (int64, time.Duration, error)
}

type Window struct {
	Name  string
	Size  time.Duration
	Limit int
}

type Limiter struct {
	store   WindowStore
	windows map[Action][]Window
	logger  *zap.Logger
}

// NewLimiter returns a limiter that allows everything when store is nil.
func NewLimiter(store WindowStore, logger *zap.Logger) *Limiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Limiter{
		store:   store,
		windows: make(map[Action][]Window),
		logger:  logger,
	}
}

// With adds a window for action. Windows with a non-positive limit are ignored.
func (l *Limiter) With(action Action, window Window) *Limiter {
	if window.Limit > 0 && window.Size > 0 {
		l.windows[action] = append(l.windows[action], window)
	}
	return l
}

// Allow counts one attempt and reports how long the user has to wait when any
// window is exhausted. Store failures let the action through.
func (l *Limiter) Allow(ctx context.Context, action Action, userID int64) (time.Duration, bool, error) {
	if userID <= 0 {
		return 0, false, fmt.Errorf("invalid user id")
	}
	if l == nil || l.store == nil {
		return 0, true, nil
	}

	retryAfter := time.Duration(0)
	for _, window := range l.windows[action] {
		count, ttl, err := l.store.IncrementWindow(ctx, windowKey(action, window, userID), window.Size)
		if err != nil {
			l.logger.Warn("rate window unavailable, allowing action",
				zap.String("action", string(action)),
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
			return 0, true, nil
		}
		if count > int64(window.Limit) {
			retryAfter = maxDuration(retryAfter, ceilSeconds(ttl))
		}
	}

	if retryAfter > 0 {
		return retryAfter, false, nil
	}
	return 0, true, nil
}

// RetryAfter reports the wait without counting an attempt.
func (l *Limiter) RetryAfter(ctx context.Context, action Action, userID int64) (time.Duration, error) {
	if userID <= 0 {
		return 0, fmt.Errorf("invalid user id")
	}
	if l == nil || l.store == nil {
		return 0, nil
	}

	retryAfter := time.Duration(0)
	for _, window := range l.windows[action] {
		count, ttl, err := l.store.WindowState(ctx, windowKey(action, window, userID))
		if err != nil {
			return 0, err
		}
		if count >= int64(window.Limit) {
			retryAfter = maxDuration(retryAfter, ceilSeconds(ttl))
		}
	}
	return retryAfter, nil
}

func windowKey(action Action, window Window, userID int64) string {
	return string(action) + ":" + window.Name + ":" + strconv.FormatInt(userID, 10)
}

func ceilSeconds(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Second
	}
	if rem := d % time.Second; rem != 0 {
		d += time.Second - rem
	}
	return d
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
