// Package views tracks which screen a chat is looking at, so that work started
// for a screen the user already left can be dropped.
package views

import (
	"context"
	"sync"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/enums"
)

type Token struct {
	Kind enums.ViewKind
	seq  uint64
	ctx  context.Context
}

// Context is cancelled as soon as another view is activated in the same chat.
// Use it for read-only loads.
func (t Token) Context() context.Context {
	if t.ctx == nil {
		return context.Background()
	}
	return t.ctx
}

type chatView struct {
	token  Token
	cancel context.CancelFunc
}

type Tracker struct {
	parent context.Context

	mu     sync.Mutex
	lastID uint64
	byChat map[int64]chatView
}

func NewTracker(parent context.Context) *Tracker {
	if parent == nil {
		parent = context.Background()
	}
	return &Tracker{
		parent: parent,
		byChat: make(map[int64]chatView),
	}
}

// Activate switches the chat to a new view and cancels the previous one.
func (t *Tracker) Activate(chatID int64, kind enums.ViewKind) Token {
	ctx, cancel := context.WithCancel(t.parent)

	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.byChat[chatID]; ok {
		prev.cancel()
	}
	t.lastID++
	token := Token{Kind: kind, seq: t.lastID, ctx: ctx}
	t.byChat[chatID] = chatView{token: token, cancel: cancel}
	return token
}

func (t *Tracker) IsActive(chatID int64, token Token) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, ok := t.byChat[chatID]
	return ok && current.token.seq == token.seq && token.seq != 0
}

func (t *Tracker) Current(chatID int64) (Token, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	current, ok := t.byChat[chatID]
	return current.token, ok
}

// Drop cancels the chat's view and forgets it. Tokens issued earlier are no
// longer active.
func (t *Tracker) Drop(chatID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if view, ok := t.byChat[chatID]; ok {
		view.cancel()
		delete(t.byChat, chatID)
	}
}

func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byChat)
}

// Close cancels every tracked view.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for chatID, view := range t.byChat {
		view.cancel()
		delete(t.byChat, chatID)
	}
}
