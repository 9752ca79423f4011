package botapp

import (
	"context"
	"sync"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
)

// memoryDrafts is used when Redis is unavailable. Drafts do not survive a restart.
type memoryDrafts struct {
	mu     sync.Mutex
	byChat map[int64]model.Draft
}

func newMemoryDrafts() *memoryDrafts {
	return &memoryDrafts{byChat: make(map[int64]model.Draft)}
}

func (d *memoryDrafts) Save(_ context.Context, chatID int64, draft model.Draft) error {
	d.mu.Lock()
	d.byChat[chatID] = draft
	d.mu.Unlock()
	return nil
}

func (d *memoryDrafts) Get(_ context.Context, chatID int64) (model.Draft, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	draft, ok := d.byChat[chatID]
	return draft, ok, nil
}

func (d *memoryDrafts) Delete(_ context.Context, chatID int64) error {
	d.mu.Lock()
	delete(d.byChat, chatID)
	d.mu.Unlock()
	return nil
}
