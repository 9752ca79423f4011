package session

import (
	"context"
	"sync"
	"time"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
)

// MemoryStore keeps sessions in process memory. It is used when Redis is not
// configured and in tests.
type MemoryStore struct {
	mu    sync.Mutex
	items map[int64]memoryEntry
	now   func() time.Time
}

type memoryEntry struct {
	session   model.Session
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[int64]memoryEntry),
		now:   time.Now,
	}
}

func (s *MemoryStore) Save(_ context.Context, session model.Session, ttl time.Duration) error {
	if !session.Valid() {
		return ErrValidation
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryEntry{session: session}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.items[session.ChatID] = entry
	return nil
}

func (s *MemoryStore) Get(_ context.Context, chatID int64) (model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.items[chatID]
	if !ok {
		return model.Session{}, ErrNoSession
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		delete(s.items, chatID)
		return model.Session{}, ErrNoSession
	}
	return entry.session, nil
}

func (s *MemoryStore) Delete(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, chatID)
	return nil
}
