package alerts

import "sync"

// Registry hands out one Coordinator per chat.
type Registry struct {
	opts Options

	mu     sync.Mutex
	byChat map[int64]*Coordinator
}

func NewRegistry(opts Options) *Registry {
	return &Registry{
		opts:   opts,
		byChat: make(map[int64]*Coordinator),
	}
}

func (r *Registry) For(chatID int64) *Coordinator {
	r.mu.Lock()
	defer r.mu.Unlock()

	coordinator, ok := r.byChat[chatID]
	if !ok {
		coordinator = NewCoordinator(r.opts)
		r.byChat[chatID] = coordinator
	}
	return coordinator
}

// Lookup returns the chat's coordinator without creating one.
func (r *Registry) Lookup(chatID int64) (*Coordinator, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	coordinator, ok := r.byChat[chatID]
	return coordinator, ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byChat)
}

// Drop forgets the chat's coordinator together with any alert it was showing.
func (r *Registry) Drop(chatID int64) {
	r.mu.Lock()
	delete(r.byChat, chatID)
	r.mu.Unlock()
}
