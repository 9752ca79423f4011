package feed

import "sync"

// Lists keeps one feed list and one profile list per chat.
type Lists struct {
	mu       sync.Mutex
	feeds    map[int64]*List
	profiles map[int64]*List
}

func NewLists() *Lists {
	return &Lists{
		feeds:    make(map[int64]*List),
		profiles: make(map[int64]*List),
	}
}

func (l *Lists) Feed(chatID int64) *List {
	return l.get(l.feeds, chatID)
}

func (l *Lists) Profile(chatID int64) *List {
	return l.get(l.profiles, chatID)
}

// SetProfile installs the list of a freshly loaded profile.
func (l *Lists) SetProfile(chatID int64, list *List) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.profiles[chatID] = list
}

func (l *Lists) get(byChat map[int64]*List, chatID int64) *List {
	l.mu.Lock()
	defer l.mu.Unlock()

	list, ok := byChat[chatID]
	if !ok {
		list = NewList()
		byChat[chatID] = list
	}
	return list
}

// Drop forgets both lists of a chat.
func (l *Lists) Drop(chatID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.feeds, chatID)
	delete(l.profiles, chatID)
}

func (l *Lists) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.feeds) + len(l.profiles)
}
