package feed

import (
	"errors"
	"sync"
	"time"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/enums"
	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
)

var (
	ErrNotFound        = errors.New("post not found")
	ErrUnknownMutation = errors.New("unknown mutation")
)

type MutationKind string

const (
	MutationLike    MutationKind = "like"
	MutationUnlike  MutationKind = "unlike"
	MutationComment MutationKind = "comment"
)

// Mutation is a local change applied ahead of the server's answer. It is
// undone by its delta, so interleaved mutations on one post stay consistent.
type Mutation struct {
	ID         uint64
	Kind       MutationKind
	PostID     int64
	LikesDelta int
	CommentID  int64
}

// Confirmation carries what the server answered for a mutation, when anything.
type Confirmation struct {
	LikesCount *int
	Comment    *model.Comment
}

// List is an in-memory, most-recent-first list of posts shown in a chat.
type List struct {
	mu         sync.Mutex
	posts      []model.Post
	pending    map[uint64]Mutation
	lastID     uint64
	lastTempID int64
	page       int
	pages      int
}

func NewList() *List {
	return &List{pending: make(map[uint64]Mutation)}
}

func (l *List) Posts() []model.Post {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]model.Post, 0, len(l.posts))
	for _, post := range l.posts {
		out = append(out, clonePost(post))
	}
	return out
}

func (l *List) Get(postID int64) (model.Post, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexOf(postID)
	if idx < 0 {
		return model.Post{}, false
	}
	return clonePost(l.posts[idx]), true
}

func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.posts)
}

// Page returns the page and page count of the last loaded page.
func (l *List) Page() (int, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.page, l.pages
}

func (l *List) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Prepend puts a freshly published post at the head of the list. A post that is
// already listed moves to the head instead of being duplicated.
func (l *List) Prepend(post model.Post) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if idx := l.indexOf(post.ID); idx >= 0 {
		l.posts = append(l.posts[:idx], l.posts[idx+1:]...)
	}
	post.State = enums.ItemStateConfirmed
	l.posts = append([]model.Post{clonePost(post)}, l.posts...)
}

// Replace swaps the content for a loaded page. Pending mutations are dropped
// since their posts came back from the server in their current state.
func (l *List) Replace(page model.FeedPage) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.posts = make([]model.Post, 0, len(page.Posts))
	for _, post := range page.Posts {
		post.State = enums.ItemStateConfirmed
		l.posts = append(l.posts, clonePost(post))
	}
	l.pending = make(map[uint64]Mutation)
	l.page = page.Page
	l.pages = page.Pages
}

func (l *List) Remove(postID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexOf(postID)
	if idx < 0 {
		return false
	}
	l.posts = append(l.posts[:idx], l.posts[idx+1:]...)
	for id, m := range l.pending {
		if m.PostID == postID {
			delete(l.pending, id)
		}
	}
	return true
}

func (l *List) Like(postID int64) (Mutation, error) {
	return l.toggleLike(postID, MutationLike)
}

func (l *List) Unlike(postID int64) (Mutation, error) {
	return l.toggleLike(postID, MutationUnlike)
}

func (l *List) toggleLike(postID int64, kind MutationKind) (Mutation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexOf(postID)
	if idx < 0 {
		return Mutation{}, ErrNotFound
	}

	delta := 1
	liked := true
	if kind == MutationUnlike {
		delta = -1
		liked = false
		if l.posts[idx].LikesCount == 0 {
			delta = 0
		}
	}

	l.posts[idx].LikesCount += delta
	l.posts[idx].Liked = liked
	l.posts[idx].State = enums.ItemStatePending

	m := l.track(Mutation{Kind: kind, PostID: postID, LikesDelta: delta})
	return m, nil
}

// AddComment appends a pending comment under a temporary negative id.
func (l *List) AddComment(postID int64, comment model.Comment) (Mutation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := l.indexOf(postID)
	if idx < 0 {
		return Mutation{}, ErrNotFound
	}

	l.lastTempID--
	comment.ID = l.lastTempID
	comment.PostID = postID
	comment.State = enums.ItemStatePending
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	l.posts[idx].Comments = append(l.posts[idx].Comments, comment)
	l.posts[idx].State = enums.ItemStatePending

	m := l.track(Mutation{Kind: MutationComment, PostID: postID, CommentID: comment.ID})
	return m, nil
}

// Confirm marks a mutation as accepted by the server. The server's like count
// is adopted only when no other count change on the post is still in flight.
func (l *List) Confirm(m Mutation, confirmation Confirmation) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.pending[m.ID]; !ok {
		return ErrUnknownMutation
	}
	delete(l.pending, m.ID)

	idx := l.indexOf(m.PostID)
	if idx < 0 {
		return nil
	}
	post := &l.posts[idx]

	switch m.Kind {
	case MutationLike, MutationUnlike:
		if confirmation.LikesCount != nil && !l.hasPendingCountChange(m.PostID) {
			post.LikesCount = *confirmation.LikesCount
		}
	case MutationComment:
		for i := range post.Comments {
			if post.Comments[i].ID != m.CommentID {
				continue
			}
			if confirmation.Comment != nil {
				post.Comments[i] = *confirmation.Comment
				post.Comments[i].PostID = m.PostID
			}
			post.Comments[i].State = enums.ItemStateConfirmed
			break
		}
	}

	l.refreshState(idx)
	return nil
}

// Revert applies the inverse of a mutation.
func (l *List) Revert(m Mutation) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.pending[m.ID]; !ok {
		return ErrUnknownMutation
	}
	delete(l.pending, m.ID)

	idx := l.indexOf(m.PostID)
	if idx < 0 {
		return nil
	}
	post := &l.posts[idx]

	switch m.Kind {
	case MutationLike:
		post.LikesCount -= m.LikesDelta
		post.Liked = false
	case MutationUnlike:
		post.LikesCount -= m.LikesDelta
		post.Liked = true
	case MutationComment:
		for i := range post.Comments {
			if post.Comments[i].ID == m.CommentID {
				post.Comments = append(post.Comments[:i], post.Comments[i+1:]...)
				break
			}
		}
	}
	if post.LikesCount < 0 {
		post.LikesCount = 0
	}

	l.refreshState(idx)
	return nil
}

func (l *List) track(m Mutation) Mutation {
	l.lastID++
	m.ID = l.lastID
	l.pending[m.ID] = m
	return m
}

func (l *List) hasPendingCountChange(postID int64) bool {
	for _, m := range l.pending {
		if m.PostID == postID && (m.Kind == MutationLike || m.Kind == MutationUnlike) {
			return true
		}
	}
	return false
}

func (l *List) refreshState(idx int) {
	postID := l.posts[idx].ID
	for _, m := range l.pending {
		if m.PostID == postID {
			l.posts[idx].State = enums.ItemStatePending
			return
		}
	}
	l.posts[idx].State = enums.ItemStateConfirmed
}

func (l *List) indexOf(postID int64) int {
	for i := range l.posts {
		if l.posts[i].ID == postID {
			return i
		}
	}
	return -1
}

func clonePost(post model.Post) model.Post {
	if post.Comments != nil {
		comments := make([]model.Comment, len(post.Comments))
		copy(comments, post.Comments)
		post.Comments = comments
	}
	return post
}
