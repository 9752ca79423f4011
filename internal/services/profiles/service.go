package profiles

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
	"github.com/ivankudzin/tgapp/feedbot/internal/repo/apihttp"
	"github.com/ivankudzin/tgapp/feedbot/internal/services/feed"
	sessionsvc "github.com/ivankudzin/tgapp/feedbot/internal/services/session"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("user not found")
)

type UsersAPI interface {
	Get(ctx context.Context, userID int64) (model.User, []model.Violation, error)
	Update(ctx context.Context, userID int64, update model.ProfileUpdate) (model.User, error)
}

type PostsAPI interface {
	ListByUser(ctx context.Context, userID int64) ([]model.Post, error)
}

// Profile is a loaded user page. Its posts live in their own list so likes and
// comments on the profile reconcile the same way as on the feed.
type Profile struct {
	User       model.User
	Violations []model.Violation
	Posts      *feed.List
}

type Service struct {
	users UsersAPI
	posts PostsAPI
}

func NewService(users UsersAPI, posts PostsAPI) *Service {
	return &Service{users: users, posts: posts}
}

// Load fetches the user with violations and the user's posts in parallel.
func (s *Service) Load(ctx context.Context, userID int64) (Profile, error) {
	if userID <= 0 {
		return Profile{}, ErrValidation
	}

	var (
		user       model.User
		violations []model.Violation
		posts      []model.Post
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		user, violations, err = s.users.Get(groupCtx, userID)
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		var err error
		posts, err = s.posts.ListByUser(groupCtx, userID)
		if err != nil {
			return fmt.Errorf("list user posts: %w", err)
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		if apihttp.StatusCode(err) == http.StatusNotFound {
			return Profile{}, ErrNotFound
		}
		return Profile{}, err
	}

	list := feed.NewList()
	list.Replace(model.FeedPage{Posts: posts, Total: len(posts), Page: 1, Pages: 1})

	return Profile{
		User:       user,
		Violations: violations,
		Posts:      list,
	}, nil
}

// Update changes the session user's own profile and returns the updated session.
func (s *Service) Update(ctx context.Context, sess model.Session, update model.ProfileUpdate) (model.Session, error) {
	if !sess.Valid() {
		return model.Session{}, sessionsvc.ErrNoSession
	}
	if update.Username == nil && update.Email == nil {
		return model.Session{}, fmt.Errorf("%w: nothing to update", ErrValidation)
	}
	if update.Username != nil {
		username := strings.TrimSpace(*update.Username)
		if username == "" {
			return model.Session{}, fmt.Errorf("%w: username is empty", ErrValidation)
		}
		update.Username = &username
	}
	if update.Email != nil {
		email := strings.TrimSpace(*update.Email)
		if _, err := mail.ParseAddress(email); err != nil {
			return model.Session{}, fmt.Errorf("%w: invalid email", ErrValidation)
		}
		update.Email = &email
	}

	user, err := s.users.Update(apihttp.WithActorTGID(ctx, sess.TelegramID), sess.User.ID, update)
	if err != nil {
		if apihttp.StatusCode(err) == http.StatusBadRequest {
			return model.Session{}, fmt.Errorf("%w: %s", ErrValidation, apihttp.ErrorMessage(err))
		}
		return model.Session{}, fmt.Errorf("update user: %w", err)
	}
	if user.ID == 0 {
		user.ID = sess.User.ID
	}
	sess.User = user
	return sess, nil
}
