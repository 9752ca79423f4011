package feed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
	"github.com/ivankudzin/tgapp/feedbot/internal/repo/apihttp"
	sessionsvc "github.com/ivankudzin/tgapp/feedbot/internal/services/session"
	"github.com/ivankudzin/tgapp/feedbot/internal/services/submission"
)

type PostsAPI interface {
	List(ctx context.Context, page int) (model.FeedPage, error)
	Like(ctx context.Context, postID int64, userID int64) (int, error)
	Unlike(ctx context.Context, postID int64, userID int64) (int, error)
	Delete(ctx context.Context, postID int64, userID int64) error
}

type Commenter interface {
	SubmitComment(ctx context.Context, sess model.Session, postID int64, content string) (submission.Outcome, error)
}

type Service struct {
	api       PostsAPI
	commenter Commenter
	logger    *zap.Logger
}

func NewService(api PostsAPI, commenter Commenter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		api:       api,
		commenter: commenter,
		logger:    logger,
	}
}

// Load fetches one page and replaces the list content with it.
func (s *Service) Load(ctx context.Context, list *List, page int) (model.FeedPage, error) {
	result, err := s.api.List(ctx, page)
	if err != nil {
		return model.FeedPage{}, fmt.Errorf("load feed page %d: %w", page, err)
	}
	if pending := list.Pending(); pending > 0 {
		s.logger.Debug("reload drops pending mutations", zap.Int("pending", pending), zap.Int("page", page))
	}
	list.Replace(result)
	return result, nil
}

func (s *Service) Like(ctx context.Context, sess model.Session, list *List, postID int64) (model.Post, error) {
	return s.toggleLike(ctx, sess, list, postID, MutationLike)
}

func (s *Service) Unlike(ctx context.Context, sess model.Session, list *List, postID int64) (model.Post, error) {
	return s.toggleLike(ctx, sess, list, postID, MutationUnlike)
}

func (s *Service) toggleLike(ctx context.Context, sess model.Session, list *List, postID int64, kind MutationKind) (model.Post, error) {
	if !sess.Valid() {
		return model.Post{}, sessionsvc.ErrNoSession
	}

	apply, call := list.Like, s.api.Like
	if kind == MutationUnlike {
		apply, call = list.Unlike, s.api.Unlike
	}

	m, err := apply(postID)
	if err != nil {
		return model.Post{}, err
	}

	count, err := call(apihttp.WithActorTGID(ctx, sess.TelegramID), postID, sess.User.ID)
	if err != nil {
		if revertErr := list.Revert(m); revertErr != nil {
			s.logger.Warn("revert like failed", zap.Int64("post_id", postID), zap.Error(revertErr))
		}
		s.logger.Warn("like request failed",
			zap.Int64("chat_id", sess.ChatID),
			zap.Int64("post_id", postID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		return model.Post{}, fmt.Errorf("%s post %d: %w", kind, postID, err)
	}

	_ = list.Confirm(m, Confirmation{LikesCount: &count})
	post, _ := list.Get(postID)
	return post, nil
}

// Comment shows the comment right away and keeps it only if the backend
// published it.
func (s *Service) Comment(ctx context.Context, sess model.Session, list *List, postID int64, content string) (submission.Outcome, error) {
	if !sess.Valid() {
		return submission.Outcome{}, sessionsvc.ErrNoSession
	}

	m, err := list.AddComment(postID, model.Comment{
		UserID:   sess.User.ID,
		Username: sess.User.Username,
		Content:  content,
	})
	if err != nil {
		return submission.Outcome{}, err
	}

	outcome, err := s.commenter.SubmitComment(ctx, sess, postID, content)
	if err != nil || !outcome.Published() {
		_ = list.Revert(m)
		if err != nil {
			s.logger.Warn("comment failed",
				zap.Int64("chat_id", sess.ChatID),
				zap.Int64("post_id", postID),
				zap.Error(err),
			)
		}
		return outcome, err
	}

	_ = list.Confirm(m, Confirmation{Comment: outcome.Comment})
	return outcome, nil
}

// Delete removes a post the user owns. Ownership is checked by the backend.
func (s *Service) Delete(ctx context.Context, sess model.Session, list *List, postID int64) error {
	if !sess.Valid() {
		return sessionsvc.ErrNoSession
	}
	if err := s.api.Delete(apihttp.WithActorTGID(ctx, sess.TelegramID), postID, sess.User.ID); err != nil {
		s.logger.Warn("delete post failed",
			zap.Int64("chat_id", sess.ChatID),
			zap.Int64("post_id", postID),
			zap.Error(err),
		)
		return fmt.Errorf("delete post %d: %w", postID, err)
	}
	list.Remove(postID)
	return nil
}
