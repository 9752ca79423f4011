// Package submission sends user content to the backend and classifies the
// moderation decision into an Outcome.
package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/feedbot/internal/config"
	"github.com/ivankudzin/tgapp/feedbot/internal/domain/enums"
	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
	"github.com/ivankudzin/tgapp/feedbot/internal/repo/apihttp"
)

const (
	genericPostFailure    = "Failed to create post"
	genericCommentFailure = "Failed to add comment"
)

type PostsAPI interface {
	Create(ctx context.Context, req apihttp.CreatePostRequest) (model.SubmissionResult, error)
	AddComment(ctx context.Context, postID int64, userID int64, content string) (model.CommentResult, error)
}

// Analyzer classifies text ahead of creation under the precheck contract.
type Analyzer interface {
	Analyze(ctx context.Context, text string, user model.User) (model.SubmissionResult, error)
}

type Options struct {
	Contract string
}

type Flow struct {
	posts    PostsAPI
	analyzer Analyzer
	contract string
	logger   *zap.Logger
}

func NewFlow(posts PostsAPI, analyzer Analyzer, opts Options, logger *zap.Logger) *Flow {
	if logger == nil {
		logger = zap.NewNop()
	}
	contract := strings.TrimSpace(opts.Contract)
	if contract == "" || analyzer == nil {
		contract = config.ContractInline
	}
	return &Flow{
		posts:    posts,
		analyzer: analyzer,
		contract: contract,
		logger:   logger,
	}
}

func (f *Flow) Contract() string {
	return f.contract
}

// Submit makes exactly one creation call per invocation. It never retries; the
// caller keeps the draft when the outcome is Failed.
func (f *Flow) Submit(ctx context.Context, sess model.Session, draft model.Draft) (Outcome, error) {
	if !sess.Valid() {
		return Outcome{}, ErrNoSession
	}
	content := strings.TrimSpace(draft.Content)
	imageURL := strings.TrimSpace(draft.ImageURL)
	if content == "" && imageURL == "" {
		return Outcome{}, &ValidationError{Field: "content", Err: ErrEmptyContent}
	}

	ctx = apihttp.WithActorTGID(ctx, sess.TelegramID)
	log := f.logger.With(
		zap.Int64("chat_id", sess.ChatID),
		zap.Int64("user_id", sess.User.ID),
		zap.String("contract", f.contract),
	)

	var precheck *model.SubmissionResult
	if f.contract == config.ContractPrecheck && content != "" {
		result, err := f.analyzer.Analyze(ctx, content, sess.User)
		if err != nil {
			log.Warn("precheck failed", zap.Error(err))
			return failed("analyze content", genericPostFailure, err)
		}
		if result.IsFlagged && result.ActionTaken.StopsContent() {
			outcome := classifyPost(result)
			log.Info("submission rejected by precheck",
				zap.String("category", result.Category),
				zap.String("action", string(result.ActionTaken)),
			)
			return outcome, nil
		}
		precheck = &result
	}

	ctx = apihttp.WithIdempotencyKey(ctx, uuid.NewString())
	result, err := f.posts.Create(ctx, apihttp.CreatePostRequest{
		Content:  content,
		UserID:   sess.User.ID,
		ImageURL: imageURL,
	})
	if err != nil {
		log.Warn("create post failed", zap.Error(err))
		return failed("create post", genericPostFailure, err)
	}
	if precheck != nil && precheck.IsFlagged && !result.IsFlagged {
		result = mergePrecheck(*precheck, result)
	}

	outcome := classifyPost(result)
	if outcome.Kind == OutcomeFailed {
		log.Warn("create post returned no post", zap.String("reason", outcome.Reason))
		return outcome, &TransportError{Op: "create post", Reason: outcome.Reason}
	}
	log.Info("submission classified",
		zap.String("outcome", string(outcome.Kind)),
		zap.Bool("flagged", result.IsFlagged),
		zap.String("action", string(result.ActionTaken)),
	)
	return outcome, nil
}

// SubmitComment follows the same rules as Submit. A suspension alert never
// yields a comment, even when the backend echoed one.
func (f *Flow) SubmitComment(ctx context.Context, sess model.Session, postID int64, content string) (Outcome, error) {
	if !sess.Valid() {
		return Outcome{}, ErrNoSession
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return Outcome{}, &ValidationError{Field: "comment", Err: ErrEmptyContent}
	}
	if postID <= 0 {
		return Outcome{}, &ValidationError{Field: "post_id", Err: fmt.Errorf("post id must be positive")}
	}

	ctx = apihttp.WithActorTGID(ctx, sess.TelegramID)
	ctx = apihttp.WithIdempotencyKey(ctx, uuid.NewString())
	result, err := f.posts.AddComment(ctx, postID, sess.User.ID, content)
	if err != nil {
		f.logger.Warn("add comment failed",
			zap.Int64("chat_id", sess.ChatID),
			zap.Int64("post_id", postID),
			zap.Error(err),
		)
		return failed("add comment", genericCommentFailure, err)
	}

	return classifyComment(result), nil
}

func classifyPost(result model.SubmissionResult) Outcome {
	if !result.IsFlagged {
		if result.CreatedPost == nil {
			reason := result.Message
			if reason == "" {
				reason = genericPostFailure
			}
			return Outcome{Kind: OutcomeFailed, Reason: reason}
		}
		return Outcome{Kind: OutcomeAccepted, Post: result.CreatedPost}
	}

	score := 0.0
	if result.Score != nil {
		score = *result.Score
	}
	alert := model.NewModerationAlert(result.ActionTaken.AlertKind(), result.Category, score, result.Message)

	switch {
	case result.ActionTaken.StopsContent():
		return Outcome{Kind: OutcomeRejected, Alert: &alert}
	case result.CreatedPost != nil:
		return Outcome{Kind: OutcomeAcceptedWithWarning, Post: result.CreatedPost, Alert: &alert}
	default:
		return Outcome{Kind: OutcomeRejected, Alert: &alert}
	}
}

func classifyComment(result model.CommentResult) Outcome {
	if result.Alert == nil {
		if result.Comment == nil {
			return Outcome{Kind: OutcomeFailed, Reason: genericCommentFailure}
		}
		return Outcome{Kind: OutcomeAccepted, Comment: result.Comment}
	}
	if result.Alert.Kind == enums.AlertKindSuspension || result.Comment == nil {
		return Outcome{Kind: OutcomeRejected, Alert: result.Alert}
	}
	return Outcome{Kind: OutcomeAcceptedWithWarning, Comment: result.Comment, Alert: result.Alert}
}

func mergePrecheck(precheck, created model.SubmissionResult) model.SubmissionResult {
	created.IsFlagged = true
	created.ActionTaken = precheck.ActionTaken
	created.Category = precheck.Category
	created.Score = precheck.Score
	if created.Message == "" {
		created.Message = precheck.Message
	}
	return created
}

func failed(op, fallback string, err error) (Outcome, error) {
	reason := apihttp.ErrorMessage(err)
	if reason == "" {
		reason = fallback
	}
	transportErr := &TransportError{
		Op:        op,
		Reason:    reason,
		Suspended: apihttp.IsSuspended(err),
		Err:       err,
	}
	return Outcome{Kind: OutcomeFailed, Reason: reason}, transportErr
}

// IsSuspended reports whether err says the account was suspended server side.
func IsSuspended(err error) bool {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Suspended
	}
	return apihttp.IsSuspended(err)
}
