package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
	"github.com/ivankudzin/tgapp/feedbot/internal/repo/apihttp"
	"github.com/ivankudzin/tgapp/feedbot/internal/services/access"
	"github.com/ivankudzin/tgapp/feedbot/internal/services/audit"
)

const (
	LexiconModeAppend  = "append"
	LexiconModeReplace = "replace"

	defaultPerPage = 10
)

var ErrValidation = errors.New("validation error")

type API interface {
	Statistics(ctx context.Context) (model.Statistics, error)
	Violations(ctx context.Context, page, perPage int, category string) (model.ViolationsPage, error)
	Warn(ctx context.Context, userID int64, req apihttp.ModerationRequest) (model.ModerationActionResult, error)
	Suspend(ctx context.Context, userID int64, req apihttp.ModerationRequest) (model.ModerationActionResult, error)
	Unsuspend(ctx context.Context, userID int64) (model.ModerationActionResult, error)
	LexiconStats(ctx context.Context) (model.LexiconStats, error)
	ReloadLexicon(ctx context.Context, path string) (model.LexiconStats, error)
	UpdateLexicon(ctx context.Context, req apihttp.LexiconUpdateRequest) (model.LexiconStats, error)
}

type UsersAPI interface {
	List(ctx context.Context) ([]model.User, error)
}

type Service struct {
	api     API
	users   UsersAPI
	access  *access.Service
	audit   *audit.Service
	logger  *zap.Logger
	perPage int
}

func NewService(api API, users UsersAPI, accessSvc *access.Service, auditSvc *audit.Service, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if auditSvc == nil {
		auditSvc = audit.NewService(nil)
	}
	return &Service{
		api:     api,
		users:   users,
		access:  accessSvc,
		audit:   auditSvc,
		logger:  logger,
		perPage: defaultPerPage,
	}
}

func (s *Service) IsAdmin(sess model.Session) bool {
	return s.access.IsAdmin(sess)
}

// Dashboard loads users, statistics and the first violations page in parallel.
func (s *Service) Dashboard(ctx context.Context, sess model.Session) (model.Dashboard, error) {
	if err := s.access.Require(sess); err != nil {
		return model.Dashboard{}, err
	}
	ctx = actorContext(ctx, sess)

	var dashboard model.Dashboard
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		users, err := s.users.List(groupCtx)
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		dashboard.Users = users
		return nil
	})
	group.Go(func() error {
		stats, err := s.api.Statistics(groupCtx)
		if err != nil {
			return fmt.Errorf("load statistics: %w", err)
		}
		dashboard.Statistics = stats
		return nil
	})
	group.Go(func() error {
		page, err := s.api.Violations(groupCtx, 1, s.perPage, "")
		if err != nil {
			return fmt.Errorf("load violations: %w", err)
		}
		dashboard.Violations = page
		return nil
	})
	if err := group.Wait(); err != nil {
		return model.Dashboard{}, err
	}
	return dashboard, nil
}

func (s *Service) Users(ctx context.Context, sess model.Session) ([]model.User, error) {
	if err := s.access.Require(sess); err != nil {
		return nil, err
	}
	return s.users.List(actorContext(ctx, sess))
}

func (s *Service) Statistics(ctx context.Context, sess model.Session) (model.Statistics, error) {
	if err := s.access.Require(sess); err != nil {
		return model.Statistics{}, err
	}
	return s.api.Statistics(actorContext(ctx, sess))
}

func (s *Service) Violations(ctx context.Context, sess model.Session, page int, category string) (model.ViolationsPage, error) {
	if err := s.access.Require(sess); err != nil {
		return model.ViolationsPage{}, err
	}
	if page <= 0 {
		page = 1
	}
	return s.api.Violations(actorContext(ctx, sess), page, s.perPage, strings.TrimSpace(category))
}

func (s *Service) Warn(ctx context.Context, sess model.Session, userID int64, reason string) (model.ModerationActionResult, error) {
	if err := s.checkTarget(sess, userID); err != nil {
		return model.ModerationActionResult{}, err
	}
	reason = strings.TrimSpace(reason)
	result, err := s.api.Warn(actorContext(ctx, sess), userID, apihttp.ModerationRequest{Reason: reason})
	if err != nil {
		return model.ModerationActionResult{}, fmt.Errorf("warn user %d: %w", userID, err)
	}
	s.record(s.audit.LogUserWarned(ctx, actorOf(sess), userID, reason))
	return result, nil
}

func (s *Service) Suspend(ctx context.Context, sess model.Session, userID int64, reason, content string) (model.ModerationActionResult, error) {
	if err := s.checkTarget(sess, userID); err != nil {
		return model.ModerationActionResult{}, err
	}
	reason = strings.TrimSpace(reason)
	result, err := s.api.Suspend(actorContext(ctx, sess), userID, apihttp.ModerationRequest{
		Reason:  reason,
		Content: strings.TrimSpace(content),
	})
	if err != nil {
		return model.ModerationActionResult{}, fmt.Errorf("suspend user %d: %w", userID, err)
	}
	s.record(s.audit.LogUserSuspended(ctx, actorOf(sess), userID, reason))
	return result, nil
}

func (s *Service) Unsuspend(ctx context.Context, sess model.Session, userID int64) (model.ModerationActionResult, error) {
	if err := s.checkTarget(sess, userID); err != nil {
		return model.ModerationActionResult{}, err
	}
	result, err := s.api.Unsuspend(actorContext(ctx, sess), userID)
	if err != nil {
		return model.ModerationActionResult{}, fmt.Errorf("unsuspend user %d: %w", userID, err)
	}
	s.record(s.audit.LogUserUnsuspended(ctx, actorOf(sess), userID))
	return result, nil
}

func (s *Service) LexiconStats(ctx context.Context, sess model.Session) (model.LexiconStats, error) {
	if err := s.access.Require(sess); err != nil {
		return model.LexiconStats{}, err
	}
	return s.api.LexiconStats(actorContext(ctx, sess))
}

func (s *Service) ReloadLexicon(ctx context.Context, sess model.Session, path string) (model.LexiconStats, error) {
	if err := s.access.Require(sess); err != nil {
		return model.LexiconStats{}, err
	}
	stats, err := s.api.ReloadLexicon(actorContext(ctx, sess), strings.TrimSpace(path))
	if err != nil {
		return model.LexiconStats{}, fmt.Errorf("reload lexicon: %w", err)
	}
	s.record(s.audit.LogLexiconReloaded(ctx, actorOf(sess), stats))
	return stats, nil
}

func (s *Service) UpdateLexicon(ctx context.Context, sess model.Session, content, mode, path string) (model.LexiconStats, error) {
	if err := s.access.Require(sess); err != nil {
		return model.LexiconStats{}, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return model.LexiconStats{}, fmt.Errorf("%w: lexicon content is required", ErrValidation)
	}
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		mode = LexiconModeAppend
	}
	if mode != LexiconModeAppend && mode != LexiconModeReplace {
		return model.LexiconStats{}, fmt.Errorf("%w: mode must be append or replace", ErrValidation)
	}

	stats, err := s.api.UpdateLexicon(actorContext(ctx, sess), apihttp.LexiconUpdateRequest{
		Content: content,
		Mode:    mode,
		Path:    strings.TrimSpace(path),
	})
	if err != nil {
		return model.LexiconStats{}, fmt.Errorf("update lexicon: %w", err)
	}
	if stats.Mode == "" {
		stats.Mode = mode
	}
	s.record(s.audit.LogLexiconUpdated(ctx, actorOf(sess), stats))
	return stats, nil
}

// History lists recent admin actions from the audit log.
func (s *Service) History(ctx context.Context, sess model.Session, limit int) ([]model.Audit, error) {
	if err := s.access.Require(sess); err != nil {
		return nil, err
	}
	s.record(s.audit.LogViewHistory(ctx, actorOf(sess)))
	return s.audit.ListRecent(ctx, limit)
}

func (s *Service) checkTarget(sess model.Session, userID int64) error {
	if err := s.access.Require(sess); err != nil {
		return err
	}
	if userID <= 0 {
		return fmt.Errorf("%w: user id must be positive", ErrValidation)
	}
	return nil
}

func (s *Service) record(err error) {
	if err != nil {
		s.logger.Warn("write audit entry failed", zap.Error(err))
	}
}

func actorOf(sess model.Session) audit.Actor {
	return audit.Actor{TGID: sess.TelegramID, UserID: sess.User.ID}
}

func actorContext(ctx context.Context, sess model.Session) context.Context {
	return apihttp.WithActorTGID(ctx, sess.TelegramID)
}
