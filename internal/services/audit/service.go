package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/enums"
	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
)

type Repo interface {
	Save(context.Context, model.Audit) error
	ListRecent(context.Context, int) ([]model.Audit, error)
}

// Actor identifies who performed an admin action: the Telegram account and the
// backend user it is logged in as.
type Actor struct {
	TGID   int64
	UserID int64
}

type Service struct {
	repo Repo
	now  func() time.Time
}

func NewService(repo Repo) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) LogUserWarned(ctx context.Context, actor Actor, targetUserID int64, reason string) error {
	return s.logWithPayload(ctx, enums.AuditActionUserWarned, actor, map[string]interface{}{
		"target_user_id": targetUserID,
		"reason":         reason,
	})
}

func (s *Service) LogUserSuspended(ctx context.Context, actor Actor, targetUserID int64, reason string) error {
	return s.logWithPayload(ctx, enums.AuditActionUserSuspended, actor, map[string]interface{}{
		"target_user_id": targetUserID,
		"reason":         reason,
	})
}

func (s *Service) LogUserUnsuspended(ctx context.Context, actor Actor, targetUserID int64) error {
	return s.logWithPayload(ctx, enums.AuditActionUserUnsuspended, actor, map[string]interface{}{
		"target_user_id": targetUserID,
	})
}

func (s *Service) LogLexiconReloaded(ctx context.Context, actor Actor, stats model.LexiconStats) error {
	return s.logWithPayload(ctx, enums.AuditActionLexiconReloaded, actor, map[string]interface{}{
		"path":          stats.Path,
		"words_count":   stats.WordsCount,
		"phrases_count": stats.PhrasesCount,
	})
}

func (s *Service) LogLexiconUpdated(ctx context.Context, actor Actor, stats model.LexiconStats) error {
	return s.logWithPayload(ctx, enums.AuditActionLexiconUpdated, actor, map[string]interface{}{
		"path":          stats.Path,
		"mode":          stats.Mode,
		"words_count":   stats.WordsCount,
		"phrases_count": stats.PhrasesCount,
	})
}

func (s *Service) LogViewHistory(ctx context.Context, actor Actor) error {
	return s.logWithPayload(ctx, enums.AuditActionAdminViewHistory, actor, map[string]interface{}{})
}

func (s *Service) ListRecent(ctx context.Context, limit int) ([]model.Audit, error) {
	if s.repo == nil {
		return []model.Audit{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListRecent(ctx, limit)
}

func (s *Service) logWithPayload(ctx context.Context, action enums.AuditAction, actor Actor, data map[string]interface{}) error {
	if s.repo == nil {
		return nil
	}

	payload, err := json.Marshal(data)
	if err != nil {
		payload = json.RawMessage(`{}`)
	}

	entry := model.Audit{
		ActorTGID:   actor.TGID,
		ActorUserID: actor.UserID,
		Action:      action,
		Payload:     payload,
		CreatedAt:   s.now().UTC(),
	}
	return s.repo.Save(ctx, entry)
}
