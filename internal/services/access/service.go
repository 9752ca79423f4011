package access

import (
	"errors"
	"strings"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
)

var ErrForbidden = errors.New("admin rights required")

type Service struct {
	ownerTGID int64
	usernames map[string]struct{}
}

func NewService(ownerTGID int64, adminUsernames []string) *Service {
	usernames := make(map[string]struct{}, len(adminUsernames))
	for _, name := range adminUsernames {
		name = normalizeUsername(name)
		if name == "" {
			continue
		}
		usernames[name] = struct{}{}
	}
	return &Service{
		ownerTGID: ownerTGID,
		usernames: usernames,
	}
}

// IsAdmin resolves admin rights for a logged-in chat. The Telegram owner is always an
// admin; otherwise the backend flag or the configured username list decides.
func (s *Service) IsAdmin(sess model.Session) bool {
	if s.ownerTGID != 0 && sess.TelegramID == s.ownerTGID {
		return true
	}
	if !sess.Valid() {
		return false
	}
	if sess.User.IsAdmin {
		return true
	}
	name := normalizeUsername(sess.User.Username)
	if name == "" {
		return false
	}
	_, ok := s.usernames[name]
	return ok
}

func (s *Service) Require(sess model.Session) error {
	if !s.IsAdmin(sess) {
		return ErrForbidden
	}
	return nil
}

// normalizeUsername lowercases a Telegram-style handle and drops the leading "@".
func normalizeUsername(name string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), "@")
}
