package audit

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/enums"
	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
)

type memoryRepo struct {
	saved []model.Audit
	limit int
}

func (m *memoryRepo) Save(_ context.Context, entry model.Audit) error {
	m.saved = append(m.saved, entry)
	return nil
}

func (m *memoryRepo) ListRecent(_ context.Context, limit int) ([]model.Audit, error) {
	m.limit = limit
	return m.saved, nil
}

func TestLogUserSuspendedWritesPayload(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo)

	if err := svc.LogUserSuspended(context.Background(), Actor{TGID: 77, UserID: 1}, 42, "spam"); err != nil {
		t.Fatalf("log: %v", err)
	}
	if len(repo.saved) != 1 {
		t.Fatalf("expected one entry, got %d", len(repo.saved))
	}

	entry := repo.saved[0]
	if entry.Action != enums.AuditActionUserSuspended {
		t.Fatalf("unexpected action %q", entry.Action)
	}
	if entry.ActorTGID != 77 || entry.ActorUserID != 1 {
		t.Fatalf("unexpected actor %d/%d", entry.ActorTGID, entry.ActorUserID)
	}
	if entry.CreatedAt.IsZero() || entry.CreatedAt.Location().String() != "UTC" {
		t.Fatalf("expected utc timestamp, got %v", entry.CreatedAt)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(entry.Payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload["target_user_id"].(float64) != 42 || payload["reason"] != "spam" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestLexiconEntriesCarryStats(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo)

	stats := model.LexiconStats{Path: "lexicon.txt", Mode: "append", WordsCount: 10, PhrasesCount: 2}
	_ = svc.LogLexiconUpdated(context.Background(), Actor{TGID: 1}, stats)
	_ = svc.LogLexiconReloaded(context.Background(), Actor{TGID: 1}, stats)

	if repo.saved[0].Action != enums.AuditActionLexiconUpdated || repo.saved[1].Action != enums.AuditActionLexiconReloaded {
		t.Fatalf("unexpected actions %q %q", repo.saved[0].Action, repo.saved[1].Action)
	}
	var payload map[string]interface{}
	_ = json.Unmarshal(repo.saved[0].Payload, &payload)
	if payload["mode"] != "append" || payload["words_count"].(float64) != 10 {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestNilRepoIsNoop(t *testing.T) {
	svc := NewService(nil)
	if err := svc.LogUserWarned(context.Background(), Actor{}, 1, ""); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	items, err := svc.ListRecent(context.Background(), 5)
	if err != nil || len(items) != 0 {
		t.Fatalf("expected empty list, got %v %v", items, err)
	}
}

func TestListRecentDefaultsLimit(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo)
	if _, err := svc.ListRecent(context.Background(), 0); err != nil {
		t.Fatalf("list: %v", err)
	}
	if repo.limit != 20 {
		t.Fatalf("expected default limit 20, got %d", repo.limit)
	}
}
