package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/enums"
	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
)

func TestAuditRepoWithoutPoolIsNoop(t *testing.T) {
	repo := NewAuditRepo(nil)
	ctx := context.Background()

	if repo.Enabled() {
		t.Fatalf("repo without pool must report disabled")
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	if err := repo.Save(ctx, model.Audit{ActorTGID: 1, Action: enums.AuditActionUserWarned, CreatedAt: time.Now()}); err != nil {
		t.Fatalf("save: %v", err)
	}
	items, err := repo.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty list, got %d", len(items))
	}
}

func TestNewPoolRequiresDSN(t *testing.T) {
	if _, err := NewPool(context.Background(), " "); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
	if _, err := NewPool(context.Background(), "postgres://%zz"); err == nil {
		t.Fatalf("expected error for malformed dsn")
	}
}
