package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/enums"
	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS feedbot_audit (
	id BIGSERIAL PRIMARY KEY,
	actor_tg_id BIGINT NOT NULL,
	actor_user_id BIGINT NOT NULL DEFAULT 0,
	action TEXT NOT NULL,
	payload JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS feedbot_audit_created_at_idx ON feedbot_audit (created_at DESC);
`

// AuditRepo is a no-op when the pool is nil, so the bot keeps working without Postgres.
type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) Enabled() bool {
	return r != nil && r.pool != nil
}

func (r *AuditRepo) EnsureSchema(ctx context.Context) error {
	if !r.Enabled() {
		return nil
	}
	if _, err := r.pool.Exec(ctx, auditSchema); err != nil {
		return fmt.Errorf("ensure feedbot_audit schema: %w", err)
	}
	return nil
}

func (r *AuditRepo) Save(ctx context.Context, entry model.Audit) error {
	if !r.Enabled() {
		return nil
	}

	payload := entry.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}

	const query = `
INSERT INTO feedbot_audit (
	actor_tg_id,
	actor_user_id,
	action,
	payload,
	created_at
) VALUES (
	$1,
	$2,
	$3,
	$4::jsonb,
	$5
)
`
	if _, err := r.pool.Exec(ctx, query, entry.ActorTGID, entry.ActorUserID, string(entry.Action), string(payload), entry.CreatedAt); err != nil {
		return fmt.Errorf("insert feedbot audit: %w", err)
	}
	return nil
}

func (r *AuditRepo) ListRecent(ctx context.Context, limit int) ([]model.Audit, error) {
	if !r.Enabled() {
		return []model.Audit{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id::text, actor_tg_id, actor_user_id, action, payload, created_at
		FROM feedbot_audit
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent feedbot audit: %w", err)
	}
	defer rows.Close()

	result := make([]model.Audit, 0, limit)
	for rows.Next() {
		var entry model.Audit
		var action string
		var payload []byte
		if err := rows.Scan(&entry.ID, &entry.ActorTGID, &entry.ActorUserID, &action, &payload, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan feedbot audit row: %w", err)
		}
		entry.Action = enums.AuditAction(action)
		entry.Payload = json.RawMessage(payload)
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedbot audit rows: %w", err)
	}

	return result, nil
}
