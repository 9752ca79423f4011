package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ivankudzin/tgapp/feedbot/internal/domain/model"
)

const draftPrefix = keyPrefix + "draft:"

// DraftRepo keeps the content of a failed submission so the user can retry it.
type DraftRepo struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewDraftRepo(client *goredis.Client, ttl time.Duration) *DraftRepo {
	return &DraftRepo{client: client, ttl: ttlOrDefault(ttl)}
}

func (r *DraftRepo) Save(ctx context.Context, chatID int64, draft model.Draft) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if strings.TrimSpace(draft.Content) == "" && strings.TrimSpace(draft.ImageURL) == "" {
		return nil
	}

	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	if err := r.client.Set(ctx, draftKey(chatID), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (r *DraftRepo) Get(ctx context.Context, chatID int64) (model.Draft, bool, error) {
	if r.client == nil {
		return model.Draft{}, false, fmt.Errorf("redis client is nil")
	}

	raw, err := r.client.Get(ctx, draftKey(chatID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return model.Draft{}, false, nil
	}
	if err != nil {
		return model.Draft{}, false, fmt.Errorf("get draft: %w", err)
	}

	var draft model.Draft
	if err := json.Unmarshal(raw, &draft); err != nil {
		return model.Draft{}, false, fmt.Errorf("decode draft: %w", err)
	}
	return draft, true, nil
}

func (r *DraftRepo) Delete(ctx context.Context, chatID int64) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	if err := r.client.Del(ctx, draftKey(chatID)).Err(); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

func draftKey(chatID int64) string {
	return draftPrefix + strconv.FormatInt(chatID, 10)
}
