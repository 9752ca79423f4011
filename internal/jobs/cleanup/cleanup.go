// Package cleanup removes post photos whose presigned links have long expired.
package cleanup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	mediasvc "github.com/ivankudzin/tgapp/feedbot/internal/services/media"
)

type photoStore interface {
	ListOlderThan(ctx context.Context, prefix string, cutoff time.Time) ([]string, error)
	Delete(ctx context.Context, key string) error
}

type Job struct {
	storage   photoStore
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func NewPhotoCleanupJob(storage photoStore, retention, interval time.Duration, logger *zap.Logger) *Job {
	if retention <= 0 {
		retention = 8 * 24 * time.Hour
	}
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		storage:   storage,
		retention: retention,
		interval:  interval,
		now:       time.Now,
		logger:    logger,
	}
}

// Run performs a single sweep and returns how many photos were removed.
func (j *Job) Run(ctx context.Context) (int, error) {
	if j == nil || j.storage == nil {
		return 0, nil
	}

	cutoff := j.now().Add(-j.retention)
	keys, err := j.storage.ListOlderThan(ctx, mediasvc.ObjectPrefix, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list stale photos: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	deleted := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		if err := j.storage.Delete(ctx, key); err != nil {
			j.logger.Warn("failed to delete stale photo", zap.Error(err), zap.String("object_key", key))
			continue
		}
		deleted++
	}

	j.logger.Info("cleanup stale photos completed", zap.Int("deleted", deleted), zap.Int("found", len(keys)))
	return deleted, nil
}

// Start sweeps once immediately and then on every interval until ctx is done.
func (j *Job) Start(ctx context.Context) {
	if j == nil || j.storage == nil {
		return
	}

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		if _, err := j.Run(ctx); err != nil && ctx.Err() == nil {
			j.logger.Warn("photo cleanup failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
