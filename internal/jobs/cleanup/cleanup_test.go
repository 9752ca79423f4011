package cleanup

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

type fakeStore struct {
	mu      sync.Mutex
	objects map[string]time.Time
	failOn  string
	listErr error
	cutoffs []time.Time
	prefix  string
}

func (f *fakeStore) ListOlderThan(_ context.Context, prefix string, cutoff time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.prefix = prefix
	f.cutoffs = append(f.cutoffs, cutoff)
	if f.listErr != nil {
		return nil, f.listErr
	}
	keys := make([]string, 0)
	for key, modified := range f.objects {
		if modified.Before(cutoff) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if key == f.failOn {
		return errors.New("remove failed")
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) sweeps() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

func TestRunDeletesOnlyStalePhotos(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := &fakeStore{objects: map[string]time.Time{
		"posts/1/2026-02-01/a.jpg": now.Add(-30 * 24 * time.Hour),
		"posts/1/2026-03-09/b.jpg": now.Add(-24 * time.Hour),
	}}

	job := NewPhotoCleanupJob(store, 8*24*time.Hour, time.Hour, zaptest.NewLogger(t))
	job.now = func() time.Time { return now }

	deleted, err := job.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, deleted)
	require.Equal(t, "posts/", store.prefix)
	require.Equal(t, now.Add(-8*24*time.Hour), store.cutoffs[0])
	require.Contains(t, store.objects, "posts/1/2026-03-09/b.jpg")
	require.NotContains(t, store.objects, "posts/1/2026-02-01/a.jpg")
}

func TestRunSkipsFailedDeletes(t *testing.T) {
	now := time.Now()
	store := &fakeStore{
		objects: map[string]time.Time{
			"posts/1/x.jpg": now.Add(-20 * 24 * time.Hour),
			"posts/2/y.jpg": now.Add(-20 * 24 * time.Hour),
		},
		failOn: "posts/1/x.jpg",
	}

	job := NewPhotoCleanupJob(store, 0, 0, zaptest.NewLogger(t))
	deleted, err := job.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, deleted)
	require.Contains(t, store.objects, "posts/1/x.jpg")
}

func TestRunReturnsListError(t *testing.T) {
	store := &fakeStore{listErr: errors.New("s3 down")}
	job := NewPhotoCleanupJob(store, time.Hour, time.Hour, nil)

	_, err := job.Run(context.Background())
	require.Error(t, err)
}

func TestRunWithoutStorageIsNoop(t *testing.T) {
	job := NewPhotoCleanupJob(nil, time.Hour, time.Hour, nil)
	deleted, err := job.Run(context.Background())
	require.NoError(t, err)
	require.Zero(t, deleted)
}

func TestStartStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := &fakeStore{objects: map[string]time.Time{}}
	job := NewPhotoCleanupJob(store, time.Hour, 10*time.Millisecond, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return store.sweeps() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("cleanup job did not stop")
	}
}
