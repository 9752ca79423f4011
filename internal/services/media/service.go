// Package media turns Telegram photos into image URLs that posts can carry.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrValidation = errors.New("validation error")
	ErrDisabled   = errors.New("photo uploads are not configured")
	ErrTooLarge   = errors.New("photo is too large")
)

const (
	// Presigned S3 GET URLs cannot outlive seven days.
	defaultURLTTL = 7 * 24 * time.Hour
	maxPhotoBytes = 10 << 20

	// ObjectPrefix is the key prefix shared by every uploaded post photo.
	ObjectPrefix = "posts/"
)

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	PutPhoto(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Downloader interface {
	DownloadFile(ctx context.Context, fileID string) (io.ReadCloser, int64, string, error)
}

type Service struct {
	storage    ObjectStorage
	downloader Downloader
	urlTTL     time.Duration
	now        func() time.Time
}

// NewService returns a service that refuses every upload when storage is nil.
func NewService(storage ObjectStorage, downloader Downloader, urlTTL time.Duration) *Service {
	if urlTTL <= 0 || urlTTL > defaultURLTTL {
		urlTTL = defaultURLTTL
	}
	return &Service{
		storage:    storage,
		downloader: downloader,
		urlTTL:     urlTTL,
		now:        time.Now,
	}
}

func (s *Service) Enabled() bool {
	return s != nil && s.storage != nil && s.downloader != nil
}

// AttachTelegramPhoto copies a Telegram photo into object storage and returns a
// presigned URL for it.
func (s *Service) AttachTelegramPhoto(ctx context.Context, userID int64, fileID string) (string, error) {
	if !s.Enabled() {
		return "", ErrDisabled
	}
	if userID <= 0 || strings.TrimSpace(fileID) == "" {
		return "", ErrValidation
	}

	body, _, contentType, err := s.downloader.DownloadFile(ctx, fileID)
	if err != nil {
		return "", fmt.Errorf("download photo: %w", err)
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, maxPhotoBytes+1))
	if err != nil {
		return "", fmt.Errorf("read photo: %w", err)
	}
	if len(data) == 0 {
		return "", ErrValidation
	}
	if len(data) > maxPhotoBytes {
		return "", ErrTooLarge
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}

	key := buildObjectKey(userID, contentType, s.now())
	if err := s.storage.PutPhoto(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", fmt.Errorf("upload photo: %w", err)
	}

	signed, err := s.storage.PresignGet(ctx, key, s.urlTTL)
	if err != nil {
		return "", fmt.Errorf("sign photo url: %w", err)
	}
	return signed, nil
}

func buildObjectKey(userID int64, contentType string, now time.Time) string {
	return fmt.Sprintf("%s%d/%s/%s%s", ObjectPrefix, userID, now.UTC().Format("2006-01-02"), uuid.NewString(), extensionFor(contentType))
}

func extensionFor(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
