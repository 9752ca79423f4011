package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

type fakeStorage struct {
	ensureCalls int
	putKey      string
	putSize     int64
	putType     string
	ttl         time.Duration
}

func (f *fakeStorage) EnsureBucket(_ context.Context) error {
	f.ensureCalls++
	return nil
}

func (f *fakeStorage) PutPhoto(_ context.Context, key string, body io.Reader, size int64, contentType string) error {
	data, _ := io.ReadAll(body)
	if int64(len(data)) != size {
		return errors.New("size mismatch")
	}
	f.putKey = key
	f.putSize = size
	f.putType = contentType
	return nil
}

func (f *fakeStorage) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	f.ttl = ttl
	return "https://signed.local/" + key, nil
}

type fakeDownloader struct {
	data        []byte
	contentType string
	err         error
}

func (f *fakeDownloader) DownloadFile(_ context.Context, _ string) (io.ReadCloser, int64, string, error) {
	if f.err != nil {
		return nil, 0, "", f.err
	}
	return io.NopCloser(bytes.NewReader(f.data)), -1, f.contentType, nil
}

func TestAttachTelegramPhoto(t *testing.T) {
	storage := &fakeStorage{}
	svc := NewService(storage, &fakeDownloader{data: []byte("png-bytes"), contentType: "image/png"}, time.Hour)
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	url, err := svc.AttachTelegramPhoto(context.Background(), 7, "file-1")
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if !strings.HasPrefix(storage.putKey, "posts/7/2024-03-01/") || !strings.HasSuffix(storage.putKey, ".png") {
		t.Fatalf("unexpected key %q", storage.putKey)
	}
	if url != "https://signed.local/"+storage.putKey {
		t.Fatalf("unexpected url %q", url)
	}
	if storage.putSize != int64(len("png-bytes")) || storage.putType != "image/png" {
		t.Fatalf("unexpected upload %d %q", storage.putSize, storage.putType)
	}
	if storage.ttl != time.Hour || storage.ensureCalls != 1 {
		t.Fatalf("unexpected ttl %v or ensure calls %d", storage.ttl, storage.ensureCalls)
	}
}

func TestAttachTelegramPhotoErrors(t *testing.T) {
	testCases := []struct {
		name    string
		svc     *Service
		userID  int64
		fileID  string
		wantErr error
	}{
		{name: "disabled", svc: NewService(nil, &fakeDownloader{}, 0), userID: 1, fileID: "f", wantErr: ErrDisabled},
		{name: "no file", svc: NewService(&fakeStorage{}, &fakeDownloader{}, 0), userID: 1, fileID: " ", wantErr: ErrValidation},
		{name: "empty body", svc: NewService(&fakeStorage{}, &fakeDownloader{}, 0), userID: 1, fileID: "f", wantErr: ErrValidation},
		{
			name:    "too large",
			svc:     NewService(&fakeStorage{}, &fakeDownloader{data: make([]byte, maxPhotoBytes+1)}, 0),
			userID:  1,
			fileID:  "f",
			wantErr: ErrTooLarge,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.svc.AttachTelegramPhoto(context.Background(), tc.userID, tc.fileID)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestURLTTLIsCapped(t *testing.T) {
	svc := NewService(&fakeStorage{}, &fakeDownloader{}, 30*24*time.Hour)
	if svc.urlTTL != defaultURLTTL {
		t.Fatalf("expected ttl capped at %v, got %v", defaultURLTTL, svc.urlTTL)
	}
	if (*Service)(nil).Enabled() {
		t.Fatal("nil service must be disabled")
	}
}
