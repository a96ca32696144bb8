// Package media turns uploaded image bytes into durable URLs.
package media

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"strings"

	"newsroom/internal/database"
	"newsroom/internal/utils"
)

// MaxUploadSize is the largest accepted image, in bytes.
const MaxUploadSize = 5 << 20

// URLPrefix is where stored media is served from.
const URLPrefix = "/media/"

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// Uploader stores image bytes and returns a URL for them.
type Uploader interface {
	Upload(ctx context.Context, name string, r io.Reader) (string, error)
}

// StoreUploader keeps uploads in a database.MediaStore.
type StoreUploader struct {
	store database.MediaStore
}

func NewStoreUploader(store database.MediaStore) *StoreUploader {
	return &StoreUploader{store: store}
}

// Upload sniffs the content type, enforces the size limit and stores the file.
func (u *StoreUploader) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	br := bufio.NewReaderSize(r, 512)
	head, err := br.Peek(512)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return "", utils.NewAppError(utils.ErrInvalidInput, "Unreadable upload", err)
	}
	if len(head) == 0 {
		return "", utils.NewInvalidInputError("Empty upload")
	}
	contentType := http.DetectContentType(head)
	if !allowedTypes[contentType] {
		return "", utils.NewAppError(utils.ErrUnsupportedType, "Only JPEG, PNG, GIF and WebP images are accepted", nil)
	}

	limited := &limitReader{r: br, remaining: MaxUploadSize}
	id, err := u.store.SaveMedia(ctx, sanitizeName(name), contentType, limited)
	if limited.exceeded {
		return "", utils.NewAppError(utils.ErrPayloadTooLarge, "Image exceeds 5 MiB", nil)
	}
	if err != nil {
		return "", err
	}
	return URLPrefix + id, nil
}

// limitReader fails once more than remaining bytes have been read.
type limitReader struct {
	r         io.Reader
	remaining int64
	exceeded  bool
}

func (l *limitReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		l.exceeded = true
		return n, utils.NewAppError(utils.ErrPayloadTooLarge, "Image exceeds 5 MiB", nil)
	}
	return n, err
}

func sanitizeName(name string) string {
	name = name[strings.LastIndexAny(name, `/\`)+1:]
	if name == "" {
		return "upload"
	}
	return name
}
