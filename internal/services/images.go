package services

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"yatube/internal/logger"
	"yatube/internal/storage"
)

// MaxImageSize caps a single post illustration.
const MaxImageSize = 5 << 20

// allowedImageTypes are the raster formats served back from /media. SVG is
// left out: it can carry script and media shares the site's origin.
var allowedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// ImageUpload is an image attached to a post form.
type ImageUpload struct {
	Filename string
	Reader   io.Reader
}

type ImageService struct {
	store storage.Storage
}

func NewImageService(store storage.Storage) *ImageService {
	return &ImageService{store: store}
}

// Save sniffs the upload, rejects anything that is not an image and stores
// it under posts/<uuid><ext>. It returns the storage key.
func (s *ImageService) Save(ctx context.Context, up *ImageUpload) (string, error) {
	data, err := io.ReadAll(io.LimitReader(up.Reader, MaxImageSize+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return "", &ValidationError{Field: "image", Message: "Загруженный файл пуст."}
	}
	if len(data) > MaxImageSize {
		return "", &ValidationError{Field: "image", Message: "Файл слишком большой, максимум 5 МБ."}
	}

	mt := mimetype.Detect(data)
	if !isAllowedImage(mt) {
		return "", &ValidationError{Field: "image", Message: "Загрузите правильное изображение."}
	}

	key := "posts/" + uuid.NewString() + mt.Extension()
	if err := s.store.Write(ctx, key, bytes.NewReader(data), int64(len(data)), mt.String()); err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return key, nil
}

func isAllowedImage(mt *mimetype.MIME) bool {
	for _, t := range allowedImageTypes {
		if mt.Is(t) {
			return true
		}
	}
	return false
}

// Delete removes a stored image. Failures are logged, never returned: a
// leftover object must not block deleting the post that referenced it.
func (s *ImageService) Delete(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		l := logger.Ctx(ctx)
		l.Warn().Err(err).Str("key", key).Msg("delete image")
	}
}

// URL is the public address of a stored image, or "" for no image.
func (s *ImageService) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.store.URL(key)
}
