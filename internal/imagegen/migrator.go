package imagegen

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/selahlabs/selah/internal/logger"
	"github.com/selahlabs/selah/internal/storage"
	_ "golang.org/x/image/webp"
)

// Migrator copies an ephemeral generated-image URL into durable object
// storage. Migration is best-effort: on any failure the ephemeral URL is
// returned unchanged, never an error.
type Migrator struct {
	http      *resty.Client
	store     storage.ObjectStorage
	keyPrefix string
}

// NewMigrator creates a Migrator. A nil store disables migration entirely
// (durable-store credentials unavailable); Migrate then always returns the
// ephemeral URL.
func NewMigrator(store storage.ObjectStorage) *Migrator {
	client := resty.New()
	client.SetTimeout(60 * time.Second)

	return &Migrator{
		http:      client,
		store:     store,
		keyPrefix: "devotionals/covers",
	}
}

// Migrate downloads the image bytes and re-uploads them to durable storage
// under a collision-resistant key, returning the resulting public URL. Any
// failure degrades to the original ephemeral URL.
func (m *Migrator) Migrate(ctx context.Context, ephemeralURL string) string {
	if m.store == nil {
		return ephemeralURL
	}

	resp, err := m.http.R().SetContext(ctx).Get(ephemeralURL)
	if err != nil || resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		logger.FromContext(ctx).WithError(err).Warn("Failed to download generated image, keeping ephemeral URL")
		return ephemeralURL
	}

	data := resp.Body()
	if len(data) == 0 {
		logger.FromContext(ctx).Warn("Generated image download was empty, keeping ephemeral URL")
		return ephemeralURL
	}

	contentType := resp.Header().Get("Content-Type")
	ext := extensionFor(contentType, data)

	key := fmt.Sprintf("%s/%s.%s", m.keyPrefix, uuid.New().String(), ext)
	if err := m.store.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), contentTypeFor(ext)); err != nil {
		logger.FromContext(ctx).WithFields(logger.Fields{
			"storage_key": key,
		}).WithError(err).Warn("Failed to upload image to durable storage, keeping ephemeral URL")
		return ephemeralURL
	}

	return m.store.GetURL(key)
}

// extensionFor infers the file extension from the Content-Type header,
// falling back to sniffing the image bytes. PNG is the default.
func extensionFor(contentType string, data []byte) string {
	switch {
	case strings.Contains(contentType, "jpeg"), strings.Contains(contentType, "jpg"):
		return "jpg"
	case strings.Contains(contentType, "webp"):
		return "webp"
	case strings.Contains(contentType, "png"):
		return "png"
	}

	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		switch format {
		case "jpeg":
			return "jpg"
		case "webp":
			return "webp"
		}
	}
	return "png"
}

func contentTypeFor(ext string) string {
	switch ext {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
