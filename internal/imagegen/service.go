package imagegen

import (
	"context"

	"github.com/selahlabs/selah/internal/logger"
)

// Backend is the raw image synthesis contract.
type Backend interface {
	Synthesize(ctx context.Context, prompt string) (string, error)
}

// URLMigrator moves an ephemeral image URL into durable storage, degrading to
// the input URL on failure.
type URLMigrator interface {
	Migrate(ctx context.Context, ephemeralURL string) string
}

// Service composes synthesis (with exactly one retry) and durable migration.
type Service struct {
	backend  Backend
	migrator URLMigrator
}

// NewService creates an image generation service.
func NewService(backend Backend, migrator URLMigrator) *Service {
	return &Service{backend: backend, migrator: migrator}
}

// Generate synthesizes an image for prompt and migrates it to durable
// storage. The synthesis call gets exactly one retry, no backoff. A returned
// ephemeral URL (migration failed) is a degraded but valid outcome; an error
// is returned only when both synthesis attempts fail.
func (s *Service) Generate(ctx context.Context, prompt string) (string, error) {
	url, err := s.backend.Synthesize(ctx, prompt)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warn("Image synthesis failed, retrying once")
		url, err = s.backend.Synthesize(ctx, prompt)
		if err != nil {
			return "", err
		}
	}

	return s.migrator.Migrate(ctx, url), nil
}
