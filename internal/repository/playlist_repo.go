package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/selahlabs/selah/internal/domain"
	"gorm.io/gorm"
)

// PlaylistRepository handles playlist and playlist membership persistence.
type PlaylistRepository struct {
	db *gorm.DB
}

// NewPlaylistRepository creates a new PlaylistRepository bound to db.
func NewPlaylistRepository(db *gorm.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// FindByName retrieves playlists whose name contains the filter,
// case-insensitively.
func (r *PlaylistRepository) FindByName(ctx context.Context, nameFilter string) ([]domain.Playlist, error) {
	var playlists []domain.Playlist
	if err := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE LOWER(?)", "%"+nameFilter+"%").
		Find(&playlists).Error; err != nil {
		return nil, fmt.Errorf("failed to find playlists: %w", err)
	}
	return playlists, nil
}

// Create inserts a new playlist and returns its ID.
func (r *PlaylistRepository) Create(ctx context.Context, p *domain.Playlist) (string, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return "", fmt.Errorf("failed to create playlist: %w", err)
	}
	return p.ID, nil
}

// AddCategory associates a category with an existing playlist. Adding an
// already-associated category is a no-op.
func (r *PlaylistRepository) AddCategory(ctx context.Context, playlistID, categoryID string) error {
	var p domain.Playlist
	if err := r.db.WithContext(ctx).First(&p, "id = ?", playlistID).Error; err != nil {
		return fmt.Errorf("failed to load playlist: %w", err)
	}
	for _, id := range p.CategoryIDs {
		if id == categoryID {
			return nil
		}
	}
	p.CategoryIDs = append(p.CategoryIDs, categoryID)
	p.UpdatedAt = time.Now()
	if err := r.db.WithContext(ctx).Save(&p).Error; err != nil {
		return fmt.Errorf("failed to update playlist categories: %w", err)
	}
	return nil
}

// GetEntry retrieves the membership row for a devotional in a playlist.
// Returns (nil, nil) when no membership exists.
func (r *PlaylistRepository) GetEntry(ctx context.Context, playlistID, devotionalID string) (*domain.PlaylistEntry, error) {
	var entry domain.PlaylistEntry
	err := r.db.WithContext(ctx).
		First(&entry, "playlist_id = ? AND devotional_id = ?", playlistID, devotionalID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get playlist entry: %w", err)
	}
	return &entry, nil
}

// InsertEntry inserts a new membership row.
func (r *PlaylistRepository) InsertEntry(ctx context.Context, entry *domain.PlaylistEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	now := time.Now()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to insert playlist entry: %w", err)
	}
	return nil
}

// UpdateEntryPosition updates the stored position of a membership row.
func (r *PlaylistRepository) UpdateEntryPosition(ctx context.Context, entryID string, position int) error {
	if err := r.db.WithContext(ctx).
		Model(&domain.PlaylistEntry{}).
		Where("id = ?", entryID).
		Updates(map[string]interface{}{"position": position, "updated_at": time.Now()}).Error; err != nil {
		return fmt.Errorf("failed to update playlist entry position: %w", err)
	}
	return nil
}
