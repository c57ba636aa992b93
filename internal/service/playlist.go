package service

import (
	"context"
	"strings"

	"github.com/selahlabs/selah/internal/domain"
	"github.com/selahlabs/selah/internal/logger"
)

// PlaylistStore is the persistence contract the reconciler drives.
type PlaylistStore interface {
	FindByName(ctx context.Context, nameFilter string) ([]domain.Playlist, error)
	Create(ctx context.Context, p *domain.Playlist) (string, error)
	AddCategory(ctx context.Context, playlistID, categoryID string) error
	GetEntry(ctx context.Context, playlistID, devotionalID string) (*domain.PlaylistEntry, error)
	InsertEntry(ctx context.Context, entry *domain.PlaylistEntry) error
	UpdateEntryPosition(ctx context.Context, entryID string, position int) error
}

// Reconciler makes playlist memberships match the requested state,
// idempotently: re-running the same reconciliation against unchanged state
// yields noop.
type Reconciler struct {
	store PlaylistStore
}

// NewReconciler creates a playlist Reconciler.
func NewReconciler(store PlaylistStore) *Reconciler {
	return &Reconciler{store: store}
}

// Reconcile ensures each named playlist exists and links the devotional into
// it at the desired position when one was requested. Per-playlist failures
// are reported as skipped and never abort the other playlists.
func (r *Reconciler) Reconcile(ctx context.Context, names []string, positions map[string]int, categoryID, devotionalID string) []PlaylistLinkResult {
	results := make([]PlaylistLinkResult, 0, len(names))
	for _, name := range names {
		result := PlaylistLinkResult{Name: name}

		playlistID, err := r.Ensure(ctx, name, categoryID)
		if err != nil || playlistID == "" {
			logger.FromContext(ctx).WithFields(logger.Fields{
				"playlist": name,
			}).WithError(err).Warn("Failed to resolve playlist")
			result.Action = LinkSkipped
			result.Message = "failed to resolve playlist"
			results = append(results, result)
			continue
		}
		result.PlaylistID = playlistID

		var desired *int
		if positions != nil {
			if pos, ok := positions[name]; ok {
				desired = &pos
			}
		}

		action, position, err := r.Link(ctx, playlistID, devotionalID, desired)
		if err != nil {
			logger.FromContext(ctx).WithFields(logger.Fields{
				"playlist": name,
			}).WithError(err).Warn("Failed to link devotional into playlist")
			result.Action = LinkSkipped
			result.Message = "failed to link devotional"
			results = append(results, result)
			continue
		}
		result.Action = action
		result.Position = position
		results = append(results, result)
	}
	return results
}

// Ensure resolves a playlist by exact case-insensitive name match, creating
// it scoped to categoryID when no match exists. On a match with a new
// category, the category is added to the playlist's association set.
func (r *Reconciler) Ensure(ctx context.Context, name, categoryID string) (string, error) {
	candidates, err := r.store.FindByName(ctx, name)
	if err == nil {
		for _, p := range candidates {
			if strings.EqualFold(p.Name, name) {
				if categoryID != "" {
					if catErr := r.store.AddCategory(ctx, p.ID, categoryID); catErr != nil {
						logger.FromContext(ctx).WithFields(logger.Fields{
							"playlist": p.Name,
						}).WithError(catErr).Warn("Failed to add category to playlist")
					}
				}
				return p.ID, nil
			}
		}
	} else {
		logger.FromContext(ctx).WithFields(logger.Fields{
			"playlist": name,
		}).WithError(err).Warn("Playlist lookup failed, attempting create")
	}

	playlist := &domain.Playlist{Name: name}
	if categoryID != "" {
		playlist.CategoryIDs = domain.StringArray{categoryID}
	}
	return r.store.Create(ctx, playlist)
}

// Link reconciles a single membership row. No row inserts one (with the
// desired position when supplied); an existing row with a differing stored
// position is updated; an already-matching row is a noop.
func (r *Reconciler) Link(ctx context.Context, playlistID, devotionalID string, desired *int) (LinkAction, *int, error) {
	entry, err := r.store.GetEntry(ctx, playlistID, devotionalID)
	if err != nil {
		return LinkSkipped, nil, err
	}

	if entry == nil {
		newEntry := &domain.PlaylistEntry{
			PlaylistID:   playlistID,
			DevotionalID: devotionalID,
			Position:     desired,
		}
		if err := r.store.InsertEntry(ctx, newEntry); err != nil {
			return LinkSkipped, nil, err
		}
		return LinkInserted, desired, nil
	}

	if desired == nil {
		return LinkNoop, entry.Position, nil
	}
	if entry.Position != nil && *entry.Position == *desired {
		return LinkNoop, entry.Position, nil
	}

	if err := r.store.UpdateEntryPosition(ctx, entry.ID, *desired); err != nil {
		return LinkSkipped, nil, err
	}
	return LinkUpdated, desired, nil
}
