package domain

import "time"

// Playlist groups devotionals for the listening feed. A playlist may be
// associated with multiple categories.
type Playlist struct {
	ID          string      `gorm:"type:text;primaryKey" json:"id"`
	Name        string      `gorm:"type:text;not null;index:idx_playlists_name" json:"name"`
	CategoryIDs StringArray `gorm:"type:text" json:"category_ids"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// TableName returns the database table name for Playlist.
func (Playlist) TableName() string {
	return "playlists"
}

// PlaylistEntry is the membership row linking a devotional into a playlist.
// Position is 1-based; nil means no explicit ordering was requested.
// The (playlist_id, devotional_id) pair is unique so reconciliation stays
// idempotent at the schema level.
type PlaylistEntry struct {
	ID           string    `gorm:"type:text;primaryKey" json:"id"`
	PlaylistID   string    `gorm:"type:text;not null;index:idx_playlist_entries_link,unique" json:"playlist_id"`
	DevotionalID string    `gorm:"type:text;not null;index:idx_playlist_entries_link,unique" json:"devotional_id"`
	Position     *int      `json:"position,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for PlaylistEntry.
func (PlaylistEntry) TableName() string {
	return "playlist_entries"
}
