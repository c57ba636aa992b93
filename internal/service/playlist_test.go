package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/selahlabs/selah/internal/domain"
)

// fakePlaylistStore is an in-memory PlaylistStore with switchable failures.
type fakePlaylistStore struct {
	playlists map[string]*domain.Playlist     // id -> playlist
	entries   map[string]*domain.PlaylistEntry // playlistID+devotionalID -> entry
	nextID    int

	findErr   error
	createErr error
	entryErr  error
	insertErr error
	updateErr error
}

func newFakePlaylistStore() *fakePlaylistStore {
	return &fakePlaylistStore{
		playlists: make(map[string]*domain.Playlist),
		entries:   make(map[string]*domain.PlaylistEntry),
	}
}

func (s *fakePlaylistStore) addPlaylist(name string) string {
	s.nextID++
	id := fmt.Sprintf("pl-%d", s.nextID)
	s.playlists[id] = &domain.Playlist{ID: id, Name: name}
	return id
}

func (s *fakePlaylistStore) FindByName(ctx context.Context, nameFilter string) ([]domain.Playlist, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	var out []domain.Playlist
	for _, p := range s.playlists {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(nameFilter)) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *fakePlaylistStore) Create(ctx context.Context, p *domain.Playlist) (string, error) {
	if s.createErr != nil {
		return "", s.createErr
	}
	s.nextID++
	id := fmt.Sprintf("pl-%d", s.nextID)
	created := *p
	created.ID = id
	s.playlists[id] = &created
	return id, nil
}

func (s *fakePlaylistStore) AddCategory(ctx context.Context, playlistID, categoryID string) error {
	p, ok := s.playlists[playlistID]
	if !ok {
		return errors.New("playlist not found")
	}
	for _, c := range p.CategoryIDs {
		if c == categoryID {
			return nil
		}
	}
	p.CategoryIDs = append(p.CategoryIDs, categoryID)
	return nil
}

func (s *fakePlaylistStore) GetEntry(ctx context.Context, playlistID, devotionalID string) (*domain.PlaylistEntry, error) {
	if s.entryErr != nil {
		return nil, s.entryErr
	}
	entry, ok := s.entries[playlistID+"/"+devotionalID]
	if !ok {
		return nil, nil
	}
	copied := *entry
	return &copied, nil
}

func (s *fakePlaylistStore) InsertEntry(ctx context.Context, entry *domain.PlaylistEntry) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.nextID++
	stored := *entry
	stored.ID = fmt.Sprintf("en-%d", s.nextID)
	s.entries[entry.PlaylistID+"/"+entry.DevotionalID] = &stored
	return nil
}

func (s *fakePlaylistStore) UpdateEntryPosition(ctx context.Context, entryID string, position int) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	for _, e := range s.entries {
		if e.ID == entryID {
			pos := position
			e.Position = &pos
			return nil
		}
	}
	return errors.New("entry not found")
}

func TestEnsureMatchesCaseInsensitively(t *testing.T) {
	store := newFakePlaylistStore()
	existing := store.addPlaylist("Morning Devotions")

	r := NewReconciler(store)
	id, err := r.Ensure(context.Background(), "morning devotions", "cat-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != existing {
		t.Errorf("Ensure returned %q, want existing playlist %q", id, existing)
	}
	if len(store.playlists) != 1 {
		t.Errorf("playlist count = %d, want 1 (no duplicate created)", len(store.playlists))
	}
	if cats := store.playlists[existing].CategoryIDs; len(cats) != 1 || cats[0] != "cat-1" {
		t.Errorf("categories = %v, want [cat-1]", cats)
	}
}

func TestEnsureCreatesWhenMissing(t *testing.T) {
	store := newFakePlaylistStore()
	r := NewReconciler(store)

	id, err := r.Ensure(context.Background(), "Evening Rest", "cat-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	created, ok := store.playlists[id]
	if !ok {
		t.Fatal("playlist was not created")
	}
	if created.Name != "Evening Rest" {
		t.Errorf("created name = %q", created.Name)
	}
	if len(created.CategoryIDs) != 1 || created.CategoryIDs[0] != "cat-2" {
		t.Errorf("created categories = %v, want [cat-2]", created.CategoryIDs)
	}
}

func TestEnsureSubstringMatchIsNotEnough(t *testing.T) {
	store := newFakePlaylistStore()
	store.addPlaylist("Morning Devotions Extended")

	r := NewReconciler(store)
	id, err := r.Ensure(context.Background(), "Morning Devotions", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.playlists[id].Name != "Morning Devotions" {
		t.Error("a partial name match must create a new playlist, not reuse the longer one")
	}
	if len(store.playlists) != 2 {
		t.Errorf("playlist count = %d, want 2", len(store.playlists))
	}
}

func TestLinkActions(t *testing.T) {
	pos3, pos5 := 3, 5

	tests := []struct {
		name       string
		existing   *int // nil means no entry yet
		desired    *int
		wantAction LinkAction
		wantPos    *int
	}{
		{name: "insert without position", existing: nil, desired: nil, wantAction: LinkInserted, wantPos: nil},
		{name: "insert with position", existing: nil, desired: &pos3, wantAction: LinkInserted, wantPos: &pos3},
		{name: "noop when no position requested", existing: &pos3, desired: nil, wantAction: LinkNoop, wantPos: &pos3},
		{name: "noop when position already matches", existing: &pos3, desired: &pos3, wantAction: LinkNoop, wantPos: &pos3},
		{name: "update when position differs", existing: &pos3, desired: &pos5, wantAction: LinkUpdated, wantPos: &pos5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakePlaylistStore()
			playlistID := store.addPlaylist("Morning")
			if tt.existing != nil {
				store.InsertEntry(context.Background(), &domain.PlaylistEntry{
					PlaylistID:   playlistID,
					DevotionalID: "dev-1",
					Position:     tt.existing,
				})
			}

			r := NewReconciler(store)
			action, pos, err := r.Link(context.Background(), playlistID, "dev-1", tt.desired)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if action != tt.wantAction {
				t.Errorf("action = %s, want %s", action, tt.wantAction)
			}
			switch {
			case tt.wantPos == nil && pos != nil:
				t.Errorf("position = %d, want nil", *pos)
			case tt.wantPos != nil && (pos == nil || *pos != *tt.wantPos):
				t.Errorf("position = %v, want %d", pos, *tt.wantPos)
			}
		})
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	store := newFakePlaylistStore()
	r := NewReconciler(store)

	names := []string{"Morning", "Evening"}
	positions := map[string]int{"Morning": 2}

	first := r.Reconcile(context.Background(), names, positions, "cat-1", "dev-1")
	if len(first) != 2 {
		t.Fatalf("first pass results = %d, want 2", len(first))
	}
	for _, res := range first {
		if res.Action != LinkInserted {
			t.Errorf("first pass %s action = %s, want inserted", res.Name, res.Action)
		}
	}

	second := r.Reconcile(context.Background(), names, positions, "cat-1", "dev-1")
	for _, res := range second {
		if res.Action != LinkNoop {
			t.Errorf("second pass %s action = %s, want noop", res.Name, res.Action)
		}
	}
	if len(store.playlists) != 2 {
		t.Errorf("playlist count = %d, want 2", len(store.playlists))
	}
	if len(store.entries) != 2 {
		t.Errorf("entry count = %d, want 2", len(store.entries))
	}
}

func TestReconcileSkipsFailedPlaylistOnly(t *testing.T) {
	store := newFakePlaylistStore()
	store.findErr = errors.New("db offline")
	store.createErr = errors.New("db offline")

	r := NewReconciler(store)
	results := r.Reconcile(context.Background(), []string{"Morning"}, nil, "", "dev-1")
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].Action != LinkSkipped {
		t.Errorf("action = %s, want skipped", results[0].Action)
	}
	if results[0].Message == "" {
		t.Error("skipped result should carry a reason")
	}

	// Recovering the store lets a later reconciliation proceed.
	store.findErr = nil
	store.createErr = nil
	results = r.Reconcile(context.Background(), []string{"Morning"}, nil, "", "dev-1")
	if results[0].Action != LinkInserted {
		t.Errorf("action after recovery = %s, want inserted", results[0].Action)
	}
}

func TestReconcileLinkFailureReportsSkipped(t *testing.T) {
	store := newFakePlaylistStore()
	store.addPlaylist("Morning")
	store.insertErr = errors.New("constraint violation")

	r := NewReconciler(store)
	results := r.Reconcile(context.Background(), []string{"Morning", "Evening"}, nil, "", "dev-1")
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	if results[0].Action != LinkSkipped {
		t.Errorf("Morning action = %s, want skipped on insert failure", results[0].Action)
	}
	// The second playlist is still attempted even though the first failed.
	if results[1].Name != "Evening" {
		t.Errorf("second result = %q, want Evening", results[1].Name)
	}
}
