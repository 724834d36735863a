package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestSong(title, artist string) *Song {
	return &Song{
		ID:        uuid.NewString(),
		Title:     title,
		Artist:    artist,
		Album:     "Test Album",
		ObjectKey: uuid.NewString() + ".mp3",
		SizeBytes: 1234,
	}
}

// TestCreateAndGet tests the basic record round trip
func TestCreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	song := newTestSong("Midnight Drive", "The Testers")
	song.Encrypted = true
	song.SizeBytes = 1_000_032
	if err := store.Create(ctx, song); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.GetByID(ctx, song.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if got.Title != song.Title || got.Artist != song.Artist || got.Album != song.Album {
		t.Errorf("Metadata mismatch: got %q/%q/%q", got.Title, got.Artist, got.Album)
	}
	if !got.Encrypted {
		t.Error("Encrypted flag did not persist")
	}
	if got.SizeBytes != 1_000_032 {
		t.Errorf("SizeBytes = %d, expected 1000032", got.SizeBytes)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt was not set")
	}
}

// TestGetMissing tests the not-found sentinel
func TestGetMissing(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.GetByID(context.Background(), "no-such-id"); !errors.Is(err, ErrSongNotFound) {
		t.Errorf("Expected ErrSongNotFound, got %v", err)
	}
}

// TestListFilters tests search and field filters
func TestListFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seed := []*Song{
		newTestSong("Blue Sky", "Aurora"),
		newTestSong("Blue Moon", "Nocturne"),
		newTestSong("Red Dawn", "Aurora"),
	}
	for i, song := range seed {
		// Distinct timestamps to make the newest-first ordering observable.
		song.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Second)
		if err := store.Create(ctx, song); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	testCases := []struct {
		name   string
		filter ListFilter
		want   int
	}{
		{"all", ListFilter{}, 3},
		{"search_title", ListFilter{Search: "Blue"}, 2},
		{"search_artist", ListFilter{Search: "Nocturne"}, 1},
		{"artist", ListFilter{Artist: "Aurora"}, 2},
		{"artist_and_search", ListFilter{Search: "Red", Artist: "Aurora"}, 1},
		{"no_match", ListFilter{Search: "Polka"}, 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			songs, err := store.List(ctx, tc.filter)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(songs) != tc.want {
				t.Errorf("List returned %d songs, expected %d", len(songs), tc.want)
			}
		})
	}

	all, err := store.List(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if all[0].Title != "Red Dawn" {
		t.Errorf("Expected newest song first, got %q", all[0].Title)
	}
}

// TestUpdateMetadata tests partial display edits
func TestUpdateMetadata(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	song := newTestSong("Working Title", "Artist A")
	if err := store.Create(ctx, song); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := store.UpdateMetadata(ctx, song.ID, MetadataUpdate{Title: "Final Title"})
	if err != nil {
		t.Fatalf("UpdateMetadata failed: %v", err)
	}
	if updated.Title != "Final Title" {
		t.Errorf("Title = %q, expected update to apply", updated.Title)
	}
	if updated.Artist != "Artist A" {
		t.Errorf("Artist = %q, expected empty field to keep prior value", updated.Artist)
	}

	if _, err := store.UpdateMetadata(ctx, "missing", MetadataUpdate{Title: "x"}); !errors.Is(err, ErrSongNotFound) {
		t.Errorf("Expected ErrSongNotFound for missing id, got %v", err)
	}
}

// TestDelete tests removal and the not-found taxonomy
func TestDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	song := newTestSong("Ephemeral", "Gone Soon")
	if err := store.Create(ctx, song); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := store.Delete(ctx, song.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.GetByID(ctx, song.ID); !errors.Is(err, ErrSongNotFound) {
		t.Errorf("Song still readable after delete: %v", err)
	}
	if err := store.Delete(ctx, song.ID); !errors.Is(err, ErrSongNotFound) {
		t.Errorf("Second delete: expected ErrSongNotFound, got %v", err)
	}
}

// TestCounters tests play/download increments and the stats rollup
func TestCounters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	hit := newTestSong("Chart Topper", "Big Name")
	flop := newTestSong("B Side", "Big Name")
	for _, song := range []*Song{hit, flop} {
		if err := store.Create(ctx, song); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	for i := 0; i < 5; i++ {
		if err := store.IncrementPlays(ctx, hit.ID); err != nil {
			t.Fatalf("IncrementPlays failed: %v", err)
		}
	}
	if err := store.IncrementDownloads(ctx, hit.ID); err != nil {
		t.Fatalf("IncrementDownloads failed: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalSongs != 2 {
		t.Errorf("TotalSongs = %d, expected 2", stats.TotalSongs)
	}
	if stats.TotalPlays != 5 {
		t.Errorf("TotalPlays = %d, expected 5", stats.TotalPlays)
	}
	if stats.TotalDownloads != 1 {
		t.Errorf("TotalDownloads = %d, expected 1", stats.TotalDownloads)
	}
	if len(stats.TopSongs) == 0 || stats.TopSongs[0].ID != hit.ID {
		t.Error("TopSongs does not rank the most-played song first")
	}
}
