package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store persists songs in SQLite. One store per process; the sql.DB pool
// handles concurrent handlers, and the play/download counters are plain
// UPDATE ... SET n = n + 1 statements, so lost updates cannot occur at this
// layer even though the callers treat the increments as best-effort.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS songs (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	artist        TEXT NOT NULL,
	album         TEXT NOT NULL DEFAULT 'Unknown Album',
	duration_secs INTEGER NOT NULL DEFAULT 0,
	object_key    TEXT NOT NULL,
	artwork_key   TEXT NOT NULL DEFAULT '',
	size_bytes    INTEGER NOT NULL,
	encrypted     INTEGER NOT NULL,
	plays         INTEGER NOT NULL DEFAULT 0,
	downloads     INTEGER NOT NULL DEFAULT 0,
	uploaded_by   TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_songs_created_at ON songs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_songs_plays ON songs(plays DESC);
`

// Open opens (creating if needed) the catalog database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

const songColumns = `id, title, artist, album, duration_secs, object_key, artwork_key,
	size_bytes, encrypted, plays, downloads, uploaded_by, created_at`

func scanSong(row interface{ Scan(...any) error }) (*Song, error) {
	var song Song
	err := row.Scan(
		&song.ID, &song.Title, &song.Artist, &song.Album, &song.DurationSecs,
		&song.ObjectKey, &song.ArtworkKey, &song.SizeBytes, &song.Encrypted,
		&song.Plays, &song.Downloads, &song.UploadedBy, &song.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &song, nil
}

// Create inserts a new song record.
func (s *Store) Create(ctx context.Context, song *Song) error {
	if song.ID == "" {
		return fmt.Errorf("song id is required")
	}
	if song.CreatedAt.IsZero() {
		song.CreatedAt = time.Now().UTC()
	}
	if song.Album == "" {
		song.Album = "Unknown Album"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO songs (`+songColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		song.ID, song.Title, song.Artist, song.Album, song.DurationSecs,
		song.ObjectKey, song.ArtworkKey, song.SizeBytes, song.Encrypted,
		song.Plays, song.Downloads, song.UploadedBy, song.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert song %s: %w", song.ID, err)
	}
	return nil
}

// GetByID fetches one record.
func (s *Store) GetByID(ctx context.Context, id string) (*Song, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+songColumns+` FROM songs WHERE id = ?`, id)

	song, err := scanSong(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSongNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch song %s: %w", id, err)
	}
	return song, nil
}

// List returns songs matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs`
	var conds []string
	var args []any

	if filter.Search != "" {
		conds = append(conds, `(title LIKE ? OR artist LIKE ? OR album LIKE ?)`)
		like := "%" + filter.Search + "%"
		args = append(args, like, like, like)
	}
	if filter.Artist != "" {
		conds = append(conds, `artist LIKE ?`)
		args = append(args, "%"+filter.Artist+"%")
	}
	if filter.Album != "" {
		conds = append(conds, `album LIKE ?`)
		args = append(args, "%"+filter.Album+"%")
	}

	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list songs: %w", err)
	}
	defer rows.Close()

	var songs []Song
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		songs = append(songs, *song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate songs: %w", err)
	}
	return songs, nil
}

// UpdateMetadata edits the display fields of a record. Empty update fields
// keep the current value.
func (s *Store) UpdateMetadata(ctx context.Context, id string, update MetadataUpdate) (*Song, error) {
	song, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.Title != "" {
		song.Title = update.Title
	}
	if update.Artist != "" {
		song.Artist = update.Artist
	}
	if update.Album != "" {
		song.Album = update.Album
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE songs SET title = ?, artist = ?, album = ? WHERE id = ?`,
		song.Title, song.Artist, song.Album, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update song %s: %w", id, err)
	}
	return song, nil
}

// Delete removes a record.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM songs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete song %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrSongNotFound, id)
	}
	return nil
}

// IncrementPlays bumps the play counter. Callers fire this off the response
// path and only log failures.
func (s *Store) IncrementPlays(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE songs SET plays = plays + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to increment plays for %s: %w", id, err)
	}
	return nil
}

// IncrementDownloads bumps the download counter, same contract as plays.
func (s *Store) IncrementDownloads(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE songs SET downloads = downloads + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to increment downloads for %s: %w", id, err)
	}
	return nil
}

// Stats aggregates the catalog for the admin surface.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats

	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(plays), 0), COALESCE(SUM(downloads), 0) FROM songs`)
	if err := row.Scan(&stats.TotalSongs, &stats.TotalPlays, &stats.TotalDownloads); err != nil {
		return nil, fmt.Errorf("failed to aggregate stats: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+songColumns+` FROM songs ORDER BY plays DESC LIMIT 10`)
	if err != nil {
		return nil, fmt.Errorf("failed to query top songs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan top song: %w", err)
		}
		stats.TopSongs = append(stats.TopSongs, *song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate top songs: %w", err)
	}
	return &stats, nil
}
