package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/karaokeforge/queueing-proxy/internal/api/model"
	"github.com/karaokeforge/queueing-proxy/internal/domain"
)

// Storage handles all database operations for song records. Queries are
// written with ? placeholders and passed through sqlx.Rebind so the same
// code path serves the production Postgres client and SQLite test databases.
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

const songColumns = `
	song_id, song_title, original_artist, performer_name, owner_id,
	status, original_file_path, instrumental_file_path, vocals_file_path,
	lyrics_text, lyrics_json, created_at, updated_at
`

// Migrate creates the songs table if it does not exist. The schema sticks to
// TEXT and TIMESTAMP types accepted by both Postgres and SQLite.
func (s *Storage) Migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS songs (
			song_id TEXT PRIMARY KEY,
			song_title TEXT NOT NULL,
			original_artist TEXT NOT NULL,
			performer_name TEXT NOT NULL,
			owner_id TEXT,
			status TEXT NOT NULL,
			original_file_path TEXT NOT NULL,
			instrumental_file_path TEXT,
			vocals_file_path TEXT,
			lyrics_text TEXT,
			lyrics_json TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate songs table: %w", err)
	}

	return nil
}

// CreateSong inserts a new song record. The caller assigns the id and the
// record always starts in the queued status.
func (s *Storage) CreateSong(ctx context.Context, song *model.Song) error {
	query := s.db.Rebind(`
		INSERT INTO songs (` + songColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := s.db.ExecContext(
		ctx,
		query,
		song.SongID,
		song.SongTitle,
		song.OriginalArtist,
		song.PerformerName,
		song.OwnerID,
		song.Status,
		song.OriginalFilePath,
		song.InstrumentalFilePath,
		song.VocalsFilePath,
		song.LyricsText,
		song.LyricsJSON,
		song.CreatedAt,
		song.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create song: %w", err)
	}

	return nil
}

// GetSongByID retrieves a song record by its ID
func (s *Storage) GetSongByID(ctx context.Context, songID string) (*model.Song, error) {
	query := s.db.Rebind(`
		SELECT ` + songColumns + `
		FROM songs
		WHERE song_id = ?
	`)

	var song model.Song
	if err := s.db.GetContext(ctx, &song, query, songID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSongNotFound
		}
		return nil, fmt.Errorf("failed to get song: %w", err)
	}

	return &song, nil
}

// ListSongs returns all song records ordered by creation time
func (s *Storage) ListSongs(ctx context.Context) ([]model.Song, error) {
	query := `
		SELECT ` + songColumns + `
		FROM songs
		ORDER BY created_at, song_id
	`

	songs := []model.Song{}
	if err := s.db.SelectContext(ctx, &songs, query); err != nil {
		return nil, fmt.Errorf("failed to list songs: %w", err)
	}

	return songs, nil
}

// FindSongsByTitle returns all songs whose title matches exactly
func (s *Storage) FindSongsByTitle(ctx context.Context, title string) ([]model.Song, error) {
	query := s.db.Rebind(`
		SELECT ` + songColumns + `
		FROM songs
		WHERE song_title = ?
		ORDER BY created_at, song_id
	`)

	songs := []model.Song{}
	if err := s.db.SelectContext(ctx, &songs, query, title); err != nil {
		return nil, fmt.Errorf("failed to find songs by title: %w", err)
	}

	return songs, nil
}

// FindSongsByArtist returns all songs whose original artist matches exactly
func (s *Storage) FindSongsByArtist(ctx context.Context, artist string) ([]model.Song, error) {
	query := s.db.Rebind(`
		SELECT ` + songColumns + `
		FROM songs
		WHERE original_artist = ?
		ORDER BY created_at, song_id
	`)

	songs := []model.Song{}
	if err := s.db.SelectContext(ctx, &songs, query, artist); err != nil {
		return nil, fmt.Errorf("failed to find songs by artist: %w", err)
	}

	return songs, nil
}

// DeleteSong removes a song record. Deleting an unknown id is not an error.
func (s *Storage) DeleteSong(ctx context.Context, songID string) error {
	query := s.db.Rebind(`DELETE FROM songs WHERE song_id = ?`)

	if _, err := s.db.ExecContext(ctx, query, songID); err != nil {
		return fmt.Errorf("failed to delete song: %w", err)
	}

	return nil
}

// UpdateOriginalFilePath repoints the stored input file, used once after the
// upload has been converted to the canonical format.
func (s *Storage) UpdateOriginalFilePath(ctx context.Context, songID, path string) error {
	query := s.db.Rebind(`
		UPDATE songs
		SET original_file_path = ?, updated_at = ?
		WHERE song_id = ?
	`)

	if err := s.exec(ctx, query, path, time.Now().UTC(), songID); err != nil {
		return fmt.Errorf("failed to update original file path: %w", err)
	}

	s.logger.Info("Original file path updated",
		slog.String("song_id", songID),
		slog.String("path", path),
	)

	return nil
}

// MarkSeparating transitions queued -> separating when the background unit
// starts working on the song.
func (s *Storage) MarkSeparating(ctx context.Context, songID string) error {
	query := s.db.Rebind(`
		UPDATE songs
		SET status = ?, updated_at = ?
		WHERE song_id = ?
	`)

	if err := s.exec(ctx, query, domain.StatusSeparating, time.Now().UTC(), songID); err != nil {
		return fmt.Errorf("failed to mark song separating: %w", err)
	}

	s.logger.Info("Song status updated",
		slog.String("song_id", songID),
		slog.String("status", domain.StatusSeparating),
	)

	return nil
}

// MarkTranscribing transitions separating -> transcribing, persisting the
// stem paths produced by the separation service.
func (s *Storage) MarkTranscribing(ctx context.Context, songID, instrumentalPath, vocalsPath string) error {
	query := s.db.Rebind(`
		UPDATE songs
		SET status = ?, instrumental_file_path = ?, vocals_file_path = ?, updated_at = ?
		WHERE song_id = ?
	`)

	if err := s.exec(ctx, query, domain.StatusTranscribing, instrumentalPath, vocalsPath, time.Now().UTC(), songID); err != nil {
		return fmt.Errorf("failed to mark song transcribing: %w", err)
	}

	s.logger.Info("Song status updated",
		slog.String("song_id", songID),
		slog.String("status", domain.StatusTranscribing),
	)

	return nil
}

// MarkDone transitions transcribing -> done, persisting the lyrics text and
// the serialized time-aligned segments.
func (s *Storage) MarkDone(ctx context.Context, songID, lyricsText string, segments []domain.LyricSegment) error {
	lyricsJSON, err := json.Marshal(segments)
	if err != nil {
		return fmt.Errorf("failed to marshal lyrics segments: %w", err)
	}

	query := s.db.Rebind(`
		UPDATE songs
		SET status = ?, lyrics_text = ?, lyrics_json = ?, updated_at = ?
		WHERE song_id = ?
	`)

	if err := s.exec(ctx, query, domain.StatusDone, lyricsText, string(lyricsJSON), time.Now().UTC(), songID); err != nil {
		return fmt.Errorf("failed to mark song done: %w", err)
	}

	s.logger.Info("Song status updated",
		slog.String("song_id", songID),
		slog.String("status", domain.StatusDone),
	)

	return nil
}

// MarkFailed transitions the song into one of the terminal error statuses.
func (s *Storage) MarkFailed(ctx context.Context, songID, errorStatus string) error {
	if !domain.IsErrorStatus(errorStatus) {
		return fmt.Errorf("status %q is not a terminal error status", errorStatus)
	}

	query := s.db.Rebind(`
		UPDATE songs
		SET status = ?, updated_at = ?
		WHERE song_id = ?
	`)

	if err := s.exec(ctx, query, errorStatus, time.Now().UTC(), songID); err != nil {
		return fmt.Errorf("failed to mark song failed: %w", err)
	}

	s.logger.Warn("Song moved to error status",
		slog.String("song_id", songID),
		slog.String("status", errorStatus),
	)

	return nil
}

func (s *Storage) exec(ctx context.Context, query string, args ...interface{}) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return domain.ErrSongNotFound
	}

	return nil
}
