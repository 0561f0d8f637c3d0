package model

import (
	"database/sql"
	"time"
)

type Song struct {
	SongID               string         `db:"song_id"`
	SongTitle            string         `db:"song_title"`
	OriginalArtist       string         `db:"original_artist"`
	PerformerName        string         `db:"performer_name"`
	OwnerID              sql.NullString `db:"owner_id"`
	Status               string         `db:"status"`
	OriginalFilePath     string         `db:"original_file_path"`
	InstrumentalFilePath sql.NullString `db:"instrumental_file_path"`
	VocalsFilePath       sql.NullString `db:"vocals_file_path"`
	LyricsText           sql.NullString `db:"lyrics_text"`
	LyricsJSON           sql.NullString `db:"lyrics_json"`
	CreatedAt            time.Time      `db:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at"`
}
