package dto

import (
	"encoding/json"

	"github.com/karaokeforge/queueing-proxy/internal/api/model"
	"github.com/karaokeforge/queueing-proxy/internal/domain"
)

// QueueRequestResponse is returned by POST /queue_request once the record
// exists and the background unit has been dispatched.
type QueueRequestResponse struct {
	SongID            string `json:"song_id"`
	SongTitle         string `json:"song_title"`
	OriginalArtist    string `json:"original_artist"`
	PerformerName     string `json:"performer_name"`
	OriginalMusicFile string `json:"original_music_file"`
	Status            string `json:"status"`
}

// SongSummary is the listing/search projection of a song record.
type SongSummary struct {
	SongID         string  `json:"song_id"`
	SongTitle      string  `json:"song_title"`
	OriginalArtist string  `json:"original_artist"`
	Status         string  `json:"status"`
	OwnerID        *string `json:"owner_id"`
}

// SongData is the full polling view returned by GET /get_song_data.
type SongData struct {
	SongID         string                `json:"song_id"`
	SongTitle      string                `json:"song_title"`
	OriginalArtist string                `json:"original_artist"`
	PerformerName  string                `json:"performer_name"`
	Status         string                `json:"status"`
	OwnerID        *string               `json:"owner_id"`
	LyricsJSON     []domain.LyricSegment `json:"lyrics_json"`
	LyricsText     *string               `json:"lyrics_text"`
}

// RemoveSongResponse acknowledges GET /remove_song_data.
type RemoveSongResponse struct {
	SongID string `json:"song_id"`
	Status string `json:"status"`
}

// NewSongSummary maps a song record to its summary projection.
func NewSongSummary(song *model.Song) SongSummary {
	summary := SongSummary{
		SongID:         song.SongID,
		SongTitle:      song.SongTitle,
		OriginalArtist: song.OriginalArtist,
		Status:         song.Status,
	}
	if song.OwnerID.Valid {
		summary.OwnerID = &song.OwnerID.String
	}
	return summary
}

// NewSongData maps a song record to the full polling view. A lyrics_json
// column that cannot be parsed is reported as absent rather than failing the
// read.
func NewSongData(song *model.Song) SongData {
	data := SongData{
		SongID:         song.SongID,
		SongTitle:      song.SongTitle,
		OriginalArtist: song.OriginalArtist,
		PerformerName:  song.PerformerName,
		Status:         song.Status,
	}
	if song.OwnerID.Valid {
		data.OwnerID = &song.OwnerID.String
	}
	if song.LyricsText.Valid {
		data.LyricsText = &song.LyricsText.String
	}
	if song.LyricsJSON.Valid && song.LyricsJSON.String != "" {
		var segments []domain.LyricSegment
		if err := json.Unmarshal([]byte(song.LyricsJSON.String), &segments); err == nil {
			data.LyricsJSON = segments
		}
	}
	return data
}
