package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/karaokeforge/queueing-proxy/internal/api/dto"
	"github.com/karaokeforge/queueing-proxy/internal/api/model"
	"github.com/karaokeforge/queueing-proxy/internal/domain"
)

const missingFieldMessage = "Missing data for required field."

// QueueRequest handles POST /queue_request.
// Validates the multipart form, stores the upload, creates the song record
// and dispatches the background unit. Returns 201 with the queued record; the
// caller polls /get_song_data for progress.
func (h *SongHandler) QueueRequest(c *gin.Context) {
	songTitle := strings.TrimSpace(c.PostForm("song_title"))
	originalArtist := strings.TrimSpace(c.PostForm("original_artist"))
	performerName := strings.TrimSpace(c.PostForm("performer_name"))

	fieldErrors := gin.H{}
	if songTitle == "" {
		fieldErrors["song_title"] = []string{missingFieldMessage}
	}
	if originalArtist == "" {
		fieldErrors["original_artist"] = []string{missingFieldMessage}
	}
	if performerName == "" {
		fieldErrors["performer_name"] = []string{missingFieldMessage}
	}

	fileHeader, err := c.FormFile("music_file")
	switch {
	case err != nil:
		fieldErrors["music_file"] = []string{missingFieldMessage}
	case fileHeader.Filename == "":
		fieldErrors["music_file"] = []string{"No selected file."}
	}

	if len(fieldErrors) > 0 {
		h.logger.Info("Queue request rejected",
			slog.Int("invalid_fields", len(fieldErrors)),
		)
		c.JSON(http.StatusBadRequest, fieldErrors)
		return
	}

	// The id is assigned before the file is persisted so it can name the
	// song's output directory.
	songID := uuid.New().String()

	savedPath, err := h.library.SaveUpload(songID, fileHeader)
	if err != nil {
		h.logger.Error("Failed to store upload",
			slog.String("song_id", songID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to store uploaded file",
		})
		return
	}

	now := time.Now().UTC()
	song := model.Song{
		SongID:           songID,
		SongTitle:        songTitle,
		OriginalArtist:   originalArtist,
		PerformerName:    performerName,
		Status:           domain.StatusQueued,
		OriginalFilePath: savedPath,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := h.storage.CreateSong(c.Request.Context(), &song); err != nil {
		h.logger.Error("Failed to create song record",
			slog.String("song_id", songID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create song record",
		})
		return
	}

	h.pipeline.Dispatch(&song)

	h.logger.Info("Song queued",
		slog.String("song_id", songID),
		slog.String("song_title", songTitle),
		slog.String("original_artist", originalArtist),
	)

	c.JSON(http.StatusCreated, dto.QueueRequestResponse{
		SongID:            song.SongID,
		SongTitle:         song.SongTitle,
		OriginalArtist:    song.OriginalArtist,
		PerformerName:     song.PerformerName,
		OriginalMusicFile: song.OriginalFilePath,
		Status:            song.Status,
	})
}

// GetSongData handles GET /get_song_data?song_id=<id>
func (h *SongHandler) GetSongData(c *gin.Context) {
	songID := c.Query("song_id")
	if songID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "song_id is required",
		})
		return
	}

	song, err := h.storage.GetSongByID(c.Request.Context(), songID)
	if err != nil {
		if errors.Is(err, domain.ErrSongNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "song not found",
			})
			return
		}
		h.logger.Error("Failed to get song",
			slog.String("song_id", songID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get song",
		})
		return
	}

	c.JSON(http.StatusOK, dto.NewSongData(song))
}

// ListAvailableSongs handles GET /list_available_songs
func (h *SongHandler) ListAvailableSongs(c *gin.Context) {
	songs, err := h.storage.ListSongs(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list songs",
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list songs",
		})
		return
	}

	c.JSON(http.StatusOK, summarize(songs))
}

// FindSongByTitle handles GET /find_song_by_title?song_title=<t>
func (h *SongHandler) FindSongByTitle(c *gin.Context) {
	title := c.Query("song_title")
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "song_title is required",
		})
		return
	}

	songs, err := h.storage.FindSongsByTitle(c.Request.Context(), title)
	if err != nil {
		h.logger.Error("Failed to find songs by title",
			slog.String("song_title", title),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to find songs",
		})
		return
	}

	c.JSON(http.StatusOK, summarize(songs))
}

// FindSongsByOriginalArtist handles GET /find_songs_by_original_artist?original_artist=<a>
func (h *SongHandler) FindSongsByOriginalArtist(c *gin.Context) {
	artist := c.Query("original_artist")
	if artist == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "original_artist is required",
		})
		return
	}

	songs, err := h.storage.FindSongsByArtist(c.Request.Context(), artist)
	if err != nil {
		h.logger.Error("Failed to find songs by artist",
			slog.String("original_artist", artist),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to find songs",
		})
		return
	}

	c.JSON(http.StatusOK, summarize(songs))
}

// StreamAudio handles GET /stream_audio?song_id=<id>&type=<kind>.
// Only paths held on the song record are ever served, so a request cannot
// reach arbitrary files.
func (h *SongHandler) StreamAudio(c *gin.Context) {
	songID := c.Query("song_id")
	if songID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "song_id is required",
		})
		return
	}

	kind := c.Query("type")

	song, err := h.storage.GetSongByID(c.Request.Context(), songID)
	if err != nil {
		if errors.Is(err, domain.ErrSongNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "song not found",
			})
			return
		}
		h.logger.Error("Failed to get song",
			slog.String("song_id", songID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get song",
		})
		return
	}

	var path string
	switch kind {
	case "original":
		path = song.OriginalFilePath
	case "instrumental":
		if song.InstrumentalFilePath.Valid {
			path = song.InstrumentalFilePath.String
		}
	case "vocals":
		if song.VocalsFilePath.Valid {
			path = song.VocalsFilePath.String
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "type must be one of original, instrumental, vocals",
		})
		return
	}

	if path == "" {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "audio file not available",
		})
		return
	}

	if _, err := os.Stat(path); err != nil {
		h.logger.Warn("Artifact path set but file missing",
			slog.String("song_id", songID),
			slog.String("type", kind),
			slog.String("path", path),
		)
		c.JSON(http.StatusNotFound, gin.H{
			"error": "audio file not available",
		})
		return
	}

	c.File(path)
}

// RemoveSongData handles GET /remove_song_data?song_id=<id>.
// Removal is idempotent and does not reclaim on-disk artifacts.
func (h *SongHandler) RemoveSongData(c *gin.Context) {
	songID := c.Query("song_id")
	if songID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "song_id is required",
		})
		return
	}

	if err := h.storage.DeleteSong(c.Request.Context(), songID); err != nil {
		h.logger.Error("Failed to delete song",
			slog.String("song_id", songID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete song",
		})
		return
	}

	c.JSON(http.StatusOK, dto.RemoveSongResponse{
		SongID: songID,
		Status: "removed",
	})
}

func summarize(songs []model.Song) []dto.SongSummary {
	summaries := make([]dto.SongSummary, len(songs))
	for i := range songs {
		summaries[i] = dto.NewSongSummary(&songs[i])
	}
	return summaries
}
