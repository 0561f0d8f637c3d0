package handler

import (
	"log/slog"

	"github.com/karaokeforge/queueing-proxy/internal/api/storage"
	"github.com/karaokeforge/queueing-proxy/internal/media"
	"github.com/karaokeforge/queueing-proxy/internal/orchestrator"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger   *slog.Logger
	Storage  *storage.Storage
	Library  *media.Library
	Pipeline *orchestrator.Pipeline
}

// SongHandler handles song-related HTTP requests
type SongHandler struct {
	logger   *slog.Logger
	storage  *storage.Storage
	library  *media.Library
	pipeline *orchestrator.Pipeline
}

// NewSongHandler creates a new SongHandler instance
func NewSongHandler(deps *Dependencies) *SongHandler {
	return &SongHandler{
		logger:   deps.Logger,
		storage:  deps.Storage,
		library:  deps.Library,
		pipeline: deps.Pipeline,
	}
}
