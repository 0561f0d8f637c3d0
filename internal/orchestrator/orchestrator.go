package orchestrator

import (
	"context"
	"errors"
	"log/slog"

	"github.com/karaokeforge/queueing-proxy/internal/api/model"
	"github.com/karaokeforge/queueing-proxy/internal/api/storage"
	"github.com/karaokeforge/queueing-proxy/internal/clients"
	"github.com/karaokeforge/queueing-proxy/internal/domain"
	"github.com/karaokeforge/queueing-proxy/internal/media"
)

// Separator splits a music track into vocal and instrumental stems.
type Separator interface {
	Separate(ctx context.Context, inputPath, outputDir string) (*clients.SeparationResult, error)
}

// Transcriber converts vocal audio into time-aligned lyric segments.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, outputDir string) (*clients.TranscriptionResult, error)
}

// Converter canonicalizes an uploaded audio file for the downstream services.
type Converter interface {
	EnsureWAV(ctx context.Context, inputPath string) (string, error)
}

// Config holds pipeline dependencies
type Config struct {
	Logger        *slog.Logger
	Storage       *storage.Storage
	Library       *media.Library
	Converter     Converter
	Separation    Separator
	Transcription Transcriber
}

// Pipeline drives a song through separation and transcription in a detached
// background goroutine. The creating request never waits on it; progress is
// observable only through the song record.
type Pipeline struct {
	logger        *slog.Logger
	storage       *storage.Storage
	library       *media.Library
	converter     Converter
	separation    Separator
	transcription Transcriber
}

// NewPipeline creates a new pipeline instance
func NewPipeline(cfg *Config) *Pipeline {
	return &Pipeline{
		logger:        cfg.Logger,
		storage:       cfg.Storage,
		library:       cfg.Library,
		converter:     cfg.Converter,
		separation:    cfg.Separation,
		transcription: cfg.Transcription,
	}
}

// Dispatch launches the background execution unit for a freshly queued song
// and returns immediately. No handle is retained; there is no cancellation
// once dispatched.
func (p *Pipeline) Dispatch(song *model.Song) {
	snapshot := *song
	go p.run(context.Background(), snapshot)
}

func (p *Pipeline) run(ctx context.Context, song model.Song) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Background unit panicked",
				slog.String("song_id", song.SongID),
				slog.Any("panic", r),
			)
		}
	}()

	p.logger.Info("Background processing started",
		slog.String("song_id", song.SongID),
		slog.String("song_title", song.SongTitle),
	)

	outputDir, err := p.library.SongDir(song.SongID)
	if err != nil {
		p.logger.Error("Failed to ensure output directory",
			slog.String("song_id", song.SongID),
			slog.String("error", err.Error()),
		)
		p.fail(ctx, song.SongID, domain.StatusErrorSeparation)
		return
	}

	inputPath := p.prepareInput(ctx, &song)

	// Stage 1: separation.
	if err := p.storage.MarkSeparating(ctx, song.SongID); err != nil {
		p.logger.Error("Failed to update song status",
			slog.String("song_id", song.SongID),
			slog.String("error", err.Error()),
		)
		return
	}

	sepResult, err := p.separation.Separate(ctx, inputPath, outputDir)
	if err != nil {
		p.logger.Error("Separation stage failed",
			slog.String("song_id", song.SongID),
			slog.String("error", err.Error()),
		)
		p.fail(ctx, song.SongID, classify(err, domain.StatusErrorSeparation, domain.StatusErrorSeparationConnection))
		return
	}

	if err := p.storage.MarkTranscribing(ctx, song.SongID, sepResult.InstrumentalPath, sepResult.VocalsPath); err != nil {
		p.logger.Error("Failed to update song status",
			slog.String("song_id", song.SongID),
			slog.String("error", err.Error()),
		)
		return
	}

	p.logger.Info("Separation stage complete",
		slog.String("song_id", song.SongID),
		slog.String("vocals", sepResult.VocalsPath),
		slog.String("instrumental", sepResult.InstrumentalPath),
	)

	// Stage 2: transcription, reading from the original upload rather than
	// the separation output.
	transResult, err := p.transcription.Transcribe(ctx, inputPath, outputDir)
	if err != nil {
		p.logger.Error("Transcription stage failed",
			slog.String("song_id", song.SongID),
			slog.String("error", err.Error()),
		)
		p.fail(ctx, song.SongID, classify(err, domain.StatusErrorTranscription, domain.StatusErrorTranscriptionConnection))
		return
	}

	if err := p.storage.MarkDone(ctx, song.SongID, transResult.LyricsText, transResult.Lyrics); err != nil {
		p.logger.Error("Failed to update song status",
			slog.String("song_id", song.SongID),
			slog.String("error", err.Error()),
		)
		return
	}

	p.logger.Info("Background processing complete",
		slog.String("song_id", song.SongID),
		slog.Int("lyric_segments", len(transResult.Lyrics)),
	)
}

// prepareInput canonicalizes the uploaded file and repoints the record at
// the converted copy. Conversion failure is a warning, not a terminal state;
// processing continues on the original file and the downstream services may
// reject it themselves.
func (p *Pipeline) prepareInput(ctx context.Context, song *model.Song) string {
	converted, err := p.converter.EnsureWAV(ctx, song.OriginalFilePath)
	if err != nil {
		p.logger.Warn("Audio conversion failed, continuing with original file",
			slog.String("song_id", song.SongID),
			slog.String("path", song.OriginalFilePath),
			slog.String("error", err.Error()),
		)
		return song.OriginalFilePath
	}

	if converted == song.OriginalFilePath {
		return converted
	}

	if err := p.storage.UpdateOriginalFilePath(ctx, song.SongID, converted); err != nil {
		p.logger.Warn("Failed to repoint original file path",
			slog.String("song_id", song.SongID),
			slog.String("error", err.Error()),
		)
		return song.OriginalFilePath
	}

	song.OriginalFilePath = converted
	return converted
}

func (p *Pipeline) fail(ctx context.Context, songID, errorStatus string) {
	if err := p.storage.MarkFailed(ctx, songID, errorStatus); err != nil {
		p.logger.Error("Failed to record error status",
			slog.String("song_id", songID),
			slog.String("status", errorStatus),
			slog.String("error", err.Error()),
		)
	}
}

// classify maps a downstream client error onto the matching terminal status:
// connection failures get the _connection variant, everything else the plain
// service failure status.
func classify(err error, failureStatus, connectionStatus string) string {
	var connErr *clients.ConnectionError
	if errors.As(err, &connErr) {
		return connectionStatus
	}
	return failureStatus
}
