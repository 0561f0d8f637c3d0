package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/karaokeforge/queueing-proxy/internal/api/model"
	"github.com/karaokeforge/queueing-proxy/internal/domain"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_time_format=sqlite&_pragma=busy_timeout(5000)", filepath.Join(t.TempDir(), "songs.db"))
	db, err := sqlx.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store := NewStorage(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, store.Migrate(context.Background()))

	return store
}

func newTestSong(id, title, artist string) *model.Song {
	now := time.Now().UTC().Truncate(time.Second)
	return &model.Song{
		SongID:           id,
		SongTitle:        title,
		OriginalArtist:   artist,
		PerformerName:    "Performer",
		Status:           domain.StatusQueued,
		OriginalFilePath: "/tmp/" + id + "/original.wav",
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestCreateAndGetSong(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	song := newTestSong("song-1", "Test Song", "Test Artist")
	require.NoError(t, store.CreateSong(ctx, song))

	got, err := store.GetSongByID(ctx, "song-1")
	require.NoError(t, err)

	assert.Equal(t, "song-1", got.SongID)
	assert.Equal(t, "Test Song", got.SongTitle)
	assert.Equal(t, "Test Artist", got.OriginalArtist)
	assert.Equal(t, "Performer", got.PerformerName)
	assert.Equal(t, domain.StatusQueued, got.Status)
	assert.Equal(t, song.OriginalFilePath, got.OriginalFilePath)
	assert.False(t, got.OwnerID.Valid)
	assert.False(t, got.InstrumentalFilePath.Valid)
	assert.False(t, got.VocalsFilePath.Valid)
	assert.False(t, got.LyricsText.Valid)
	assert.False(t, got.LyricsJSON.Valid)
}

func TestGetSongNotFound(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetSongByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrSongNotFound)
}

func TestListSongs(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	songs, err := store.ListSongs(ctx)
	require.NoError(t, err)
	assert.Empty(t, songs)

	require.NoError(t, store.CreateSong(ctx, newTestSong("song-a", "First", "Artist A")))
	require.NoError(t, store.CreateSong(ctx, newTestSong("song-b", "Second", "Artist B")))

	songs, err = store.ListSongs(ctx)
	require.NoError(t, err)
	require.Len(t, songs, 2)
	assert.Equal(t, "song-a", songs[0].SongID)
	assert.Equal(t, "song-b", songs[1].SongID)
}

func TestFindSongs(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.CreateSong(ctx, newTestSong("song-a", "Shared Title", "Artist A")))
	require.NoError(t, store.CreateSong(ctx, newTestSong("song-b", "Shared Title", "Artist B")))
	require.NoError(t, store.CreateSong(ctx, newTestSong("song-c", "Other Title", "Artist A")))

	byTitle, err := store.FindSongsByTitle(ctx, "Shared Title")
	require.NoError(t, err)
	assert.Len(t, byTitle, 2)

	// Exact match only
	byTitle, err = store.FindSongsByTitle(ctx, "Shared")
	require.NoError(t, err)
	assert.Empty(t, byTitle)

	byArtist, err := store.FindSongsByArtist(ctx, "Artist A")
	require.NoError(t, err)
	require.Len(t, byArtist, 2)
	assert.Equal(t, "song-a", byArtist[0].SongID)
	assert.Equal(t, "song-c", byArtist[1].SongID)
}

func TestStatusTransitions(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.CreateSong(ctx, newTestSong("song-1", "Test", "Artist")))

	require.NoError(t, store.MarkSeparating(ctx, "song-1"))
	song, err := store.GetSongByID(ctx, "song-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSeparating, song.Status)

	require.NoError(t, store.MarkTranscribing(ctx, "song-1", "/out/song-1/instrumental.wav", "/out/song-1/vocals.wav"))
	song, err = store.GetSongByID(ctx, "song-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusTranscribing, song.Status)
	assert.Equal(t, "/out/song-1/instrumental.wav", song.InstrumentalFilePath.String)
	assert.Equal(t, "/out/song-1/vocals.wav", song.VocalsFilePath.String)

	segments := []domain.LyricSegment{
		{Start: 0.5, End: 2.25, Text: "first line"},
		{Start: 2.5, End: 4.0, Text: "second line"},
	}
	require.NoError(t, store.MarkDone(ctx, "song-1", "first line\nsecond line\n", segments))
	song, err = store.GetSongByID(ctx, "song-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, song.Status)
	assert.Equal(t, "first line\nsecond line\n", song.LyricsText.String)
	assert.JSONEq(t,
		`[{"start":0.5,"end":2.25,"text":"first line"},{"start":2.5,"end":4,"text":"second line"}]`,
		song.LyricsJSON.String,
	)
}

func TestMarkFailed(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.CreateSong(ctx, newTestSong("song-1", "Test", "Artist")))

	for _, status := range []string{
		domain.StatusErrorSeparation,
		domain.StatusErrorSeparationConnection,
		domain.StatusErrorTranscription,
		domain.StatusErrorTranscriptionConnection,
	} {
		require.NoError(t, store.MarkFailed(ctx, "song-1", status))
		song, err := store.GetSongByID(ctx, "song-1")
		require.NoError(t, err)
		assert.Equal(t, status, song.Status)
	}
}

func TestMarkFailedRejectsNonErrorStatus(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.CreateSong(ctx, newTestSong("song-1", "Test", "Artist")))

	err := store.MarkFailed(ctx, "song-1", domain.StatusDone)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a terminal error status")
}

func TestTransitionsOnUnknownSong(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.MarkSeparating(ctx, "missing"), domain.ErrSongNotFound)
	assert.ErrorIs(t, store.MarkTranscribing(ctx, "missing", "a", "b"), domain.ErrSongNotFound)
	assert.ErrorIs(t, store.MarkDone(ctx, "missing", "", nil), domain.ErrSongNotFound)
	assert.ErrorIs(t, store.MarkFailed(ctx, "missing", domain.StatusErrorSeparation), domain.ErrSongNotFound)
}

func TestUpdateOriginalFilePath(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.CreateSong(ctx, newTestSong("song-1", "Test", "Artist")))
	require.NoError(t, store.UpdateOriginalFilePath(ctx, "song-1", "/tmp/song-1/original.converted.wav"))

	song, err := store.GetSongByID(ctx, "song-1")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/song-1/original.converted.wav", song.OriginalFilePath)
}

func TestDeleteSong(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.CreateSong(ctx, newTestSong("song-1", "Test", "Artist")))
	require.NoError(t, store.DeleteSong(ctx, "song-1"))

	_, err := store.GetSongByID(ctx, "song-1")
	assert.ErrorIs(t, err, domain.ErrSongNotFound)

	// Deleting an unknown id is not an error
	assert.NoError(t, store.DeleteSong(ctx, "song-1"))
}
