package clients

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karaokeforge/queueing-proxy/internal/domain"
)

func writeTempAudio(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "original.wav")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestTranscribeSuccess(t *testing.T) {
	audioPath := writeTempAudio(t, "fake wav bytes")

	var gotFile []byte
	var gotFilename, gotOutputDir string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/transcribe", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotOutputDir = r.FormValue("output_dir")

		file, header, err := r.FormFile("music_file")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = header.Filename
		gotFile, err = io.ReadAll(file)
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"lyrics_txt": "hello world\n",
			"lyrics_json": []map[string]any{
				{"start": 0.0, "end": 1.5, "text": "hello"},
				{"start": 1.5, "end": 3.0, "text": "world"},
			},
		})
	}))
	defer server.Close()

	client := NewTranscriptionClient(server.URL, 5*time.Second)
	result, err := client.Transcribe(context.Background(), audioPath, "/out/song-1")
	require.NoError(t, err)

	assert.Equal(t, "fake wav bytes", string(gotFile))
	assert.Equal(t, "original.wav", gotFilename)
	assert.Equal(t, "/out/song-1", gotOutputDir)
	assert.Equal(t, "hello world\n", result.LyricsText)
	assert.Equal(t, []domain.LyricSegment{
		{Start: 0, End: 1.5, Text: "hello"},
		{Start: 1.5, End: 3, Text: "world"},
	}, result.Lyrics)
}

func TestTranscribeMissingFile(t *testing.T) {
	client := NewTranscriptionClient("http://localhost:1", time.Second)
	_, err := client.Transcribe(context.Background(), filepath.Join(t.TempDir(), "nope.wav"), "/out")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open audio file")
}

func TestTranscribeServiceFailure(t *testing.T) {
	audioPath := writeTempAudio(t, "fake wav bytes")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("model not loaded"))
	}))
	defer server.Close()

	client := NewTranscriptionClient(server.URL, 5*time.Second)
	_, err := client.Transcribe(context.Background(), audioPath, "/out")
	require.Error(t, err)

	var failure *ServiceFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, http.StatusBadGateway, failure.StatusCode)
	assert.Equal(t, "transcription", failure.Service)
	assert.Contains(t, failure.Body, "model not loaded")
}

func TestTranscribeConnectionError(t *testing.T) {
	audioPath := writeTempAudio(t, "fake wav bytes")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse all connections

	client := NewTranscriptionClient(server.URL, time.Second)
	_, err := client.Transcribe(context.Background(), audioPath, "/out")
	require.Error(t, err)

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "transcription", connErr.Service)
}

func TestTranscribeUnparseableLyrics(t *testing.T) {
	audioPath := writeTempAudio(t, "fake wav bytes")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"lyrics_txt": "x", "lyrics_json": "not an array"}`))
	}))
	defer server.Close()

	client := NewTranscriptionClient(server.URL, time.Second)
	_, err := client.Transcribe(context.Background(), audioPath, "/out")

	var failure *ServiceFailure
	require.ErrorAs(t, err, &failure)
	assert.Contains(t, failure.Body, "unparseable lyrics_json")
}
