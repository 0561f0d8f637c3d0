package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/karaokeforge/queueing-proxy/internal/domain"
)

const transcriptionServiceName = "transcription"

// TranscriptionResult holds the transcription service output.
type TranscriptionResult struct {
	LyricsText string
	Lyrics     []domain.LyricSegment
}

// TranscriptionClient is a thin request/response client for the lyrics
// transcription service. The audio bytes are streamed from the original
// uploaded file, since the separation step may have consumed or moved its
// own inputs.
type TranscriptionClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewTranscriptionClient creates a client for the transcription service at
// baseURL. A zero timeout leaves the call bounded only by transport defaults.
func NewTranscriptionClient(baseURL string, timeout time.Duration) *TranscriptionClient {
	return &TranscriptionClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type transcribeResponse struct {
	LyricsTxt  string          `json:"lyrics_txt"`
	LyricsJSON json.RawMessage `json:"lyrics_json"`
}

// Transcribe streams the audio file at audioPath to the service as a
// multipart request and returns the lyrics it produced.
func (c *TranscriptionClient) Transcribe(ctx context.Context, audioPath, outputDir string) (*TranscriptionResult, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer func() { _ = file.Close() }()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	// Encode the multipart body on a pipe so the file is streamed rather
	// than buffered in memory.
	go func() {
		part, err := mw.CreateFormFile("music_file", filepath.Base(audioPath))
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		if err := mw.WriteField("output_dir", outputDir); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcribe", pr)
	if err != nil {
		return nil, fmt.Errorf("failed to build transcribe request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ConnectionError{Service: transcriptionServiceName, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectionError{Service: transcriptionServiceName, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ServiceFailure{
			Service:    transcriptionServiceName,
			StatusCode: resp.StatusCode,
			Body:       excerpt(respBody),
		}
	}

	var parsed transcribeResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &ServiceFailure{
			Service:    transcriptionServiceName,
			StatusCode: resp.StatusCode,
			Body:       "unparseable response: " + excerpt(respBody),
		}
	}

	result := &TranscriptionResult{LyricsText: parsed.LyricsTxt}
	if len(parsed.LyricsJSON) > 0 {
		if err := json.Unmarshal(parsed.LyricsJSON, &result.Lyrics); err != nil {
			return nil, &ServiceFailure{
				Service:    transcriptionServiceName,
				StatusCode: resp.StatusCode,
				Body:       "unparseable lyrics_json: " + excerpt(parsed.LyricsJSON),
			}
		}
	}

	return result, nil
}
