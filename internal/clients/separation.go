package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const separationServiceName = "separation"

// SeparationResult holds the stem paths produced by the separation service.
type SeparationResult struct {
	VocalsPath       string
	InstrumentalPath string
}

// SeparationClient is a thin request/response client for the music separation
// service. No retries, no circuit breaking; one call per song.
type SeparationClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewSeparationClient creates a client for the separation service at baseURL.
// A zero timeout leaves the call bounded only by the transport defaults.
func NewSeparationClient(baseURL string, timeout time.Duration) *SeparationClient {
	return &SeparationClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type separateRequest struct {
	InputPath string `json:"input_path"`
	OutputDir string `json:"output_dir"`
}

type separateResponse struct {
	VocalFile         string `json:"vocal_file"`
	AccompanimentFile string `json:"accompaniment_file"`
}

// Separate asks the service to split the audio at inputPath into vocal and
// instrumental stems written under outputDir. It blocks until the service
// responds.
func (c *SeparationClient) Separate(ctx context.Context, inputPath, outputDir string) (*SeparationResult, error) {
	body, err := json.Marshal(separateRequest{
		InputPath: inputPath,
		OutputDir: outputDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal separate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/separate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build separate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ConnectionError{Service: separationServiceName, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectionError{Service: separationServiceName, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ServiceFailure{
			Service:    separationServiceName,
			StatusCode: resp.StatusCode,
			Body:       excerpt(respBody),
		}
	}

	var parsed separateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &ServiceFailure{
			Service:    separationServiceName,
			StatusCode: resp.StatusCode,
			Body:       "unparseable response: " + excerpt(respBody),
		}
	}

	return &SeparationResult{
		VocalsPath:       parsed.VocalFile,
		InstrumentalPath: parsed.AccompanimentFile,
	}, nil
}

func excerpt(body []byte) string {
	const max = 256
	if len(body) > max {
		body = body[:max]
	}
	return string(body)
}
