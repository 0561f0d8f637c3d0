package media

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// CanonicalExt is the audio format the downstream services expect.
const CanonicalExt = ".wav"

// Converter canonicalizes uploaded audio via an external ffmpeg binary.
type Converter struct {
	ffmpegPath string
}

// NewConverter creates a converter. ffmpegPath defaults to "ffmpeg" on PATH.
func NewConverter(ffmpegPath string) *Converter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Converter{ffmpegPath: ffmpegPath}
}

// EnsureWAV converts inputPath to a WAV file alongside it and returns the
// converted path. Files already in the canonical format are returned as-is.
func (c *Converter) EnsureWAV(ctx context.Context, inputPath string) (string, error) {
	if strings.EqualFold(filepath.Ext(inputPath), CanonicalExt) {
		return inputPath, nil
	}

	outputPath := strings.TrimSuffix(inputPath, filepath.Ext(inputPath)) + CanonicalExt

	cmd := exec.CommandContext(ctx, c.ffmpegPath, "-y", "-i", inputPath, outputPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg conversion failed: %w: %s", err, truncate(string(out), 512))
	}

	return outputPath, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
