package media

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Library stores every artifact for a song under a single directory named by
// the song id, so concurrently processed songs never contend on files.
type Library struct {
	root     string
	maxBytes int64
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// NewLibrary creates a library rooted at root. maxBytes caps how much of an
// upload is persisted; zero or negative means no cap.
func NewLibrary(root string, maxBytes int64) *Library {
	return &Library{
		root:     root,
		maxBytes: maxBytes,
	}
}

// SongDir returns the output directory for a song, creating it if needed.
func (l *Library) SongDir(songID string) (string, error) {
	dir := filepath.Join(l.root, songID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to ensure song directory: %w", err)
	}
	return dir, nil
}

// SaveUpload persists an uploaded music file into the song's directory and
// returns its absolute path. The client-supplied filename is sanitized before
// use.
func (l *Library) SaveUpload(songID string, fileHeader *multipart.FileHeader) (string, error) {
	if fileHeader == nil {
		return "", fmt.Errorf("no file provided")
	}

	dir, err := l.SongDir(songID)
	if err != nil {
		return "", err
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer func() { _ = src.Close() }()

	dstPath := filepath.Join(dir, sanitizeFilename(fileHeader.Filename))

	dst, err := os.OpenFile(dstPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer func() { _ = dst.Close() }()

	var reader io.Reader = src
	if l.maxBytes > 0 {
		reader = io.LimitReader(src, l.maxBytes)
	}

	if _, err := io.Copy(dst, reader); err != nil {
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("failed to copy upload: %w", err)
	}

	return dstPath, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	base = unsafeFilenameChars.ReplaceAllString(base, "_")
	if base == "" || base == "." || base == ".." {
		return "upload.bin"
	}
	return base
}
