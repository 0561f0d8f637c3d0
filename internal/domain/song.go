package domain

import (
	"errors"
)

// Song processing statuses. A song only ever moves forward through the
// pipeline or sideways into a terminal error status; no status is re-entered
// once left.
const (
	StatusQueued       = "queued"
	StatusSeparating   = "separating"
	StatusTranscribing = "transcribing"
	StatusDone         = "done"

	StatusErrorSeparation              = "error_separation"
	StatusErrorSeparationConnection    = "error_separation_connection"
	StatusErrorTranscription           = "error_transcription"
	StatusErrorTranscriptionConnection = "error_transcription_connection"
)

var (
	ErrSongNotFound = errors.New("song not found")
)

// IsTerminal reports whether a status ends the pipeline for good.
func IsTerminal(status string) bool {
	return status == StatusDone || IsErrorStatus(status)
}

// IsErrorStatus reports whether a status is one of the terminal error states.
func IsErrorStatus(status string) bool {
	switch status {
	case StatusErrorSeparation,
		StatusErrorSeparationConnection,
		StatusErrorTranscription,
		StatusErrorTranscriptionConnection:
		return true
	}
	return false
}

// LyricSegment is one time-aligned line of transcribed lyrics.
type LyricSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}
