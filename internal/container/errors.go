// Package container extracts narration audio from slide-deck archives and
// video files and writes new containers with the audio replaced.
package container

import "errors"

var (
	// ErrInvalidContainer is returned for inputs that are not a well-formed
	// container of the expected layout
	ErrInvalidContainer = errors.New("invalid container")
	// ErrNoAudioStream is returned when a video file has no audio track
	ErrNoAudioStream = errors.New("no audio stream")
	// ErrNoVideoStream is returned when a video file has no video track
	ErrNoVideoStream = errors.New("no video stream")
	// ErrUnsupportedFormat is returned for container types other than MP4
	ErrUnsupportedFormat = errors.New("unsupported container format")
	// ErrOverwriteRefused is returned when the output exists and overwrite
	// was not requested
	ErrOverwriteRefused = errors.New("output exists and overwrite was not requested")
)
