package container

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kartoza/kartoza-narration-tuner/internal/bridge"
	"github.com/kartoza/kartoza-narration-tuner/internal/models"
	"github.com/kartoza/kartoza-narration-tuner/internal/workspace"
)

// Track audio is analysed at a fixed layout and re-encoded at a fixed
// codec and bit rate
const (
	TrackSampleRate = 48000
	TrackChannels   = 2
	TrackAudioCodec = "aac"
	TrackBitRate    = "192k"
)

// TrackState is the lifecycle position of a Track
type TrackState int

const (
	TrackUnopened TrackState = iota
	TrackValidated
	TrackAudioExtracted
	TrackAudioReplaced
)

func (s TrackState) String() string {
	switch s {
	case TrackUnopened:
		return "unopened"
	case TrackValidated:
		return "validated"
	case TrackAudioExtracted:
		return "audio extracted"
	case TrackAudioReplaced:
		return "audio replaced"
	default:
		return "unknown"
	}
}

// Track is an MP4 file with one video and one audio stream
type Track struct {
	path   string
	bridge *bridge.Bridge
	info   *bridge.ProbeResult
	asset  *models.AudioAsset
	state  TrackState
}

// ValidateTrack checks that path is an MP4 with both a video and an audio
// stream
func ValidateTrack(ctx context.Context, b *bridge.Bridge, path string) (*Track, error) {
	if !strings.EqualFold(filepath.Ext(path), ".mp4") {
		return nil, fmt.Errorf("%w: %s (only .mp4 is supported)", ErrUnsupportedFormat, path)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContainer, err)
	}
	if err := b.Available(); err != nil {
		return nil, err
	}

	info, err := b.Probe(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidContainer, err)
	}
	if !strings.Contains(info.Format, "mp4") {
		return nil, fmt.Errorf("%w: %s is %q", ErrUnsupportedFormat, path, info.Format)
	}
	if _, ok := info.FirstVideo(); !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoVideoStream, path)
	}
	if _, ok := info.FirstAudio(); !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoAudioStream, path)
	}

	return &Track{path: path, bridge: b, info: info, state: TrackValidated}, nil
}

// Path returns the input video path
func (t *Track) Path() string {
	return t.path
}

// State returns the current lifecycle state
func (t *Track) State() TrackState {
	return t.state
}

// Duration returns the probed container duration in seconds
func (t *Track) Duration() float64 {
	return t.info.Duration
}

// ExtractAudio decodes the first audio stream into a 48 kHz stereo 16-bit
// WAV inside ws
func (t *Track) ExtractAudio(ctx context.Context, ws *workspace.Workspace) (*models.AudioAsset, error) {
	if t.state != TrackValidated {
		return nil, fmt.Errorf("cannot extract audio in state %s", t.state)
	}

	path, err := ws.Path(models.TrackAssetName + ".wav")
	if err != nil {
		return nil, err
	}

	err = t.bridge.Run(ctx, t.info.Duration,
		"-i", t.path,
		"-vn", "-map", "0:a:0",
		"-ac", fmt.Sprint(TrackChannels),
		"-ar", fmt.Sprint(TrackSampleRate),
		"-c:a", "pcm_s16le",
		"-f", "wav", path,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to extract audio from %s: %w", t.path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat extracted audio: %w", err)
	}

	t.asset = &models.AudioAsset{
		Name:  models.TrackAssetName,
		Path:  path,
		Codec: "wav",
		Size:  info.Size(),
	}
	t.state = TrackAudioExtracted
	return t.asset, nil
}

// ReplaceAudio writes dest with the original video stream copied and the
// processed audio re-encoded. If the audio asset was not replaced the input
// file is copied unchanged.
func (t *Track) ReplaceAudio(ctx context.Context, dest string, overwrite bool) error {
	if t.state != TrackAudioExtracted {
		return fmt.Errorf("cannot replace audio in state %s", t.state)
	}
	if err := checkDistinct(t.path, dest); err != nil {
		return err
	}

	out, err := PrepareOutput(dest, overwrite)
	if err != nil {
		return err
	}

	if t.asset.Replaced {
		err = t.mux(ctx, out)
	} else {
		err = copyInto(t.path, out.File())
	}
	if err != nil {
		out.Abort()
		return err
	}
	if err := out.Commit(); err != nil {
		return err
	}

	t.state = TrackAudioReplaced
	return nil
}

func (t *Track) mux(ctx context.Context, out *Output) error {
	// ffmpeg reopens the temp path itself
	if err := out.Close(); err != nil {
		return err
	}

	err := t.bridge.Run(ctx, t.info.Duration,
		"-i", t.path,
		"-i", t.asset.Path,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-map_metadata", "0",
		"-c:v", "copy",
		"-c:a", TrackAudioCodec,
		"-b:a", TrackBitRate,
		"-shortest",
		"-f", "mp4",
		out.Path(),
	)
	if err != nil {
		return fmt.Errorf("failed to mux audio into %s: %w", out.Dest(), err)
	}
	return nil
}

func copyInto(src string, dst *os.File) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	if _, err := io.Copy(dst, in); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return nil
}
