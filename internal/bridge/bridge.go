// Package bridge converts between encoded audio files and in-memory PCM
// buffers. PCM WAV is handled natively; every other codec is transcoded
// through an external ffmpeg binary.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/kartoza/kartoza-narration-tuner/internal/models"
)

var (
	// ErrTranscodeUnavailable is returned when a bridged codec is needed
	// but no ffmpeg/ffprobe binaries were resolved
	ErrTranscodeUnavailable = errors.New("transcoder unavailable: ffmpeg and ffprobe are required")
	// ErrUnsupportedCodec is returned for codecs outside the codec table
	ErrUnsupportedCodec = errors.New("unsupported audio codec")
)

// DefaultBitRate is used when the source bit rate cannot be probed
const DefaultBitRate = 192000

// intermediateBitDepth is the PCM depth used between ffmpeg and the DSP
const intermediateBitDepth = 24

// Tools holds the resolved transcoder binaries. The zero value means the
// transcoder is unavailable.
type Tools struct {
	FFmpeg  string
	FFprobe string
}

// Complete reports whether both binaries are known
func (t Tools) Complete() bool {
	return t.FFmpeg != "" && t.FFprobe != ""
}

// codec describes how a bridged codec is written back
type codec struct {
	encoder string
	format  string
	// lossless codecs take no bit rate
	lossless bool
}

var bridged = map[string]codec{
	"mp3":  {encoder: "libmp3lame", format: "mp3"},
	"m4a":  {encoder: "aac", format: "ipod"},
	"aac":  {encoder: "aac", format: "adts"},
	"wma":  {encoder: "wmav2", format: "asf"},
	"flac": {encoder: "flac", format: "flac", lossless: true},
	"ogg":  {encoder: "libvorbis", format: "ogg"},
}

// Supported reports whether a codec tag can be decoded and re-encoded
func Supported(codecTag string) bool {
	if codecTag == "wav" {
		return true
	}
	_, ok := bridged[codecTag]
	return ok
}

// Native reports whether a codec tag is handled without ffmpeg
func Native(codecTag string) bool {
	return codecTag == "wav"
}

// PercentFunc receives transcoding progress between 0 and 100
type PercentFunc func(percent float64)

// Bridge decodes and encodes audio assets
type Bridge struct {
	tools     Tools
	logger    *zap.Logger
	onPercent PercentFunc
}

// New creates a Bridge using the given transcoder binaries
func New(tools Tools, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge{tools: tools, logger: logger}
}

// SetPercentCallback sets the callback for transcoding progress
func (b *Bridge) SetPercentCallback(cb PercentFunc) {
	b.onPercent = cb
}

// Available returns ErrTranscodeUnavailable when the transcoder is missing
func (b *Bridge) Available() error {
	if !b.tools.Complete() {
		return ErrTranscodeUnavailable
	}
	return nil
}

// Decode reads the asset's encoded bytes into a PCM buffer. For bridged
// codecs the asset's BitRate is filled from the probe.
func (b *Bridge) Decode(ctx context.Context, asset *models.AudioAsset) (*models.Buffer, error) {
	if !Supported(asset.Codec) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCodec, asset.Codec)
	}

	if Native(asset.Codec) {
		buf, err := ReadWAV(asset.Path)
		if err == nil {
			return buf, nil
		}
		if !errors.Is(err, errNotPCM) {
			return nil, err
		}
		// Compressed WAV payloads (ADPCM, float, mu-law) go through ffmpeg
		b.logger.Debug("WAV is not integer PCM, transcoding",
			zap.String("asset", asset.Name))
	}

	if err := b.Available(); err != nil {
		return nil, err
	}

	info, err := b.Probe(ctx, asset.Path)
	if err != nil {
		return nil, err
	}
	stream, ok := info.FirstAudio()
	if !ok {
		return nil, fmt.Errorf("no audio stream in %s", asset.Name)
	}
	asset.BitRate = stream.BitRate
	if asset.BitRate == 0 {
		asset.BitRate = info.BitRate
	}

	tmp := asset.Path + ".decode.wav"
	defer os.Remove(tmp)

	args := []string{"-i", asset.Path, "-vn", "-map", "0:a:0",
		"-c:a", fmt.Sprintf("pcm_s%dle", intermediateBitDepth)}
	if stream.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(stream.SampleRate))
	}
	if stream.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(stream.Channels))
	}
	args = append(args, "-f", "wav", tmp)

	b.logger.Debug("decoding via ffmpeg",
		zap.String("asset", asset.Name),
		zap.String("codec", stream.CodecName),
		zap.Int("sample_rate", stream.SampleRate),
		zap.Int("channels", stream.Channels),
		zap.Int("bit_rate", asset.BitRate))

	if err := b.Run(ctx, info.Duration, args...); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", asset.Name, err)
	}

	buf, err := ReadWAV(tmp)
	if err != nil {
		return nil, fmt.Errorf("failed to read decoded %s: %w", asset.Name, err)
	}
	// Lossy sources have no meaningful integer depth; keep the intermediate
	if bits := stream.BitsPerSample; bits == 16 || bits == 24 || bits == 32 {
		buf.BitDepth = bits
	}
	return buf, nil
}

// Encode writes buf to dest in the asset's source codec
func (b *Bridge) Encode(ctx context.Context, buf *models.Buffer, asset *models.AudioAsset, dest string) error {
	if !Supported(asset.Codec) {
		return fmt.Errorf("%w: %s", ErrUnsupportedCodec, asset.Codec)
	}

	if Native(asset.Codec) {
		return WriteWAV(dest, buf, buf.BitDepth)
	}

	if err := b.Available(); err != nil {
		return err
	}

	c := bridged[asset.Codec]
	tmp := dest + ".encode.wav"
	defer os.Remove(tmp)

	depth := intermediateBitDepth
	if c.lossless && buf.BitDepth == 16 {
		depth = 16
	}
	if err := WriteWAV(tmp, buf, depth); err != nil {
		return err
	}

	args := encodeArgs(c, asset.BitRate, buf.BitDepth, tmp, dest)

	b.logger.Debug("encoding via ffmpeg",
		zap.String("asset", asset.Name),
		zap.String("encoder", c.encoder))

	if err := b.Run(ctx, buf.Seconds(), args...); err != nil {
		return fmt.Errorf("failed to encode %s: %w", asset.Name, err)
	}
	return nil
}

// encodeArgs builds the ffmpeg arguments that write src to dest with codec
// c. Lossless output keeps the source sample depth.
func encodeArgs(c codec, bitRate, bitDepth int, src, dest string) []string {
	args := []string{"-i", src, "-c:a", c.encoder}
	if c.lossless {
		if bitDepth == 16 {
			args = append(args, "-sample_fmt", "s16")
		}
	} else {
		if bitRate <= 0 {
			bitRate = DefaultBitRate
		}
		args = append(args, "-b:a", strconv.Itoa(bitRate))
	}
	return append(args, "-f", c.format, dest)
}
