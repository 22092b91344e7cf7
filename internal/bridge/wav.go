package bridge

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/riff"
	"github.com/go-audio/wav"

	"github.com/kartoza/kartoza-narration-tuner/internal/models"
)

// WAV format tags for integer PCM
const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// errNotPCM marks a valid WAV whose payload is not 16/24/32-bit integer PCM
var errNotPCM = errors.New("WAV payload is not integer PCM")

// ReadWAV decodes a 16, 24 or 32-bit integer PCM WAV file
func ReadWAV(path string) (*models.Buffer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}

	if f := decoder.WavAudioFormat; f != wavFormatPCM && f != wavFormatExtensible {
		return nil, fmt.Errorf("%w: format tag %d", errNotPCM, f)
	}
	if decoder.WavAudioFormat == wavFormatExtensible {
		sub, err := extensibleSubFormat(path)
		if err != nil {
			return nil, fmt.Errorf("invalid WAV file: %w", err)
		}
		if sub != wavFormatPCM {
			return nil, fmt.Errorf("%w: extensible sub-format %d", errNotPCM, sub)
		}
	}
	bitDepth := int(decoder.BitDepth)
	if bitDepth != 16 && bitDepth != 24 && bitDepth != 32 {
		return nil, fmt.Errorf("%w: %d-bit", errNotPCM, bitDepth)
	}

	pcm, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("could not read PCM buffer: %w", err)
	}

	channels := int(decoder.NumChans)
	if channels == 0 {
		return nil, errors.New("invalid WAV file: zero channels")
	}
	frames := len(pcm.Data) / channels
	buf := models.NewBuffer(channels, frames, int(decoder.SampleRate), bitDepth)

	scale := math.Ldexp(1, bitDepth-1)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			buf.Channels[ch][i] = float64(pcm.Data[i*channels+ch]) / scale
		}
	}
	return buf, nil
}

// extensibleSubFormat returns the format code carried in the first two
// bytes of the sub-format GUID of a WAVE_FORMAT_EXTENSIBLE fmt chunk. The
// wav decoder skips the extension, so the chunk is read again here.
func extensibleSubFormat(path string) (uint16, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	parser := riff.New(file)
	if err := parser.ParseHeaders(); err != nil {
		return 0, err
	}
	for {
		ch, err := parser.NextChunk()
		if err != nil {
			return 0, fmt.Errorf("fmt chunk not found: %w", err)
		}
		if ch.ID != riff.FmtID {
			ch.Drain()
			continue
		}
		// 16 bytes of basic header, cbSize, valid bits, channel mask, GUID
		if ch.Size < 40 {
			return 0, fmt.Errorf("extensible fmt chunk too short: %d bytes", ch.Size)
		}
		body := make([]byte, ch.Size)
		if _, err := io.ReadFull(ch, body); err != nil {
			return 0, err
		}
		return binary.LittleEndian.Uint16(body[24:26]), nil
	}
}

// WriteWAV encodes buf as integer PCM at the given bit depth. Depths other
// than 16, 24 and 32 fall back to 16.
func WriteWAV(path string, buf *models.Buffer, bitDepth int) error {
	if bitDepth != 16 && bitDepth != 24 && bitDepth != 32 {
		bitDepth = 16
	}

	outFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output file creation error: %w", err)
	}
	defer outFile.Close()

	channels := buf.NumChannels()
	frames := buf.Frames()
	scale := math.Ldexp(1, bitDepth-1)

	data := make([]int, frames*channels)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			v := math.Round(buf.Channels[ch][i] * scale)
			if v > scale-1 {
				v = scale - 1
			} else if v < -scale {
				v = -scale
			}
			data[i*channels+ch] = int(v)
		}
	}

	encoder := wav.NewEncoder(outFile, buf.SampleRate, bitDepth, channels, wavFormatPCM)
	intBuf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  buf.SampleRate,
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := encoder.Write(intBuf); err != nil {
		return fmt.Errorf("data writing error: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to finalize WAV: %w", err)
	}
	return outFile.Close()
}
