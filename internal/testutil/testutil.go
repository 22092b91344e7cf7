// Package testutil generates synthetic audio and containers for tests.
package testutil

import (
	"archive/zip"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/kartoza/kartoza-narration-tuner/internal/models"
)

// SignalOptions configures the synthetic audio to generate
type SignalOptions struct {
	DurationSecs float64 // Total duration in seconds (default 5)
	SampleRate   int     // Sample rate (default 48000)
	Channels     int     // Channel count (default 1)
	ToneFreq     float64 // Sine frequency in Hz (0 = no tone)
	ToneLevel    float64 // Tone peak level in dBFS, e.g. -20
	NoiseLevel   float64 // White noise peak level in dBFS (0 = no noise)
	SilenceStart float64 // Start of a silent gap in seconds
	SilenceLen   float64 // Length of the silent gap in seconds
}

// Signal builds a deterministic buffer of tone plus noise
func Signal(opts SignalOptions) *models.Buffer {
	if opts.SampleRate == 0 {
		opts.SampleRate = 48000
	}
	if opts.DurationSecs == 0 {
		opts.DurationSecs = 5
	}
	if opts.Channels == 0 {
		opts.Channels = 1
	}

	frames := int(opts.DurationSecs * float64(opts.SampleRate))
	buf := models.NewBuffer(opts.Channels, frames, opts.SampleRate, 16)

	toneAmp := 0.0
	if opts.ToneFreq > 0 && opts.ToneLevel < 0 {
		toneAmp = math.Pow(10, opts.ToneLevel/20)
	}
	noiseAmp := 0.0
	if opts.NoiseLevel < 0 {
		noiseAmp = math.Pow(10, opts.NoiseLevel/20)
	}

	silenceStart := int(opts.SilenceStart * float64(opts.SampleRate))
	silenceEnd := int((opts.SilenceStart + opts.SilenceLen) * float64(opts.SampleRate))

	// LCG from Numerical Recipes keeps noise deterministic
	rng := uint32(12345)
	next := func() float64 {
		rng = rng*1664525 + 1013904223
		return float64(rng)/float64(math.MaxUint32)*2 - 1
	}

	for i := range frames {
		var s float64
		if toneAmp > 0 {
			t := float64(i) / float64(opts.SampleRate)
			s += toneAmp * math.Sin(2*math.Pi*opts.ToneFreq*t)
		}
		if noiseAmp > 0 {
			s += noiseAmp * next()
		}
		if opts.SilenceLen > 0 && i >= silenceStart && i < silenceEnd {
			s = 0
		}
		for ch := range opts.Channels {
			buf.Channels[ch][i] = s
		}
	}
	return buf
}

// RMS returns the root mean square over all channels
func RMS(buf *models.Buffer) float64 {
	var sum float64
	var n int
	for _, ch := range buf.Channels {
		for _, s := range ch {
			sum += s * s
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}

// WAV16 encodes buf as a 16-bit PCM WAV file, independent of the
// production codec so decoders can be checked against it.
func WAV16(buf *models.Buffer) []byte {
	channels := buf.NumChannels()
	frames := buf.Frames()
	dataSize := frames * channels * 2

	out := make([]byte, 0, 44+dataSize)
	out = append(out, "RIFF"...)
	out = binary.LittleEndian.AppendUint32(out, uint32(36+dataSize))
	out = append(out, "WAVE"...)
	out = append(out, "fmt "...)
	out = binary.LittleEndian.AppendUint32(out, 16)
	out = binary.LittleEndian.AppendUint16(out, 1)
	out = binary.LittleEndian.AppendUint16(out, uint16(channels))
	out = binary.LittleEndian.AppendUint32(out, uint32(buf.SampleRate))
	out = binary.LittleEndian.AppendUint32(out, uint32(buf.SampleRate*channels*2))
	out = binary.LittleEndian.AppendUint16(out, uint16(channels*2))
	out = binary.LittleEndian.AppendUint16(out, 16)
	out = append(out, "data"...)
	out = binary.LittleEndian.AppendUint32(out, uint32(dataSize))

	for i := range frames {
		for ch := range channels {
			s := max(-1, min(1, buf.Channels[ch][i]))
			out = binary.LittleEndian.AppendUint16(out, uint16(int16(math.Round(s*math.MaxInt16))))
		}
	}
	return out
}

// Entry is one file to place in a test archive
type Entry struct {
	Name   string
	Data   []byte
	Method uint16
}

// SlideDeckEntries returns the minimal non-audio layout of a PPTX package
func SlideDeckEntries() []Entry {
	return []Entry{
		{Name: "[Content_Types].xml", Data: []byte(`<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`), Method: zip.Deflate},
		{Name: "_rels/.rels", Data: []byte(`<?xml version="1.0"?><Relationships/>`), Method: zip.Deflate},
		{Name: "ppt/presentation.xml", Data: []byte(`<?xml version="1.0"?><p:presentation/>`), Method: zip.Deflate},
		{Name: "ppt/slides/slide1.xml", Data: []byte(`<?xml version="1.0"?><p:sld/>`), Method: zip.Deflate},
		{Name: "ppt/slides/_rels/slide1.xml.rels", Data: []byte(`<?xml version="1.0"?><Relationships><Relationship Target="../media/media1.wav"/></Relationships>`), Method: zip.Deflate},
		{Name: "ppt/media/image1.png", Data: []byte{0x89, 'P', 'N', 'G', 1, 2, 3, 4}, Method: zip.Store},
	}
}

// WriteArchive writes entries to a new ZIP file in dir and returns its path
func WriteArchive(t testing.TB, dir, name string, entries []Entry) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create archive: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.Name, Method: e.Method})
		if err != nil {
			t.Fatalf("failed to add %s: %v", e.Name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			t.Fatalf("failed to write %s: %v", e.Name, err)
		}
	}
	zw.SetComment("test deck")
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to close archive: %v", err)
	}
	return path
}

// ReadArchive returns the uncompressed contents of every entry by name
func ReadArchive(t testing.TB, path string) (map[string][]byte, []string) {
	t.Helper()

	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("failed to open archive %s: %v", path, err)
	}
	defer zr.Close()

	contents := make(map[string][]byte)
	var order []string
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("failed to open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("failed to read %s: %v", f.Name, err)
		}
		contents[f.Name] = data
		order = append(order, f.Name)
	}
	return contents, order
}
