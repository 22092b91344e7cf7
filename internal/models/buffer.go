package models

import "time"

// Buffer is decoded PCM audio stored per channel, samples in [-1, 1]
type Buffer struct {
	Channels   [][]float64
	SampleRate int
	// BitDepth is the source integer bit depth, used when writing back
	BitDepth int
}

// NewBuffer allocates a silent buffer
func NewBuffer(channels, frames, sampleRate, bitDepth int) *Buffer {
	data := make([][]float64, channels)
	for i := range data {
		data[i] = make([]float64, frames)
	}
	return &Buffer{Channels: data, SampleRate: sampleRate, BitDepth: bitDepth}
}

// NumChannels returns the channel count
func (b *Buffer) NumChannels() int {
	return len(b.Channels)
}

// Frames returns the number of samples per channel
func (b *Buffer) Frames() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Seconds returns the buffer duration in seconds
func (b *Buffer) Seconds() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Duration returns the buffer duration
func (b *Buffer) Duration() time.Duration {
	return time.Duration(b.Seconds() * float64(time.Second))
}

// Clone returns a deep copy
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{
		Channels:   make([][]float64, len(b.Channels)),
		SampleRate: b.SampleRate,
		BitDepth:   b.BitDepth,
	}
	for i, ch := range b.Channels {
		out.Channels[i] = append([]float64(nil), ch...)
	}
	return out
}

// SamplePeak returns the largest absolute sample value across channels
func (b *Buffer) SamplePeak() float64 {
	peak := 0.0
	for _, ch := range b.Channels {
		for _, s := range ch {
			if s < 0 {
				s = -s
			}
			if s > peak {
				peak = s
			}
		}
	}
	return peak
}
