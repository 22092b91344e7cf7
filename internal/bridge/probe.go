package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
)

// StreamInfo describes one stream reported by ffprobe
type StreamInfo struct {
	Index         int
	CodecType     string
	CodecName     string
	SampleRate    int
	Channels      int
	BitRate       int
	BitsPerSample int
}

// ProbeResult contains the stream listing of a media file
type ProbeResult struct {
	Format   string
	Duration float64
	BitRate  int
	Streams  []StreamInfo
}

// FirstAudio returns the first audio stream
func (p *ProbeResult) FirstAudio() (StreamInfo, bool) {
	return p.first("audio")
}

// FirstVideo returns the first video stream
func (p *ProbeResult) FirstVideo() (StreamInfo, bool) {
	return p.first("video")
}

func (p *ProbeResult) first(kind string) (StreamInfo, bool) {
	for _, s := range p.Streams {
		if s.CodecType == kind {
			return s, true
		}
	}
	return StreamInfo{}, false
}

// Probe lists the streams of a media file using ffprobe
func (b *Bridge) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	if b.tools.FFprobe == "" {
		return nil, ErrTranscodeUnavailable
	}

	cmd := exec.CommandContext(ctx, b.tools.FFprobe,
		"-v", "error",
		"-show_entries", "stream=index,codec_type,codec_name,sample_rate,channels,bit_rate,bits_per_sample,bits_per_raw_sample:format=format_name,duration,bit_rate",
		"-of", "json",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("failed to probe %s: %w: %s", path, err, exitErr.Stderr)
		}
		return nil, fmt.Errorf("failed to probe %s: %w", path, err)
	}

	return parseProbe(output)
}

func parseProbe(output []byte) (*ProbeResult, error) {
	// ffprobe reports most numeric fields as strings
	var probeResult struct {
		Streams []struct {
			Index            int    `json:"index"`
			CodecType        string `json:"codec_type"`
			CodecName        string `json:"codec_name"`
			SampleRate       string `json:"sample_rate"`
			Channels         int    `json:"channels"`
			BitRate          string `json:"bit_rate"`
			BitsPerSample    int    `json:"bits_per_sample"`
			BitsPerRawSample string `json:"bits_per_raw_sample"`
		} `json:"streams"`
		Format struct {
			FormatName string `json:"format_name"`
			Duration   string `json:"duration"`
			BitRate    string `json:"bit_rate"`
		} `json:"format"`
	}

	if err := json.Unmarshal(output, &probeResult); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	result := &ProbeResult{
		Format:   probeResult.Format.FormatName,
		Duration: atof(probeResult.Format.Duration),
		BitRate:  atoi(probeResult.Format.BitRate),
	}
	for _, s := range probeResult.Streams {
		bits := s.BitsPerSample
		if raw := atoi(s.BitsPerRawSample); raw > 0 {
			bits = raw
		}
		result.Streams = append(result.Streams, StreamInfo{
			Index:         s.Index,
			CodecType:     s.CodecType,
			CodecName:     s.CodecName,
			SampleRate:    atoi(s.SampleRate),
			Channels:      s.Channels,
			BitRate:       atoi(s.BitRate),
			BitsPerSample: bits,
		})
	}
	return result, nil
}

// atoi parses an ffprobe numeric string, treating "N/A" and blanks as 0
func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func atof(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
