package bridge

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Run runs ffmpeg with the given arguments and reports progress.
// durationSecs is the expected output duration for calculating percentage.
func (b *Bridge) Run(ctx context.Context, durationSecs float64, args ...string) error {
	if b.tools.FFmpeg == "" {
		return ErrTranscodeUnavailable
	}

	// -stats_period 0.5 outputs progress every 0.5 seconds
	progressArgs := append([]string{"-hide_banner", "-y", "-progress", "pipe:1", "-stats_period", "0.5", "-nostats"}, args...)

	cmd := exec.CommandContext(ctx, b.tools.FFmpeg, progressArgs...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	var stderrBuf strings.Builder
	cmd.Stderr = &stderrBuf

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	b.reportPercent(0)

	durationUs := int64(durationSecs * 1e6)
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if percent, ok := progressPercent(scanner.Text(), durationUs); ok {
			b.reportPercent(percent)
		}
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w, stderr: %s", err, strings.TrimSpace(stderrBuf.String()))
	}

	b.reportPercent(100)
	return nil
}

// progressPercent parses one line of ffmpeg -progress output. Only
// out_time_us lines carry progress; the value can be "N/A" at the start.
func progressPercent(line string, durationUs int64) (float64, bool) {
	timeStr, ok := strings.CutPrefix(line, "out_time_us=")
	if !ok || timeStr == "N/A" || durationUs <= 0 {
		return 0, false
	}
	timeUs, err := strconv.ParseInt(timeStr, 10, 64)
	if err != nil || timeUs < 0 {
		return 0, false
	}
	percent := float64(timeUs) / float64(durationUs) * 100
	if percent > 100 {
		percent = 100
	}
	return percent, true
}

func (b *Bridge) reportPercent(percent float64) {
	if b.onPercent != nil {
		b.onPercent(percent)
	}
}
