package models

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizeOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*NormalizeOptions)
		wantErr bool
	}{
		{"defaults", func(o *NormalizeOptions) {}, false},
		{"quiet target", func(o *NormalizeOptions) { o.TargetLoudness = -70 }, false},
		{"loud target", func(o *NormalizeOptions) { o.TargetLoudness = 0 }, false},
		{"target too low", func(o *NormalizeOptions) { o.TargetLoudness = -71 }, true},
		{"target positive", func(o *NormalizeOptions) { o.TargetLoudness = 1 }, true},
		{"peak positive", func(o *NormalizeOptions) { o.TruePeak = 0.5 }, true},
		{"peak too low", func(o *NormalizeOptions) { o.TruePeak = -21 }, true},
		{"strength negative", func(o *NormalizeOptions) { o.DenoiseStrength = -0.1 }, true},
		{"strength above one", func(o *NormalizeOptions) { o.DenoiseStrength = 1.1 }, true},
		{"strength one", func(o *NormalizeOptions) { o.DenoiseStrength = 1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultNormalizeOptions()
			tt.modify(&opts)
			err := opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultNormalizeOptions(t *testing.T) {
	opts := DefaultNormalizeOptions()
	if opts.TargetLoudness != -16 || opts.TruePeak != -1 || opts.Denoise || opts.DenoiseStrength != 0.5 || opts.Overwrite {
		t.Errorf("unexpected defaults: %+v", opts)
	}
}

func TestOutcomeStats(t *testing.T) {
	p := Processed{Result: NormalizationStats{Filename: "a.wav", AppliedGainDB: 3, Skipped: true, SkipReason: "stale"}}
	s := p.Stats()
	if s.Skipped || s.SkipReason != "" {
		t.Errorf("expected processed stats to never be marked skipped, got %+v", s)
	}
	if s.AppliedGainDB != 3 {
		t.Errorf("expected gain 3, got %v", s.AppliedGainDB)
	}

	k := Skipped{Name: "b.wav", Reason: ReasonSilent, Duration: 2, MeasuredLUFS: -40}
	s = k.Stats()
	if !s.Skipped || s.SkipReason != ReasonSilent || s.Filename != "b.wav" {
		t.Errorf("unexpected skipped stats: %+v", s)
	}
	if s.AppliedGainDB != 0 {
		t.Errorf("expected no gain for skipped asset, got %v", s.AppliedGainDB)
	}
	if s.OriginalLUFS != -40 {
		t.Errorf("expected measured loudness to be kept, got %v", s.OriginalLUFS)
	}
}

func TestCountOutcomes(t *testing.T) {
	outcomes := []Outcome{Processed{}, Skipped{}, Processed{}}
	processed, skipped := CountOutcomes(outcomes)
	if processed != 2 || skipped != 1 {
		t.Errorf("expected 2 processed and 1 skipped, got %d and %d", processed, skipped)
	}
}

func TestContainerReport(t *testing.T) {
	start := time.Now()
	r := ContainerReport{
		State:    StateWritten,
		Outcomes: []Outcome{Skipped{Name: "x.wav"}, Processed{Result: NormalizationStats{Filename: "y.wav"}}},
		Started:  start,
	}

	if r.Elapsed() != 0 {
		t.Errorf("expected zero elapsed before finish, got %v", r.Elapsed())
	}
	r.Finished = start.Add(time.Second)
	if r.Elapsed() != time.Second {
		t.Errorf("expected 1s elapsed, got %v", r.Elapsed())
	}

	stats := r.Stats()
	if len(stats) != 2 || stats[0].Filename != "x.wav" || stats[1].Filename != "y.wav" {
		t.Errorf("expected stats in discovery order, got %+v", stats)
	}

	if !r.Succeeded() {
		t.Error("expected written report to have succeeded")
	}
	r.Err = errors.New("boom")
	if r.Succeeded() {
		t.Error("expected report with error to have failed")
	}
}

func TestBatchSummary(t *testing.T) {
	var s BatchSummary
	s.Add(ContainerReport{State: StateWritten})
	s.Add(ContainerReport{State: StateFailed, Err: errors.New("bad")})
	s.Cancelled = 2

	if s.Succeeded != 1 || s.Failed != 1 {
		t.Errorf("expected 1 succeeded and 1 failed, got %+v", s)
	}
	if s.Total() != 4 {
		t.Errorf("expected total 4, got %d", s.Total())
	}
}

func TestBuffer(t *testing.T) {
	b := NewBuffer(2, 48000, 48000, 16)
	if b.NumChannels() != 2 || b.Frames() != 48000 {
		t.Fatalf("unexpected shape %dx%d", b.NumChannels(), b.Frames())
	}
	if b.Seconds() != 1 || b.Duration() != time.Second {
		t.Errorf("expected 1s, got %v", b.Duration())
	}

	b.Channels[1][10] = -0.75
	c := b.Clone()
	c.Channels[1][10] = 0.1
	if b.Channels[1][10] != -0.75 {
		t.Error("expected Clone to be deep")
	}
	if b.SamplePeak() != 0.75 {
		t.Errorf("expected peak 0.75, got %v", b.SamplePeak())
	}

	empty := &Buffer{}
	if empty.Frames() != 0 || empty.Seconds() != 0 {
		t.Error("expected empty buffer to have no frames")
	}
}

func TestCodecFromName(t *testing.T) {
	tests := map[string]string{
		"ppt/media/media1.WAV": "wav",
		"clip.m4a":             "m4a",
		"noext":                "",
	}
	for in, want := range tests {
		if got := CodecFromName(in); got != want {
			t.Errorf("CodecFromName(%q): expected %q, got %q", in, want, got)
		}
	}
}
