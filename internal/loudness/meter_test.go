package loudness

import (
	"errors"
	"math"
	"testing"

	"github.com/kartoza/kartoza-narration-tuner/internal/models"
	"github.com/kartoza/kartoza-narration-tuner/internal/testutil"
)

func TestMeasure_SineReference(t *testing.T) {
	tests := []struct {
		name     string
		channels int
		level    float64
		expected float64
	}{
		// A 1 kHz sine in one channel reads its RMS level in LUFS
		{name: "mono -20 dBFS", channels: 1, level: -20, expected: -23.0},
		{name: "stereo -20 dBFS", channels: 2, level: -20, expected: -20.0},
		{name: "mono -10 dBFS", channels: 1, level: -10, expected: -13.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := testutil.Signal(testutil.SignalOptions{
				Channels:  tt.channels,
				ToneFreq:  997,
				ToneLevel: tt.level,
			})

			got, err := Measure(buf)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tt.expected) > 0.3 {
				t.Errorf("expected %.1f LUFS, got %.2f", tt.expected, got)
			}
		})
	}
}

func TestMeasure_TooShort(t *testing.T) {
	buf := testutil.Signal(testutil.SignalOptions{DurationSecs: 0.2, ToneFreq: 440, ToneLevel: -20})

	_, err := Measure(buf)
	if !errors.Is(err, ErrTooShort) {
		t.Fatalf("expected ErrTooShort, got %v", err)
	}
}

func TestMeasure_Silent(t *testing.T) {
	buf := models.NewBuffer(2, 48000*2, 48000, 16)

	_, err := Measure(buf)
	if !errors.Is(err, ErrSilent) {
		t.Fatalf("expected ErrSilent, got %v", err)
	}
}

func TestMeasure_BelowAbsoluteGate(t *testing.T) {
	buf := testutil.Signal(testutil.SignalOptions{ToneFreq: 440, ToneLevel: -90})

	_, err := Measure(buf)
	if !errors.Is(err, ErrSilent) {
		t.Fatalf("expected ErrSilent for -90 dBFS tone, got %v", err)
	}
}

func TestMeasure_EmptyBuffer(t *testing.T) {
	if _, err := Measure(nil); err == nil {
		t.Error("expected error for nil buffer")
	}
	if _, err := Measure(&models.Buffer{SampleRate: 48000}); err == nil {
		t.Error("expected error for buffer without channels")
	}
}

func TestMeasure_ScalesWithGain(t *testing.T) {
	buf := testutil.Signal(testutil.SignalOptions{ToneFreq: 440, ToneLevel: -30, NoiseLevel: -50})

	before, err := Measure(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gained := buf.Clone()
	factor := FromDB(6.0)
	for _, ch := range gained.Channels {
		for i := range ch {
			ch[i] *= factor
		}
	}

	after, err := Measure(gained)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs((after-before)-6.0) > 0.01 {
		t.Errorf("expected +6.0 LU difference, got %.3f", after-before)
	}
}

func TestMeasure_DoesNotMutate(t *testing.T) {
	buf := testutil.Signal(testutil.SignalOptions{ToneFreq: 440, ToneLevel: -20})
	orig := buf.Clone()

	if _, err := Measure(buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range buf.Channels[0] {
		if buf.Channels[0][i] != orig.Channels[0][i] {
			t.Fatalf("sample %d changed from %f to %f", i, orig.Channels[0][i], buf.Channels[0][i])
		}
	}
}

func TestMeasure_GatesSilence(t *testing.T) {
	tone := testutil.Signal(testutil.SignalOptions{DurationSecs: 3, ToneFreq: 440, ToneLevel: -20})
	gapped := testutil.Signal(testutil.SignalOptions{
		DurationSecs: 6,
		ToneFreq:     440,
		ToneLevel:    -20,
		SilenceStart: 3,
		SilenceLen:   3,
	})

	toneLUFS, err := Measure(tone)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gappedLUFS, err := Measure(gapped)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Without gating the silent half would pull loudness down by 3 LU
	if math.Abs(toneLUFS-gappedLUFS) > 0.5 {
		t.Errorf("expected silence to be gated: tone %.2f, with gap %.2f", toneLUFS, gappedLUFS)
	}
}

func TestChannelWeight(t *testing.T) {
	tests := []struct {
		ch, n    int
		expected float64
	}{
		{0, 1, 1.0},
		{1, 2, 1.0},
		{2, 6, 1.0},
		{3, 6, 0},
		{4, 6, 1.41},
		{5, 6, 1.41},
	}

	for _, tt := range tests {
		if got := channelWeight(tt.ch, tt.n); got != tt.expected {
			t.Errorf("channelWeight(%d, %d): expected %v, got %v", tt.ch, tt.n, tt.expected, got)
		}
	}
}

func TestTruePeak_InterSamplePeak(t *testing.T) {
	// fs/4 sine with a 45 degree phase only ever samples at 0.707 of its peak
	const sampleRate = 48000
	buf := models.NewBuffer(1, sampleRate, sampleRate, 16)
	for i := range buf.Channels[0] {
		buf.Channels[0][i] = 0.5 * math.Sin(math.Pi/2*float64(i)+math.Pi/4)
	}

	samplePeak := buf.SamplePeak()
	truePeak := TruePeak(buf)

	if math.Abs(samplePeak-0.5*math.Sqrt2/2) > 1e-9 {
		t.Fatalf("unexpected sample peak %f", samplePeak)
	}
	if truePeak < samplePeak {
		t.Errorf("true peak %f below sample peak %f", truePeak, samplePeak)
	}
	if math.Abs(truePeak-0.5) > 0.03 {
		t.Errorf("expected true peak near 0.5, got %f", truePeak)
	}
}

func TestDBConversions(t *testing.T) {
	if got := ToDB(1.0); got != 0 {
		t.Errorf("expected 0 dB, got %f", got)
	}
	if got := ToDB(0); !math.IsInf(got, -1) {
		t.Errorf("expected -Inf, got %f", got)
	}
	if got := FromDB(-6.0206); math.Abs(got-0.5) > 1e-4 {
		t.Errorf("expected 0.5, got %f", got)
	}
}
