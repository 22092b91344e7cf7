package denoise

import (
	"math"
	"testing"

	"github.com/kartoza/kartoza-narration-tuner/internal/models"
	"github.com/kartoza/kartoza-narration-tuner/internal/testutil"
)

// speechLike returns noise throughout with a tone in the first half only,
// so the second half is a noise-only region
func speechLike() *models.Buffer {
	buf := testutil.Signal(testutil.SignalOptions{DurationSecs: 4, NoiseLevel: -40})
	half := buf.Frames() / 2
	amp := math.Pow(10, -20.0/20)
	for i := 0; i < half; i++ {
		t := float64(i) / float64(buf.SampleRate)
		buf.Channels[0][i] += amp * math.Sin(2*math.Pi*440*t)
	}
	return buf
}

func segmentRMS(s []float64) float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(s)))
}

func TestReduce_ZeroStrengthIsIdentity(t *testing.T) {
	buf := speechLike()
	out := Reduce(buf, 0)

	if out == buf {
		t.Fatal("expected a copy, got the input buffer")
	}
	for i := range buf.Channels[0] {
		if out.Channels[0][i] != buf.Channels[0][i] {
			t.Fatalf("sample %d changed at strength 0", i)
		}
	}
}

func TestReduce_ReducesNoiseFloor(t *testing.T) {
	buf := speechLike()
	out := Reduce(buf, 1.0)

	half := buf.Frames() / 2
	// Skip a frame either side of the boundary
	noiseIn := segmentRMS(buf.Channels[0][half+frameSize:])
	noiseOut := segmentRMS(out.Channels[0][half+frameSize:])

	reduction := 20 * math.Log10(noiseIn/noiseOut)
	if reduction < 3 {
		t.Errorf("expected noise floor reduced by at least 3 dB, got %.2f dB", reduction)
	}
}

func TestReduce_PreservesSpeechBand(t *testing.T) {
	buf := speechLike()
	out := Reduce(buf, 1.0)

	half := buf.Frames() / 2
	toneIn := segmentRMS(buf.Channels[0][frameSize : half-frameSize])
	toneOut := segmentRMS(out.Channels[0][frameSize : half-frameSize])

	diff := math.Abs(20 * math.Log10(toneOut/toneIn))
	if diff > 1.0 {
		t.Errorf("expected tone region within 1 dB, changed by %.2f dB", diff)
	}
}

func TestReduce_NeverLouder(t *testing.T) {
	for _, strength := range []float64{0.1, 0.5, 1.0, 5.0} {
		buf := speechLike()
		out := Reduce(buf, strength)

		in := segmentRMS(buf.Channels[0])
		got := segmentRMS(out.Channels[0])
		if got > in*(1+1e-9) {
			t.Errorf("strength %.1f: output RMS %f above input RMS %f", strength, got, in)
		}
	}
}

func TestReduce_StrengthIsMonotonic(t *testing.T) {
	buf := speechLike()
	half := buf.Frames() / 2

	light := Reduce(buf, 0.3)
	heavy := Reduce(buf, 1.0)

	lightRMS := segmentRMS(light.Channels[0][half+frameSize:])
	heavyRMS := segmentRMS(heavy.Channels[0][half+frameSize:])
	if heavyRMS >= lightRMS {
		t.Errorf("expected stronger reduction to leave less noise: light %f, heavy %f", lightRMS, heavyRMS)
	}
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	buf := speechLike()
	orig := buf.Clone()

	Reduce(buf, 0.8)

	for i := range buf.Channels[0] {
		if buf.Channels[0][i] != orig.Channels[0][i] {
			t.Fatalf("input sample %d modified", i)
		}
	}
}

func TestReduce_ShapePreserved(t *testing.T) {
	buf := testutil.Signal(testutil.SignalOptions{Channels: 2, DurationSecs: 1.3, ToneFreq: 300, ToneLevel: -18, NoiseLevel: -45})
	out := Reduce(buf, 0.5)

	if out.NumChannels() != 2 {
		t.Errorf("expected 2 channels, got %d", out.NumChannels())
	}
	if out.Frames() != buf.Frames() {
		t.Errorf("expected %d frames, got %d", buf.Frames(), out.Frames())
	}
	if out.SampleRate != buf.SampleRate || out.BitDepth != buf.BitDepth {
		t.Errorf("expected format %d/%d, got %d/%d", buf.SampleRate, buf.BitDepth, out.SampleRate, out.BitDepth)
	}
}

func TestReduce_ShortBufferUnchanged(t *testing.T) {
	buf := testutil.Signal(testutil.SignalOptions{DurationSecs: 0.01, NoiseLevel: -30})
	out := Reduce(buf, 1.0)

	for i := range buf.Channels[0] {
		if out.Channels[0][i] != buf.Channels[0][i] {
			t.Fatalf("sample %d changed for buffer shorter than one frame", i)
		}
	}
}
