// Package loudness measures integrated loudness per ITU-R BS.1770-4 / EBU R128.
package loudness

import (
	"errors"
	"fmt"
	"math"

	"github.com/kartoza/kartoza-narration-tuner/internal/models"
)

var (
	// ErrTooShort is returned when a buffer is shorter than one gating block
	ErrTooShort = errors.New("audio too short for loudness measurement")
	// ErrSilent is returned when no block survives the loudness gates
	ErrSilent = errors.New("audio is silent")
)

const (
	// MinDuration is the shortest buffer, in seconds, that can be measured
	MinDuration = 0.4

	blockDuration = 0.4
	blockStep     = 0.1 // 75% overlap between gating blocks

	absoluteGate = -70.0 // LUFS
	relativeGate = -10.0 // LU below the absolute-gated loudness

	loudnessOffset = -0.691
)

// biquad holds normalized filter coefficients
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// biquadState is the transposed direct form II delay line
type biquadState struct {
	z1, z2 float64
}

func (s *biquadState) process(b *biquad, in float64) float64 {
	out := b.b0*in + s.z1
	s.z1 = b.b1*in - b.a1*out + s.z2
	s.z2 = b.b2*in - b.a2*out
	return out
}

// kWeighting returns the BS.1770 pre-filter (high shelf) and RLB high pass,
// derived from the analog prototypes so any sample rate is supported.
func kWeighting(sampleRate int) (pre, rlb biquad) {
	fs := float64(sampleRate)

	f0 := 1681.974450955533
	g := 3.999843853973347
	q := 0.7071752369554196

	k := math.Tan(math.Pi * f0 / fs)
	vh := math.Pow(10, g/20)
	vb := math.Pow(vh, 0.4996667741545416)

	a0 := 1 + k/q + k*k
	pre.b0 = (vh + vb*k/q + k*k) / a0
	pre.b1 = 2 * (k*k - vh) / a0
	pre.b2 = (vh - vb*k/q + k*k) / a0
	pre.a1 = 2 * (k*k - 1) / a0
	pre.a2 = (1 - k/q + k*k) / a0

	f0 = 38.13547087602444
	q = 0.5003270373238773
	k = math.Tan(math.Pi * f0 / fs)

	a0 = 1 + k/q + k*k
	rlb.b0 = 1 / a0
	rlb.b1 = -2 / a0
	rlb.b2 = 1 / a0
	rlb.a1 = 2 * (k*k - 1) / a0
	rlb.a2 = (1 - k/q + k*k) / a0

	return pre, rlb
}

// channelWeight follows the BS.1770 5.1 layout (L R C LFE Ls Rs).
// Mono and stereo channels are weighted 1.0.
func channelWeight(ch, numChannels int) float64 {
	if numChannels < 6 {
		return 1.0
	}
	switch ch {
	case 3:
		return 0 // LFE
	case 4, 5:
		return 1.41
	}
	return 1.0
}

// Measure returns the integrated loudness of buf in LUFS.
// The buffer is not modified.
func Measure(buf *models.Buffer) (float64, error) {
	if buf == nil || buf.NumChannels() == 0 || buf.SampleRate <= 0 {
		return math.Inf(-1), fmt.Errorf("cannot measure empty buffer")
	}
	if secs := buf.Seconds(); secs < MinDuration {
		return math.Inf(-1), fmt.Errorf("%w: %.2fs < %.1fs", ErrTooShort, secs, MinDuration)
	}

	return integrate(blockPowers(buf))
}

// blockPowers returns the channel-weighted mean square of every 400 ms
// gating block of the K-weighted signal.
func blockPowers(buf *models.Buffer) []float64 {
	frames := buf.Frames()
	numChannels := buf.NumChannels()
	pre, rlb := kWeighting(buf.SampleRate)

	// cumulative weighted power, so each block is a single subtraction
	cum := make([]float64, frames+1)
	for ch, samples := range buf.Channels {
		weight := channelWeight(ch, numChannels)
		if weight == 0 {
			continue
		}
		var preState, rlbState biquadState
		var running float64
		for i, s := range samples {
			v := preState.process(&pre, s)
			v = rlbState.process(&rlb, v)
			running += weight * v * v
			cum[i+1] += running
		}
	}

	blockLen := int(math.Round(blockDuration * float64(buf.SampleRate)))
	step := max(int(math.Round(blockStep*float64(buf.SampleRate))), 1)
	if blockLen <= 0 || blockLen > frames {
		return nil
	}

	blocks := make([]float64, 0, (frames-blockLen)/step+1)
	for start := 0; start+blockLen <= frames; start += step {
		blocks = append(blocks, (cum[start+blockLen]-cum[start])/float64(blockLen))
	}
	return blocks
}

// integrate applies the absolute then relative gate and averages the rest
func integrate(blocks []float64) (float64, error) {
	absThreshold := powerFromLUFS(absoluteGate)

	var sum float64
	var count int
	for _, z := range blocks {
		if z > absThreshold {
			sum += z
			count++
		}
	}
	if count == 0 {
		return math.Inf(-1), ErrSilent
	}

	relThreshold := powerFromLUFS(lufsFromPower(sum/float64(count)) + relativeGate)

	sum, count = 0, 0
	for _, z := range blocks {
		if z > absThreshold && z > relThreshold {
			sum += z
			count++
		}
	}
	if count == 0 {
		return math.Inf(-1), ErrSilent
	}

	return lufsFromPower(sum / float64(count)), nil
}

func lufsFromPower(p float64) float64 {
	return loudnessOffset + 10*math.Log10(p)
}

func powerFromLUFS(l float64) float64 {
	return math.Pow(10, (l-loudnessOffset)/10)
}
