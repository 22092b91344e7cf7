// Package denoise implements spectral-gating noise reduction for speech.
//
// A noise profile is learned from the quietest frames of each channel and
// spectral bins that do not rise above it are attenuated. The signal is
// resynthesised with windowed overlap-add.
package denoise

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/kartoza/kartoza-narration-tuner/internal/models"
)

const (
	frameSize = 2048
	hopSize   = frameSize / 4

	// Fraction of frames, quietest first, used to learn the noise profile
	profileFraction = 0.2
	// Threshold sits this many standard deviations above the noise mean
	thresholdSigma = 1.5
	// Bins this far below threshold receive the full reduction
	rolloffDB = 6.0

	floorPower = 1e-24
)

// Reduce returns a denoised copy of buf. strength ranges from 0 (no change)
// to 1 (full reduction). The input buffer is not modified and the output
// is never louder than the input.
func Reduce(buf *models.Buffer, strength float64) *models.Buffer {
	out := buf.Clone()
	if strength <= 0 {
		return out
	}
	if strength > 1 {
		strength = 1
	}

	r := newReducer()
	for ch, samples := range buf.Channels {
		out.Channels[ch] = r.channel(samples, strength)
	}
	return out
}

type reducer struct {
	fft    *fourier.FFT
	window []float64
	frame  []float64
	coeffs []complex128
	gains  []float64
	smooth []float64
}

func newReducer() *reducer {
	bins := frameSize/2 + 1
	window := make([]float64, frameSize)
	for i := range window {
		// periodic Hann sums to a constant under 75% overlap
		window[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/frameSize)
	}
	return &reducer{
		fft:    fourier.NewFFT(frameSize),
		window: window,
		frame:  make([]float64, frameSize),
		coeffs: make([]complex128, bins),
		gains:  make([]float64, bins),
		smooth: make([]float64, bins),
	}
}

func (r *reducer) channel(in []float64, strength float64) []float64 {
	if len(in) < frameSize {
		return append([]float64(nil), in...)
	}

	// Centre the first frame on sample zero so edges get full coverage
	pad := frameSize / 2
	padded := make([]float64, pad+len(in)+frameSize)
	copy(padded[pad:], in)

	starts := make([]int, 0, len(in)/hopSize+2)
	for pos := 0; pos < pad+len(in); pos += hopSize {
		starts = append(starts, pos)
	}

	thresh := r.noiseProfile(padded, starts)

	acc := make([]float64, len(padded))
	wsum := make([]float64, len(padded))
	for _, pos := range starts {
		r.analyse(padded[pos : pos+frameSize])
		for k, c := range r.coeffs {
			magDB := powerDB(c)
			g := (thresh[k] - magDB) / rolloffDB
			r.gains[k] = 1 - strength*clamp01(g)
		}
		r.smoothGains()
		for k := range r.coeffs {
			r.coeffs[k] *= complex(r.smooth[k], 0)
		}

		r.frame = r.fft.Sequence(r.frame, r.coeffs)
		for i, v := range r.frame {
			w := r.window[i]
			acc[pos+i] += v / frameSize * w
			wsum[pos+i] += w * w
		}
	}

	out := make([]float64, len(in))
	for i := range out {
		j := pad + i
		if wsum[j] < 1e-6 {
			out[i] = in[i]
			continue
		}
		out[i] = acc[j] / wsum[j]
	}

	// Spectral gating only removes energy; enforce that at the output too
	if inRMS, outRMS := rms(in), rms(out); outRMS > inRMS && outRMS > 0 {
		scale := inRMS / outRMS
		for i := range out {
			out[i] *= scale
		}
	}
	return out
}

// noiseProfile returns the per-bin gate threshold in dB, learned from the
// quietest frames
func (r *reducer) noiseProfile(padded []float64, starts []int) []float64 {
	type frameEnergy struct {
		pos    int
		energy float64
	}
	energies := make([]frameEnergy, len(starts))
	for i, pos := range starts {
		e := 0.0
		for j, s := range padded[pos : pos+frameSize] {
			v := s * r.window[j]
			e += v * v
		}
		energies[i] = frameEnergy{pos: pos, energy: e}
	}
	sort.SliceStable(energies, func(a, b int) bool {
		return energies[a].energy < energies[b].energy
	})

	n := int(math.Ceil(float64(len(energies)) * profileFraction))
	if n < 1 {
		n = 1
	}

	bins := len(r.coeffs)
	sum := make([]float64, bins)
	sumSq := make([]float64, bins)
	for _, fe := range energies[:n] {
		r.analyse(padded[fe.pos : fe.pos+frameSize])
		for k, c := range r.coeffs {
			db := powerDB(c)
			sum[k] += db
			sumSq[k] += db * db
		}
	}

	thresh := make([]float64, bins)
	for k := range thresh {
		mean := sum[k] / float64(n)
		variance := sumSq[k]/float64(n) - mean*mean
		if variance < 0 {
			variance = 0
		}
		thresh[k] = mean + thresholdSigma*math.Sqrt(variance)
	}
	return thresh
}

// analyse windows one frame and leaves its spectrum in r.coeffs
func (r *reducer) analyse(frame []float64) {
	for i, s := range frame {
		r.frame[i] = s * r.window[i]
	}
	r.coeffs = r.fft.Coefficients(r.coeffs, r.frame)
}

// smoothGains averages each bin gain with its neighbours to reduce
// musical noise
func (r *reducer) smoothGains() {
	last := len(r.gains) - 1
	for k := range r.gains {
		lo, hi := k-1, k+1
		if lo < 0 {
			lo = 0
		}
		if hi > last {
			hi = last
		}
		r.smooth[k] = 0.25*r.gains[lo] + 0.5*r.gains[k] + 0.25*r.gains[hi]
	}
}

func powerDB(c complex128) float64 {
	p := real(c)*real(c) + imag(c)*imag(c)
	return 10 * math.Log10(p+floorPower)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func rms(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(s)))
}
