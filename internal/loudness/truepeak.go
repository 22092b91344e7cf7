package loudness

import (
	"math"
	"sync"

	"github.com/kartoza/kartoza-narration-tuner/internal/models"
)

const (
	oversample = 4
	halfTaps   = 12
)

var (
	phaseKernels [oversample - 1][2 * halfTaps]float64
	kernelsOnce  sync.Once
)

// buildKernels precomputes Hann-windowed sinc interpolators for the three
// intermediate phases of 4x oversampling.
func buildKernels() {
	for p := 1; p < oversample; p++ {
		frac := float64(p) / oversample
		for i := range 2 * halfTaps {
			// tap i multiplies x[n+k] with k = i-halfTaps+1
			t := frac - float64(i-halfTaps+1)
			w := 0.5 * (1 + math.Cos(math.Pi*t/halfTaps))
			phaseKernels[p-1][i] = sinc(t) * w
		}
	}
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

// TruePeak returns the linear true peak of buf, estimated by 4x oversampling.
// The result is never below the sample peak.
func TruePeak(buf *models.Buffer) float64 {
	kernelsOnce.Do(buildKernels)

	peak := buf.SamplePeak()
	for _, samples := range buf.Channels {
		n := len(samples)
		for i := 0; i+1 < n; i++ {
			for p := range phaseKernels {
				var acc float64
				for j, h := range phaseKernels[p] {
					idx := i + j - halfTaps + 1
					if idx < 0 || idx >= n {
						continue
					}
					acc += samples[idx] * h
				}
				if acc < 0 {
					acc = -acc
				}
				if acc > peak {
					peak = acc
				}
			}
		}
	}
	return peak
}

// ToDB converts a linear amplitude to decibels
func ToDB(linear float64) float64 {
	if linear <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(linear)
}

// FromDB converts decibels to a linear amplitude
func FromDB(db float64) float64 {
	return math.Pow(10, db/20)
}
