// Package gain computes and applies loudness normalization gain with
// true-peak limiting.
package gain

import (
	"math"

	"github.com/kartoza/kartoza-narration-tuner/internal/loudness"
	"github.com/kartoza/kartoza-narration-tuner/internal/models"
)

// Result describes what Apply actually did to a buffer
type Result struct {
	// AppliedDB is the gain actually applied, lower than the nominal gain
	// when peak limiting engaged
	AppliedDB float64
	Limited   bool
	// PeakDB is the true peak of the output in dBTP
	PeakDB float64
}

// Decide computes the gain needed to move measured loudness onto target
func Decide(measuredLUFS, targetLUFS, ceilingDBTP float64) models.GainDecision {
	gainDB := targetLUFS - measuredLUFS
	return models.GainDecision{
		TargetLUFS:   targetLUFS,
		MeasuredLUFS: measuredLUFS,
		GainDB:       gainDB,
		Linear:       loudness.FromDB(gainDB),
		CeilingDBTP:  ceilingDBTP,
	}
}

// Apply multiplies buf in place by the decided gain. If the result would
// peak above the ceiling the whole buffer is scaled down uniformly so the
// peak lands on the ceiling. No output sample exceeds the ceiling.
func Apply(buf *models.Buffer, d models.GainDecision) Result {
	ceiling := loudness.FromDB(d.CeilingDBTP)
	factor := d.Linear

	// True peak scales linearly with gain, so measure once before scaling
	peak := loudness.TruePeak(buf) * factor

	limited := false
	if peak > ceiling {
		factor *= ceiling / peak
		peak = ceiling
		limited = true
	}

	for _, ch := range buf.Channels {
		for i, s := range ch {
			v := s * factor
			// guards against rounding past the ceiling
			if v > ceiling {
				v = ceiling
			} else if v < -ceiling {
				v = -ceiling
			}
			ch[i] = v
		}
	}

	return Result{
		AppliedDB: loudness.ToDB(factor),
		Limited:   limited,
		PeakDB:    loudness.ToDB(peak),
	}
}

// CeilingLinear returns the linear sample ceiling for a dBTP limit
func CeilingLinear(ceilingDBTP float64) float64 {
	return math.Min(1.0, loudness.FromDB(ceilingDBTP))
}
