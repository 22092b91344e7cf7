package models

import "fmt"

// Loudness option bounds accepted by Validate
const (
	MinTargetLoudness = -70.0
	MaxTargetLoudness = 0.0
	MinTruePeak       = -20.0
	MaxTruePeak       = 0.0
)

// NormalizeOptions contains options for narration loudness normalization
type NormalizeOptions struct {
	// TargetLoudness is the target integrated loudness in LUFS
	TargetLoudness float64 `json:"target_loudness"`
	// TruePeak is the maximum true peak level in dBTP
	TruePeak float64 `json:"true_peak"`
	// Denoise enables spectral-gating noise reduction before measurement
	Denoise bool `json:"denoise"`
	// DenoiseStrength is the noise reduction amount between 0.0 and 1.0
	DenoiseStrength float64 `json:"denoise_strength"`
	// Overwrite allows replacing an existing output file
	Overwrite bool `json:"overwrite"`
	Verbose   bool `json:"verbose"`
}

// DefaultNormalizeOptions returns sensible defaults for narration
func DefaultNormalizeOptions() NormalizeOptions {
	return NormalizeOptions{
		TargetLoudness:  -16.0, // General use and e-learning
		TruePeak:        -1.0,  // Prevents clipping after lossy re-encoding
		Denoise:         false,
		DenoiseStrength: 0.5,
	}
}

// Validate checks that every option is inside its accepted range
func (o NormalizeOptions) Validate() error {
	if o.TargetLoudness < MinTargetLoudness || o.TargetLoudness > MaxTargetLoudness {
		return fmt.Errorf("invalid target loudness %.1f LUFS: must be between %.0f and %.0f",
			o.TargetLoudness, MinTargetLoudness, MaxTargetLoudness)
	}
	if o.TruePeak < MinTruePeak || o.TruePeak > MaxTruePeak {
		return fmt.Errorf("invalid true peak %.1f dBTP: must be between %.0f and %.0f",
			o.TruePeak, MinTruePeak, MaxTruePeak)
	}
	if o.DenoiseStrength < 0 || o.DenoiseStrength > 1 {
		return fmt.Errorf("invalid denoise strength %.2f: must be between 0.0 and 1.0", o.DenoiseStrength)
	}
	return nil
}

// MeasureStage tells whether a measurement was taken before or after processing
type MeasureStage string

const (
	StagePre  MeasureStage = "pre"
	StagePost MeasureStage = "post"
)

// LoudnessMeasurement is one integrated loudness reading of an asset
type LoudnessMeasurement struct {
	Asset      string       `json:"asset"`
	LUFS       float64      `json:"lufs"`
	TruePeakDB float64      `json:"true_peak_db"`
	Duration   float64      `json:"duration"`
	Stage      MeasureStage `json:"stage"`
	// SkipReason is set when the asset could not be measured
	SkipReason string `json:"skip_reason,omitempty"`
}

// GainDecision records how the gain for one asset was derived
type GainDecision struct {
	TargetLUFS   float64
	MeasuredLUFS float64
	GainDB       float64
	Linear       float64
	CeilingDBTP  float64
}
