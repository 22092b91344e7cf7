package models

// Skip reasons recorded for assets passed through unchanged
const (
	ReasonTooShort    = "too short"
	ReasonSilent      = "silent"
	ReasonUnsupported = "unsupported format"
)

// NormalizationStats is the per-asset record handed to the reporting layer
type NormalizationStats struct {
	Filename      string  `json:"filename"`
	OriginalLUFS  float64 `json:"original_lufs"`
	TargetLUFS    float64 `json:"target_lufs"`
	AppliedGainDB float64 `json:"applied_gain_db"`
	Duration      float64 `json:"duration"`
	Limited       bool    `json:"limited"`
	Denoised      bool    `json:"denoised"`
	Skipped       bool    `json:"skipped"`
	SkipReason    string  `json:"skip_reason,omitempty"`

	// FinalLUFS and PeakDB are measured after gain; zero for skipped assets
	FinalLUFS float64 `json:"final_lufs,omitempty"`
	PeakDB    float64 `json:"peak_db,omitempty"`
}

// Outcome is the result of processing one asset: either Processed or Skipped.
// Skipping is ordinary control flow, not an error.
type Outcome interface {
	Stats() NormalizationStats
	isOutcome()
}

// Processed is an asset whose audio was rewritten
type Processed struct {
	Result NormalizationStats
}

// Stats implements Outcome
func (p Processed) Stats() NormalizationStats {
	s := p.Result
	s.Skipped = false
	s.SkipReason = ""
	return s
}

func (Processed) isOutcome() {}

// Skipped is an asset passed through with its original bytes
type Skipped struct {
	Name     string
	Reason   string
	Duration float64
	// MeasuredLUFS is set when measurement succeeded before the skip
	MeasuredLUFS float64
}

// Stats implements Outcome
func (s Skipped) Stats() NormalizationStats {
	return NormalizationStats{
		Filename:     s.Name,
		OriginalLUFS: s.MeasuredLUFS,
		Duration:     s.Duration,
		Skipped:      true,
		SkipReason:   s.Reason,
	}
}

func (Skipped) isOutcome() {}

// CountOutcomes returns how many outcomes were processed and skipped
func CountOutcomes(outcomes []Outcome) (processed, skipped int) {
	for _, o := range outcomes {
		switch o.(type) {
		case Processed:
			processed++
		case Skipped:
			skipped++
		}
	}
	return processed, skipped
}
