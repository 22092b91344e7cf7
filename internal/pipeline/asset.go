package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/kartoza/kartoza-narration-tuner/internal/bridge"
	"github.com/kartoza/kartoza-narration-tuner/internal/denoise"
	"github.com/kartoza/kartoza-narration-tuner/internal/gain"
	"github.com/kartoza/kartoza-narration-tuner/internal/loudness"
	"github.com/kartoza/kartoza-narration-tuner/internal/models"
)

// ProcessAsset runs one asset through decode, optional denoise, measure,
// gain and encode. On success the asset's Path points at the processed
// bytes and Replaced is set. Any failure leaves the asset untouched and is
// returned as a Skipped outcome.
func (p *Pipeline) ProcessAsset(ctx context.Context, asset *models.AudioAsset) models.Outcome {
	log := p.logger.With(zap.String("asset", asset.Name))
	p.asset = asset.Name
	defer func() { p.asset = "" }()

	buf, err := p.bridge.Decode(ctx, asset)
	if err != nil {
		reason := skipReason(fmt.Errorf("decode failed: %w", err))
		log.Warn("skipping asset", zap.String("reason", reason), zap.Error(err))
		return models.Skipped{Name: asset.Name, Reason: reason}
	}
	duration := buf.Seconds()

	// Too short to gate; skip before spending time on denoising
	if duration < loudness.MinDuration {
		log.Info("skipping asset", zap.String("reason", models.ReasonTooShort), zap.Float64("duration", duration))
		return models.Skipped{Name: asset.Name, Reason: models.ReasonTooShort, Duration: duration}
	}

	// Denoising must precede measurement so the gain reflects cleaned audio
	if p.opts.Denoise {
		buf = denoise.Reduce(buf, p.opts.DenoiseStrength)
		log.Debug("denoised", zap.Float64("strength", p.opts.DenoiseStrength))
	}

	measured, err := loudness.Measure(buf)
	if err != nil {
		reason := skipReason(err)
		log.Info("skipping asset", zap.String("reason", reason), zap.Float64("duration", duration))
		return models.Skipped{Name: asset.Name, Reason: reason, Duration: duration}
	}

	decision := gain.Decide(measured, p.opts.TargetLoudness, p.opts.TruePeak)
	res := gain.Apply(buf, decision)
	if res.Limited {
		log.Info("peak limiting reduced gain",
			zap.Float64("nominal_db", decision.GainDB),
			zap.Float64("applied_db", res.AppliedDB))
	}

	final, err := loudness.Measure(buf)
	if err != nil {
		// gain cannot make a measurable buffer silent; keep the target
		final = decision.TargetLUFS
	}

	dest := asset.Path + ".normalized." + asset.Codec
	if err := p.bridge.Encode(ctx, buf, asset, dest); err != nil {
		os.Remove(dest)
		log.Warn("skipping asset: encode failed", zap.Error(err))
		return models.Skipped{Name: asset.Name, Reason: "encode failed: " + err.Error(), Duration: duration, MeasuredLUFS: measured}
	}

	asset.Path = dest
	asset.Replaced = true
	asset.Buffer = nil
	if info, err := os.Stat(dest); err == nil {
		asset.Size = info.Size()
	}

	log.Info("normalized asset",
		zap.Float64("original_lufs", measured),
		zap.Float64("final_lufs", final),
		zap.Float64("gain_db", res.AppliedDB),
		zap.Float64("peak_dbtp", res.PeakDB))

	return models.Processed{Result: models.NormalizationStats{
		Filename:      asset.Name,
		OriginalLUFS:  measured,
		TargetLUFS:    decision.TargetLUFS,
		AppliedGainDB: res.AppliedDB,
		FinalLUFS:     final,
		PeakDB:        res.PeakDB,
		Duration:      duration,
		Limited:       res.Limited,
		Denoised:      p.opts.Denoise,
	}}
}

// skipReason maps per-asset errors to the reasons shown in reports
func skipReason(err error) string {
	switch {
	case errors.Is(err, loudness.ErrTooShort):
		return models.ReasonTooShort
	case errors.Is(err, loudness.ErrSilent):
		return models.ReasonSilent
	case errors.Is(err, bridge.ErrUnsupportedCodec):
		return models.ReasonUnsupported
	case errors.Is(err, bridge.ErrTranscodeUnavailable):
		return "transcoder unavailable"
	default:
		return err.Error()
	}
}
