package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kartoza/kartoza-narration-tuner/internal/container"
	"github.com/kartoza/kartoza-narration-tuner/internal/models"
	"github.com/kartoza/kartoza-narration-tuner/internal/workspace"
)

const workspacePrefix = "narration-tuner"

// ProcessArchive normalizes every narration entry of a slide-deck package
// and writes the result to out. The report is finalized on every return path.
func (p *Pipeline) ProcessArchive(ctx context.Context, in, out string) (report models.ContainerReport) {
	report = p.startReport(models.KindArchive, in, out)
	defer p.finishReport(&report)

	// Refuse before doing any work
	if err := container.CheckOutput(out, p.opts.Overwrite); err != nil {
		report.Err = err
		return report
	}

	ws, err := workspace.New(workspacePrefix)
	if err != nil {
		report.Err = err
		return report
	}
	defer ws.Close()

	archive, err := container.OpenArchive(in)
	if err != nil {
		report.Err = err
		return report
	}
	defer archive.Close()

	assets, err := archive.Extract(ws)
	if err != nil {
		report.Err = err
		return report
	}

	p.processAssets(ctx, &report, assets)

	if err := archive.Reconstruct(out, p.opts.Overwrite); err != nil {
		report.Err = err
		return report
	}
	report.State = models.StateWritten
	return report
}

// ProcessTrack normalizes the audio track of a video file and writes the
// result to out
func (p *Pipeline) ProcessTrack(ctx context.Context, in, out string) (report models.ContainerReport) {
	report = p.startReport(models.KindTrack, in, out)
	defer p.finishReport(&report)

	if err := container.CheckOutput(out, p.opts.Overwrite); err != nil {
		report.Err = err
		return report
	}

	track, err := container.ValidateTrack(ctx, p.bridge, in)
	if err != nil {
		report.Err = err
		return report
	}

	ws, err := workspace.New(workspacePrefix)
	if err != nil {
		report.Err = err
		return report
	}
	defer ws.Close()

	asset, err := track.ExtractAudio(ctx, ws)
	if err != nil {
		report.Err = err
		return report
	}

	p.processAssets(ctx, &report, []*models.AudioAsset{asset})

	if err := track.ReplaceAudio(ctx, out, p.opts.Overwrite); err != nil {
		report.Err = err
		return report
	}
	report.State = models.StateWritten
	return report
}

// ProcessJob dispatches a job to the handler for its container kind
func (p *Pipeline) ProcessJob(ctx context.Context, job models.Job) models.ContainerReport {
	if job.Kind == models.KindTrack {
		return p.ProcessTrack(ctx, job.Input, job.Output)
	}
	return p.ProcessArchive(ctx, job.Input, job.Output)
}

func (p *Pipeline) processAssets(ctx context.Context, report *models.ContainerReport, assets []*models.AudioAsset) {
	total := len(assets)
	p.emit(Event{Kind: EventContainerStarted, Container: report.Input, Total: total})

	for i, asset := range assets {
		p.emit(Event{Kind: EventAssetStarted, Container: report.Input, Asset: asset.Name, Index: i, Total: total})
		outcome := p.ProcessAsset(ctx, asset)
		report.Outcomes = append(report.Outcomes, outcome)
		p.emit(Event{Kind: EventAssetFinished, Container: report.Input, Asset: asset.Name, Index: i, Total: total, Outcome: outcome})
	}
}

func (p *Pipeline) startReport(kind models.ContainerKind, in, out string) models.ContainerReport {
	p.container = in
	p.logger.Info("processing container",
		zap.String("kind", string(kind)),
		zap.String("input", in),
		zap.String("output", out))
	return models.ContainerReport{
		Kind:    kind,
		Input:   in,
		Output:  out,
		State:   models.StateProcessing,
		Started: time.Now(),
	}
}

func (p *Pipeline) finishReport(report *models.ContainerReport) {
	report.Finished = time.Now()
	if report.Err != nil {
		report.State = models.StateFailed
		p.logger.Error("container failed", zap.String("input", report.Input), zap.Error(report.Err))
	} else {
		processed, skipped := models.CountOutcomes(report.Outcomes)
		p.logger.Info("container written",
			zap.String("output", report.Output),
			zap.Int("processed", processed),
			zap.Int("skipped", skipped),
			zap.Duration("elapsed", report.Elapsed()))
	}
	p.container = ""
	p.emit(Event{Kind: EventContainerFinished, Container: report.Input, Report: report, Err: report.Err})
}
