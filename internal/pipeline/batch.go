package pipeline

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kartoza/kartoza-narration-tuner/internal/models"
)

// RunBatch processes jobs in order. The transcoder is checked once before
// any container is touched. A failed container is recorded and the next
// one proceeds. Cancellation is honoured between containers only; the
// returned error is the context error when the run was stopped early.
func (p *Pipeline) RunBatch(ctx context.Context, jobs []models.Job) (models.BatchSummary, error) {
	summary := models.BatchSummary{RunID: uuid.NewString()}

	parent := p.logger
	p.logger = parent.With(zap.String("run_id", summary.RunID))
	defer func() { p.logger = parent }()

	if err := p.bridge.Available(); err != nil {
		p.logger.Error("transcoder preflight failed", zap.Error(err))
		return summary, err
	}

	p.logger.Info("starting batch", zap.Int("containers", len(jobs)))

	// A started container always runs to completion
	work := context.WithoutCancel(ctx)

	for i, job := range jobs {
		if err := ctx.Err(); err != nil {
			summary.Cancelled = len(jobs) - i
			p.logger.Warn("batch cancelled",
				zap.Int("completed", i),
				zap.Int("cancelled", summary.Cancelled))
			return summary, err
		}

		summary.Add(p.ProcessJob(work, job))
	}

	p.logger.Info("batch finished",
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed))
	return summary, nil
}
