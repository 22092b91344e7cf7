package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kartoza/kartoza-narration-tuner/internal/models"
	"github.com/kartoza/kartoza-narration-tuner/internal/poll"
)

var (
	awaitExport   bool
	exportTimeout time.Duration
)

var videoCmd = &cobra.Command{
	Use:   "video [input.mp4] [output.mp4]",
	Short: "Normalize the narration track of MP4 videos",
	Long: `Normalize the loudness of the audio track of an MP4 video.

The video stream is copied without re-encoding; the audio track is
normalized and re-encoded as AAC. Requires ffmpeg and ffprobe.

With --await-export the command first waits for an external exporter (for
example a slide-to-video export) to finish writing the input: either a
"<input>.done" marker file appears or the file size stops changing.`,
	Example: `  kartoza-narration-tuner video lecture.mp4
  kartoza-narration-tuner video export.mp4 final.mp4 --await-export
  kartoza-narration-tuner video -i videos/ -o normalized/ --json`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobs, err := buildJobs(models.KindTrack, ".mp4", args)
		if err != nil {
			return err
		}

		if awaitExport {
			for _, job := range jobs {
				if err := waitForExport(cmd.Context(), job.Input); err != nil {
					return err
				}
			}
		}

		return runJobs(cmd, jobs)
	},
}

// waitForExport blocks until path is completely written
func waitForExport(ctx context.Context, path string) error {
	timeout := exportTimeout
	if timeout <= 0 {
		timeout = time.Duration(cfg.ExportTimeout) * time.Second
	}

	signal, size := poll.FileSignals(path)
	p := poll.New(poll.Config{
		Signal:  signal,
		Size:    size,
		Timeout: timeout,
	})

	log.Info("waiting for export to finish", zap.String("path", path), zap.Duration("timeout", timeout))
	if err := p.Run(ctx); err != nil {
		return fmt.Errorf("export of %s did not finish: %w", path, err)
	}
	log.Info("export finished", zap.String("path", path), zap.Stringer("state", p.State()))
	return nil
}

func init() {
	addNormalizeFlags(videoCmd)
	videoCmd.Flags().BoolVar(&awaitExport, "await-export", false, "Wait for the input to be fully written before processing")
	videoCmd.Flags().DurationVar(&exportTimeout, "export-timeout", 0, "Maximum wait for --await-export (default: 30m)")
	rootCmd.AddCommand(videoCmd)
}
