package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kartoza/kartoza-narration-tuner/internal/bridge"
	"github.com/kartoza/kartoza-narration-tuner/internal/deps"
	"github.com/kartoza/kartoza-narration-tuner/internal/models"
	"github.com/kartoza/kartoza-narration-tuner/internal/notify"
	"github.com/kartoza/kartoza-narration-tuner/internal/pipeline"
	"github.com/kartoza/kartoza-narration-tuner/internal/report"
	"github.com/kartoza/kartoza-narration-tuner/internal/tui"
)

var (
	targetLUFS      float64
	truePeak        float64
	denoise         bool
	denoiseStrength float64
	force           bool
	useTUI          bool
	jsonOutput      bool
	notifyDone      bool
	inputDir        string
	outputDir       string
	outputSuffix    string
)

// addNormalizeFlags registers the flags shared by the pptx and video commands
func addNormalizeFlags(cmd *cobra.Command) {
	defaults := models.DefaultNormalizeOptions()

	cmd.Flags().Float64Var(&targetLUFS, "target-lufs", defaults.TargetLoudness, "Target integrated loudness in LUFS")
	cmd.Flags().Float64Var(&truePeak, "true-peak", defaults.TruePeak, "True-peak ceiling in dBTP")
	cmd.Flags().BoolVar(&denoise, "denoise", defaults.Denoise, "Reduce background noise before normalizing")
	cmd.Flags().Float64Var(&denoiseStrength, "denoise-strength", defaults.DenoiseStrength, "Noise reduction strength (0.0-1.0)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing output files")
	cmd.Flags().BoolVar(&useTUI, "tui", false, "Show an interactive progress view")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the report as JSON")
	cmd.Flags().BoolVar(&notifyDone, "notify", false, "Send a desktop notification when finished")
	cmd.Flags().StringVarP(&inputDir, "input-dir", "i", "", "Process every matching file in this directory")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for output files (default: next to the input)")
	cmd.Flags().StringVar(&outputSuffix, "suffix", "", "Suffix added to output names (default: _normalized)")
}

// normalizeOptions merges command-line flags over the configured options
func normalizeOptions(cmd *cobra.Command) (models.NormalizeOptions, error) {
	opts := cfg.Normalize

	flags := cmd.Flags()
	if flags.Changed("target-lufs") {
		opts.TargetLoudness = targetLUFS
	}
	if flags.Changed("true-peak") {
		opts.TruePeak = truePeak
	}
	if flags.Changed("denoise") {
		opts.Denoise = denoise
	}
	if flags.Changed("denoise-strength") {
		opts.DenoiseStrength = denoiseStrength
		// Setting a strength implies denoising unless explicitly disabled
		if !flags.Changed("denoise") {
			opts.Denoise = true
		}
	}
	opts.Overwrite = force
	opts.Verbose = verbose

	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

// buildJobs turns positional arguments or --input-dir into jobs of one kind
func buildJobs(kind models.ContainerKind, ext string, args []string) ([]models.Job, error) {
	suffix := cfg.OutputSuffix
	if outputSuffix != "" {
		suffix = outputSuffix
	}

	if inputDir != "" {
		if len(args) > 0 {
			return nil, errors.New("use either file arguments or --input-dir, not both")
		}
		entries, err := os.ReadDir(inputDir)
		if err != nil {
			return nil, fmt.Errorf("failed to read input directory: %w", err)
		}

		var jobs []models.Job
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ext) {
				continue
			}
			// Skip outputs of an earlier run written next to the inputs
			if outputDir == "" && strings.HasSuffix(strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())), suffix) {
				continue
			}
			in := filepath.Join(inputDir, e.Name())
			jobs = append(jobs, models.Job{Kind: kind, Input: in, Output: pipeline.OutputPath(in, outputDir, suffix)})
		}
		if len(jobs) == 0 {
			return nil, fmt.Errorf("no %s files found in %s", ext, inputDir)
		}
		return jobs, nil
	}

	switch len(args) {
	case 1:
		return []models.Job{{Kind: kind, Input: args[0], Output: pipeline.OutputPath(args[0], outputDir, suffix)}}, nil
	case 2:
		return []models.Job{{Kind: kind, Input: args[0], Output: args[1]}}, nil
	default:
		return nil, errors.New("an input file or --input-dir is required")
	}
}

// runJobs normalizes jobs and prints the report
func runJobs(cmd *cobra.Command, jobs []models.Job) error {
	opts, err := normalizeOptions(cmd)
	if err != nil {
		return err
	}

	b := newBridge()
	p := pipeline.New(b, opts, log.Named("pipeline"))

	var summary models.BatchSummary
	if useTUI {
		summary, err = tui.Run(cmd.Context(), p, jobs)
	} else {
		p.SetObserver(logEvents)
		summary, err = p.RunBatch(cmd.Context(), jobs)
	}

	if errors.Is(err, bridge.ErrTranscodeUnavailable) {
		_, missing := deps.ResolveTools(cfg.FFmpegPath, cfg.FFprobePath)
		fmt.Fprint(os.Stderr, deps.FormatMissing(missing))
		fmt.Fprintf(os.Stderr, "Install with: %s\n\n", deps.InstallHint())
		return err
	}

	if printErr := printSummary(&summary, len(jobs)); printErr != nil {
		return printErr
	}

	if notifyDone || cfg.Notify {
		sendNotification(&summary)
	}

	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return errContainersFailed
	}
	return nil
}

func printSummary(summary *models.BatchSummary, jobs int) error {
	if jsonOutput {
		if jobs == 1 && len(summary.Reports) == 1 {
			return report.WriteJSON(os.Stdout, report.NewContainerDocument(&summary.Reports[0]))
		}
		return report.WriteJSON(os.Stdout, report.NewSummaryDocument(summary))
	}

	fmt.Println()
	for i := range summary.Reports {
		fmt.Println(report.RenderContainer(&summary.Reports[i]))
	}
	if jobs > 1 {
		fmt.Println(report.RenderSummary(summary))
	}
	return nil
}

func sendNotification(summary *models.BatchSummary) {
	if !deps.HasNotifier() {
		log.Debug("notify-send not available, skipping notification")
		return
	}

	var err error
	if len(summary.Reports) == 1 {
		r := &summary.Reports[0]
		if r.Succeeded() {
			processed, skipped := models.CountOutcomes(r.Outcomes)
			err = notify.ContainerComplete(r.Output, processed, skipped)
		} else {
			err = notify.ContainerFailed(r.Input, r.Err)
		}
	} else {
		err = notify.BatchComplete(summary.Succeeded, summary.Failed)
	}
	if err != nil {
		log.Warn("failed to send notification", zap.Error(err))
	}
}

// logEvents reports per-asset progress on the console
func logEvents(e pipeline.Event) {
	switch e.Kind {
	case pipeline.EventAssetFinished:
		s := e.Outcome.Stats()
		if s.Skipped {
			log.Info("asset skipped",
				zap.String("asset", e.Asset),
				zap.String("reason", s.SkipReason),
				zap.Int("index", e.Index+1),
				zap.Int("total", e.Total))
			return
		}
		log.Info("asset normalized",
			zap.String("asset", e.Asset),
			zap.String("loudness", report.FormatLUFS(s.OriginalLUFS)),
			zap.String("gain", report.FormatDB(s.AppliedGainDB)),
			zap.Bool("limited", s.Limited),
			zap.Int("index", e.Index+1),
			zap.Int("total", e.Total))
	case pipeline.EventTranscodeProgress:
		log.Debug("transcoding", zap.String("asset", e.Asset), zap.Float64("percent", e.Percent))
	}
}
