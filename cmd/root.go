package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kartoza/kartoza-narration-tuner/internal/bridge"
	"github.com/kartoza/kartoza-narration-tuner/internal/config"
	"github.com/kartoza/kartoza-narration-tuner/internal/deps"
	"github.com/kartoza/kartoza-narration-tuner/internal/logger"
)

var (
	version    = "dev"
	verbose    bool
	configPath string
	envFile    string
	logFile    string

	cfg *config.Config
	log *zap.Logger
)

// errContainersFailed is returned when a run finished with failures; the
// report has already been printed
var errContainersFailed = errors.New("one or more containers failed")

// SetVersion sets the application version (called from main)
func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "kartoza-narration-tuner",
	Short: "Loudness normalization for narration in slide decks and videos",
	Long: `Kartoza Narration Tuner evens out the loudness of recorded narration.

It supports:
  - PowerPoint packages (.pptx) with embedded audio per slide
  - MP4 videos with a single narration track
  - EBU R128 / ITU-R BS.1770 integrated loudness measurement
  - True-peak limiting so louder clips never clip
  - Optional spectral noise reduction before measurement

Everything that is not narration audio is copied through unchanged.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(quietConsole())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errContainersFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.config/kartoza-narration-tuner/config.json)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Environment file to load (default: ./.env when present)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this file, rotated")
}

// setup loads configuration and builds the logger. Precedence, lowest
// first: defaults, config file, environment, command-line flags.
func setup(quiet bool) error {
	var err error
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var envFiles []string
	if envFile != "" {
		envFiles = append(envFiles, envFile)
	}
	if err := cfg.ApplyEnv(envFiles...); err != nil {
		return err
	}

	if logFile != "" {
		cfg.LogFile = logFile
	}

	log, err = logger.New(logger.Config{
		Verbose:  verbose,
		Quiet:    quiet && !verbose,
		FilePath: cfg.LogFile,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	return nil
}

// newBridge resolves the transcoder once for the whole run. Missing
// binaries are logged; commands that need them fail at preflight.
func newBridge() *bridge.Bridge {
	tools, missing := deps.ResolveTools(cfg.FFmpegPath, cfg.FFprobePath)
	for _, m := range missing {
		log.Debug("transcoder binary not found",
			zap.String("name", m.Dependency.Name),
			zap.String("override", m.Dependency.Override))
	}
	return bridge.New(tools, log.Named("bridge"))
}

// quietConsole keeps the console logger out of the way when stdout or the
// terminal belongs to JSON output or the progress view
func quietConsole() bool {
	return jsonOutput || useTUI
}
