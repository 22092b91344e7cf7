package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kartoza/kartoza-narration-tuner/internal/pipeline"
)

var extractForce bool

var extractCmd = &cobra.Command{
	Use:   "extract <file> <dir>",
	Short: "Copy narration audio out of a PowerPoint or MP4 file",
	Long: `Copy every narration clip of a PowerPoint package, or the audio track of an
MP4 video, into a directory. Clips keep their original encoding; video audio
is written as WAV. Useful as input for transcription tools.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cfg.Normalize
		opts.Overwrite = extractForce

		p := pipeline.New(newBridge(), opts, log.Named("pipeline"))
		written, err := p.ExportAssets(cmd.Context(), args[0], args[1])
		for _, path := range written {
			fmt.Println(path)
		}
		if err != nil {
			return err
		}
		if len(written) == 0 {
			fmt.Println("No narration audio found")
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().BoolVarP(&extractForce, "force", "f", false, "Overwrite existing files")
	rootCmd.AddCommand(extractCmd)
}
