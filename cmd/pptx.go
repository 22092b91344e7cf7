package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kartoza/kartoza-narration-tuner/internal/models"
)

var pptxCmd = &cobra.Command{
	Use:   "pptx [input.pptx] [output.pptx]",
	Short: "Normalize narration embedded in PowerPoint files",
	Long: `Normalize the loudness of every audio clip embedded in a PowerPoint package.

Audio found under ppt/media/ is decoded, optionally denoised, measured and
re-encoded in its original format at the target loudness. Slides, images
and every other part of the package are copied byte for byte.

When no output is given, the result is written next to the input with the
configured suffix (default: _normalized). Use --input-dir to process a whole
directory of decks.`,
	Example: `  kartoza-narration-tuner pptx lesson.pptx
  kartoza-narration-tuner pptx lesson.pptx out.pptx --target-lufs -19
  kartoza-narration-tuner pptx -i decks/ -o normalized/ --denoise --tui`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobs, err := buildJobs(models.KindArchive, ".pptx", args)
		if err != nil {
			return err
		}
		return runJobs(cmd, jobs)
	},
}

func init() {
	addNormalizeFlags(pptxCmd)
	rootCmd.AddCommand(pptxCmd)
}
