package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kartoza/kartoza-narration-tuner/internal/models"
	"github.com/kartoza/kartoza-narration-tuner/internal/pipeline"
	"github.com/kartoza/kartoza-narration-tuner/internal/report"
)

var measureCmd = &cobra.Command{
	Use:   "measure <file> [file...]",
	Short: "Measure narration loudness without changing anything",
	Long: `Report the integrated loudness and true peak of every narration clip in
PowerPoint (.pptx) or MP4 files. Nothing is written.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := pipeline.New(newBridge(), cfg.Normalize, log.Named("pipeline"))

		type measured struct {
			Input        string                       `json:"input"`
			Measurements []models.LoudnessMeasurement `json:"measurements"`
			Error        string                       `json:"error,omitempty"`
		}
		var results []measured
		failed := false

		for _, in := range args {
			ms, err := p.Measure(cmd.Context(), in)
			result := measured{Input: in, Measurements: ms}
			if err != nil {
				failed = true
				result.Error = err.Error()
			}
			results = append(results, result)

			if jsonOutput {
				continue
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n\n", in, err)
				continue
			}
			fmt.Println(report.RenderMeasurements(in, ms))
		}

		if jsonOutput {
			if err := report.WriteJSON(os.Stdout, results); err != nil {
				return err
			}
		}
		if failed {
			return errContainersFailed
		}
		return nil
	},
}

func init() {
	measureCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print measurements as JSON")
	rootCmd.AddCommand(measureCmd)
}
