// Package report renders container reports, batch summaries and loudness
// measurements as styled terminal tables or JSON documents.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/kartoza/kartoza-narration-tuner/internal/models"
)

var (
	colorOrange = lipgloss.Color("#DDA036")
	colorBlue   = lipgloss.Color("#569FC6")
	colorGray   = lipgloss.Color("#9A9EA0")
	colorRed    = lipgloss.Color("#E95420")
	colorGreen  = lipgloss.Color("#4CAF50")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorOrange)
	labelStyle  = lipgloss.NewStyle().Foreground(colorGray)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorBlue).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	okStyle     = lipgloss.NewStyle().Foreground(colorGreen)
	skipStyle   = lipgloss.NewStyle().Foreground(colorGray)
	failStyle   = lipgloss.NewStyle().Foreground(colorRed)
)

// FormatLUFS formats a loudness value, e.g. "-16.0 LUFS"
func FormatLUFS(v float64) string {
	return fmt.Sprintf("%.1f LUFS", v)
}

// FormatDB formats a gain or level with an explicit sign, e.g. "+6.3 dB"
func FormatDB(v float64) string {
	if v >= 0 {
		return fmt.Sprintf("+%.1f dB", v)
	}
	return fmt.Sprintf("%.1f dB", v)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorGray)).
		Headers(headers...)
}

// RenderContainer renders one container report: a header line followed by
// one row per asset in discovery order
func RenderContainer(r *models.ContainerReport) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(filepath.Base(r.Input)))
	sb.WriteString("\n")
	if r.Output != "" {
		sb.WriteString(labelStyle.Render("Output: "))
		sb.WriteString(r.Output)
		sb.WriteString("\n")
	}

	if r.Err != nil {
		sb.WriteString(failStyle.Render("Failed: " + r.Err.Error()))
		sb.WriteString("\n")
		return sb.String()
	}

	stats := r.Stats()
	if len(stats) == 0 {
		sb.WriteString(skipStyle.Render("No narration audio found; container copied unchanged"))
		sb.WriteString("\n")
		return sb.String()
	}

	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, statsRow(s))
	}

	t := newTable("Asset", "Original", "Gain", "Final", "Peak", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 5 {
				if stats[row].Skipped {
					return cellStyle.Inherit(skipStyle)
				}
				return cellStyle.Inherit(okStyle)
			}
			return cellStyle
		})

	sb.WriteString(t.Render())
	sb.WriteString("\n")

	processed, skipped := models.CountOutcomes(r.Outcomes)
	sb.WriteString(labelStyle.Render(fmt.Sprintf("%d normalized, %d skipped in %s",
		processed, skipped, r.Elapsed().Round(100*time.Millisecond))))
	sb.WriteString("\n")
	return sb.String()
}

func statsRow(s models.NormalizationStats) []string {
	if s.Skipped {
		original := "-"
		if s.OriginalLUFS != 0 {
			original = FormatLUFS(s.OriginalLUFS)
		}
		return []string{s.Filename, original, "-", "-", "-", "skipped: " + s.SkipReason}
	}

	status := "normalized"
	if s.Limited {
		status = "limited"
	}
	if s.Denoised {
		status += ", denoised"
	}
	return []string{
		s.Filename,
		FormatLUFS(s.OriginalLUFS),
		FormatDB(s.AppliedGainDB),
		FormatLUFS(s.FinalLUFS),
		FormatDB(s.PeakDB),
		status,
	}
}

// RenderSummary renders the per-container results of a batch run
func RenderSummary(s *models.BatchSummary) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Batch Summary"))
	sb.WriteString("\n")

	rows := make([][]string, 0, len(s.Reports))
	for i := range s.Reports {
		r := &s.Reports[i]
		processed, skipped := models.CountOutcomes(r.Outcomes)
		result := "written"
		if !r.Succeeded() {
			result = "failed"
			if r.Err != nil {
				result = "failed: " + r.Err.Error()
			}
		}
		rows = append(rows, []string{
			filepath.Base(r.Input),
			fmt.Sprintf("%d", processed),
			fmt.Sprintf("%d", skipped),
			result,
		})
	}

	t := newTable("Container", "Normalized", "Skipped", "Result").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 3 {
				if s.Reports[row].Succeeded() {
					return cellStyle.Inherit(okStyle)
				}
				return cellStyle.Inherit(failStyle)
			}
			return cellStyle
		})

	sb.WriteString(t.Render())
	sb.WriteString("\n")

	line := fmt.Sprintf("%d written, %d failed", s.Succeeded, s.Failed)
	if s.Cancelled > 0 {
		line += fmt.Sprintf(", %d cancelled", s.Cancelled)
	}
	style := okStyle
	if s.Failed > 0 || s.Cancelled > 0 {
		style = failStyle
	}
	sb.WriteString(style.Render(line))
	sb.WriteString("\n")
	sb.WriteString(labelStyle.Render("Run: " + s.RunID))
	sb.WriteString("\n")
	return sb.String()
}

// RenderMeasurements renders a dry-run analysis of one container
func RenderMeasurements(input string, ms []models.LoudnessMeasurement) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(filepath.Base(input)))
	sb.WriteString("\n")

	if len(ms) == 0 {
		sb.WriteString(skipStyle.Render("No narration audio found"))
		sb.WriteString("\n")
		return sb.String()
	}

	rows := make([][]string, 0, len(ms))
	for _, m := range ms {
		if m.SkipReason != "" {
			rows = append(rows, []string{m.Asset, "-", "-", fmt.Sprintf("%.1fs", m.Duration), m.SkipReason})
			continue
		}
		rows = append(rows, []string{
			m.Asset,
			FormatLUFS(m.LUFS),
			FormatDB(m.TruePeakDB) + "TP",
			fmt.Sprintf("%.1fs", m.Duration),
			"",
		})
	}

	t := newTable("Asset", "Loudness", "True Peak", "Duration", "Note").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 4 {
				return cellStyle.Inherit(skipStyle)
			}
			return cellStyle
		})

	sb.WriteString(t.Render())
	sb.WriteString("\n")
	return sb.String()
}

// ContainerDocument is the JSON form of a container report
type ContainerDocument struct {
	models.ContainerReport
	Assets []models.NormalizationStats `json:"assets"`
	Error  string                      `json:"error,omitempty"`
}

// SummaryDocument is the JSON form of a batch summary
type SummaryDocument struct {
	models.BatchSummary
	Containers []ContainerDocument `json:"containers"`
}

// NewContainerDocument folds a report into its JSON form
func NewContainerDocument(r *models.ContainerReport) ContainerDocument {
	doc := ContainerDocument{ContainerReport: *r, Assets: r.Stats()}
	if r.Err != nil {
		doc.Error = r.Err.Error()
	}
	return doc
}

// NewSummaryDocument folds a batch summary into its JSON form
func NewSummaryDocument(s *models.BatchSummary) SummaryDocument {
	doc := SummaryDocument{BatchSummary: *s, Containers: make([]ContainerDocument, 0, len(s.Reports))}
	for i := range s.Reports {
		doc.Containers = append(doc.Containers, NewContainerDocument(&s.Reports[i]))
	}
	return doc
}

// WriteJSON writes v as indented JSON followed by a newline
func WriteJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
