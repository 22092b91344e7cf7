package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kartoza/kartoza-narration-tuner/internal/models"
)

// ProcessingStep is one asset of the container being processed
type ProcessingStep struct {
	Name string
	// Detail is the skip reason or the result summary once finished
	Detail    string
	Status    StepStatus
	StartTime time.Time
	EndTime   time.Time
}

// StepStatus represents the status of a processing step
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepComplete
	StepFailed
	StepSkipped
)

// ProcessingState holds the per-asset progress of one container
type ProcessingState struct {
	Container    string
	Steps        []ProcessingStep
	CurrentStep  int
	IsProcessing bool
	StartTime    time.Time
	// Percent is the transcoder progress of the current step
	Percent float64
	Error   error
}

// NewProcessingState creates an idle processing state
func NewProcessingState() *ProcessingState {
	return &ProcessingState{CurrentStep: -1}
}

// Begin resets the state for a container holding total assets. Step names
// are filled in as each asset starts.
func (p *ProcessingState) Begin(container string, total int) {
	p.Container = container
	p.Steps = make([]ProcessingStep, total)
	for i := range p.Steps {
		p.Steps[i] = ProcessingStep{Name: fmt.Sprintf("Asset %d", i+1), Status: StepPending}
	}
	p.CurrentStep = -1
	p.IsProcessing = true
	p.StartTime = time.Now()
	p.Percent = 0
	p.Error = nil
}

// SetStepByIndex directly sets a step's status by index
func (p *ProcessingState) SetStepByIndex(index int, status StepStatus) {
	if index >= 0 && index < len(p.Steps) {
		if status == StepRunning {
			p.Steps[index].StartTime = time.Now()
			p.CurrentStep = index
		} else if status == StepComplete || status == StepSkipped || status == StepFailed {
			p.Steps[index].EndTime = time.Now()
		}
		p.Steps[index].Status = status
	}
}

// StartStep marks the asset at index as running
func (p *ProcessingState) StartStep(index int, name string) {
	if index < 0 || index >= len(p.Steps) {
		return
	}
	p.Steps[index].Name = name
	p.Percent = 0
	p.SetStepByIndex(index, StepRunning)
}

// FinishStep records the outcome of the asset at index
func (p *ProcessingState) FinishStep(index int, outcome models.Outcome) {
	if index < 0 || index >= len(p.Steps) {
		return
	}
	switch o := outcome.(type) {
	case models.Skipped:
		p.Steps[index].Detail = o.Reason
		p.SetStepByIndex(index, StepSkipped)
	case models.Processed:
		p.Steps[index].Detail = fmt.Sprintf("%.1f -> %.1f LUFS", o.Result.OriginalLUFS, o.Result.FinalLUFS)
		p.SetStepByIndex(index, StepComplete)
	default:
		p.SetStepByIndex(index, StepComplete)
	}
	p.Percent = 100
}

// FailStep marks the current step, if any, as failed
func (p *ProcessingState) FailStep(err error) {
	if p.CurrentStep >= 0 && p.CurrentStep < len(p.Steps) && p.Steps[p.CurrentStep].Status == StepRunning {
		p.Steps[p.CurrentStep].Status = StepFailed
		p.Steps[p.CurrentStep].EndTime = time.Now()
	}
	p.Error = err
	p.IsProcessing = false
}

// Complete marks processing as complete
func (p *ProcessingState) Complete() {
	p.IsProcessing = false
}

// Done returns how many steps have finished, in any terminal status
func (p *ProcessingState) Done() int {
	n := 0
	for _, s := range p.Steps {
		if s.Status == StepComplete || s.Status == StepSkipped || s.Status == StepFailed {
			n++
		}
	}
	return n
}

// Fraction returns container progress in [0, 1], counting partial
// transcoder progress of the running step
func (p *ProcessingState) Fraction() float64 {
	if len(p.Steps) == 0 {
		if p.IsProcessing {
			return 0
		}
		return 1
	}
	done := float64(p.Done())
	if p.CurrentStep >= 0 && p.CurrentStep < len(p.Steps) && p.Steps[p.CurrentStep].Status == StepRunning {
		done += p.Percent / 100
	}
	return min(done/float64(len(p.Steps)), 1)
}

// Reset clears the state
func (p *ProcessingState) Reset() {
	*p = ProcessingState{CurrentStep: -1}
}

type processingTickMsg struct{}

func processingTickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return processingTickMsg{}
	})
}

// Donut animation frames (Unicode block characters for spinning effect)
var donutFrames = []string{
	"◐", "◓", "◑", "◒",
}

// RenderProcessingView renders the step list of the current container
func RenderProcessingView(state *ProcessingState, frame int) string {
	if state == nil || state.Container == "" {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorOrange).
		MarginBottom(1)
	title := titleStyle.Render(state.Container)

	var steps []string
	for i, step := range state.Steps {
		steps = append(steps, renderStepLine(step, i == state.CurrentStep, frame))
	}
	if len(steps) == 0 {
		steps = append(steps, LabelStyle.Render("  no narration audio"))
	}

	var statusMsg string
	statusStyle := lipgloss.NewStyle().MarginTop(1).Foreground(ColorGray)
	switch {
	case state.Error != nil:
		statusMsg = statusStyle.Foreground(ColorRed).Render(fmt.Sprintf("Error: %v", state.Error))
	case !state.IsProcessing:
		statusMsg = statusStyle.Foreground(ColorGreen).Render("Container written")
	default:
		statusMsg = statusStyle.Render("Please wait...")
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		strings.Join(steps, "\n"),
		statusMsg,
	)
}

// renderStepLine renders a single processing step with appropriate indicator
func renderStepLine(step ProcessingStep, isCurrent bool, frame int) string {
	var indicator string
	var nameStyle lipgloss.Style

	switch step.Status {
	case StepPending:
		indicator = lipgloss.NewStyle().Foreground(ColorGray).Render("○")
		nameStyle = lipgloss.NewStyle().Foreground(ColorGray)

	case StepRunning:
		donutStyle := lipgloss.NewStyle().Foreground(ColorOrange).Bold(true)
		indicator = donutStyle.Render(donutFrames[frame%len(donutFrames)])
		nameStyle = lipgloss.NewStyle().Foreground(ColorWhite).Bold(isCurrent)

	case StepComplete:
		indicator = lipgloss.NewStyle().Foreground(ColorGreen).Render("●")
		nameStyle = lipgloss.NewStyle().Foreground(ColorGreen)

	case StepFailed:
		indicator = lipgloss.NewStyle().Foreground(ColorRed).Render("✗")
		nameStyle = lipgloss.NewStyle().Foreground(ColorRed)

	case StepSkipped:
		indicator = lipgloss.NewStyle().Foreground(ColorGray).Render("○")
		nameStyle = lipgloss.NewStyle().Foreground(ColorGray).Strikethrough(true)
	}

	var detail string
	if step.Detail != "" {
		detail = lipgloss.NewStyle().Foreground(ColorGray).Italic(true).Render("  " + step.Detail)
	}

	var duration string
	if step.Status == StepComplete || step.Status == StepFailed {
		d := step.EndTime.Sub(step.StartTime).Round(100 * time.Millisecond)
		durationStyle := lipgloss.NewStyle().Foreground(ColorGray).Italic(true)
		duration = durationStyle.Render(fmt.Sprintf(" (%s)", d))
	}

	return fmt.Sprintf("  %s %s%s%s", indicator, nameStyle.Render(step.Name), duration, detail)
}
