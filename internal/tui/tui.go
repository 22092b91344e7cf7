package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kartoza/kartoza-narration-tuner/internal/models"
	"github.com/kartoza/kartoza-narration-tuner/internal/pipeline"
)

// Key bindings
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c", "esc"),
		key.WithHelp("q", "stop after current container"),
	),
}

// Messages
type eventMsg pipeline.Event

type batchDoneMsg struct {
	summary models.BatchSummary
	err     error
}

// finishedContainer is one line of the batch history
type finishedContainer struct {
	name      string
	processed int
	skipped   int
	err       error
}

// Model shows the progress of a batch run
type Model struct {
	total      int
	started    int
	finished   []finishedContainer
	processing *ProcessingState
	spinner    spinner.Model
	progress   progress.Model
	frame      int
	startTime  time.Time
	width      int
	height     int

	cancel   context.CancelFunc
	stopping bool
	done     bool
	summary  models.BatchSummary
	err      error
}

// NewModel creates a progress model for a batch of total containers.
// cancel is called when the user asks to stop.
func NewModel(total int, cancel context.CancelFunc) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorOrange)

	return Model{
		total:      total,
		processing: NewProcessingState(),
		spinner:    s,
		progress:   progress.New(progress.WithDefaultGradient()),
		startTime:  time.Now(),
		cancel:     cancel,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, processingTickCmd())
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			if m.done {
				return m, tea.Quit
			}
			// The running container always completes
			if !m.stopping && m.cancel != nil {
				m.cancel()
			}
			m.stopping = true
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(min(msg.Width-20, HeaderWidth), 10)
		return m, nil

	case processingTickMsg:
		m.frame++
		if m.done {
			return m, nil
		}
		return m, processingTickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case eventMsg:
		m.applyEvent(pipeline.Event(msg))
		return m, nil

	case batchDoneMsg:
		m.done = true
		m.summary = msg.summary
		m.err = msg.err
		m.processing.Complete()
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) applyEvent(e pipeline.Event) {
	switch e.Kind {
	case pipeline.EventContainerStarted:
		m.started++
		m.processing.Begin(filepath.Base(e.Container), e.Total)
	case pipeline.EventAssetStarted:
		m.processing.StartStep(e.Index, e.Asset)
	case pipeline.EventTranscodeProgress:
		m.processing.Percent = e.Percent
	case pipeline.EventAssetFinished:
		m.processing.FinishStep(e.Index, e.Outcome)
	case pipeline.EventContainerFinished:
		// Containers failing before extraction never sent a start event
		if m.processing.Container != filepath.Base(e.Container) || !m.processing.IsProcessing {
			m.started++
			m.processing.Begin(filepath.Base(e.Container), 0)
		}
		fc := finishedContainer{name: filepath.Base(e.Container), err: e.Err}
		if e.Report != nil {
			fc.processed, fc.skipped = models.CountOutcomes(e.Report.Outcomes)
		}
		m.finished = append(m.finished, fc)
		if e.Err != nil {
			m.processing.FailStep(e.Err)
		} else {
			m.processing.Complete()
		}
	}
}

// Fraction returns overall batch progress in [0, 1]
func (m Model) Fraction() float64 {
	if m.total == 0 {
		return 1
	}
	done := float64(len(m.finished))
	if m.processing.IsProcessing {
		done += m.processing.Fraction()
	}
	return min(done/float64(m.total), 1)
}

// View renders the model
func (m Model) View() string {
	status := "Running"
	if m.stopping {
		status = "Stopping"
	}
	if m.done {
		status = "Finished"
	}
	header := RenderHeader("Batch", &HeaderState{
		Status:    status,
		Container: fmt.Sprintf("%d/%d", min(m.started, m.total), m.total),
		Elapsed:   time.Since(m.startTime).Round(time.Second).String(),
	})

	var sections []string

	if len(m.finished) > 0 {
		var lines []string
		for _, fc := range m.finished {
			if fc.err != nil {
				lines = append(lines, ErrorStyle.Render("✗ ")+fc.name+LabelStyle.Render("  "+fc.err.Error()))
				continue
			}
			lines = append(lines, SuccessStyle.Render("✓ ")+fc.name+
				LabelStyle.Render(fmt.Sprintf("  %d normalized, %d skipped", fc.processed, fc.skipped)))
		}
		sections = append(sections, strings.Join(lines, "\n"), "")
	}

	if m.processing.IsProcessing {
		sections = append(sections, m.spinner.View()+" "+RenderProcessingView(m.processing, m.frame), "")
	}

	sections = append(sections, m.progress.ViewAs(m.Fraction()))

	if m.stopping && !m.done {
		sections = append(sections, "", ErrorStyle.Render("Stopping after the current container..."))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, sections...)
	footer := RenderHelpFooter("q: stop after current container", m.width)

	if m.width == 0 || m.height == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header, "", content, "", footer)
	}
	return LayoutWithHeaderFooter(header, content, footer, m.width, m.height)
}

// Run executes the batch behind a full-screen progress view and returns the
// run's summary once every container has finished or the user stopped it
func Run(ctx context.Context, p *pipeline.Pipeline, jobs []models.Job) (models.BatchSummary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	prog := tea.NewProgram(NewModel(len(jobs), cancel), tea.WithAltScreen())
	p.SetObserver(func(e pipeline.Event) {
		prog.Send(eventMsg(e))
	})
	defer p.SetObserver(nil)

	result := make(chan batchDoneMsg, 1)
	go func() {
		summary, err := p.RunBatch(ctx, jobs)
		msg := batchDoneMsg{summary: summary, err: err}
		result <- msg
		prog.Send(msg)
	}()

	if _, err := prog.Run(); err != nil {
		// The batch keeps its own context; wait so outputs are complete
		cancel()
		done := <-result
		return done.summary, fmt.Errorf("progress view failed: %w", err)
	}

	done := <-result
	return done.summary, done.err
}
