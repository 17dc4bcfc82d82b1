// Package tui renders live progress of a pipeline run in the terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/seenimoa/newsimpact/internal/agent"
	"github.com/seenimoa/newsimpact/pkg/models"
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#5B8DEF")).Bold(true).Padding(0, 1)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
)

// stepOrder is the display order of the rows.
var stepOrder = []agent.Step{
	agent.StepPlanning,
	agent.StepSearchNews,
	agent.StepFetchPrices,
	agent.StepComputeReturns,
	agent.StepEnriching,
	agent.StepSynthesizing,
}

type rowState int

const (
	rowPending rowState = iota
	rowRunning
	rowDone
	rowFailed
)

type row struct {
	state   rowState
	visits  int
	detail  string
	elapsed time.Duration
}

// EventMsg carries one orchestrator event into the program.
type EventMsg agent.Event

// ResultMsg ends the program with the outcome of the run.
type ResultMsg struct {
	Report *models.FinalReport
	Err    error
}

// Model is the bubbletea model of the progress view.
type Model struct {
	title   string
	runID   string
	rows    map[agent.Step]*row
	spinner spinner.Model
	started time.Time
	now     func() time.Time
	cancel  context.CancelFunc

	finished bool
	report   *models.FinalReport
	err      error
}

// NewModel returns a progress view titled with the ticker and company.
func NewModel(req models.Request, cancel context.CancelFunc) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = runningStyle

	rows := make(map[agent.Step]*row, len(stepOrder))
	for _, st := range stepOrder {
		rows[st] = &row{}
	}
	return &Model{
		title:   fmt.Sprintf("%s · %s", req.Ticker, req.CompanyName),
		rows:    rows,
		spinner: s,
		started: time.Now(),
		now:     time.Now,
		cancel:  cancel,
	}
}

// Report returns the run outcome once the program has finished.
func (m *Model) Report() (*models.FinalReport, error) {
	return m.report, m.err
}

func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			if m.err == nil && m.report == nil {
				m.err = context.Canceled
			}
			m.finished = true
			return m, tea.Quit
		}
	case EventMsg:
		m.apply(agent.Event(msg))
		return m, nil
	case ResultMsg:
		m.report, m.err = msg.Report, msg.Err
		m.finished = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// apply records an event on its row.
func (m *Model) apply(e agent.Event) {
	if e.RunID != "" {
		m.runID = e.RunID
	}
	r, ok := m.rows[e.Step]
	if !ok {
		return
	}
	switch e.Phase {
	case agent.PhaseStart:
		r.state = rowRunning
		r.visits++
	case agent.PhaseDone:
		r.state = rowDone
		r.elapsed += e.Elapsed
		if e.Detail != "" {
			r.detail = e.Detail
		}
	case agent.PhaseError:
		r.state = rowFailed
		r.elapsed += e.Elapsed
		r.detail = e.Detail
	}
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("newsimpact"))
	b.WriteString(" " + m.title)
	if m.runID != "" {
		b.WriteString(subtleStyle.Render("  run " + shortID(m.runID)))
	}
	b.WriteString("\n\n")

	for _, st := range stepOrder {
		r := m.rows[st]
		label := st.Label()
		if st == agent.StepPlanning && r.visits > 1 {
			label = fmt.Sprintf("%s (x%d)", label, r.visits)
		}

		var icon string
		var style lipgloss.Style
		switch r.state {
		case rowRunning:
			icon, style = m.spinner.View(), runningStyle
		case rowDone:
			icon, style = "✓", doneStyle
		case rowFailed:
			icon, style = "✗", errorStyle
		default:
			icon, style = "·", pendingStyle
		}

		line := fmt.Sprintf(" %s %-24s", icon, style.Render(label))
		if r.elapsed > 0 {
			line += subtleStyle.Render(fmt.Sprintf(" %6s", r.elapsed.Round(10*time.Millisecond)))
		}
		if r.detail != "" {
			line += "  " + detailStyle.Render(r.detail)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	switch {
	case m.finished && m.err != nil:
		b.WriteString(errorStyle.Render("failed: "+m.err.Error()) + "\n")
	case m.finished && m.report != nil:
		b.WriteString(doneStyle.Render(fmt.Sprintf("done: %d articles analyzed", m.report.ArticlesAnalyzed)) + "\n")
	default:
		b.WriteString(subtleStyle.Render(fmt.Sprintf("elapsed %s · q to cancel", m.now().Sub(m.started).Round(time.Second))) + "\n")
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// RunFunc executes the pipeline, reporting progress through observe.
type RunFunc func(ctx context.Context, observe agent.Observer) (*models.FinalReport, error)

// Run shows the progress view on out while run executes. Cancelling from
// the keyboard cancels the context passed to run.
func Run(ctx context.Context, out io.Writer, req models.Request, run RunFunc) (*models.FinalReport, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewModel(req, cancel)
	p := tea.NewProgram(m, tea.WithOutput(out), tea.WithContext(ctx))

	go func() {
		rep, err := run(ctx, func(e agent.Event) { p.Send(EventMsg(e)) })
		p.Send(ResultMsg{Report: rep, Err: err})
	}()

	final, err := p.Run()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return nil, fmt.Errorf("tui: %w", err)
	}
	if fm, ok := final.(*Model); ok && fm.finished {
		return fm.Report()
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return m.Report()
}
