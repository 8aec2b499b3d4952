// Package tui shows a run while it integrates: energy history, the
// electron density profile along x and the run status.
package tui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/vlasim/internal/config"
	"github.com/san-kum/vlasim/internal/dynamo"
	"github.com/san-kum/vlasim/internal/experiment"
)

const historyLen = 120

type frameMsg Frame

type doneMsg struct {
	outcome *experiment.Outcome
	err     error
}

type model struct {
	scenario   string
	integrator string
	duration   float64

	frame   Frame
	history []float64
	initial float64

	done    bool
	failed  bool
	err     error
	cancel  context.CancelFunc
	outcome *experiment.Outcome

	width int
}

func newModel(cfg *config.Config, first Frame, cancel context.CancelFunc) model {
	return model{
		scenario:   cfg.Scenario,
		integrator: cfg.Integrator,
		duration:   cfg.Duration,
		frame:      first,
		history:    []float64{first.Sample.Total},
		initial:    first.Sample.Total,
		cancel:     cancel,
		width:      80,
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.done && m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case frameMsg:
		m.frame = Frame(msg)
		m.history = append(m.history, msg.Sample.Total)
		if len(m.history) > historyLen {
			m.history = m.history[len(m.history)-historyLen:]
		}
	case doneMsg:
		m.done = true
		m.outcome = msg.outcome
		m.err = msg.err
		m.failed = msg.err != nil || (msg.outcome != nil && len(msg.outcome.Result.Errors) > 0)
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(title.Render("vlasim") + "  " + white.Render(m.scenario) + "  " + dim.Render(m.integrator) + "\n\n")
	b.WriteString(m.status() + "\n")
	b.WriteString(m.progress() + "\n\n")

	s := m.frame.Sample
	drift := 0.0
	if m.initial != 0 {
		drift = (s.Total - m.initial) / math.Abs(m.initial)
	}
	stats := fmt.Sprintf("%s %s  %s %s  %s %s\n%s %s  %s %s",
		dim.Render("plasma"), cyan.Render(fmt.Sprintf("%.6g", s.Plasma)),
		dim.Render("em"), cyan.Render(fmt.Sprintf("%.6g", s.EM)),
		dim.Render("total"), white.Render(fmt.Sprintf("%.6g", s.Total)),
		dim.Render("drift"), m.driftStyle(drift).Render(fmt.Sprintf("%+.2e", drift)),
		dim.Render("|div B|²"), magenta.Render(fmt.Sprintf("%.2e", s.DivB)),
	)
	b.WriteString(panel.Render(stats) + "\n\n")

	w := m.chartWidth()
	b.WriteString(asciigraph.Plot(m.history,
		asciigraph.Height(8), asciigraph.Width(w), asciigraph.Caption("total energy")) + "\n\n")
	if len(m.frame.Profile) > 0 {
		b.WriteString(asciigraph.Plot(m.frame.Profile,
			asciigraph.Height(8), asciigraph.Width(w), asciigraph.Caption("electron density along x")) + "\n\n")
	}

	b.WriteString(dim.Render("q quit"))
	return b.String()
}

func (m model) status() string {
	switch {
	case m.done && m.err != nil && errors.Is(m.err, dynamo.ErrContextCanceled):
		return yellow.Render("stopped")
	case m.done && m.err != nil:
		return red.Render("error: " + m.err.Error())
	case m.done && m.failed:
		return red.Render(m.outcome.Result.Errors[0].Error())
	case m.done:
		return green.Render("finished")
	}
	return cyan.Render(fmt.Sprintf("running  step %d", m.frame.Step))
}

func (m model) progress() string {
	const barWidth = 40
	frac := 0.0
	if m.duration > 0 {
		frac = math.Min(m.frame.Time/m.duration, 1)
	}
	n := int(frac * barWidth)
	return green.Render(strings.Repeat("█", n)) + dim.Render(strings.Repeat("░", barWidth-n)) +
		fmt.Sprintf("  t=%.3f / %.3f", m.frame.Time, m.duration)
}

func (m model) driftStyle(drift float64) lipgloss.Style {
	switch d := math.Abs(drift); {
	case d < 1e-6:
		return green
	case d < 1e-3:
		return yellow
	}
	return red
}

func (m model) chartWidth() int {
	if m.width < 30 {
		return 60
	}
	return m.width - 12
}

// RunLive integrates exp while drawing it in the terminal. Quitting early
// cancels the run, whose error then wraps dynamo.ErrContextCanceled.
func RunLive(ctx context.Context, exp *experiment.Experiment, frameRate int) (*experiment.Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if exp.InitialState() == nil {
		if err := exp.Setup(ctx); err != nil {
			return nil, err
		}
	}

	var p *tea.Program
	cfg := exp.Config()
	feed := NewFeed(exp.System(), cfg.SpeciesMasses(), frameRate, func(f Frame) { p.Send(frameMsg(f)) })
	p = tea.NewProgram(newModel(cfg, feed.Frame(exp.InitialState(), 0), cancel), tea.WithAltScreen())
	exp.GetSimulator().AddObserver(feed)

	var (
		outcome *experiment.Outcome
		runErr  error
	)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		outcome, runErr = exp.Run(ctx)
		p.Send(doneMsg{outcome: outcome, err: runErr})
	}()

	_, uiErr := p.Run()
	cancel()
	<-finished

	if runErr != nil {
		return outcome, runErr
	}
	return outcome, uiErr
}
