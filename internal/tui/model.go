package tui

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/gravity"
	"github.com/san-kum/gravsim/internal/particle"
	"github.com/san-kum/gravsim/internal/sim"
)

const (
	historyCapacity = 200
	frameInterval   = time.Second / 30
	thetaFactor     = 1.1
)

type TickMsg time.Time

// Options configures the live view.
type Options struct {
	Title      string
	Dt         float64
	HalfExtent float64
	// StepsPerFrame is the number of integrator ticks per redraw.
	StepsPerFrame int
	Width, Height int
}

// thetaTuner is implemented by fields with an adjustable opening angle.
type thetaTuner interface {
	Params() gravity.Params
	SetTheta(theta float64)
}

// Model is the bubbletea model of a running simulation, drawn as an XY
// projection of the root cube.
type Model struct {
	sim     *sim.Simulator
	initial *particle.Store
	ps      *particle.Store
	opts    Options
	canvas  *Canvas

	tick         int
	t            float64
	running      bool
	initialTheta float64
	energyHist   []float64
	e0           float64
	rejected     int
	lastErr      error
}

func NewModel(s *sim.Simulator, initial *particle.Store, opts Options) Model {
	if opts.Width <= 0 {
		opts.Width = 60
	}
	if opts.Height <= 0 {
		opts.Height = 24
	}
	if opts.StepsPerFrame <= 0 {
		opts.StepsPerFrame = 1
	}
	m := Model{
		sim:     s,
		initial: initial,
		opts:    opts,
		canvas:  NewCanvas(opts.Width, opts.Height),
		running: true,
	}
	if tt, ok := s.Field().(thetaTuner); ok {
		m.initialTheta = tt.Params().Theta
	}
	m.reset()
	return m
}

func tickCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tickCmd() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "n":
			if !m.running {
				m.step()
			}
		case "r":
			m.reset()
		case "+", "=":
			m.scaleTheta(thetaFactor)
		case "-", "_":
			m.scaleTheta(1 / thetaFactor)
		}
	case TickMsg:
		if m.running {
			for i := 0; i < m.opts.StepsPerFrame; i++ {
				m.step()
			}
		}
		return m, tickCmd()
	}
	return m, nil
}

// Tick returns the number of steps taken since the last reset.
func (m Model) Tick() int { return m.tick }

func (m Model) Time() float64 { return m.t }

func (m Model) Running() bool { return m.running }

func (m Model) Store() *particle.Store { return m.ps }

// Theta returns the current opening angle, or NaN for fields without one.
func (m Model) Theta() float64 {
	if tt, ok := m.sim.Field().(thetaTuner); ok {
		return tt.Params().Theta
	}
	return math.NaN()
}

func (m *Model) scaleTheta(f float64) {
	tt, ok := m.sim.Field().(thetaTuner)
	if !ok {
		return
	}
	tt.SetTheta(tt.Params().Theta * f)
}

func (m *Model) step() {
	err := m.sim.Step(m.ps, m.opts.Dt)
	m.tick++
	m.t += m.opts.Dt
	if err != nil {
		m.lastErr = err
		if errors.Is(err, dynamo.ErrOutOfBounds) {
			m.rejected++
		}
	}
	m.record()
}

func (m *Model) record() {
	ec, ok := m.sim.Field().(sim.EnergyComputer)
	if !ok {
		return
	}
	m.energyHist = append(m.energyHist, ec.Energy(m.ps))
	if len(m.energyHist) > historyCapacity {
		m.energyHist = m.energyHist[1:]
	}
}

// reset restores the initial particles and opening angle.
func (m *Model) reset() {
	if tt, ok := m.sim.Field().(thetaTuner); ok && m.initialTheta > 0 {
		tt.SetTheta(m.initialTheta)
	}
	m.ps = m.initial.Clone()
	m.tick, m.t, m.rejected, m.lastErr = 0, 0, 0, nil
	m.energyHist = m.energyHist[:0]
	if err := m.sim.Prime(m.ps); err != nil {
		m.lastErr = err
	}
	m.ps.SetPrimed(true)
	m.record()
	m.e0 = 0
	if len(m.energyHist) > 0 {
		m.e0 = m.energyHist[0]
	}
}

// project maps a position onto canvas dots. The root cube spans the
// shorter canvas side.
func (m *Model) project(x, y float64) (int, int) {
	cw, ch := m.canvas.Dots()
	side := float64(min(cw, ch)) / 2
	h := m.opts.HalfExtent
	if h <= 0 {
		h = 1
	}
	px := float64(cw)/2 + x/h*side
	py := float64(ch)/2 - y/h*side
	return int(math.Floor(px)), int(math.Floor(py))
}

func (m *Model) draw() {
	m.canvas.Clear()
	h := m.opts.HalfExtent
	x0, y0 := m.project(-h, h)
	x1, y1 := m.project(h, -h)
	m.canvas.DrawBox(x0, y0, x1-1, y1-1)
	for _, p := range m.ps.All() {
		px, py := m.project(p.Position.X(), p.Position.Y())
		m.canvas.Set(px, py)
	}
}

func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.opts.Title)) + "\n")
	if m.running {
		s.WriteString(runningStyle.Render("RUNNING") + "\n\n")
	} else {
		s.WriteString(pausedStyle.Render("PAUSED") + "\n\n")
	}

	if len(m.energyHist) > 1 {
		chart := asciigraph.Plot(m.energyHist, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Particles", fmt.Sprintf("%d", m.ps.Len()))
	row("Tick", fmt.Sprintf("%d", m.tick))
	row("Time", fmt.Sprintf("%.4g", m.t))
	if th := m.Theta(); !math.IsNaN(th) {
		row("Theta", fmt.Sprintf("%.3f", th))
	}
	if n := len(m.energyHist); n > 0 {
		e := m.energyHist[n-1]
		row("Energy", fmt.Sprintf("%.6g", e))
		if m.e0 != 0 {
			row("Drift", fmt.Sprintf("%.3e", math.Abs((e-m.e0)/m.e0)))
		}
	}
	if sr, ok := m.sim.Field().(sim.StatsReporter); ok {
		st := sr.Stats()
		row("Nodes", fmt.Sprintf("%d", st.Tree.Nodes))
		row("Depth", fmt.Sprintf("%d", st.Tree.Depth))
		row("Merged", fmt.Sprintf("%d", st.Tree.Merged))
		row("Interactions", fmt.Sprintf("%d", st.Interactions))
		row("Rejected", fmt.Sprintf("%d", st.Tree.Rejected))
	}
	if m.rejected > 0 {
		s.WriteString(warnStyle.Render(fmt.Sprintf("out of bounds on %d ticks", m.rejected)) + "\n")
	}
	s.WriteString(helpStyle.Render("\nSP:Pause N:Step R:Reset\n+/-:Theta Q:Quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
}

// Run starts the live view on the alternate screen and blocks until quit.
func Run(s *sim.Simulator, initial *particle.Store, opts Options) error {
	p := tea.NewProgram(NewModel(s, initial, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
