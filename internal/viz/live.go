package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/debrisim/internal/dynamo"
	"github.com/san-kum/debrisim/internal/sim"
)

const (
	canvasWidth     = 60
	canvasHeight    = 24
	historyCapacity = 240
	maxEvents       = 6
	tickRate        = time.Second / 30
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(46)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// eventLog keeps the latest deorbit events. It is shared by pointer because
// bubbletea copies Model on every update.
type eventLog struct {
	lines []string
}

func (e *eventLog) OnStep(t float64, b *dynamo.Body) {}

func (e *eventLog) OnDeorbit(t float64, b *dynamo.Body) {
	e.lines = append(e.lines, fmt.Sprintf("t=%-8.0f %s", t, b.Name()))
	if len(e.lines) > maxEvents {
		e.lines = e.lines[1:]
	}
}

// Model drives a simulator from the bubbletea tick loop and draws a
// top-down view of the orbital plane.
type Model struct {
	sim    *sim.Simulator
	cfg    sim.Config
	label  string
	radius float64

	canvas   *Canvas
	viewport Viewport
	events   *eventLog

	stepsPerTick  int
	running       bool
	done          bool
	err           error
	activeHistory []float64
}

// NewModel starts s with cfg; the caller must not call Run on it.
func NewModel(s *sim.Simulator, cfg sim.Config, surfaceRadius float64, label string) (Model, error) {
	if err := s.Start(cfg); err != nil {
		return Model{}, err
	}

	extent := surfaceRadius
	for _, b := range s.Bodies() {
		extent = max(extent, r3.Norm(b.Pos))
	}

	canvas := NewCanvas(canvasWidth, canvasHeight)
	events := &eventLog{}
	s.AddObserver(events)

	return Model{
		sim:           s,
		cfg:           cfg,
		label:         label,
		radius:        surfaceRadius,
		canvas:        canvas,
		viewport:      NewViewport(canvas, extent*1.15),
		events:        events,
		stepsPerTick:  1,
		running:       true,
		activeHistory: make([]float64, 0, historyCapacity),
	}, nil
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Err reports the error that stopped the simulation, if any.
func (m Model) Err() error { return m.err }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "+", "=":
			m.stepsPerTick = min(m.stepsPerTick*2, 1024)
		case "-", "_":
			m.stepsPerTick = max(m.stepsPerTick/2, 1)
		case "z":
			m.viewport.Extent *= 0.8
		case "Z":
			m.viewport.Extent *= 1.25
		}
	case TickMsg:
		if m.running && !m.done {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) advance() {
	for i := 0; i < m.stepsPerTick; i++ {
		if m.sim.Time() >= m.cfg.Duration {
			m.done = true
			break
		}
		if err := m.sim.Advance(); err != nil {
			m.err = err
			m.done = true
			break
		}
	}

	m.activeHistory = append(m.activeHistory, float64(m.sim.Active()))
	if len(m.activeHistory) > historyCapacity {
		m.activeHistory = m.activeHistory[1:]
	}
}

func (m *Model) draw() {
	m.canvas.Clear()

	cx, cy := m.viewport.Project(0, 0)
	m.canvas.DrawCircle(cx, cy, m.viewport.Radius(m.radius))

	for _, b := range m.sim.Bodies() {
		if b.Deorbited() || !b.IsValid() {
			continue
		}
		x, y := m.viewport.Project(b.Pos.X, b.Pos.Y)
		m.canvas.Set(x, y)
		m.canvas.Set(x+1, y)
	}
}

func (m Model) View() string {
	m.draw()
	canvasView := canvasStyle.Render(m.canvas.String())

	status := StatusRunning.Render("RUNNING")
	switch {
	case m.err != nil:
		status = StatusDeorbited.Render("FAILED")
	case m.done:
		status = Title.Render("DONE")
	case !m.running:
		status = StatusPaused.Render("PAUSED")
	}

	total := len(m.sim.Bodies())
	active := m.sim.Active()

	var s strings.Builder
	s.WriteString(HeaderStyle.Render(strings.ToUpper(m.label)) + "\n")
	s.WriteString(status + "\n\n")
	s.WriteString(ProgressBar(m.sim.Time()/m.cfg.Duration, 30) + "\n\n")
	s.WriteString(Metric("time", fmt.Sprintf("%.0f / %.0fs", m.sim.Time(), m.cfg.Duration)) + "\n")
	s.WriteString(Metric("active", fmt.Sprintf("%d / %d", active, total)) + "\n")
	s.WriteString(Metric("deorbited", fmt.Sprintf("%d", total-active)) + "\n")
	s.WriteString(Metric("speed", fmt.Sprintf("%d steps/frame", m.stepsPerTick)) + "\n")

	if len(m.activeHistory) > 1 {
		s.WriteString(graphStyle.Render(Plot(m.activeHistory, "active bodies", 30, 4)) + "\n")
	}

	if len(m.events.lines) > 0 {
		s.WriteString("\nDEORBITS\n")
		for _, line := range m.events.lines {
			s.WriteString(Subtle.Render("  "+line) + "\n")
		}
	}
	if m.err != nil {
		s.WriteString("\n" + StatusDeorbited.Render(m.err.Error()) + "\n")
	}

	s.WriteString(KeyHint.Render("\nSP:Pause  +/-:Speed  z/Z:Zoom  Q:Quit"))
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
}
