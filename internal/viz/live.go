package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/gearbox/internal/sim"
)

const historyCapacity = 300

type TickMsg time.Time

// Model holds the running loop and its display history.
type Model struct {
	loop        *sim.Loop
	name        string
	overrideKey string
	frame       time.Duration
	stepsPerFrm int
	running     bool
	measured    []float64
	outputs     []float64
	last        sim.Sample
	metrics     []sim.Metric
	params      map[string]float64
	paramKeys   []string
	selected    int
	diverged    bool
	showHelp    bool
}

// NewModel builds a live view over loop. overrideKey is what the o key
// submits to EngageOverride.
func NewModel(loop *sim.Loop, name, overrideKey string, fps, stepsPerFrame int, metrics []sim.Metric) Model {
	if fps <= 0 {
		fps = 30
	}
	if stepsPerFrame <= 0 {
		stepsPerFrame = 1
	}

	params := make(map[string]float64)
	if c, ok := loop.Plant().(sim.Configurable); ok {
		for k, v := range c.Params() {
			params[k] = v
		}
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, m := range metrics {
		m.Reset()
	}

	return Model{
		loop:        loop,
		name:        name,
		overrideKey: overrideKey,
		frame:       time.Second / time.Duration(fps),
		stepsPerFrm: stepsPerFrame,
		running:     true,
		measured:    make([]float64, 0, historyCapacity),
		outputs:     make([]float64, 0, historyCapacity),
		last:        sim.Sample{Measured: loop.State()[0], Status: loop.Controller().Status()},
		metrics:     metrics,
		params:      params,
		paramKeys:   keys,
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.frame, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles input events and steps the loop.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "space":
			m.running = !m.running
		case "r":
			m.loop.Controller().Reset()
			m.last.Status = m.loop.Controller().Status()
		case "o":
			m.loop.Controller().EngageOverride(m.overrideKey)
			m.last.Status = m.loop.Controller().Status()
		case "x":
			m.loop.Controller().EngageOverride("")
			m.last.Status = m.loop.Controller().Status()
		case "tab":
			if len(m.paramKeys) > 0 {
				m.selected = (m.selected + 1) % len(m.paramKeys)
			}
		case "up", "k":
			m.adjustParam(1.05)
		case "down", "j":
			m.adjustParam(0.95)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running && !m.diverged {
			for i := 0; i < m.stepsPerFrm; i++ {
				m.step()
			}
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) adjustParam(factor float64) {
	if len(m.paramKeys) == 0 {
		return
	}
	c, ok := m.loop.Plant().(sim.Configurable)
	if !ok {
		return
	}
	key := m.paramKeys[m.selected]
	val := m.params[key] * factor
	if val == 0 {
		val = 0.01 * factor
	}
	if err := c.SetParam(key, val); err == nil {
		m.params[key] = val
	}
}

// step advances the loop once and appends to the history buffers.
func (m *Model) step() {
	sample, x := m.loop.Step()
	m.last = sample
	for _, metric := range m.metrics {
		metric.Observe(sample)
	}

	m.measured = appendCapped(m.measured, sample.Measured)
	m.outputs = appendCapped(m.outputs, sample.Output)

	if !x.IsValid() {
		m.diverged = true
		m.running = false
	}
}

func appendCapped(buf []float64, v float64) []float64 {
	buf = append(buf, v)
	if len(buf) > historyCapacity {
		buf = buf[1:]
	}
	return buf
}

// plottable drops non-finite values so asciigraph can scale the chart.
func plottable(data []float64) []float64 {
	out := make([]float64, 0, len(data))
	for _, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// View renders the TUI interface.
func (m Model) View() string {
	var charts strings.Builder
	if data := plottable(m.measured); len(data) > 1 {
		charts.WriteString(graphStyle.Render(asciigraph.Plot(data, asciigraph.Height(8), asciigraph.Width(60), asciigraph.Caption("measured frequency"))))
		charts.WriteString("\n\n")
	}
	if data := plottable(m.outputs); len(data) > 1 {
		charts.WriteString(graphStyle.Render(asciigraph.Plot(data, asciigraph.Height(6), asciigraph.Width(60), asciigraph.Caption("controller output"))))
	}
	if charts.Len() == 0 {
		charts.WriteString("waiting for samples...")
	}

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.name)) + "\n")
	s.WriteString(StatusBadge(m.last.Status) + "\n")
	switch {
	case m.diverged:
		s.WriteString(pausedStyle.Render("DIVERGED") + "\n")
	case !m.running:
		s.WriteString(pausedStyle.Render("PAUSED") + "\n")
	}
	s.WriteString("\n")

	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2fs", m.loop.Time())) + "\n")
	s.WriteString(labelStyle.Render("Measured") + valueStyle.Render(fmt.Sprintf("%.4f", m.last.Measured)) + "\n")
	s.WriteString(labelStyle.Render("Error") + valueStyle.Render(fmt.Sprintf("%.4f", m.last.Error)) + "\n")
	s.WriteString(labelStyle.Render("Output") + valueStyle.Render(fmt.Sprintf("%.4f", m.last.Output)) + "\n")
	for _, metric := range m.metrics {
		s.WriteString(labelStyle.Render(metric.Name()) + valueStyle.Render(fmt.Sprintf("%.4f", metric.Value())) + "\n")
	}

	s.WriteString("\nPLANT\n")
	if len(m.paramKeys) == 0 {
		s.WriteString(labelStyle.Render("  (none)") + "\n")
	}
	for i, k := range m.paramKeys {
		line := fmt.Sprintf("%-10s %.3f", k, m.params[k])
		if i == m.selected {
			s.WriteString(activeParamStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + labelStyle.Render(line) + "\n")
		}
	}

	s.WriteString(helpStyle.Render("SP:Pause R:Reset O:Override X:Deny\nTab/↑↓:Tune Q:Quit ?:Help"))

	view := lipgloss.JoinHorizontal(lipgloss.Top, panelStyle.Render(charts.String()), statsStyle.Render(s.String()))
	if m.showHelp {
		return `
  Space  pause/resume
  R      reset controller (accumulators and mode)
  O      engage override with the configured key
  X      engage override with an empty key
  Tab    cycle plant parameters
  Up/K   increase parameter (+5%)
  Down/J decrease parameter (-5%)
  Q      quit
` + "\n" + view
	}
	return view
}

// Run starts the live view on the terminal.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
