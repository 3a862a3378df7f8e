// Package tui is the interactive gain tuner.
package tui

import (
	"context"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/loopsim/internal/config"
	"github.com/san-kum/loopsim/internal/experiment"
	"github.com/san-kum/loopsim/internal/loop"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

type state int

const (
	stateMenu state = iota
	stateTune
)

type knob struct {
	name   string
	get    func(Settings) float64
	adjust func(*Settings, int)
}

// knobs in display order. Gain and saturation scale geometrically, the
// others step linearly.
var knobs = []knob{
	{"gain", func(s Settings) float64 { return s.Gain }, func(s *Settings, d int) { s.Gain = geometric(s.Gain, d) }},
	{"saturation", func(s Settings) float64 { return s.Saturation.Upper }, func(s *Settings, d int) { s.Saturation = scaleBounds(s.Saturation, d) }},
	{"dist gain", func(s Settings) float64 { return s.DisturbanceGain }, func(s *Settings, d int) { s.DisturbanceGain = round(s.DisturbanceGain + 0.1*float64(d)) }},
	{"ff scale", func(s Settings) float64 { return s.FFScale }, func(s *Settings, d int) { s.FFScale = round(s.FFScale + 0.1*float64(d)) }},
}

func geometric(v float64, dir int) float64 {
	if v == 0 {
		if dir > 0 {
			return 0.1
		}
		return 0
	}
	f := math.Pow(1.25, float64(dir))
	return round(v * f)
}

// scaleBounds grows or shrinks both saturation bounds by the same factor so
// a one-sided limit stays one-sided.
func scaleBounds(sat loop.Saturation, dir int) loop.Saturation {
	if sat.Lower == 0 && sat.Upper == 0 {
		return loop.Saturation{Lower: -geometric(0, dir), Upper: geometric(0, dir)}
	}
	f := math.Pow(1.25, float64(dir))
	return loop.Saturation{Lower: round(sat.Lower * f), Upper: round(sat.Upper * f)}
}

func round(v float64) float64 { return math.Round(v*1000) / 1000 }

type preset struct {
	plant, name string
}

type model struct {
	ctx      context.Context
	registry *experiment.Registry

	state   state
	cursor  int
	presets []preset

	base     *config.Config
	settings Settings
	knob     int
	session  *Session

	width  int
	height int
}

// NewTuner builds the tuner program model. When start is non-nil the menu
// is skipped.
func NewTuner(ctx context.Context, start *config.Config) tea.Model {
	m := model{
		ctx:      ctx,
		registry: experiment.NewRegistry(),
		width:    80,
		height:   24,
	}
	for _, plant := range config.Plants() {
		for _, name := range config.ListPresets(plant) {
			m.presets = append(m.presets, preset{plant, name})
		}
	}
	if start != nil {
		m.load(start)
	}
	return m
}

func (m *model) load(cfg *config.Config) {
	m.base = cfg
	m.settings = SettingsFrom(cfg)
	m.knob = 0
	m.state = stateTune
	m.rerun()
}

func (m *model) rerun() {
	m.session = NewSession(m.ctx, m.registry, m.base, m.settings)
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == stateMenu {
			return m.menuKey(msg)
		}
		return m.tuneKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		p := m.presets[m.cursor]
		m.load(config.GetPreset(p.plant, p.name))
		return m, tea.ClearScreen
	}
	return m, nil
}

func (m model) tuneKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc":
		m.state = stateMenu
		m.session = nil
		return m, tea.ClearScreen
	case "up", "k":
		if m.knob > 0 {
			m.knob--
		}
	case "down", "j":
		if m.knob < len(knobs)-1 {
			m.knob++
		}
	case "left", "h":
		knobs[m.knob].adjust(&m.settings, -1)
		m.rerun()
	case "right", "l":
		knobs[m.knob].adjust(&m.settings, 1)
		m.rerun()
	case "tab":
		m.settings.Reference = nextKind(m.settings.Reference)
		m.rerun()
	case "r":
		m.settings = SettingsFrom(m.base)
		m.rerun()
	}
	return m, nil
}

func (m model) View() string {
	if m.state == stateMenu {
		return m.viewMenu()
	}
	return m.viewTune()
}

func (m model) viewMenu() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("           " + cyan.Render("l o o p s i m") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("\n")

	for i, p := range m.presets {
		cfg := config.Presets[p.plant][p.name]
		desc := fmt.Sprintf("K=%g  %s", cfg.Gain, cfg.Reference.Kind)
		label := fmt.Sprintf("%-24s", p.plant+"/"+p.name)
		if i == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(label) + dim.Render(desc) + "\n")
		} else {
			b.WriteString("        " + dim.Render(label) + dimmer.Render(desc) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select   enter tune   q quit") + "\n")

	return b.String()
}

func (m model) viewTune() string {
	var b strings.Builder

	name := m.base.Name
	if name == "" {
		name = "custom"
	}
	b.WriteString("\n      " + cyan.Render(name) + "  " + dim.Render(fmt.Sprintf("reference %s", m.settings.Reference)) + "\n")
	b.WriteString(dimmer.Render("      "+strings.Repeat("─", 30)) + "\n\n")

	for i, k := range knobs {
		val := fmt.Sprintf("%8.3f", k.get(m.settings))
		if i == m.knob {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-12s", k.name)) + magenta.Render(val) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-12s", k.name)) + dim.Render(val) + "\n")
		}
	}
	b.WriteString("\n")

	b.WriteString(m.viewSession())

	b.WriteString("\n" + dim.Render("      ↑↓ select  ←→ adjust  tab reference  r reset  q back") + "\n")
	return b.String()
}

func (m model) viewSession() string {
	s := m.session
	if s == nil {
		return ""
	}
	var b strings.Builder

	status := green.Render("● ") + dim.Render(s.Summary())
	switch {
	case s.Err != nil:
		status = red.Render("✗ ") + red.Render(s.Summary())
	case s.Result != nil && s.Result.Diverged:
		status = yellow.Render("○ ") + yellow.Render(s.Summary())
	}
	b.WriteString("   " + status + "\n")
	if s.LimitCycle != nil {
		b.WriteString("   " + magenta.Render(fmt.Sprintf("limit cycle predicted: %.3g Hz, amplitude %.3g", s.LimitCycle.Hz(), s.LimitCycle.Amplitude)) + "\n")
	}
	b.WriteString("\n")

	if s.Result == nil || s.Err != nil || s.Result.Diverged {
		return b.String()
	}

	w := m.width - 12
	if w < 40 {
		w = 40
	}
	h := (m.height - 18) / 2
	if h < 5 {
		h = 5
	}
	b.WriteString(asciigraph.PlotMany(
		[][]float64{s.Result.Reference, s.Result.Response},
		asciigraph.Height(h),
		asciigraph.Width(w),
		asciigraph.SeriesColors(asciigraph.Gray, asciigraph.Blue),
		asciigraph.Caption("reference / response"),
	) + "\n\n")
	b.WriteString(asciigraph.Plot(s.Result.Control,
		asciigraph.Height(h),
		asciigraph.Width(w),
		asciigraph.SeriesColors(asciigraph.Red),
		asciigraph.Caption("control"),
	) + "\n")
	return b.String()
}
