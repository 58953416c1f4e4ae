// Package viz renders a live terminal view of a running world:
// active-body and island counts plotted over time next to the current
// step statistics.
package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/rigidsim/internal/world"
)

const (
	graphWidth      = 60
	graphHeight     = 8
	historyCapacity = 600
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(0, 2).Width(34)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

// Model drives the simulation from the UI tick and buffers the two
// plotted series.
type Model struct {
	world        *world.World
	scene        string
	frameRate    int
	stepsPerTick int

	stats      world.StepStats
	activeHist []float64
	islandHist []float64
	paused     bool
}

func NewModel(w *world.World, scene string, frameRate, stepsPerTick int) Model {
	if frameRate < 1 {
		frameRate = 30
	}
	if stepsPerTick < 1 {
		stepsPerTick = 1
	}
	return Model{
		world:        w,
		scene:        scene,
		frameRate:    frameRate,
		stepsPerTick: stepsPerTick,
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.frameRate), func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		}
	case TickMsg:
		if !m.paused {
			for i := 0; i < m.stepsPerTick; i++ {
				m.stats = m.world.Step()
			}
			m.activeHist = appendCapped(m.activeHist, float64(m.stats.ActiveBodies))
			m.islandHist = appendCapped(m.islandHist, float64(m.stats.Islands))
		}
		return m, m.tick()
	}
	return m, nil
}

func appendCapped(hist []float64, v float64) []float64 {
	hist = append(hist, v)
	if len(hist) > historyCapacity {
		hist = hist[len(hist)-historyCapacity:]
	}
	return hist
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("rigidsim · %s", m.scene)))
	b.WriteString("\n")

	graphs := lipgloss.JoinVertical(lipgloss.Left,
		graphStyle.Render(plot("active bodies", m.activeHist)),
		graphStyle.Render(plot("islands", m.islandHist)),
	)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, graphs, m.statsPanel()))

	status := "space pause · q quit"
	if m.paused {
		status = "paused · " + status
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(status))
	return b.String()
}

func plot(title string, data []float64) string {
	if len(data) < 2 {
		return title + "\n(waiting for data)"
	}
	window := data
	if len(window) > graphWidth {
		window = window[len(window)-graphWidth:]
	}
	return title + "\n" + asciigraph.Plot(window,
		asciigraph.Height(graphHeight),
		asciigraph.Width(graphWidth),
	)
}

func (m Model) statsPanel() string {
	row := func(label, value string) string {
		return labelStyle.Render(label) + valueStyle.Render(value)
	}
	lines := []string{
		row("step", fmt.Sprintf("%d", m.stats.Step)),
		row("time", fmt.Sprintf("%.2fs", m.stats.Time)),
		row("bodies", fmt.Sprintf("%d", m.stats.Bodies)),
		row("active", fmt.Sprintf("%d", m.stats.ActiveBodies)),
		row("sleeping", fmt.Sprintf("%d", m.stats.SleepingBodies)),
		row("islands", fmt.Sprintf("%d", m.stats.Islands)),
		row("contacts", fmt.Sprintf("%d", m.stats.Contacts)),
		row("step cost", m.stats.Duration.String()),
	}
	return statsStyle.Render(strings.Join(lines, "\n"))
}

// Run blocks on the live view until the user quits.
func Run(w *world.World, scene string, frameRate, stepsPerTick int) error {
	p := tea.NewProgram(NewModel(w, scene, frameRate, stepsPerTick))
	_, err := p.Run()
	return err
}
