package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"
	"github.com/charmbracelet/bubbles/textinput"

	"armlink/pkg/arm"
	"armlink/pkg/link"
)

type MonitorCommand struct {
	Port string `long:"port" description:"Serial port (overrides config file)"`
}

const (
	headerHeight = 2 // title + blank line
	legendHeight = 2 // legend row + blank
	footerHeight = 9 // log box + help line
	maxLogRows   = 6 // activity entries shown
	borderSize   = 2 // chart border
	nudgeDeg     = 5 // degrees per +/- keypress
)

// Joint colors - distinct colors for each joint
var jointColors = map[arm.Joint]string{
	arm.Theta1: "196", // red
	arm.Theta2: "208", // orange
	arm.Theta3: "226", // yellow
	arm.Theta4: "46",  // green
	arm.Theta5: "51",  // cyan
	arm.Theta6: "201", // magenta
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	selStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
)

type monitorModel struct {
	mgr      *link.Manager
	cfg      *arm.Config
	chart    *streamlinechart.Model
	width    int
	height   int
	selected int // index into arm.AllJoints()
	entering bool
	feedIn   textinput.Model
	quitting bool
}

// Messages
type poseMsg arm.State
type refreshMsg struct{}

func waitForPose(p *arm.Pose) tea.Cmd {
	return func() tea.Msg {
		return poseMsg(<-p.Changes())
	}
}

func refreshTick() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(time.Time) tea.Msg {
		return refreshMsg{}
	})
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *monitorModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 16 // default size before we know terminal size
	}
	width = m.width - borderSize - 2
	if width < 40 {
		width = 40
	}
	height = m.height - headerHeight - legendHeight - footerHeight - borderSize
	if height < 8 {
		height = 8
	}
	return width, height
}

func (m *monitorModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

func initialMonitorModel(mgr *link.Manager, cfg *arm.Config) monitorModel {
	chart := streamlinechart.New(80, 16,
		streamlinechart.WithYRange(-180, 180),
	)
	for _, j := range arm.AllJoints() {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(jointColors[j]))
		chart.SetDataSetStyles(string(j), runes.ThinLineStyle, style)
	}

	ti := textinput.New()
	ti.CharLimit = 8
	ti.Prompt = "feed (deg/min): "

	return monitorModel{
		mgr:    mgr,
		cfg:    cfg,
		chart:  &chart,
		feedIn: ti,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(
		waitForPose(m.mgr.Pose()),
		refreshTick(),
	)
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		if m.entering {
			switch msg.Type {
			case tea.KeyEnter:
				if v, err := strconv.ParseFloat(strings.TrimSpace(m.feedIn.Value()), 64); err == nil && v > 0 {
					m.cfg.FeedRate = v
				}
				m.entering = false
				return m, nil
			case tea.KeyEsc:
				m.entering = false
				return m, nil
			}
			var cmd tea.Cmd
			m.feedIn, cmd = m.feedIn.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "1", "2", "3", "4", "5", "6":
			m.selected = int(msg.String()[0] - '1')
			return m, nil
		case "+", "=":
			m.nudge(nudgeDeg)
			return m, nil
		case "-", "_":
			m.nudge(-nudgeDeg)
			return m, nil
		case "s":
			_ = m.mgr.SendPose()
			return m, nil
		case "a":
			m.mgr.SetAutoSend(!m.mgr.AutoSend())
			return m, nil
		case "f":
			m.entering = true
			m.feedIn.SetValue("")
			m.feedIn.Focus()
			return m, nil
		}

	case poseMsg:
		for j, rad := range arm.State(msg) {
			m.chart.PushDataSet(string(j), arm.ToWire(rad))
		}
		m.chart.DrawAll()
		return m, waitForPose(m.mgr.Pose())

	case refreshMsg:
		// Activity log and state are polled; nothing to mutate here.
		return m, refreshTick()
	}

	return m, nil
}

// nudge shifts the selected joint locally and schedules a debounced
// auto-send through the manager.
func (m *monitorModel) nudge(deg float64) {
	j := arm.AllJoints()[m.selected]
	cur := m.mgr.Pose().Snapshot()[j]
	m.mgr.Pose().Apply(arm.State{j: cur + arm.FromWire(deg)})
	m.mgr.PoseEdited()
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Monitor stopped.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render("armlink monitor"))
	sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%s]", m.mgr.State())))
	if m.mgr.MotionActive() {
		sb.WriteString(warnStyle.Render("  moving"))
	}
	if m.mgr.AutoSend() {
		sb.WriteString(statusStyle.Render("  auto-send on"))
	}
	sb.WriteString(statusStyle.Render(fmt.Sprintf("  F%.0f", m.cfg.FeedRate)))
	sb.WriteString("\n\n")

	// Chart
	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	// Legend with selection marker and live angles
	sb.WriteString(m.renderLegend())
	sb.WriteString("\n")

	// Activity log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(m.width - 4)

	entries := m.mgr.Activity().Entries()
	if len(entries) > maxLogRows {
		entries = entries[len(entries)-maxLogRows:]
	}
	var logLines []string
	for _, e := range entries {
		line := fmt.Sprintf("%s %s", e.Time.Format("15:04:05"), e.Message)
		if e.Level != link.LevelInfo {
			line = warnStyle.Render(line)
		}
		logLines = append(logLines, line)
	}
	if len(logLines) == 0 {
		logLines = []string{statusStyle.Render("no activity yet")}
	}
	sb.WriteString(logStyle.Render(strings.Join(logLines, "\n")))
	sb.WriteString("\n")

	if m.entering {
		sb.WriteString(m.feedIn.View())
	} else {
		sb.WriteString("1-6:select  +/-:nudge 5°  s:send  a:auto-send  f:feed  q:quit")
	}

	return sb.String()
}

func (m monitorModel) renderLegend() string {
	pose := m.mgr.Pose().Snapshot()
	var items []string
	for i, j := range arm.AllJoints() {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(jointColors[j])).Bold(true)
		item := colorStyle.Render("━━") + fmt.Sprintf(" %s %.1f°", j, arm.ToWire(pose[j]))
		if i == m.selected {
			item = selStyle.Render("[") + item + selStyle.Render("]")
		}
		items = append(items, item)
	}
	return strings.Join(items, "  ")
}

func (c *MonitorCommand) Execute(args []string) error {
	cfg, err := arm.LoadConfig()
	if err != nil {
		cfg = arm.DefaultConfig()
	}
	if c.Port != "" {
		cfg.Port = c.Port
	}

	mgr := link.NewManager(link.NewSerialTransport(cfg.Port), cfg, zerolog.Nop())
	if err := mgr.Connect(); err != nil {
		return fmt.Errorf("connect %s: %w", cfg.Port, err)
	}
	defer mgr.Disconnect()

	p := tea.NewProgram(initialMonitorModel(mgr, cfg), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run monitor: %w", err)
	}
	return nil
}
