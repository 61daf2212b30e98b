package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"libdb.so/ringglow/button"
	"libdb.so/ringglow/internal/control"
	"libdb.so/ringglow/internal/ring"
)

var (
	// offColor is the color of a channel at duty 0.
	offColor = colorful.Color{R: 0.12, G: 0.1, B: 0.08}
	// onColor is the color of a channel at full duty.
	onColor, _ = colorful.Hex("#ffb000")
)

// glowColor returns the color of a channel driven at the given duty cycle.
func glowColor(duty uint8) colorful.Color {
	return offColor.BlendLab(onColor, float64(duty)/255).Clamped()
}

// dutyRecorder is a ring.Driver keeping the last duty of every channel.
type dutyRecorder struct {
	duty   []uint8
	frames int
}

func newDutyRecorder(numChannels int) *dutyRecorder {
	return &dutyRecorder{duty: make([]uint8, numChannels)}
}

func (r *dutyRecorder) Write(ch ring.Channel, duty uint8) { r.duty[ch] = duty }
func (r *dutyRecorder) Flush()                            { r.frames++ }

type point struct{ x, y int }

// ringLayout places n outputs clockwise from the top on a grid of the given
// radius in rows. Columns are twice as dense as rows.
func ringLayout(n, radius int) []point {
	points := make([]point, n)
	for i := range points {
		angle := float64(i) * 2 * math.Pi / float64(n)
		points[i] = point{
			x: int(math.Round(float64(2*radius) + float64(2*radius)*math.Sin(angle))),
			y: int(math.Round(float64(radius) - float64(radius)*math.Cos(angle))),
		}
	}
	return points
}

type tickMsg time.Time

func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// keyEvents returns the button events a key stands for. Terminals do not
// report key releases, so every key is a full press.
func keyEvents(key string) []button.Event {
	tap := func(id button.ID) []button.Event {
		return []button.Event{
			{Button: id, Kind: button.Pressed},
			{Button: id, Kind: button.Released, Duration: 100 * time.Millisecond},
		}
	}

	switch key {
	case "tab", "enter", "s":
		return tap(button.Select)
	case "up", "k", "+", "=":
		return tap(button.Up)
	case "down", "j", "-", "_":
		return tap(button.Down)
	case "p":
		return []button.Event{
			{Button: button.Select, Kind: button.Pressed},
			{Button: button.Select, Kind: button.Held, Duration: button.DefaultHoldTimeout},
			{Button: button.Select, Kind: button.Released, Duration: button.DefaultHoldTimeout},
		}
	default:
		return nil
	}
}

type model struct {
	engine   *ring.Engine
	control  *control.Dispatcher
	duty     *dutyRecorder
	interval time.Duration
	radius   int
	quitting bool
}

func newModel(engine *ring.Engine, dispatcher *control.Dispatcher, duty *dutyRecorder, interval time.Duration) model {
	return model{
		engine:   engine,
		control:  dispatcher,
		duty:     duty,
		interval: interval,
		radius:   3 + len(duty.duty)/6,
	}
}

func (m model) Init() tea.Cmd {
	return tick(m.interval)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c":
			m.quitting = true
			m.engine.Shutdown()
			return m, tea.Quit

		case "0", "1", "2", "3", "4", "5", "6", "7", "8", "9":
			m.engine.SetPattern(int(key[0] - '0'))

		default:
			for _, ev := range keyEvents(key) {
				m.control.Handle(ev)
			}
		}

	case tickMsg:
		m.engine.Poll()
		return m, tick(m.interval)
	}

	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(onColor.Hex()))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedStyle := lipgloss.NewStyle().Reverse(true)

	s := m.engine.Settings()
	power := "on"
	if !m.engine.Running() {
		power = "off"
	}

	fields := []struct {
		mode  control.Mode
		value string
	}{
		{control.PatternMode, ring.Pattern(s.Pattern).String()},
		{control.SpeedMode, fmt.Sprintf("%d rpm", s.Speed)},
		{control.BrightnessMode, fmt.Sprintf("%d/%d", s.Brightness, ring.MaxBrightness)},
	}

	var status strings.Builder
	for _, f := range fields {
		field := fmt.Sprintf("%s: %s", f.mode, f.value)
		if f.mode == m.control.Mode() {
			field = selectedStyle.Render(field)
		}
		status.WriteString(field)
		status.WriteString("  ")
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("ringglow  power:%s  frames:%d", power, m.duty.frames)))
	b.WriteString("\n\n")
	b.WriteString(m.renderRing())
	b.WriteString("\n\n")
	b.WriteString(status.String())
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("tab:mode  up/down:adjust  p:power  0-9:pattern  q:quit"))
	b.WriteString("\n")

	return b.String()
}

func (m model) renderRing() string {
	width := 4*m.radius + 1
	height := 2*m.radius + 1

	grid := make([][]string, height)
	for y := range grid {
		grid[y] = make([]string, width)
		for x := range grid[y] {
			grid[y][x] = " "
		}
	}

	for i, p := range ringLayout(len(m.duty.duty), m.radius) {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(glowColor(m.duty.duty[i]).Hex()))
		grid[p.y][p.x] = style.Render("●")
	}

	lines := make([]string, height)
	for y, row := range grid {
		lines[y] = strings.Join(row, "")
	}
	return strings.Join(lines, "\n")
}
