// Package elbowtui renders the elbow sweep as an interactive terminal
// chart so the user can pick a cluster count off the WSS curve.
package elbowtui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/runger/rfmseg/internal/kmeans"
)

// sweepState represents the current state of the picker's state machine.
type sweepState int

const (
	stateSweeping  sweepState = iota // Sweep in progress
	stateLoaded                      // Curve available, user is picking
	stateError                       // Sweep failed
	stateCancelled                   // User cancelled (Esc / Ctrl+C)
)

// SweepFunc computes the WSS curve. It runs once, off the UI goroutine.
type SweepFunc func(ctx context.Context) ([]kmeans.SweepPoint, error)

// sweepDoneMsg is sent when the async sweep completes.
type sweepDoneMsg struct {
	points []kmeans.SweepPoint
	err    error
}

// Model is the Bubble Tea model for the elbow picker TUI.
type Model struct {
	state     sweepState
	spin      spinner.Model
	sweep     SweepFunc
	points    []kmeans.SweepPoint
	cursor    int // Index into points
	suggested int // Suggested k from the curve, 0 when none
	err       error

	width  int // Terminal width
	height int // Terminal height

	// result holds the chosen k after the user presses Enter.
	result int
	chosen bool

	// cancelSweep cancels the in-flight sweep context.
	cancelSweep context.CancelFunc
}

// NewModel creates a picker that will run the given sweep on start.
func NewModel(sweep SweepFunc) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle
	return Model{
		state: stateSweeping,
		spin:  s,
		sweep: sweep,
	}
}

// Result returns the chosen k and whether the user confirmed a choice.
func (m Model) Result() (int, bool) {
	return m.result, m.chosen
}

// Init implements tea.Model. It kicks off the sweep and the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.startSweep(), m.spin.Tick)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case sweepDoneMsg:
		return m.handleSweepDone(msg)

	case spinner.TickMsg:
		if m.state != stateSweeping {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.state = stateCancelled
		m.cancelInflight()
		return m, tea.Quit

	case tea.KeyEnter:
		if m.state == stateLoaded && m.cursor >= 0 && m.cursor < len(m.points) {
			m.result = m.points[m.cursor].K
			m.chosen = true
		}
		m.cancelInflight()
		return m, tea.Quit

	case tea.KeyUp:
		if m.state == stateLoaded && m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case tea.KeyDown:
		if m.state == stateLoaded && m.cursor < len(m.points)-1 {
			m.cursor++
		}
		return m, nil
	}

	switch msg.String() {
	case "k":
		if m.state == stateLoaded && m.cursor > 0 {
			m.cursor--
		}
	case "j":
		if m.state == stateLoaded && m.cursor < len(m.points)-1 {
			m.cursor++
		}
	}
	return m, nil
}

// handleSweepDone processes the result of the async sweep.
func (m Model) handleSweepDone(msg sweepDoneMsg) (tea.Model, tea.Cmd) {
	if m.state == stateCancelled {
		return m, nil
	}

	if msg.err != nil {
		m.state = stateError
		m.err = msg.err
		return m, nil
	}

	m.points = msg.points
	m.suggested = kmeans.SuggestElbow(msg.points)
	m.state = stateLoaded
	m.cursor = 0
	for i, p := range m.points {
		if p.K == m.suggested {
			m.cursor = i
			break
		}
	}
	return m, nil
}

// startSweep returns a tea.Cmd that runs the sweep asynchronously.
func (m *Model) startSweep() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelSweep = cancel

	sweep := m.sweep
	return func() tea.Msg {
		points, err := sweep(ctx)
		return sweepDoneMsg{points: points, err: err}
	}
}

// cancelInflight cancels any in-progress sweep context.
func (m *Model) cancelInflight() {
	if m.cancelSweep != nil {
		m.cancelSweep()
		m.cancelSweep = nil
	}
}

// --- View rendering ---

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	spinnerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))
	selectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	normalStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	barStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))
	suggestedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Elbow curve"))
	b.WriteRune('\n')

	switch m.state {
	case stateSweeping:
		b.WriteString(m.spin.View())
		b.WriteString(dimStyle.Render(" sweeping cluster counts..."))

	case stateError:
		msg := "Error"
		if m.err != nil {
			msg = fmt.Sprintf("Error: %s", m.err)
		}
		b.WriteString(errorStyle.Render(msg))

	case stateCancelled:
		b.WriteString(dimStyle.Render("Cancelled"))

	case stateLoaded:
		b.WriteString(m.viewChart())
		b.WriteRune('\n')
		b.WriteString(dimStyle.Render("up/down move, enter pick, esc cancel"))
	}

	return b.String()
}

// viewChart renders one bar per k, scaled against the largest WSS.
func (m Model) viewChart() string {
	maxWSS := 0.0
	for _, p := range m.points {
		if p.WSS > maxWSS {
			maxWSS = p.WSS
		}
	}

	barWidth := m.width - 30
	if barWidth < 10 {
		barWidth = 40
	}

	var b strings.Builder
	for i, p := range m.points {
		n := 0
		if maxWSS > 0 {
			n = int(p.WSS / maxWSS * float64(barWidth))
		}
		if n < 1 {
			n = 1
		}

		line := fmt.Sprintf("k=%-2d %s %.2f", p.K, barStyle.Render(strings.Repeat("█", n)), p.WSS)
		if !p.Converged {
			line += dimStyle.Render(" ~")
		}
		if p.K == m.suggested {
			line += suggestedStyle.Render(" (suggested)")
		}

		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> "))
		} else {
			b.WriteString(normalStyle.Render("  "))
		}
		b.WriteString(line)
		if i < len(m.points)-1 {
			b.WriteRune('\n')
		}
	}
	return b.String()
}
