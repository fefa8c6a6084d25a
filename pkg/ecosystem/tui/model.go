// Package tui implements the Bubble Tea model for formengine-tui: a
// step-by-step journey walkthrough. Selecting a step evaluates a GET
// request against it and renders the result.
package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ormasoftchile/formengine/pkg/answerhistory"
	"github.com/ormasoftchile/formengine/pkg/evaluator"
	"github.com/ormasoftchile/formengine/pkg/formhost"
	"github.com/ormasoftchile/formengine/pkg/thunk"
)

// stepState tracks one step's walkthrough status.
type stepState struct {
	Path   string
	Status string // "pending", "ok", "error"
	Output string
}

// Model is the Bubble Tea model for formengine-tui.
type Model struct {
	journeyPath string
	steps       []stepState
	selected    int
	width       int
	height      int
	err         error

	output viewport.Model
	ready  bool
}

// NewModel creates a TUI model from a journey file and its discovered
// step paths.
func NewModel(journeyPath string, stepPaths []string) Model {
	steps := make([]stepState, 0, len(stepPaths))
	for _, p := range stepPaths {
		steps = append(steps, stepState{Path: p, Status: "pending"})
	}
	return Model{journeyPath: journeyPath, steps: steps}
}

func (m Model) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
			m.syncOutputView()
		case "down", "j":
			if m.selected < len(m.steps)-1 {
				m.selected++
			}
			m.syncOutputView()
		case "enter", " ":
			m.evaluateSelected()
			m.syncOutputView()
		default:
			if m.ready {
				var cmd tea.Cmd
				m.output, cmd = m.output.Update(msg)
				return m, cmd
			}
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		outW, outH := m.width-4, m.height/2
		if outW < 1 {
			outW = 1
		}
		if outH < 1 {
			outH = 1
		}
		if !m.ready {
			m.output = viewport.New(outW, outH)
			m.ready = true
		} else {
			m.output.Width = outW
			m.output.Height = outH
		}
		m.syncOutputView()
	}
	return m, nil
}

// syncOutputView pushes the selected step's output into the scrollable
// viewport, so long JSON results can be paged with the viewport's own
// key bindings (↑/↓ are consumed by step navigation above; pgup/pgdn and
// mouse wheel reach the viewport directly).
func (m *Model) syncOutputView() {
	if !m.ready || m.selected >= len(m.steps) {
		return
	}
	m.output.SetContent(m.steps[m.selected].Output)
}

// evaluateSelected compiles and evaluates the currently selected step as
// a GET request, recording its outcome for View to render.
func (m *Model) evaluateSelected() {
	if m.selected >= len(m.steps) {
		return
	}
	s := &m.steps[m.selected]

	step, funcs, _, err := formhost.CompileJourneyStep(m.journeyPath, s.Path)
	if err != nil {
		s.Status = "error"
		s.Output = err.Error()
		return
	}

	answers := answerhistory.New()
	session := evaluator.NewSession(nil, answers, map[string]any{}, map[string]any{})
	ev := evaluator.New(step, funcs, session)
	ectx := ev.CreateContext(thunk.Request{Method: "GET"}, map[string]any{}, answers)

	result := ev.Evaluate(ectx)
	if result.Error != nil {
		s.Status = "error"
		s.Output = fmt.Sprintf("[%s] %s", result.Error.Kind, result.Error.Message)
		return
	}
	data, _ := json.MarshalIndent(result.Value, "", "  ")
	s.Status = "ok"
	s.Output = string(data)
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	b.WriteString(headerStyle.Render(fmt.Sprintf("  formengine-tui: %s", m.journeyPath)))
	b.WriteString("\n\n")

	for i, s := range m.steps {
		icon := statusIcon(s.Status)
		line := fmt.Sprintf("%s %s", icon, s.Path)
		if i == m.selected {
			selectedStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51"))
			b.WriteString(selectedStyle.Render("▸ " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.ready && m.selected < len(m.steps) && m.steps[m.selected].Output != "" {
		b.WriteString(m.output.View())
		b.WriteString("\n\n")
	}

	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	b.WriteString(helpStyle.Render("  ↑/↓ select step · enter evaluate · pgup/pgdn scroll output · q quit"))
	return b.String()
}

func statusIcon(status string) string {
	switch status {
	case "ok":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("40")).Render("✓")
	case "error":
		return lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render("·")
	}
}
